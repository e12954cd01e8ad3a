package model

import (
    "database/sql/driver"
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire and column format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component. It reads and writes
// "YYYY-MM-DD" in JSON and maps to a MySQL DATE column.
type Date struct{ time.Time }

// ParseDate parses a "YYYY-MM-DD" string in UTC.
func ParseDate(s string) (Date, error) {
    t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
    if err != nil {
        return Date{}, err
    }
    return Date{t}, nil
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) Date {
    y, m, d := t.UTC().Date()
    return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
    if d.IsZero() {
        return []byte("null"), nil
    }
    return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    if s == "" || s == "null" {
        *d = Date{}
        return nil
    }
    p, err := ParseDate(s)
    if err != nil {
        return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
    }
    *d = p
    return nil
}

// Value stores the day as a DATE literal.
func (d Date) Value() (driver.Value, error) {
    if d.IsZero() {
        return nil, nil
    }
    return d.String(), nil
}

// Scan accepts the time.Time produced by parseTime=true as well as raw bytes.
func (d *Date) Scan(src any) error {
    switch v := src.(type) {
    case nil:
        *d = Date{}
    case time.Time:
        y, m, dd := v.Date()
        *d = Date{time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)}
    case []byte:
        return d.Scan(string(v))
    case string:
        p, err := ParseDate(v)
        if err != nil {
            return err
        }
        *d = p
    default:
        return fmt.Errorf("cannot scan %T into Date", src)
    }
    return nil
}
