package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
    var v struct {
        Due Date `json:"due"`
    }
    require.NoError(t, json.Unmarshal([]byte(`{"due":"2026-03-01"}`), &v))
    assert.Equal(t, "2026-03-01", v.Due.String())

    out, err := json.Marshal(v)
    require.NoError(t, err)
    assert.JSONEq(t, `{"due":"2026-03-01"}`, string(out))

    assert.Error(t, json.Unmarshal([]byte(`{"due":"01/03/2026"}`), &v))
}

func TestDateScan(t *testing.T) {
    var d Date
    require.NoError(t, d.Scan(time.Date(2026, 5, 7, 13, 4, 0, 0, time.UTC)))
    assert.Equal(t, "2026-05-07", d.String())

    require.NoError(t, d.Scan([]byte("2025-12-31")))
    assert.Equal(t, "2025-12-31", d.String())

    require.NoError(t, d.Scan(nil))
    assert.True(t, d.IsZero())
}

func TestStatusEnums(t *testing.T) {
    assert.True(t, ValidOrderStatus("confirmed"))
    assert.False(t, ValidOrderStatus("shipped"))
    assert.True(t, ValidInvoiceStatus("overdue"))
    assert.False(t, ValidInvoiceStatus("draft"))
    assert.True(t, ValidTxType("expense"))
    assert.False(t, ValidTxStatus("done"))
}

func TestDayOfUsesUTC(t *testing.T) {
    tokyo := time.FixedZone("JST", 9*3600)
    d := DayOf(time.Date(2026, 3, 1, 2, 0, 0, 0, tokyo))
    assert.Equal(t, "2026-02-28", d.String())
    assert.Equal(t, time.UTC, d.Location())
}
