package handler // HTTP handlers for the back-office API

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "log/slog"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/backoffice/internal/authz"
    "github.com/iliyamo/backoffice/internal/middleware"
    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
)

// requestTimeout bounds the storage work of one request.
const requestTimeout = 5 * time.Second

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

// Upper bounds of the numeric columns.
var (
    maxPrice  = decimal.RequireFromString("99999999.99")   // DECIMAL(10,2)
    maxAmount = decimal.RequireFromString("9999999999.99") // DECIMAL(12,2)
)

const maxCount = math.MaxInt32 // INT

// FieldErrors maps a request field to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) add(field, msg string) {
    if _, ok := f[field]; !ok {
        f[field] = msg
    }
}

func (f FieldErrors) required(field, v string) {
    if strings.TrimSpace(v) == "" {
        f.add(field, "this field is required")
    }
}

func (f FieldErrors) maxLen(field, v string, n int) {
    if len([]rune(v)) > n {
        f.add(field, "must be at most "+strconv.Itoa(n)+" characters")
    }
}

func validationFailed(c echo.Context, fields FieldErrors) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// callerID returns the authenticated account. Routes behind JWTAuth always
// have one; a missing id means the route was wired without it.
func callerID(c echo.Context) (uint64, error) {
    id, ok := middleware.AccountID(c)
    if !ok {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return 0, errResponded
    }
    return id, nil
}

// errResponded marks an error whose response has already been written.
var errResponded = errors.New("response written")

func pathID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
        return 0, errResponded
    }
    return id, nil
}

// forbiddenOwnerKeys may never appear in a write body: ownership comes from
// the caller's identity only.
var forbiddenOwnerKeys = []string{"account_id", "owner_id", "user", "account"}

// bindBody decodes a JSON object into dst. It writes the 400 response
// itself and returns errResponded when the body is unusable or names an
// owner field.
func bindBody(c echo.Context, dst any) error {
    raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
    if err != nil {
        return respondBadBody(c)
    }
    var keys map[string]json.RawMessage
    if err := json.Unmarshal(raw, &keys); err != nil {
        return respondBadBody(c)
    }
    fields := FieldErrors{}
    for _, k := range forbiddenOwnerKeys {
        if _, ok := keys[k]; ok {
            fields.add(k, "ownership is taken from the authenticated account and cannot be set")
        }
    }
    if len(fields) > 0 {
        _ = validationFailed(c, fields)
        return errResponded
    }
    if err := json.Unmarshal(raw, dst); err != nil {
        var te *json.UnmarshalTypeError
        if errors.As(err, &te) && te.Field != "" {
            _ = validationFailed(c, FieldErrors{te.Field: "invalid value"})
            return errResponded
        }
        return respondBadBody(c)
    }
    return nil
}

func respondBadBody(c echo.Context) error {
    _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    return errResponded
}

// done converts helper results into the handler's return value.
func done(err error) error {
    if errors.Is(err, errResponded) {
        return nil
    }
    return err
}

// respondError maps storage and authorization errors onto HTTP responses.
func respondError(c echo.Context, err error) error {
    var missing *authz.MissingParameterError
    switch {
    case errors.As(err, &missing):
        return validationFailed(c, FieldErrors{missing.Param: "this field is required"})
    case errors.Is(err, authz.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrUnknownCategory):
        return validationFailed(c, FieldErrors{"category_id": "category does not exist"})
    case errors.Is(err, repository.ErrInvoiceNumberTaken):
        return validationFailed(c, FieldErrors{"invoice_number": "invoice with this number already exists"})
    case errors.Is(err, repository.ErrCategoryNameTaken):
        return validationFailed(c, FieldErrors{"name": "category with this name already exists"})
    case errors.Is(err, repository.ErrTotalTooLarge):
        return validationFailed(c, FieldErrors{"quantity": "order total must be at most " + repository.MaxOrderTotal.StringFixed(2)})
    case repository.OutOfRange(err):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "value out of range"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "record is shared with other accounts"})
    case errors.Is(err, repository.ErrTransient):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, retry"})
    case errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
    }
    slog.Error("request failed", "method", c.Request().Method, "path", c.Path(),
        "request_id", c.Response().Header().Get(echo.HeaderXRequestID), "err", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Query filters. A present but malformed value is a field error.

func queryUint(c echo.Context, name string, fields FieldErrors) *uint64 {
    v := c.QueryParam(name)
    if v == "" {
        return nil
    }
    n, err := strconv.ParseUint(v, 10, 64)
    if err != nil {
        fields.add(name, "must be a positive integer")
        return nil
    }
    return &n
}

func queryBool(c echo.Context, name string, fields FieldErrors) *bool {
    v := c.QueryParam(name)
    if v == "" {
        return nil
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        fields.add(name, "must be true or false")
        return nil
    }
    return &b
}

func queryDate(c echo.Context, name string, fields FieldErrors) *time.Time {
    v := c.QueryParam(name)
    if v == "" {
        return nil
    }
    d, err := model.ParseDate(v)
    if err != nil {
        fields.add(name, "must be YYYY-MM-DD")
        return nil
    }
    return &d.Time
}

func queryEnum(c echo.Context, name string, valid func(string) bool, fields FieldErrors) *string {
    v := strings.ToLower(strings.TrimSpace(c.QueryParam(name)))
    if v == "" {
        return nil
    }
    if !valid(v) {
        fields.add(name, "invalid choice")
        return nil
    }
    return &v
}

// optDate parses an optional YYYY-MM-DD body field.
func optDate(field string, v *string, fields FieldErrors) *model.Date {
    if v == nil || strings.TrimSpace(*v) == "" {
        return nil
    }
    d, err := model.ParseDate(*v)
    if err != nil {
        fields.add(field, "must be YYYY-MM-DD")
        return nil
    }
    return &d
}

// optMoney parses an optional non-negative amount with at most two decimals
// and no larger than max.
func optMoney(field string, v *json.Number, max decimal.Decimal, fields FieldErrors) *decimal.Decimal {
    if v == nil {
        return nil
    }
    d, err := decimal.NewFromString(v.String())
    switch {
    case err != nil:
        fields.add(field, "must be a number")
        return nil
    case d.IsNegative():
        fields.add(field, "must not be negative")
        return nil
    case d.Exponent() < -2 && !d.Equal(d.Round(2)):
        fields.add(field, "must have at most 2 decimal places")
        return nil
    case d.GreaterThan(max):
        fields.add(field, "must be at most "+max.StringFixed(2))
        return nil
    }
    return &d
}

// trimmed returns a trimmed copy of an optional string.
func trimmed(s *string) *string {
    if s == nil {
        return nil
    }
    t := strings.TrimSpace(*s)
    return &t
}
