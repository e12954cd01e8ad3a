package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// accountIDKey is the echo context key JWTAuth writes the caller's id to.
const accountIDKey = "account_id"

// AccountID returns the authenticated caller set by JWTAuth.  ok is false
// on routes that are not behind JWTAuth.
func AccountID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(accountIDKey).(uint64)
    return id, ok && id != 0
}

// SetAccountID stores id as the caller.  Tests use it to bypass JWTAuth.
func SetAccountID(c echo.Context, id uint64) { c.Set(accountIDKey, id) }

// rateSubject names the caller for rate-limit keys: the account id when
// authenticated, "anon" otherwise.
func rateSubject(c echo.Context) string {
    if id, ok := AccountID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
