package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/testhelpers"
)

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
    rdb := testhelpers.Redis(t)

    e := echo.New()
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1,
        RefillInterval: time.Minute, TTL: 5 * time.Minute,
        KeyStrategy: "ip_route", Prefix: "rl-test",
    }
    e.POST("/v1/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))

    codes := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
        req.Header.Set(echo.HeaderXRealIP, "203.0.113.5")
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
        if rec.Code == http.StatusTooManyRequests {
            require.NotEmpty(t, rec.Header().Get("Retry-After"))
        }
    }
    assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

    // A different client has its own bucket.
    req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
    req.Header.Set(echo.HeaderXRealIP, "203.0.113.6")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusOK, rec.Code)
}
