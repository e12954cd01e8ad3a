package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/backoffice/internal/config"
)

func TestBuildRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/auth/login")

    cfg := config.RateLimitConfig{Prefix: "rl"}
    for strategy, want := range map[string]string{
        "ip":       "rl:ip:10.0.0.9",
        "user":     "rl:user:anon",
        "ip_route": "rl:ip:10.0.0.9:route:POST /v1/auth/login",
        "":         "rl:ip:10.0.0.9:user:anon:route:POST /v1/auth/login",
    } {
        cfg.KeyStrategy = strategy
        assert.Equal(t, want, buildRateKey(cfg, c), strategy)
    }
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
    e := echo.New()
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)
    called := 0
    h := mw(func(c echo.Context) error { called++; return c.NoContent(http.StatusOK) })

    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        assert.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/contact", nil), rec)))
        assert.Equal(t, http.StatusOK, rec.Code)
    }
    assert.Equal(t, 3, called)
}
