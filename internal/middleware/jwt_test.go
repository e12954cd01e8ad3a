package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/backoffice/internal/utils"
)

const secret = "middleware-secret"

func serve(t *testing.T, authHeader string) (*httptest.ResponseRecorder, uint64) {
    t.Helper()
    e := echo.New()
    var seen uint64
    h := JWTAuth(secret)(func(c echo.Context) error {
        id, ok := AccountID(c)
        require.True(t, ok)
        seen = id
        return c.NoContent(http.StatusNoContent)
    })
    req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))
    return rec, seen
}

func TestJWTAuthAcceptsAccessToken(t *testing.T) {
    tok, err := utils.NewAccessToken(secret, 42, 5)
    require.NoError(t, err)

    rec, id := serve(t, "Bearer "+tok.Token)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, uint64(42), id)
}

func TestJWTAuthRejects(t *testing.T) {
    refresh, err := utils.NewRefreshToken(secret, "hash", 42, 1)
    require.NoError(t, err)
    foreign, err := utils.NewAccessToken("other-secret", 42, 5)
    require.NoError(t, err)

    cases := map[string]string{
        "no header":        "",
        "not bearer":       "Basic abc",
        "garbage":          "Bearer not-a-jwt",
        "refresh token":    "Bearer " + refresh.Raw,
        "foreign secret":   "Bearer " + foreign.Token,
    }
    for name, header := range cases {
        t.Run(name, func(t *testing.T) {
            rec, _ := serve(t, header)
            assert.Equal(t, http.StatusUnauthorized, rec.Code)
        })
    }
}

func TestAccountIDAbsent(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    _, ok := AccountID(c)
    assert.False(t, ok)
    assert.Equal(t, "anon", rateSubject(c))

    SetAccountID(c, 7)
    assert.Equal(t, "7", rateSubject(c))
}
