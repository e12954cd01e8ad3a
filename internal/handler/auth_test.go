package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/middleware"
    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/utils"
)

const secret = "handler-test-secret"

type authFixture struct {
    e        *echo.Echo
    h        *AuthHandler
    accounts *memAccounts
    notifier *mockNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
    t.Helper()
    cfg := config.Config{
        JWTSecret:         secret,
        AccessTTLMin:      15,
        RefreshTTLDays:    7,
        BcryptCost:        bcrypt.MinCost,
        ResetTimeout:      time.Hour,
        ResetURL:          "https://app.example.com/reset",
        ResetAllowedHosts: []string{"app.example.com", "admin.example.com"},
    }
    f := &authFixture{e: echo.New(), accounts: newMemAccounts(), notifier: &mockNotifier{}}
    f.h = NewAuthHandler(cfg, f.accounts, f.notifier)

    g := f.e.Group("/v1/auth")
    g.POST("/register", f.h.Register)
    g.POST("/login", f.h.Login)
    g.POST("/refresh", f.h.Refresh)
    g.POST("/password-reset", f.h.RequestPasswordReset)
    g.POST("/password-reset/confirm", f.h.ConfirmPasswordReset)
    authed := g.Group("", middleware.JWTAuth(secret))
    authed.GET("/me", f.h.Me)
    authed.POST("/password-change", f.h.ChangePassword)
    return f
}

func (f *authFixture) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if bearer != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
    }
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, req)
    var out map[string]any
    _ = json.Unmarshal(rec.Body.Bytes(), &out)
    return rec, out
}

func (f *authFixture) register(t *testing.T, username, email, password string) {
    t.Helper()
    body := `{"username":"` + username + `","email":"` + email + `","password":"` + password + `","password2":"` + password + `"}`
    rec, _ := f.do(t, http.MethodPost, "/v1/auth/register", body, "")
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *authFixture) login(t *testing.T, username, password string) map[string]any {
    t.Helper()
    rec, out := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    return out
}

func fieldsOf(t *testing.T, out map[string]any) map[string]any {
    t.Helper()
    require.Equal(t, "validation failed", out["error"])
    fields, ok := out["fields"].(map[string]any)
    require.True(t, ok)
    return fields
}

func TestRegisterFieldErrors(t *testing.T) {
    f := newAuthFixture(t)
    rec, out := f.do(t, http.MethodPost, "/v1/auth/register",
        `{"username":"bad name!","email":"not-an-email","password":"short","password2":"other"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    fields := fieldsOf(t, out)
    assert.Contains(t, fields, "username")
    assert.Contains(t, fields, "email")
    assert.Contains(t, fields, "password")
    assert.Contains(t, fields, "password2")
}

func TestRegisterDuplicates(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "alice", "alice@example.com", "correct horse")

    rec, out := f.do(t, http.MethodPost, "/v1/auth/register",
        `{"username":"alice2","email":"ALICE@example.com","password":"correct horse","password2":"correct horse"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, fieldsOf(t, out), "email")

    rec, out = f.do(t, http.MethodPost, "/v1/auth/register",
        `{"username":"alice","email":"other@example.com","password":"correct horse","password2":"correct horse"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, fieldsOf(t, out), "username")
}

func TestRegisterReturnsProfileWithoutHash(t *testing.T) {
    f := newAuthFixture(t)
    rec, out := f.do(t, http.MethodPost, "/v1/auth/register",
        `{"username":"bob","email":"Bob@Example.com","password":"correct horse","password2":"correct horse","first_name":"Bob"}`, "")
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "bob@example.com", out["email"])
    assert.Equal(t, "Bob", out["first_name"])
    assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestLoginUniformFailure(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "carol", "carol@example.com", "correct horse")

    wrong, wrongBody := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"carol","password":"nope nope"}`, "")
    unknown, unknownBody := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"nobody","password":"nope nope"}`, "")
    assert.Equal(t, http.StatusUnauthorized, wrong.Code)
    assert.Equal(t, http.StatusUnauthorized, unknown.Code)
    assert.Equal(t, wrongBody, unknownBody)
}

func TestLoginMeAndRefresh(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "dave", "dave@example.com", "correct horse")
    tokens := f.login(t, "dave", "correct horse")

    rec, me := f.do(t, http.MethodGet, "/v1/auth/me", "", tokens["access"].(string))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "dave", me["username"])

    rec, out := f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refresh":"`+tokens["refresh"].(string)+`"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.NotEmpty(t, out["access"])

    // An access token is not a refresh token.
    rec, _ = f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refresh":"`+tokens["access"].(string)+`"}`, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    // The refresh token cannot be used as a bearer.
    rec, _ = f.do(t, http.MethodGet, "/v1/auth/me", "", tokens["refresh"].(string))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordChangeRevokesRefreshTokens(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "erin", "erin@example.com", "correct horse")
    tokens := f.login(t, "erin", "correct horse")
    access := tokens["access"].(string)

    rec, out := f.do(t, http.MethodPost, "/v1/auth/password-change", `{"old_password":"wrong one","new_password":"battery staple"}`, access)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, fieldsOf(t, out), "old_password")

    rec, fresh := f.do(t, http.MethodPost, "/v1/auth/password-change", `{"old_password":"correct horse","new_password":"battery staple"}`, access)
    require.Equal(t, http.StatusOK, rec.Code)

    rec, _ = f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refresh":"`+tokens["refresh"].(string)+`"}`, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec, _ = f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refresh":"`+fresh["refresh"].(string)+`"}`, "")
    assert.Equal(t, http.StatusOK, rec.Code)

    f.login(t, "erin", "battery staple")
}

func TestPasswordResetRequestIsUniform(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "frank", "frank@example.com", "correct horse")

    var sent queue.Notification
    f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n queue.Notification) bool {
        return n.Kind == queue.KindPasswordReset
    })).Run(func(args mock.Arguments) { sent = args.Get(1).(queue.Notification) }).Return(nil).Once()

    known, knownBody := f.do(t, http.MethodPost, "/v1/auth/password-reset", `{"email":"FRANK@example.com"}`, "")
    unknown, unknownBody := f.do(t, http.MethodPost, "/v1/auth/password-reset", `{"email":"ghost@example.com"}`, "")
    assert.Equal(t, http.StatusOK, known.Code)
    assert.Equal(t, http.StatusOK, unknown.Code)
    assert.Equal(t, knownBody, unknownBody)
    f.notifier.AssertExpectations(t)

    require.NotNil(t, sent.PasswordReset)
    assert.Equal(t, "frank@example.com", sent.PasswordReset.Email)
    link, err := url.Parse(sent.PasswordReset.Link)
    require.NoError(t, err)
    assert.Equal(t, "app.example.com", link.Host)
    assert.NotEmpty(t, link.Query().Get("uid"))
    assert.NotEmpty(t, link.Query().Get("token"))
}

func TestPasswordResetPublishFailureIsHidden(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "gina", "gina@example.com", "correct horse")
    f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down"))

    rec, out := f.do(t, http.MethodPost, "/v1/auth/password-reset", `{"email":"gina@example.com"}`, "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, resetRequested["detail"], out["detail"])
}

func TestResetLinkHostAllowList(t *testing.T) {
    f := newAuthFixture(t)
    cases := map[string]string{
        "":                               "app.example.com",
        "https://admin.example.com/r":    "admin.example.com",
        "https://evil.example.net/phish": "app.example.com",
        "javascript:alert(1)":            "app.example.com",
    }
    for requested, host := range cases {
        u, err := url.Parse(f.h.resetLink(requested, "MQ", "tok"))
        require.NoError(t, err)
        assert.Equal(t, host, u.Host, requested)
        assert.Equal(t, "MQ", u.Query().Get("uid"))
    }
}

func TestPasswordResetConfirmFlow(t *testing.T) {
    f := newAuthFixture(t)
    f.register(t, "hank", "hank@example.com", "correct horse")
    a, err := f.accounts.GetByUsername(t.Context(), "hank")
    require.NoError(t, err)
    uid, token := utils.EncodeUID(a.ID), f.h.Resets.Make(a.ID, a.PasswordHash)

    rec, out := f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm",
        `{"uid":"`+uid+`","token":"`+token+`","new_password":"short"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, fieldsOf(t, out), "new_password")

    rec, out = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm",
        `{"uid":"not*base64","token":"`+token+`","new_password":"battery staple"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, invalidResetLink, out["error"])

    rec, _ = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm",
        `{"uid":"`+uid+`","token":"`+token+`","new_password":"battery staple"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    f.login(t, "hank", "battery staple")

    // The token was bound to the old hash and is now spent.
    rec, out = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm",
        `{"uid":"`+uid+`","token":"`+token+`","new_password":"another pass"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, invalidResetLink, out["error"])
}

func TestOverlongPasswordIsFieldError(t *testing.T) {
    f := newAuthFixture(t)
    long := strings.Repeat("p", 80)

    rec, out := f.do(t, http.MethodPost, "/v1/auth/register",
        `{"username":"ivy","email":"ivy@example.com","password":"`+long+`","password2":"`+long+`"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
    assert.Contains(t, fieldsOf(t, out), "password")

    f.register(t, "ivy", "ivy@example.com", "correct horse")
    access := f.login(t, "ivy", "correct horse")["access"].(string)
    rec, out = f.do(t, http.MethodPost, "/v1/auth/password-change",
        `{"old_password":"correct horse","new_password":"`+long+`"}`, access)
    require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
    assert.Contains(t, fieldsOf(t, out), "new_password")

    a, err := f.accounts.GetByUsername(t.Context(), "ivy")
    require.NoError(t, err)
    rec, out = f.do(t, http.MethodPost, "/v1/auth/password-reset/confirm",
        `{"uid":"`+utils.EncodeUID(a.ID)+`","token":"`+f.h.Resets.Make(a.ID, a.PasswordHash)+`","new_password":"`+long+`"}`, "")
    require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
    assert.Contains(t, fieldsOf(t, out), "new_password")

    // The limit counts bytes, not runes.
    fields := FieldErrors{}
    passwordErrors("password", strings.Repeat("é", 37), fields)
    assert.Contains(t, fields, "password")
}
