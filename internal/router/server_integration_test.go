package router_test

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "net/url"
    "regexp"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/router"
    "github.com/iliyamo/backoffice/internal/service"
    "github.com/iliyamo/backoffice/internal/testhelpers"
)

// outbox records notifications instead of publishing them.
type outbox struct {
    mu  sync.Mutex
    got []queue.Notification
}

func (o *outbox) Notify(_ context.Context, n queue.Notification) error {
    o.mu.Lock()
    defer o.mu.Unlock()
    o.got = append(o.got, n)
    return nil
}

func (o *outbox) last() queue.Notification {
    o.mu.Lock()
    defer o.mu.Unlock()
    return o.got[len(o.got)-1]
}

type api struct {
    t *testing.T
    e *echo.Echo
}

func newAPI(t *testing.T) (*api, *outbox) {
    db := testhelpers.MySQL(t)
    box := &outbox{}
    e := router.New(router.Deps{
        Cfg: config.Config{
            JWTSecret:      "integration-secret",
            AccessTTLMin:   15,
            RefreshTTLDays: 7,
            BcryptCost:     bcrypt.MinCost,
            ResetTimeout:   time.Hour,
            ResetURL:       "https://app.example.com/reset",
        },
        DB:       db,
        Notifier: box,
        Renderer: &service.InvoicePDF{},
    })
    return &api{t: t, e: e}, box
}

func (a *api) call(method, path, token string, body any) (int, []byte) {
    a.t.Helper()
    var buf bytes.Buffer
    if body != nil {
        require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec.Code, rec.Body.Bytes()
}

func (a *api) must(status int, method, path, token string, body any) map[string]any {
    a.t.Helper()
    code, raw := a.call(method, path, token, body)
    require.Equal(a.t, status, code, "%s %s: %s", method, path, raw)
    var out map[string]any
    if len(raw) > 0 && raw[0] == '{' {
        require.NoError(a.t, json.Unmarshal(raw, &out))
    }
    return out
}

// signup registers and logs in, returning the access token.
func (a *api) signup(name string) string {
    pw := "correct horse"
    a.must(http.StatusCreated, http.MethodPost, "/v1/auth/register", "", map[string]any{
        "username": name, "email": name + "@example.com", "password": pw, "password2": pw,
    })
    out := a.must(http.StatusOK, http.MethodPost, "/v1/auth/login", "", map[string]any{"username": name, "password": pw})
    return out["access"].(string)
}

func id(m map[string]any) string { return fmt.Sprint(uint64(m["id"].(float64))) }

func TestOwnershipIsolationOverHTTP(t *testing.T) {
    a, _ := newAPI(t)
    alice, bob := a.signup("alice"), a.signup("bob")

    biz := a.must(http.StatusCreated, http.MethodPost, "/v1/businesses", alice, map[string]any{"name": "Alice Bakery"})
    prod := a.must(http.StatusCreated, http.MethodPost, "/v1/products?business_id="+id(biz), alice, map[string]any{
        "name": "Bread", "price": 2.5, "category_name": "Food",
    })

    for _, path := range []string{"/v1/businesses/" + id(biz), "/v1/products/" + id(prod), "/v1/businesses/" + id(biz) + "/contact"} {
        code, _ := a.call(http.MethodGet, path, bob, nil)
        assert.Equal(t, http.StatusNotFound, code, path)
    }
    code, _ := a.call(http.MethodDelete, "/v1/businesses/"+id(biz), bob, nil)
    assert.Equal(t, http.StatusNotFound, code)

    code, _ = a.call(http.MethodPost, "/v1/products", bob, map[string]any{"business_id": biz["id"], "name": "Fake", "price": 1, "category_name": "Food"})
    assert.Equal(t, http.StatusNotFound, code)

    code, raw := a.call(http.MethodPost, "/v1/products", bob, map[string]any{"name": "Orphan", "price": 1, "category_name": "Food"})
    assert.Equal(t, http.StatusBadRequest, code)
    assert.Contains(t, string(raw), "business_id")

    code, raw = a.call(http.MethodPost, "/v1/businesses", bob, map[string]any{"name": "Sneaky", "account_id": 1})
    assert.Equal(t, http.StatusBadRequest, code)
    assert.Contains(t, string(raw), "account_id")

    code, raw = a.call(http.MethodGet, "/v1/businesses", bob, nil)
    require.Equal(t, http.StatusOK, code)
    assert.JSONEq(t, `[]`, string(raw))

    code, _ = a.call(http.MethodGet, "/v1/businesses", "", nil)
    assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOrdersAndInvoicesOverHTTP(t *testing.T) {
    a, _ := newAPI(t)
    tok := a.signup("carol")
    biz := a.must(http.StatusCreated, http.MethodPost, "/v1/businesses", tok, map[string]any{"name": "Carol Tools"})
    a.must(http.StatusOK, http.MethodPut, "/v1/businesses/"+id(biz)+"/contact", tok, map[string]any{"city": "Lyon", "country": "France"})

    prod := a.must(http.StatusCreated, http.MethodPost, "/v1/products", tok, map[string]any{
        "business_id": biz["id"], "name": "Hammer", "price": "10.25", "category_name": "Tools",
    })
    order := a.must(http.StatusCreated, http.MethodPost, "/v1/orders", tok, map[string]any{
        "product_id": prod["id"], "customer_name": "Dan", "customer_email": "dan@example.com", "quantity": 3,
    })
    assert.Equal(t, "30.75", order["total_price"])
    assert.Equal(t, "pending", order["status"])

    number := regexp.MustCompile(`^INV-\d{8}-[A-Z0-9]{6}$`)
    seen := map[string]bool{}
    var last map[string]any
    for range 5 {
        last = a.must(http.StatusCreated, http.MethodPost, "/v1/invoices", tok, map[string]any{
            "business_id": biz["id"], "client_name": "ACME", "due_date": "2026-12-31", "amount": "1250.50",
        })
        n := last["invoice_number"].(string)
        assert.Regexp(t, number, n)
        assert.False(t, seen[n], "duplicate %s", n)
        seen[n] = true
    }

    code, raw := a.call(http.MethodPatch, "/v1/invoices/"+id(last), tok, map[string]any{"invoice_number": "INV-20260101-ZZZZZZ"})
    assert.Equal(t, http.StatusBadRequest, code)
    assert.Contains(t, string(raw), "invoice_number")

    req := httptest.NewRequest(http.MethodGet, "/v1/invoices/"+id(last)+"/pdf", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
    assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
    assert.Contains(t, rec.Body.String(), last["invoice_number"].(string))
}

func TestPasswordResetOverHTTP(t *testing.T) {
    a, box := newAPI(t)
    a.signup("erin")

    a.must(http.StatusOK, http.MethodPost, "/v1/auth/password-reset", "", map[string]any{"email": "erin@example.com"})
    sent := box.last()
    require.Equal(t, queue.KindPasswordReset, sent.Kind)
    link, err := url.Parse(sent.PasswordReset.Link)
    require.NoError(t, err)
    confirm := map[string]any{
        "uid":          link.Query().Get("uid"),
        "token":        link.Query().Get("token"),
        "new_password": "battery staple",
    }

    a.must(http.StatusOK, http.MethodPost, "/v1/auth/password-reset/confirm", "", confirm)
    a.must(http.StatusOK, http.MethodPost, "/v1/auth/login", "", map[string]any{"username": "erin", "password": "battery staple"})

    confirm["new_password"] = "third password"
    code, _ := a.call(http.MethodPost, "/v1/auth/password-reset/confirm", "", confirm)
    assert.Equal(t, http.StatusBadRequest, code)
}

func TestProbes(t *testing.T) {
    a, _ := newAPI(t)
    a.must(http.StatusOK, http.MethodGet, "/healthz", "", nil)
    a.must(http.StatusOK, http.MethodGet, "/readyz", "", nil)
}
