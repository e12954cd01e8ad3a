package handler

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/backoffice/internal/queue"
)

func postContact(t *testing.T, n *mockNotifier, body string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.POST("/v1/contact", NewContactHandler(n).Send)
    req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestContactAccepted(t *testing.T) {
    n := &mockNotifier{}
    n.On("Notify", mock.Anything, mock.MatchedBy(func(m queue.Notification) bool {
        return m.Kind == queue.KindContactMessage && m.Contact != nil &&
            m.Contact.Email == "ann@example.com" && m.Contact.Message == "Hello there"
    })).Return(nil).Once()

    rec := postContact(t, n, `{"name":" Ann ","email":"Ann@Example.com","message":"  Hello there "}`)
    assert.Equal(t, http.StatusAccepted, rec.Code)
    n.AssertExpectations(t)
}

func TestContactPublishFailure(t *testing.T) {
    n := &mockNotifier{}
    n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down"))

    rec := postContact(t, n, `{"name":"Ann","email":"ann@example.com","message":"hi"}`)
    assert.Equal(t, http.StatusBadGateway, rec.Code)
    assert.Contains(t, rec.Body.String(), "could not send message")
}

func TestContactValidation(t *testing.T) {
    n := &mockNotifier{}
    rec := postContact(t, n, `{"name":"","email":"nope","message":"`+strings.Repeat("x", 5001)+`"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    for _, f := range []string{"name", "email", "message"} {
        assert.Contains(t, rec.Body.String(), `"`+f+`"`)
    }
    n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}
