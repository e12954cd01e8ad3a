package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/backoffice/internal/middleware"
)

func TestCreateInvoiceRejectsUnsafeNumber(t *testing.T) {
    body := `{"business_id":1,"client_name":"ACME","due_date":"2026-12-31","amount":"10","invoice_number":"INV\"; x=\r\n1"}`
    req := httptest.NewRequest(http.MethodPost, "/v1/invoices", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    middleware.SetAccountID(c, 1)

    // Validation answers before storage is touched.
    require.NoError(t, (&ResourceHandler{}).CreateInvoice(c))
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "letters, digits and hyphens only")
}

func TestPDFFilename(t *testing.T) {
    assert.Equal(t, "INV-20260101-AB12CD.pdf", pdfFilename("INV-20260101-AB12CD"))
    assert.Equal(t, "INVx1.pdf", pdfFilename("INV\"; x\r\n=1"))
    assert.Equal(t, "invoice.pdf", pdfFilename("\"\"/"))
}
