package handler

import (
    "bytes"
    "encoding/json"
    "log/slog"
    "net/http"
    "regexp"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
)

var invoiceNumberRE = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

type invoiceBody struct {
    BusinessID    *uint64      `json:"business_id"`
    InvoiceNumber *string      `json:"invoice_number"`
    ClientName    *string      `json:"client_name"`
    DueDate       *string      `json:"due_date"`
    Amount        *json.Number `json:"amount"`
    Status        *string      `json:"status"`
}

func (b invoiceBody) patch(fields FieldErrors, creating bool) repository.InvoicePatch {
    p := repository.InvoicePatch{
        BusinessID: b.BusinessID,
        ClientName: trimmed(b.ClientName),
        DueDate:    optDate("due_date", b.DueDate, fields),
        Amount:     optMoney("amount", b.Amount, maxAmount, fields),
        Status:     enumField("status", b.Status, model.ValidInvoiceStatus, fields),
    }
    if p.ClientName != nil || creating {
        fields.required("client_name", deref(p.ClientName))
        fields.maxLen("client_name", deref(p.ClientName), 200)
    }
    if creating {
        if b.DueDate == nil || strings.TrimSpace(*b.DueDate) == "" {
            fields.add("due_date", "this field is required")
        }
        if b.Amount == nil {
            fields.add("amount", "this field is required")
        }
    }
    return p
}

// ListInvoices handles GET /v1/invoices with optional business_id and status.
func (h *ResourceHandler) ListInvoices(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    f := repository.InvoiceFilter{
        BusinessID: queryUint(c, "business_id", fields),
        Status:     queryEnum(c, "status", model.ValidInvoiceStatus, fields),
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Invoices.List(ctx, acct, f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *ResourceHandler) GetInvoice(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    inv, err := h.Invoices.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, inv)
}

// CreateInvoice handles POST /v1/invoices. Without invoice_number one is
// generated as INV-YYYYMMDD-XXXXXX.
func (h *ResourceHandler) CreateInvoice(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var body invoiceBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    if body.BusinessID == nil {
        body.BusinessID = queryUint(c, "business_id", fields)
    }
    p := body.patch(fields, true)
    number := strings.TrimSpace(deref(body.InvoiceNumber))
    fields.maxLen("invoice_number", number, 32)
    if number != "" && !invoiceNumberRE.MatchString(number) {
        fields.add("invoice_number", "letters, digits and hyphens only")
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    in := repository.InvoiceInput{
        BusinessID:    p.BusinessID,
        InvoiceNumber: number,
        ClientName:    *p.ClientName,
        DueDate:       *p.DueDate,
        Amount:        *p.Amount,
        Status:        deref(p.Status),
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Invoices.Create(ctx, acct, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// UpdateInvoice handles PUT/PATCH /v1/invoices/:id. The number is fixed at
// creation; sending a different one is a field error.
func (h *ResourceHandler) UpdateInvoice(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body invoiceBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    p := body.patch(fields, false)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if body.InvoiceNumber != nil {
        cur, err := h.Invoices.Get(ctx, acct, id)
        if err != nil {
            return respondError(c, err)
        }
        if strings.TrimSpace(*body.InvoiceNumber) != cur.InvoiceNumber {
            return validationFailed(c, FieldErrors{"invoice_number": "invoice number cannot be changed"})
        }
    }
    out, err := h.Invoices.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ResourceHandler) DeleteInvoice(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Invoices.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// InvoicePDF handles GET /v1/invoices/:id/pdf.
func (h *ResourceHandler) InvoicePDF(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    doc, err := h.Invoices.Document(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    var buf bytes.Buffer
    if err := h.Renderer.Render(&buf, doc); err != nil {
        slog.Error("invoice render failed", "invoice_id", id, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not render document"})
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+pdfFilename(doc.Invoice.InvoiceNumber)+`"`)
    return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// pdfFilename keeps only filename-safe characters of an invoice number.
func pdfFilename(number string) string {
    name := strings.Map(func(r rune) rune {
        switch {
        case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
            return r
        }
        return -1
    }, number)
    if name == "" {
        name = "invoice"
    }
    return name + ".pdf"
}
