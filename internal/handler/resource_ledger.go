package handler

import (
    "encoding/json"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
)

type transactionBody struct {
    BusinessID  *uint64      `json:"business_id"`
    Description *string      `json:"description"`
    Amount      *json.Number `json:"amount"`
    Type        *string      `json:"type"`
    Category    *string      `json:"category"`
    Date        *string      `json:"date"`
    Status      *string      `json:"status"`
}

func enumField(field string, v *string, valid func(string) bool, fields FieldErrors) *string {
    if v == nil {
        return nil
    }
    s := strings.ToLower(strings.TrimSpace(*v))
    if !valid(s) {
        fields.add(field, "invalid choice")
    }
    return &s
}

func (b transactionBody) patch(fields FieldErrors, creating bool) repository.TransactionPatch {
    p := repository.TransactionPatch{
        BusinessID:  b.BusinessID,
        Description: trimmed(b.Description),
        Amount:      optMoney("amount", b.Amount, maxAmount, fields),
        Type:        enumField("type", b.Type, model.ValidTxType, fields),
        Category:    trimmed(b.Category),
        Date:        optDate("date", b.Date, fields),
        Status:      enumField("status", b.Status, model.ValidTxStatus, fields),
    }
    if creating {
        fields.required("description", deref(p.Description))
        if b.Amount == nil {
            fields.add("amount", "this field is required")
        }
        if b.Type == nil {
            fields.add("type", "this field is required")
        }
    }
    fields.maxLen("description", deref(p.Description), 255)
    fields.maxLen("category", deref(p.Category), 100)
    return p
}

// ListTransactions handles GET /v1/transactions with optional business_id,
// type, status and date filters.
func (h *ResourceHandler) ListTransactions(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    f := repository.TransactionFilter{
        BusinessID: queryUint(c, "business_id", fields),
        Type:       queryEnum(c, "type", model.ValidTxType, fields),
        Status:     queryEnum(c, "status", model.ValidTxStatus, fields),
        Date:       queryDate(c, "date", fields),
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Transactions.List(ctx, acct, f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *ResourceHandler) GetTransaction(c echo.Context) error {
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
    t, err := h.Transactions.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}

func (h *ResourceHandler) CreateTransaction(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var body transactionBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    if body.BusinessID == nil {
        body.BusinessID = queryUint(c, "business_id", fields)
    }
    p := body.patch(fields, true)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    in := repository.TransactionInput{
        BusinessID:  p.BusinessID,
        Description: *p.Description,
        Amount:      *p.Amount,
        Type:        *p.Type,
        Category:    deref(p.Category),
        Status:      deref(p.Status),
    }
    if p.Date != nil {
        in.Date = *p.Date
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Transactions.Create(ctx, acct, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *ResourceHandler) UpdateTransaction(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body transactionBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    p := body.patch(fields, false)
    if p.Description != nil {
        fields.required("description", *p.Description)
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Transactions.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ResourceHandler) DeleteTransaction(c echo.Context) error {
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
    if err := h.Transactions.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
