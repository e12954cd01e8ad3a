package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
)

// orderBody has no total: the server derives it from the product price.
type orderBody struct {
    ProductID     *uint64 `json:"product_id"`
    CustomerName  *string `json:"customer_name"`
    CustomerEmail *string `json:"customer_email"`
    CustomerPhone *string `json:"customer_phone"`
    Quantity      *int    `json:"quantity"`
    Status        *string `json:"status"`
    Notes         *string `json:"notes"`
}

func (b orderBody) patch(fields FieldErrors, creating bool) repository.OrderPatch {
    p := repository.OrderPatch{
        ProductID:     b.ProductID,
        CustomerName:  trimmed(b.CustomerName),
        CustomerEmail: trimmed(b.CustomerEmail),
        CustomerPhone: trimmed(b.CustomerPhone),
        Quantity:      b.Quantity,
        Notes:         b.Notes,
    }
    if p.CustomerEmail != nil {
        e := strings.ToLower(*p.CustomerEmail)
        p.CustomerEmail = &e
    }
    if p.CustomerName != nil || creating {
        fields.required("customer_name", deref(p.CustomerName))
        fields.maxLen("customer_name", deref(p.CustomerName), 100)
    }
    if p.CustomerEmail != nil || creating {
        switch e := deref(p.CustomerEmail); {
        case e == "":
            fields.add("customer_email", "this field is required")
        case !validEmail(e):
            fields.add("customer_email", "enter a valid email address")
        }
    }
    fields.maxLen("customer_phone", deref(p.CustomerPhone), 20)
    switch {
    case p.Quantity == nil:
    case *p.Quantity < 1:
        fields.add("quantity", "must be at least 1")
    case *p.Quantity > maxCount:
        fields.add("quantity", "must be at most "+strconv.Itoa(maxCount))
    }
    if b.Status != nil {
        s := strings.ToLower(strings.TrimSpace(*b.Status))
        if !model.ValidOrderStatus(s) {
            fields.add("status", "invalid choice")
        }
        p.Status = &s
    }
    return p
}

// ListOrders handles GET /v1/orders with optional business_id, product_id,
// status and date filters.
func (h *ResourceHandler) ListOrders(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    f := repository.OrderFilter{
        BusinessID: queryUint(c, "business_id", fields),
        ProductID:  queryUint(c, "product_id", fields),
        Status:     queryEnum(c, "status", model.ValidOrderStatus, fields),
        Date:       queryDate(c, "date", fields),
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Orders.List(ctx, acct, f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *ResourceHandler) GetOrder(c echo.Context) error {
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
    o, err := h.Orders.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// CreateOrder handles POST /v1/orders. The product must belong to the caller.
func (h *ResourceHandler) CreateOrder(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var body orderBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    if body.ProductID == nil {
        body.ProductID = queryUint(c, "product_id", fields)
    }
    p := body.patch(fields, true)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    in := repository.OrderInput{
        ProductID:     p.ProductID,
        CustomerName:  *p.CustomerName,
        CustomerEmail: *p.CustomerEmail,
        CustomerPhone: deref(p.CustomerPhone),
        Quantity:      1,
        Status:        deref(p.Status),
        Notes:         deref(p.Notes),
    }
    if p.Quantity != nil {
        in.Quantity = *p.Quantity
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Orders.Create(ctx, acct, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *ResourceHandler) UpdateOrder(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body orderBody
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
    out, err := h.Orders.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ResourceHandler) DeleteOrder(c echo.Context) error {
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
    if err := h.Orders.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
