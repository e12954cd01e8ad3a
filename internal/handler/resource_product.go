package handler

import (
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/repository"
)

type productBody struct {
    BusinessID   *uint64      `json:"business_id"`
    CategoryID   *uint64      `json:"category_id"`
    CategoryName *string      `json:"category_name"`
    Name         *string      `json:"name"`
    Description  *string      `json:"description"`
    Price        *json.Number `json:"price"`
    Image        *string      `json:"image"`
    IsAvailable  *bool        `json:"is_available"`
    Stock        *int         `json:"stock"`
}

func (b productBody) patch(fields FieldErrors, creating bool) repository.ProductPatch {
    p := repository.ProductPatch{
        BusinessID:   b.BusinessID,
        CategoryID:   b.CategoryID,
        CategoryName: trimmed(b.CategoryName),
        Name:         trimmed(b.Name),
        Description:  b.Description,
        Price:        optMoney("price", b.Price, maxPrice, fields),
        Image:        trimmed(b.Image),
        IsAvailable:  b.IsAvailable,
        Stock:        b.Stock,
    }
    if p.Name != nil || creating {
        fields.required("name", deref(p.Name))
        fields.maxLen("name", deref(p.Name), 200)
    }
    if creating && b.Price == nil {
        fields.add("price", "this field is required")
    }
    fields.maxLen("category_name", deref(p.CategoryName), 100)
    fields.maxLen("image", deref(p.Image), 500)
    switch {
    case p.Stock == nil:
    case *p.Stock < 0:
        fields.add("stock", "must not be negative")
    case *p.Stock > maxCount:
        fields.add("stock", "must be at most "+strconv.Itoa(maxCount))
    }
    return p
}

// ListProducts handles GET /v1/products with optional business_id,
// category_id, is_available and date (created on) filters.
func (h *ResourceHandler) ListProducts(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    f := repository.ProductFilter{
        BusinessID:  queryUint(c, "business_id", fields),
        CategoryID:  queryUint(c, "category_id", fields),
        IsAvailable: queryBool(c, "is_available", fields),
        Date:        queryDate(c, "date", fields),
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Products.List(ctx, acct, f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *ResourceHandler) GetProduct(c echo.Context) error {
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
    p, err := h.Products.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /v1/products. The parent business comes from
// the body or the business_id query parameter.
func (h *ResourceHandler) CreateProduct(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var body productBody
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
    in := repository.ProductInput{
        BusinessID:   p.BusinessID,
        CategoryID:   p.CategoryID,
        CategoryName: p.CategoryName,
        Name:         *p.Name,
        Description:  strings.TrimSpace(deref(p.Description)),
        Price:        *p.Price,
        Image:        deref(p.Image),
        IsAvailable:  p.IsAvailable,
        Stock:        p.Stock,
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Products.Create(ctx, acct, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// UpdateProduct handles PUT/PATCH /v1/products/:id. A new business_id must
// be another business of the caller.
func (h *ResourceHandler) UpdateProduct(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body productBody
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
    out, err := h.Products.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ResourceHandler) DeleteProduct(c echo.Context) error {
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
    if err := h.Products.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
