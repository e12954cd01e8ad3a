package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/repository"
)

type categoryBody struct {
    Name        *string `json:"name"`
    Description *string `json:"description"`
}

// ListCategories handles GET /v1/categories: the categories the caller's
// products use.
func (h *ResourceHandler) ListCategories(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Categories.List(ctx, acct)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *ResourceHandler) GetCategory(c echo.Context) error {
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
    cat, err := h.Categories.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, cat)
}

// CreateCategory handles POST /v1/categories. Names are shared: an existing
// name answers 200 with that category instead of 201.
func (h *ResourceHandler) CreateCategory(c echo.Context) error {
    if _, err := callerID(c); err != nil {
        return done(err)
    }
    var body categoryBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    name := strings.TrimSpace(deref(body.Name))
    fields := FieldErrors{}
    fields.required("name", name)
    fields.maxLen("name", name, 100)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    cat, created, err := h.Categories.GetOrCreate(ctx, name, strings.TrimSpace(deref(body.Description)))
    if err != nil {
        return respondError(c, err)
    }
    if created {
        return c.JSON(http.StatusCreated, cat)
    }
    return c.JSON(http.StatusOK, cat)
}

// UpdateCategory handles PUT/PATCH /v1/categories/:id; 409 when products
// of other accounts use the category.
func (h *ResourceHandler) UpdateCategory(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body categoryBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    p := repository.CategoryPatch{Name: trimmed(body.Name), Description: body.Description}
    fields := FieldErrors{}
    if p.Name != nil {
        fields.required("name", *p.Name)
        fields.maxLen("name", *p.Name, 100)
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    cat, err := h.Categories.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, cat)
}

// DeleteCategory handles DELETE /v1/categories/:id. The caller's products
// in the category are deleted with it.
func (h *ResourceHandler) DeleteCategory(c echo.Context) error {
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
    if err := h.Categories.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
