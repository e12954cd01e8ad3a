package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
)

type businessBody struct {
    Name        *string `json:"name"`
    Description *string `json:"description"`
    Tagline     *string `json:"tagline"`
    Industry    *string `json:"industry"`
    Logo        *string `json:"logo"`
}

func (b businessBody) patch(fields FieldErrors, creating bool) repository.BusinessPatch {
    p := repository.BusinessPatch{
        Name:        trimmed(b.Name),
        Description: b.Description,
        Tagline:     trimmed(b.Tagline),
        Industry:    trimmed(b.Industry),
        Logo:        trimmed(b.Logo),
    }
    if p.Name != nil || creating {
        fields.required("name", deref(p.Name))
        fields.maxLen("name", deref(p.Name), 200)
    }
    fields.maxLen("tagline", deref(p.Tagline), 255)
    fields.maxLen("industry", deref(p.Industry), 100)
    fields.maxLen("logo", deref(p.Logo), 500)
    return p
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}

// ListBusinesses handles GET /v1/businesses.
func (h *ResourceHandler) ListBusinesses(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Businesses.List(ctx, acct)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// GetBusiness handles GET /v1/businesses/:id.
func (h *ResourceHandler) GetBusiness(c echo.Context) error {
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
    b, err := h.Businesses.Get(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// CreateBusiness handles POST /v1/businesses. The owner is the caller.
func (h *ResourceHandler) CreateBusiness(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var body businessBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    p := body.patch(fields, true)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    b := model.Business{
        AccountID:   acct,
        Name:        *p.Name,
        Description: strings.TrimSpace(deref(p.Description)),
        Tagline:     deref(p.Tagline),
        Industry:    deref(p.Industry),
        Logo:        deref(p.Logo),
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Businesses.Create(ctx, &b); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

// UpdateBusiness handles PUT/PATCH /v1/businesses/:id; absent fields keep
// their value.
func (h *ResourceHandler) UpdateBusiness(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body businessBody
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
    b, err := h.Businesses.Update(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// DeleteBusiness handles DELETE /v1/businesses/:id. Everything under the
// business goes with it.
func (h *ResourceHandler) DeleteBusiness(c echo.Context) error {
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
    if err := h.Businesses.Delete(ctx, acct, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

type contactBody struct {
    Email      *string `json:"email"`
    Phone      *string `json:"phone"`
    Address    *string `json:"address"`
    City       *string `json:"city"`
    State      *string `json:"state"`
    PostalCode *string `json:"postal_code"`
    Country    *string `json:"country"`
}

// GetContact handles GET /v1/businesses/:id/contact.
func (h *ResourceHandler) GetContact(c echo.Context) error {
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
    ci, err := h.Businesses.Contact(ctx, acct, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ci)
}

// PutContact handles PUT/PATCH /v1/businesses/:id/contact. Only fields
// present in the body are written.
func (h *ResourceHandler) PutContact(c echo.Context) error {
    acct, err := callerID(c)
    if err != nil {
        return done(err)
    }
    id, err := pathID(c)
    if err != nil {
        return done(err)
    }
    var body contactBody
    if err := bindBody(c, &body); err != nil {
        return done(err)
    }
    p := repository.ContactPatch{
        Email:      trimmed(body.Email),
        Phone:      trimmed(body.Phone),
        Address:    trimmed(body.Address),
        City:       trimmed(body.City),
        State:      trimmed(body.State),
        PostalCode: trimmed(body.PostalCode),
        Country:    trimmed(body.Country),
    }
    fields := FieldErrors{}
    if p.Email != nil && *p.Email != "" && !validEmail(strings.ToLower(*p.Email)) {
        fields.add("email", "enter a valid email address")
    }
    fields.maxLen("phone", deref(p.Phone), 40)
    fields.maxLen("address", deref(p.Address), 255)
    fields.maxLen("city", deref(p.City), 100)
    fields.maxLen("state", deref(p.State), 100)
    fields.maxLen("postal_code", deref(p.PostalCode), 20)
    fields.maxLen("country", deref(p.Country), 100)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    ci, err := h.Businesses.UpsertContact(ctx, acct, id, p)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ci)
}
