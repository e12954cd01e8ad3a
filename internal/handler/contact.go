package handler

import (
    "log/slog"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/service"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
    Notifier service.Notifier
}

func NewContactHandler(n service.Notifier) *ContactHandler { return &ContactHandler{Notifier: n} }

type contactReq struct {
    Name    string `json:"name"`
    Email   string `json:"email"`
    Message string `json:"message"`
}

// Send handles POST /v1/contact.
func (h *ContactHandler) Send(c echo.Context) error {
    var req contactReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Message = strings.TrimSpace(req.Message)

    fields := FieldErrors{}
    fields.required("name", req.Name)
    fields.maxLen("name", req.Name, 100)
    switch {
    case req.Email == "":
        fields.add("email", "this field is required")
    case !validEmail(req.Email):
        fields.add("email", "enter a valid email address")
    }
    fields.required("message", req.Message)
    fields.maxLen("message", req.Message, 5000)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Notifier.Notify(ctx, queue.NewContactMessage(req.Name, req.Email, req.Message)); err != nil {
        slog.Error("contact notification failed", "err", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not send message"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"detail": "Message received."})
}
