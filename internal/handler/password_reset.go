package handler

import (
    "errors"
    "log/slog"
    "net/http"
    "net/url"
    "slices"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/repository"
    "github.com/iliyamo/backoffice/internal/utils"
)

// resetRequested is the only answer of the reset request endpoint, whether
// or not the address belongs to an account.
var resetRequested = echo.Map{"detail": "If an account with that email exists, a password reset link has been sent."}

const invalidResetLink = "invalid or expired reset link"

type resetReq struct {
    Email    string `json:"email"`
    ResetURL string `json:"reset_url"`
}

type resetConfirmReq struct {
    UID         string `json:"uid"`
    Token       string `json:"token"`
    NewPassword string `json:"new_password"`
}

// RequestPasswordReset mails a reset link when the address is known. The
// response never reveals whether it was.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
    var req resetReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    email := repository.NormalizeEmail(req.Email)
    fields := FieldErrors{}
    switch {
    case email == "":
        fields.add("email", "this field is required")
    case !validEmail(email):
        fields.add("email", "enter a valid email address")
    }
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    a, err := h.Accounts.GetByEmail(ctx, email)
    switch {
    case errors.Is(err, repository.ErrAccountMissing):
        return c.JSON(http.StatusOK, resetRequested)
    case err != nil:
        slog.Error("password reset lookup failed", "err", err)
        return c.JSON(http.StatusOK, resetRequested)
    }

    link := h.resetLink(req.ResetURL, utils.EncodeUID(a.ID), h.Resets.Make(a.ID, a.PasswordHash))
    // Delivery failure is logged only; the answer must not differ.
    if err := h.Notifier.Notify(ctx, queue.NewPasswordReset(a.Email, a.Username, link)); err != nil {
        slog.Error("password reset notification failed", "account_id", a.ID, "err", err)
    }
    return c.JSON(http.StatusOK, resetRequested)
}

// resetLink appends uid and token to the caller's return URL when its host
// is allowed, else to the configured default.
func (h *AuthHandler) resetLink(requested, uid, token string) string {
    base := h.Cfg.ResetURL
    if requested != "" && h.allowedResetURL(requested) {
        base = requested
    }
    u, err := url.Parse(base)
    if err != nil {
        u = &url.URL{Path: base}
    }
    q := u.Query()
    q.Set("uid", uid)
    q.Set("token", token)
    u.RawQuery = q.Encode()
    return u.String()
}

func (h *AuthHandler) allowedResetURL(raw string) bool {
    u, err := url.Parse(raw)
    if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
        return false
    }
    if len(h.Cfg.ResetAllowedHosts) == 0 {
        return true
    }
    return slices.Contains(h.Cfg.ResetAllowedHosts, strings.ToLower(u.Hostname()))
}

// ConfirmPasswordReset sets a new password from a reset link. Every failure
// other than a too-short password gets the same message.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
    var req resetConfirmReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    passwordErrors("new_password", req.NewPassword, fields)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }
    invalid := func() error { return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidResetLink}) }

    id, err := utils.DecodeUID(strings.TrimSpace(req.UID))
    if err != nil {
        return invalid()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    a, err := h.Accounts.GetByID(ctx, id)
    switch {
    case errors.Is(err, repository.ErrAccountMissing):
        return invalid()
    case err != nil:
        return respondError(c, err)
    }
    if !h.Resets.Check(a.ID, a.PasswordHash, strings.TrimSpace(req.Token)) {
        return invalid()
    }
    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return respondError(c, err)
    }
    // The swap fails when the hash changed since the check, which also
    // means the token was just spent.
    if err := h.Accounts.UpdatePassword(ctx, a.ID, a.PasswordHash, hash); err != nil {
        if errors.Is(err, repository.ErrAccountMissing) {
            return invalid()
        }
        return respondError(c, err)
    }
    slog.Info("password reset completed", "account_id", a.ID)
    return c.JSON(http.StatusOK, echo.Map{"detail": "Password has been reset."})
}
