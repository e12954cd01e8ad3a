package handler

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "net/mail"
    "regexp"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/repository"
    "github.com/iliyamo/backoffice/internal/service"
    "github.com/iliyamo/backoffice/internal/utils"
)

const minPasswordLen = 8

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// AccountStore is the credential storage the identity endpoints use.
type AccountStore interface {
    Create(ctx context.Context, a *model.Account) error
    GetByID(ctx context.Context, id uint64) (model.Account, error)
    GetByEmail(ctx context.Context, email string) (model.Account, error)
    GetByUsername(ctx context.Context, username string) (model.Account, error)
    UpdatePassword(ctx context.Context, id uint64, oldHash, newHash string) error
}

// AuthHandler bundles dependencies for the identity endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Accounts AccountStore
    Notifier service.Notifier
    Resets   utils.ResetTokens
}

func NewAuthHandler(cfg config.Config, accounts AccountStore, n service.Notifier) *AuthHandler {
    return &AuthHandler{
        Cfg:      cfg,
        Accounts: accounts,
        Notifier: n,
        Resets:   utils.ResetTokens{Secret: cfg.JWTSecret, Timeout: cfg.ResetTimeout},
    }
}

// ----- DTOs -----

type registerReq struct {
    Username  string `json:"username"`
    Email     string `json:"email"`
    Password  string `json:"password"`
    Password2 string `json:"password2"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
}

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type refreshReq struct {
    Refresh string `json:"refresh"`
}

type tokenPair struct {
    Access         string        `json:"access"`
    Refresh        string        `json:"refresh"`
    AccessExpires  time.Time     `json:"access_expires"`
    RefreshExpires time.Time     `json:"refresh_expires"`
    User           model.Profile `json:"user"`
}

var usernameRE = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// validEmail accepts a bare addr-spec; display names are rejected.
func validEmail(s string) bool {
    a, err := mail.ParseAddress(s)
    return err == nil && a.Address == s && strings.Contains(s, ".")
}

func passwordErrors(field, pw string, fields FieldErrors) {
    switch {
    case pw == "":
        fields.add(field, "this field is required")
    case len([]rune(pw)) < minPasswordLen:
        fields.add(field, "password must be at least 8 characters")
    case len(pw) > maxPasswordBytes:
        fields.add(field, "password must be at most 72 bytes")
    }
}

// Register creates an account and answers with its profile.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = repository.NormalizeEmail(req.Email)

    fields := FieldErrors{}
    switch {
    case req.Username == "":
        fields.add("username", "this field is required")
    case !usernameRE.MatchString(req.Username):
        fields.add("username", "letters, digits and @/./+/-/_ only, at most 150 characters")
    }
    switch {
    case req.Email == "":
        fields.add("email", "this field is required")
    case !validEmail(req.Email):
        fields.add("email", "enter a valid email address")
    }
    passwordErrors("password", req.Password, fields)
    if req.Password2 != req.Password {
        fields.add("password2", "passwords do not match")
    }
    fields.maxLen("first_name", req.FirstName, 150)
    fields.maxLen("last_name", req.LastName, 150)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    a := model.Account{
        Username:     req.Username,
        Email:        req.Email,
        PasswordHash: hash,
        FirstName:    strings.TrimSpace(req.FirstName),
        LastName:     strings.TrimSpace(req.LastName),
    }
    switch err := h.Accounts.Create(ctx, &a); {
    case errors.Is(err, repository.ErrEmailExists):
        return validationFailed(c, FieldErrors{"email": "an account with this email already exists"})
    case errors.Is(err, repository.ErrUsernameExists):
        return validationFailed(c, FieldErrors{"username": "an account with this username already exists"})
    case err != nil:
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, a.Profile())
}

func (h *AuthHandler) issue(c echo.Context, status int, a model.Account) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return respondError(c, err)
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, a.PasswordHash, a.ID, h.Cfg.RefreshTTLDays)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(status, tokenPair{
        Access:         access.Token,
        Refresh:        refresh.Raw,
        AccessExpires:  access.Exp,
        RefreshExpires: refresh.Exp,
        User:           a.Profile(),
    })
}

// Login verifies credentials and returns an access/refresh pair. Unknown
// usernames and wrong passwords get the same answer in the same time.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    req.Username = strings.TrimSpace(req.Username)
    fields := FieldErrors{}
    fields.required("username", req.Username)
    fields.required("password", req.Password)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    a, err := h.Accounts.GetByUsername(ctx, req.Username)
    switch {
    case errors.Is(err, repository.ErrAccountMissing):
        utils.BurnPasswordCheck(req.Password)
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    case err != nil:
        return respondError(c, err)
    }
    if !utils.VerifyPassword(a.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(c, http.StatusOK, a)
}

// Refresh exchanges a refresh token for a new access token. A refresh
// token stops verifying once the account's password changes.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    raw := strings.TrimSpace(req.Refresh)
    invalid := func() error { return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"}) }
    if raw == "" {
        return invalid()
    }

    id, err := utils.RefreshSubject(raw)
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
    if err := utils.VerifyRefreshToken(h.Cfg.JWTSecret, a.PasswordHash, raw, a.ID); err != nil {
        return invalid()
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"access": access.Token, "access_expires": access.Exp})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    id, err := callerID(c)
    if err != nil {
        return done(err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    a, err := h.Accounts.GetByID(ctx, id)
    if errors.Is(err, repository.ErrAccountMissing) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, a.Profile())
}

type passwordChangeReq struct {
    OldPassword string `json:"old_password"`
    NewPassword string `json:"new_password"`
}

// ChangePassword replaces the caller's password after checking the old one
// and answers with a fresh token pair; earlier refresh tokens stop working.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    id, err := callerID(c)
    if err != nil {
        return done(err)
    }
    var req passwordChangeReq
    if err := bindBody(c, &req); err != nil {
        return done(err)
    }
    fields := FieldErrors{}
    fields.required("old_password", req.OldPassword)
    passwordErrors("new_password", req.NewPassword, fields)
    if len(fields) > 0 {
        return validationFailed(c, fields)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    a, err := h.Accounts.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    if !utils.VerifyPassword(a.PasswordHash, req.OldPassword) {
        return validationFailed(c, FieldErrors{"old_password": "old password is incorrect"})
    }
    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return respondError(c, err)
    }
    if err := h.Accounts.UpdatePassword(ctx, a.ID, a.PasswordHash, hash); err != nil {
        if errors.Is(err, repository.ErrAccountMissing) {
            // The hash changed underneath us: another change won the race.
            return c.JSON(http.StatusConflict, echo.Map{"error": "password was changed concurrently"})
        }
        return respondError(c, err)
    }
    a.PasswordHash = hash
    slog.Info("password changed", "account_id", a.ID)
    return h.issue(c, http.StatusOK, a)
}
