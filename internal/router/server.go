package router

import (
    "database/sql"
    "log/slog"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/handler"
    "github.com/iliyamo/backoffice/internal/middleware"
    "github.com/iliyamo/backoffice/internal/repository"
    "github.com/iliyamo/backoffice/internal/service"
)

// Deps are the collaborators New wires into the HTTP stack. Redis may be
// nil, which disables rate limiting.
type Deps struct {
    Cfg       config.Config
    RateLimit config.RateLimitConfig
    DB        *sql.DB
    Redis     *redis.Client
    Notifier  service.Notifier
    Renderer  service.Renderer
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true

    e.Use(echomw.Recover())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            level := slog.LevelInfo
            if v.Error != nil || v.Status >= http.StatusInternalServerError {
                level = slog.LevelError
            }
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("request_id", v.RequestID),
            }
            if v.Error != nil {
                attrs = append(attrs, slog.String("err", v.Error.Error()))
            }
            slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        },
    }))

    limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis)

    accounts := repository.NewAccountRepo(d.DB)
    resources := handler.NewResourceHandler(
        repository.NewBusinessRepo(d.DB),
        repository.NewCategoryRepo(d.DB),
        repository.NewProductRepo(d.DB),
        repository.NewOrderRepo(d.DB),
        repository.NewTransactionRepo(d.DB),
        repository.NewInvoiceRepo(d.DB),
        d.Renderer,
    )

    RegisterRoutes(e, d.DB)
    RegisterAuth(e, handler.NewAuthHandler(d.Cfg, accounts, d.Notifier), d.Cfg.JWTSecret, limiter)
    RegisterPublic(e, handler.NewContactHandler(d.Notifier), limiter)
    RegisterResources(e, resources, d.Cfg.JWTSecret)
    return e
}
