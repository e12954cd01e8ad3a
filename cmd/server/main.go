package main // Entry point package

import (
    "context"
    "errors"
    "log"
    "log/slog"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/database"
    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/router"
    "github.com/iliyamo/backoffice/internal/service"
)

func main() {
    cfg := config.Load()
    slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if cfg.DBMigrate {
        if err := database.Migrate(ctx, db); err != nil {
            log.Fatalf("migrate: %v", err)
        }
        slog.Info("schema applied")
    }

    rdb := config.NewRedisClient()
    if rdb != nil {
        defer rdb.Close()
    }

    if cfg.ConsumerEnabled {
        mailer, err := service.NewMailer(config.LoadMailConfig())
        if err != nil {
            log.Fatalf("mailer: %v", err)
        }
        consumer := &queue.Consumer{URL: cfg.AMQPURL, Handle: mailer.Deliver}
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                slog.Error("notification consumer stopped", "err", err)
            }
        }()
    }

    e := router.New(router.Deps{
        Cfg:       cfg,
        RateLimit: config.LoadRateLimitConfig(),
        DB:        db,
        Redis:     rdb,
        Notifier:  service.NewPublisher(cfg.AMQPURL),
        Renderer:  service.NewInvoicePDF(),
    })

    addr := ":" + cfg.Port
    go func() {
        slog.Info("listening", "addr", addr, "env", cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        slog.Error("shutdown", "err", err)
    }
}

func parseLevel(s string) slog.Level {
    var l slog.Level
    if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
        return slog.LevelInfo
    }
    return l
}
