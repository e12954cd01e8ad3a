// Package service holds the outbound collaborators of the HTTP layer: the
// notification publisher, the SMTP mailer and the invoice renderer.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/backoffice/internal/queue"
)

// Notifier hands a notification to the delivery pipeline.
type Notifier interface {
    Notify(ctx context.Context, n queue.Notification) error
}

// Publisher publishes notifications to the durable NotificationsQueue. It
// dials per publish; notification volume is low and this keeps no
// connection state across requests.
type Publisher struct {
    URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// Notify publishes n as a persistent JSON message with a fresh message id.
// Errors are logged and returned so the caller decides whether they matter.
func (p *Publisher) Notify(ctx context.Context, n queue.Notification) error {
    body, err := json.Marshal(n)
    if err != nil {
        return fmt.Errorf("marshal notification: %w", err)
    }
    id := uuid.NewString()
    log := slog.With("component", "notify-publisher", "kind", n.Kind, "message_id", id)

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Error("dial broker failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Error("channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(queue.NotificationsQueue, true, false, false, false, nil); err != nil {
        log.Error("queue declare failed", "err", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    id,
        Type:         n.Kind,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue.NotificationsQueue, false, false, pub); err != nil {
        log.Error("publish failed", "err", err)
        return err
    }
    log.Debug("notification published")
    return nil
}
