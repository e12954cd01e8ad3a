package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const (
    consumerPrefetch = 20
    maxBackoff       = 30 * time.Second
)

// Handler delivers one notification. A returned error asks for one redelivery.
type Handler func(ctx context.Context, n Notification) error

// Consumer reads NotificationsQueue and hands each message to Handle.
type Consumer struct {
    URL    string
    Handle Handler
    Log    *slog.Logger
}

func (c *Consumer) logger() *slog.Logger {
    if c.Log != nil {
        return c.Log
    }
    return slog.Default()
}

// Run connects to the broker and consumes until ctx is cancelled. Dial
// failures are retried with exponential backoff capped at 30s; a dropped
// connection is re-established the same way. It returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
    log := c.logger().With("component", "notify-consumer", "queue", NotificationsQueue)
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn("dial broker failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            backoff = next(backoff)
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func next(d time.Duration) time.Duration {
    if d *= 2; d > maxBackoff {
        return maxBackoff
    }
    return d
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, log *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
        return fmt.Errorf("set qos: %w", err)
    }
    if _, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, NotificationsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            c.dispatch(ctx, d, log)
        }
    }
}

// acknowledger is the subset of amqp.Delivery dispatch needs.
type acknowledger interface {
    Ack(multiple bool) error
    Nack(multiple, requeue bool) error
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, log *slog.Logger) {
    c.settle(ctx, d, d.Body, d.Redelivered, d.MessageId, log)
}

// settle acks delivered messages, drops malformed ones and requeues a
// failed delivery once.
func (c *Consumer) settle(ctx context.Context, ack acknowledger, body []byte, redelivered bool, id string, log *slog.Logger) {
    log = log.With("message_id", id)
    var n Notification
    if err := json.Unmarshal(body, &n); err != nil {
        log.Error("dropping undecodable notification", "err", err)
        _ = ack.Nack(false, false)
        return
    }
    if err := n.Validate(); err != nil {
        log.Error("dropping invalid notification", "kind", n.Kind, "err", err)
        _ = ack.Nack(false, false)
        return
    }
    if err := c.Handle(ctx, n); err != nil {
        if redelivered {
            log.Error("delivery failed again, dropping", "kind", n.Kind, "err", err)
            _ = ack.Nack(false, false)
            return
        }
        log.Warn("delivery failed, requeueing", "kind", n.Kind, "err", err)
        _ = ack.Nack(false, true)
        return
    }
    _ = ack.Ack(false)
}
