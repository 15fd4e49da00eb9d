package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Handler processes one decoded event.  Returning an error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, ev AuditEvent) error

// Consume connects to the broker, declares the audit queue (durable) and
// hands every message to h.  It reconnects with exponential backoff until
// ctx is cancelled, which is the only way it returns.
func Consume(ctx context.Context, url string, h Handler, log *zap.SugaredLogger) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warnw("audit-consumer: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, h, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warnw("audit-consumer: consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, h Handler, log *zap.SugaredLogger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warnw("audit-consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(AuditQueue, "", false, false, false, false, nil)
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
            if err := HandleDelivery(ctx, d.Body, h); err != nil {
                log.Errorw("audit-consumer: handle message failed", "err", err, "message_id", d.MessageId)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleDelivery decodes a message body and passes it to h.
func HandleDelivery(ctx context.Context, body []byte, h Handler) error {
    var ev AuditEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Action == "" {
        return errors.New("event without action")
    }
    return h(ctx, ev)
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
