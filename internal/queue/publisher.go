package queue

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher keeps one connection and channel to the broker and re-dials
// lazily after a failure.  It is safe for concurrent use.
type Publisher struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishAudit sends ev to the audit queue as a persistent message.  Errors
// are returned so the caller can fall back to another sink.
func (p *Publisher) PublishAudit(ctx context.Context, ev AuditEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx,
        "",         // default exchange
        AuditQueue, // routing key = queue name
        false,      // mandatory
        false,      // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent, // store on disk
            MessageId:    ev.ID,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
    if err != nil {
        p.reset()
    }
    return err
}

// channel returns the open channel, dialing if needed.  Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Close releases the connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
