// Package queue defines message payloads exchanged over the message broker
// and the consumer/publisher plumbing around them.
package queue

import "time"

// AuditQueue is the durable queue user-action events are published to.
const AuditQueue = "audit.events"

// AuditEvent is one user action.  It carries everything needed to write the
// audit line, so consumers never touch the primary database.
type AuditEvent struct {
    ID         string    `json:"id"` // ksuid, also used as the AMQP message id
    Subject    string    `json:"subject"`
    Action     string    `json:"action"`
    Detail     string    `json:"detail,omitempty"`
    Severity   string    `json:"severity"`
    OccurredAt time.Time `json:"occurred_at"`
}
