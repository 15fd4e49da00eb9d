// Package audit records user actions as one line per event:
//
//	USER: <subject> | ACTION: <action> | DETAILS: (<detail>)
//
// Sinks never return errors and never panic; losing an audit line must not
// fail the operation that produced it.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/queue"
)

// Severity of an audit line.  Rejected attempts (wrong password, duplicate
// visit, ...) are recorded as warnings.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
)

// Sink is where audit lines go.
type Sink interface {
	Record(ctx context.Context, subject, action, detail string, sev Severity)
}

// Line formats an event the way it appears in user_actions.log.
func Line(subject, action, detail string) string {
	if detail != "" {
		detail = "(" + detail + ")"
	}
	return fmt.Sprintf("USER: %s | ACTION: %s | DETAILS: %s", subject, action, detail)
}

// FileSink writes lines through a zap line logger (see logger.LineLogger).
type FileSink struct{ log *zap.Logger }

func NewFileSink(l *zap.Logger) *FileSink { return &FileSink{log: l} }

func (s *FileSink) Record(_ context.Context, subject, action, detail string, sev Severity) {
	defer func() { _ = recover() }()
	msg := Line(subject, action, detail)
	if sev == Warning {
		s.log.Warn(msg)
		return
	}
	s.log.Info(msg)
}

// Write replays an event received from the broker.
func (s *FileSink) Write(_ context.Context, ev queue.AuditEvent) error {
	s.Record(context.Background(), ev.Subject, ev.Action, ev.Detail, Severity(ev.Severity))
	return nil
}

// Publisher is the part of queue.Publisher the broker sink needs.
type Publisher interface {
	PublishAudit(ctx context.Context, ev queue.AuditEvent) error
}

// BrokerSink publishes events to the audit queue and falls back to a local
// sink when the broker is unavailable.
type BrokerSink struct {
	pub      Publisher
	fallback Sink
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewBrokerSink(pub Publisher, fallback Sink, log *zap.SugaredLogger) *BrokerSink {
	return &BrokerSink{pub: pub, fallback: fallback, log: log, now: time.Now}
}

func (s *BrokerSink) Record(ctx context.Context, subject, action, detail string, sev Severity) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Errorw("audit: publish panicked", "panic", p)
			s.fallback.Record(ctx, subject, action, detail, sev)
		}
	}()
	ev := queue.AuditEvent{
		ID:         ksuid.New().String(),
		Subject:    subject,
		Action:     action,
		Detail:     detail,
		Severity:   string(sev),
		OccurredAt: s.now().UTC(),
	}
	// the request may already be done; publishing must not depend on it
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.pub.PublishAudit(pctx, ev); err != nil {
		s.log.Warnw("audit: publish failed, writing locally", "err", err, "event_id", ev.ID)
		s.fallback.Record(ctx, subject, action, detail, sev)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, string, string, string, Severity) {}
