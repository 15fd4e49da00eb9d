package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/logger"
	"github.com/interatlas/management-system/internal/queue"
)

func TestLine(t *testing.T) {
	assert.Equal(t, "USER: Jonas | ACTION: Logout | DETAILS: ", Line("Jonas", "Logout", ""))
	assert.Equal(t,
		"USER: Jonas | ACTION: Replaced_Part | DETAILS: (Part: P-1; Machine s/n: SN1; Qty: 2)",
		Line("Jonas", "Replaced_Part", "Part: P-1; Machine s/n: SN1; Qty: 2"))
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewFileSink(logger.LineLogger(&buf))

	s.Record(context.Background(), "Jonas", "Login", "User Not Active", Warning)
	require.NoError(t, s.Write(context.Background(), queue.AuditEvent{Subject: "Ona", Action: "Logout", Severity: "info"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] USER: Jonas | ACTION: Login | DETAILS: (User Not Active)")
	assert.Contains(t, lines[1], "[INFO] USER: Ona | ACTION: Logout")
}

type fakePublisher struct {
	err    error
	events []queue.AuditEvent
}

func (f *fakePublisher) PublishAudit(_ context.Context, ev queue.AuditEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

type recordingSink struct{ lines []string }

func (r *recordingSink) Record(_ context.Context, subject, action, detail string, _ Severity) {
	r.lines = append(r.lines, Line(subject, action, detail))
}

func TestBrokerSink(t *testing.T) {
	t.Run("publishes", func(t *testing.T) {
		pub, fb := &fakePublisher{}, &recordingSink{}
		s := NewBrokerSink(pub, fb, zap.NewNop().Sugar())

		s.Record(context.Background(), "Jonas", "New_Visit", "Date: 2025-06-01", Info)

		require.Len(t, pub.events, 1)
		assert.NotEmpty(t, pub.events[0].ID)
		assert.Equal(t, "New_Visit", pub.events[0].Action)
		assert.Empty(t, fb.lines)
	})

	t.Run("falls back when the broker is down", func(t *testing.T) {
		pub, fb := &fakePublisher{err: errors.New("connection refused")}, &recordingSink{}
		s := NewBrokerSink(pub, fb, zap.NewNop().Sugar())

		s.Record(context.Background(), "Jonas", "New_Visit", "", Info)

		assert.Equal(t, []string{"USER: Jonas | ACTION: New_Visit | DETAILS: "}, fb.lines)
	})
}
