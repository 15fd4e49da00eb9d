package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/model"
)

var (
	testNow  = time.Date(2025, 5, 14, 9, 30, 0, 0, time.UTC)
	testUser = Actor{ID: 3, Name: "Jonas", Lang: "en"}
	nopLog   = zap.NewNop().Sugar()
)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// recSink keeps audit lines in memory.
type recSink struct {
	lines []string
	sevs  []audit.Severity
}

func (r *recSink) Record(_ context.Context, subject, action, detail string, sev audit.Severity) {
	r.lines = append(r.lines, audit.Line(subject, action, detail))
	r.sevs = append(r.sevs, sev)
}

// fakeNotifier remembers who would have been mailed.
type fakeNotifier struct {
	invitations   []string
	resets        []string
	verifications []string
	links         []string
	tasks         [][]string
	visits        [][]string
}

func (f *fakeNotifier) Invitation(_ context.Context, _, to, _, link string) {
	f.invitations = append(f.invitations, to)
	f.links = append(f.links, link)
}

func (f *fakeNotifier) PasswordReset(_ context.Context, _, to, link string) {
	f.resets = append(f.resets, to)
	f.links = append(f.links, link)
}

func (f *fakeNotifier) EmailVerification(_ context.Context, _, to, link string) {
	f.verifications = append(f.verifications, to)
	f.links = append(f.links, link)
}

func (f *fakeNotifier) TaskCreated(_ context.Context, _ string, to []string, _ model.Task, _ string) {
	f.tasks = append(f.tasks, to)
}

func (f *fakeNotifier) VisitScheduled(_ context.Context, _ string, to []string, _ model.Visit, _ model.Client) {
	f.visits = append(f.visits, to)
}

type fakeRevoker struct{ revoked []uint64 }

func (f *fakeRevoker) RevokeAll(_ context.Context, userID uint64, _ time.Time) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

var (
	userColumns    = []string{"id", "name", "surname", "phone_number", "email", "password_hash", "is_admin", "is_active", "is_verified", "created_at"}
	machineColumns = []string{"id", "serial_number", "start_of_operation", "end_of_warranty", "machine_type_id", "client_id", "is_active"}
	clientColumns  = []string{"id", "company", "address", "city", "contact_person", "phone_number", "email"}
	linkColumns    = []string{"id", "token_hash", "purpose", "user_id", "email", "used", "created_at", "expires_at"}
	visitColumns   = []string{"id", "client_id", "date", "purpose"}
	serviceColumns = []string{"id", "date", "machine_id", "bn_count", "note", "user_id", "created_at"}
	taskColumns    = []string{"id", "task", "user_id", "created_at", "is_completed", "completed_at", "completed_by"}
)

func clientRow(id uint64) *sqlmock.Rows {
	return sqlmock.NewRows(clientColumns).AddRow(id, "UAB Banka", "Gedimino 1", "Vilnius", "Ona", "+37060000000", "info@banka.lt")
}
