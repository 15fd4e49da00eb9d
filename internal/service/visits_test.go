package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/repository"
)

func newVisits(t *testing.T) (*Visits, sqlmock.Sqlmock, *recSink, *fakeNotifier) {
	db, mock := newMock(t)
	sink, notify := &recSink{}, &fakeNotifier{}
	s := NewVisits(db, repository.NewVisitRepo(db), repository.NewClientRepo(db), repository.NewMachineRepo(db),
		repository.NewServiceRepo(db), repository.NewUserRepo(db), notify, sink, nopLog)
	return s, mock, sink, notify
}

func TestCreateVisit(t *testing.T) {
	ctx := context.Background()

	t.Run("booked and broadcast", func(t *testing.T) {
		s, mock, sink, notify := newVisits(t)
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM visits WHERE client_id").WithArgs(4, day("2025-06-02"), 0).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("INSERT INTO visits").WithArgs(4, day("2025-06-02"), "Quarterly service").
			WillReturnResult(sqlmock.NewResult(21, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("FROM users WHERE is_active").WillReturnRows(reachableUsers())

		v, err := s.Create(ctx, testUser, 4, day("2025-06-02"), "Quarterly service")
		require.NoError(t, err)
		assert.Equal(t, uint64(21), v.ID)
		assert.Len(t, notify.visits, 1)
		assert.Equal(t, []string{"USER: Jonas | ACTION: New_Visit | DETAILS: (Date: 2025-06-02; Client: UAB Banka Vilnius; Purpose: Quarterly service)"}, sink.lines)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second visit on the same day", func(t *testing.T) {
		s, mock, sink, notify := newVisits(t)
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM visits WHERE client_id").WithArgs(4, day("2025-06-02"), 0).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
		mock.ExpectRollback()

		_, err := s.Create(ctx, testUser, 4, day("2025-06-02"), "Again")
		assert.ErrorIs(t, err, ErrDuplicateVisit)
		assert.Equal(t, KindConflict, KindOf(err))
		assert.Empty(t, notify.visits)
		assert.Equal(t, []audit.Severity{audit.Warning}, sink.sevs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown client", func(t *testing.T) {
		s, mock, _, _ := newVisits(t)
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(99).WillReturnRows(sqlmock.NewRows(clientColumns))

		_, err := s.Create(ctx, testUser, 99, day("2025-06-02"), "")
		assert.ErrorIs(t, err, ErrClientNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEditVisit(t *testing.T) {
	ctx := context.Background()

	t.Run("move to a free day", func(t *testing.T) {
		s, mock, sink, _ := newVisits(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM visits WHERE id").WithArgs(21).
			WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(21, 4, day("2025-06-02"), "Quarterly service"))
		mock.ExpectQuery("SELECT id FROM visits WHERE client_id").WithArgs(4, day("2025-06-03"), 21).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("UPDATE visits SET date").WithArgs(day("2025-06-03"), "Quarterly service", 21).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))

		v, err := s.Edit(ctx, testUser, 21, day("2025-06-03"), "Quarterly service")
		require.NoError(t, err)
		assert.Equal(t, day("2025-06-03"), v.Date)
		assert.Equal(t, []string{"USER: Jonas | ACTION: Edit_Visit | DETAILS: (Client: UAB Banka Vilnius; Date: '2025-06-02' → '2025-06-03'; Purpose: Quarterly service)"}, sink.lines)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeping its own date is not a duplicate", func(t *testing.T) {
		s, mock, sink, _ := newVisits(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM visits WHERE id").WithArgs(21).
			WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(21, 4, day("2025-06-02"), "Old"))
		mock.ExpectQuery("SELECT id FROM visits WHERE client_id").WithArgs(4, day("2025-06-02"), 21).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("UPDATE visits SET date").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))

		_, err := s.Edit(ctx, testUser, 21, day("2025-06-02"), "New")
		require.NoError(t, err)
		assert.Len(t, sink.lines, 1)
		assert.Contains(t, sink.lines[0], "Purpose: 'Old' → 'New'")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("onto another visit of the client", func(t *testing.T) {
		s, mock, _, _ := newVisits(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM visits WHERE id").WithArgs(21).
			WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(21, 4, day("2025-06-02"), ""))
		mock.ExpectQuery("SELECT id FROM visits WHERE client_id").WithArgs(4, day("2025-06-09"), 21).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
		mock.ExpectRollback()

		_, err := s.Edit(ctx, testUser, 21, day("2025-06-09"), "")
		assert.ErrorIs(t, err, ErrDuplicateVisit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing visit", func(t *testing.T) {
		s, mock, _, _ := newVisits(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM visits WHERE id").WithArgs(404).WillReturnRows(sqlmock.NewRows(visitColumns))
		mock.ExpectRollback()

		_, err := s.Edit(ctx, testUser, 404, day("2025-06-09"), "")
		assert.ErrorIs(t, err, ErrVisitNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteVisit(t *testing.T) {
	s, mock, sink, _ := newVisits(t)
	mock.ExpectQuery("FROM visits WHERE id").WithArgs(21).
		WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(21, 4, day("2025-06-02"), "Quarterly service"))
	mock.ExpectExec("DELETE FROM visits").WithArgs(21).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))

	require.NoError(t, s.Delete(context.Background(), testUser, 21))
	assert.Contains(t, sink.lines[0], "ACTION: Delete_Visit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitDetail(t *testing.T) {
	s, mock, _, _ := newVisits(t)
	mock.ExpectQuery("FROM visits WHERE id").WithArgs(21).
		WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(21, 4, day("2025-06-02"), ""))
	mock.ExpectQuery("FROM clients WHERE id").WithArgs(4).WillReturnRows(clientRow(4))
	mock.ExpectQuery("FROM machines WHERE client_id").WithArgs(4).
		WillReturnRows(sqlmock.NewRows(machineColumns).
			AddRow(5, "SN-1", day("2023-01-10"), day("2025-01-10"), 3, 4, true).
			AddRow(6, "SN-2", day("2023-01-10"), day("2025-01-10"), 3, 4, false).
			AddRow(7, "SN-3", day("2023-01-10"), day("2025-01-10"), 3, 4, true))
	mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(5).
		WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(1, day("2025-05-01"), 5, 100, "replace roller", nil, testNow))
	mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(7).
		WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(2, day("2025-05-02"), 7, 100, "", nil, testNow))

	d, err := s.Detail(context.Background(), 21)
	require.NoError(t, err)
	require.Len(t, d.Notes, 1)
	assert.Equal(t, "SN-1", d.Notes[0].Machine.SerialNumber)
	assert.Equal(t, "replace roller", d.Notes[0].Service.Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}
