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

func newMaintenance(t *testing.T) (*Maintenance, sqlmock.Sqlmock, *recSink) {
	db, mock := newMock(t)
	sink := &recSink{}
	m := NewMaintenance(db, repository.NewMachineRepo(db), repository.NewServiceRepo(db), sink)
	m.now = fixedClock(testNow)
	return m, mock, sink
}

func expectMachineLock(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM machines WHERE serial_number").WithArgs("SN-1").
		WillReturnRows(sqlmock.NewRows(machineColumns).
			AddRow(4, "SN-1", day("2023-01-10"), day("2025-01-10"), 3, 8, true))
}

func TestRecordService(t *testing.T) {
	ctx := context.Background()

	t.Run("first service", func(t *testing.T) {
		m, mock, sink := newMaintenance(t)
		mock.ExpectBegin()
		expectMachineLock(mock)
		mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(4).WillReturnRows(sqlmock.NewRows(serviceColumns))
		mock.ExpectExec("INSERT INTO services").
			WithArgs(sqlmock.AnyArg(), 4, 1200, "cleaned", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(5, 1))
		mock.ExpectCommit()

		svc, err := m.Record(ctx, testUser, ServiceInput{Date: day("2025-05-01"), SerialNumber: " SN-1 ", BnCount: 1200, Note: " cleaned "})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), svc.ID)
		assert.Equal(t, "cleaned", svc.Note)
		assert.Equal(t, []string{"USER: Jonas | ACTION: New_Service | DETAILS: (Machine s/n: SN-1)"}, sink.lines)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same day and counter are accepted", func(t *testing.T) {
		m, mock, _ := newMaintenance(t)
		mock.ExpectBegin()
		expectMachineLock(mock)
		mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(4).
			WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(2, day("2025-05-01"), 4, 1200, "", nil, testNow))
		mock.ExpectExec("INSERT INTO services").WillReturnResult(sqlmock.NewResult(6, 1))
		mock.ExpectCommit()

		_, err := m.Record(ctx, testUser, ServiceInput{Date: day("2025-05-01"), SerialNumber: "SN-1", BnCount: 1200})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("banknote counter regression", func(t *testing.T) {
		m, mock, sink := newMaintenance(t)
		mock.ExpectBegin()
		expectMachineLock(mock)
		mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(4).
			WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(2, day("2025-04-01"), 4, 1500, "", nil, testNow))
		mock.ExpectRollback()

		_, err := m.Record(ctx, testUser, ServiceInput{Date: day("2025-05-01"), SerialNumber: "SN-1", BnCount: 1400})
		assert.ErrorIs(t, err, ErrBanknoteRegression)
		assert.Equal(t, []audit.Severity{audit.Warning}, sink.sevs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("date regression", func(t *testing.T) {
		m, mock, _ := newMaintenance(t)
		mock.ExpectBegin()
		expectMachineLock(mock)
		mock.ExpectQuery("FROM services WHERE machine_id").WithArgs(4).
			WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(2, day("2025-06-01"), 4, 100, "", nil, testNow))
		mock.ExpectRollback()

		_, err := m.Record(ctx, testUser, ServiceInput{Date: day("2025-05-01"), SerialNumber: "SN-1", BnCount: 1400})
		assert.ErrorIs(t, err, ErrServiceDateRegression)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown machine", func(t *testing.T) {
		m, mock, _ := newMaintenance(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM machines WHERE serial_number").WithArgs("SN-404").WillReturnRows(sqlmock.NewRows(machineColumns))
		mock.ExpectRollback()

		_, err := m.Record(ctx, testUser, ServiceInput{Date: day("2025-05-01"), SerialNumber: "SN-404"})
		assert.ErrorIs(t, err, ErrMachineNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
