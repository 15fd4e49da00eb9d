package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// ServiceRepo accesses the `services` table (maintenance records).
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceCols = "SELECT id, date, machine_id, bn_count, COALESCE(note, ''), user_id, created_at FROM services"

func scanService(row interface{ Scan(...any) error }) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Date, &s.MachineID, &s.BnCount, &s.Note, &s.UserID, &s.CreatedAt)
	return s, err
}

// Latest returns the most recent service of a machine (by date, then id)
// or ErrNotFound when the machine was never serviced.  Pass the transaction
// holding the machine lock when the result guards a write.
func (r *ServiceRepo) Latest(ctx context.Context, q Querier, machineID uint64) (model.Service, error) {
	s, err := scanService(q.QueryRowContext(ctx,
		serviceCols+" WHERE machine_id=? ORDER BY date DESC, id DESC LIMIT 1", machineID))
	return s, mapErr(err)
}

func (r *ServiceRepo) InsertTx(ctx context.Context, tx *sql.Tx, s model.Service) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO services (date, machine_id, bn_count, note, user_id, created_at) VALUES (?,?,?,?,?,?)",
		s.Date, s.MachineID, s.BnCount, s.Note, s.UserID, s.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// ListByMachine returns every service of a machine, newest first.
func (r *ServiceRepo) ListByMachine(ctx context.Context, machineID uint64) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx, serviceCols+" WHERE machine_id=? ORDER BY date DESC, id DESC", machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
