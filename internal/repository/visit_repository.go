package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/interatlas/management-system/internal/model"
)

// VisitRepo accesses the `visits` table.  (client_id, date) is unique; the
// workflow checks it inside its transaction and the index catches races.
type VisitRepo struct{ DB *sql.DB }

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{DB: db} }

const visitCols = "SELECT id, client_id, date, COALESCE(purpose, '') FROM visits"

func scanVisit(row interface{ Scan(...any) error }) (model.Visit, error) {
	var v model.Visit
	err := row.Scan(&v.ID, &v.ClientID, &v.Date, &v.Purpose)
	return v, err
}

// ExistsTx reports whether a visit other than excludeID is booked for the
// client on date.  The matching range is locked so a concurrent insert of
// the same pair waits for this transaction.
func (r *VisitRepo) ExistsTx(ctx context.Context, tx *sql.Tx, clientID uint64, date time.Time, excludeID uint64) (bool, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM visits WHERE client_id=? AND date=? AND id<>? LIMIT 1 FOR UPDATE",
		clientID, date, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *VisitRepo) InsertTx(ctx context.Context, tx *sql.Tx, v model.Visit) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO visits (client_id, date, purpose) VALUES (?,?,?)", v.ClientID, v.Date, v.Purpose)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// LockTx loads a visit for editing.
func (r *VisitRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Visit, error) {
	v, err := scanVisit(tx.QueryRowContext(ctx, visitCols+" WHERE id=? FOR UPDATE", id))
	return v, mapErr(err)
}

func (r *VisitRepo) UpdateTx(ctx context.Context, tx *sql.Tx, v model.Visit) error {
	_, err := tx.ExecContext(ctx, "UPDATE visits SET date=?, purpose=? WHERE id=?", v.Date, v.Purpose, v.ID)
	return mapErr(err)
}

// Delete removes a visit; ErrNotFound when nothing matched.
func (r *VisitRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM visits WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *VisitRepo) GetByID(ctx context.Context, id uint64) (model.Visit, error) {
	v, err := scanVisit(r.DB.QueryRowContext(ctx, visitCols+" WHERE id=?", id))
	return v, mapErr(err)
}

// ListBetween returns visits with from <= date <= to, for the calendar.
func (r *VisitRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Visit, error) {
	rows, err := r.DB.QueryContext(ctx, visitCols+" WHERE date BETWEEN ? AND ? ORDER BY date, id", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
