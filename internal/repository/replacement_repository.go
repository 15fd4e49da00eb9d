package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// ReplacementRepo accesses `parts_replaced`.  Rows are only ever inserted.
type ReplacementRepo struct{ DB *sql.DB }

func NewReplacementRepo(db *sql.DB) *ReplacementRepo { return &ReplacementRepo{DB: db} }

// InsertTx appends a replacement record inside the transaction that
// decremented the inventory row it references.
func (r *ReplacementRepo) InsertTx(ctx context.Context, tx *sql.Tx, pr model.PartsReplaced) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO parts_replaced (date, part_id, quantity, machine_id, warranty, inventory_id, user_id, created_at) VALUES (?,?,?,?,?,?,?,?)",
		pr.Date, pr.PartID, pr.Quantity, pr.MachineID, pr.Warranty, pr.InventoryID, pr.UserID, pr.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// ListByMachine returns a machine's replacements, newest first.
func (r *ReplacementRepo) ListByMachine(ctx context.Context, machineID uint64) ([]model.PartsReplaced, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, date, part_id, quantity, machine_id, warranty, inventory_id, user_id, created_at "+
			"FROM parts_replaced WHERE machine_id=? ORDER BY date DESC, id DESC", machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PartsReplaced
	for rows.Next() {
		var pr model.PartsReplaced
		if err := rows.Scan(&pr.ID, &pr.Date, &pr.PartID, &pr.Quantity, &pr.MachineID,
			&pr.Warranty, &pr.InventoryID, &pr.UserID, &pr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
