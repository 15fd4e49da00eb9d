package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// InventoryRepo accesses the `inventory` table.  Quantity changes always go
// through a locked read (LockTx) followed by SetQuantityTx in the same
// transaction; there is no blind UPDATE ... SET quantity = quantity - ?.
type InventoryRepo struct{ DB *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{DB: db} }

const inventoryCols = "SELECT id, part_id, location_id, quantity FROM inventory"

// Get returns the stock row for (partID, locationID) or ErrNotFound.
func (r *InventoryRepo) Get(ctx context.Context, partID, locationID uint64) (model.Inventory, error) {
	return getInventory(ctx, r.DB, inventoryCols+" WHERE part_id=? AND location_id=?", partID, locationID)
}

// LockTx reads the row with SELECT ... FOR UPDATE so concurrent adjustments
// on the same (part, location) queue up behind this transaction.
func (r *InventoryRepo) LockTx(ctx context.Context, tx *sql.Tx, partID, locationID uint64) (model.Inventory, error) {
	return getInventory(ctx, tx, inventoryCols+" WHERE part_id=? AND location_id=? FOR UPDATE", partID, locationID)
}

func getInventory(ctx context.Context, q Querier, query string, args ...any) (model.Inventory, error) {
	var inv model.Inventory
	err := q.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &inv.PartID, &inv.LocationID, &inv.Quantity)
	return inv, mapErr(err)
}

// InsertTx creates the row for (partID, locationID).  A concurrent insert of
// the same pair surfaces as ErrDuplicate through the unique index.
func (r *InventoryRepo) InsertTx(ctx context.Context, tx *sql.Tx, partID, locationID uint64, qty int) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO inventory (part_id, location_id, quantity) VALUES (?,?,?)",
		partID, locationID, qty)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetQuantityTx overwrites the quantity of a row previously locked by LockTx.
func (r *InventoryRepo) SetQuantityTx(ctx context.Context, tx *sql.Tx, id uint64, qty int) error {
	_, err := tx.ExecContext(ctx, "UPDATE inventory SET quantity=? WHERE id=?", qty, id)
	return err
}

// ListByPart returns the stock of a part at every location that has a row.
func (r *InventoryRepo) ListByPart(ctx context.Context, partID uint64) ([]model.Inventory, error) {
	rows, err := r.DB.QueryContext(ctx, inventoryCols+" WHERE part_id=? ORDER BY location_id", partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Inventory
	for rows.Next() {
		var inv model.Inventory
		if err := rows.Scan(&inv.ID, &inv.PartID, &inv.LocationID, &inv.Quantity); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
