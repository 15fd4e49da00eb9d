package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// PartRepo accesses `parts` and the `part_machine_types` join table.
type PartRepo struct{ DB *sql.DB }

func NewPartRepo(db *sql.DB) *PartRepo { return &PartRepo{DB: db} }

const partCols = "SELECT id, part_number, name_en, name_lt, price FROM parts"

func scanPart(row interface{ Scan(...any) error }) (model.Part, error) {
	var p model.Part
	err := row.Scan(&p.ID, &p.PartNumber, &p.NameEN, &p.NameLT, &p.Price)
	return p, err
}

// CreateTx inserts the part and links it to its compatible machine types.
// A taken part number yields ErrDuplicate.
func (r *PartRepo) CreateTx(ctx context.Context, tx *sql.Tx, p model.Part) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO parts (part_number, name_en, name_lt, price) VALUES (?,?,?,?)",
		p.PartNumber, p.NameEN, p.NameLT, p.Price)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, mt := range p.MachineTypeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO part_machine_types (part_id, machine_type_id) VALUES (?,?)",
			id, mt); err != nil {
			return 0, mapErr(err)
		}
	}
	return uint64(id), nil
}

// GetByNumber looks a part up by its catalogue number.
func (r *PartRepo) GetByNumber(ctx context.Context, q Querier, number string) (model.Part, error) {
	p, err := scanPart(q.QueryRowContext(ctx, partCols+" WHERE part_number=?", number))
	return p, mapErr(err)
}

func (r *PartRepo) GetByID(ctx context.Context, id uint64) (model.Part, error) {
	p, err := scanPart(r.DB.QueryRowContext(ctx, partCols+" WHERE id=?", id))
	if err != nil {
		return p, mapErr(err)
	}
	p.MachineTypeIDs, err = r.MachineTypeIDs(ctx, r.DB, id)
	return p, err
}

// NumberTaken reports whether another part already uses the number.
func (r *PartRepo) NumberTaken(ctx context.Context, number string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM parts WHERE part_number=?", number).Scan(&n)
	return n > 0, err
}

// MachineTypeIDs lists the machine types the part fits.
func (r *PartRepo) MachineTypeIDs(ctx context.Context, q Querier, partID uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT machine_type_id FROM part_machine_types WHERE part_id=? ORDER BY machine_type_id", partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FitsMachineType checks the join table for (partID, machineTypeID).
func (r *PartRepo) FitsMachineType(ctx context.Context, q Querier, partID, machineTypeID uint64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM part_machine_types WHERE part_id=? AND machine_type_id=?",
		partID, machineTypeID).Scan(&n)
	return n > 0, err
}

// List returns every part ordered by part number.
func (r *PartRepo) List(ctx context.Context) ([]model.Part, error) {
	return r.list(ctx, partCols+" ORDER BY part_number")
}

// ListByMachineType returns the parts compatible with a machine type,
// used for the price list.
func (r *PartRepo) ListByMachineType(ctx context.Context, machineTypeID uint64) ([]model.Part, error) {
	return r.list(ctx,
		"SELECT p.id, p.part_number, p.name_en, p.name_lt, p.price FROM parts p "+
			"JOIN part_machine_types pmt ON pmt.part_id = p.id "+
			"WHERE pmt.machine_type_id=? ORDER BY p.part_number", machineTypeID)
}

func (r *PartRepo) list(ctx context.Context, query string, args ...any) ([]model.Part, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
