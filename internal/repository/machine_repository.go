package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// MachineRepo accesses the `machines` table.
type MachineRepo struct{ DB *sql.DB }

func NewMachineRepo(db *sql.DB) *MachineRepo { return &MachineRepo{DB: db} }

const machineCols = "SELECT id, serial_number, start_of_operation, end_of_warranty, machine_type_id, client_id, is_active FROM machines"

func scanMachine(row interface{ Scan(...any) error }) (model.Machine, error) {
	var m model.Machine
	err := row.Scan(&m.ID, &m.SerialNumber, &m.StartOfOperation, &m.EndOfWarranty,
		&m.MachineTypeID, &m.ClientID, &m.IsActive)
	return m, err
}

// Create inserts a machine; a taken serial number yields ErrDuplicate.
func (r *MachineRepo) Create(ctx context.Context, m model.Machine) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO machines (serial_number, start_of_operation, end_of_warranty, machine_type_id, client_id, is_active) VALUES (?,?,?,?,?,?)",
		m.SerialNumber, m.StartOfOperation, m.EndOfWarranty, m.MachineTypeID, m.ClientID, m.IsActive)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetBySerial resolves a machine by serial number on either the pool or a
// transaction.
func (r *MachineRepo) GetBySerial(ctx context.Context, q Querier, serial string) (model.Machine, error) {
	m, err := scanMachine(q.QueryRowContext(ctx, machineCols+" WHERE serial_number=?", serial))
	return m, mapErr(err)
}

// LockBySerialTx is GetBySerial with a row lock.  Service records for the
// same machine are serialized on this lock.
func (r *MachineRepo) LockBySerialTx(ctx context.Context, tx *sql.Tx, serial string) (model.Machine, error) {
	m, err := scanMachine(tx.QueryRowContext(ctx, machineCols+" WHERE serial_number=? FOR UPDATE", serial))
	return m, mapErr(err)
}

func (r *MachineRepo) GetByID(ctx context.Context, id uint64) (model.Machine, error) {
	m, err := scanMachine(r.DB.QueryRowContext(ctx, machineCols+" WHERE id=?", id))
	return m, mapErr(err)
}

// Update writes the fields an admin may change after creation.
func (r *MachineRepo) Update(ctx context.Context, id, clientID uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE machines SET client_id=?, is_active=? WHERE id=?", clientID, active, id)
	return err
}

// List returns machines, optionally restricted to one client (clientID > 0).
func (r *MachineRepo) List(ctx context.Context, clientID uint64) ([]model.Machine, error) {
	query, args := machineCols+" ORDER BY serial_number", []any(nil)
	if clientID > 0 {
		query, args = machineCols+" WHERE client_id=? ORDER BY serial_number", []any{clientID}
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// affectedOne maps a statement that touched nothing to ErrNotFound.  MySQL
// reports 0 affected rows for an UPDATE that changes no value too, so only
// use it where the statement always changes a matching row.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
