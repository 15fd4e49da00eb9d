package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// MachineTypeRepo accesses `machine_types`.
type MachineTypeRepo struct{ DB *sql.DB }

func NewMachineTypeRepo(db *sql.DB) *MachineTypeRepo { return &MachineTypeRepo{DB: db} }

func (r *MachineTypeRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO machine_types (name) VALUES (?)", name)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *MachineTypeRepo) GetByID(ctx context.Context, id uint64) (model.MachineType, error) {
	var mt model.MachineType
	err := r.DB.QueryRowContext(ctx, "SELECT id, name FROM machine_types WHERE id=?", id).Scan(&mt.ID, &mt.Name)
	return mt, mapErr(err)
}

func (r *MachineTypeRepo) List(ctx context.Context) ([]model.MachineType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM machine_types ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MachineType
	for rows.Next() {
		var mt model.MachineType
		if err := rows.Scan(&mt.ID, &mt.Name); err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// LocationRepo accesses `locations`.
type LocationRepo struct{ DB *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

func (r *LocationRepo) Create(ctx context.Context, l model.Location) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO locations (location_en, location_lt) VALUES (?,?)", l.LocationEN, l.LocationLT)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (model.Location, error) {
	var l model.Location
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, location_en, location_lt FROM locations WHERE id=?", id).Scan(&l.ID, &l.LocationEN, &l.LocationLT)
	return l, mapErr(err)
}

func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, location_en, location_lt FROM locations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.LocationEN, &l.LocationLT); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
