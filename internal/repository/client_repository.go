package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/interatlas/management-system/internal/model"
)

// ClientRepo accesses the `clients` table.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientCols = "SELECT id, company, address, city, contact_person, phone_number, email FROM clients"

func scanClient(row interface{ Scan(...any) error }) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Company, &c.Address, &c.City, &c.ContactPerson, &c.PhoneNumber, &c.Email)
	return c, err
}

func (r *ClientRepo) Create(ctx context.Context, c model.Client) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (company, address, city, contact_person, phone_number, email) VALUES (?,?,?,?,?,?)",
		c.Company, c.Address, c.City, c.ContactPerson, c.PhoneNumber, strings.ToLower(c.Email))
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update rewrites the editable contact fields.
func (r *ClientRepo) Update(ctx context.Context, c model.Client) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET address=?, contact_person=?, phone_number=?, email=? WHERE id=?",
		c.Address, c.ContactPerson, c.PhoneNumber, strings.ToLower(c.Email), c.ID)
	return mapErr(err)
}

func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx, clientCols+" WHERE id=?", id))
	return c, mapErr(err)
}

// PhoneTaken reports whether a client other than excludeID uses the phone.
func (r *ClientRepo) PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM clients WHERE phone_number=? AND id<>?", phone, excludeID).Scan(&n)
	return n > 0, err
}

// EmailTaken compares case-insensitively; emails are stored lower-case.
func (r *ClientRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM clients WHERE email=? AND id<>?", strings.ToLower(email), excludeID).Scan(&n)
	return n > 0, err
}

func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx, clientCols+" ORDER BY company")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
