package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/interatlas/management-system/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "SELECT id,name,surname,phone_number,email,password_hash,is_admin,is_active,is_verified,created_at FROM users"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.PhoneNumber, &u.Email, &u.PasswordHash,
		&u.IsAdmin, &u.IsActive, &u.IsVerified, &u.CreatedAt)
	return u, err
}

// CreateTx inserts a user with an already hashed password and returns its
// ID.  Email is normalized; a taken email or phone yields ErrDuplicate.
func (r *UserRepo) CreateTx(ctx context.Context, q Querier, u model.User) (uint64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO users (name, surname, phone_number, email, password_hash, is_admin, is_active, is_verified, created_at) VALUES (?,?,?,?,?,?,?,?,?)",
		u.Name, u.Surname, u.PhoneNumber, normEmail(u.Email), u.PasswordHash, u.IsAdmin, u.IsActive, u.IsVerified, u.CreatedAt)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, userCols+" WHERE email=? LIMIT 1", normEmail(email)))
	return u, mapErr(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, userCols+" WHERE id=? LIMIT 1", id))
	return u, mapErr(err)
}

// EmailTaken reports whether a user other than excludeID has the email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?", normEmail(email), excludeID).Scan(&n)
	return n > 0, err
}

// PhoneTaken reports whether a user other than excludeID has the phone.
func (r *UserRepo) PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE phone_number=? AND id<>?", phone, excludeID).Scan(&n)
	return n > 0, err
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, q Querier, id uint64, hash string) error {
	_, err := q.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateContact writes phone, email and the verification flag together so
// an email change can never leave the account marked verified.
func (r *UserRepo) UpdateContact(ctx context.Context, q Querier, id uint64, phone, email string, verified bool) error {
	_, err := q.ExecContext(ctx,
		"UPDATE users SET phone_number=?, email=?, is_verified=? WHERE id=?",
		phone, normEmail(email), verified, id)
	return mapErr(err)
}

func (r *UserRepo) SetVerified(ctx context.Context, q Querier, id uint64) error {
	_, err := q.ExecContext(ctx, "UPDATE users SET is_verified=1 WHERE id=?", id)
	return err
}

// SetFlags is the admin toggle for is_admin / is_active.
func (r *UserRepo) SetFlags(ctx context.Context, id uint64, isAdmin, isActive bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_admin=?, is_active=? WHERE id=?", isAdmin, isActive, id)
	return err
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, userCols+" ORDER BY surname, name")
}

// ListReachable returns users that receive broadcast mail: active and
// verified.
func (r *UserRepo) ListReachable(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, userCols+" WHERE is_active=1 AND is_verified=1 ORDER BY id")
}

func (r *UserRepo) list(ctx context.Context, query string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountAdmins is used by the start-up bootstrap.
func (r *UserRepo) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_admin=1").Scan(&n)
	return n, err
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
