package repository

import (
	"context"
	"database/sql"

	"github.com/interatlas/management-system/internal/model"
)

// LinkRepo persists one-time links.  Only the token hash is stored; lookups
// are by hash and purpose.
type LinkRepo struct{ DB *sql.DB }

func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{DB: db} }

// Store inserts a freshly issued link.  Exactly one of user_id / email is
// set, depending on the subject kind.
func (r *LinkRepo) Store(ctx context.Context, l model.OneTimeLink) (uint64, error) {
	var (
		userID sql.NullInt64
		email  sql.NullString
	)
	switch l.Subject.Kind {
	case model.SubjectUser:
		userID = sql.NullInt64{Int64: int64(l.Subject.UserID), Valid: true}
	case model.SubjectEmail:
		email = sql.NullString{String: l.Subject.Email, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO one_time_links (token_hash, purpose, user_id, email, used, created_at, expires_at) VALUES (?,?,?,?,0,?,?)",
		l.TokenHash, string(l.Purpose), userID, email, l.CreatedAt, l.ExpiresAt)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

const linkCols = "SELECT id, token_hash, purpose, user_id, email, used, created_at, expires_at FROM one_time_links"

// FindUnused returns the unused link with the given hash and purpose, or
// ErrNotFound.  Expiry is not checked here; the caller decides.
func (r *LinkRepo) FindUnused(ctx context.Context, tokenHash string, purpose model.LinkPurpose) (model.OneTimeLink, error) {
	return scanLink(r.DB.QueryRowContext(ctx,
		linkCols+" WHERE token_hash=? AND purpose=? AND used=0", tokenHash, string(purpose)))
}

// LockUnusedTx is FindUnused with a row lock, so two redemptions of the same
// token serialize and the second one sees used=1.
func (r *LinkRepo) LockUnusedTx(ctx context.Context, tx *sql.Tx, tokenHash string, purpose model.LinkPurpose) (model.OneTimeLink, error) {
	return scanLink(tx.QueryRowContext(ctx,
		linkCols+" WHERE token_hash=? AND purpose=? AND used=0 FOR UPDATE", tokenHash, string(purpose)))
}

// MarkUsedTx flips used to 1.  The used=0 guard makes a lost race visible
// as ErrNotFound instead of a silent double redemption.
func (r *LinkRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "UPDATE one_time_links SET used=1 WHERE id=? AND used=0", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func scanLink(row *sql.Row) (model.OneTimeLink, error) {
	var (
		l       model.OneTimeLink
		purpose string
		userID  sql.NullInt64
		email   sql.NullString
	)
	err := row.Scan(&l.ID, &l.TokenHash, &purpose, &userID, &email, &l.Used, &l.CreatedAt, &l.ExpiresAt)
	if err != nil {
		return l, mapErr(err)
	}
	l.Purpose = model.LinkPurpose(purpose)
	if userID.Valid {
		l.Subject = model.UserSubject(uint64(userID.Int64))
	} else {
		l.Subject = model.EmailSubject(email.String)
	}
	return l, nil
}
