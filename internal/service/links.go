package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/metrics"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
	"github.com/interatlas/management-system/internal/utils"
)

// Links issues and redeems one-time links.  A link is active until it is
// redeemed (terminal) or its expiry passes (terminal, checked on read).
type Links struct {
	db       database.Beginner
	links    *repository.LinkRepo
	ttl      time.Duration
	now      Clock
	newToken func() string
}

func NewLinks(db database.Beginner, links *repository.LinkRepo, ttl time.Duration) *Links {
	return &Links{db: db, links: links, ttl: ttl, now: utcNow, newToken: uuid.NewString}
}

// Issue creates a link for purpose and returns the raw token.  The token is
// random (UUIDv4); only its SHA-256 hash is stored.
func (l *Links) Issue(ctx context.Context, purpose model.LinkPurpose, subject model.LinkSubject) (string, error) {
	if err := checkSubject(purpose, subject); err != nil {
		return "", err
	}
	now := l.now()
	token := l.newToken()
	_, err := l.links.Store(ctx, model.OneTimeLink{
		TokenHash: utils.HashToken(token),
		Purpose:   purpose,
		Subject:   subject,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("store link: %w", err)
	}
	metrics.LinksIssued.WithLabelValues(string(purpose)).Inc()
	return token, nil
}

// registration links belong to an address, every other purpose to a user
func checkSubject(purpose model.LinkPurpose, subject model.LinkSubject) error {
	switch {
	case !purpose.Valid():
		return fmt.Errorf("unknown link purpose %q", purpose)
	case purpose == model.PurposeRegistration && (subject.Kind != model.SubjectEmail || subject.Email == ""):
		return errors.New("registration link needs an email subject")
	case purpose != model.PurposeRegistration && (subject.Kind != model.SubjectUser || subject.UserID == 0):
		return fmt.Errorf("%s link needs a user subject", purpose)
	}
	return nil
}

// Peek validates a token without consuming it, e.g. to show the
// registration form for an invitation.
func (l *Links) Peek(ctx context.Context, token string, purpose model.LinkPurpose) (model.LinkSubject, error) {
	link, err := l.links.FindUnused(ctx, utils.HashToken(token), purpose)
	if err != nil {
		return model.LinkSubject{}, notFound(err, ErrTokenNotFound)
	}
	if link.Expired(l.now()) {
		return model.LinkSubject{}, ErrTokenExpired
	}
	return link.Subject, nil
}

// Redeem consumes a token in its own transaction and returns its subject.
func (l *Links) Redeem(ctx context.Context, token string, purpose model.LinkPurpose) (model.LinkSubject, error) {
	var subject model.LinkSubject
	err := database.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		subject, err = l.RedeemTx(ctx, tx, token, purpose)
		return err
	})
	return subject, err
}

// RedeemTx consumes a token inside the caller's transaction, so the effect
// of the link (new account, new password) commits or rolls back together
// with the used flag.  Unknown, already used or wrong-purpose tokens fail
// with ErrTokenNotFound; expired ones with ErrTokenExpired and no write.
func (l *Links) RedeemTx(ctx context.Context, tx *sql.Tx, token string, purpose model.LinkPurpose) (model.LinkSubject, error) {
	subject, err := l.redeemTx(ctx, tx, token, purpose)
	result := "ok"
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			result = e.Code
		} else {
			result = "error"
		}
	}
	metrics.LinksRedeemed.WithLabelValues(string(purpose), result).Inc()
	return subject, err
}

func (l *Links) redeemTx(ctx context.Context, tx *sql.Tx, token string, purpose model.LinkPurpose) (model.LinkSubject, error) {
	link, err := l.links.LockUnusedTx(ctx, tx, utils.HashToken(token), purpose)
	if err != nil {
		return model.LinkSubject{}, notFound(err, ErrTokenNotFound)
	}
	if link.Expired(l.now()) {
		return model.LinkSubject{}, ErrTokenExpired
	}
	if err := l.links.MarkUsedTx(ctx, tx, link.ID); err != nil {
		return model.LinkSubject{}, notFound(err, ErrTokenNotFound)
	}
	return link.Subject, nil
}
