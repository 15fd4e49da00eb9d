// Package service holds the workflows: each exported method is one user
// operation, runs its writes in a single transaction and returns either a
// result or an *Error describing why it was rejected.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// Actor is the authenticated user an operation runs on behalf of.  Lang is
// the language of the request; it selects the language of outgoing mail.
type Actor struct {
	ID      uint64
	Name    string
	IsAdmin bool
	Lang    string
}

func (a Actor) userID() *uint64 {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// Notifier sends the mails triggered by workflows.  Implementations are
// best-effort: they log delivery failures and never report them back.
type Notifier interface {
	Invitation(ctx context.Context, lang, to, inviter, link string)
	PasswordReset(ctx context.Context, lang, to, link string)
	EmailVerification(ctx context.Context, lang, to, link string)
	TaskCreated(ctx context.Context, lang string, to []string, t model.Task, author string)
	VisitScheduled(ctx context.Context, lang string, to []string, v model.Visit, c model.Client)
}

// Clock returns the current time; workflows take one so tests can pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// notFound maps repository.ErrNotFound to the given workflow error and
// passes everything else through.
func notFound(err error, as *Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return as
	}
	return err
}

// conflict maps repository.ErrDuplicate to the given workflow error.
func conflict(err error, as *Error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return as
	}
	return err
}

// reachableEmails lists the addresses broadcast mail goes to.
func reachableEmails(ctx context.Context, users *repository.UserRepo) ([]string, error) {
	list, err := users.ListReachable(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.Email)
	}
	return out, nil
}
