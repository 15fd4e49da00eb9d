package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/model"
	"github.com/interatlas/management-system/internal/repository"
)

// Tasks is the to-do list shared by all users.
type Tasks struct {
	tasks  *repository.TaskRepo
	users  *repository.UserRepo
	notify Notifier
	audit  audit.Sink
	log    *zap.SugaredLogger
	now    Clock
}

func NewTasks(tasks *repository.TaskRepo, users *repository.UserRepo, notify Notifier, sink audit.Sink, log *zap.SugaredLogger) *Tasks {
	return &Tasks{tasks: tasks, users: users, notify: notify, audit: sink, log: log, now: utcNow}
}

// Create adds an open task and mails it to every active, verified user.
// The mail is sent after the insert and cannot undo it.
func (s *Tasks) Create(ctx context.Context, actor Actor, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	t := model.Task{Text: text, UserID: actor.userID(), CreatedAt: s.now()}
	id, err := s.tasks.Create(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	t.ID = id
	s.audit.Record(ctx, actor.Name, "New_Task", "Task: "+text, audit.Info)

	to, err := reachableEmails(ctx, s.users)
	if err != nil {
		s.log.Warnw("task mail skipped: list recipients", "task_id", id, "err", err)
		return t, nil
	}
	s.notify.TaskCreated(ctx, actor.Lang, to, t, actor.Name)
	return t, nil
}

// Complete marks an open task done by actor.  Completing a task twice is
// rejected with ErrTaskCompleted; completed_at and completed_by keep the
// values of the first completion.
func (s *Tasks) Complete(ctx context.Context, actor Actor, id uint64) (model.Task, error) {
	err := s.tasks.Complete(ctx, id, actor.ID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		t, gerr := s.tasks.GetByID(ctx, id)
		if gerr != nil {
			return model.Task{}, notFound(gerr, ErrTaskNotFound)
		}
		if t.IsCompleted {
			return t, ErrTaskCompleted
		}
		// reopened between the update and the read; report as not found
		return model.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	s.audit.Record(ctx, actor.Name, "Complete_Task", "Task: "+t.Text, audit.Info)
	return t, nil
}

// List returns open tasks first, newest first within each group.
func (s *Tasks) List(ctx context.Context, openOnly bool) ([]model.Task, error) {
	return s.tasks.List(ctx, openOnly)
}
