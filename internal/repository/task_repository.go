package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/interatlas/management-system/internal/model"
)

// TaskRepo accesses the `tasks` table.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskCols = "SELECT id, task, user_id, created_at, is_completed, completed_at, completed_by FROM tasks"

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.Text, &t.UserID, &t.CreatedAt, &t.IsCompleted, &t.CompletedAt, &t.CompletedBy)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (task, user_id, created_at, is_completed) VALUES (?,?,?,0)",
		t.Text, t.UserID, t.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Complete flips an open task to completed.  The WHERE clause only matches
// open tasks, so of two racing completions exactly one succeeds; the other
// (and any completion of a missing task) gets ErrNotFound and must look the
// task up to tell the two cases apart.
func (r *TaskRepo) Complete(ctx context.Context, id, userID uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET is_completed=1, completed_at=?, completed_by=? WHERE id=? AND is_completed=0",
		at, userID, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, taskCols+" WHERE id=?", id))
	return t, mapErr(err)
}

// List returns open tasks first, each group newest first.  openOnly limits
// the result to open tasks.
func (r *TaskRepo) List(ctx context.Context, openOnly bool) ([]model.Task, error) {
	query := taskCols + " ORDER BY is_completed, created_at DESC, id DESC"
	if openOnly {
		query = taskCols + " WHERE is_completed=0 ORDER BY created_at DESC, id DESC"
	}
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
