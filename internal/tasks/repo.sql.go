package tasks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackline/trackline/internal/audit"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool     *pgxpool.Pool
	auditLog *audit.Logger
}

// NewRepository constructs a repository. The audit logger is threaded in so
// transactional audit writes share the task transaction.
func NewRepository(pool *pgxpool.Pool, auditLog *audit.Logger) *Repository {
	return &Repository{pool: pool, auditLog: auditLog}
}

type txRepository struct {
	tx       pgx.Tx
	auditLog *audit.Logger
}

// WithTx runs fn inside one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepository{tx: tx, auditLog: r.auditLog}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetTask fetches one task.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, selectTask+` WHERE id = $1`, id))
}

// ListTasks returns tasks matching the filter, newest first.
func (r *Repository) ListTasks(ctx context.Context, filter ListFilter) ([]Task, error) {
	status := pgtype.Text{String: filter.Status, Valid: filter.Status != ""}
	assignee := pgtype.Int8{Int64: filter.AssigneeID, Valid: filter.AssigneeID != 0}
	rows, err := r.pool.Query(ctx, selectTask+`
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::bigint IS NULL OR assignee_id = $2)
		ORDER BY created_at DESC, id DESC`, status, assignee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (t *txRepository) InsertTask(ctx context.Context, task Task) (Task, error) {
	assignee := pgtype.Int8{Int64: task.AssigneeID, Valid: task.AssigneeID != 0}
	return scanTask(t.tx.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, creator_id, assignee_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, description, status, creator_id, assignee_id, created_at, updated_at`,
		task.Title, task.Description, task.Status, task.CreatorID, assignee))
}

func (t *txRepository) GetTaskForUpdate(ctx context.Context, id int64) (Task, error) {
	return scanTask(t.tx.QueryRow(ctx, selectTask+` WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepository) UpdateTask(ctx context.Context, task Task) error {
	assignee := pgtype.Int8{Int64: task.AssigneeID, Valid: task.AssigneeID != 0}
	tag, err := t.tx.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, assignee_id = $5, updated_at = NOW()
		WHERE id = $1`,
		task.ID, task.Title, task.Description, task.Status, assignee)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (t *txRepository) RecordAudit(ctx context.Context, entry audit.Entry) error {
	return t.auditLog.RecordTx(ctx, t.tx, entry)
}

const selectTask = `
	SELECT id, title, description, status, creator_id, assignee_id, created_at, updated_at
	FROM tasks`

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	var assignee pgtype.Int8
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status,
		&task.CreatorID, &assignee, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, err
	}
	if assignee.Valid {
		task.AssigneeID = assignee.Int64
	}
	return task, nil
}

var _ RepositoryPort = (*Repository)(nil)
var _ TxRepository = (*txRepository)(nil)
