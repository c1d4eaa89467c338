package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines persistence for notifications.
type RepositoryPort interface {
	Insert(ctx context.Context, input Input) (Notification, error)
	ListForUser(ctx context.Context, recipientID int64, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID int64) (int64, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new unread notification.
func (r *Repository) Insert(ctx context.Context, input Input) (Notification, error) {
	taskID := pgtype.Int8{Int64: input.TaskID, Valid: input.TaskID != 0}
	var n Notification
	var storedTask pgtype.Int8
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (task_id, recipient_id, message, type, is_read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, task_id, recipient_id, message, type, is_read, created_at`,
		taskID, input.RecipientID, input.Message, input.Type).
		Scan(&n.ID, &storedTask, &n.RecipientID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	if storedTask.Valid {
		n.TaskID = storedTask.Int64
	}
	return n, nil
}

// ListForUser returns a recipient's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, recipientID int64, unreadOnly bool) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, recipient_id, message, type, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC, id DESC`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var taskID pgtype.Int8
		if err := rows.Scan(&n.ID, &taskID, &n.RecipientID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if taskID.Valid {
			n.TaskID = taskID.Int64
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkRead flips is_read for one notification owned by the recipient.
func (r *Repository) MarkRead(ctx context.Context, id, recipientID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkAllRead flips is_read for every unread notification of the recipient.
func (r *Repository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan removes rows created before cutoff regardless of read state.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*Repository)(nil)
