package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/trackline/trackline/internal/shared"
	"github.com/trackline/trackline/jobs"
)

// Enqueuer is the slice of asynq.Client the dispatcher needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher creates notifications after successful mutations and hands
// email fan-out to the background worker.
type Dispatcher struct {
	repo     RepositoryPort
	logger   *slog.Logger
	enqueuer Enqueuer
}

// NewDispatcher constructs a Dispatcher. enqueuer may be nil when no worker
// is deployed; email fan-out is then skipped.
func NewDispatcher(repo RepositoryPort, logger *slog.Logger, enqueuer Enqueuer) *Dispatcher {
	return &Dispatcher{repo: repo, logger: logger, enqueuer: enqueuer}
}

// Notify stores a notification and queues its email. Call it only after the
// primary effect and the audit write both succeeded. Every failure here is
// logged and swallowed: a lost notice never rolls back or fails the action
// that caused it. Notify does not deduplicate; two calls for the same event
// produce two rows.
func (d *Dispatcher) Notify(ctx context.Context, input Input) {
	if input.RecipientID == 0 || strings.TrimSpace(input.Message) == "" {
		return
	}
	if input.Type == "" {
		input.Type = TypeInfo
	}
	stored, err := d.repo.Insert(ctx, input)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("notification insert",
				slog.Int64("recipient_id", input.RecipientID),
				slog.Any("error", err))
		}
		return
	}
	if d.enqueuer == nil {
		return
	}
	task, err := jobs.NewNotifyEmailTask(jobs.NotifyEmailPayload{
		NotificationID: stored.ID,
		RecipientID:    stored.RecipientID,
		Message:        stored.Message,
		Type:           stored.Type,
	})
	if err == nil {
		_, err = d.enqueuer.Enqueue(task, asynq.Queue(jobs.QueueDefault))
	}
	if err != nil && d.logger != nil {
		d.logger.Warn("notification enqueue",
			slog.Int64("notification_id", stored.ID),
			slog.Any("error", err))
	}
}

// ListForUser returns the recipient's notifications.
func (d *Dispatcher) ListForUser(ctx context.Context, recipientID int64, unreadOnly bool) ([]Notification, error) {
	return d.repo.ListForUser(ctx, recipientID, unreadOnly)
}

// MarkRead marks a single notification read. Marking someone else's
// notification, or an unknown one, returns shared.ErrNotFound.
func (d *Dispatcher) MarkRead(ctx context.Context, id, recipientID int64) error {
	rows, err := d.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (d *Dispatcher) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return d.repo.MarkAllRead(ctx, recipientID)
}

// ClearOld removes notifications older than the retention window, read or
// not. The sweep runs when a caller asks for it, not on a timer.
func (d *Dispatcher) ClearOld(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("notify: retention must be positive")
	}
	return d.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
}
