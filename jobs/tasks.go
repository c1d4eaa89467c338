package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyEmail is the task type for emailing a stored notification.
	TaskTypeNotifyEmail = "notify:email"
	// TaskTypeNotifyCleanup is the task type for the age-based notification sweep.
	TaskTypeNotifyCleanup = "notify:cleanup"
)

// NotifyEmailPayload describes the notification to email.
type NotifyEmailPayload struct {
	NotificationID int64  `json:"notification_id"`
	RecipientID    int64  `json:"recipient_id"`
	Message        string `json:"message"`
	Type           string `json:"type"`
}

// NotifyCleanupPayload carries the retention window for the sweep.
type NotifyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewNotifyEmailTask constructs an Asynq task for TaskTypeNotifyEmail.
func NewNotifyEmailTask(payload NotifyEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyEmail, data), nil
}

// NewNotifyCleanupTask constructs an Asynq task for TaskTypeNotifyCleanup.
func NewNotifyCleanupTask(payload NotifyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyCleanup, data), nil
}

// HandleNotifyEmailTask processes TaskTypeNotifyEmail tasks.
func HandleNotifyEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands with the mail integration.
	fmt.Printf("[jobs] notify recipient=%d type=%s\n", payload.RecipientID, payload.Type)
	return nil
}
