// Package notify creates and manages user notifications. Dispatch is
// best-effort: a failed notification never fails the action that caused it.
package notify

import "time"

// Notification types understood by the UI and email templates.
const (
	TypeTaskAssigned  = "task_assigned"
	TypeTaskCompleted = "task_completed"
	TypeInfo          = "info"
)

// Notification is one row addressed to a single recipient. It is created as
// a side effect of a successful mutation, mutated only by marking it read,
// and removed by the age-based sweep.
type Notification struct {
	ID          int64
	TaskID      int64 // zero when the notice is not tied to a task
	RecipientID int64
	Message     string
	Type        string
	IsRead      bool
	CreatedAt   time.Time
}

// Input describes a notification to dispatch.
type Input struct {
	TaskID      int64
	RecipientID int64
	Message     string
	Type        string
}
