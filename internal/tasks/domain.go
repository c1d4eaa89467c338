// Package tasks is the task-tracking module. Every state change runs behind
// the authorization gate, commits together with its audit record, and then
// notifies affected users on a best-effort basis.
package tasks

import (
	"errors"
	"time"
)

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

var (
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("tasks: not found")
	// ErrAlreadyDone indicates a completed task cannot change further.
	ErrAlreadyDone = errors.New("tasks: already done")
)

// Task represents one unit of tracked work.
type Task struct {
	ID          int64
	Title       string
	Description string
	Status      string
	CreatorID   int64
	AssigneeID  int64 // zero when unassigned
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields for a new task.
type CreateInput struct {
	Title       string
	Description string
	AssigneeID  int64
	ActorID     int64
}

// UpdateInput carries editable task fields.
type UpdateInput struct {
	ID          int64
	Title       string
	Description string
	ActorID     int64
}

// ListFilter narrows task listings. Zero values mean "no filter".
type ListFilter struct {
	Status     string
	AssigneeID int64
}
