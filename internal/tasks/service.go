package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/notify"
)

// TxRepository is the per-transaction slice of the repository. RecordAudit
// writes into the same transaction as the primary effect, so effect and
// audit commit or roll back together.
type TxRepository interface {
	InsertTask(ctx context.Context, task Task) (Task, error)
	GetTaskForUpdate(ctx context.Context, id int64) (Task, error)
	UpdateTask(ctx context.Context, task Task) error
	RecordAudit(ctx context.Context, entry audit.Entry) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTask(ctx context.Context, id int64) (Task, error)
	ListTasks(ctx context.Context, filter ListFilter) ([]Task, error)
}

// AuditPort abstracts audit logging for read actions, which have no
// enclosing transaction.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// NotifierPort abstracts the notification dispatcher.
type NotifierPort interface {
	Notify(ctx context.Context, input notify.Input)
}

// Service coordinates task operations.
type Service struct {
	repo     RepositoryPort
	auditLog AuditPort
	notifier NotifierPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, auditLog AuditPort, notifier NotifierPort) *Service {
	return &Service{repo: repo, auditLog: auditLog, notifier: notifier}
}

// Create inserts a new task. The insert and its audit record share one
// transaction; the assignee notification fires only after both committed.
func (s *Service) Create(ctx context.Context, input CreateInput) (Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Task{}, errors.New("tasks: title required")
	}
	var created Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		task, err := tx.InsertTask(ctx, Task{
			Title:       title,
			Description: strings.TrimSpace(input.Description),
			Status:      StatusOpen,
			CreatorID:   input.ActorID,
			AssigneeID:  input.AssigneeID,
		})
		if err != nil {
			return err
		}
		created = task
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:  input.ActorID,
			Action:   "InsertTask",
			Entity:   "tasks",
			EntityID: formatID(task.ID),
			Detail: map[string]any{
				"title":       task.Title,
				"assignee_id": task.AssigneeID,
			},
		})
	})
	if err != nil {
		return Task{}, err
	}
	s.notifyAssignment(ctx, created, input.ActorID)
	return created, nil
}

// Update edits title and description.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Task{}, errors.New("tasks: title required")
	}
	var updated Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		task, err := tx.GetTaskForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if task.Status == StatusDone {
			return ErrAlreadyDone
		}
		task.Title = title
		task.Description = strings.TrimSpace(input.Description)
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		updated = task
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:  input.ActorID,
			Action:   "UpdateTask",
			Entity:   "tasks",
			EntityID: formatID(task.ID),
			Detail:   map[string]any{"title": task.Title},
		})
	})
	if err != nil {
		return Task{}, err
	}
	return updated, nil
}

// Assign sets the assignee and notifies them.
func (s *Service) Assign(ctx context.Context, taskID, assigneeID, actorID int64) (Task, error) {
	if assigneeID == 0 {
		return Task{}, errors.New("tasks: assignee required")
	}
	var assigned Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status == StatusDone {
			return ErrAlreadyDone
		}
		task.AssigneeID = assigneeID
		task.Status = StatusInProgress
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		assigned = task
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:  actorID,
			Action:   "AssignTask",
			Entity:   "tasks",
			EntityID: formatID(task.ID),
			Detail:   map[string]any{"assignee_id": assigneeID},
		})
	})
	if err != nil {
		return Task{}, err
	}
	s.notifyAssignment(ctx, assigned, actorID)
	return assigned, nil
}

// Complete marks the task done and notifies its creator.
func (s *Service) Complete(ctx context.Context, taskID, actorID int64) (Task, error) {
	var completed Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status == StatusDone {
			return ErrAlreadyDone
		}
		task.Status = StatusDone
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		completed = task
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:  actorID,
			Action:   "CompleteTask",
			Entity:   "tasks",
			EntityID: formatID(task.ID),
		})
	})
	if err != nil {
		return Task{}, err
	}
	if completed.CreatorID != 0 && completed.CreatorID != actorID {
		s.notifier.Notify(ctx, notify.Input{
			TaskID:      completed.ID,
			RecipientID: completed.CreatorID,
			Message:     fmt.Sprintf("Task %q was completed", completed.Title),
			Type:        notify.TypeTaskCompleted,
		})
	}
	return completed, nil
}

// Get fetches one task and audits the read.
func (s *Service) Get(ctx context.Context, taskID, actorID int64) (Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if err := s.auditLog.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "GetTask",
		Entity:   "tasks",
		EntityID: formatID(task.ID),
	}); err != nil {
		return Task{}, err
	}
	return task, nil
}

// List returns tasks matching the filter. The audit entry has no target
// record; list actions cover many rows.
func (s *Service) List(ctx context.Context, filter ListFilter, actorID int64) ([]Task, error) {
	result, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.auditLog.Record(ctx, audit.Entry{
		ActorID: actorID,
		Action:  "GetTasks",
		Entity:  "tasks",
		Detail:  map[string]any{"status": filter.Status, "assignee_id": filter.AssigneeID},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) notifyAssignment(ctx context.Context, task Task, actorID int64) {
	if task.AssigneeID == 0 || task.AssigneeID == actorID {
		return
	}
	s.notifier.Notify(ctx, notify.Input{
		TaskID:      task.ID,
		RecipientID: task.AssigneeID,
		Message:     fmt.Sprintf("You were assigned task %q", task.Title),
		Type:        notify.TypeTaskAssigned,
	})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
