package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/notify"
)

type memoryRepo struct {
	tasks   map[int64]Task
	nextID  int64
	entries []audit.Entry

	failAudit error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: make(map[int64]Task)}
}

type memoryTx struct {
	repo    *memoryRepo
	tasks   map[int64]Task
	entries []audit.Entry
	nextID  int64
}

// WithTx stages writes and applies them only when fn succeeds, matching the
// commit-or-nothing behavior of the real transaction.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r, tasks: make(map[int64]Task), nextID: r.nextID}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, task := range tx.tasks {
		r.tasks[id] = task
	}
	r.nextID = tx.nextID
	r.entries = append(r.entries, tx.entries...)
	return nil
}

func (r *memoryRepo) GetTask(_ context.Context, id int64) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (r *memoryRepo) ListTasks(_ context.Context, filter ListFilter) ([]Task, error) {
	var out []Task
	for _, task := range r.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.AssigneeID != 0 && task.AssigneeID != filter.AssigneeID {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (tx *memoryTx) InsertTask(_ context.Context, task Task) (Task, error) {
	tx.nextID++
	task.ID = tx.nextID
	tx.tasks[task.ID] = task
	return task, nil
}

func (tx *memoryTx) GetTaskForUpdate(_ context.Context, id int64) (Task, error) {
	if task, ok := tx.tasks[id]; ok {
		return task, nil
	}
	task, ok := tx.repo.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (tx *memoryTx) UpdateTask(_ context.Context, task Task) error {
	tx.tasks[task.ID] = task
	return nil
}

func (tx *memoryTx) RecordAudit(_ context.Context, entry audit.Entry) error {
	if tx.repo.failAudit != nil {
		return tx.repo.failAudit
	}
	tx.entries = append(tx.entries, entry)
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
	fail    error
}

func (a *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	if a.fail != nil {
		return a.fail
	}
	a.entries = append(a.entries, entry)
	return nil
}

type recordingNotifier struct {
	inputs []notify.Input
}

func (n *recordingNotifier) Notify(_ context.Context, input notify.Input) {
	n.inputs = append(n.inputs, input)
}

func newTestService() (*Service, *memoryRepo, *recordingAudit, *recordingNotifier) {
	repo := newMemoryRepo()
	auditLog := &recordingAudit{}
	notifier := &recordingNotifier{}
	return NewService(repo, auditLog, notifier), repo, auditLog, notifier
}

func TestCreateRecordsAuditAndNotifiesAssignee(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateInput{Title: "Ship order", AssigneeID: 9, ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, task.Status)

	require.Len(t, repo.entries, 1)
	require.Equal(t, "InsertTask", repo.entries[0].Action)
	require.Equal(t, int64(1), repo.entries[0].ActorID)

	require.Len(t, notifier.inputs, 1)
	require.Equal(t, int64(9), notifier.inputs[0].RecipientID)
	require.Equal(t, notify.TypeTaskAssigned, notifier.inputs[0].Type)
}

func TestCreateSelfAssignmentSkipsNotification(t *testing.T) {
	svc, _, _, notifier := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{Title: "Solo", AssigneeID: 1, ActorID: 1})
	require.NoError(t, err)
	require.Empty(t, notifier.inputs)
}

func TestCreateFailsWhenAuditFails(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	repo.failAudit = errors.New("audit down")

	_, err := svc.Create(context.Background(), CreateInput{Title: "Ship order", AssigneeID: 9, ActorID: 1})
	require.Error(t, err)

	// The transaction rolled back: no task, no audit row, no notification.
	require.Empty(t, repo.tasks)
	require.Empty(t, repo.entries)
	require.Empty(t, notifier.inputs)
}

func TestAssignNotifiesNewAssignee(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "Ship order", ActorID: 1})
	require.NoError(t, err)
	notifier.inputs = nil

	assigned, err := svc.Assign(ctx, created.ID, 9, 1)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, assigned.Status)
	require.Equal(t, int64(9), assigned.AssigneeID)

	require.Len(t, notifier.inputs, 1)
	require.Equal(t, int64(9), notifier.inputs[0].RecipientID)
	require.Equal(t, "AssignTask", repo.entries[len(repo.entries)-1].Action)
}

func TestCompleteNotifiesCreator(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "Ship order", AssigneeID: 9, ActorID: 1})
	require.NoError(t, err)
	notifier.inputs = nil

	done, err := svc.Complete(ctx, created.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusDone, done.Status)

	require.Len(t, notifier.inputs, 1)
	require.Equal(t, int64(1), notifier.inputs[0].RecipientID)
	require.Equal(t, notify.TypeTaskCompleted, notifier.inputs[0].Type)
	require.Equal(t, "CompleteTask", repo.entries[len(repo.entries)-1].Action)

	// Completing twice conflicts.
	_, err = svc.Complete(ctx, created.ID, 9)
	require.ErrorIs(t, err, ErrAlreadyDone)
}

func TestUpdateRejectsDoneTask(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "Ship order", ActorID: 1})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, created.ID, 1)
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateInput{ID: created.ID, Title: "Renamed", ActorID: 1})
	require.ErrorIs(t, err, ErrAlreadyDone)
}

func TestGetAuditsRead(t *testing.T) {
	svc, _, auditLog, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "Ship order", ActorID: 1})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID, 5)
	require.NoError(t, err)
	require.Len(t, auditLog.entries, 1)
	require.Equal(t, "GetTask", auditLog.entries[0].Action)
	require.Equal(t, int64(5), auditLog.entries[0].ActorID)
}

func TestGetFailsWhenAuditFails(t *testing.T) {
	svc, _, auditLog, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "Ship order", ActorID: 1})
	require.NoError(t, err)

	auditLog.fail = errors.New("audit down")
	_, err = svc.Get(ctx, created.ID, 5)
	require.Error(t, err)
}

func TestListAuditsWithoutEntityID(t *testing.T) {
	svc, _, auditLog, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Title: "Ship order", ActorID: 1})
	require.NoError(t, err)

	_, err = svc.List(ctx, ListFilter{Status: StatusOpen}, 5)
	require.NoError(t, err)
	require.Len(t, auditLog.entries, 1)
	require.Equal(t, "GetTasks", auditLog.entries[0].Action)
	require.Empty(t, auditLog.entries[0].EntityID)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{Title: "   ", ActorID: 1})
	require.Error(t, err)
	require.Empty(t, repo.tasks)
}
