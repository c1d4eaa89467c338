package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

// recordingQuerier captures inserted entity ids in arrival order and flags
// any two writes for the same actor that overlap in time.
type recordingQuerier struct {
	mu       sync.Mutex
	inFlight map[int64]bool
	overlap  bool
	order    []string

	// enter/release, when set, let the test hold a write open mid-insert.
	enter   chan int64
	release chan struct{}
}

func (q *recordingQuerier) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	actor := args[0].(int64)

	q.mu.Lock()
	if q.inFlight == nil {
		q.inFlight = make(map[int64]bool)
	}
	if q.inFlight[actor] {
		q.overlap = true
	}
	q.inFlight[actor] = true
	q.mu.Unlock()

	if q.enter != nil {
		q.enter <- actor
		<-q.release
	} else {
		time.Sleep(time.Millisecond)
	}

	q.mu.Lock()
	q.inFlight[actor] = false
	q.order = append(q.order, args[3].(pgtype.Text).String)
	q.mu.Unlock()
	return pgconn.CommandTag{}, nil
}

func TestInsertKeepsActorWritesOrdered(t *testing.T) {
	logger := &Logger{}
	querier := &recordingQuerier{
		enter:   make(chan int64),
		release: make(chan struct{}),
	}
	ctx := context.Background()

	done := make(chan error, 2)
	go func() {
		done <- logger.insert(ctx, querier, Entry{ActorID: 7, Action: "AssignTask", Entity: "tasks", EntityID: "first"})
	}()
	<-querier.enter

	// A second write for the same actor arrives while the first is still in
	// flight; it must wait its turn.
	go func() {
		done <- logger.insert(ctx, querier, Entry{ActorID: 7, Action: "CompleteTask", Entity: "tasks", EntityID: "second"})
	}()
	time.Sleep(10 * time.Millisecond)

	querier.release <- struct{}{}
	<-querier.enter
	querier.release <- struct{}{}

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	require.False(t, querier.overlap)
	require.Equal(t, []string{"first", "second"}, querier.order)
}

func TestInsertSerialisesConcurrentActorWrites(t *testing.T) {
	logger := &Logger{}
	querier := &recordingQuerier{}
	ctx := context.Background()

	const writers = 16
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- logger.insert(ctx, querier, Entry{ActorID: 7, Action: "CreateTask", Entity: "tasks", EntityID: "t"})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.False(t, querier.overlap)
	require.Len(t, querier.order, writers)
}
