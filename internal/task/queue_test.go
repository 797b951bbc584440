package task

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xM4sk/researcher/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueEnqueueInitializesPendingState(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	taskID, err := queue.Enqueue(ctx, TypeResearch, map[string]string{"query": "go scheduler"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, taskID)

	state, err := queue.Status(ctx, taskID)
	require.NoError(t, err, "state must exist immediately after enqueue")
	assert.Equal(t, StatusPending, state.Status)
	assert.Empty(t, state.Error)

	// The descriptor must be waiting on the channel with the same id.
	descriptor := <-queue.GetChannel()
	assert.Equal(t, taskID, descriptor.TaskID)
	assert.Equal(t, TypeResearch, descriptor.Type)
	assert.JSONEq(t, `{"query":"go scheduler"}`, string(descriptor.Payload))
}

func TestQueueEnqueueIsFIFO(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(8, NewMemoryStateStore(), testLogger())

	first, err := queue.Enqueue(ctx, TypeResearch, "a")
	require.NoError(t, err)
	second, err := queue.Enqueue(ctx, TypeResearch, "b")
	require.NoError(t, err)

	assert.Equal(t, first, (<-queue.GetChannel()).TaskID)
	assert.Equal(t, second, (<-queue.GetChannel()).TaskID)
}

func TestQueueEnqueueFullRollsBackState(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(1, stateStore, testLogger())

	_, err := queue.Enqueue(ctx, TypeResearch, "first")
	require.NoError(t, err)

	taskID, err := queue.Enqueue(ctx, TypeResearch, "overflow")
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uuid.Nil, taskID)

	// The rejected task must not leave a pending entry behind. Only the
	// queued task's state exists.
	descriptor := <-queue.GetChannel()
	_, err = stateStore.GetState(ctx, descriptor.TaskID)
	assert.NoError(t, err)
}

func TestQueueEnqueueStoreFailure(t *testing.T) {
	queue := NewQueue(4, failingStateStore{}, testLogger())

	_, err := queue.Enqueue(context.Background(), TypeResearch, "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable,
		"enqueue on an unreachable store should surface the unavailable error")
}

func TestQueueEnqueueAfterClose(t *testing.T) {
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())
	queue.Close()

	_, err := queue.Enqueue(context.Background(), TypeResearch, "late")
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	queue := NewQueue(4, NewMemoryStateStore(), testLogger())
	queue.Close()
	assert.NotPanics(t, func() { queue.Close() })
}

func TestQueueRecoverReenqueuesUnfinishedTasks(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()

	// A task enqueued on a previous run that never got picked up.
	interrupted := NewState(uuid.New(), time.Now().UTC().Add(-time.Minute))
	interrupted.Type = TypeResearch
	interrupted.Payload = json.RawMessage(`{"query":"io_uring"}`)
	require.NoError(t, stateStore.SaveState(ctx, interrupted))

	// A task that already finished; it must stay finished.
	done := NewState(uuid.New(), time.Now().UTC())
	require.NoError(t, done.TransitionTo(StatusInProgress))
	require.NoError(t, done.TransitionTo(StatusCompleted))
	require.NoError(t, stateStore.SaveState(ctx, done))

	queue := NewQueue(4, stateStore, testLogger())
	recovered, err := queue.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	descriptor := <-queue.GetChannel()
	assert.Equal(t, interrupted.TaskID, descriptor.TaskID)
	assert.Equal(t, TypeResearch, descriptor.Type)
	assert.JSONEq(t, `{"query":"io_uring"}`, string(descriptor.Payload))

	select {
	case extra := <-queue.GetChannel():
		t.Fatalf("completed task %s must not be re-enqueued", extra.TaskID)
	default:
	}
}

func TestQueueRecoverSkipsWhenFull(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()

	for i := 0; i < 2; i++ {
		state := NewState(uuid.New(), time.Now().UTC().Add(time.Duration(i)*time.Second))
		state.Type = TypeResearch
		state.Payload = json.RawMessage(`{}`)
		require.NoError(t, stateStore.SaveState(ctx, state))
	}

	queue := NewQueue(1, stateStore, testLogger())
	recovered, err := queue.Recover(ctx)
	require.NoError(t, err)

	// Only one slot available: the second task stays in the store for the
	// next restart instead of blocking startup.
	assert.Equal(t, 1, recovered)
}

func TestQueueRecoverStoreFailure(t *testing.T) {
	queue := NewQueue(4, failingStateStore{}, testLogger())
	_, err := queue.Recover(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestQueueStatusUnknownTask(t *testing.T) {
	queue := NewQueue(4, NewMemoryStateStore(), testLogger())
	_, err := queue.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

// failingStateStore simulates an unreachable backing store.
type failingStateStore struct{}

func (failingStateStore) SaveState(context.Context, *State) error {
	return store.ErrUnavailable
}

func (failingStateStore) GetState(context.Context, uuid.UUID) (*State, error) {
	return nil, store.ErrUnavailable
}

func (failingStateStore) DeleteState(context.Context, uuid.UUID) error {
	return store.ErrUnavailable
}

func (failingStateStore) ListUnfinished(context.Context) ([]*State, error) {
	return nil, store.ErrUnavailable
}
