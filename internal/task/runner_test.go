package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xM4sk/researcher/internal/store"
)

func testRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PopTimeout:          10 * time.Millisecond,
		TaskTimeout:         time.Second,
		StoreRetryBaseDelay: time.Millisecond,
		StoreRetryMaxDelay:  5 * time.Millisecond,
		StoreRetryAttempts:  3,
	}
}

// waitForTerminal polls the store until the task reaches a terminal status.
func waitForTerminal(t *testing.T, s StateStore, taskID uuid.UUID) *State {
	t.Helper()

	var state *State
	require.Eventually(t, func() bool {
		got, err := s.GetState(context.Background(), taskID)
		if err != nil {
			return false
		}
		state = got
		return got.Status.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond, "task %s never reached a terminal status", taskID)
	return state
}

func TestRunnerCompletesTask(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	handlers := map[string]Handler{
		TypeResearch: func(_ context.Context, payload json.RawMessage) (any, error) {
			var got string
			require.NoError(t, json.Unmarshal(payload, &got))
			return []string{"result-for-" + got}, nil
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	taskID, err := queue.Enqueue(ctx, TypeResearch, "alpha")
	require.NoError(t, err)

	state := waitForTerminal(t, stateStore, taskID)
	assert.Equal(t, StatusCompleted, state.Status)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.CompletedAt, "completion time must be stamped")
	require.Contains(t, state.Data, ResultKey, "completed state must carry a result")
	assert.Equal(t, []any{"result-for-alpha"}, state.Data[ResultKey])
}

func TestRunnerRecordsHandlerFailure(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	handlers := map[string]Handler{
		TypeResearch: func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("fetch stage exploded")
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	taskID, err := queue.Enqueue(ctx, TypeResearch, "beta")
	require.NoError(t, err)

	state := waitForTerminal(t, stateStore, taskID)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, "fetch stage exploded", state.Error, "failed state must carry the handler error")
	require.NotNil(t, state.FailedAt, "failure time must be stamped")
	assert.NotContains(t, state.Data, ResultKey)
}

// TestRunnerDropsUnregisteredTaskType verifies the explicit policy that a
// descriptor with no registered handler is dropped without a status update.
func TestRunnerDropsUnregisteredTaskType(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	handlers := map[string]Handler{
		TypeResearch: func(context.Context, json.RawMessage) (any, error) {
			return "done", nil
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	unknownID, err := queue.Enqueue(ctx, "defragmentation", "payload")
	require.NoError(t, err)
	knownID, err := queue.Enqueue(ctx, TypeResearch, "payload")
	require.NoError(t, err)

	// The known task completing proves the unknown one was already popped.
	waitForTerminal(t, stateStore, knownID)

	state, err := stateStore.GetState(ctx, unknownID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, state.Status,
		"dropped descriptor must not receive a status update")
}

func TestRunnerStatusTransitionsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	handlers := map[string]Handler{
		TypeResearch: func(context.Context, json.RawMessage) (any, error) {
			return "ok", nil
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	taskID, err := queue.Enqueue(ctx, TypeResearch, "gamma")
	require.NoError(t, err)

	terminal := waitForTerminal(t, stateStore, taskID)
	require.Equal(t, StatusCompleted, terminal.Status)
	firstObserved := terminal.UpdatedAt

	// Repeated observations after the terminal status never change.
	for i := 0; i < 5; i++ {
		state, err := stateStore.GetState(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, state.Status)
		assert.True(t, state.UpdatedAt.Equal(firstObserved))
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunnerPerTaskTimeout(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	cfg := testRunnerConfig()
	cfg.TaskTimeout = 20 * time.Millisecond

	handlers := map[string]Handler{
		TypeResearch: func(taskCtx context.Context, _ json.RawMessage) (any, error) {
			// Simulates a stuck provider call that only honors the deadline.
			<-taskCtx.Done()
			return nil, taskCtx.Err()
		},
	}

	runner := NewRunner(queue, stateStore, handlers, cfg, testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	taskID, err := queue.Enqueue(ctx, TypeResearch, "stuck")
	require.NoError(t, err)

	state := waitForTerminal(t, stateStore, taskID)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Contains(t, state.Error, "deadline", "timeout should surface in the task error")
}

// TestRunnerGracefulStop verifies that Stop lets the in-flight handler
// finish and records its terminal state before returning.
func TestRunnerGracefulStop(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()
	queue := NewQueue(4, stateStore, testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	handlers := map[string]Handler{
		TypeResearch: func(context.Context, json.RawMessage) (any, error) {
			close(started)
			<-release
			return "slow result", nil
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)

	taskID, err := queue.Enqueue(ctx, TypeResearch, "slow")
	require.NoError(t, err)
	<-started

	var wg sync.WaitGroup
	wg.Add(1)
	stopped := make(chan struct{})
	go func() {
		defer wg.Done()
		runner.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a handler was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	state, err := stateStore.GetState(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, state.Status,
		"in-flight task must finish and record its outcome during graceful shutdown")
	assert.Equal(t, "slow result", state.Data[ResultKey])
}

// TestRunnerProcessesRecoveredTask simulates a restart: a task left pending
// in the store is re-enqueued by Recover and driven to completion by a
// fresh runner.
func TestRunnerProcessesRecoveredTask(t *testing.T) {
	ctx := context.Background()
	stateStore := NewMemoryStateStore()

	interrupted := NewState(uuid.New(), time.Now().UTC())
	interrupted.Type = TypeResearch
	interrupted.Payload = json.RawMessage(`"carried over"`)
	require.NoError(t, stateStore.SaveState(ctx, interrupted))

	queue := NewQueue(4, stateStore, testLogger())
	recovered, err := queue.Recover(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, recovered)

	handlers := map[string]Handler{
		TypeResearch: func(_ context.Context, payload json.RawMessage) (any, error) {
			var got string
			require.NoError(t, json.Unmarshal(payload, &got))
			return got, nil
		},
	}

	runner := NewRunner(queue, stateStore, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	state := waitForTerminal(t, stateStore, interrupted.TaskID)
	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, "carried over", state.Data[ResultKey])
}

// flakyStateStore fails a fixed number of SaveState calls before recovering.
type flakyStateStore struct {
	*MemoryStateStore

	mu        sync.Mutex
	failures  int
	remaining int
}

func (s *flakyStateStore) SaveState(ctx context.Context, state *State) error {
	s.mu.Lock()
	if s.remaining > 0 {
		s.remaining--
		s.failures++
		s.mu.Unlock()
		return store.ErrUnavailable
	}
	s.mu.Unlock()
	return s.MemoryStateStore.SaveState(ctx, state)
}

// TestRunnerRetriesTerminalWrite verifies that a store outage while
// recording the task outcome is retried until it succeeds, and that the
// loop survives the outage.
func TestRunnerRetriesTerminalWrite(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStateStore{MemoryStateStore: NewMemoryStateStore()}
	queue := NewQueue(4, flaky.MemoryStateStore, testLogger())

	handlers := map[string]Handler{
		TypeResearch: func(context.Context, json.RawMessage) (any, error) {
			// Fail the next writes only after the task is in progress, so
			// the outage hits the terminal transition.
			flaky.mu.Lock()
			flaky.remaining = 4
			flaky.mu.Unlock()
			return "persisted eventually", nil
		},
	}

	runner := NewRunner(queue, flaky, handlers, testRunnerConfig(), testLogger())
	runner.Start(ctx)
	defer runner.Stop()

	taskID, err := queue.Enqueue(ctx, TypeResearch, "delta")
	require.NoError(t, err)

	state := waitForTerminal(t, flaky.MemoryStateStore, taskID)
	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, "persisted eventually", state.Data[ResultKey])

	flaky.mu.Lock()
	defer flaky.mu.Unlock()
	assert.Equal(t, 4, flaky.failures, "every simulated outage write should have been attempted")
}
