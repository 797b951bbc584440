package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xM4sk/researcher/internal/store"
)

func TestStatusIsTerminal(t *testing.T) {
	testCases := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusInProgress, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.terminal, tc.status.IsTerminal(),
			"IsTerminal mismatch for %q", tc.status)
	}
}

func TestStateTransitionLifecycle(t *testing.T) {
	created := time.Now().UTC().Add(-time.Minute)
	state := NewState(uuid.New(), created)

	require.Equal(t, StatusPending, state.Status)
	require.Equal(t, created, state.UpdatedAt)

	require.NoError(t, state.TransitionTo(StatusInProgress))
	assert.True(t, state.UpdatedAt.After(created), "UpdatedAt must advance on every transition")

	inProgressAt := state.UpdatedAt
	require.NoError(t, state.TransitionTo(StatusCompleted))
	assert.True(t, !state.UpdatedAt.Before(inProgressAt))
	require.NotNil(t, state.CompletedAt, "completed transition should stamp CompletedAt")
}

func TestStateTransitionRejectsLeavingTerminal(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			state := NewState(uuid.New(), time.Now().UTC())
			require.NoError(t, state.TransitionTo(StatusInProgress))
			require.NoError(t, state.TransitionTo(terminal))

			for _, next := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusFailed} {
				err := state.TransitionTo(next)
				assert.ErrorIs(t, err, ErrInvalidTransition,
					"transition %s -> %s should be rejected", terminal, next)
			}
			assert.Equal(t, terminal, state.Status, "status must not change on rejected transition")
		})
	}
}

func TestStateTransitionRejectsBackwards(t *testing.T) {
	state := NewState(uuid.New(), time.Now().UTC())
	require.NoError(t, state.TransitionTo(StatusInProgress))
	assert.ErrorIs(t, state.TransitionTo(StatusPending), ErrInvalidTransition)
}

func TestStateTransitionRejectsUnknownStatus(t *testing.T) {
	state := NewState(uuid.New(), time.Now().UTC())
	assert.ErrorIs(t, state.TransitionTo(Status("paused")), ErrUnknownStatus)
}

func TestStateFailedStampsFailedAt(t *testing.T) {
	state := NewState(uuid.New(), time.Now().UTC())
	require.NoError(t, state.TransitionTo(StatusInProgress))
	state.Error = "provider exploded"
	require.NoError(t, state.TransitionTo(StatusFailed))

	require.NotNil(t, state.FailedAt)
	assert.Nil(t, state.CompletedAt)
}

// TestMemoryStateStoreRoundTrip verifies that put-then-get returns an
// equivalent state, including enum-typed status and timestamps.
func TestMemoryStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateStore()

	state := NewState(uuid.New(), time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	state.Data["result"] = []any{map[string]any{"content": "hello"}}
	require.NoError(t, state.TransitionTo(StatusInProgress))

	require.NoError(t, s.SaveState(ctx, state))

	got, err := s.GetState(ctx, state.TaskID)
	require.NoError(t, err)
	assert.Equal(t, state.TaskID, got.TaskID)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, state.CreatedAt.Equal(got.CreatedAt), "CreatedAt should round-trip")
	assert.True(t, state.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt should round-trip")
	assert.Equal(t, state.Data, got.Data)

	// Reads return copies: mutating the result must not affect the store.
	got.Data["result"] = "clobbered"
	again, err := s.GetState(ctx, state.TaskID)
	require.NoError(t, err)
	assert.NotEqual(t, "clobbered", again.Data["result"])
}

func TestMemoryStateStoreGetMissing(t *testing.T) {
	s := NewMemoryStateStore()
	_, err := s.GetState(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestMemoryStateStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateStore()
	state := NewState(uuid.New(), time.Now().UTC())

	require.NoError(t, s.SaveState(ctx, state))
	require.NoError(t, s.DeleteState(ctx, state.TaskID))
	require.NoError(t, s.DeleteState(ctx, state.TaskID), "deleting an absent task must be a no-op")

	_, err := s.GetState(ctx, state.TaskID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
