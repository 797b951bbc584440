package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Task type constants
const (
	// TypeResearch is the task type for research pipeline runs.
	TypeResearch = "research"
)

// ResultKey is the key under which a completed task's handler return value
// is stored in State.Data.
const ResultKey = "result"

// Common task errors
var (
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrUnknownStatus     = errors.New("unknown task status")
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// isValidStatus checks if the given status is a known Status value.
func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Descriptor identifies one unit of queued work. It is immutable once
// enqueued.
type Descriptor struct {
	TaskID    uuid.UUID       `json:"task_id"`
	Type      string          `json:"task_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// State is the durable record of a task's lifecycle, owned exclusively by
// the task store. Status moves monotonically along
// pending -> in_progress -> completed|failed|cancelled.
// Type and Payload duplicate the queued descriptor so an unfinished task
// survives a restart and can be re-enqueued from the store alone.
type State struct {
	TaskID      uuid.UUID       `json:"task_id"`
	Type        string          `json:"task_type,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	FailedAt    *time.Time      `json:"failed_at,omitempty"`
	Data        map[string]any  `json:"data"`
	Error       string          `json:"error,omitempty"`
}

// NewState creates the initial pending State for a freshly enqueued task.
func NewState(taskID uuid.UUID, createdAt time.Time) *State {
	return &State{
		TaskID:    taskID,
		Status:    StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Data:      make(map[string]any),
	}
}

// TransitionTo moves the state to the given status, stamping UpdatedAt and
// the matching terminal timestamp. It rejects transitions out of a terminal
// state and transitions that skip backwards.
func (s *State) TransitionTo(status Status) error {
	if !isValidStatus(status) {
		return ErrUnknownStatus
	}
	if s.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if s.Status == StatusInProgress && status == StatusPending {
		return ErrInvalidTransition
	}

	now := time.Now().UTC()
	s.Status = status
	s.UpdatedAt = now

	switch status {
	case StatusCompleted:
		s.CompletedAt = &now
	case StatusFailed:
		s.FailedAt = &now
	}
	return nil
}

// Handler processes one task payload and returns the result artifact to be
// stored under State.Data["result"]. A returned error marks the task failed.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// StateStore defines the interface for persisting task state.
// All operations are idempotent; concurrent writers to the same task id are
// serialized by the implementation.
type StateStore interface {
	// SaveState persists the full task state, overwriting any prior value.
	SaveState(ctx context.Context, state *State) error

	// GetState retrieves a task's state. Returns store.ErrTaskNotFound if
	// no state exists for the id.
	GetState(ctx context.Context, taskID uuid.UUID) (*State, error)

	// DeleteState removes a task's state. Deleting an absent task is a no-op.
	DeleteState(ctx context.Context, taskID uuid.UUID) error

	// ListUnfinished returns every task whose status is not terminal, in
	// creation order. Used to re-enqueue interrupted work after a restart.
	ListUnfinished(ctx context.Context) ([]*State, error)
}
