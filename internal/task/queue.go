package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// QueueReader provides read-only access to the descriptor channel,
// allowing the runner to consume tasks without the ability to enqueue.
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming descriptors.
	GetChannel() <-chan Descriptor
}

// QueueWriter provides write access to the task queue, allowing the API
// layer to enqueue tasks and observe their status.
type QueueWriter interface {
	// Enqueue records a new task and returns its generated id.
	Enqueue(ctx context.Context, taskType string, payload any) (uuid.UUID, error)

	// Status returns the stored state snapshot for a task id.
	Status(ctx context.Context, taskID uuid.UUID) (*State, error)

	// Close closes the task queue, preventing further task submission.
	Close()
}

// Queue implements a buffered FIFO task queue mirrored into a StateStore.
// Enqueue writes the pending state before the descriptor becomes visible to
// the consumer, so the store never lacks an entry for an id the queue holds.
type Queue struct {
	descriptors chan Descriptor
	store       StateStore
	logger      *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a new task queue with the specified buffer size, backed
// by the given state store.
func NewQueue(size int, store StateStore, logger *slog.Logger) *Queue {
	return &Queue{
		descriptors: make(chan Descriptor, size),
		store:       store,
		logger:      logger,
	}
}

// Enqueue generates a fresh task id, initializes the pending state in the
// store, and appends the descriptor to the queue. If the state cannot be
// stored the descriptor is never queued; if the queue is full the state is
// rolled back so the two stores cannot disagree.
func (q *Queue) Enqueue(ctx context.Context, taskType string, payload any) (uuid.UUID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskID := uuid.New()
	now := time.Now().UTC()
	descriptor := Descriptor{
		TaskID:    taskID,
		Type:      taskType,
		Payload:   raw,
		CreatedAt: now,
	}

	state := NewState(taskID, now)
	state.Type = taskType
	state.Payload = raw
	if err := q.store.SaveState(ctx, state); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save task state: %w", err)
	}

	// The closed check and the send share the lock so a concurrent Close
	// cannot close the channel between them.
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		if delErr := q.store.DeleteState(ctx, taskID); delErr != nil {
			q.logger.Error("failed to roll back state for rejected task",
				"task_id", taskID,
				"error", delErr)
		}
		return uuid.Nil, ErrQueueClosed
	}

	select {
	case q.descriptors <- descriptor:
		q.logger.Debug("task enqueued",
			"task_id", taskID,
			"task_type", taskType,
			"queue_len", len(q.descriptors),
			"queue_cap", cap(q.descriptors))
		return taskID, nil
	default:
		// Queue is full: roll the state back so no orphan pending entry
		// remains for a task that was never queued.
		if delErr := q.store.DeleteState(ctx, taskID); delErr != nil {
			q.logger.Error("failed to roll back state for rejected task",
				"task_id", taskID,
				"error", delErr)
		}
		return uuid.Nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.descriptors))
	}
}

// Recover re-enqueues every task the store still records as unfinished,
// rebuilding descriptors from the persisted states. Call it once at
// startup, before or just after the consumer starts; a task interrupted
// mid-run is delivered again rather than stranded in a non-terminal status.
// Returns how many tasks were re-enqueued.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	states, err := q.store.ListUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unfinished tasks: %w", err)
	}

	recovered := 0
	for _, state := range states {
		descriptor := Descriptor{
			TaskID:    state.TaskID,
			Type:      state.Type,
			Payload:   state.Payload,
			CreatedAt: state.CreatedAt,
		}

		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return recovered, ErrQueueClosed
		}
		select {
		case q.descriptors <- descriptor:
			recovered++
		default:
			// Leave the task for the next restart rather than block startup.
			q.logger.Warn("queue full during recovery, task not re-enqueued",
				"task_id", state.TaskID,
				"status", state.Status)
		}
		q.mu.Unlock()
	}

	if recovered > 0 {
		q.logger.Info("recovered unfinished tasks", "count", recovered)
	}
	return recovered, nil
}

// Status returns the stored state snapshot for a task id, or
// store.ErrTaskNotFound when the id is unknown.
func (q *Queue) Status(ctx context.Context, taskID uuid.UUID) (*State, error) {
	return q.store.GetState(ctx, taskID)
}

// Close closes the task queue, preventing further task submission.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.descriptors)
		q.logger.Info("task queue closed")
	}
}

// GetChannel returns a read-only channel for consuming descriptors.
func (q *Queue) GetChannel() <-chan Descriptor {
	return q.descriptors
}
