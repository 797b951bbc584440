package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/0xM4sk/researcher/internal/platform/logger"
	"github.com/0xM4sk/researcher/internal/store"
	"github.com/0xM4sk/researcher/internal/task"
)

// TaskStore implements the task.StateStore interface using PostgreSQL.
// Lifecycle columns are stored natively for queryability; the free-form
// Data map goes into a JSONB column.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{
		db: db,
	}
}

// SaveState persists the full task state, inserting on first write and
// overwriting on every later one.
func (s *TaskStore) SaveState(ctx context.Context, state *task.State) error {
	log := logger.FromContext(ctx)

	data, err := json.Marshal(state.Data)
	if err != nil {
		return fmt.Errorf("%w: encoding task data: %v", store.ErrSerialization, err)
	}

	query := `
		INSERT INTO tasks (id, task_type, payload, status, created_at, updated_at, completed_at, failed_at, data, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at,
			failed_at = EXCLUDED.failed_at,
			data = EXCLUDED.data,
			error_message = EXCLUDED.error_message
	`

	_, err = s.db.ExecContext(ctx, query,
		state.TaskID,
		state.Type,
		nullableBytes(state.Payload),
		state.Status,
		state.CreatedAt,
		state.UpdatedAt,
		state.CompletedAt,
		state.FailedAt,
		data,
		nullableString(state.Error),
	)
	if err != nil {
		log.Error("failed to save task state",
			"task_id", state.TaskID,
			"status", state.Status,
			"error", err)
		return fmt.Errorf("failed to save task state: %w", MapError(err))
	}

	return nil
}

// GetState retrieves a task's state by id. Returns store.ErrTaskNotFound
// when no row exists.
func (s *TaskStore) GetState(ctx context.Context, taskID uuid.UUID) (*task.State, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, task_type, payload, status, created_at, updated_at, completed_at, failed_at, data, error_message
		FROM tasks
		WHERE id = $1
	`

	var (
		state    task.State
		payload  []byte
		data     []byte
		errorMsg sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, taskID).Scan(
		&state.TaskID,
		&state.Type,
		&payload,
		&state.Status,
		&state.CreatedAt,
		&state.UpdatedAt,
		&state.CompletedAt,
		&state.FailedAt,
		&data,
		&errorMsg,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task state",
			"task_id", taskID,
			"error", err)
		return nil, fmt.Errorf("failed to get task state: %w", MapError(err))
	}

	if err := json.Unmarshal(data, &state.Data); err != nil {
		return nil, fmt.Errorf("%w: decoding task data: %v", store.ErrSerialization, err)
	}
	state.Payload = payload
	state.Error = errorMsg.String

	return &state, nil
}

// ListUnfinished returns every task whose status is not terminal, oldest
// first, so the queue can re-enqueue interrupted work after a restart.
func (s *TaskStore) ListUnfinished(ctx context.Context) ([]*task.State, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, task_type, payload, status, created_at, updated_at, completed_at, failed_at, data, error_message
		FROM tasks
		WHERE status IN ('pending', 'in_progress')
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list unfinished tasks", "error", err)
		return nil, fmt.Errorf("failed to list unfinished tasks: %w", MapError(err))
	}
	defer rows.Close()

	var states []*task.State
	for rows.Next() {
		var (
			state    task.State
			payload  []byte
			data     []byte
			errorMsg sql.NullString
		)
		if err := rows.Scan(
			&state.TaskID,
			&state.Type,
			&payload,
			&state.Status,
			&state.CreatedAt,
			&state.UpdatedAt,
			&state.CompletedAt,
			&state.FailedAt,
			&data,
			&errorMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task state: %w", MapError(err))
		}
		if err := json.Unmarshal(data, &state.Data); err != nil {
			return nil, fmt.Errorf("%w: decoding task data: %v", store.ErrSerialization, err)
		}
		state.Payload = payload
		state.Error = errorMsg.String
		states = append(states, &state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list unfinished tasks: %w", MapError(err))
	}

	return states, nil
}

// DeleteState removes a task's state. Deleting an absent task is a no-op.
func (s *TaskStore) DeleteState(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContext(ctx)

	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		log.Error("failed to delete task state",
			"task_id", taskID,
			"error", err)
		return fmt.Errorf("failed to delete task state: %w", MapError(err))
	}

	return nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableBytes maps an empty byte slice to SQL NULL so the JSONB payload
// column stays NULL rather than holding an empty document.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
