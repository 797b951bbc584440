package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/0xM4sk/researcher/internal/store"
)

// MemoryStateStore is an in-memory StateStore for tests and single-process
// deployments without a database. States are stored as JSON so reads return
// independent copies with the same round-trip semantics as the durable
// implementation.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID][]byte
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[uuid.UUID][]byte),
	}
}

// SaveState persists the full task state, overwriting any prior value.
func (s *MemoryStateStore) SaveState(_ context.Context, state *State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrSerialization, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.TaskID] = encoded
	return nil
}

// GetState retrieves a task's state, or store.ErrTaskNotFound.
func (s *MemoryStateStore) GetState(_ context.Context, taskID uuid.UUID) (*State, error) {
	s.mu.RLock()
	encoded, ok := s.states[taskID]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	var state State
	if err := json.Unmarshal(encoded, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrSerialization, err)
	}
	if state.Data == nil {
		state.Data = make(map[string]any)
	}
	return &state, nil
}

// ListUnfinished returns every non-terminal task state in creation order.
func (s *MemoryStateStore) ListUnfinished(_ context.Context) ([]*State, error) {
	s.mu.RLock()
	encoded := make([][]byte, 0, len(s.states))
	for _, raw := range s.states {
		encoded = append(encoded, raw)
	}
	s.mu.RUnlock()

	unfinished := make([]*State, 0, len(encoded))
	for _, raw := range encoded {
		var state State
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrSerialization, err)
		}
		if state.Status.IsTerminal() {
			continue
		}
		if state.Data == nil {
			state.Data = make(map[string]any)
		}
		unfinished = append(unfinished, &state)
	}

	sort.Slice(unfinished, func(i, j int) bool {
		return unfinished[i].CreatedAt.Before(unfinished[j].CreatedAt)
	})
	return unfinished, nil
}

// DeleteState removes a task's state. Deleting an absent task is a no-op.
func (s *MemoryStateStore) DeleteState(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, taskID)
	return nil
}
