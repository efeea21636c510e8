package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MemoryStore keeps drafts in a map guarded by an RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*State
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]*State)}
}

func (m *MemoryStore) Save(_ context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[s.OwnerID] = copyState(s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, ownerID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.drafts[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyState(s), nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, ownerID)
	return nil
}

func (m *MemoryStore) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for owner, s := range m.drafts {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.drafts, owner)
			removed++
		}
	}
	return removed, nil
}

// copyState deep-copies so callers cannot mutate stored drafts in place.
func copyState(s *State) *State {
	cp := *s
	cp.Steps = make(map[Step]json.RawMessage, len(s.Steps))
	for k, v := range s.Steps {
		cp.Steps[k] = append(json.RawMessage(nil), v...)
	}
	return &cp
}
