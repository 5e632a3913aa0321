package draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
)

var _ Store = (*MockStore)(nil)

// MockStore keeps states in memory. Stored values are deep copies so callers
// can never mutate a session behind the store's back.
type MockStore struct {
	mu     sync.Mutex
	locks  *chat.Locker
	states map[chat.Key]*State

	ClearCalls []chat.Key
}

// NewMock creates an empty MockStore.
func NewMock() *MockStore {
	return &MockStore{
		locks:  chat.NewLocker(),
		states: make(map[chat.Key]*State),
	}
}

func (m *MockStore) Get(_ context.Context, key chat.Key) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

func (m *MockStore) Set(_ context.Context, key chat.Key, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Revision++
	st.Version = CurrentVersion
	m.states[key] = st.Clone()
	return nil
}

func (m *MockStore) Clear(_ context.Context, key chat.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls = append(m.ClearCalls, key)
	delete(m.states, key)
	return nil
}

func (m *MockStore) Update(ctx context.Context, key chat.Key, fn UpdateFunc) (*State, error) {
	unlock := m.locks.Lock(key)
	defer unlock()

	cur, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var expected int64
	if cur != nil {
		expected = cur.Revision
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if next == nil {
		if cur != nil {
			return nil, m.Clear(ctx, key)
		}
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.states[key]; ok && stored.Revision != expected {
		return nil, fmt.Errorf("draft state of %s at revision %d: %w", key, expected, apperrors.ErrConflict)
	}
	next.Revision = expected + 1
	next.Version = CurrentVersion
	m.states[key] = next.Clone()
	return next, nil
}

func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = make(map[chat.Key]*State)
	m.ClearCalls = nil
}
