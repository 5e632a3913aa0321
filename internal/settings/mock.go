package settings

import (
	"context"
	"sync"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

var _ Store = (*MockStore)(nil)

// MockStore is an in-memory Store. Values can be seeded with Put.
type MockStore struct {
	mu     sync.Mutex
	values map[chat.Key]Settings

	GetFunc  func(ctx context.Context, key chat.Key) (Settings, error)
	SetCalls []SetCall
}

// SetCall records a call to Set.
type SetCall struct {
	Key   chat.Key
	Name  string
	Value string
}

// NewMock creates an empty MockStore.
func NewMock() *MockStore {
	return &MockStore{values: make(map[chat.Key]Settings)}
}

// Put replaces the settings of a chat wholesale.
func (m *MockStore) Put(key chat.Key, s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = s
}

func (m *MockStore) Get(ctx context.Context, key chat.Key) (Settings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.values[key]; ok {
		return s, nil
	}
	return Defaults(), nil
}

func (m *MockStore) Set(ctx context.Context, key chat.Key, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Name: name, Value: value})
	s, ok := m.values[key]
	if !ok {
		s = Defaults()
	}
	if err := apply(ctx, &s, name, value); err != nil {
		return err
	}
	m.values[key] = s
	return nil
}

func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[chat.Key]Settings)
	m.SetCalls = nil
	m.GetFunc = nil
}
