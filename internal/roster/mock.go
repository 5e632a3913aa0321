package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
)

var _ Store = (*MockStore)(nil)

// MockStore is an in-memory implementation of Store for testing.
// It behaves like the SQL store and records the mutating calls.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	players  map[int64]Player
	profiles map[profileKey]Profile
	regs     map[profileKey]Registration
	nextID   int64
	clock    int64

	// Spies for method calls
	ListRegistrationsFunc func(ctx context.Context, key chat.Key) ([]Registration, error)

	// Call records
	SetRegistrationStatusCalls []StatusCall
	DeleteRegistrationCalls    []int64
	ClearRegistrationsCalls    []chat.Key
	SetPaymentStateCalls       []PaymentCall
}

type profileKey struct {
	playerID int64
	key      chat.Key
}

// StatusCall holds the arguments for a call to SetRegistrationStatus.
type StatusCall struct {
	PlayerID int64
	Status   Status
}

// PaymentCall holds the arguments for a call to SetPaymentState.
type PaymentCall struct {
	PlayerID int64
	State    PaymentState
}

// NewMock creates an empty in-memory store.
func NewMock() *MockStore {
	return &MockStore{
		players:  make(map[int64]Player),
		profiles: make(map[profileKey]Profile),
		regs:     make(map[profileKey]Registration),
	}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetRegistrationStatusCalls = nil
	m.DeleteRegistrationCalls = nil
	m.ClearRegistrationsCalls = nil
	m.SetPaymentStateCalls = nil
}

func (m *MockStore) tick() time.Time {
	m.clock++
	return time.Unix(0, m.clock)
}

func (m *MockStore) EnsurePlayer(ctx context.Context, accountID, name string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accountID != "" {
		for _, p := range m.players {
			if p.AccountID == accountID {
				return p, nil
			}
		}
	}
	m.nextID++
	p := Player{ID: m.nextID, AccountID: accountID, Name: name}
	m.players[p.ID] = p
	return p, nil
}

func (m *MockStore) GetPlayer(ctx context.Context, playerID int64) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return Player{}, fmt.Errorf("player %d: %w", playerID, apperrors.ErrNotFound)
	}
	return p, nil
}

func (m *MockStore) FindPlayerByAccount(ctx context.Context, accountID string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.AccountID == accountID && accountID != "" {
			return p, nil
		}
	}
	return Player{}, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
}

func (m *MockStore) GetProfile(ctx context.Context, playerID int64, key chat.Key) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile(playerID, key), nil
}

func (m *MockStore) profile(playerID int64, key chat.Key) Profile {
	if p, ok := m.profiles[profileKey{playerID, key}]; ok {
		return p
	}
	return DefaultProfile(playerID, key)
}

func (m *MockStore) UpsertProfile(ctx context.Context, profile Profile) error {
	if err := validate.StructCtx(ctx, profile); err != nil {
		return fmt.Errorf("%w: profile validation failed: %v", apperrors.ErrInvalidInput, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profileKey{profile.PlayerID, profile.Key}] = profile
	return nil
}

func (m *MockStore) ListCorePlayers(ctx context.Context, key chat.Key) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Profile
	for k, p := range m.profiles {
		if k.key == key && p.IsCore {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *MockStore) ListRegistrations(ctx context.Context, key chat.Key) ([]Registration, error) {
	if m.ListRegistrationsFunc != nil {
		return m.ListRegistrationsFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Registration
	for k, r := range m.regs {
		if k.key == key {
			out = append(out, m.hydrate(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MockStore) hydrate(r Registration) Registration {
	r.Player = m.players[r.PlayerID]
	r.Profile = m.profile(r.PlayerID, r.Key)
	return r
}

func (m *MockStore) GetRegistration(ctx context.Context, playerID int64, key chat.Key) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[profileKey{playerID, key}]
	if !ok {
		return Registration{}, fmt.Errorf("registration of player %d: %w", playerID, apperrors.ErrNotFound)
	}
	return m.hydrate(r), nil
}

func (m *MockStore) UpsertRegistration(ctx context.Context, playerID int64, key chat.Key, position Position, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[playerID]; !ok {
		return fmt.Errorf("player %d: %w", playerID, apperrors.ErrNotFound)
	}
	k := profileKey{playerID, key}
	r, ok := m.regs[k]
	if !ok {
		r = Registration{PlayerID: playerID, Key: key, Payment: Unpaid}
	}
	if !ok || r.Status != status {
		r.UpdatedAt = m.tick()
	}
	r.Position = position
	r.Status = status
	m.regs[k] = r
	return nil
}

func (m *MockStore) SetRegistrationStatus(ctx context.Context, playerID int64, key chat.Key, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetRegistrationStatusCalls = append(m.SetRegistrationStatusCalls, StatusCall{PlayerID: playerID, Status: status})
	k := profileKey{playerID, key}
	r, ok := m.regs[k]
	if !ok {
		return fmt.Errorf("registration of player %d: %w", playerID, apperrors.ErrNotFound)
	}
	r.Status = status
	r.UpdatedAt = m.tick()
	m.regs[k] = r
	return nil
}

func (m *MockStore) SetPaymentState(ctx context.Context, playerID int64, key chat.Key, state PaymentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetPaymentStateCalls = append(m.SetPaymentStateCalls, PaymentCall{PlayerID: playerID, State: state})
	k := profileKey{playerID, key}
	r, ok := m.regs[k]
	if !ok {
		return fmt.Errorf("registration of player %d: %w", playerID, apperrors.ErrNotFound)
	}
	r.Payment = state
	m.regs[k] = r
	return nil
}

func (m *MockStore) DeleteRegistration(ctx context.Context, playerID int64, key chat.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteRegistrationCalls = append(m.DeleteRegistrationCalls, playerID)
	delete(m.regs, profileKey{playerID, key})
	return nil
}

func (m *MockStore) ClearRegistrations(ctx context.Context, key chat.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearRegistrationsCalls = append(m.ClearRegistrationsCalls, key)
	for k := range m.regs {
		if k.key == key {
			delete(m.regs, k)
		}
	}
	return nil
}
