// Package auth decides who may run privileged lifecycle operations.
package auth

import (
	"context"
	"sync"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Actor is the chat user behind an operation.
type Actor struct {
	AccountID string `json:"account_id" validate:"required"`
	Name      string `json:"name"`
}

// Authorizer answers whether an actor is an admin of a chat.
type Authorizer interface {
	IsPrivileged(ctx context.Context, accountID string, key chat.Key) (bool, error)
}

// Static grants privileges to a fixed set of accounts in every chat.
type Static struct {
	admins map[string]struct{}
}

var _ Authorizer = (*Static)(nil)

// NewStatic creates a Static authorizer for the given account ids.
func NewStatic(accountIDs ...string) *Static {
	s := &Static{admins: make(map[string]struct{}, len(accountIDs))}
	for _, id := range accountIDs {
		if id != "" {
			s.admins[id] = struct{}{}
		}
	}
	return s
}

func (s *Static) IsPrivileged(_ context.Context, accountID string, _ chat.Key) (bool, error) {
	_, ok := s.admins[accountID]
	return ok, nil
}

// Mock is an Authorizer for tests. Admins can be granted per account.
type Mock struct {
	mu     sync.Mutex
	admins map[string]bool

	IsPrivilegedFunc func(ctx context.Context, accountID string, key chat.Key) (bool, error)
}

var _ Authorizer = (*Mock)(nil)

// NewMock creates a Mock granting privileges to accountIDs.
func NewMock(accountIDs ...string) *Mock {
	m := &Mock{admins: make(map[string]bool)}
	for _, id := range accountIDs {
		m.admins[id] = true
	}
	return m
}

// Grant makes accountID an admin.
func (m *Mock) Grant(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[accountID] = true
}

func (m *Mock) IsPrivileged(ctx context.Context, accountID string, key chat.Key) (bool, error) {
	if m.IsPrivilegedFunc != nil {
		return m.IsPrivilegedFunc(ctx, accountID, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[accountID], nil
}
