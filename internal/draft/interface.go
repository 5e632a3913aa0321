package draft

import (
	"context"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// UpdateFunc receives a private copy of the current state, or nil when no
// session exists, and returns the state to store. Returning nil clears the
// session; returning an error leaves storage untouched.
type UpdateFunc func(cur *State) (*State, error)

// Store persists the one in-flight session per chat.
type Store interface {
	// Get returns nil when the chat has no session.
	Get(ctx context.Context, key chat.Key) (*State, error)
	Set(ctx context.Context, key chat.Key, st *State) error
	Clear(ctx context.Context, key chat.Key) error
	// Update runs fn under the chat's lock and writes its result only if the
	// stored revision did not move meanwhile.
	Update(ctx context.Context, key chat.Key, fn UpdateFunc) (*State, error)
}
