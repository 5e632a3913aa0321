package roster

import (
	"context"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Store is the roster repository: players, per-chat profiles and registrations.
// It holds no admission policy.
type Store interface {
	// EnsurePlayer returns the player linked to accountID, creating it on first contact.
	// An empty accountID always creates a new legionnaire.
	EnsurePlayer(ctx context.Context, accountID, name string) (Player, error)
	GetPlayer(ctx context.Context, playerID int64) (Player, error)
	FindPlayerByAccount(ctx context.Context, accountID string) (Player, error)

	GetProfile(ctx context.Context, playerID int64, key chat.Key) (Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
	ListCorePlayers(ctx context.Context, key chat.Key) ([]Profile, error)

	// ListRegistrations returns every registration of the chat ordered by
	// last status change, oldest first.
	ListRegistrations(ctx context.Context, key chat.Key) ([]Registration, error)
	GetRegistration(ctx context.Context, playerID int64, key chat.Key) (Registration, error)
	UpsertRegistration(ctx context.Context, playerID int64, key chat.Key, position Position, status Status) error
	SetRegistrationStatus(ctx context.Context, playerID int64, key chat.Key, status Status) error
	SetPaymentState(ctx context.Context, playerID int64, key chat.Key, state PaymentState) error
	DeleteRegistration(ctx context.Context, playerID int64, key chat.Key) error
	ClearRegistrations(ctx context.Context, key chat.Key) error
}
