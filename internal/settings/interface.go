package settings

import (
	"context"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Store reads and writes match settings. Get always returns a complete
// Settings value with defaults filled in.
type Store interface {
	Get(ctx context.Context, key chat.Key) (Settings, error)
	// Set upserts a single setting by name, e.g. Set(ctx, key, "player_count", "14").
	Set(ctx context.Context, key chat.Key, name, value string) error
}
