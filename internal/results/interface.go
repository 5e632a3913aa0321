package results

import (
	"context"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Store is the durable match store.
type Store interface {
	CreateMatch(ctx context.Context, m NewMatch) (int64, error)
	// FindMatchNear returns the match of the chat played within DuplicateWindow
	// of at with the same championship label, or nil. A nil label matches nil.
	FindMatchNear(ctx context.Context, key chat.Key, at time.Time, championship *string) (*Match, error)
	// OverwriteMatch drops the match's history and events and replaces its score and labels.
	OverwriteMatch(ctx context.Context, id int64, score, skillLabel string, championship *string) error
	GetMatch(ctx context.Context, id int64) (Match, error)
	// SeasonNumber is the ordinal of the match among the chat's matches with the same championship label.
	SeasonNumber(ctx context.Context, id int64) (int, error)

	UpsertHistory(ctx context.Context, matchID, playerID int64, d Delta) (int64, error)
	ListHistory(ctx context.Context, matchID int64) ([]History, error)
	// PointsHistory returns the rating points each player earned in previous
	// matches of the chat, captain placeholder rows excluded.
	PointsHistory(ctx context.Context, key chat.Key, playerIDs []int64) (map[int64][]float64, error)

	AppendEvent(ctx context.Context, historyID int64, typ EventType, minute *int) (int64, error)
	// AnnotateEvent attaches an assist or a penalty flag to a freshly created goal.
	AnnotateEvent(ctx context.Context, eventID int64, assistPlayerID *int64, penalty bool) error
	ListEvents(ctx context.Context, matchID int64) ([]Event, error)
}
