package results

import (
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/jmoiron/sqlx"
)

// EventType classifies a MatchEvent.
type EventType string

const (
	EventGoal       EventType = "goal"
	EventAutogoal   EventType = "autogoal"
	EventYellowCard EventType = "yellow_card"
	EventRedCard    EventType = "red_card"
)

// DuplicateWindow is how far apart two kickoffs may be and still count as the same match.
const DuplicateWindow = 5 * time.Minute

// Match is a durable match record.
type Match struct {
	ID           int64
	Key          chat.Key
	PlayedAt     time.Time
	SkillLabel   string
	Score        string
	Championship *string
	CreatedAt    time.Time
}

// NewMatch holds the fields needed to create a match.
type NewMatch struct {
	Key          chat.Key
	PlayedAt     time.Time
	SkillLabel   string
	Score        string
	Championship *string
}

// History is one player's aggregate line for one match.
type History struct {
	ID           int64  `db:"id"`
	MatchID      int64  `db:"match_id"`
	PlayerID     int64  `db:"player_id"`
	Team         string `db:"team"`
	Points       int    `db:"points"`
	Goals        int    `db:"goals"`
	Autogoals    int    `db:"autogoals"`
	Assists      int    `db:"assists"`
	YellowCards  int    `db:"yellow_cards"`
	RedCards     int    `db:"red_cards"`
	BestDefender bool   `db:"best_defender"`
	IsCaptain    bool   `db:"is_captain"`
}

// Delta is an incremental change to a History row. Counters add up, Points
// replaces the stored value when set, flags only ever turn on and a non-empty
// Team overwrites.
type Delta struct {
	Team         string
	Points       *int
	Goals        int
	Autogoals    int
	Assists      int
	YellowCards  int
	RedCards     int
	BestDefender bool
	IsCaptain    bool
}

// Event is a single goal or card.
type Event struct {
	ID             int64     `db:"id"`
	HistoryID      int64     `db:"history_id"`
	PlayerID       int64     `db:"player_id"`
	Type           EventType `db:"event_type"`
	Minute         *int      `db:"minute"`
	AssistPlayerID *int64    `db:"assist_player_id"`
	IsPenalty      bool      `db:"is_penalty"`
}

type matchRow struct {
	ID           int64   `db:"id"`
	ChannelID    string  `db:"channel_id"`
	ThreadID     string  `db:"thread_id"`
	PlayedAt     *int64  `db:"played_at"`
	SkillLabel   string  `db:"skill_label"`
	Score        string  `db:"score"`
	Championship *string `db:"championship"`
	CreatedAt    int64   `db:"created_at"`
}

func (r matchRow) toMatch() Match {
	m := Match{
		ID:           r.ID,
		Key:          chat.NewKey(r.ChannelID, r.ThreadID),
		SkillLabel:   r.SkillLabel,
		Score:        r.Score,
		Championship: r.Championship,
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.PlayedAt != nil {
		m.PlayedAt = time.Unix(*r.PlayedAt, 0).UTC()
	}
	return m
}

// store handles match result database operations.
type store struct {
	db  *sqlx.DB
	mu  sync.RWMutex
	now func() time.Time
}
