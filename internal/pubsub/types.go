package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/google/uuid"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventTeamsCommitted EventType = "teams-committed"
	EventMatchFinished  EventType = "match-finished"
)

// TeamsCommitted is published once both teams of a chat are final.
type TeamsCommitted struct {
	EventID   string    `msgpack:"event_id"`
	ChannelID string    `msgpack:"channel_id"`
	ThreadID  string    `msgpack:"thread_id"`
	Team1     []int64   `msgpack:"team1"`
	Team2     []int64   `msgpack:"team2"`
	VariantID string    `msgpack:"variant_id,omitempty"`
	At        time.Time `msgpack:"at"`
}

// MatchFinished is published when a match cycle is torn down.
type MatchFinished struct {
	EventID      string    `msgpack:"event_id"`
	ChannelID    string    `msgpack:"channel_id"`
	ThreadID     string    `msgpack:"thread_id"`
	MatchID      int64     `msgpack:"match_id"`
	Score        string    `msgpack:"score"`
	SeasonNumber int       `msgpack:"season_number"`
	At           time.Time `msgpack:"at"`
}

// Key returns the chat the event belongs to.
func (e MatchFinished) Key() chat.Key {
	return chat.NewKey(e.ChannelID, e.ThreadID)
}

// NewTeamsCommitted builds a TeamsCommitted event with a fresh id.
func NewTeamsCommitted(key chat.Key, team1, team2 []int64, variantID string, at time.Time) TeamsCommitted {
	return TeamsCommitted{
		EventID:   uuid.New().String(),
		ChannelID: key.ChannelID,
		ThreadID:  key.ThreadID,
		Team1:     team1,
		Team2:     team2,
		VariantID: variantID,
		At:        at.UTC(),
	}
}

// NewMatchFinished builds a MatchFinished event with a fresh id.
func NewMatchFinished(key chat.Key, matchID int64, score string, season int, at time.Time) MatchFinished {
	return MatchFinished{
		EventID:      uuid.New().String(),
		ChannelID:    key.ChannelID,
		ThreadID:     key.ThreadID,
		MatchID:      matchID,
		Score:        score,
		SeasonNumber: season,
		At:           at.UTC(),
	}
}

// CommittedTeams lists the player ids of both teams of st, captains first.
func CommittedTeams(st *draft.State) ([]int64, []int64) {
	ids := func(captain int64) []int64 {
		var out []int64
		for _, m := range st.Teams[captain] {
			out = append(out, m.PlayerID)
		}
		return out
	}
	if len(st.Captains) != 2 {
		return nil, nil
	}
	return ids(st.Captains[0]), ids(st.Captains[1])
}
