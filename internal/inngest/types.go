package inngest

import (
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/inngest/inngestgo"
)

// EventMatchFinished is the inngest event that starts the summary workflow.
const EventMatchFinished = "football/match.finished"

type client struct {
	inngestClient inngestgo.Client
	results       results.Store
	roster        roster.Store
	notifier      notifier.Notifier
}

// MatchData is the payload of EventMatchFinished.
type MatchData struct {
	EventID      string    `json:"eventId"`
	ChannelID    string    `json:"channelId"`
	ThreadID     string    `json:"threadId,omitempty"`
	MatchID      int64     `json:"matchId"`
	Score        string    `json:"score"`
	SeasonNumber int       `json:"seasonNumber"`
	At           time.Time `json:"at"`
}

// Key returns the chat the summary is posted to.
func (d MatchData) Key() chat.Key {
	return chat.NewKey(d.ChannelID, d.ThreadID)
}
