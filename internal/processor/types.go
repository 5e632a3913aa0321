package processor

import (
	"time"

	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
)

// MaxMinute is the latest minute accepted for a goal or card.
const MaxMinute = 130

// Decision resolves a score entered for a match that already exists.
type Decision string

const (
	// DecisionOverwrite replaces the existing match's score and drops its history.
	DecisionOverwrite Decision = "overwrite"
	// DecisionNew records a second match at the same kickoff.
	DecisionNew Decision = "new"
	// DecisionCancel discards the entered score.
	DecisionCancel Decision = "cancel"
)

// Processor records the result of the in-flight match of a chat, from score
// entry to teardown.
type Processor struct {
	drafts   draft.Store
	roster   roster.Store
	results  results.Store
	settings settings.Store
	auth     auth.Authorizer
	notifier notifier.Notifier
	metrics  metrics.Metrics
	pubsub   pubsub.PubSubClient
	now      func() time.Time
}

// step carries one operation through the state machine.
type step struct {
	st       *draft.State
	settings settings.Settings
	actor    auth.Actor
	admin    bool

	// finished holds the last state when the match cycle completed.
	finished *draft.State
	// remind requests a payment report once the state is stored.
	remind bool
	// team is the captain key whose rating prompt should be refreshed.
	team int64
	// enteredRating is set when the rating phase just opened.
	enteredRating bool
}
