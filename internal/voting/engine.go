// Package voting collects one re-castable vote per registered player across
// the offered team variants and commits the winner.
package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/charmbracelet/log"
	"github.com/elliotchance/pie/v2"
)

// Outcome is the result of a vote or a forced finish.
type Outcome struct {
	Tally notifier.Tally
	// Winner is set once a variant was committed.
	Winner *draft.Variant
}

// Engine runs voting sessions stored in the draft store.
type Engine struct {
	drafts   draft.Store
	roster   roster.Store
	auth     auth.Authorizer
	notifier notifier.Notifier
	metrics  metrics.Metrics
	events   pubsub.PubSubClient
	now      func() time.Time
}

// NewEngine creates a voting Engine.
func NewEngine(d draft.Store, r roster.Store, a auth.Authorizer, n notifier.Notifier, m metrics.Metrics) *Engine {
	return &Engine{
		drafts:   d,
		roster:   r,
		auth:     a,
		notifier: n,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to timestamp votes.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithEvents publishes a teams-committed event when a vote commits a variant.
func (e *Engine) WithEvents(ps pubsub.PubSubClient) *Engine {
	e.events = ps
	return e
}

// Needed is the majority threshold for eligible voters.
func Needed(eligible int) int {
	return eligible/2 + 1
}

// Count returns the current number of votes per variant.
func Count(st *draft.State) map[string]int {
	counts := make(map[string]int, len(st.Variants))
	for _, v := range st.Variants {
		counts[v.ID] = 0
	}
	for _, vote := range st.Votes {
		counts[vote.VariantID]++
	}
	return counts
}

func (e *Engine) eligible(ctx context.Context, key chat.Key) ([]roster.Registration, error) {
	regs, err := e.roster.ListRegistrations(ctx, key)
	if err != nil {
		return nil, err
	}
	return pie.Filter(regs, func(r roster.Registration) bool { return r.Status == roster.StatusActive }), nil
}

// Cast records voter's choice, replacing any earlier vote. A variant reaching
// the majority is committed immediately.
func (e *Engine) Cast(ctx context.Context, key chat.Key, voter auth.Actor, variantID string) (Outcome, error) {
	regs, err := e.eligible(ctx, key)
	if err != nil {
		return Outcome{}, err
	}
	if pie.FindFirstUsing(regs, func(r roster.Registration) bool {
		return r.Player.AccountID != "" && r.Player.AccountID == voter.AccountID
	}) < 0 {
		return Outcome{}, fmt.Errorf("%s is not registered: %w", voter.AccountID, apperrors.ErrUnauthorized)
	}

	var out Outcome
	st, err := e.drafts.Update(ctx, key, func(st *draft.State) (*draft.State, error) {
		if st == nil {
			return nil, apperrors.ErrNoTeamData
		}
		if st.Phase != draft.PhaseVoting {
			return nil, apperrors.Stalef("voting is closed")
		}
		if _, ok := st.Variant(variantID); !ok {
			return nil, apperrors.Stalef("unknown variant %s", variantID)
		}
		if st.Votes == nil {
			st.Votes = make(map[string]draft.Vote)
		}
		if prev, ok := st.Votes[voter.AccountID]; !ok || prev.VariantID != variantID {
			st.Votes[voter.AccountID] = draft.Vote{VariantID: variantID, At: e.now()}
		}

		counts := Count(st)
		out.Tally = notifier.Tally{Counts: counts, Eligible: len(regs), Needed: Needed(len(regs))}
		if counts[variantID] >= out.Tally.Needed {
			winner, _ := st.Variant(variantID)
			st.CommitTeams(winner.Team1, winner.Team2)
			out.Winner = &winner
		}
		return st, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	e.metrics.IncVotes()
	log.Info("Vote cast", "chat", key, "voter", voter.AccountID, "variant", variantID, "committed", out.Winner != nil)
	e.announce(ctx, key, st, out)
	return out, nil
}

// ForceFinish commits the variant with most votes. Ties go to the variant
// that reached its current count first.
func (e *Engine) ForceFinish(ctx context.Context, key chat.Key, admin auth.Actor) (Outcome, error) {
	if err := auth.Require(ctx, e.auth, admin, key); err != nil {
		return Outcome{}, err
	}
	regs, err := e.eligible(ctx, key)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	st, err := e.drafts.Update(ctx, key, func(st *draft.State) (*draft.State, error) {
		if st == nil {
			return nil, apperrors.ErrNoTeamData
		}
		if st.Phase != draft.PhaseVoting {
			return nil, apperrors.Stalef("voting is closed")
		}
		winner, ok := Leader(st)
		if !ok {
			return nil, apperrors.Stalef("no votes cast")
		}
		out.Tally = notifier.Tally{Counts: Count(st), Eligible: len(regs), Needed: Needed(len(regs))}
		st.CommitTeams(winner.Team1, winner.Team2)
		out.Winner = &winner
		return st, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	log.Info("Voting force-finished", "chat", key, "admin", admin.AccountID, "variant", out.Winner.ID)
	e.announce(ctx, key, st, out)
	return out, nil
}

// Leader picks the variant with the highest count, breaking ties by the
// earliest time the count was reached. Variants without votes never lead.
func Leader(st *draft.State) (draft.Variant, bool) {
	counts := Count(st)
	reached := make(map[string]time.Time, len(st.Variants))
	for _, vote := range st.Votes {
		if vote.At.After(reached[vote.VariantID]) {
			reached[vote.VariantID] = vote.At
		}
	}

	var best draft.Variant
	found := false
	for _, v := range st.Variants {
		n := counts[v.ID]
		if n == 0 {
			continue
		}
		if !found || n > counts[best.ID] || (n == counts[best.ID] && reached[v.ID].Before(reached[best.ID])) {
			best, found = v, true
		}
	}
	return best, found
}

// Tally reports the running vote counts.
func (e *Engine) Tally(ctx context.Context, key chat.Key) (notifier.Tally, error) {
	st, err := e.drafts.Get(ctx, key)
	if err != nil {
		return notifier.Tally{}, err
	}
	if st == nil {
		return notifier.Tally{}, apperrors.ErrNoTeamData
	}
	regs, err := e.eligible(ctx, key)
	if err != nil {
		return notifier.Tally{}, err
	}
	return notifier.Tally{Counts: Count(st), Eligible: len(regs), Needed: Needed(len(regs))}, nil
}

func (e *Engine) announce(ctx context.Context, key chat.Key, st *draft.State, out Outcome) {
	var err error
	if out.Winner != nil {
		e.publish(ctx, key, st, out.Winner.ID)
		err = e.notifier.SendTeamsCommitted(ctx, key, st, out.Winner.ID)
	} else {
		err = e.notifier.SendVoteTally(ctx, key, out.Tally)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Failed to announce vote", "chat", key, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, key chat.Key, st *draft.State, variantID string) {
	if e.events == nil {
		return
	}
	team1, team2 := pubsub.CommittedTeams(st)
	ev := pubsub.NewTeamsCommitted(key, team1, team2, variantID, e.now())
	if err := e.events.SendMessage(ctx, pubsub.EventTeamsCommitted, ev); err != nil {
		log.Error("Failed to publish teams-committed", "chat", key, "error", err)
		return
	}
	e.metrics.IncEventsPublished(string(pubsub.EventTeamsCommitted))
}
