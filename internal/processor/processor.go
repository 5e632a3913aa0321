// Package processor is the match record state machine: score entry,
// duplicate resolution, goal attribution, cards, ratings and the payment gate
// that tears the match cycle down.
package processor

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
	"github.com/Valikazar/football-magager-bot/internal/payment"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/rating"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/charmbracelet/log"
)

// New creates a new Processor.
func New(d draft.Store, r roster.Store, res results.Store, s settings.Store, a auth.Authorizer,
	n notifier.Notifier, m metrics.Metrics, ps pubsub.PubSubClient) *Processor {
	return &Processor{
		drafts:   d,
		roster:   r,
		results:  res,
		settings: s,
		auth:     a,
		notifier: n,
		metrics:  m,
		pubsub:   ps,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for kickoff computation.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

func (p *Processor) isAdmin(ctx context.Context, key chat.Key, actor auth.Actor) (bool, error) {
	ok, err := p.auth.IsPrivileged(ctx, actor.AccountID, key)
	if err != nil {
		return false, fmt.Errorf("failed to check privileges of %s: %w", actor.AccountID, err)
	}
	return ok, nil
}

// run applies fn to the stored state of key under the chat's lock, advances
// through every stage that has nothing to do and emits the next prompt.
// It returns nil when the operation completed the match cycle.
func (p *Processor) run(ctx context.Context, key chat.Key, op string, actor auth.Actor, adminOnly bool,
	fn func(ctx context.Context, x *step) error) (*draft.State, error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveOperationDuration(op, time.Since(start).Seconds())
	}()

	st, x, err := p.apply(ctx, key, actor, adminOnly, fn)
	if err != nil {
		if apperrors.IsRejection(err) {
			p.metrics.IncRejections(op)
			log.Debug("Operation rejected", "op", op, "chat", key, "actor", actor.AccountID, "error", err)
		}
		return nil, err
	}

	if x.finished != nil {
		return nil, p.teardown(ctx, key, x.finished, x.settings)
	}
	p.prompt(ctx, key, st, x)
	return st, nil
}

func (p *Processor) apply(ctx context.Context, key chat.Key, actor auth.Actor, adminOnly bool,
	fn func(ctx context.Context, x *step) error) (*draft.State, *step, error) {
	admin, err := p.isAdmin(ctx, key, actor)
	if err != nil {
		return nil, nil, err
	}
	if adminOnly && !admin {
		return nil, nil, fmt.Errorf("%s is not an admin of %s: %w", actor.AccountID, key, apperrors.ErrUnauthorized)
	}
	s, err := p.settings.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	x := &step{settings: s, actor: actor, admin: admin}
	st, err := p.drafts.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
		if cur == nil {
			return nil, apperrors.ErrNoTeamData
		}
		x.st = cur
		if err := fn(ctx, x); err != nil {
			return nil, err
		}
		if err := p.advance(ctx, key, x); err != nil {
			return nil, err
		}
		if x.finished != nil {
			return nil, nil
		}
		return x.st, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return st, x, nil
}

// advance moves the state past every stage that is disabled or complete.
func (p *Processor) advance(ctx context.Context, key chat.Key, x *step) error {
	st, s := x.st, x.settings
	rules := rating.RulesFrom(s)
	for {
		current := st.Phase
		log.Debug("Evaluating match state", "chat", key, "phase", current)

		switch current {
		case draft.PhaseScoring:
			sc := st.Scoring
			if sc == nil || !s.TrackGoals || sc.Current > sc.Total {
				st.Scoring = nil
				st.Phase = draft.PhaseCards
			}

		case draft.PhaseCards:
			if !s.TrackCards {
				st.Cards = nil
				st.Phase = draft.PhaseRating
			} else if st.Cards == nil {
				st.Cards = &draft.Cards{Step: draft.CardPickPlayer}
			}

		case draft.PhaseRating:
			if !rules.Enabled() || len(st.RatedTeams) >= len(st.Captains) {
				st.Phase = draft.PhaseAwaitingPayment
				break
			}
			if st.Ratings == nil {
				st.Ratings = make(map[int64]*draft.RatingProgress)
				x.enteredRating = true
			}

		case draft.PhaseAwaitingPayment:
			st.RatingsDone = true
			paid, err := p.paid(ctx, key, s)
			if err != nil {
				return err
			}
			if paid {
				x.finished = st
			}
			return nil

		default:
			return nil
		}

		if st.Phase == current {
			return nil
		}
		log.Info("Match advanced", "chat", key, "from", current, "to", st.Phase, "match", st.MatchID)
	}
}

// paid reports whether every active registrant reached the payment bar.
// The bar does not depend on the cost; a zero cost only silences the report.
func (p *Processor) paid(ctx context.Context, key chat.Key, s settings.Settings) (bool, error) {
	regs, err := p.roster.ListRegistrations(ctx, key)
	if err != nil {
		return false, err
	}
	return payment.IsComplete(regs, s.RequirePaymentConfirmation), nil
}

// prompt asks for whatever the stored state waits on.
func (p *Processor) prompt(ctx context.Context, key chat.Key, st *draft.State, x *step) {
	if x.remind {
		p.report(ctx, key, "payment", p.sendPaymentReport(ctx, key, st.MatchID, x.settings))
	}

	switch st.Phase {
	case draft.PhaseDuplicate:
		existing, err := p.results.GetMatch(ctx, st.Pending.ExistingMatchID)
		if err != nil {
			p.report(ctx, key, "duplicate", err)
			return
		}
		p.report(ctx, key, "duplicate", p.notifier.SendDuplicatePrompt(ctx, key, existing, *st.Pending))

	case draft.PhaseScoring:
		p.report(ctx, key, "scoring", p.notifier.SendScoringPrompt(ctx, key, scoringPrompt(st)))

	case draft.PhaseCards:
		p.report(ctx, key, "cards", p.notifier.SendCardPrompt(ctx, key, cardPrompt(st)))

	case draft.PhaseRating:
		for _, captain := range st.Captains {
			if x.enteredRating || captain == x.team {
				p.report(ctx, key, "rating", p.notifier.SendRatingPrompt(ctx, key, ratingPrompt(st, captain, x.settings)))
			}
		}

	case draft.PhaseAwaitingPayment:
		if !x.remind {
			p.report(ctx, key, "payment", p.sendPaymentReport(ctx, key, st.MatchID, x.settings))
		}
	}
}

// teardown closes a match cycle whose state was already cleared.
func (p *Processor) teardown(ctx context.Context, key chat.Key, last *draft.State, s settings.Settings) error {
	if err := p.roster.ClearRegistrations(ctx, key); err != nil {
		return err
	}
	if err := p.settings.Set(ctx, key, "is_active", "0"); err != nil {
		return err
	}
	p.metrics.IncMatchesFinished()

	match, err := p.results.GetMatch(ctx, last.MatchID)
	if err != nil {
		log.Error("Failed to load finished match", "chat", key, "match", last.MatchID, "error", err)
		return nil
	}
	season, err := p.results.SeasonNumber(ctx, match.ID)
	if err != nil {
		log.Error("Failed to compute season number", "chat", key, "match", match.ID, "error", err)
	}
	summary := notifier.MatchSummary{MatchID: match.ID, Score: match.Score, SeasonNumber: season}
	if match.Championship != nil {
		summary.Championship = *match.Championship
	}
	log.Info("Match cycle finished", "chat", key, "match", match.ID, "score", match.Score, "season", season)
	p.report(ctx, key, "finished", p.notifier.SendMatchFinished(ctx, key, summary))

	ev := pubsub.NewMatchFinished(key, match.ID, match.Score, season, p.now())
	if err := p.pubsub.SendMessage(ctx, pubsub.EventMatchFinished, ev); err != nil {
		log.Error("Failed to publish match-finished", "chat", key, "match", match.ID, "error", err)
	} else {
		p.metrics.IncEventsPublished(string(pubsub.EventMatchFinished))
	}
	return nil
}

func (p *Processor) report(_ context.Context, key chat.Key, what string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Failed to send prompt", "chat", key, "prompt", what, "error", err)
	}
}

func candidates(st *draft.State, exclude int64) []draft.Member {
	var out []draft.Member
	for _, m := range st.Members() {
		if m.PlayerID != exclude {
			out = append(out, m)
		}
	}
	return out
}

func scoringPrompt(st *draft.State) notifier.ScoringPrompt {
	sc := st.Scoring
	pr := notifier.ScoringPrompt{
		Step:        sc.Step,
		Goal:        sc.Current,
		Total:       sc.Total,
		Autogoal:    sc.Autogoal,
		MinuteFloor: st.LastMinute,
	}
	if sc.Step == draft.StepScorer {
		pr.Candidates = st.Members()
		return pr
	}
	if scorer, ok := st.Member(sc.ScorerID); ok {
		pr.Scorer = &scorer
	}
	if sc.Step == draft.StepAssist {
		pr.Candidates = candidates(st, sc.ScorerID)
	}
	return pr
}

func cardPrompt(st *draft.State) notifier.CardPrompt {
	c := st.Cards
	pr := notifier.CardPrompt{Step: c.Step, MinuteFloor: st.LastMinute}
	if c.Step == draft.CardPickPlayer {
		pr.Candidates = st.Members()
		return pr
	}
	if m, ok := st.Member(c.PlayerID); ok {
		pr.Player = &m
	}
	return pr
}

func ratingPrompt(st *draft.State, captain int64, s settings.Settings) notifier.RatingPrompt {
	team := st.Teams[captain]
	pr := notifier.RatingPrompt{
		Team: st.TeamIndex(captain),
		Mode: string(s.RatingMode),
	}
	if len(team) > 0 {
		pr.Captain = team[0]
	}
	progress := st.Ratings[captain]
	if progress == nil {
		return pr
	}
	pr.Step = progress.Step
	pr.NextPoints = progress.NextPoints
	switch progress.Step {
	case draft.RatingRank:
		for _, m := range team {
			for _, id := range progress.Remaining {
				if m.PlayerID == id {
					pr.Candidates = append(pr.Candidates, m)
				}
			}
		}
	case draft.RatingDefender:
		pr.Candidates = team
	}
	return pr
}
