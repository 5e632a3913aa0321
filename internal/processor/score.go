package processor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/charmbracelet/log"
)

var scorePattern = regexp.MustCompile(`^(\d+)\s*[:\- ]\s*(\d+)$`)

// ParseScore reads "G1:G2", "G1-G2" or "G1 G2".
func ParseScore(text string) (int, int, error) {
	m := scorePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, apperrors.Invalidf("score %q is not in the form 3:2", text)
	}
	g1, err1 := strconv.Atoi(m[1])
	g2, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, apperrors.Invalidf("score %q is out of range", text)
	}
	return g1, g2, nil
}

// EnterScore records the final score of the committed teams. A match of the
// same chat and championship within results.DuplicateWindow of the computed
// kickoff is not overwritten silently; the admin is asked to resolve it.
func (p *Processor) EnterScore(ctx context.Context, key chat.Key, admin auth.Actor, text string) (*draft.State, error) {
	g1, g2, err := ParseScore(text)
	if err != nil {
		p.metrics.IncRejections("enter_score")
		return nil, err
	}
	return p.run(ctx, key, "enter_score", admin, true, func(ctx context.Context, x *step) error {
		st := x.st
		switch st.Phase {
		case draft.PhaseReady:
		case draft.PhaseDrafting, draft.PhaseVoting:
			return apperrors.Stalef("teams are not final yet")
		default:
			return apperrors.Stalef("the score was already entered")
		}

		pending := draft.PendingScore{
			Score:    strconv.Itoa(g1) + ":" + strconv.Itoa(g2),
			Goals1:   g1,
			Goals2:   g2,
			PlayedAt: x.settings.LastKickoff(p.now()),
		}
		existing, err := p.results.FindMatchNear(ctx, key, pending.PlayedAt, x.settings.Championship)
		if err != nil {
			return err
		}
		if existing != nil {
			pending.ExistingMatchID = existing.ID
			st.Pending = &pending
			st.Phase = draft.PhaseDuplicate
			log.Info("Score matches an existing match", "chat", key, "match", existing.ID, "score", pending.Score)
			return nil
		}
		return p.record(ctx, key, x, pending, 0)
	})
}

// ResolveDuplicate applies the admin's answer to a duplicate-match prompt.
func (p *Processor) ResolveDuplicate(ctx context.Context, key chat.Key, admin auth.Actor, decision Decision) (*draft.State, error) {
	return p.run(ctx, key, "resolve_duplicate", admin, true, func(ctx context.Context, x *step) error {
		st := x.st
		if st.Phase != draft.PhaseDuplicate || st.Pending == nil {
			return apperrors.Stalef("no duplicate match to resolve")
		}
		pending := *st.Pending
		switch decision {
		case DecisionCancel:
			st.Pending = nil
			st.Phase = draft.PhaseReady
			log.Info("Score entry cancelled", "chat", key, "score", pending.Score)
			return nil
		case DecisionOverwrite:
			return p.record(ctx, key, x, pending, pending.ExistingMatchID)
		case DecisionNew:
			return p.record(ctx, key, x, pending, 0)
		default:
			return apperrors.Invalidf("unknown decision %q", decision)
		}
	})
}

// record stores the match, or overwrites overwriteID, and opens goal attribution.
func (p *Processor) record(ctx context.Context, key chat.Key, x *step, pending draft.PendingScore, overwriteID int64) error {
	st, s := x.st, x.settings
	matchID := overwriteID
	if overwriteID != 0 {
		if err := p.results.OverwriteMatch(ctx, overwriteID, pending.Score, s.SkillLabel, s.Championship); err != nil {
			return err
		}
	} else {
		id, err := p.results.CreateMatch(ctx, results.NewMatch{
			Key:          key,
			PlayedAt:     pending.PlayedAt,
			SkillLabel:   s.SkillLabel,
			Score:        pending.Score,
			Championship: s.Championship,
		})
		if err != nil {
			return err
		}
		matchID = id
	}

	for _, captain := range st.Captains {
		team := strconv.Itoa(st.TeamIndex(captain))
		for _, m := range st.Teams[captain] {
			d := results.Delta{Team: team, IsCaptain: m.PlayerID == captain}
			if _, err := p.results.UpsertHistory(ctx, matchID, m.PlayerID, d); err != nil {
				return err
			}
		}
	}

	st.MatchID = matchID
	st.Pending = nil
	st.LastMinute = 0
	st.Scoring = &draft.Scoring{
		Goals1:  pending.Goals1,
		Goals2:  pending.Goals2,
		Total:   pending.Goals1 + pending.Goals2,
		Current: 1,
		Step:    draft.StepScorer,
	}
	st.Phase = draft.PhaseScoring
	x.remind = s.RemindAfterGame && s.CostIsSet()
	p.metrics.IncMatchesRecorded()
	log.Info("Match recorded", "chat", key, "match", matchID, "score", pending.Score, "overwrite", overwriteID != 0)
	return nil
}

func scoring(st *draft.State, want draft.ScoringStep) (*draft.Scoring, error) {
	if st.Phase != draft.PhaseScoring || st.Scoring == nil {
		return nil, apperrors.Stalef("goals are not being attributed")
	}
	if st.Scoring.Step != want {
		return nil, apperrors.Stalef("expected a %s, not a %s", st.Scoring.Step, want)
	}
	return st.Scoring, nil
}

// ToggleAutogoal flips whether the next scorer pick is an own goal.
func (p *Processor) ToggleAutogoal(ctx context.Context, key chat.Key, admin auth.Actor) (*draft.State, error) {
	return p.run(ctx, key, "toggle_autogoal", admin, true, func(ctx context.Context, x *step) error {
		sc, err := scoring(x.st, draft.StepScorer)
		if err != nil {
			return err
		}
		sc.Autogoal = !sc.Autogoal
		return nil
	})
}

// PickScorer credits the current goal to playerID, or an own goal when toggled.
func (p *Processor) PickScorer(ctx context.Context, key chat.Key, admin auth.Actor, playerID int64) (*draft.State, error) {
	return p.run(ctx, key, "pick_scorer", admin, true, func(ctx context.Context, x *step) error {
		st := x.st
		sc, err := scoring(st, draft.StepScorer)
		if err != nil {
			return err
		}
		if _, ok := st.Member(playerID); !ok {
			return apperrors.Invalidf("player %d did not play", playerID)
		}

		d := results.Delta{Goals: 1}
		if sc.Autogoal {
			d = results.Delta{Autogoals: 1}
		}
		historyID, err := p.results.UpsertHistory(ctx, st.MatchID, playerID, d)
		if err != nil {
			return err
		}
		sc.ScorerID = playerID
		sc.HistoryID = historyID
		sc.EventAutogoal = sc.Autogoal
		sc.Autogoal = false

		if x.settings.TrackGoalTimes {
			sc.Step = draft.StepMinute
			return nil
		}
		return p.logGoal(ctx, x, nil)
	})
}

// EnterMinute attaches a minute to the current goal. Minutes below the
// previous one are accepted and lower the floor of the next prompt.
func (p *Processor) EnterMinute(ctx context.Context, key chat.Key, admin auth.Actor, minute int) (*draft.State, error) {
	return p.run(ctx, key, "enter_minute", admin, true, func(ctx context.Context, x *step) error {
		if _, err := scoring(x.st, draft.StepMinute); err != nil {
			return err
		}
		if err := checkMinute(minute); err != nil {
			return err
		}
		x.st.LastMinute = minute
		return p.logGoal(ctx, x, &minute)
	})
}

func checkMinute(minute int) error {
	if minute < 0 || minute > MaxMinute {
		return apperrors.Invalidf("minute must be between 0 and %d, got %d", MaxMinute, minute)
	}
	return nil
}

// logGoal creates the goal event and moves on to the assist or the next goal.
func (p *Processor) logGoal(ctx context.Context, x *step, minute *int) error {
	sc := x.st.Scoring
	typ := results.EventGoal
	if sc.EventAutogoal {
		typ = results.EventAutogoal
	}
	eventID, err := p.results.AppendEvent(ctx, sc.HistoryID, typ, minute)
	if err != nil {
		return err
	}
	sc.EventID = eventID
	if x.settings.TrackAssists && !sc.EventAutogoal {
		sc.Step = draft.StepAssist
		return nil
	}
	nextGoal(sc)
	return nil
}

func nextGoal(sc *draft.Scoring) {
	sc.Current++
	sc.Step = draft.StepScorer
	sc.ScorerID = 0
	sc.HistoryID = 0
	sc.EventID = 0
	sc.EventAutogoal = false
}

// PickAssist credits an assist for the current goal.
func (p *Processor) PickAssist(ctx context.Context, key chat.Key, admin auth.Actor, playerID int64) (*draft.State, error) {
	return p.run(ctx, key, "pick_assist", admin, true, func(ctx context.Context, x *step) error {
		sc, err := scoring(x.st, draft.StepAssist)
		if err != nil {
			return err
		}
		if playerID == sc.ScorerID {
			return apperrors.Invalidf("the scorer cannot assist their own goal")
		}
		if _, ok := x.st.Member(playerID); !ok {
			return apperrors.Invalidf("player %d did not play", playerID)
		}
		if _, err := p.results.UpsertHistory(ctx, x.st.MatchID, playerID, results.Delta{Assists: 1}); err != nil {
			return err
		}
		if err := p.results.AnnotateEvent(ctx, sc.EventID, &playerID, false); err != nil {
			return err
		}
		nextGoal(sc)
		return nil
	})
}

// NoAssist moves on without an assist.
func (p *Processor) NoAssist(ctx context.Context, key chat.Key, admin auth.Actor) (*draft.State, error) {
	return p.run(ctx, key, "no_assist", admin, true, func(ctx context.Context, x *step) error {
		sc, err := scoring(x.st, draft.StepAssist)
		if err != nil {
			return err
		}
		nextGoal(sc)
		return nil
	})
}

// MarkPenalty flags the current goal as a penalty, which has no assist.
func (p *Processor) MarkPenalty(ctx context.Context, key chat.Key, admin auth.Actor) (*draft.State, error) {
	return p.run(ctx, key, "mark_penalty", admin, true, func(ctx context.Context, x *step) error {
		sc, err := scoring(x.st, draft.StepAssist)
		if err != nil {
			return err
		}
		if err := p.results.AnnotateEvent(ctx, sc.EventID, nil, true); err != nil {
			return err
		}
		nextGoal(sc)
		return nil
	})
}
