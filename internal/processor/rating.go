package processor

import (
	"context"
	"fmt"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/rating"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/charmbracelet/log"
)

// captainOf checks that actor may rate the team keyed by teamKey: its
// captain, or an admin standing in for a captain without an account.
func captainOf(x *step, teamKey int64) ([]draft.Member, error) {
	st := x.st
	if st.Phase != draft.PhaseRating {
		return nil, apperrors.Stalef("ratings are not being collected")
	}
	team, ok := st.Teams[teamKey]
	if !ok || st.TeamIndex(teamKey) == 0 || len(team) == 0 {
		return nil, apperrors.Invalidf("unknown team %d", teamKey)
	}
	captain := team[0]
	if !x.admin && (captain.AccountID == "" || captain.AccountID != x.actor.AccountID) {
		return nil, fmt.Errorf("%s is not the captain of team %d: %w", x.actor.AccountID, st.TeamIndex(teamKey), apperrors.ErrNotYourTurn)
	}
	return team, nil
}

func progressOf(x *step, teamKey int64) (*draft.RatingProgress, []draft.Member, error) {
	team, err := captainOf(x, teamKey)
	if err != nil {
		return nil, nil, err
	}
	progress := x.st.Ratings[teamKey]
	if progress == nil {
		return nil, nil, apperrors.Stalef("rating of team %d has not started", x.st.TeamIndex(teamKey))
	}
	if progress.Step == draft.RatingDone {
		return nil, nil, apperrors.Stalef("team %d is already rated", x.st.TeamIndex(teamKey))
	}
	return progress, team, nil
}

// StartTeamRating opens the rating session of a team and records the
// captain's zero-point line. Starting an open session again only re-prompts.
func (p *Processor) StartTeamRating(ctx context.Context, key chat.Key, actor auth.Actor, teamKey int64) (*draft.State, error) {
	return p.run(ctx, key, "start_team_rating", actor, false, func(ctx context.Context, x *step) error {
		team, err := captainOf(x, teamKey)
		if err != nil {
			return err
		}
		x.team = teamKey
		if progress := x.st.Ratings[teamKey]; progress != nil {
			if progress.Step == draft.RatingDone {
				return apperrors.Stalef("team %d is already rated", x.st.TeamIndex(teamKey))
			}
			return nil
		}

		zero := 0
		if _, err := p.results.UpsertHistory(ctx, x.st.MatchID, teamKey, results.Delta{Points: &zero, IsCaptain: true}); err != nil {
			return err
		}
		if x.st.Ratings == nil {
			x.st.Ratings = make(map[int64]*draft.RatingProgress)
		}
		x.st.Ratings[teamKey] = rating.RulesFrom(x.settings).Start(teamKey, team)
		log.Info("Team rating started", "chat", key, "team", x.st.TeamIndex(teamKey), "mode", x.settings.RatingMode)
		return p.finishTeam(ctx, key, x, teamKey)
	})
}

// RatePick gives playerID the team's next point value.
func (p *Processor) RatePick(ctx context.Context, key chat.Key, actor auth.Actor, teamKey, playerID int64) (*draft.State, error) {
	return p.run(ctx, key, "rate_pick", actor, false, func(ctx context.Context, x *step) error {
		progress, _, err := progressOf(x, teamKey)
		if err != nil {
			return err
		}
		x.team = teamKey
		if err := rating.RulesFrom(x.settings).Rank(progress, playerID); err != nil {
			return err
		}
		return p.finishTeam(ctx, key, x, teamKey)
	})
}

// RateScore grades playerID on the 1..5 scale.
func (p *Processor) RateScore(ctx context.Context, key chat.Key, actor auth.Actor, teamKey, playerID int64, grade int) (*draft.State, error) {
	return p.run(ctx, key, "rate_score", actor, false, func(ctx context.Context, x *step) error {
		progress, _, err := progressOf(x, teamKey)
		if err != nil {
			return err
		}
		x.team = teamKey
		if err := rating.RulesFrom(x.settings).Grade(progress, playerID, grade); err != nil {
			return err
		}
		return p.finishTeam(ctx, key, x, teamKey)
	})
}

// PickDefender names the team's best defender, the captain included.
func (p *Processor) PickDefender(ctx context.Context, key chat.Key, actor auth.Actor, teamKey, playerID int64) (*draft.State, error) {
	return p.run(ctx, key, "pick_defender", actor, false, func(ctx context.Context, x *step) error {
		progress, team, err := progressOf(x, teamKey)
		if err != nil {
			return err
		}
		x.team = teamKey
		if err := rating.RulesFrom(x.settings).Defender(progress, team, playerID); err != nil {
			return err
		}
		return p.finishTeam(ctx, key, x, teamKey)
	})
}

// finishTeam stores the points of a team whose captain is done and marks it rated.
func (p *Processor) finishTeam(ctx context.Context, key chat.Key, x *step, teamKey int64) error {
	progress := x.st.Ratings[teamKey]
	if progress.Step != draft.RatingDone {
		return nil
	}
	for playerID, points := range progress.Points {
		pts := points
		if _, err := p.results.UpsertHistory(ctx, x.st.MatchID, playerID, results.Delta{Points: &pts}); err != nil {
			return err
		}
	}
	if progress.Defender != 0 {
		if _, err := p.results.UpsertHistory(ctx, x.st.MatchID, progress.Defender, results.Delta{BestDefender: true}); err != nil {
			return err
		}
	}
	x.st.RatedTeams = append(x.st.RatedTeams, teamKey)
	log.Info("Team rated", "chat", key, "team", x.st.TeamIndex(teamKey), "defender", progress.Defender)
	return nil
}
