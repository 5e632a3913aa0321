// Package rating allocates post-match rating points inside one team. The
// captain ranks or grades teammates, then optionally names a best defender.
package rating

import (
	"slices"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/settings"
)

// TopPicks is how many teammates are ranked in top3 mode.
const TopPicks = 3

// Rules are the rating settings of a chat.
type Rules struct {
	Mode         settings.RatingMode
	BestDefender bool
}

// RulesFrom extracts the rating rules from chat settings.
func RulesFrom(s settings.Settings) Rules {
	return Rules{Mode: s.RatingMode, BestDefender: s.TrackBestDefender}
}

// Enabled reports whether a rating phase runs at all.
func (r Rules) Enabled() bool {
	return r.Mode != settings.RatingDisabled && r.Mode != ""
}

// Start opens the rating session of the team led by captain. The captain is
// never rated.
func (r Rules) Start(captain int64, team []draft.Member) *draft.RatingProgress {
	p := &draft.RatingProgress{
		Captain: captain,
		Step:    draft.RatingRank,
		Points:  make(map[int64]int),
	}
	for _, m := range team {
		if m.PlayerID != captain {
			p.Remaining = append(p.Remaining, m.PlayerID)
		}
	}
	switch r.Mode {
	case settings.RatingTop3:
		p.NextPoints = min(TopPicks, len(p.Remaining))
	case settings.RatingScale5:
		p.NextPoints = 0
	default:
		p.NextPoints = len(p.Remaining)
	}
	r.advance(p)
	return p
}

// Rank gives playerID the next point value. Points start at the number of
// ratable teammates (or three in top3 mode) and drop by one per pick, so
// every ranked teammate ends up with a distinct value.
func (r Rules) Rank(p *draft.RatingProgress, playerID int64) error {
	if r.Mode == settings.RatingScale5 {
		return apperrors.Invalidf("this chat grades players on a 1..5 scale")
	}
	if err := take(p, playerID); err != nil {
		return err
	}
	p.Points[playerID] = p.NextPoints
	p.NextPoints--
	if p.NextPoints <= 0 {
		for _, id := range p.Remaining {
			p.Points[id] = 0
		}
		p.Remaining = nil
	}
	r.advance(p)
	return nil
}

// Grade records a 1..5 grade for playerID in scale5 mode.
func (r Rules) Grade(p *draft.RatingProgress, playerID int64, grade int) error {
	if r.Mode != settings.RatingScale5 {
		return apperrors.Invalidf("this chat ranks players")
	}
	if grade < 1 || grade > 5 {
		return apperrors.Invalidf("grade must be between 1 and 5, got %d", grade)
	}
	if err := take(p, playerID); err != nil {
		return err
	}
	p.Points[playerID] = grade
	r.advance(p)
	return nil
}

// Defender flags playerID, who may be the captain, as best defender.
func (r Rules) Defender(p *draft.RatingProgress, team []draft.Member, playerID int64) error {
	if p.Step != draft.RatingDefender {
		return apperrors.Stalef("best defender is not being chosen")
	}
	if !slices.ContainsFunc(team, func(m draft.Member) bool { return m.PlayerID == playerID }) {
		return apperrors.Invalidf("player %d is not on this team", playerID)
	}
	p.Defender = playerID
	p.Step = draft.RatingDone
	return nil
}

func take(p *draft.RatingProgress, playerID int64) error {
	if p.Step != draft.RatingRank {
		return apperrors.Stalef("ratings of this team are already allocated")
	}
	idx := slices.Index(p.Remaining, playerID)
	if idx < 0 {
		return apperrors.Stalef("player %d is already rated", playerID)
	}
	p.Remaining = slices.Delete(p.Remaining, idx, idx+1)
	return nil
}

func (r Rules) advance(p *draft.RatingProgress) {
	if p.Step != draft.RatingRank || len(p.Remaining) > 0 {
		return
	}
	if r.BestDefender {
		p.Step = draft.RatingDefender
		return
	}
	p.Step = draft.RatingDone
}
