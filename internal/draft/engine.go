package draft

import (
	"math/rand"
	"slices"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/charmbracelet/log"
)

// StartManual seeds a captain draft: each captain alone on a team, everyone
// else in the pool and a coin toss for the first pick. initiator is the
// account of the admin who may pick on behalf of either captain.
func StartManual(rng *rand.Rand, initiator string, cap1, cap2 Member, pool []Member) (*State, error) {
	if cap1.PlayerID == cap2.PlayerID {
		return nil, apperrors.Invalidf("captains must be two different players")
	}
	st := NewState(PhaseDrafting, initiator)
	st.Captains = []int64{cap1.PlayerID, cap2.PlayerID}
	st.Teams[cap1.PlayerID] = []Member{cap1}
	st.Teams[cap2.PlayerID] = []Member{cap2}
	for _, m := range pool {
		if m.PlayerID != cap1.PlayerID && m.PlayerID != cap2.PlayerID {
			st.Available = append(st.Available, m)
		}
	}
	st.Turn = st.Captains[rng.Intn(2)]
	settle(st)
	log.Debug("Manual draft started", "captains", st.Captains, "turn", st.Turn, "pool", len(st.Available))
	return st, nil
}

// CanPick reports whether actor may pick for the captain whose turn it is.
func (s *State) CanPick(actor string) bool {
	if actor != "" && actor == s.Initiator {
		return true
	}
	team := s.Teams[s.Turn]
	if len(team) == 0 {
		return false
	}
	return team[0].AccountID != "" && team[0].AccountID == actor
}

// Pick moves playerID from the pool to the team whose turn it is and passes
// the turn. When one player is left, they join the next team without a pick.
func (s *State) Pick(actor string, playerID int64) error {
	if s.Phase != PhaseDrafting {
		return apperrors.Stalef("draft is not running")
	}
	if !s.CanPick(actor) {
		return apperrors.ErrNotYourTurn
	}
	idx := slices.IndexFunc(s.Available, func(m Member) bool { return m.PlayerID == playerID })
	if idx < 0 {
		return apperrors.Stalef("player %d already picked", playerID)
	}
	picked := s.Available[idx]
	s.Available = slices.Delete(s.Available, idx, idx+1)
	s.Teams[s.Turn] = append(s.Teams[s.Turn], picked)
	s.Turn = s.Other(s.Turn)
	settle(s)
	return nil
}

// settle applies the terminal rule and commits the teams once the pool is empty.
func settle(s *State) {
	if len(s.Available) == 1 {
		s.Teams[s.Turn] = append(s.Teams[s.Turn], s.Available[0])
		s.Available = nil
	}
	if len(s.Available) == 0 {
		s.Turn = 0
		s.Available = nil
		s.Phase = PhaseReady
	}
}
