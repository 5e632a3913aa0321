package draft

import (
	"fmt"
	"strconv"

	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
)

// Encode serializes s at the current schema version.
func Encode(s *State) ([]byte, error) {
	s.Version = CurrentVersion
	data, err := sonic.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft state: %w", err)
	}
	return data, nil
}

// Decode parses a stored document, upgrading older schema versions.
func Decode(data []byte) (*State, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := sonic.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode draft state: %w", err)
	}

	switch probe.Version {
	case 0, 1:
		var legacy legacyState
		if err := sonic.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("failed to decode v1 draft state: %w", err)
		}
		log.Debug("Migrating draft state", "from", 1, "to", CurrentVersion)
		return legacy.migrate()
	case CurrentVersion:
		st := &State{}
		if err := sonic.Unmarshal(data, st); err != nil {
			return nil, fmt.Errorf("failed to decode draft state: %w", err)
		}
		if st.Teams == nil {
			st.Teams = make(map[int64][]Member)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported draft state version %d", probe.Version)
	}
}

// legacyState is the untyped document written before versioning: teams keyed
// by the captain id as a string and short position codes.
type legacyState struct {
	Teams       map[string][]legacyMember `json:"draft_teams"`
	Available   []legacyMember            `json:"draft_available"`
	Turn        int64                     `json:"draft_turn"`
	Caps        []int64                   `json:"draft_caps"`
	AdminID     int64                     `json:"admin_id"`
	MatchID     int64                     `json:"match_id"`
	RatedTeams  []string                  `json:"rated_teams"`
	RatingsDone bool                      `json:"ratings_done"`
}

type legacyMember struct {
	ID       int64  `json:"id"`
	UserID   *int64 `json:"user_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

var legacyPositions = map[string]roster.Position{
	"att": roster.Attacker,
	"def": roster.Defender,
	"gk":  roster.Goalkeeper,
}

func (m legacyMember) upgrade() Member {
	out := Member{PlayerID: m.ID, Name: m.Name, Position: roster.Attacker}
	if p, ok := legacyPositions[m.Position]; ok {
		out.Position = p
	}
	if m.UserID != nil {
		out.AccountID = strconv.FormatInt(*m.UserID, 10)
	}
	return out
}

func upgradeAll(in []legacyMember) []Member {
	out := make([]Member, 0, len(in))
	for _, m := range in {
		out = append(out, m.upgrade())
	}
	return out
}

func (l legacyState) migrate() (*State, error) {
	st := NewState(PhaseReady, "")
	if l.AdminID != 0 {
		st.Initiator = strconv.FormatInt(l.AdminID, 10)
	}
	st.Captains = l.Caps
	for k, members := range l.Teams {
		captain, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad v1 team key %q: %w", k, err)
		}
		st.Teams[captain] = upgradeAll(members)
	}
	if len(l.Available) > 0 || l.Turn != 0 {
		st.Phase = PhaseDrafting
		st.Available = upgradeAll(l.Available)
		st.Turn = l.Turn
	}
	st.MatchID = l.MatchID
	for _, k := range l.RatedTeams {
		captain, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad v1 rated team %q: %w", k, err)
		}
		st.RatedTeams = append(st.RatedTeams, captain)
	}
	st.RatingsDone = l.RatingsDone
	switch {
	case st.RatingsDone:
		st.Phase = PhaseAwaitingPayment
	case st.MatchID != 0:
		st.Phase = PhaseRating
	}
	return st, nil
}
