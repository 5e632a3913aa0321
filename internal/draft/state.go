package draft

import (
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/mitchellh/copystructure"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 2

// Phase is the lifecycle stage of the in-flight match.
type Phase string

const (
	PhaseDrafting Phase = "drafting"
	PhaseVoting   Phase = "voting"
	// PhaseReady means teams are committed and the score is awaited.
	PhaseReady Phase = "ready"
	// PhaseDuplicate means a score was entered and an overwrite/new/cancel decision is pending.
	PhaseDuplicate Phase = "duplicate"
	PhaseScoring   Phase = "scoring"
	PhaseCards     Phase = "cards"
	PhaseRating    Phase = "rating"
	// PhaseAwaitingPayment means ratings are done and teardown waits for payments.
	PhaseAwaitingPayment Phase = "awaiting_payment"
)

// Member is a player placed on a team or still in the draft pool.
type Member struct {
	PlayerID  int64           `json:"id"`
	AccountID string          `json:"account_id,omitempty"`
	Name      string          `json:"name"`
	Position  roster.Position `json:"position"`
	OVR       float64         `json:"ovr,omitempty"`
}

// Variant is one candidate split offered for voting.
type Variant struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Team1  []Member `json:"team1"`
	Team2  []Member `json:"team2"`
	Score1 float64  `json:"score1"`
	Score2 float64  `json:"score2"`
}

// Vote is a voter's current choice and when it was cast.
type Vote struct {
	VariantID string    `json:"variant_id"`
	At        time.Time `json:"at"`
}

// PendingScore is a score waiting on a duplicate-match decision.
type PendingScore struct {
	Score           string    `json:"score"`
	Goals1          int       `json:"goals1"`
	Goals2          int       `json:"goals2"`
	PlayedAt        time.Time `json:"played_at"`
	ExistingMatchID int64     `json:"existing_match_id"`
}

// ScoringStep is the prompt currently shown during goal attribution.
type ScoringStep string

const (
	StepScorer ScoringStep = "scorer"
	StepMinute ScoringStep = "minute"
	StepAssist ScoringStep = "assist"
)

// Scoring tracks goal attribution progress.
type Scoring struct {
	Goals1  int         `json:"goals1"`
	Goals2  int         `json:"goals2"`
	Total   int         `json:"total"`
	Current int         `json:"current"`
	Step    ScoringStep `json:"step"`
	// Autogoal is the own-goal toggle applied to the next scorer pick.
	Autogoal bool `json:"autogoal"`

	ScorerID      int64 `json:"scorer_id,omitempty"`
	HistoryID     int64 `json:"history_id,omitempty"`
	EventID       int64 `json:"event_id,omitempty"`
	EventAutogoal bool  `json:"event_autogoal,omitempty"`
}

// Card is a card color.
type Card string

const (
	Yellow Card = "yellow"
	Red    Card = "red"
)

// CardStep is the prompt currently shown during card entry.
type CardStep string

const (
	CardPickPlayer CardStep = "player"
	CardPickColor  CardStep = "color"
	CardPickMinute CardStep = "minute"
)

// Cards tracks card entry progress.
type Cards struct {
	Step      CardStep `json:"step"`
	PlayerID  int64    `json:"player_id,omitempty"`
	HistoryID int64    `json:"history_id,omitempty"`
	Color     Card     `json:"color,omitempty"`
}

// RatingStep is where a captain is in rating their team.
type RatingStep string

const (
	RatingRank     RatingStep = "rank"
	RatingDefender RatingStep = "defender"
	RatingDone     RatingStep = "done"
)

// RatingProgress is one team's rating session, keyed by captain.
type RatingProgress struct {
	Captain    int64         `json:"captain"`
	Step       RatingStep    `json:"step"`
	Remaining  []int64       `json:"remaining"`
	NextPoints int           `json:"next_points"`
	Points     map[int64]int `json:"points"`
	Defender   int64         `json:"defender,omitempty"`
}

// State is the single in-flight match session of a chat.
type State struct {
	Version  int   `json:"version"`
	Revision int64 `json:"revision"`
	Phase    Phase `json:"phase"`
	// Initiator is the account of the admin who started the draw. It may act
	// on behalf of captains without a linked account.
	Initiator string `json:"initiator,omitempty"`

	// Captains holds the two team keys in order; Teams[c][0] is captain c.
	Captains  []int64            `json:"captains"`
	Teams     map[int64][]Member `json:"teams"`
	Available []Member           `json:"available,omitempty"`
	Turn      int64              `json:"turn,omitempty"`

	Variants []Variant       `json:"variants,omitempty"`
	Votes    map[string]Vote `json:"votes,omitempty"`

	MatchID    int64         `json:"match_id,omitempty"`
	Pending    *PendingScore `json:"pending,omitempty"`
	Scoring    *Scoring      `json:"scoring,omitempty"`
	Cards      *Cards        `json:"cards,omitempty"`
	LastMinute int           `json:"last_minute,omitempty"`

	Ratings     map[int64]*RatingProgress `json:"ratings,omitempty"`
	RatedTeams  []int64                   `json:"rated_teams,omitempty"`
	RatingsDone bool                      `json:"ratings_done,omitempty"`
}

// NewState returns an empty current-version state.
func NewState(phase Phase, initiator string) *State {
	return &State{
		Version:   CurrentVersion,
		Phase:     phase,
		Initiator: initiator,
		Teams:     make(map[int64][]Member),
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c, err := copystructure.Copy(s)
	if err != nil {
		panic(fmt.Sprintf("draft: copy state: %v", err))
	}
	return c.(*State)
}

// Committed reports whether both teams are final.
func (s *State) Committed() bool {
	return len(s.Captains) == 2 && s.Phase != PhaseDrafting && s.Phase != PhaseVoting
}

// CommitTeams fixes team1 and team2 as the match teams. Their first members are the captains.
func (s *State) CommitTeams(team1, team2 []Member) {
	s.Captains = []int64{team1[0].PlayerID, team2[0].PlayerID}
	s.Teams = map[int64][]Member{
		team1[0].PlayerID: team1,
		team2[0].PlayerID: team2,
	}
	s.Available = nil
	s.Turn = 0
	s.Variants = nil
	s.Votes = nil
	s.Phase = PhaseReady
}

// TeamIndex returns 1 or 2 for the team keyed by captain, 0 if unknown.
func (s *State) TeamIndex(captain int64) int {
	for i, c := range s.Captains {
		if c == captain {
			return i + 1
		}
	}
	return 0
}

// TeamOf returns the captain key of the team playerID plays for.
func (s *State) TeamOf(playerID int64) (int64, bool) {
	for _, c := range s.Captains {
		for _, m := range s.Teams[c] {
			if m.PlayerID == playerID {
				return c, true
			}
		}
	}
	return 0, false
}

// Other returns the opposing team's captain key.
func (s *State) Other(captain int64) int64 {
	if len(s.Captains) != 2 {
		return 0
	}
	if s.Captains[0] == captain {
		return s.Captains[1]
	}
	return s.Captains[0]
}

// Member looks a player up on either team.
func (s *State) Member(playerID int64) (Member, bool) {
	for _, c := range s.Captains {
		for _, m := range s.Teams[c] {
			if m.PlayerID == playerID {
				return m, true
			}
		}
	}
	return Member{}, false
}

// Members lists every rostered player, team 1 first.
func (s *State) Members() []Member {
	var out []Member
	for _, c := range s.Captains {
		out = append(out, s.Teams[c]...)
	}
	return out
}

// IsCaptain reports whether playerID captains one of the teams.
func (s *State) IsCaptain(playerID int64) bool {
	return s.TeamIndex(playerID) != 0
}

// Variant finds a voting variant by id.
func (s *State) Variant(id string) (Variant, bool) {
	for _, v := range s.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}
