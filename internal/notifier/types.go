package notifier

import (
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/roster"
)

// Tally is the current vote count per variant.
type Tally struct {
	Counts   map[string]int
	Eligible int
	Needed   int
}

// ScoringPrompt asks for the next piece of goal attribution.
type ScoringPrompt struct {
	Step     draft.ScoringStep
	Goal     int
	Total    int
	Autogoal bool
	// Scorer is set for minute and assist prompts.
	Scorer      *draft.Member
	Candidates  []draft.Member
	MinuteFloor int
}

// CardPrompt asks for the next piece of card entry.
type CardPrompt struct {
	Step        draft.CardStep
	Player      *draft.Member
	Candidates  []draft.Member
	MinuteFloor int
}

// RatingPrompt asks a captain to rate their team.
type RatingPrompt struct {
	Team       int
	Captain    draft.Member
	Step       draft.RatingStep
	Mode       string
	NextPoints int
	Candidates []draft.Member
}

// PaymentReport lists who paid for a match.
type PaymentReport struct {
	MatchID     int64
	Cost        float64
	Unpaid      []roster.Registration
	Claimed     []roster.Registration
	Confirmed   []roster.Registration
	NeedConfirm bool
}

// PlayerLine is one player's contribution to a finished match.
type PlayerLine struct {
	Name         string
	Team         int
	Points       int
	Goals        int
	Autogoals    int
	Assists      int
	YellowCards  int
	RedCards     int
	BestDefender bool
	Captain      bool
}

// MatchSummary announces a finished match cycle.
type MatchSummary struct {
	MatchID      int64
	Score        string
	SeasonNumber int
	Championship string
	Players      []PlayerLine
}
