package settings

import (
	"database/sql"
	"sync"
)

// CostMode controls how the match cost is split.
type CostMode string

const (
	// CostFixedPlayer charges every player the configured cost.
	CostFixedPlayer CostMode = "fixed_player"
	// CostFixedGame splits the configured total across active players.
	CostFixedGame CostMode = "fixed_game"
)

// RatingMode controls the post-match rating phase.
type RatingMode string

const (
	RatingRanked   RatingMode = "ranked"
	RatingTop3     RatingMode = "top3"
	RatingScale5   RatingMode = "scale5"
	RatingDisabled RatingMode = "disabled"
)

// Settings is the per-chat configuration read by the match lifecycle.
type Settings struct {
	PlayerCount  int        `validate:"min=2,max=60"`
	Cost         float64    `validate:"gte=0"`
	CostMode     CostMode   `validate:"oneof=fixed_player fixed_game"`
	RatingMode   RatingMode `validate:"oneof=ranked top3 scale5 disabled"`
	SkillLabel   string
	Championship *string

	TrackGoals        bool
	TrackGoalTimes    bool
	TrackAssists      bool
	TrackCards        bool
	TrackCardTimes    bool
	TrackBestDefender bool

	CoreTeamMode               bool
	RequirePaymentConfirmation bool
	RemindAfterGame            bool
	IsActive                   bool

	// MatchTimes is the weekly kickoff, e.g. "tue 21:00".
	MatchTimes string
	// Timezone is a "GMT+N" offset the kickoff is expressed in.
	Timezone string
}

// Defaults returns the settings of a chat nobody configured yet.
func Defaults() Settings {
	return Settings{
		PlayerCount:       12,
		CostMode:          CostFixedPlayer,
		RatingMode:        RatingRanked,
		TrackGoals:        true,
		TrackBestDefender: true,
		RemindAfterGame:   true,
		Timezone:          "GMT+3",
	}
}

// CostIsSet reports whether a non-zero cost was configured.
func (s Settings) CostIsSet() bool {
	return s.Cost > 0
}

// store handles settings database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
