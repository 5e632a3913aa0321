package roster

import (
	"database/sql"
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Position is the role a player registers for.
type Position string

const (
	Attacker   Position = "attacker"
	Defender   Position = "defender"
	Goalkeeper Position = "goalkeeper"
)

// Status is the admission state of a registration.
type Status string

const (
	StatusActive         Status = "active"
	StatusQueue          Status = "queue"
	StatusPendingConfirm Status = "pending_confirm"
	StatusNotComing      Status = "not_coming"
)

// PaymentState tracks whether a registrant paid for the current match.
type PaymentState int

const (
	Unpaid    PaymentState = 0
	Claimed   PaymentState = 1
	Confirmed PaymentState = 2
)

// DefaultRating is used for any skill that was never assigned.
const DefaultRating = 50

// Player is the global identity of a person. AccountID is empty for
// legionnaires, who are managed by admins only.
type Player struct {
	ID        int64
	AccountID string
	Name      string
}

// IsLegionnaire reports whether the player has no linked chat account.
func (p Player) IsLegionnaire() bool {
	return p.AccountID == ""
}

// Profile holds the per-chat attributes of a player.
type Profile struct {
	PlayerID    int64  `validate:"required"`
	Key         chat.Key
	DisplayName string
	Attack      int `validate:"min=0,max=100"`
	Defense     int `validate:"min=0,max=100"`
	Speed       int `validate:"min=0,max=100"`
	Goalkeeping int `validate:"min=0,max=100"`
	IsCore      bool
}

// DefaultProfile returns the profile a player has before any rating was assigned.
func DefaultProfile(playerID int64, key chat.Key) Profile {
	return Profile{
		PlayerID:    playerID,
		Key:         key,
		Attack:      DefaultRating,
		Defense:     DefaultRating,
		Speed:       DefaultRating,
		Goalkeeping: DefaultRating,
	}
}

// Registration is one player's sign-up for the open match cycle of a chat.
// Player and Profile are filled in by list and get queries.
type Registration struct {
	PlayerID  int64
	Key       chat.Key
	Position  Position
	Payment   PaymentState
	Status    Status
	UpdatedAt time.Time

	Player  Player
	Profile Profile
}

// Name returns the display name for the chat, falling back to the player's name.
func (r Registration) Name() string {
	if r.Profile.DisplayName != "" {
		return r.Profile.DisplayName
	}
	return r.Player.Name
}

// store handles all roster database operations.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}
