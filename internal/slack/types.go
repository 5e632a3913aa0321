package slack

import (
	"context"
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/slack-go/slack"
)

// userLookup is the part of slack.Client the Authorizer uses.
type userLookup interface {
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// Authorizer treats workspace admins and owners as chat admins, on top of a
// configured fallback list.
type Authorizer struct {
	api      userLookup
	fallback auth.Authorizer
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedRole
}

type cachedRole struct {
	admin   bool
	expires time.Time
}

// ActionID names an interactive element rendered by the notifier.
type ActionID string

const (
	ActionRegister         ActionID = "register"
	ActionUnregister       ActionID = "unregister"
	ActionNotComing        ActionID = "not_coming"
	ActionConfirmPromotion ActionID = "confirm_promotion"
	ActionDeclinePromotion ActionID = "decline_promotion"

	ActionPick        ActionID = "draft_pick"
	ActionVote        ActionID = "vote"
	ActionForceFinish ActionID = "force_finish"

	ActionDuplicate      ActionID = "duplicate"
	ActionToggleAutogoal ActionID = "toggle_autogoal"
	ActionScorer         ActionID = "scorer"
	ActionAssist         ActionID = "assist"
	ActionNoAssist       ActionID = "no_assist"
	ActionPenalty        ActionID = "penalty"

	ActionCardPlayer  ActionID = "card_player"
	ActionCardColor   ActionID = "card_color"
	ActionFinishCards ActionID = "finish_cards"

	ActionRateStart ActionID = "rate_start"
	ActionRatePick  ActionID = "rate_pick"
	ActionRateScore ActionID = "rate_score"
	ActionDefender  ActionID = "defender"

	ActionPayment    ActionID = "payment"
	ActionConfirmAll ActionID = "confirm_all"
)
