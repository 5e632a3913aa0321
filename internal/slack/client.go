package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

// DefaultRoleTTL is how long a looked-up workspace role is trusted.
const DefaultRoleTTL = 10 * time.Minute

var _ auth.Authorizer = (*Authorizer)(nil)

// NewAuthorizer creates an Authorizer backed by the Slack Web API.
func NewAuthorizer(token string, fallback auth.Authorizer) *Authorizer {
	return NewAuthorizerWithAPI(slack.New(token), fallback)
}

// NewAuthorizerWithAPI creates an Authorizer with a custom API client. Used for testing.
func NewAuthorizerWithAPI(api userLookup, fallback auth.Authorizer) *Authorizer {
	if fallback == nil {
		fallback = auth.NewStatic()
	}
	return &Authorizer{
		api:      api,
		fallback: fallback,
		ttl:      DefaultRoleTTL,
		now:      time.Now,
		cache:    make(map[string]cachedRole),
	}
}

func (a *Authorizer) IsPrivileged(ctx context.Context, accountID string, key chat.Key) (bool, error) {
	if accountID == "" {
		return false, nil
	}
	ok, err := a.fallback.IsPrivileged(ctx, accountID, key)
	if err != nil || ok {
		return ok, err
	}

	a.mu.Lock()
	role, found := a.cache[accountID]
	a.mu.Unlock()
	if found && a.now().Before(role.expires) {
		return role.admin, nil
	}

	user, err := a.api.GetUserInfoContext(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to look up slack user %s: %w", accountID, err)
	}
	admin := user.IsAdmin || user.IsOwner || user.IsPrimaryOwner
	log.Debug("Resolved workspace role", "user", accountID, "admin", admin)

	a.mu.Lock()
	a.cache[accountID] = cachedRole{admin: admin, expires: a.now().Add(a.ttl)}
	a.mu.Unlock()
	return admin, nil
}
