package auth

import (
	"context"
	"fmt"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
)

// Require returns ErrUnauthorized unless actor is privileged in key.
func Require(ctx context.Context, a Authorizer, actor Actor, key chat.Key) error {
	ok, err := a.IsPrivileged(ctx, actor.AccountID, key)
	if err != nil {
		return fmt.Errorf("failed to check privileges of %s: %w", actor.AccountID, err)
	}
	if !ok {
		return fmt.Errorf("%s is not an admin of %s: %w", actor.AccountID, key, apperrors.ErrUnauthorized)
	}
	return nil
}
