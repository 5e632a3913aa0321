// Package apperrors holds the error taxonomy shared by the match lifecycle.
// Operations wrap one of these sentinels so the transport layer can decide
// how to surface a rejection without inspecting messages.
package apperrors

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidInput marks malformed user input: score text, minutes, ratings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized marks a privileged action attempted by a regular player.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotYourTurn marks a draft pick or rating by someone other than the acting captain.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrNotYourAction marks a confirm/decline button pressed by the wrong player.
	ErrNotYourAction = errors.New("not your action")
	// ErrStaleState marks an action against state that moved on (already picked, already finalized).
	ErrStaleState = errors.New("stale state")
	// ErrNotFound marks a missing player, registration or match.
	ErrNotFound = errors.New("not found")
	// ErrNoTeamData marks an operation that needs a DraftState when none exists.
	ErrNoTeamData = errors.New("no team data found")
	// ErrConflict marks a concurrent write lost against a newer revision.
	ErrConflict = errors.New("conflict")
)

// Invalidf wraps ErrInvalidInput with a formatted detail.
func Invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// Stalef wraps ErrStaleState with a formatted detail.
func Stalef(format string, args ...any) error {
	return errors.Wrapf(ErrStaleState, format, args...)
}

// IsRejection reports whether err is a user-facing rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return errors.IsAny(err,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrNotYourTurn,
		ErrNotYourAction,
		ErrStaleState,
		ErrNotFound,
		ErrNoTeamData,
	)
}
