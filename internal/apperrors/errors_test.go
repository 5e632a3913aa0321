package apperrors

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelsMatch(t *testing.T) {
	err := Invalidf("score %q", "3x2")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "3x2")

	wrapped := fmt.Errorf("enter score: %w", Stalef("match %d finalized", 4))
	assert.True(t, errors.Is(wrapped, ErrStaleState))
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(fmt.Errorf("pick: %w", ErrNotYourTurn)))
	assert.True(t, IsRejection(ErrNoTeamData))
	assert.False(t, IsRejection(errors.New("database is locked")))
	assert.False(t, IsRejection(ErrConflict))
}
