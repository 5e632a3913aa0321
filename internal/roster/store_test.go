package roster_test

import (
	"context"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/database"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (roster.Store, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return roster.New(db), teardown
}

// stores runs the same behavioural test against the SQL store and the in-memory mock.
func stores(t *testing.T, fn func(t *testing.T, s roster.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		s, teardown := setupTestDB(t)
		defer teardown()
		fn(t, s)
	})
	t.Run("mock", func(t *testing.T) {
		fn(t, roster.NewMock())
	})
}

var key = chat.NewKey("C1", "")

func TestEnsurePlayer(t *testing.T) {
	stores(t, func(t *testing.T, s roster.Store) {
		ctx := context.Background()

		p1, err := s.EnsurePlayer(ctx, "U1", "Ivan")
		require.NoError(t, err)
		again, err := s.EnsurePlayer(ctx, "U1", "Ivan renamed")
		require.NoError(t, err)
		assert.Equal(t, p1.ID, again.ID, "same account must map to the same player")

		guest1, err := s.EnsurePlayer(ctx, "", "Guest")
		require.NoError(t, err)
		guest2, err := s.EnsurePlayer(ctx, "", "Guest")
		require.NoError(t, err)
		assert.NotEqual(t, guest1.ID, guest2.ID, "legionnaires are never merged")
		assert.True(t, guest1.IsLegionnaire())

		found, err := s.FindPlayerByAccount(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, p1.ID, found.ID)

		_, err = s.FindPlayerByAccount(ctx, "U404")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestProfileDefaultsAndValidation(t *testing.T) {
	stores(t, func(t *testing.T, s roster.Store) {
		ctx := context.Background()
		p, err := s.EnsurePlayer(ctx, "U1", "Ivan")
		require.NoError(t, err)

		profile, err := s.GetProfile(ctx, p.ID, key)
		require.NoError(t, err)
		assert.Equal(t, 50, profile.Attack)
		assert.Equal(t, 50, profile.Goalkeeping)
		assert.False(t, profile.IsCore)

		profile.Attack = 101
		err = s.UpsertProfile(ctx, profile)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		profile.Attack = 80
		profile.IsCore = true
		require.NoError(t, s.UpsertProfile(ctx, profile))

		core, err := s.ListCorePlayers(ctx, key)
		require.NoError(t, err)
		require.Len(t, core, 1)
		assert.Equal(t, 80, core[0].Attack)

		other, err := s.ListCorePlayers(ctx, chat.NewKey("C1", "thread"))
		require.NoError(t, err)
		assert.Empty(t, other, "profiles are scoped per chat and thread")
	})
}

func TestRegistrationsOrderAndPayment(t *testing.T) {
	stores(t, func(t *testing.T, s roster.Store) {
		ctx := context.Background()
		a, _ := s.EnsurePlayer(ctx, "UA", "A")
		b, _ := s.EnsurePlayer(ctx, "UB", "B")
		c, _ := s.EnsurePlayer(ctx, "UC", "C")

		require.NoError(t, s.UpsertRegistration(ctx, a.ID, key, roster.Attacker, roster.StatusQueue))
		require.NoError(t, s.UpsertRegistration(ctx, b.ID, key, roster.Defender, roster.StatusQueue))
		require.NoError(t, s.UpsertRegistration(ctx, c.ID, key, roster.Goalkeeper, roster.StatusQueue))

		regs, err := s.ListRegistrations(ctx, key)
		require.NoError(t, err)
		require.Len(t, regs, 3)
		assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{regs[0].PlayerID, regs[1].PlayerID, regs[2].PlayerID})
		assert.Equal(t, "A", regs[0].Name())

		// Re-registering with the same status keeps the queue position.
		require.NoError(t, s.UpsertRegistration(ctx, a.ID, key, roster.Defender, roster.StatusQueue))
		regs, _ = s.ListRegistrations(ctx, key)
		assert.Equal(t, a.ID, regs[0].PlayerID)
		assert.Equal(t, roster.Defender, regs[0].Position)

		// A status change moves the row to the back.
		require.NoError(t, s.SetRegistrationStatus(ctx, a.ID, key, roster.StatusActive))
		regs, _ = s.ListRegistrations(ctx, key)
		assert.Equal(t, a.ID, regs[2].PlayerID)

		require.NoError(t, s.SetPaymentState(ctx, b.ID, key, roster.Claimed))
		reg, err := s.GetRegistration(ctx, b.ID, key)
		require.NoError(t, err)
		assert.Equal(t, roster.Claimed, reg.Payment)

		// Payment survives a re-registration.
		require.NoError(t, s.UpsertRegistration(ctx, b.ID, key, roster.Attacker, roster.StatusActive))
		reg, _ = s.GetRegistration(ctx, b.ID, key)
		assert.Equal(t, roster.Claimed, reg.Payment)

		require.NoError(t, s.DeleteRegistration(ctx, c.ID, key))
		_, err = s.GetRegistration(ctx, c.ID, key)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		err = s.SetRegistrationStatus(ctx, c.ID, key, roster.StatusActive)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		require.NoError(t, s.ClearRegistrations(ctx, key))
		regs, err = s.ListRegistrations(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, regs)
	})
}

func TestRegistrationStampErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	s := roster.New(db)

	p, err := s.EnsurePlayer(ctx, "U1", "Ivan")
	require.NoError(t, err)
	require.NoError(t, s.UpsertRegistration(ctx, p.ID, key, roster.Attacker, roster.StatusActive))

	_, err = db.ExecContext(ctx, `ALTER TABLE registrations RENAME COLUMN updated_at TO touched_at`)
	require.NoError(t, err)

	err = s.UpsertRegistration(ctx, p.ID, key, roster.Defender, roster.StatusQueue)
	assert.ErrorContains(t, err, "failed to read queue stamp")
	err = s.SetRegistrationStatus(ctx, p.ID, key, roster.StatusNotComing)
	assert.ErrorContains(t, err, "failed to read queue stamp")
}
