package draw_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/balancer"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/draw"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	key   = chat.NewKey("C1", "T1")
	admin = auth.Actor{AccountID: "ADMIN", Name: "Admin"}
)

type fixture struct {
	service  *draw.Service
	roster   *roster.MockStore
	drafts   *draft.MockStore
	settings *settings.MockStore
	notifier *notifier.Mock
	metrics  *metrics.Mock
	ids      []int64
}

// setup registers n active players, the first two as goalkeepers.
func setup(t *testing.T, n int, seed int64) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		roster:   roster.NewMock(),
		drafts:   draft.NewMock(),
		settings: settings.NewMock(),
		notifier: notifier.NewMock(),
		metrics:  metrics.NewMock(),
	}
	for i := 1; i <= n; i++ {
		p, err := f.roster.EnsurePlayer(ctx, fmt.Sprintf("U%d", i), fmt.Sprintf("P%d", i))
		require.NoError(t, err)
		pos := roster.Attacker
		switch {
		case i <= 2:
			pos = roster.Goalkeeper
		case i%2 == 0:
			pos = roster.Defender
		}
		prof := roster.DefaultProfile(p.ID, key)
		prof.Attack = 40 + i*3
		prof.Defense = 70 - i*2
		prof.Speed = 50 + i
		prof.Goalkeeping = 20 + i*5
		require.NoError(t, f.roster.UpsertProfile(ctx, prof))
		require.NoError(t, f.roster.UpsertRegistration(ctx, p.ID, key, pos, roster.StatusActive))
		f.ids = append(f.ids, p.ID)
	}
	f.service = draw.NewService(f.roster, results.NewMock(), f.drafts, f.settings, auth.NewMock(admin.AccountID),
		f.notifier, f.metrics, rand.New(rand.NewSource(seed)), balancer.DefaultParams())
	return f
}

func memberIDs(team []draft.Member) []int64 {
	ids := make([]int64, 0, len(team))
	for _, m := range team {
		ids = append(ids, m.PlayerID)
	}
	return ids
}

func TestStartVotingOffersThreeVariants(t *testing.T) {
	f := setup(t, 11, 7)
	ctx := context.Background()

	st, err := f.service.StartVoting(ctx, key, admin, draw.Request{})
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseVoting, st.Phase)
	require.Len(t, st.Variants, 3)

	seen := map[string]bool{}
	for i, v := range st.Variants {
		assert.NotEmpty(t, v.ID)
		assert.False(t, seen[v.ID], "variant ids must be unique")
		seen[v.ID] = true
		assert.Len(t, append(v.Team1, v.Team2...), 11, "variant %d", i)
		assert.LessOrEqual(t, len(v.Team1)-len(v.Team2), 1)
		assert.GreaterOrEqual(t, len(v.Team1)-len(v.Team2), -1)
	}
	assert.Equal(t, "stats", st.Variants[0].Label)
	assert.Equal(t, "stats+history", st.Variants[1].Label)
	assert.Equal(t, "stats+history+noise", st.Variants[2].Label)

	require.Len(t, f.notifier.SendVariantsCalls, 1)
	assert.Equal(t, 1, f.metrics.Draws("vote"))

	stored, err := f.drafts.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, st.Variants, stored.Variants)
	assert.Equal(t, admin.AccountID, stored.Initiator)
}

func TestStartVotingIsReproducibleForASeed(t *testing.T) {
	ctx := context.Background()
	a, err := setup(t, 12, 42).service.StartVoting(ctx, key, admin, draw.Request{})
	require.NoError(t, err)
	b, err := setup(t, 12, 42).service.StartVoting(ctx, key, admin, draw.Request{})
	require.NoError(t, err)

	for i := range a.Variants {
		assert.ElementsMatch(t, memberIDs(a.Variants[i].Team1), memberIDs(b.Variants[i].Team1))
		assert.ElementsMatch(t, memberIDs(a.Variants[i].Team2), memberIDs(b.Variants[i].Team2))
	}
}

func TestStartVotingSeedsCaptains(t *testing.T) {
	f := setup(t, 10, 3)
	caps := []int64{f.ids[5], f.ids[8]}

	st, err := f.service.StartVoting(context.Background(), key, admin, draw.Request{Mode: balancer.ModeNone, Captains: caps})
	require.NoError(t, err)
	for _, v := range st.Variants {
		assert.Equal(t, caps[0], v.Team1[0].PlayerID)
		assert.Equal(t, caps[1], v.Team2[0].PlayerID)
	}
}

func TestStartVotingWithSingleVariantCommits(t *testing.T) {
	f := setup(t, 6, 1)

	st, err := f.service.StartVoting(context.Background(), key, admin, draw.Request{Variants: 1})
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseReady, st.Phase)
	assert.True(t, st.Committed())
	assert.Len(t, st.Members(), 6)
	assert.Len(t, f.notifier.SendTeamsCommittedCalls, 1)
	assert.Equal(t, 1, f.metrics.Draws("auto"))
}

func TestCommittedTeamsArePublished(t *testing.T) {
	f := setup(t, 6, 1)
	events := pubsub.NewMock()
	f.service.WithEvents(events)

	st, err := f.service.StartVoting(context.Background(), key, admin, draw.Request{Variants: 1})
	require.NoError(t, err)

	sent := events.Sent(pubsub.EventTeamsCommitted)
	require.Len(t, sent, 1)
	ev, ok := sent[0].(pubsub.TeamsCommitted)
	require.True(t, ok)
	assert.Equal(t, "C1", ev.ChannelID)
	assert.Equal(t, "T1", ev.ThreadID)
	require.Len(t, f.notifier.SendTeamsCommittedCalls, 1)
	assert.Equal(t, f.notifier.SendTeamsCommittedCalls[0], ev.VariantID)
	assert.Equal(t, memberIDs(st.Teams[st.Captains[0]]), ev.Team1)
	assert.Equal(t, memberIDs(st.Teams[st.Captains[1]]), ev.Team2)
	assert.Equal(t, 1, f.metrics.EventsPublished(string(pubsub.EventTeamsCommitted)))
}

func TestStartVotingRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("not an admin", func(t *testing.T) {
		f := setup(t, 6, 1)
		_, err := f.service.StartVoting(ctx, key, auth.Actor{AccountID: "U1"}, draw.Request{})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("too few players", func(t *testing.T) {
		f := setup(t, 1, 1)
		_, err := f.service.StartVoting(ctx, key, admin, draw.Request{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("goalkeeper mode without two goalkeepers", func(t *testing.T) {
		f := setup(t, 6, 1)
		require.NoError(t, f.roster.SetRegistrationStatus(ctx, f.ids[0], key, roster.StatusQueue))
		_, err := f.service.StartVoting(ctx, key, admin, draw.Request{Mode: balancer.ModeGK})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("captain not active", func(t *testing.T) {
		f := setup(t, 6, 1)
		_, err := f.service.StartVoting(ctx, key, admin, draw.Request{Captains: []int64{f.ids[0], 999}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("match being recorded", func(t *testing.T) {
		f := setup(t, 6, 1)
		require.NoError(t, f.drafts.Set(ctx, key, draft.NewState(draft.PhaseScoring, admin.AccountID)))
		_, err := f.service.StartVoting(ctx, key, admin, draw.Request{})
		assert.ErrorIs(t, err, apperrors.ErrStaleState)
	})
}

func TestManualDraftRunsToCompletion(t *testing.T) {
	f := setup(t, 5, 9)
	ctx := context.Background()
	caps := []int64{f.ids[0], f.ids[1]}

	st, err := f.service.StartDraft(ctx, key, admin, caps)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseDrafting, st.Phase)
	assert.Len(t, st.Available, 3)
	require.Len(t, f.notifier.SendDraftStatusCalls, 1)

	// The captain not on turn may not pick.
	idle := st.Other(st.Turn)
	idleAccount := st.Teams[idle][0].AccountID
	_, err = f.service.Pick(ctx, key, auth.Actor{AccountID: idleAccount}, st.Available[0].PlayerID)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	first := st.Turn
	st, err = f.service.Pick(ctx, key, auth.Actor{AccountID: st.Teams[st.Turn][0].AccountID}, st.Available[0].PlayerID)
	require.NoError(t, err)
	assert.NotEqual(t, first, st.Turn)

	_, err = f.service.Pick(ctx, key, admin, f.ids[0])
	assert.ErrorIs(t, err, apperrors.ErrStaleState)

	st, err = f.service.Pick(ctx, key, admin, st.Available[0].PlayerID)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseReady, st.Phase)
	assert.Empty(t, st.Available)
	assert.Len(t, st.Members(), 5)
	assert.Len(t, f.notifier.SendTeamsCommittedCalls, 1)
	assert.Equal(t, 1, f.metrics.Draws("manual"))
}

func TestStartDraftNeedsActiveCaptains(t *testing.T) {
	f := setup(t, 4, 1)
	_, err := f.service.StartDraft(context.Background(), key, admin, []int64{f.ids[0], 777})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.service.StartDraft(context.Background(), key, admin, []int64{f.ids[0]})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPickWithoutDraft(t *testing.T) {
	f := setup(t, 4, 1)
	_, err := f.service.Pick(context.Background(), key, admin, f.ids[2])
	assert.ErrorIs(t, err, apperrors.ErrNoTeamData)
}

func TestClear(t *testing.T) {
	f := setup(t, 4, 1)
	ctx := context.Background()
	require.NoError(t, f.settings.Set(ctx, key, "is_active", "1"))
	_, err := f.service.StartVoting(ctx, key, admin, draw.Request{})
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Clear(ctx, key, auth.Actor{AccountID: "U1"}), apperrors.ErrUnauthorized)
	require.NoError(t, f.service.Clear(ctx, key, admin))

	st, err := f.drafts.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, st)
	regs, err := f.roster.ListRegistrations(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, regs)
	s, err := f.settings.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, s.IsActive)
}
