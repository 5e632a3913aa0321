package draft_test

import (
	"math/rand"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id int64, account string) draft.Member {
	return draft.Member{PlayerID: id, AccountID: account, Name: account, Position: roster.Attacker}
}

func ids(members []draft.Member) []int64 {
	out := make([]int64, 0, len(members))
	for _, m := range members {
		out = append(out, m.PlayerID)
	}
	return out
}

func TestManualDraftTerminalAutoAssign(t *testing.T) {
	cap1, cap2 := member(1, "U1"), member(2, "U2")
	pool := []draft.Member{member(3, "U3"), member(4, "U4"), member(5, "U5")}

	st, err := draft.StartManual(rand.New(rand.NewSource(7)), "ADMIN", cap1, cap2, pool)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseDrafting, st.Phase)
	assert.Contains(t, st.Captains, st.Turn)
	assert.Len(t, st.Available, 3)

	first := st.Turn
	second := st.Other(first)
	firstAccount := st.Teams[first][0].AccountID
	secondAccount := st.Teams[second][0].AccountID

	require.NoError(t, st.Pick(firstAccount, 3))
	assert.Equal(t, second, st.Turn)
	require.NoError(t, st.Pick(secondAccount, 4))

	assert.Equal(t, draft.PhaseReady, st.Phase)
	assert.Empty(t, st.Available)
	assert.Equal(t, []int64{first, 3, 5}, ids(st.Teams[first]), "last player joins the team not currently picking")
	assert.Equal(t, []int64{second, 4}, ids(st.Teams[second]))
	assert.True(t, st.Committed())
}

func TestManualDraftRejections(t *testing.T) {
	cap1, cap2 := member(1, "U1"), member(2, "")
	pool := []draft.Member{member(3, "U3"), member(4, "U4"), member(5, "U5"), member(6, "U6")}

	st, err := draft.StartManual(rand.New(rand.NewSource(1)), "ADMIN", cap1, cap2, pool)
	require.NoError(t, err)

	wrong := "U1"
	if st.Turn == 1 {
		wrong = "U3"
	}
	err = st.Pick(wrong, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)
	assert.Len(t, st.Available, 4, "rejected pick must not change state")

	// The initiating admin picks for a captain without an account.
	if st.Turn == 1 {
		require.NoError(t, st.Pick("U1", 3))
	}
	require.Equal(t, int64(2), st.Turn)
	assert.ErrorIs(t, st.Pick("", 4), apperrors.ErrNotYourTurn)
	require.NoError(t, st.Pick("ADMIN", 4))

	err = st.Pick("ADMIN", 4)
	assert.ErrorIs(t, err, apperrors.ErrStaleState)

	_, err = draft.StartManual(rand.New(rand.NewSource(1)), "ADMIN", cap1, cap1, pool)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCommitTeams(t *testing.T) {
	st := draft.NewState(draft.PhaseVoting, "ADMIN")
	st.Variants = []draft.Variant{{ID: "v1"}}
	st.CommitTeams(
		[]draft.Member{member(1, "U1"), member(3, "U3")},
		[]draft.Member{member(2, "U2"), member(4, "U4")},
	)

	assert.Equal(t, draft.PhaseReady, st.Phase)
	assert.Equal(t, []int64{1, 2}, st.Captains)
	assert.Nil(t, st.Variants)
	assert.Equal(t, 1, st.TeamIndex(1))
	assert.Equal(t, 2, st.TeamIndex(2))
	assert.Equal(t, 0, st.TeamIndex(3))

	team, ok := st.TeamOf(4)
	require.True(t, ok)
	assert.Equal(t, int64(2), team)
	assert.Equal(t, int64(1), st.Other(2))
	assert.True(t, st.IsCaptain(2))
	assert.False(t, st.IsCaptain(4))
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(st.Members()))
}
