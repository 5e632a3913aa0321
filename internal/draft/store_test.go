package draft_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/database"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = chat.NewKey("C1", "T1")

func stores(t *testing.T, fn func(t *testing.T, s draft.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		db, teardown, err := database.InitDB(":memory:", "", "")
		require.NoError(t, err)
		defer teardown()
		fn(t, draft.New(db))
	})
	t.Run("mock", func(t *testing.T) {
		fn(t, draft.NewMock())
	})
}

func TestRoundTrip(t *testing.T) {
	st := draft.NewState(draft.PhaseDrafting, "ADMIN")
	st.Captains = []int64{10, 20}
	st.Teams[10] = []draft.Member{member(10, "U10"), member(11, "U11")}
	st.Teams[20] = []draft.Member{member(20, "")}
	st.Available = []draft.Member{member(30, "U30"), member(31, "")}
	st.Turn = 20
	st.Votes = map[string]draft.Vote{"U11": {VariantID: "v2", At: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}}
	st.Ratings = map[int64]*draft.RatingProgress{10: {Captain: 10, Step: draft.RatingRank, Remaining: []int64{11}, NextPoints: 1, Points: map[int64]int{}}}

	data, err := draft.Encode(st)
	require.NoError(t, err)
	got, err := draft.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, draft.CurrentVersion, got.Version)
	assert.Equal(t, st.Teams, got.Teams)
	assert.Equal(t, st.Available, got.Available)
	assert.Equal(t, st.Turn, got.Turn)
	assert.Equal(t, st.Captains, got.Captains)
	assert.Equal(t, st.Initiator, got.Initiator)
	assert.True(t, st.Votes["U11"].At.Equal(got.Votes["U11"].At))
	assert.Equal(t, []int64{11}, got.Ratings[10].Remaining)
}

func TestDecodeLegacy(t *testing.T) {
	legacy := `{
		"draft_teams": {"5": [{"id": 5, "user_id": 555, "name": "Cap", "position": "gk"}],
		                "6": [{"id": 6, "user_id": null, "name": "Guest", "position": "def"}]},
		"draft_available": [{"id": 7, "user_id": 777, "name": "Pool", "position": "att"}],
		"draft_turn": 6,
		"draft_caps": [5, 6],
		"admin_id": 42
	}`
	st, err := draft.Decode([]byte(legacy))
	require.NoError(t, err)

	assert.Equal(t, draft.CurrentVersion, st.Version)
	assert.Equal(t, draft.PhaseDrafting, st.Phase)
	assert.Equal(t, []int64{5, 6}, st.Captains)
	assert.Equal(t, int64(6), st.Turn)
	assert.Equal(t, "42", st.Initiator)
	require.Len(t, st.Teams[5], 1)
	assert.Equal(t, "555", st.Teams[5][0].AccountID)
	assert.Equal(t, "", st.Teams[6][0].AccountID)
	assert.EqualValues(t, "goalkeeper", st.Teams[5][0].Position)
	assert.EqualValues(t, "defender", st.Teams[6][0].Position)
	assert.Equal(t, []int64{7}, ids(st.Available))

	rated, err := draft.Decode([]byte(`{"draft_teams": {"5": [], "6": []}, "draft_caps": [5, 6], "match_id": 9, "rated_teams": ["5"], "ratings_done": true}`))
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseAwaitingPayment, rated.Phase)
	assert.Equal(t, int64(9), rated.MatchID)
	assert.Equal(t, []int64{5}, rated.RatedTeams)

	_, err = draft.Decode([]byte(`{"version": 99}`))
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	stores(t, func(t *testing.T, s draft.Store) {
		ctx := context.Background()

		st, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, st)

		created, err := s.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
			assert.Nil(t, cur)
			next := draft.NewState(draft.PhaseVoting, "ADMIN")
			next.Captains = []int64{1, 2}
			return next, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Revision)

		boom := errors.New("boom")
		_, err = s.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
			cur.Phase = draft.PhaseReady
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		st, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, draft.PhaseVoting, st.Phase, "failed update leaves storage untouched")

		updated, err := s.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
			cur.Phase = draft.PhaseReady
			return cur, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Revision)

		_, err = s.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
			// A writer that bypasses the lock moves the revision.
			other := cur.Clone()
			require.NoError(t, s.Set(ctx, key, other))
			cur.Phase = draft.PhaseScoring
			return cur, nil
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		_, err = s.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
			return nil, nil
		})
		require.NoError(t, err)
		st, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, st)
	})
}
