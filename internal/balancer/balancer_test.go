package balancer_test

import (
	"math/rand"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/balancer"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/elliotchance/pie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var positions = []roster.Position{roster.Attacker, roster.Defender, roster.Goalkeeper, roster.Attacker, roster.Defender}

func makePlayers(n int) []balancer.Player {
	out := make([]balancer.Player, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, balancer.Player{
			ID:          int64(i + 1),
			Position:    positions[i%len(positions)],
			Attack:      30 + (i*17)%70,
			Defense:     25 + (i*23)%75,
			Speed:       40 + (i*11)%60,
			Goalkeeping: 20 + (i*13)%80,
		})
	}
	return out
}

func teamIDs(team []balancer.Rated) []int64 {
	return pie.Sort(pie.Map(team, func(r balancer.Rated) int64 { return r.ID }))
}

func newBalancer(seed int64) *balancer.Balancer {
	return balancer.New(rand.New(rand.NewSource(seed)), balancer.DefaultParams())
}

func TestOVR(t *testing.T) {
	gk := balancer.Player{Position: roster.Goalkeeper, Attack: 30, Defense: 60, Speed: 90, Goalkeeping: 40}
	att := balancer.Player{Position: roster.Attacker, Attack: 80, Defense: 20, Speed: 50}
	def := balancer.Player{Position: roster.Defender, Attack: 20, Defense: 90, Speed: 60}

	assert.InDelta(t, 60.0, balancer.OVR(gk, balancer.ModeNone), 1e-9)
	assert.InDelta(t, 80.0, balancer.OVR(gk, balancer.ModeGK), 1e-9)
	assert.InDelta(t, 50.0, balancer.OVR(att, balancer.ModeGK), 1e-9)
	assert.InDelta(t, 80.0, balancer.OVR(gk, balancer.ModeAll), 1e-9)
	assert.InDelta(t, 68.0, balancer.OVR(att, balancer.ModeAll), 1e-9)
	assert.InDelta(t, 81.0, balancer.OVR(def, balancer.ModeAll), 1e-9)
}

func TestBalanceSizeInvariant(t *testing.T) {
	for _, mode := range []balancer.Mode{balancer.ModeAll, balancer.ModeGK, balancer.ModeNone} {
		for n := 0; n <= 21; n++ {
			for seed := int64(1); seed <= 3; seed++ {
				res, err := newBalancer(seed).Balance(makePlayers(n), balancer.Options{Mode: mode, UseHistory: seed%2 == 0, Shuffle: float64(seed * 5)})
				require.NoError(t, err)
				d := len(res.Team1) - len(res.Team2)
				assert.LessOrEqual(t, d*d, 1, "mode=%s n=%d", mode, n)
				assert.Equal(t, n, len(res.Team1)+len(res.Team2))
				all := append(teamIDs(res.Team1), teamIDs(res.Team2)...)
				assert.Len(t, pie.Unique(all), n, "every player placed exactly once")
			}
		}
	}
}

func TestBalanceDeterministicWithoutNoise(t *testing.T) {
	players := makePlayers(14)
	for _, mode := range []balancer.Mode{balancer.ModeAll, balancer.ModeGK, balancer.ModeNone} {
		a, err := newBalancer(1).Balance(players, balancer.Options{Mode: mode})
		require.NoError(t, err)
		b, err := newBalancer(99).Balance(players, balancer.Options{Mode: mode})
		require.NoError(t, err)
		assert.Equal(t, teamIDs(a.Team1), teamIDs(b.Team1), string(mode))
		assert.Equal(t, teamIDs(a.Team2), teamIDs(b.Team2), string(mode))
	}
}

func TestBalanceSameSeedSameResult(t *testing.T) {
	players := makePlayers(12)
	opts := balancer.Options{Mode: balancer.ModeAll, UseHistory: true, Shuffle: 15}
	a, err := newBalancer(42).Balance(players, opts)
	require.NoError(t, err)
	b, err := newBalancer(42).Balance(players, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBalanceScoresSumEffectiveOVR(t *testing.T) {
	res, err := newBalancer(3).Balance(makePlayers(10), balancer.Options{Mode: balancer.ModeAll, Shuffle: 5})
	require.NoError(t, err)
	sum := func(team []balancer.Rated) float64 {
		var s float64
		for _, r := range team {
			s += r.OVR
		}
		return s
	}
	assert.InDelta(t, sum(res.Team1), res.Score1, 1e-9)
	assert.InDelta(t, sum(res.Team2), res.Score2, 1e-9)
}

func TestBalanceCaptains(t *testing.T) {
	players := makePlayers(11)
	for _, mode := range []balancer.Mode{balancer.ModeAll, balancer.ModeGK, balancer.ModeNone} {
		for seed := int64(1); seed <= 5; seed++ {
			res, err := newBalancer(seed).Balance(players, balancer.Options{Mode: mode, Shuffle: 10, Captains: []int64{7, 2}})
			require.NoError(t, err)
			assert.Equal(t, int64(7), res.Team1[0].ID)
			assert.Equal(t, int64(2), res.Team2[0].ID)
			assert.NotContains(t, teamIDs(res.Team1), int64(2))
		}
	}

	_, err := newBalancer(1).Balance(players, balancer.Options{Captains: []int64{7, 404}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = newBalancer(1).Balance(players, balancer.Options{Captains: []int64{7, 7}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBalanceSpreadsGoalkeepers(t *testing.T) {
	players := []balancer.Player{
		{ID: 1, Position: roster.Goalkeeper, Goalkeeping: 90},
		{ID: 2, Position: roster.Goalkeeper, Goalkeeping: 80},
		{ID: 3, Position: roster.Attacker, Attack: 50, Speed: 50},
		{ID: 4, Position: roster.Attacker, Attack: 50, Speed: 50},
		{ID: 5, Position: roster.Defender, Defense: 50, Speed: 50},
		{ID: 6, Position: roster.Defender, Defense: 50, Speed: 50},
	}
	res, err := newBalancer(5).Balance(players, balancer.Options{Mode: balancer.ModeAll})
	require.NoError(t, err)
	gks := func(team []balancer.Rated) int {
		return len(pie.Filter(team, func(r balancer.Rated) bool { return r.Position == roster.Goalkeeper }))
	}
	assert.Equal(t, 1, gks(res.Team1))
	assert.Equal(t, 1, gks(res.Team2))
}

func TestHistoryBlend(t *testing.T) {
	p := balancer.Player{ID: 1, Position: roster.Attacker, Attack: 50, Speed: 50}

	p.Points = []float64{3, 1}
	res, err := newBalancer(1).Balance([]balancer.Player{p}, balancer.Options{Mode: balancer.ModeAll, UseHistory: true})
	require.NoError(t, err)
	assert.InDelta(t, 50*0.7+2*20*0.3, res.Team1[0].OVR, 1e-9)

	p.Points = nil
	res, err = newBalancer(1).Balance([]balancer.Player{p}, balancer.Options{Mode: balancer.ModeAll, UseHistory: true})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Team1[0].OVR, 50*0.7+0.5*20*0.3)
	assert.LessOrEqual(t, res.Team1[0].OVR, 50*0.7+2.5*20*0.3)
}

func TestVariants(t *testing.T) {
	specs := balancer.DefaultParams().Variants(3)
	require.Len(t, specs, 3)
	assert.False(t, specs[0].UseHistory)
	assert.Zero(t, specs[0].Shuffle)
	assert.True(t, specs[1].UseHistory)
	assert.Equal(t, 5.0, specs[1].Shuffle)
	assert.Equal(t, 15.0, specs[2].Shuffle)

	assert.Len(t, balancer.DefaultParams().Variants(1), 1)
}
