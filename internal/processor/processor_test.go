package processor_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/processor"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	key   = chat.NewKey("C1", "")
	admin = auth.Actor{AccountID: "ADMIN"}
	now   = time.Date(2024, 6, 4, 19, 3, 20, 0, time.UTC)
)

type fixture struct {
	proc     *processor.Processor
	drafts   *draft.MockStore
	roster   *roster.MockStore
	results  *results.MockStore
	settings *settings.MockStore
	notifier *notifier.Mock
	metrics  *metrics.Mock
	pubsub   *pubsub.MockPubSubClient
	// ids are the player ids of U1..U4. Team 1 is U1 (captain) and U2,
	// team 2 is U3 (captain) and U4.
	ids []int64
}

func actor(i int) auth.Actor {
	return auth.Actor{AccountID: fmt.Sprintf("U%d", i)}
}

func setup(t *testing.T, configure func(s *settings.Settings)) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		drafts:   draft.NewMock(),
		roster:   roster.NewMock(),
		results:  results.NewMock(),
		settings: settings.NewMock(),
		notifier: notifier.NewMock(),
		metrics:  metrics.NewMock(),
		pubsub:   pubsub.NewMock(),
	}
	s := settings.Defaults()
	s.IsActive = true
	if configure != nil {
		configure(&s)
	}
	f.settings.Put(key, s)

	var members []draft.Member
	for i := 1; i <= 4; i++ {
		p, err := f.roster.EnsurePlayer(ctx, fmt.Sprintf("U%d", i), fmt.Sprintf("P%d", i))
		require.NoError(t, err)
		require.NoError(t, f.roster.UpsertRegistration(ctx, p.ID, key, roster.Attacker, roster.StatusActive))
		f.ids = append(f.ids, p.ID)
		members = append(members, draft.Member{PlayerID: p.ID, AccountID: p.AccountID, Name: p.Name})
	}
	st := draft.NewState(draft.PhaseVoting, admin.AccountID)
	st.CommitTeams(members[:2], members[2:])
	require.NoError(t, f.drafts.Set(ctx, key, st))

	f.proc = processor.New(f.drafts, f.roster, f.results, f.settings, auth.NewMock(admin.AccountID),
		f.notifier, f.metrics, f.pubsub).WithClock(func() time.Time { return now })
	return f
}

func (f *fixture) state(t *testing.T) *draft.State {
	t.Helper()
	st, err := f.drafts.Get(context.Background(), key)
	require.NoError(t, err)
	return st
}

func (f *fixture) history(t *testing.T, matchID int64) map[int64]results.History {
	t.Helper()
	rows, err := f.results.ListHistory(context.Background(), matchID)
	require.NoError(t, err)
	out := make(map[int64]results.History, len(rows))
	for _, r := range rows {
		out[r.PlayerID] = r
	}
	return out
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in     string
		g1, g2 int
		ok     bool
	}{
		{"3:2", 3, 2, true},
		{"10-0", 10, 0, true},
		{" 1 1 ", 1, 1, true},
		{"3 : 2", 3, 2, true},
		{"3:", 0, 0, false},
		{"a:b", 0, 0, false},
		{"-1:2", 0, 0, false},
		{"3:2:1", 0, 0, false},
	}
	for _, tt := range tests {
		g1, g2, err := processor.ParseScore(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.g1, g1, tt.in)
		assert.Equal(t, tt.g2, g2, tt.in)
	}
}

func TestEnterScoreRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("regular player", func(t *testing.T) {
		f := setup(t, nil)
		_, err := f.proc.EnterScore(ctx, key, actor(1), "1:0")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.Equal(t, draft.PhaseReady, f.state(t).Phase)
	})

	t.Run("malformed score", func(t *testing.T) {
		f := setup(t, nil)
		_, err := f.proc.EnterScore(ctx, key, admin, "one-nil")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, 1, f.metrics.Rejections("enter_score"))
		assert.Empty(t, f.results.CreateMatchCalls)
	})

	t.Run("no draft", func(t *testing.T) {
		f := setup(t, nil)
		require.NoError(t, f.drafts.Clear(ctx, key))
		_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		assert.ErrorIs(t, err, apperrors.ErrNoTeamData)
	})

	t.Run("teams not final", func(t *testing.T) {
		f := setup(t, nil)
		require.NoError(t, f.drafts.Set(ctx, key, draft.NewState(draft.PhaseDrafting, admin.AccountID)))
		_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		assert.ErrorIs(t, err, apperrors.ErrStaleState)
	})

	t.Run("score entered twice", func(t *testing.T) {
		f := setup(t, nil)
		_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		require.NoError(t, err)
		_, err = f.proc.EnterScore(ctx, key, admin, "1:0")
		assert.ErrorIs(t, err, apperrors.ErrStaleState)
		assert.Len(t, f.results.CreateMatchCalls, 1)
	})
}

func TestFullCycleWithDefaults(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	p1, p2, p3, p4 := f.ids[0], f.ids[1], f.ids[2], f.ids[3]

	st, err := f.proc.EnterScore(ctx, key, admin, "2:1")
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseScoring, st.Phase)
	assert.Equal(t, 3, st.Scoring.Total)
	require.Len(t, f.results.CreateMatchCalls, 1)
	assert.Equal(t, now.Truncate(time.Minute), f.results.CreateMatchCalls[0].PlayedAt)
	matchID := st.MatchID

	h := f.history(t, matchID)
	require.Len(t, h, 4)
	assert.Equal(t, "1", h[p2].Team)
	assert.Equal(t, "2", h[p4].Team)
	assert.True(t, h[p1].IsCaptain)
	assert.False(t, h[p2].IsCaptain)
	require.Len(t, f.notifier.SendScoringPromptCalls, 1)
	assert.Equal(t, 1, f.notifier.SendScoringPromptCalls[0].Goal)

	_, err = f.proc.PickScorer(ctx, key, admin, p2)
	require.NoError(t, err)
	_, err = f.proc.ToggleAutogoal(ctx, key, admin)
	require.NoError(t, err)
	_, err = f.proc.PickScorer(ctx, key, admin, p4)
	require.NoError(t, err)
	_, err = f.proc.PickScorer(ctx, key, admin, 999)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	st, err = f.proc.PickScorer(ctx, key, admin, p3)
	require.NoError(t, err)

	// Cards are off by default, so the rating phase opens for both teams.
	assert.Equal(t, draft.PhaseRating, st.Phase)
	assert.Len(t, f.notifier.SendRatingPromptCalls, 2)
	h = f.history(t, matchID)
	assert.Equal(t, 1, h[p2].Goals)
	assert.Equal(t, 1, h[p4].Autogoals)
	assert.Zero(t, h[p4].Goals)
	assert.Equal(t, 1, h[p3].Goals)

	_, err = f.proc.StartTeamRating(ctx, key, actor(2), p1)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = f.proc.StartTeamRating(ctx, key, actor(1), p1)
	require.NoError(t, err)
	_, err = f.proc.RatePick(ctx, key, actor(1), p1, p2)
	require.NoError(t, err)
	st, err = f.proc.PickDefender(ctx, key, actor(1), p1, p1)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1}, st.RatedTeams)

	// The admin rates for team 2.
	_, err = f.proc.StartTeamRating(ctx, key, admin, p3)
	require.NoError(t, err)
	_, err = f.proc.RatePick(ctx, key, admin, p3, p4)
	require.NoError(t, err)
	st, err = f.proc.PickDefender(ctx, key, admin, p3, p4)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseAwaitingPayment, st.Phase, "nobody has paid yet")
	assert.Empty(t, f.notifier.SendPaymentReportCalls, "no cost is configured, so no report")

	for i := 1; i <= 3; i++ {
		require.NoError(t, f.proc.SetPayment(ctx, key, actor(i), f.ids[i-1], roster.Claimed))
	}
	require.NotNil(t, f.state(t))
	require.NoError(t, f.proc.SetPayment(ctx, key, actor(4), p4, roster.Claimed))

	h = f.history(t, matchID)
	assert.Equal(t, 1, h[p2].Points)
	assert.Equal(t, 1, h[p4].Points)
	assert.Zero(t, h[p1].Points)
	assert.True(t, h[p1].BestDefender)
	assert.True(t, h[p4].BestDefender)

	assert.Nil(t, f.state(t))
	regs, err := f.roster.ListRegistrations(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, regs)
	s, err := f.settings.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, s.IsActive)

	require.Len(t, f.notifier.SendMatchFinishedCalls, 1)
	assert.Equal(t, "2:1", f.notifier.SendMatchFinishedCalls[0].Score)
	assert.Equal(t, 1, f.notifier.SendMatchFinishedCalls[0].SeasonNumber)
	require.Len(t, f.pubsub.Sent(pubsub.EventMatchFinished), 1)
	ev := f.pubsub.Sent(pubsub.EventMatchFinished)[0].(pubsub.MatchFinished)
	assert.Equal(t, matchID, ev.MatchID)
	assert.Equal(t, 1, f.metrics.MatchesFinished())
	assert.Equal(t, 1, f.metrics.MatchesRecorded())
}

func TestDuplicateMatch(t *testing.T) {
	ctx := context.Background()
	existingAt := now.Add(-2 * time.Minute)

	seed := func(t *testing.T, f *fixture) int64 {
		id, err := f.results.CreateMatch(ctx, results.NewMatch{Key: key, PlayedAt: existingAt, Score: "0:0"})
		require.NoError(t, err)
		return id
	}

	t.Run("cancel", func(t *testing.T) {
		f := setup(t, nil)
		seed(t, f)
		st, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		require.NoError(t, err)
		assert.Equal(t, draft.PhaseDuplicate, st.Phase)
		require.Len(t, f.notifier.SendDuplicatePromptCalls, 1)

		st, err = f.proc.ResolveDuplicate(ctx, key, admin, processor.DecisionCancel)
		require.NoError(t, err)
		assert.Equal(t, draft.PhaseReady, st.Phase)
		assert.Nil(t, st.Pending)
		assert.Len(t, f.results.CreateMatchCalls, 1)

		_, err = f.proc.ResolveDuplicate(ctx, key, admin, processor.DecisionCancel)
		assert.ErrorIs(t, err, apperrors.ErrStaleState)
	})

	t.Run("overwrite", func(t *testing.T) {
		f := setup(t, nil)
		id := seed(t, f)
		_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		require.NoError(t, err)
		st, err := f.proc.ResolveDuplicate(ctx, key, admin, processor.DecisionOverwrite)
		require.NoError(t, err)
		assert.Equal(t, id, st.MatchID)
		assert.Equal(t, draft.PhaseScoring, st.Phase)
		assert.Equal(t, []int64{id}, f.results.OverwriteMatchCalls)
		m, err := f.results.GetMatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "1:0", m.Score)
	})

	t.Run("new", func(t *testing.T) {
		f := setup(t, nil)
		id := seed(t, f)
		_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		require.NoError(t, err)
		st, err := f.proc.ResolveDuplicate(ctx, key, admin, processor.DecisionNew)
		require.NoError(t, err)
		assert.NotEqual(t, id, st.MatchID)
		assert.Len(t, f.results.CreateMatchCalls, 2)
	})

	t.Run("different championship is not a duplicate", func(t *testing.T) {
		f := setup(t, func(s *settings.Settings) {
			cup := "Cup"
			s.Championship = &cup
		})
		seed(t, f)
		st, err := f.proc.EnterScore(ctx, key, admin, "1:0")
		require.NoError(t, err)
		assert.Equal(t, draft.PhaseScoring, st.Phase)
	})
}

func TestGoalTimesAndAssists(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.TrackGoalTimes = true
		s.TrackAssists = true
		s.RatingMode = settings.RatingDisabled
	})
	ctx := context.Background()
	p1, p2, p3 := f.ids[0], f.ids[1], f.ids[2]

	st, err := f.proc.EnterScore(ctx, key, admin, "1:2")
	require.NoError(t, err)
	matchID := st.MatchID

	st, err = f.proc.PickScorer(ctx, key, admin, p2)
	require.NoError(t, err)
	assert.Equal(t, draft.StepMinute, st.Scoring.Step)

	_, err = f.proc.EnterMinute(ctx, key, admin, 131)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.proc.PickAssist(ctx, key, admin, p1)
	assert.ErrorIs(t, err, apperrors.ErrStaleState)

	st, err = f.proc.EnterMinute(ctx, key, admin, 30)
	require.NoError(t, err)
	assert.Equal(t, draft.StepAssist, st.Scoring.Step)
	assert.Equal(t, 30, st.LastMinute)

	_, err = f.proc.PickAssist(ctx, key, admin, p2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	st, err = f.proc.PickAssist(ctx, key, admin, p1)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Scoring.Current)

	// Second goal is a penalty scored earlier than the floor.
	_, err = f.proc.PickScorer(ctx, key, admin, p3)
	require.NoError(t, err)
	st, err = f.proc.EnterMinute(ctx, key, admin, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, st.LastMinute)
	_, err = f.proc.MarkPenalty(ctx, key, admin)
	require.NoError(t, err)

	// An own goal skips the assist prompt.
	_, err = f.proc.ToggleAutogoal(ctx, key, admin)
	require.NoError(t, err)
	_, err = f.proc.PickScorer(ctx, key, admin, p1)
	require.NoError(t, err)
	st, err = f.proc.EnterMinute(ctx, key, admin, 88)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseAwaitingPayment, st.Phase)

	events, err := f.results.ListEvents(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, results.EventGoal, events[0].Type)
	assert.Equal(t, 30, *events[0].Minute)
	require.NotNil(t, events[0].AssistPlayerID)
	assert.Equal(t, p1, *events[0].AssistPlayerID)
	assert.True(t, events[1].IsPenalty)
	assert.Nil(t, events[1].AssistPlayerID)
	assert.Equal(t, results.EventAutogoal, events[2].Type)
	assert.Equal(t, p1, events[2].PlayerID)

	h := f.history(t, matchID)
	assert.Equal(t, 1, h[p1].Assists)
	assert.Equal(t, 1, h[p1].Autogoals)
}

func TestNoAssist(t *testing.T) {
	f := setup(t, func(s *settings.Settings) { s.TrackAssists = true })
	ctx := context.Background()

	_, err := f.proc.EnterScore(ctx, key, admin, "1:0")
	require.NoError(t, err)
	st, err := f.proc.PickScorer(ctx, key, admin, f.ids[0])
	require.NoError(t, err)
	assert.Equal(t, draft.StepAssist, st.Scoring.Step)
	st, err = f.proc.NoAssist(ctx, key, admin)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseRating, st.Phase)
}

func TestCards(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.TrackCards = true
		s.TrackCardTimes = true
	})
	ctx := context.Background()
	p1, p4 := f.ids[0], f.ids[3]

	st, err := f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseCards, st.Phase, "a goalless match skips attribution")
	matchID := st.MatchID

	_, err = f.proc.PickCardColor(ctx, key, admin, draft.Red)
	assert.ErrorIs(t, err, apperrors.ErrStaleState)
	_, err = f.proc.PickCardPlayer(ctx, key, admin, p4)
	require.NoError(t, err)
	_, err = f.proc.PickCardColor(ctx, key, admin, draft.Card("blue"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	st, err = f.proc.PickCardColor(ctx, key, admin, draft.Red)
	require.NoError(t, err)
	assert.Equal(t, draft.CardPickMinute, st.Cards.Step)
	st, err = f.proc.EnterCardMinute(ctx, key, admin, 80)
	require.NoError(t, err)
	assert.Equal(t, draft.CardPickPlayer, st.Cards.Step)
	assert.Equal(t, 80, st.LastMinute)

	_, err = f.proc.PickCardPlayer(ctx, key, admin, p1)
	require.NoError(t, err)
	_, err = f.proc.PickCardColor(ctx, key, admin, draft.Yellow)
	require.NoError(t, err)
	st, err = f.proc.FinishCards(ctx, key, admin)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseRating, st.Phase)
	assert.Nil(t, st.Cards)

	h := f.history(t, matchID)
	assert.Equal(t, 1, h[p4].RedCards)
	assert.Equal(t, 1, h[p1].YellowCards)
	events, err := f.results.ListEvents(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, results.EventRedCard, events[0].Type)
	assert.Equal(t, 80, *events[0].Minute)
	assert.Equal(t, results.EventYellowCard, events[1].Type)
	assert.Nil(t, events[1].Minute)
}

func TestRankedPointsForLargerTeam(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(s *settings.Settings) { s.TrackBestDefender = false })

	// Rebuild the teams as 4 against 1 to rate three teammates.
	p5, err := f.roster.EnsurePlayer(ctx, "U5", "P5")
	require.NoError(t, err)
	st := f.state(t)
	members := st.Members()
	team1 := []draft.Member{members[0], members[1], members[2], members[3]}
	st.CommitTeams(team1, []draft.Member{{PlayerID: p5.ID, AccountID: "U5"}})
	require.NoError(t, f.drafts.Set(ctx, key, st))

	_, err = f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	captain := f.ids[0]
	_, err = f.proc.StartTeamRating(ctx, key, actor(1), captain)
	require.NoError(t, err)
	for _, id := range []int64{f.ids[3], f.ids[1], f.ids[2]} {
		_, err = f.proc.RatePick(ctx, key, actor(1), captain, id)
		require.NoError(t, err)
	}
	st = f.state(t)
	h := f.history(t, st.MatchID)
	assert.Equal(t, 3, h[f.ids[3]].Points)
	assert.Equal(t, 2, h[f.ids[1]].Points)
	assert.Equal(t, 1, h[f.ids[2]].Points)
	assert.Equal(t, []int64{captain}, st.RatedTeams)

	_, err = f.proc.RatePick(ctx, key, actor(1), captain, f.ids[2])
	assert.ErrorIs(t, err, apperrors.ErrStaleState)

	// A one-player team is rated as soon as it starts.
	st, err = f.proc.StartTeamRating(ctx, key, actor(5), p5.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseAwaitingPayment, st.Phase)
}

func TestPaymentGate(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.Cost = 100
		s.RequirePaymentConfirmation = true
		s.RatingMode = settings.RatingDisabled
	})
	ctx := context.Background()

	st, err := f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	assert.Equal(t, draft.PhaseAwaitingPayment, st.Phase)
	assert.True(t, st.RatingsDone)
	require.Len(t, f.notifier.SendPaymentReportCalls, 1)
	report := f.notifier.SendPaymentReportCalls[0]
	assert.Len(t, report.Unpaid, 4)
	assert.Equal(t, 100.0, report.Cost)
	assert.True(t, report.NeedConfirm)

	for i := 1; i <= 4; i++ {
		require.NoError(t, f.proc.SetPayment(ctx, key, actor(i), f.ids[i-1], roster.Claimed))
	}
	assert.NotNil(t, f.state(t), "claims are not enough when confirmation is required")

	assert.ErrorIs(t, f.proc.SetPayment(ctx, key, actor(1), f.ids[0], roster.Confirmed), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.proc.SetPayment(ctx, key, actor(1), f.ids[1], roster.Claimed), apperrors.ErrNotYourAction)
	assert.ErrorIs(t, f.proc.SetPayment(ctx, key, admin, f.ids[1], roster.PaymentState(3)), apperrors.ErrInvalidInput)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.proc.SetPayment(ctx, key, admin, f.ids[i], roster.Confirmed))
	}
	assert.NotNil(t, f.state(t))
	require.NoError(t, f.proc.SetPayment(ctx, key, admin, f.ids[3], roster.Confirmed))

	assert.Nil(t, f.state(t))
	assert.Len(t, f.notifier.SendMatchFinishedCalls, 1)
	regs, err := f.roster.ListRegistrations(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestConfirmAllPayments(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.Cost = 500
		s.CostMode = settings.CostFixedGame
		s.RatingMode = settings.RatingDisabled
	})
	ctx := context.Background()

	_, err := f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	assert.Equal(t, 125.0, f.notifier.SendPaymentReportCalls[0].Cost)

	assert.ErrorIs(t, f.proc.ConfirmAllPayments(ctx, key, actor(1)), apperrors.ErrUnauthorized)
	require.NoError(t, f.proc.ConfirmAllPayments(ctx, key, admin))
	assert.Nil(t, f.state(t))
	assert.Equal(t, 1, f.metrics.MatchesFinished())
}

func TestPaymentBeforeRatingsDoesNotTearDown(t *testing.T) {
	f := setup(t, func(s *settings.Settings) { s.Cost = 100 })
	ctx := context.Background()

	_, err := f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	require.NoError(t, f.proc.ConfirmAllPayments(ctx, key, admin))

	st := f.state(t)
	require.NotNil(t, st)
	assert.Equal(t, draft.PhaseRating, st.Phase)
}

func TestZeroCostStillWaitsForPayments(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.RequirePaymentConfirmation = true
		s.RatingMode = settings.RatingDisabled
	})
	ctx := context.Background()

	st, err := f.proc.EnterScore(ctx, key, admin, "0:0")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, draft.PhaseAwaitingPayment, st.Phase)
	assert.Empty(t, f.notifier.SendPaymentReportCalls)

	for i := 1; i <= 4; i++ {
		require.NoError(t, f.proc.SetPayment(ctx, key, actor(i), f.ids[i-1], roster.Claimed))
	}
	require.NotNil(t, f.state(t), "claims are not enough when confirmation is required")
	regs, err := f.roster.ListRegistrations(ctx, key)
	require.NoError(t, err)
	assert.Len(t, regs, 4)
	assert.Zero(t, f.metrics.MatchesFinished())

	require.NoError(t, f.proc.ConfirmAllPayments(ctx, key, admin))
	assert.Nil(t, f.state(t))
	assert.Equal(t, 1, f.metrics.MatchesFinished())
}
