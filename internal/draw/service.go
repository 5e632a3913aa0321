// Package draw turns the active registrations of a chat into teams, either
// through balanced variants put to a vote or through a captain draft.
package draw

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/balancer"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/charmbracelet/log"
	"github.com/elliotchance/pie/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/pool"
)

// DefaultVariants is the number of splits offered for voting.
const DefaultVariants = 3

// Request configures an automatic draw.
type Request struct {
	Mode     balancer.Mode `json:"mode" validate:"omitempty,oneof=all gk none"`
	Captains []int64       `json:"captains" validate:"omitempty,len=2"`
	// Variants is the number of splits to offer. One commits the split directly.
	Variants int `json:"variants" validate:"omitempty,min=1,max=5"`
}

// Service runs draws for all chats.
type Service struct {
	roster   roster.Store
	results  results.Store
	drafts   draft.Store
	settings settings.Store
	auth     auth.Authorizer
	notifier notifier.Notifier
	metrics  metrics.Metrics
	params   balancer.Params
	events   pubsub.PubSubClient

	// mu guards rng and entropy, which are not safe for concurrent use.
	mu      sync.Mutex
	rng     *rand.Rand
	entropy io.Reader
	now     func() time.Time
}

// NewService creates a draw Service. All randomness of every draw is derived from rng.
func NewService(r roster.Store, res results.Store, d draft.Store, s settings.Store, a auth.Authorizer,
	n notifier.Notifier, m metrics.Metrics, rng *rand.Rand, params balancer.Params) *Service {
	return &Service{
		roster:   r,
		results:  res,
		drafts:   d,
		settings: s,
		auth:     a,
		notifier: n,
		metrics:  m,
		params:   params,
		rng:      rng,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(rng.Int63())), 0),
		now:      time.Now,
	}
}

// WithEvents publishes a teams-committed event whenever a draw fixes the teams.
func (s *Service) WithEvents(ps pubsub.PubSubClient) *Service {
	s.events = ps
	return s
}

// inProgress reports whether a match result is being recorded, which a new draw must not overwrite.
func inProgress(st *draft.State) bool {
	if st == nil {
		return false
	}
	switch st.Phase {
	case draft.PhaseDuplicate, draft.PhaseScoring, draft.PhaseCards, draft.PhaseRating, draft.PhaseAwaitingPayment:
		return true
	}
	return false
}

func (s *Service) active(ctx context.Context, key chat.Key) ([]roster.Registration, error) {
	regs, err := s.roster.ListRegistrations(ctx, key)
	if err != nil {
		return nil, err
	}
	active := pie.Filter(regs, func(r roster.Registration) bool { return r.Status == roster.StatusActive })
	if len(active) < 2 {
		return nil, apperrors.Invalidf("need at least 2 active players, have %d", len(active))
	}
	return active, nil
}

func toPlayer(r roster.Registration) balancer.Player {
	return balancer.Player{
		ID:          r.PlayerID,
		Position:    r.Position,
		Attack:      r.Profile.Attack,
		Defense:     r.Profile.Defense,
		Speed:       r.Profile.Speed,
		Goalkeeping: r.Profile.Goalkeeping,
	}
}

func toMember(r roster.Registration, ovr float64) draft.Member {
	return draft.Member{
		PlayerID:  r.PlayerID,
		AccountID: r.Player.AccountID,
		Name:      r.Name(),
		Position:  r.Position,
		OVR:       ovr,
	}
}

type indexed struct {
	index   int
	variant draft.Variant
}

// StartVoting balances the active players into req.Variants splits generated
// concurrently, each from its own seed, and opens a vote over them.
func (s *Service) StartVoting(ctx context.Context, key chat.Key, admin auth.Actor, req Request) (*draft.State, error) {
	start := time.Now()
	if err := auth.Require(ctx, s.auth, admin, key); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = balancer.ModeAll
	}
	if req.Variants <= 0 {
		req.Variants = DefaultVariants
	}
	if len(req.Captains) != 0 && len(req.Captains) != 2 {
		return nil, apperrors.Invalidf("pick exactly two captains")
	}

	active, err := s.active(ctx, key)
	if err != nil {
		return nil, err
	}
	if req.Mode == balancer.ModeGK {
		gks := pie.Filter(active, func(r roster.Registration) bool { return r.Position == roster.Goalkeeper })
		if len(gks) < 2 {
			return nil, apperrors.Invalidf("goalkeeper mode needs 2 goalkeepers, have %d", len(gks))
		}
	}

	byID := make(map[int64]roster.Registration, len(active))
	players := make([]balancer.Player, 0, len(active))
	for _, r := range active {
		byID[r.PlayerID] = r
		players = append(players, toPlayer(r))
	}

	specs := s.params.Variants(req.Variants)
	if pie.Any(specs, func(v balancer.VariantSpec) bool { return v.UseHistory }) {
		history, err := s.results.PointsHistory(ctx, key, pie.Keys(byID))
		if err != nil {
			return nil, err
		}
		for i := range players {
			players[i].Points = history[players[i].ID]
		}
	}

	seeds := s.seeds(len(specs))
	p := pool.NewWithResults[indexed]().WithErrors()
	for i, spec := range specs {
		p.Go(func() (indexed, error) {
			b := balancer.New(rand.New(rand.NewSource(seeds[i])), s.params)
			res, err := b.Balance(players, balancer.Options{
				Mode:       req.Mode,
				UseHistory: spec.UseHistory,
				Shuffle:    spec.Shuffle,
				Captains:   req.Captains,
			})
			if err != nil {
				return indexed{}, err
			}
			return indexed{index: i, variant: draft.Variant{
				Label:  spec.Label,
				Team1:  members(res.Team1, byID, len(req.Captains) == 2),
				Team2:  members(res.Team2, byID, len(req.Captains) == 2),
				Score1: res.Score1,
				Score2: res.Score2,
			}}, nil
		})
	}
	generated, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(generated, func(i, j int) bool { return generated[i].index < generated[j].index })
	variants := make([]draft.Variant, len(generated))
	for i, g := range generated {
		variants[i] = g.variant
		variants[i].ID = s.newID()
	}

	st, err := s.drafts.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
		if inProgress(cur) {
			return nil, apperrors.Stalef("a match result is being recorded")
		}
		st := draft.NewState(draft.PhaseVoting, admin.AccountID)
		if len(variants) == 1 {
			st.CommitTeams(variants[0].Team1, variants[0].Team2)
			return st, nil
		}
		st.Variants = variants
		return st, nil
	})
	if err != nil {
		return nil, err
	}

	kind := "vote"
	if st.Committed() {
		kind = "auto"
	}
	s.metrics.IncDraws(kind)
	s.metrics.ObserveOperationDuration("draw", time.Since(start).Seconds())
	log.Info("Draw started", "chat", key, "admin", admin.AccountID, "mode", req.Mode, "variants", len(variants), "players", len(active))

	if st.Committed() {
		s.publish(ctx, key, st, variants[0].ID)
		s.report(ctx, key, s.notifier.SendTeamsCommitted(ctx, key, st, variants[0].ID))
	} else {
		s.report(ctx, key, s.notifier.SendVariants(ctx, key, st.Variants))
	}
	return st, nil
}

// members converts balancer output to team members. Without fixed captains
// the highest rated member leads the team.
func members(team []balancer.Rated, byID map[int64]roster.Registration, seeded bool) []draft.Member {
	out := make([]draft.Member, 0, len(team))
	lead := 0
	for i, p := range team {
		out = append(out, toMember(byID[p.ID], p.OVR))
		if p.OVR > team[lead].OVR {
			lead = i
		}
	}
	if !seeded && lead > 0 {
		out[0], out[lead] = out[lead], out[0]
	}
	return out
}

// StartDraft opens a captain draft over the active players.
func (s *Service) StartDraft(ctx context.Context, key chat.Key, admin auth.Actor, captains []int64) (*draft.State, error) {
	if err := auth.Require(ctx, s.auth, admin, key); err != nil {
		return nil, err
	}
	if len(captains) != 2 {
		return nil, apperrors.Invalidf("pick exactly two captains")
	}
	active, err := s.active(ctx, key)
	if err != nil {
		return nil, err
	}

	var caps [2]draft.Member
	var found [2]bool
	others := make([]draft.Member, 0, len(active))
	for _, r := range active {
		m := toMember(r, balancer.OVR(toPlayer(r), balancer.ModeAll))
		switch r.PlayerID {
		case captains[0]:
			caps[0], found[0] = m, true
		case captains[1]:
			caps[1], found[1] = m, true
		default:
			others = append(others, m)
		}
	}
	for i, ok := range found {
		if !ok {
			return nil, apperrors.Invalidf("captain %d is not an active player", captains[i])
		}
	}

	st, err := s.drafts.Update(ctx, key, func(cur *draft.State) (*draft.State, error) {
		if inProgress(cur) {
			return nil, apperrors.Stalef("a match result is being recorded")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return draft.StartManual(s.rng, admin.AccountID, caps[0], caps[1], others)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDraws("manual")
	log.Info("Captain draft started", "chat", key, "admin", admin.AccountID, "captains", captains, "pool", len(others))
	s.announce(ctx, key, st)
	return st, nil
}

// Pick drafts playerID for the captain whose turn it is.
func (s *Service) Pick(ctx context.Context, key chat.Key, actor auth.Actor, playerID int64) (*draft.State, error) {
	st, err := s.drafts.Update(ctx, key, func(st *draft.State) (*draft.State, error) {
		if st == nil {
			return nil, apperrors.ErrNoTeamData
		}
		if err := st.Pick(actor.AccountID, playerID); err != nil {
			return nil, err
		}
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Player picked", "chat", key, "actor", actor.AccountID, "player", playerID, "phase", st.Phase)
	s.announce(ctx, key, st)
	return st, nil
}

// Clear tears down the in-flight match of key unconditionally.
func (s *Service) Clear(ctx context.Context, key chat.Key, admin auth.Actor) error {
	if err := auth.Require(ctx, s.auth, admin, key); err != nil {
		return err
	}
	if err := s.drafts.Clear(ctx, key); err != nil {
		return err
	}
	if err := s.roster.ClearRegistrations(ctx, key); err != nil {
		return err
	}
	if err := s.settings.Set(ctx, key, "is_active", "0"); err != nil {
		return err
	}
	log.Info("Chat cleared", "chat", key, "admin", admin.AccountID)
	return nil
}

func (s *Service) announce(ctx context.Context, key chat.Key, st *draft.State) {
	if st.Phase == draft.PhaseReady {
		s.publish(ctx, key, st, "")
		s.report(ctx, key, s.notifier.SendTeamsCommitted(ctx, key, st, ""))
		return
	}
	s.report(ctx, key, s.notifier.SendDraftStatus(ctx, key, st))
}

func (s *Service) publish(ctx context.Context, key chat.Key, st *draft.State, variantID string) {
	if s.events == nil {
		return
	}
	team1, team2 := pubsub.CommittedTeams(st)
	ev := pubsub.NewTeamsCommitted(key, team1, team2, variantID, s.now())
	if err := s.events.SendMessage(ctx, pubsub.EventTeamsCommitted, ev); err != nil {
		log.Error("Failed to publish teams-committed", "chat", key, "error", err)
		return
	}
	s.metrics.IncEventsPublished(string(pubsub.EventTeamsCommitted))
}

func (s *Service) report(_ context.Context, key chat.Key, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Failed to announce draw", "chat", key, "error", err)
	}
}

func (s *Service) seeds(n int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, n)
	for i := range out {
		out[i] = s.rng.Int63()
	}
	return out
}

func (s *Service) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}
