package balancer

import (
	"math"
	"math/rand"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/charmbracelet/log"
	"github.com/elliotchance/pie/v2"
	"gonum.org/v1/gonum/stat"
)

// Mode selects how positions shape the split.
type Mode string

const (
	// ModeAll balances goalkeepers, defenders and attackers separately.
	ModeAll Mode = "all"
	// ModeGK balances goalkeepers separately from everybody else.
	ModeGK Mode = "gk"
	// ModeNone ignores positions.
	ModeNone Mode = "none"
)

// Player is a balancer input.
type Player struct {
	ID          int64
	Position    roster.Position
	Attack      int
	Defense     int
	Speed       int
	Goalkeeping int
	// Points are the rating points earned in previous matches.
	Points []float64
}

// Rated is a player with the effective OVR used for placement.
type Rated struct {
	Player
	OVR float64
}

// Options controls one Balance call.
type Options struct {
	Mode       Mode
	UseHistory bool
	Shuffle    float64
	// Captains, when exactly two, seed team 1 and team 2.
	Captains []int64
}

// Result is a two-team split.
type Result struct {
	Team1  []Rated
	Team2  []Rated
	Score1 float64
	Score2 float64
}

// Balancer splits players into two teams. All randomness comes from rng.
type Balancer struct {
	rng    *rand.Rand
	params Params
}

// New creates a Balancer. rng must not be shared with other goroutines.
func New(rng *rand.Rand, params Params) *Balancer {
	return &Balancer{rng: rng, params: params}
}

// OVR is the base overall rating of p under mode.
func OVR(p Player, mode Mode) float64 {
	avg := float64(p.Attack+p.Defense+p.Speed) / 3
	switch mode {
	case ModeNone:
		return avg
	case ModeGK:
		if p.Position == roster.Goalkeeper {
			return float64(p.Goalkeeping) * 2
		}
		return avg
	default:
		switch p.Position {
		case roster.Goalkeeper:
			return float64(p.Goalkeeping) * 2
		case roster.Attacker:
			return float64(p.Attack)*0.6 + float64(p.Speed)*0.4
		default:
			return float64(p.Defense)*0.7 + float64(p.Speed)*0.3
		}
	}
}

func (b *Balancer) uniform(lo, hi float64) float64 {
	return lo + b.rng.Float64()*(hi-lo)
}

// effective applies the history blend and noise to the base OVR.
func (b *Balancer) effective(p Player, opts Options) float64 {
	ovr := OVR(p, opts.Mode)
	if opts.UseHistory {
		var avg float64
		if len(p.Points) > 0 {
			avg = stat.Mean(p.Points, nil)
		}
		if avg == 0 {
			avg = b.uniform(b.params.PlaceholderMin, b.params.PlaceholderMax)
		}
		w := b.params.HistoryWeight
		ovr = ovr*(1-w) + avg*b.params.HistoryScale*w
	}
	if opts.Shuffle > 0 {
		ovr += b.uniform(-opts.Shuffle, opts.Shuffle)
	}
	return ovr
}

type split struct {
	Result
	capacity int
}

func (s *split) add(team int, p Rated) {
	if team == 1 {
		s.Team1 = append(s.Team1, p)
		s.Score1 += p.OVR
		return
	}
	s.Team2 = append(s.Team2, p)
	s.Score2 += p.OVR
}

func countPosition(team []Rated, pos roster.Position) int {
	return len(pie.Filter(team, func(r Rated) bool { return r.Position == pos }))
}

// Balance partitions players into two teams whose sizes differ by at most one.
func (b *Balancer) Balance(players []Player, opts Options) (Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	rated := pie.Map(players, func(p Player) Rated {
		return Rated{Player: p, OVR: b.effective(p, opts)}
	})

	s := &split{capacity: (len(rated) + 1) / 2}
	rest := rated
	if len(opts.Captains) == 2 {
		if opts.Captains[0] == opts.Captains[1] {
			return Result{}, apperrors.Invalidf("captains must be two different players")
		}
		for i, id := range opts.Captains {
			idx := pie.FindFirstUsing(rest, func(r Rated) bool { return r.ID == id })
			if idx < 0 {
				return Result{}, apperrors.Invalidf("captain %d is not registered", id)
			}
			s.add(i+1, rest[idx])
			rest = append(append([]Rated{}, rest[:idx]...), rest[idx+1:]...)
		}
	}

	if opts.Mode == ModeNone {
		b.placeByScore(s, rest)
	} else {
		for _, group := range b.groups(rest, opts.Mode) {
			b.placeGroup(s, group, opts.Shuffle)
		}
	}

	log.Debug("Balanced teams", "mode", opts.Mode, "history", opts.UseHistory, "shuffle", opts.Shuffle,
		"team1", len(s.Team1), "team2", len(s.Team2), "score1", s.Score1, "score2", s.Score2)
	return s.Result, nil
}

// groups splits players by position, each group shuffled then sorted by OVR
// descending so that exact ties land in random order.
func (b *Balancer) groups(players []Rated, mode Mode) [][]Rated {
	isGK := func(r Rated) bool { return r.Position == roster.Goalkeeper }
	var groups [][]Rated
	if mode == ModeGK {
		groups = [][]Rated{
			pie.Filter(players, isGK),
			pie.FilterNot(players, isGK),
		}
	} else {
		groups = [][]Rated{
			pie.Filter(players, isGK),
			pie.Filter(players, func(r Rated) bool { return r.Position == roster.Defender }),
			pie.Filter(players, func(r Rated) bool { return r.Position != roster.Goalkeeper && r.Position != roster.Defender }),
		}
	}
	for i, g := range groups {
		b.rng.Shuffle(len(g), func(x, y int) { g[x], g[y] = g[y], g[x] })
		groups[i] = pie.SortUsing(g, func(x, y Rated) bool { return x.OVR > y.OVR })
	}
	return groups
}

func (b *Balancer) placeGroup(s *split, group []Rated, shuffle float64) {
	for _, p := range group {
		room1 := len(s.Team1) < s.capacity
		room2 := len(s.Team2) < s.capacity
		c1 := countPosition(s.Team1, p.Position)
		c2 := countPosition(s.Team2, p.Position)

		switch {
		case c1 < c2 && room1:
			s.add(1, p)
		case c2 < c1 && room2:
			s.add(2, p)
		case room1 && !room2:
			s.add(1, p)
		case room2 && !room1:
			s.add(2, p)
		default:
			diff := s.Score1 - s.Score2
			toFirst := diff <= 0
			if shuffle > 0 && math.Abs(diff) < b.params.FlipBand && b.rng.Float64() < b.params.FlipChance {
				toFirst = !toFirst
			}
			if toFirst {
				s.add(1, p)
			} else {
				s.add(2, p)
			}
		}
	}
}

func (b *Balancer) placeByScore(s *split, players []Rated) {
	sorted := pie.SortUsing(players, func(x, y Rated) bool { return x.OVR > y.OVR })
	for _, p := range sorted {
		room1 := len(s.Team1) < s.capacity
		room2 := len(s.Team2) < s.capacity
		switch {
		case room1 && !room2:
			s.add(1, p)
		case room2 && !room1:
			s.add(2, p)
		case s.Score1 <= s.Score2:
			s.add(1, p)
		default:
			s.add(2, p)
		}
	}
}
