package balancer

// Params are the tunable constants of the balancer. They are read from the
// environment by the config package; DefaultParams matches the shipped tuning.
type Params struct {
	// FlipBand is the running-total difference under which a placement may be inverted.
	FlipBand float64 `env:"BALANCE_FLIP_BAND" envDefault:"20"`
	// FlipChance is the probability of inverting a placement inside FlipBand.
	FlipChance float64 `env:"BALANCE_FLIP_CHANCE" envDefault:"0.3"`
	// HistoryWeight is the share of the blended OVR that comes from past points.
	HistoryWeight float64 `env:"BALANCE_HISTORY_WEIGHT" envDefault:"0.3"`
	// HistoryScale converts average rating points to the OVR scale.
	HistoryScale float64 `env:"BALANCE_HISTORY_SCALE" envDefault:"20"`
	// PlaceholderMin and PlaceholderMax bound the random average used for
	// players without history.
	PlaceholderMin float64 `env:"BALANCE_PLACEHOLDER_MIN" envDefault:"0.5"`
	PlaceholderMax float64 `env:"BALANCE_PLACEHOLDER_MAX" envDefault:"2.5"`
	// VariantNoise is the shuffle factor of each voting variant beyond the first.
	VariantNoise []float64 `env:"BALANCE_VARIANT_NOISE" envDefault:"5,15" envSeparator:","`
}

// DefaultParams returns the shipped tuning.
func DefaultParams() Params {
	return Params{
		FlipBand:       20,
		FlipChance:     0.3,
		HistoryWeight:  0.3,
		HistoryScale:   20,
		PlaceholderMin: 0.5,
		PlaceholderMax: 2.5,
		VariantNoise:   []float64{5, 15},
	}
}

// VariantSpec describes how one voting variant is generated.
type VariantSpec struct {
	Label      string
	UseHistory bool
	Shuffle    float64
}

// Variants returns count variant specs: a stats-only split followed by
// history-blended splits with increasing noise.
func (p Params) Variants(count int) []VariantSpec {
	specs := []VariantSpec{{Label: "stats"}}
	for i, noise := range p.VariantNoise {
		label := "stats+history"
		if i > 0 {
			label = "stats+history+noise"
		}
		specs = append(specs, VariantSpec{Label: label, UseHistory: true, Shuffle: noise})
	}
	if count < len(specs) {
		specs = specs[:max(count, 1)]
	}
	return specs
}
