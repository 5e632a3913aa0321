// Package payment decides when everyone has paid for a match and what each
// player owes.
package payment

import (
	"math"

	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/elliotchance/pie/v2"
)

// IsComplete reports whether every active registrant reached the required
// payment state: confirmed when admins must confirm, otherwise at least claimed.
func IsComplete(regs []roster.Registration, requireConfirmation bool) bool {
	bar := roster.Claimed
	if requireConfirmation {
		bar = roster.Confirmed
	}
	return pie.All(Active(regs), func(r roster.Registration) bool { return r.Payment >= bar })
}

// Active returns the registrations that take part in the match.
func Active(regs []roster.Registration) []roster.Registration {
	return pie.Filter(regs, func(r roster.Registration) bool { return r.Status == roster.StatusActive })
}

// PlayerCost is what one of active players owes. A fixed game cost is split
// and rounded up to one decimal.
func PlayerCost(s settings.Settings, active int) float64 {
	if !s.CostIsSet() {
		return 0
	}
	if s.CostMode == settings.CostFixedGame {
		if active <= 0 {
			return s.Cost
		}
		return math.Ceil(s.Cost/float64(active)*10) / 10
	}
	return s.Cost
}

// Split groups active registrations by payment state.
func Split(regs []roster.Registration) (unpaid, claimed, confirmed []roster.Registration) {
	for _, r := range Active(regs) {
		switch r.Payment {
		case roster.Confirmed:
			confirmed = append(confirmed, r)
		case roster.Claimed:
			claimed = append(claimed, r)
		default:
			unpaid = append(unpaid, r)
		}
	}
	return unpaid, claimed, confirmed
}
