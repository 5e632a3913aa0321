package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type setter func(s *Settings, value string) error

var fields = map[string]setter{
	"player_count": intField(func(s *Settings, v int) { s.PlayerCount = v }),
	"cost": func(s *Settings, v string) error {
		f, err := ParseAmount(v)
		if err != nil {
			return err
		}
		s.Cost = f
		return nil
	},
	"cost_mode":   func(s *Settings, v string) error { s.CostMode = CostMode(v); return nil },
	"rating_mode": func(s *Settings, v string) error { s.RatingMode = RatingMode(v); return nil },
	"skill_level": func(s *Settings, v string) error { s.SkillLabel = v; return nil },
	"championship_name": func(s *Settings, v string) error {
		if v == "" {
			s.Championship = nil
			return nil
		}
		s.Championship = &v
		return nil
	},
	"track_goals":                  boolField(func(s *Settings, v bool) { s.TrackGoals = v }),
	"track_goal_times":             boolField(func(s *Settings, v bool) { s.TrackGoalTimes = v }),
	"track_assists":                boolField(func(s *Settings, v bool) { s.TrackAssists = v }),
	"track_cards":                  boolField(func(s *Settings, v bool) { s.TrackCards = v }),
	"track_card_times":             boolField(func(s *Settings, v bool) { s.TrackCardTimes = v }),
	"track_best_defender":          boolField(func(s *Settings, v bool) { s.TrackBestDefender = v }),
	"core_team_mode":               boolField(func(s *Settings, v bool) { s.CoreTeamMode = v }),
	"require_payment_confirmation": boolField(func(s *Settings, v bool) { s.RequirePaymentConfirmation = v }),
	"remind_after_game":            boolField(func(s *Settings, v bool) { s.RemindAfterGame = v }),
	"is_active":                    boolField(func(s *Settings, v bool) { s.IsActive = v }),
	"match_times": func(s *Settings, v string) error {
		if v != "" {
			if _, err := parseWeekly(v); err != nil {
				return err
			}
		}
		s.MatchTimes = v
		return nil
	},
	"timezone": func(s *Settings, v string) error {
		if _, err := parseOffset(v); err != nil {
			return err
		}
		s.Timezone = v
		return nil
	},
}

// Names lists every settable key.
func Names() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

func intField(apply func(*Settings, int)) setter {
	return func(s *Settings, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return apperrors.Invalidf("not an integer: %q", v)
		}
		apply(s, n)
		return nil
	}
}

func boolField(apply func(*Settings, bool)) setter {
	return func(s *Settings, v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes":
			apply(s, true)
		case "0", "false", "off", "no", "":
			apply(s, false)
		default:
			return apperrors.Invalidf("not a flag: %q", v)
		}
		return nil
	}
}

// apply sets one named field and validates the result.
func apply(ctx context.Context, s *Settings, name, value string) error {
	set, ok := fields[name]
	if !ok {
		return apperrors.Invalidf("unknown setting %q", name)
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	if err := validate.StructCtx(ctx, *s); err != nil {
		return fmt.Errorf("%w: setting %s: %v", apperrors.ErrInvalidInput, name, err)
	}
	return nil
}

// ParseAmount extracts the first number from a cost string like "7000 rub" or "12,5".
func ParseAmount(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "-" {
		return 0, nil
	}
	start := strings.IndexFunc(v, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0, apperrors.Invalidf("no amount in %q", v)
	}
	end := start
	for end < len(v) && (v[end] >= '0' && v[end] <= '9' || v[end] == '.' || v[end] == ',') {
		end++
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v[start:end], ",", "."), 64)
	if err != nil {
		return 0, apperrors.Invalidf("bad amount %q", v)
	}
	return f, nil
}
