package settings

import (
	"strconv"
	"strings"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
)

type weekly struct {
	day    time.Weekday
	hour   int
	minute int
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

// parseWeekly parses "tue 21:00" or a comma separated list of such slots.
func parseWeekly(v string) ([]weekly, error) {
	var out []weekly
	for _, part := range strings.Split(v, ",") {
		fields := strings.Fields(strings.ToLower(part))
		if len(fields) != 2 {
			return nil, apperrors.Invalidf("bad match time %q", part)
		}
		day, ok := weekdays[fields[0][:min(3, len(fields[0]))]]
		if !ok {
			return nil, apperrors.Invalidf("bad weekday %q", fields[0])
		}
		hh, mm, ok := strings.Cut(fields[1], ":")
		if !ok {
			return nil, apperrors.Invalidf("bad clock %q", fields[1])
		}
		h, herr := strconv.Atoi(hh)
		m, merr := strconv.Atoi(mm)
		if herr != nil || merr != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return nil, apperrors.Invalidf("bad clock %q", fields[1])
		}
		out = append(out, weekly{day: day, hour: h, minute: m})
	}
	return out, nil
}

// parseOffset parses "GMT+3", "GMT-5" or "UTC" into a fixed zone.
func parseOffset(v string) (*time.Location, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	rest, ok := strings.CutPrefix(v, "GMT")
	if !ok {
		rest, ok = strings.CutPrefix(v, "UTC")
	}
	if !ok {
		return nil, apperrors.Invalidf("bad timezone %q", v)
	}
	if rest == "" {
		return time.UTC, nil
	}
	hours, err := strconv.Atoi(rest)
	if err != nil || hours < -12 || hours > 14 {
		return nil, apperrors.Invalidf("bad timezone %q", v)
	}
	return time.FixedZone(v, hours*3600), nil
}

// LastKickoff returns the most recent scheduled kickoff at or before now, in UTC.
// Without a schedule it falls back to now truncated to the minute.
func (s Settings) LastKickoff(now time.Time) time.Time {
	slots, err := parseWeekly(s.MatchTimes)
	if s.MatchTimes == "" || err != nil {
		return now.UTC().Truncate(time.Minute)
	}
	loc, err := parseOffset(s.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	var best time.Time
	for _, slot := range slots {
		back := (int(local.Weekday()) - int(slot.day) + 7) % 7
		y, mo, d := local.AddDate(0, 0, -back).Date()
		at := time.Date(y, mo, d, slot.hour, slot.minute, 0, 0, loc)
		if at.After(local) {
			at = at.AddDate(0, 0, -7)
		}
		if at.After(best) {
			best = at
		}
	}
	return best.UTC()
}
