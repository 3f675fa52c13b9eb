package shutter

import (
	"strconv"
	"time"
)

// ResolveTime parses loose time-of-day text into an instant on the
// calendar day of ref, in ref's location.
//
// Only digits are significant, plus a 'p' anywhere marking afternoon:
//
//	"7"     → 07:00     (1 digit: H)
//	"22"    → 22:00     (2 digits: HH)
//	"730"   → 07:30     (3 digits: HMM)
//	"07:30" → 07:30     (4 digits: HHMM)
//	"7:30p" → 19:30
//
// An hour outside 0..23 becomes 0 and a minute above 59 becomes 0.
//
// Returns:
//   - time.Time: the resolved instant
//   - bool: false when the text holds no digits or more than four
func ResolveTime(text string, ref time.Time) (time.Time, bool) {
	digits := make([]byte, 0, 4)
	afternoon := false
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == 'p' || c == 'P':
			afternoon = true
		}
	}

	var hourText, minuteText string
	switch len(digits) {
	case 1, 2:
		hourText = string(digits)
	case 3:
		hourText, minuteText = string(digits[:1]), string(digits[1:])
	case 4:
		hourText, minuteText = string(digits[:2]), string(digits[2:])
	default:
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(hourText) //nolint:errcheck // digits only
	minute := 0
	if minuteText != "" {
		minute, _ = strconv.Atoi(minuteText) //nolint:errcheck // digits only
	}

	if afternoon && hour >= 1 && hour <= 11 {
		hour += 12
	}
	if hour < 1 || hour > 23 {
		hour = 0
	}
	if minute > 59 {
		minute = 0
	}

	y, m, d := ref.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, ref.Location()), true
}

// SelectTime picks the workday or weekend text for ref and resolves it.
// A day kind without its own text has no boundary.
func SelectTime(workday, weekend *string, isWeekend bool, ref time.Time) (time.Time, bool) {
	text := workday
	if isWeekend {
		text = weekend
	}
	if text == nil {
		return time.Time{}, false
	}
	return ResolveTime(*text, ref)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// boundaries holds the four resolved schedule instants of one day.
// A nil entry means the rule is inactive.
type boundaries struct {
	NightStop  *time.Time
	DayStart   *time.Time
	DayStop    *time.Time
	NightStart *time.Time
}

// next returns the earliest boundary strictly after now, or the zero time.
func (b boundaries) next(now time.Time) time.Time {
	var best time.Time
	for _, t := range []*time.Time{b.NightStop, b.DayStart, b.DayStop, b.NightStart} {
		if t == nil || !t.After(now) {
			continue
		}
		if best.IsZero() || t.Before(best) {
			best = *t
		}
	}
	return best
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
