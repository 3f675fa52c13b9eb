package shutter

import "time"

// thresholds are the illuminance levels that start each mode.
type thresholds struct {
	Morning *float64
	Day     *float64
	Evening *float64
	Night   *float64
}

type modeInput struct {
	Now         time.Time
	Bounds      boundaries
	Illuminance *float64
	Thresholds  thresholds

	Current       Mode
	CurrentReason string
	StartedAt     time.Time
}

func isMorning(t time.Time) bool {
	return t.Hour() < 12
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// classifyMode decides the mode for one pass.
//
// Fixed schedule rules win outright. A non-fixed schedule result may be
// refined by illuminance. When neither decides, the current mode and reason
// are kept. The candidate is then checked against same-day hysteresis.
func classifyMode(in modeInput) ModeResult {
	res, fixed := classifyBySchedule(in)
	if !fixed && in.Illuminance != nil {
		if lux, ok := classifyByIlluminance(in); ok {
			res = lux
		}
	}
	if res.Mode == ModeUnset {
		return ModeResult{Mode: in.Current, Reason: in.CurrentReason}
	}
	return applyHysteresis(in, res)
}

func classifyBySchedule(in modeInput) (ModeResult, bool) {
	b := in.Bounds
	now := in.Now

	if isMorning(now) {
		switch {
		case b.NightStop != nil && now.Before(*b.NightStop):
			return ModeResult{Mode: ModeNight, Reason: "time < " + formatClock(*b.NightStop)}, true
		case b.DayStart != nil && !now.Before(*b.DayStart):
			return ModeResult{Mode: ModeDay, Reason: "time ≥ " + formatClock(*b.DayStart)}, true
		case b.NightStop != nil:
			return ModeResult{Mode: ModeMorning, Reason: "time ≥ " + formatClock(*b.NightStop)}, false
		}
		return ModeResult{}, false
	}

	switch {
	case b.NightStart != nil && !now.Before(*b.NightStart):
		return ModeResult{Mode: ModeNight, Reason: "time ≥ " + formatClock(*b.NightStart)}, true
	case b.DayStop != nil && now.Before(*b.DayStop):
		return ModeResult{Mode: ModeDay, Reason: "time < " + formatClock(*b.DayStop)}, true
	case b.DayStop != nil:
		return ModeResult{Mode: ModeEvening, Reason: "time ≥ " + formatClock(*b.DayStop)}, false
	}
	return ModeResult{}, false
}

// classifyByIlluminance applies the lux thresholds. An unset threshold
// disables its comparison; when no comparison applies ok is false.
func classifyByIlluminance(in modeInput) (ModeResult, bool) {
	lux := *in.Illuminance
	t := in.Thresholds

	if isMorning(in.Now) {
		switch {
		case t.Day != nil && lux >= *t.Day:
			return ModeResult{Mode: ModeDay, Reason: "illuminance ≥ " + formatNumber(*t.Day)}, true
		case t.Morning != nil && lux >= *t.Morning:
			return ModeResult{Mode: ModeMorning, Reason: "illuminance ≥ " + formatNumber(*t.Morning)}, true
		case t.Morning != nil:
			return ModeResult{Mode: ModeNight, Reason: "illuminance < " + formatNumber(*t.Morning)}, true
		}
		return ModeResult{}, false
	}

	switch {
	case t.Night != nil && lux < *t.Night:
		return ModeResult{Mode: ModeNight, Reason: "illuminance < " + formatNumber(*t.Night)}, true
	case t.Evening != nil && lux < *t.Evening:
		return ModeResult{Mode: ModeEvening, Reason: "illuminance < " + formatNumber(*t.Evening)}, true
	case t.Evening != nil:
		return ModeResult{Mode: ModeDay, Reason: "illuminance ≥ " + formatNumber(*t.Evening)}, true
	}
	return ModeResult{}, false
}

// applyHysteresis keeps the current mode when the candidate would move
// backwards within the calendar day the current mode started on.
//
//   - morning: no return to evening or night before noon
//   - day: no return to morning; no evening or night before noon
//   - evening: no return to morning or day
//   - night: no return to evening; no morning or day after noon
func applyHysteresis(in modeInput, candidate ModeResult) ModeResult {
	if candidate.Mode == in.Current || in.StartedAt.IsZero() || !sameDay(in.StartedAt, in.Now) {
		return candidate
	}

	forenoon := isMorning(in.Now)
	hold := false
	switch in.Current {
	case ModeMorning:
		hold = forenoon && (candidate.Mode == ModeEvening || candidate.Mode == ModeNight)
	case ModeDay:
		hold = candidate.Mode == ModeMorning ||
			(forenoon && (candidate.Mode == ModeEvening || candidate.Mode == ModeNight))
	case ModeEvening:
		hold = candidate.Mode == ModeMorning || candidate.Mode == ModeDay
	case ModeNight:
		hold = candidate.Mode == ModeEvening ||
			(!forenoon && (candidate.Mode == ModeMorning || candidate.Mode == ModeDay))
	}

	if hold {
		return ModeResult{Mode: in.Current, Reason: "started at " + formatClock(in.StartedAt.In(in.Now.Location()))}
	}
	return candidate
}
