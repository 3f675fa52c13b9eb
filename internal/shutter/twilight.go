package shutter

type twilightInput struct {
	Mode   Mode
	Config ModeConfig
	Tilted float64

	Window        Window
	WindowChanged bool
	ModeChanged   bool

	AllowNightChange bool

	// Committed is the last committed canonical position, nil before the
	// first evaluation.
	Committed *float64

	// Previous is the special carried over from the previous pass in this
	// mode, SpecialNone after a mode change.
	Previous Special

	Inside  *float64
	Outside *float64
}

// evaluateTwilight is the policy for night, morning and evening.
//
// Order: silence (night only), window, cooling, then the mode's closed
// position. Cooling overrides a window special.
func evaluateTwilight(in twilightInput) PolicyResult {
	if in.Mode == ModeNight && in.Committed != nil &&
		!in.WindowChanged && !in.ModeChanged && !in.AllowNightChange {
		special := in.Previous
		if special == SpecialNone {
			special = SpecialSilence
		}
		return PolicyResult{Position: *in.Committed, Special: special, Reason: "silence"}
	}

	res := PolicyResult{Position: in.Config.PositionClosed}
	switch in.Window {
	case WindowOpen:
		res = PolicyResult{Position: in.Config.PositionOpen, Special: SpecialWindow, Reason: "window open"}
	case WindowTilted:
		res = PolicyResult{Position: in.Tilted, Special: SpecialWindow, Reason: "window tilted"}
	case WindowClosed:
		if in.WindowChanged {
			res.Reason = "window closed"
		}
	}

	if reason, ok := coolingReason(in); ok {
		return PolicyResult{Position: in.Config.PositionOpen, Special: SpecialCool, Reason: reason}
	}
	return res
}

// coolingReason reports whether the shutter should open to let the room
// cool down.
//
// Staying in cool needs the inside temperature above the desired
// threshold, or above max when no desired threshold is set. Entering needs
// it above max while the outside is unknown or cooler than max.
func coolingReason(in twilightInput) (string, bool) {
	if in.Inside == nil {
		return "", false
	}
	inside := *in.Inside
	band := in.Config.Temperature

	if in.Previous == SpecialCool {
		threshold := band.Desired
		if threshold == nil {
			threshold = band.Max
		}
		if threshold != nil && inside > *threshold {
			return "inside temp > " + formatNumber(*threshold), true
		}
		return "", false
	}

	if band.Max == nil || inside <= *band.Max {
		return "", false
	}
	if in.Outside != nil && *in.Outside >= *band.Max {
		return "", false
	}
	return "inside temp > " + formatNumber(*band.Max), true
}
