package shutter

import (
	"strings"
	"time"
)

// Mode is the coarse operating phase of the day.
type Mode string

const (
	ModeUnset   Mode = ""
	ModeMorning Mode = "morning"
	ModeDay     Mode = "day"
	ModeEvening Mode = "evening"
	ModeNight   Mode = "night"

	// ModeManual is reported while an externally commanded position is
	// authoritative. It is never stored as the classified mode.
	ModeManual Mode = "manual"
)

// Special is a secondary override condition layered on top of a mode.
type Special string

const (
	SpecialNone    Special = ""
	SpecialShade   Special = "shade"
	SpecialCool    Special = "cool"
	SpecialWindow  Special = "window"
	SpecialSilence Special = "silence"
)

// Window is the state of the window contact.
type Window string

const (
	WindowUnknown Window = ""
	WindowOpen    Window = "open"
	WindowClosed  Window = "closed"
	WindowTilted  Window = "tilted"
)

// ParseWindow converts contact text into a Window.
// Anything other than open, closed or tilted is WindowUnknown.
func ParseWindow(s string) Window {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case WindowOpen, WindowClosed, WindowTilted:
		return w
	default:
		return WindowUnknown
	}
}

// ModeResult is the outcome of mode classification.
type ModeResult struct {
	Mode   Mode
	Reason string
}

// PolicyResult is the outcome of the day or twilight policy for one pass.
type PolicyResult struct {
	Position float64
	Special  Special
	Reason   string
}

// Decision is the result of a single Update pass.
type Decision struct {
	// Output is the device-scaled position to forward downstream.
	// nil when no device action is required.
	Output *float64

	// Previous and Position are the canonical positions before and after
	// the pass. Either may be nil before the first evaluation.
	Previous *float64
	Position *float64

	// Wakeup is the next resolved schedule boundary strictly after the
	// evaluated instant, or the zero time when there is none today.
	// Callers schedule an Update at this instant so schedule-only
	// transitions fire promptly.
	Wakeup time.Time
}

// Changed reports whether the pass produced a device action.
func (d Decision) Changed() bool {
	return d.Output != nil
}

// State is a point-in-time snapshot of the engine for status emission.
type State struct {
	Mode             Mode       `json:"mode"`
	AutomaticMode    Mode       `json:"automatic_mode"`
	ModeReason       string     `json:"mode_reason,omitempty"`
	ModeStartedAt    *time.Time `json:"mode_started_at,omitempty"`
	Special          Special    `json:"special,omitempty"`
	SpecialReason    string     `json:"special_reason,omitempty"`
	SpecialStartedAt *time.Time `json:"special_started_at,omitempty"`

	Position        *float64   `json:"position"`
	ManualPosition  *float64   `json:"manual_position,omitempty"`
	ManualStartedAt *time.Time `json:"manual_started_at,omitempty"`
	FixedTime       *time.Time `json:"fixed_time,omitempty"`

	OutsideIlluminance *float64 `json:"outside_illuminance,omitempty"`
	OutsideTemperature *float64 `json:"outside_temperature,omitempty"`
	InsideTemperature  *float64 `json:"inside_temperature,omitempty"`
	Window             Window   `json:"window,omitempty"`
	SunAzimuth         *float64 `json:"sun_azimuth,omitempty"`
	SunAltitude        *float64 `json:"sun_altitude,omitempty"`

	Weekend bool   `json:"weekend"`
	Paused  bool   `json:"paused"`
	Pending int    `json:"pending"`
	Summary string `json:"summary"`
}
