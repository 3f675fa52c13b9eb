package shutter

import (
	"math"
	"strings"
	"time"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp manual overrides when no fixed
// time is set. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// Engine holds the decision state of one shutter.
//
// All state is in memory and lives as long as the Engine. Callers must
// serialise access; see the package documentation.
type Engine struct {
	cfg        Config
	clock      func() time.Time
	properties map[string]string

	mode             Mode
	modeReason       string
	modeStartedAt    time.Time
	special          Special
	specialReason    string
	specialStartedAt time.Time

	position        *float64
	manualPosition  *float64
	manualStartedAt time.Time
	fixedTime       *time.Time

	outsideIlluminance *float64
	outsideTemperature *float64
	insideTemperature  *float64
	sunAzimuth         *float64
	sunAltitude        *float64
	window             Window
	windowChanged      bool
	weekend            *bool

	paused bool
	queue  []mutation
}

// New creates an Engine for cfg.
//
// Parameters:
//   - cfg: per-shutter policy, copied and never modified
//   - opts: optional settings such as WithClock
//
// Returns:
//   - *Engine: engine with no mode and no committed position
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		clock:      time.Now,
		properties: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the policy the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetOutsideIlluminance sets the outside illuminance in lux. nil means unknown.
func (e *Engine) SetOutsideIlluminance(v *float64) {
	e.submit(outsideIlluminanceSet{value: cloneFloat(v)})
}

// SetOutsideTemperature sets the outside temperature. nil means unknown.
func (e *Engine) SetOutsideTemperature(v *float64) {
	e.submit(outsideTemperatureSet{value: cloneFloat(v)})
}

// SetInsideTemperature sets the inside temperature. nil means unknown.
func (e *Engine) SetInsideTemperature(v *float64) {
	e.submit(insideTemperatureSet{value: cloneFloat(v)})
}

// SetWindow sets the window contact state from text.
// Values other than open, closed or tilted are treated as unknown.
func (e *Engine) SetWindow(state string) {
	e.submit(windowSet{value: ParseWindow(state)})
}

// SetSunAzimuth sets the sun azimuth in degrees. nil means unknown.
func (e *Engine) SetSunAzimuth(v *float64) {
	e.submit(sunAzimuthSet{value: cloneFloat(v)})
}

// SetSunAltitude sets the sun altitude in degrees. nil means unknown.
func (e *Engine) SetSunAltitude(v *float64) {
	e.submit(sunAltitudeSet{value: cloneFloat(v)})
}

// SetManualPosition records an externally commanded position in device
// units. nil clears an active override.
func (e *Engine) SetManualPosition(v *float64) {
	e.submit(manualPositionSet{value: cloneFloat(v)})
}

// SetWeekend overrides weekend detection. nil restores calendar detection.
func (e *Engine) SetWeekend(v *bool) {
	var c *bool
	if v != nil {
		b := *v
		c = &b
	}
	e.submit(weekendSet{value: c})
}

// SetFixedTime replaces the evaluation instant of every following Update.
// nil restores the caller supplied instant. Applies immediately, even
// while paused.
func (e *Engine) SetFixedTime(t *time.Time) {
	if t == nil {
		e.fixedTime = nil
		return
	}
	c := *t
	e.fixedTime = &c
}

// FixedTime returns the fixed evaluation instant, if one is set.
func (e *Engine) FixedTime() (time.Time, bool) {
	if e.fixedTime == nil {
		return time.Time{}, false
	}
	return *e.fixedTime, true
}

// SetProperty overrides a schedule text at runtime. nil removes the
// override. Keys are listed by PropertyKeys; unknown keys are stored but
// never consulted.
func (e *Engine) SetProperty(key string, value *string) {
	if value == nil {
		delete(e.properties, key)
		return
	}
	e.properties[key] = *value
}

// Property returns the runtime override for key.
func (e *Engine) Property(key string) (string, bool) {
	v, ok := e.properties[key]
	return v, ok
}

// Pause defers every following setter until the next Update after Unpause.
func (e *Engine) Pause() {
	e.paused = true
}

// Unpause lifts the pause. Queued mutations are applied by the next Update.
func (e *Engine) Unpause() {
	e.paused = false
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	return e.paused
}

// Pending returns the number of queued mutations.
func (e *Engine) Pending() int {
	return len(e.queue)
}

// Clear resets the decision state, sensors, weekend override, pause flag
// and queue. Configuration and runtime properties are kept.
func (e *Engine) Clear() {
	*e = Engine{
		cfg:        e.cfg,
		clock:      e.clock,
		properties: e.properties,
	}
}

// Update runs one evaluation pass.
//
// While paused the pass is a no-op. Otherwise queued mutations are applied
// first, in arrival order, then the mode is classified and the matching
// policy runs. The manual override is arbitrated last.
//
// Parameters:
//   - now: evaluation instant, replaced by the fixed time when set
//
// Returns:
//   - Decision: Output is set only when the committed position changed
func (e *Engine) Update(now time.Time) Decision {
	if e.paused {
		return Decision{Previous: cloneFloat(e.position), Position: cloneFloat(e.position)}
	}

	e.drain()

	if e.fixedTime != nil {
		now = *e.fixedTime
	}

	bounds := e.boundaries(now)
	decision := Decision{
		Previous: cloneFloat(e.position),
		Wakeup:   bounds.next(now),
	}

	mode := classifyMode(modeInput{
		Now:           now,
		Bounds:        bounds,
		Illuminance:   e.outsideIlluminance,
		Thresholds:    e.cfg.thresholds(),
		Current:       e.mode,
		CurrentReason: e.modeReason,
		StartedAt:     e.modeStartedAt,
	})
	modeChanged := mode.Mode != e.mode
	if modeChanged {
		e.modeStartedAt = now
	}
	e.mode, e.modeReason = mode.Mode, mode.Reason

	previous := e.special
	if modeChanged {
		previous = SpecialNone
	}

	var result PolicyResult
	switch e.mode {
	case ModeDay:
		result = evaluateDay(dayInput{
			Band:        e.cfg.Shading,
			Temperature: e.cfg.Day.Temperature,
			Open:        e.cfg.Day.PositionOpen,
			Shading:     previous == SpecialShade,
			Illuminance: e.outsideIlluminance,
			Azimuth:     e.sunAzimuth,
			Altitude:    e.sunAltitude,
			Outside:     e.outsideTemperature,
			Inside:      e.insideTemperature,
		})
	case ModeMorning, ModeEvening, ModeNight:
		result = evaluateTwilight(twilightInput{
			Mode:             e.mode,
			Config:           e.cfg.mode(e.mode),
			Tilted:           e.cfg.NightPositionTilted,
			Window:           e.window,
			WindowChanged:    e.windowChanged,
			ModeChanged:      modeChanged,
			AllowNightChange: e.cfg.AllowNightChange,
			Committed:        e.position,
			Previous:         previous,
			Inside:           e.insideTemperature,
			Outside:          e.outsideTemperature,
		})
	default:
		e.windowChanged = false
		decision.Position = cloneFloat(e.position)
		return decision
	}
	e.windowChanged = false

	if result.Special != e.special {
		e.specialStartedAt = now
	}
	e.special, e.specialReason = result.Special, result.Reason

	target := e.arbitrate(result.Position, modeChanged)
	if e.position != nil && *e.position == target {
		decision.Position = cloneFloat(e.position)
		return decision
	}

	e.position = &target
	decision.Position = cloneFloat(e.position)
	if out := e.cfg.Output.Scale(target); !math.IsNaN(out) {
		decision.Output = &out
	}
	return decision
}

// Mode returns the classified mode, or ModeManual while an override is
// active.
func (e *Engine) Mode() Mode {
	if e.manualPosition != nil {
		return ModeManual
	}
	return e.mode
}

// AutomaticMode returns the classified mode regardless of any override.
func (e *Engine) AutomaticMode() Mode {
	return e.mode
}

// Special returns the active special, empty while an override is active.
func (e *Engine) Special() Special {
	if e.manualPosition != nil {
		return SpecialNone
	}
	return e.special
}

// ModeReason returns why the mode was chosen, empty while an override is
// active.
func (e *Engine) ModeReason() string {
	if e.manualPosition != nil {
		return ""
	}
	return e.modeReason
}

// SpecialReason returns why the special was chosen, empty while an
// override is active.
func (e *Engine) SpecialReason() string {
	if e.manualPosition != nil {
		return ""
	}
	return e.specialReason
}

// Position returns the committed canonical position, nil before the first
// evaluation.
func (e *Engine) Position() *float64 {
	return cloneFloat(e.position)
}

// Weekend reports whether the weekend schedule applies to ref.
// The override wins, then the fixed time replaces ref.
func (e *Engine) Weekend(ref time.Time) bool {
	if e.weekend != nil {
		return *e.weekend
	}
	if e.fixedTime != nil {
		ref = *e.fixedTime
	}
	return IsWeekend(ref)
}

// Summary returns a one-line status such as
// "[day+shade⇒25] time ≥ 08:00 & altitude > 20".
func (e *Engine) Summary() string {
	var b strings.Builder
	b.WriteByte('[')
	mode := e.Mode()
	if mode == ModeUnset {
		b.WriteString("none")
	} else {
		b.WriteString(string(mode))
	}
	if special := e.Special(); special != SpecialNone {
		b.WriteByte('+')
		b.WriteString(string(special))
	}
	b.WriteString("⇒")
	if e.position == nil {
		b.WriteString("none")
	} else {
		b.WriteString(formatNumber(*e.position))
	}
	b.WriteByte(']')

	reasons := make([]string, 0, 2)
	for _, r := range []string{e.ModeReason(), e.SpecialReason()} {
		if r != "" {
			reasons = append(reasons, r)
		}
	}
	if len(reasons) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(reasons, " & "))
	}
	return b.String()
}

// State returns a snapshot for status emission. ref decides the weekend
// flag.
func (e *Engine) State(ref time.Time) State {
	var fixed *time.Time
	if e.fixedTime != nil {
		t := *e.fixedTime
		fixed = &t
	}
	return State{
		Mode:               e.Mode(),
		AutomaticMode:      e.mode,
		ModeReason:         e.ModeReason(),
		ModeStartedAt:      cloneTime(e.modeStartedAt),
		Special:            e.Special(),
		SpecialReason:      e.SpecialReason(),
		SpecialStartedAt:   cloneTime(e.specialStartedAt),
		Position:           cloneFloat(e.position),
		ManualPosition:     cloneFloat(e.manualPosition),
		ManualStartedAt:    cloneTime(e.manualStartedAt),
		FixedTime:          fixed,
		OutsideIlluminance: cloneFloat(e.outsideIlluminance),
		OutsideTemperature: cloneFloat(e.outsideTemperature),
		InsideTemperature:  cloneFloat(e.insideTemperature),
		Window:             e.window,
		SunAzimuth:         cloneFloat(e.sunAzimuth),
		SunAltitude:        cloneFloat(e.sunAltitude),
		Weekend:            e.Weekend(ref),
		Paused:             e.paused,
		Pending:            len(e.queue),
		Summary:            e.Summary(),
	}
}

func (e *Engine) now() time.Time {
	if e.fixedTime != nil {
		return *e.fixedTime
	}
	return e.clock()
}

// boundaries resolves the four schedule instants on the day of now.
func (e *Engine) boundaries(now time.Time) boundaries {
	weekend := e.Weekend(now)
	resolve := func(s Schedule, workdayKey, weekendKey string) *time.Time {
		t, ok := SelectTime(e.scheduleText(workdayKey, s.Workday), e.scheduleText(weekendKey, s.Weekend), weekend, now)
		if !ok {
			return nil
		}
		return &t
	}
	return boundaries{
		NightStop:  resolve(e.cfg.NightStop, PropertyNightStopWorkday, PropertyNightStopWeekend),
		DayStart:   resolve(e.cfg.DayStart, PropertyDayStartWorkday, PropertyDayStartWeekend),
		DayStop:    resolve(e.cfg.DayStop, PropertyDayStopWorkday, PropertyDayStopWeekend),
		NightStart: resolve(e.cfg.NightStart, PropertyNightStartWorkday, PropertyNightStartWeekend),
	}
}

func (e *Engine) scheduleText(key string, static *string) *string {
	if v, ok := e.properties[key]; ok {
		return &v
	}
	return static
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
