package shutter

import (
	"encoding/json"
	"testing"
	"time"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func scheduledConfig() Config {
	cfg := DefaultConfig()
	cfg.NightStop = Schedule{Workday: String("0600"), Weekend: String("0800")}
	cfg.DayStart = Schedule{Workday: String("0800"), Weekend: String("1000")}
	cfg.DayStop = Schedule{Workday: String("1800")}
	cfg.NightStart = Schedule{Workday: String("2200")}
	return cfg
}

func shadingConfig() Config {
	cfg := scheduledConfig()
	cfg.Shading = shadingBand()
	cfg.Day.Temperature = TemperatureBand{Desired: Float(22)}
	return cfg
}

func assertPosition(t *testing.T, e *Engine, want float64) {
	t.Helper()
	got := e.Position()
	if got == nil {
		t.Fatalf("Position() = nil, want %v", want)
	}
	if *got != want {
		t.Fatalf("Position() = %v, want %v", *got, want)
	}
}

func assertOutput(t *testing.T, d Decision, want float64) {
	t.Helper()
	if d.Output == nil {
		t.Fatalf("Decision.Output = nil, want %v", want)
	}
	if *d.Output != want {
		t.Fatalf("Decision.Output = %v, want %v", *d.Output, want)
	}
}

func assertNoOutput(t *testing.T, d Decision) {
	t.Helper()
	if d.Output != nil {
		t.Fatalf("Decision.Output = %v, want nil", *d.Output)
	}
}

// ─── Update ─────────────────────────────────────────────────────────────────

func TestEngineFirstUpdate(t *testing.T) {
	e := New(scheduledConfig())

	d := e.Update(at(9, 0))
	assertOutput(t, d, 100)
	assertPosition(t, e, 100)
	if d.Previous != nil {
		t.Errorf("Decision.Previous = %v, want nil", *d.Previous)
	}
	if e.Mode() != ModeDay || e.ModeReason() != "time ≥ 08:00" {
		t.Errorf("mode = %s %q, want day %q", e.Mode(), e.ModeReason(), "time ≥ 08:00")
	}
	if !d.Wakeup.Equal(at(18, 0)) {
		t.Errorf("Decision.Wakeup = %v, want 18:00", d.Wakeup)
	}
}

func TestEngineUpdateIdempotent(t *testing.T) {
	e := New(shadingConfig())
	e.SetSunAltitude(Float(30))
	e.SetSunAzimuth(Float(180))
	e.SetOutsideIlluminance(Float(50000))

	assertOutput(t, e.Update(at(10, 0)), 25)
	assertNoOutput(t, e.Update(at(10, 0)))
}

func TestEngineUndecidedMode(t *testing.T) {
	e := New(Config{Output: Scaler{Open: 100, Step: 1}})

	d := e.Update(at(9, 0))
	assertNoOutput(t, d)
	if e.Mode() != ModeUnset || e.Position() != nil {
		t.Errorf("Mode() = %q Position() = %v, want unset", e.Mode(), e.Position())
	}
}

func TestEngineScalesOutput(t *testing.T) {
	cfg := scheduledConfig()
	cfg.Output = Scaler{Open: 0, Closed: 255, Step: 1}
	cfg.Evening.PositionClosed = 30
	e := New(cfg)

	assertOutput(t, e.Update(at(9, 0)), 0)
	d := e.Update(at(19, 0))
	assertOutput(t, d, 179)
	assertPosition(t, e, 30)
	if d.Previous == nil || *d.Previous != 100 {
		t.Errorf("Decision.Previous = %v, want 100", d.Previous)
	}
}

// Shading with a temperature veto.
func TestEngineShading(t *testing.T) {
	e := New(shadingConfig())
	e.SetSunAltitude(Float(30))
	e.SetSunAzimuth(Float(180))
	e.SetOutsideIlluminance(Float(50000))

	assertOutput(t, e.Update(at(10, 0)), 25)
	if e.Special() != SpecialShade {
		t.Fatalf("Special() = %q, want shade", e.Special())
	}

	e.SetInsideTemperature(Float(18))
	assertOutput(t, e.Update(at(10, 5)), 100)
	if e.Special() != SpecialNone || e.SpecialReason() != "inside temp < 22" {
		t.Errorf("special = %q %q, want none %q", e.Special(), e.SpecialReason(), "inside temp < 22")
	}
}

// A window opened at night is honoured regardless of allowNightChange.
func TestEngineNightWindow(t *testing.T) {
	e := New(scheduledConfig())

	assertOutput(t, e.Update(at(23, 0)), 0)
	if e.Mode() != ModeNight {
		t.Fatalf("Mode() = %q, want night", e.Mode())
	}

	e.SetWindow("closed")
	assertNoOutput(t, e.Update(at(23, 5)))
	if e.SpecialReason() != "window closed" {
		t.Errorf("SpecialReason() = %q, want %q", e.SpecialReason(), "window closed")
	}

	e.SetWindow("open")
	assertOutput(t, e.Update(at(23, 10)), 100)
	if e.Special() != SpecialWindow || e.SpecialReason() != "window open" {
		t.Errorf("special = %q %q, want window open", e.Special(), e.SpecialReason())
	}

	assertNoOutput(t, e.Update(at(23, 15)))
	assertPosition(t, e, 100)
	if e.Special() != SpecialWindow || e.SpecialReason() != "silence" {
		t.Errorf("special = %q %q, want window silence", e.Special(), e.SpecialReason())
	}
}

func TestEngineNightSilenceHoldsPosition(t *testing.T) {
	e := New(scheduledConfig())
	e.SetWindow("closed")
	e.Update(at(22, 30))
	assertPosition(t, e, 0)

	for i, now := range []time.Time{at(23, 0), at(23, 59), at(1, 0).AddDate(0, 0, 1), at(5, 59).AddDate(0, 0, 1)} {
		e.SetOutsideIlluminance(Float(float64(i * 1000)))
		e.SetInsideTemperature(Float(30))
		assertNoOutput(t, e.Update(now))
		assertPosition(t, e, 0)
	}
}

func TestEngineAllowNightChange(t *testing.T) {
	cfg := scheduledConfig()
	cfg.AllowNightChange = true
	cfg.Night.Temperature = TemperatureBand{Max: Float(24)}
	e := New(cfg)

	assertOutput(t, e.Update(at(23, 0)), 0)
	e.SetInsideTemperature(Float(26))
	assertOutput(t, e.Update(at(23, 5)), 100)
	if e.Special() != SpecialCool {
		t.Errorf("Special() = %q, want cool", e.Special())
	}
}

// ─── Manual Override ────────────────────────────────────────────────────────

func TestEngineManualConvergence(t *testing.T) {
	e := New(scheduledConfig())
	e.Update(at(9, 0))

	e.SetManualPosition(Float(100))
	if e.Mode() != ModeDay {
		t.Errorf("Mode() = %q, want day", e.Mode())
	}
	if s := e.State(at(9, 0)); s.ManualPosition != nil {
		t.Errorf("State().ManualPosition = %v, want nil", *s.ManualPosition)
	}
}

func TestEngineManualOverride(t *testing.T) {
	clock := func() time.Time { return at(9, 30) }
	e := New(scheduledConfig(), WithClock(clock))
	e.Update(at(9, 0))

	e.SetManualPosition(Float(40))
	assertPosition(t, e, 40)
	if e.Mode() != ModeManual || e.Special() != SpecialNone || e.ModeReason() != "" {
		t.Errorf("accessors = %q %q %q, want manual with empty reasons", e.Mode(), e.Special(), e.ModeReason())
	}
	if e.AutomaticMode() != ModeDay {
		t.Errorf("AutomaticMode() = %q, want day", e.AutomaticMode())
	}
	s := e.State(at(9, 30))
	if s.ManualStartedAt == nil || !s.ManualStartedAt.Equal(at(9, 30)) {
		t.Errorf("State().ManualStartedAt = %v, want 09:30", s.ManualStartedAt)
	}

	assertNoOutput(t, e.Update(at(10, 0)))
	assertPosition(t, e, 40)
	if e.Mode() != ModeManual {
		t.Errorf("Mode() = %q, want manual", e.Mode())
	}

	// Mode change drops the override.
	assertOutput(t, e.Update(at(19, 0)), 0)
	if e.Mode() != ModeEvening {
		t.Errorf("Mode() = %q, want evening", e.Mode())
	}
}

func TestEngineManualDroppedOnAgreement(t *testing.T) {
	e := New(shadingConfig())
	e.Update(at(10, 0))

	e.SetManualPosition(Float(25))
	if e.Mode() != ModeManual {
		t.Fatalf("Mode() = %q, want manual", e.Mode())
	}

	e.SetSunAltitude(Float(30))
	e.SetSunAzimuth(Float(180))
	e.SetOutsideIlluminance(Float(50000))
	assertNoOutput(t, e.Update(at(10, 5)))
	if e.Mode() != ModeDay || e.Special() != SpecialShade {
		t.Errorf("mode = %q+%q, want day+shade", e.Mode(), e.Special())
	}
}

func TestEngineManualBeforeFirstUpdate(t *testing.T) {
	e := New(scheduledConfig())
	e.SetManualPosition(Float(30))

	assertPosition(t, e, 30)
	if e.Mode() != ModeUnset {
		t.Errorf("Mode() = %q, want unset", e.Mode())
	}
	d := e.Update(at(9, 0))
	assertOutput(t, d, 100)
	if d.Previous == nil || *d.Previous != 30 {
		t.Errorf("Decision.Previous = %v, want 30", d.Previous)
	}
}

func TestEngineManualIgnoresDegenerateRange(t *testing.T) {
	cfg := scheduledConfig()
	cfg.Output = Scaler{Open: 50, Closed: 50}
	e := New(cfg)

	e.SetManualPosition(Float(50))
	if e.Position() != nil {
		t.Errorf("Position() = %v, want nil", *e.Position())
	}
}

func TestEngineManualClear(t *testing.T) {
	e := New(scheduledConfig())
	e.Update(at(9, 0))
	e.SetManualPosition(Float(40))

	e.SetManualPosition(nil)
	if e.Mode() != ModeDay {
		t.Errorf("Mode() = %q, want day", e.Mode())
	}
	assertOutput(t, e.Update(at(9, 5)), 100)
}

// ─── Pause Gate ─────────────────────────────────────────────────────────────

func TestEnginePauseAtomicity(t *testing.T) {
	e := New(scheduledConfig())
	e.Pause()

	e.SetOutsideIlluminance(Float(10))
	e.SetOutsideIlluminance(Float(20))
	e.SetOutsideIlluminance(Float(30))

	if e.Pending() != 3 {
		t.Fatalf("Pending() = %d, want 3", e.Pending())
	}
	if s := e.State(at(9, 0)); s.OutsideIlluminance != nil {
		t.Fatalf("illuminance applied while paused: %v", *s.OutsideIlluminance)
	}

	d := e.Update(at(9, 0))
	assertNoOutput(t, d)
	if e.Pending() != 3 {
		t.Fatalf("Pending() after paused update = %d, want 3", e.Pending())
	}

	e.Unpause()
	if s := e.State(at(9, 0)); s.OutsideIlluminance != nil || e.Pending() != 3 {
		t.Fatal("unpause applied queued mutations")
	}

	e.Update(at(9, 0))
	s := e.State(at(9, 0))
	if s.OutsideIlluminance == nil || *s.OutsideIlluminance != 30 {
		t.Errorf("OutsideIlluminance = %v, want 30", s.OutsideIlluminance)
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", e.Pending())
	}
}

func TestEnginePausedManualPosition(t *testing.T) {
	e := New(scheduledConfig())
	e.Update(at(9, 0))
	e.Pause()

	e.SetManualPosition(Float(40))
	assertPosition(t, e, 100)

	e.Unpause()
	assertPosition(t, e, 100)

	assertNoOutput(t, e.Update(at(9, 5)))
	assertPosition(t, e, 40)
	if e.Mode() != ModeManual {
		t.Errorf("Mode() = %q, want manual", e.Mode())
	}
}

func TestEnginePausedWindowEdge(t *testing.T) {
	e := New(scheduledConfig())
	e.Update(at(23, 0))
	e.Pause()
	e.SetWindow("tilted")
	e.Unpause()

	assertOutput(t, e.Update(at(23, 5)), 50)
	if e.Special() != SpecialWindow || e.SpecialReason() != "window tilted" {
		t.Errorf("special = %q %q, want window tilted", e.Special(), e.SpecialReason())
	}
}

// ─── Schedule Overrides ─────────────────────────────────────────────────────

func TestEngineFixedTime(t *testing.T) {
	e := New(scheduledConfig())
	fixed := at(23, 0)
	e.SetFixedTime(&fixed)

	e.Update(at(9, 0))
	if e.Mode() != ModeNight {
		t.Errorf("Mode() = %q, want night", e.Mode())
	}
	s := e.State(at(9, 0))
	if s.ModeStartedAt == nil || !s.ModeStartedAt.Equal(fixed) {
		t.Errorf("ModeStartedAt = %v, want %v", s.ModeStartedAt, fixed)
	}

	e.SetFixedTime(nil)
	if e.State(at(9, 0)).FixedTime != nil {
		t.Error("FixedTime still set")
	}
}

func TestEngineProperty(t *testing.T) {
	e := New(scheduledConfig())
	e.SetProperty(PropertyDayStartWorkday, String("0700"))

	e.Update(at(7, 30))
	if e.Mode() != ModeDay || e.ModeReason() != "time ≥ 07:00" {
		t.Errorf("mode = %q %q, want day %q", e.Mode(), e.ModeReason(), "time ≥ 07:00")
	}

	e.SetProperty(PropertyDayStartWorkday, nil)
	if _, ok := e.Property(PropertyDayStartWorkday); ok {
		t.Error("property still set after removal")
	}
}

func TestEngineWeekend(t *testing.T) {
	saturday := at(9, 0).AddDate(0, 0, 5)

	e := New(scheduledConfig())
	e.Update(saturday)
	if e.Mode() != ModeMorning || e.ModeReason() != "time ≥ 08:00" {
		t.Errorf("mode = %q %q, want morning on weekend", e.Mode(), e.ModeReason())
	}

	workday := false
	e = New(scheduledConfig())
	e.SetWeekend(&workday)
	e.Update(saturday)
	if e.Mode() != ModeDay {
		t.Errorf("Mode() = %q, want day with weekend override off", e.Mode())
	}
	if e.State(saturday).Weekend {
		t.Error("State().Weekend = true, want false")
	}
}

func TestEngineWeekendWithoutWeekendText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NightStop = Schedule{Workday: String("0600")}

	e := New(cfg)
	e.Update(at(5, 0).AddDate(0, 0, 5))
	if e.Mode() != ModeUnset || e.ModeReason() != "" {
		t.Errorf("mode = %q %q, want unset on a weekend without weekend times", e.Mode(), e.ModeReason())
	}

	e.Update(at(5, 0))
	if e.Mode() != ModeNight {
		t.Errorf("Mode() = %q, want night on a workday", e.Mode())
	}
}

// ─── Status ─────────────────────────────────────────────────────────────────

func TestEngineSummary(t *testing.T) {
	e := New(shadingConfig())
	if got := e.Summary(); got != "[none⇒none]" {
		t.Errorf("Summary() = %q", got)
	}

	e.SetSunAzimuth(Float(180))
	e.Update(at(10, 0))
	want := "[day+shade⇒25] time ≥ 08:00 & 90 < azimuth ≤ 270"
	if got := e.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestEngineStateJSON(t *testing.T) {
	e := New(scheduledConfig())
	e.SetWindow("Open")
	e.Update(at(19, 0))

	data, err := json.Marshal(e.State(at(19, 0)))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got["mode"] != "evening" || got["special"] != "window" || got["window"] != "open" {
		t.Errorf("state = %v", got)
	}
	if got["position"] != 100.0 {
		t.Errorf("position = %v, want 100", got["position"])
	}
}

func TestEngineInvalidWindow(t *testing.T) {
	e := New(scheduledConfig())
	e.SetWindow("ajar")
	e.Update(at(19, 0))
	if s := e.State(at(19, 0)); s.Window != WindowUnknown || s.Special != SpecialNone {
		t.Errorf("window = %q special = %q, want unknown and none", s.Window, s.Special)
	}
}

func TestEngineClear(t *testing.T) {
	e := New(scheduledConfig())
	workday := false
	e.SetWeekend(&workday)
	e.SetProperty(PropertyDayStartWorkday, String("0700"))
	e.SetOutsideIlluminance(Float(100))
	e.Update(at(9, 0))
	e.Pause()
	e.SetInsideTemperature(Float(20))

	e.Clear()

	s := e.State(at(9, 0))
	if s.Mode != ModeUnset || s.Position != nil || s.OutsideIlluminance != nil || s.Paused || s.Pending != 0 {
		t.Errorf("state after Clear() = %+v", s)
	}
	if _, ok := e.Property(PropertyDayStartWorkday); !ok {
		t.Error("Clear() dropped runtime properties")
	}
	if !e.Weekend(at(9, 0).AddDate(0, 0, 5)) {
		t.Error("Clear() kept the weekend override")
	}
	assertOutput(t, e.Update(at(7, 30)), 100)
}
