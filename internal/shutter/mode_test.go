package shutter

import (
	"testing"
	"time"
)

func fullBounds() boundaries {
	nightStop, dayStart, dayStop, nightStart := at(6, 0), at(8, 0), at(18, 0), at(22, 0)
	return boundaries{NightStop: &nightStop, DayStart: &dayStart, DayStop: &dayStop, NightStart: &nightStart}
}

func defaultThresholds() thresholds {
	cfg := DefaultConfig()
	return cfg.thresholds()
}

func TestClassifyModeSchedule(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		lux        *float64
		wantMode   Mode
		wantReason string
	}{
		{"before night stop", at(5, 0), nil, ModeNight, "time < 06:00"},
		{"after night stop", at(7, 0), nil, ModeMorning, "time ≥ 06:00"},
		{"bright morning refines to day", at(7, 0), Float(100), ModeDay, "illuminance ≥ 50"},
		{"after day start", at(9, 0), Float(0), ModeDay, "time ≥ 08:00"},
		{"afternoon before day stop", at(13, 0), Float(0), ModeDay, "time < 18:00"},
		{"after day stop", at(19, 0), nil, ModeEvening, "time ≥ 18:00"},
		{"dark evening refines to night", at(19, 0), Float(10), ModeNight, "illuminance < 25"},
		{"after night start", at(23, 0), Float(1000), ModeNight, "time ≥ 22:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyMode(modeInput{
				Now:         tt.now,
				Bounds:      fullBounds(),
				Illuminance: tt.lux,
				Thresholds:  defaultThresholds(),
			})
			if got.Mode != tt.wantMode || got.Reason != tt.wantReason {
				t.Errorf("classifyMode() = %+v, want {%s %s}", got, tt.wantMode, tt.wantReason)
			}
		})
	}
}

func TestClassifyModeIlluminance(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		lux        float64
		wantMode   Mode
		wantReason string
	}{
		{"dark morning", at(7, 0), 10, ModeNight, "illuminance < 25"},
		{"dim morning", at(7, 0), 30, ModeMorning, "illuminance ≥ 25"},
		{"bright morning", at(7, 0), 60, ModeDay, "illuminance ≥ 50"},
		{"dark afternoon", at(15, 0), 10, ModeNight, "illuminance < 25"},
		{"dim afternoon", at(15, 0), 30, ModeEvening, "illuminance < 50"},
		{"bright afternoon", at(15, 0), 60, ModeDay, "illuminance ≥ 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lux := tt.lux
			got := classifyMode(modeInput{Now: tt.now, Illuminance: &lux, Thresholds: defaultThresholds()})
			if got.Mode != tt.wantMode || got.Reason != tt.wantReason {
				t.Errorf("classifyMode() = %+v, want {%s %s}", got, tt.wantMode, tt.wantReason)
			}
		})
	}
}

func TestClassifyModeKeepsPreviousWhenUndecided(t *testing.T) {
	got := classifyMode(modeInput{
		Now:           at(15, 0),
		Thresholds:    defaultThresholds(),
		Current:       ModeEvening,
		CurrentReason: "illuminance < 50",
	})
	if got.Mode != ModeEvening || got.Reason != "illuminance < 50" {
		t.Errorf("classifyMode() = %+v, want previous mode kept", got)
	}

	// Unset thresholds disable the illuminance fallback.
	got = classifyMode(modeInput{Now: at(15, 0), Illuminance: Float(5)})
	if got.Mode != ModeUnset {
		t.Errorf("classifyMode() mode = %q, want unset", got.Mode)
	}
}

func TestClassifyModeHysteresis(t *testing.T) {
	yesterday := at(9, 0).AddDate(0, 0, -1)

	tests := []struct {
		name       string
		now        time.Time
		lux        float64
		current    Mode
		startedAt  time.Time
		wantMode   Mode
		wantReason string
	}{
		{"day does not fall back to morning", at(10, 0), 30, ModeDay, at(9, 0), ModeDay, "started at 09:00"},
		{"day does not fall back to night before noon", at(10, 0), 10, ModeDay, at(9, 0), ModeDay, "started at 09:00"},
		{"day may become evening after noon", at(15, 0), 30, ModeDay, at(9, 0), ModeEvening, "illuminance < 50"},
		{"day started yesterday", at(10, 0), 30, ModeDay, yesterday, ModeMorning, "illuminance ≥ 25"},
		{"morning does not fall back to night", at(8, 0), 10, ModeMorning, at(7, 0), ModeMorning, "started at 07:00"},
		{"evening does not return to day", at(17, 30), 60, ModeEvening, at(17, 0), ModeEvening, "started at 17:00"},
		{"night does not regress to evening", at(21, 30), 30, ModeNight, at(21, 0), ModeNight, "started at 21:00"},
		{"night does not jump to day after noon", at(21, 30), 60, ModeNight, at(21, 0), ModeNight, "started at 21:00"},
		{"night may become morning before noon", at(7, 0), 30, ModeNight, at(2, 0), ModeMorning, "illuminance ≥ 25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lux := tt.lux
			got := classifyMode(modeInput{
				Now:         tt.now,
				Illuminance: &lux,
				Thresholds:  defaultThresholds(),
				Current:     tt.current,
				StartedAt:   tt.startedAt,
			})
			if got.Mode != tt.wantMode || got.Reason != tt.wantReason {
				t.Errorf("classifyMode() = %+v, want {%s %s}", got, tt.wantMode, tt.wantReason)
			}
		})
	}
}
