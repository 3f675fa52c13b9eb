package shutter

import (
	"testing"
	"time"
)

// Monday.
var refDay = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, time.UTC)
}

func TestResolveTime(t *testing.T) {
	tests := []struct {
		text   string
		want   time.Time
		wantOK bool
	}{
		{"730", at(7, 30), true},
		{"730p", at(19, 30), true},
		{"25", at(0, 0), true},
		{"7", at(7, 0), true},
		{"22", at(22, 0), true},
		{"07:30", at(7, 30), true},
		{"7:30 pm", at(19, 30), true},
		{"11:59p", at(23, 59), true},
		{"12p", at(12, 0), true},
		{"0p", at(0, 0), true},
		{"1199", at(11, 0), true},
		{"2400", at(0, 0), true},
		{"", time.Time{}, false},
		{"noon", time.Time{}, false},
		{"12345", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ResolveTime(tt.text, refDay)
			if ok != tt.wantOK {
				t.Fatalf("ResolveTime(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ResolveTime(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveTimeKeepsDateAndLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ref := time.Date(2024, time.December, 31, 23, 59, 0, 0, loc)

	got, ok := ResolveTime("0815", ref)
	if !ok {
		t.Fatal("ResolveTime() ok = false")
	}
	want := time.Date(2024, time.December, 31, 8, 15, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Errorf("ResolveTime() = %v, want %v", got, want)
	}
}

func TestSelectTime(t *testing.T) {
	workday := String("0600")
	weekend := String("0800")

	tests := []struct {
		name      string
		workday   *string
		weekend   *string
		isWeekend bool
		want      time.Time
		wantOK    bool
	}{
		{"workday", workday, weekend, false, at(6, 0), true},
		{"weekend", workday, weekend, true, at(8, 0), true},
		{"weekend without weekend text", workday, nil, true, time.Time{}, false},
		{"workday ignores weekend text", nil, weekend, false, time.Time{}, false},
		{"nothing set", nil, nil, true, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTime(tt.workday, tt.weekend, tt.isWeekend, refDay)
			if ok != tt.wantOK {
				t.Fatalf("SelectTime() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("SelectTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	for offset, want := range map[int]bool{0: false, 4: false, 5: true, 6: true} {
		day := refDay.AddDate(0, 0, offset)
		if got := IsWeekend(day); got != want {
			t.Errorf("IsWeekend(%s) = %v, want %v", day.Weekday(), got, want)
		}
	}
}

func TestBoundariesNext(t *testing.T) {
	six, eight, eighteen := at(6, 0), at(8, 0), at(18, 0)
	b := boundaries{NightStop: &six, DayStart: &eight, DayStop: &eighteen}

	if got := b.next(at(5, 0)); !got.Equal(six) {
		t.Errorf("next(05:00) = %v, want %v", got, six)
	}
	if got := b.next(at(6, 0)); !got.Equal(eight) {
		t.Errorf("next(06:00) = %v, want %v", got, eight)
	}
	if got := b.next(at(19, 0)); !got.IsZero() {
		t.Errorf("next(19:00) = %v, want zero", got)
	}
}
