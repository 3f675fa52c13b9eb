package shutter

// TemperatureBand holds the optional temperature thresholds of a mode.
type TemperatureBand struct {
	Min     *float64
	Desired *float64
	Max     *float64
}

// ModeConfig holds the positions and temperature band of one mode.
type ModeConfig struct {
	PositionOpen   float64
	PositionClosed float64
	Temperature    TemperatureBand
}

// Schedule holds the time-of-day text of one boundary for workdays and
// weekends. A nil text leaves that day kind without the boundary.
type Schedule struct {
	Workday *string
	Weekend *string
}

// ShadingConfig describes the sun band inside which the day policy shades.
// A missing start falls back to the end value and vice versa.
type ShadingConfig struct {
	StartIlluminance *float64
	EndIlluminance   *float64
	StartAzimuth     *float64
	EndAzimuth       *float64
	StartAltitude    *float64
	EndAltitude      *float64

	// PositionClosed is the position while shading. The day open
	// position applies otherwise.
	PositionClosed float64
}

// Config is the per-shutter policy. It is not modified by the engine.
type Config struct {
	Morning ModeConfig
	Day     ModeConfig
	Evening ModeConfig
	Night   ModeConfig

	NightPositionTilted float64

	Shading ShadingConfig

	MorningStartIlluminance *float64
	DayStartIlluminance     *float64
	EveningStartIlluminance *float64
	NightStartIlluminance   *float64

	NightStop  Schedule
	DayStart   Schedule
	DayStop    Schedule
	NightStart Schedule

	Output Scaler

	// AllowNightChange disables the night silence rule.
	AllowNightChange bool
}

// Property keys accepted by Engine.SetProperty. Each overrides the
// matching schedule text at runtime.
const (
	PropertyNightStopWorkday  = "nightStopTimeWorkday"
	PropertyNightStopWeekend  = "nightStopTimeWeekend"
	PropertyDayStartWorkday   = "dayStartTimeWorkday"
	PropertyDayStartWeekend   = "dayStartTimeWeekend"
	PropertyDayStopWorkday    = "dayStopTimeWorkday"
	PropertyDayStopWeekend    = "dayStopTimeWeekend"
	PropertyNightStartWorkday = "nightStartTimeWorkday"
	PropertyNightStartWeekend = "nightStartTimeWeekend"
)

// PropertyKeys lists every key understood by Engine.SetProperty.
func PropertyKeys() []string {
	return []string{
		PropertyNightStopWorkday, PropertyNightStopWeekend,
		PropertyDayStartWorkday, PropertyDayStartWeekend,
		PropertyDayStopWorkday, PropertyDayStopWeekend,
		PropertyNightStartWorkday, PropertyNightStartWeekend,
	}
}

// DefaultConfig returns the stock policy: every mode opens to 100 and
// closes to 0, night tilts to 50, shading closes to 25 and no schedule
// is set.
func DefaultConfig() Config {
	open := ModeConfig{PositionOpen: 100, PositionClosed: 0}
	return Config{
		Morning:             open,
		Day:                 open,
		Evening:             open,
		Night:               open,
		NightPositionTilted: 50,
		Shading:             ShadingConfig{PositionClosed: 25},

		MorningStartIlluminance: Float(25),
		DayStartIlluminance:     Float(50),
		EveningStartIlluminance: Float(50),
		NightStartIlluminance:   Float(25),
		Output:                  Scaler{Open: 100, Closed: 0, Step: 1},
	}
}

// Float returns a pointer to v. It keeps optional literals short.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

func (c *Config) mode(m Mode) ModeConfig {
	switch m {
	case ModeMorning:
		return c.Morning
	case ModeDay:
		return c.Day
	case ModeEvening:
		return c.Evening
	default:
		return c.Night
	}
}

func (c *Config) thresholds() thresholds {
	return thresholds{
		Morning: c.MorningStartIlluminance,
		Day:     c.DayStartIlluminance,
		Evening: c.EveningStartIlluminance,
		Night:   c.NightStartIlluminance,
	}
}
