package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-shutter/internal/shutter"
)

// Status frequencies for the retained status message.
const (
	StatusNever  = "never"
	StatusAlways = "always"
	StatusChange = "change"
)

// Defaults applied when a shutter leaves the value unset.
const (
	defaultDriveTime         = 60 * time.Second
	defaultRecomputeInterval = time.Minute
)

// ShutterConfig describes one controlled roller shutter.
type ShutterConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	Output       OutputConfig       `yaml:"output"`
	Inputs       InputsConfig       `yaml:"inputs"`
	Positions    PositionsConfig    `yaml:"positions"`
	Temperatures TemperaturesConfig `yaml:"temperatures"`
	Illuminance  IlluminanceConfig  `yaml:"illuminance"`
	Schedules    SchedulesConfig    `yaml:"schedules"`
	Shading      ShadingConfig      `yaml:"shading"`

	// AllowNightChange disables the night silence rule.
	AllowNightChange bool `yaml:"allow_night_change"`

	// RecomputeInterval is the periodic re-evaluation interval in seconds.
	// Default: 60
	RecomputeInterval int `yaml:"recompute_interval"`
}

// OutputConfig describes the actuator and the device value range.
type OutputConfig struct {
	// Protocol and Device address the bridge command topic
	// graylogic/command/{protocol}/{device}.
	Protocol string `yaml:"protocol"`
	Device   string `yaml:"device"`

	// Open and Closed are the device values for fully open and fully
	// closed. Default: 100 and 0.
	Open   *float64 `yaml:"open"`
	Closed *float64 `yaml:"closed"`

	// Step quantizes the device value. Default: 1
	Step *float64 `yaml:"step"`

	// DelayMin and DelayMax bound the random delay before a command is
	// sent, in seconds. Both zero sends immediately.
	DelayMin float64 `yaml:"delay_min"`
	DelayMax float64 `yaml:"delay_max"`

	// DriveTime is how long the actuator needs to move, in seconds.
	// Inputs are queued for this long after each command. Default: 60
	DriveTime *float64 `yaml:"drive_time"`

	// StatusFrequency is one of never, always or change. Default: change
	StatusFrequency string `yaml:"status_frequency"`
}

// InputConfig binds an engine input to an MQTT topic. Key selects a field
// of a bridge state message; empty means the whole payload is the value.
type InputConfig struct {
	Topic string `yaml:"topic"`
	Key   string `yaml:"key"`
}

// InputsConfig holds every input a shutter can subscribe to.
type InputsConfig struct {
	OutsideIlluminance InputConfig `yaml:"outside_illuminance"`
	OutsideTemperature InputConfig `yaml:"outside_temperature"`
	InsideTemperature  InputConfig `yaml:"inside_temperature"`
	Window             InputConfig `yaml:"window"`
	SunAzimuth         InputConfig `yaml:"sun_azimuth"`
	SunAltitude        InputConfig `yaml:"sun_altitude"`
	Position           InputConfig `yaml:"position"`
	Weekend            InputConfig `yaml:"weekend"`
}

// ModePositions are the canonical open and closed positions of a mode.
type ModePositions struct {
	Open   *float64 `yaml:"open"`
	Closed *float64 `yaml:"closed"`
}

// PositionsConfig holds the canonical 0-100 positions.
type PositionsConfig struct {
	Morning ModePositions `yaml:"morning"`
	Day     ModePositions `yaml:"day"`
	Evening ModePositions `yaml:"evening"`
	Night   ModePositions `yaml:"night"`

	// NightTilted applies while the window is tilted. Default: 50
	NightTilted *float64 `yaml:"night_tilted"`

	// ShadingClosed applies while shading. Default: 25
	ShadingClosed *float64 `yaml:"shading_closed"`
}

// TemperatureConfig is the temperature band of one mode.
type TemperatureConfig struct {
	Min     *float64 `yaml:"min"`
	Desired *float64 `yaml:"desired"`
	Max     *float64 `yaml:"max"`
}

// TemperaturesConfig holds a temperature band per mode.
type TemperaturesConfig struct {
	Morning TemperatureConfig `yaml:"morning"`
	Day     TemperatureConfig `yaml:"day"`
	Evening TemperatureConfig `yaml:"evening"`
	Night   TemperatureConfig `yaml:"night"`
}

// IlluminanceConfig holds the lux thresholds that start each mode.
// Defaults: morning 25, day 50, evening 50, night 25.
type IlluminanceConfig struct {
	MorningStart *float64 `yaml:"morning_start"`
	DayStart     *float64 `yaml:"day_start"`
	EveningStart *float64 `yaml:"evening_start"`
	NightStart   *float64 `yaml:"night_start"`
}

// ScheduleConfig is a time-of-day text such as "0730" or "7:30p".
type ScheduleConfig struct {
	Workday *string `yaml:"workday"`
	Weekend *string `yaml:"weekend"`
}

// SchedulesConfig holds the four schedule boundaries.
type SchedulesConfig struct {
	NightStop  ScheduleConfig `yaml:"night_stop"`
	DayStart   ScheduleConfig `yaml:"day_start"`
	DayStop    ScheduleConfig `yaml:"day_stop"`
	NightStart ScheduleConfig `yaml:"night_start"`
}

// ShadingConfig is the sun band in which the shutter shades during the day.
type ShadingConfig struct {
	StartIlluminance *float64 `yaml:"start_illuminance"`
	EndIlluminance   *float64 `yaml:"end_illuminance"`
	StartAzimuth     *float64 `yaml:"start_azimuth"`
	EndAzimuth       *float64 `yaml:"end_azimuth"`
	StartAltitude    *float64 `yaml:"start_altitude"`
	EndAltitude      *float64 `yaml:"end_altitude"`
}

// Engine translates the shutter section into the engine policy, applying
// defaults for every unset value.
func (s ShutterConfig) Engine() shutter.Config {
	cfg := shutter.DefaultConfig()

	cfg.Morning = modeConfig(cfg.Morning, s.Positions.Morning, s.Temperatures.Morning)
	cfg.Day = modeConfig(cfg.Day, s.Positions.Day, s.Temperatures.Day)
	cfg.Evening = modeConfig(cfg.Evening, s.Positions.Evening, s.Temperatures.Evening)
	cfg.Night = modeConfig(cfg.Night, s.Positions.Night, s.Temperatures.Night)
	cfg.NightPositionTilted = orDefault(s.Positions.NightTilted, cfg.NightPositionTilted)

	cfg.Shading = shutter.ShadingConfig{
		StartIlluminance: s.Shading.StartIlluminance,
		EndIlluminance:   s.Shading.EndIlluminance,
		StartAzimuth:     s.Shading.StartAzimuth,
		EndAzimuth:       s.Shading.EndAzimuth,
		StartAltitude:    s.Shading.StartAltitude,
		EndAltitude:      s.Shading.EndAltitude,
		PositionClosed:   orDefault(s.Positions.ShadingClosed, cfg.Shading.PositionClosed),
	}

	cfg.MorningStartIlluminance = orDefaultPtr(s.Illuminance.MorningStart, cfg.MorningStartIlluminance)
	cfg.DayStartIlluminance = orDefaultPtr(s.Illuminance.DayStart, cfg.DayStartIlluminance)
	cfg.EveningStartIlluminance = orDefaultPtr(s.Illuminance.EveningStart, cfg.EveningStartIlluminance)
	cfg.NightStartIlluminance = orDefaultPtr(s.Illuminance.NightStart, cfg.NightStartIlluminance)

	cfg.NightStop = shutter.Schedule(s.Schedules.NightStop)
	cfg.DayStart = shutter.Schedule(s.Schedules.DayStart)
	cfg.DayStop = shutter.Schedule(s.Schedules.DayStop)
	cfg.NightStart = shutter.Schedule(s.Schedules.NightStart)

	cfg.Output = shutter.Scaler{
		Open:   orDefault(s.Output.Open, cfg.Output.Open),
		Closed: orDefault(s.Output.Closed, cfg.Output.Closed),
		Step:   orDefault(s.Output.Step, cfg.Output.Step),
	}
	cfg.AllowNightChange = s.AllowNightChange

	return cfg
}

// DriveTime returns how long inputs stay queued after a command.
func (s ShutterConfig) DriveTime() time.Duration {
	if s.Output.DriveTime == nil {
		return defaultDriveTime
	}
	return seconds(*s.Output.DriveTime)
}

// DelayRange returns the bounds of the random delay before a command.
func (s ShutterConfig) DelayRange() (time.Duration, time.Duration) {
	return seconds(s.Output.DelayMin), seconds(s.Output.DelayMax)
}

// Recompute returns the periodic re-evaluation interval.
func (s ShutterConfig) Recompute() time.Duration {
	if s.RecomputeInterval <= 0 {
		return defaultRecomputeInterval
	}
	return time.Duration(s.RecomputeInterval) * time.Second
}

// StatusFrequency returns the status frequency with its default applied.
func (s ShutterConfig) StatusFrequency() string {
	if s.Output.StatusFrequency == "" {
		return StatusChange
	}
	return s.Output.StatusFrequency
}

// validate returns the problems of shutter i.
func (s *ShutterConfig) validate(i int) []string {
	var errs []string
	prefix := fmt.Sprintf("shutters[%d]", i)

	if s.ID == "" {
		errs = append(errs, prefix+".id is required")
	}
	if s.Output.Device == "" {
		errs = append(errs, prefix+".output.device is required")
	}
	if s.Output.Protocol == "" {
		errs = append(errs, prefix+".output.protocol is required")
	}
	if s.Output.DriveTime != nil && *s.Output.DriveTime < 0 {
		errs = append(errs, prefix+".output.drive_time must not be negative")
	}
	if s.Output.DelayMin < 0 || s.Output.DelayMax < 0 {
		errs = append(errs, prefix+".output delays must not be negative")
	}
	if s.Output.DelayMin > s.Output.DelayMax {
		errs = append(errs, prefix+".output.delay_min must not exceed delay_max")
	}
	if s.Output.Open != nil && s.Output.Closed != nil && *s.Output.Open == *s.Output.Closed {
		errs = append(errs, prefix+".output.open and closed must differ")
	}
	if s.Output.Step != nil && *s.Output.Step < 0 {
		errs = append(errs, prefix+".output.step must not be negative")
	}
	switch s.Output.StatusFrequency {
	case "", StatusNever, StatusAlways, StatusChange:
	default:
		errs = append(errs, fmt.Sprintf("%s.output.status_frequency %q must be never, always, or change",
			prefix, s.Output.StatusFrequency))
	}
	if s.RecomputeInterval < 0 {
		errs = append(errs, prefix+".recompute_interval must not be negative")
	}

	for name, v := range map[string]*float64{
		"positions.morning.open":   s.Positions.Morning.Open,
		"positions.morning.closed": s.Positions.Morning.Closed,
		"positions.day.open":       s.Positions.Day.Open,
		"positions.day.closed":     s.Positions.Day.Closed,
		"positions.evening.open":   s.Positions.Evening.Open,
		"positions.evening.closed": s.Positions.Evening.Closed,
		"positions.night.open":     s.Positions.Night.Open,
		"positions.night.closed":   s.Positions.Night.Closed,
		"positions.night_tilted":   s.Positions.NightTilted,
		"positions.shading_closed": s.Positions.ShadingClosed,
	} {
		if v != nil && (*v < 0 || *v > 100) {
			errs = append(errs, fmt.Sprintf("%s.%s must be between 0 and 100", prefix, name))
		}
	}

	// Messages are routed by exact topic, so wildcards would never match.
	for name, in := range map[string]InputConfig{
		"outside_illuminance": s.Inputs.OutsideIlluminance,
		"outside_temperature": s.Inputs.OutsideTemperature,
		"inside_temperature":  s.Inputs.InsideTemperature,
		"window":              s.Inputs.Window,
		"sun_azimuth":         s.Inputs.SunAzimuth,
		"sun_altitude":        s.Inputs.SunAltitude,
		"position":            s.Inputs.Position,
		"weekend":             s.Inputs.Weekend,
	} {
		if strings.ContainsAny(in.Topic, "+#") {
			errs = append(errs, fmt.Sprintf("%s.inputs.%s.topic %q must not contain wildcards", prefix, name, in.Topic))
		}
	}

	return errs
}

func modeConfig(base shutter.ModeConfig, pos ModePositions, temp TemperatureConfig) shutter.ModeConfig {
	return shutter.ModeConfig{
		PositionOpen:   orDefault(pos.Open, base.PositionOpen),
		PositionClosed: orDefault(pos.Closed, base.PositionClosed),
		Temperature: shutter.TemperatureBand{
			Min:     temp.Min,
			Desired: temp.Desired,
			Max:     temp.Max,
		},
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultPtr(v, def *float64) *float64 {
	if v == nil {
		return def
	}
	return v
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
