package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validShutterYAML = `
site:
  id: "test-site"
  timezone: "UTC"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
shutters:
  - id: "living-room"
    name: "Living Room"
    output:
      protocol: "knx"
      device: "blind-living-01"
      open: 0
      closed: 255
      delay_min: 1
      delay_max: 5
      drive_time: 45
      status_frequency: "always"
    inputs:
      outside_illuminance:
        topic: "graylogic/state/knx/weather-01"
        key: "lux"
      window:
        topic: "graylogic/state/knx/contact-living"
        key: "contact"
    positions:
      night:
        open: 80
      shading_closed: 30
    temperatures:
      day:
        desired: 22
        max: 26
    illuminance:
      day_start: 80
    schedules:
      night_stop:
        workday: "0630"
        weekend: "0830"
      night_start:
        workday: 2200
    shading:
      start_altitude: 20
      end_azimuth: 270
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func validShutter() ShutterConfig {
	return ShutterConfig{
		ID:     "blind-01",
		Output: OutputConfig{Protocol: "knx", Device: "blind-01"},
	}
}

func ptr(v float64) *float64 { return &v }

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validShutterYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if len(cfg.Shutters) != 1 {
		t.Fatalf("len(Shutters) = %d, want 1", len(cfg.Shutters))
	}

	s := cfg.Shutters[0]
	if s.Inputs.Window.Key != "contact" {
		t.Errorf("Inputs.Window.Key = %q, want %q", s.Inputs.Window.Key, "contact")
	}
	if s.Schedules.NightStart.Workday == nil || *s.Schedules.NightStart.Workday != "2200" {
		t.Errorf("Schedules.NightStart.Workday = %v, want 2200", s.Schedules.NightStart.Workday)
	}
	if got := s.DriveTime(); got != 45*time.Second {
		t.Errorf("DriveTime() = %v, want 45s", got)
	}
	if lo, hi := s.DelayRange(); lo != time.Second || hi != 5*time.Second {
		t.Errorf("DelayRange() = %v..%v, want 1s..5s", lo, hi)
	}
	if s.StatusFrequency() != StatusAlways {
		t.Errorf("StatusFrequency() = %q, want %q", s.StatusFrequency(), StatusAlways)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name: "valid config",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Database: DatabaseConfig{Path: "/data/shutter.db"},
				MQTT:     MQTTConfig{QoS: 1},
				Shutters: []ShutterConfig{validShutter()},
			},
		},
		{
			name: "missing site ID",
			config: &Config{
				Site:     SiteConfig{ID: ""},
				Shutters: []ShutterConfig{validShutter()},
			},
			wantErr: "site.id is required",
		},
		{
			name: "unknown timezone",
			config: &Config{
				Site:     SiteConfig{ID: "site-001", Timezone: "Mars/Olympus"},
				Shutters: []ShutterConfig{validShutter()},
			},
			wantErr: "not a known timezone",
		},
		{
			name: "missing database path with history",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				History:  HistoryConfig{Enabled: true},
				Shutters: []ShutterConfig{validShutter()},
			},
			wantErr: "database.path is required",
		},
		{
			name: "invalid QoS",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				MQTT:     MQTTConfig{QoS: 3},
				Shutters: []ShutterConfig{validShutter()},
			},
			wantErr: "mqtt.qos",
		},
		{
			name: "influxdb without url",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				InfluxDB: InfluxDBConfig{Enabled: true},
				Shutters: []ShutterConfig{validShutter()},
			},
			wantErr: "influxdb.url",
		},
		{
			name:    "no shutters",
			config:  &Config{Site: SiteConfig{ID: "site-001"}},
			wantErr: "at least one shutter",
		},
		{
			name: "duplicate shutter",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Shutters: []ShutterConfig{validShutter(), validShutter()},
			},
			wantErr: "is duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestShutterConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*ShutterConfig)
		wantErr string
	}{
		{"missing id", func(s *ShutterConfig) { s.ID = "" }, ".id is required"},
		{"missing device", func(s *ShutterConfig) { s.Output.Device = "" }, "output.device is required"},
		{"missing protocol", func(s *ShutterConfig) { s.Output.Protocol = "" }, "output.protocol is required"},
		{"negative drive time", func(s *ShutterConfig) { s.Output.DriveTime = ptr(-1) }, "drive_time"},
		{"inverted delays", func(s *ShutterConfig) { s.Output.DelayMin, s.Output.DelayMax = 5, 1 }, "delay_min"},
		{"degenerate range", func(s *ShutterConfig) { s.Output.Open, s.Output.Closed = ptr(50), ptr(50) }, "must differ"},
		{"unknown status frequency", func(s *ShutterConfig) { s.Output.StatusFrequency = "sometimes" }, "status_frequency"},
		{"position out of range", func(s *ShutterConfig) { s.Positions.Night.Closed = ptr(120) }, "positions.night.closed"},
		{"wildcard input topic", func(s *ShutterConfig) { s.Inputs.Window.Topic = "home/+/window" }, "inputs.window.topic"},
		{"multi-level wildcard", func(s *ShutterConfig) { s.Inputs.Weekend.Topic = "calendar/#" }, "inputs.weekend.topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validShutter()
			tt.edit(&s)
			errs := s.validate(0)
			if !strings.Contains(strings.Join(errs, "; "), tt.wantErr) {
				t.Errorf("validate() = %v, want containing %q", errs, tt.wantErr)
			}
		})
	}

	if errs := (&ShutterConfig{ID: "x", Output: OutputConfig{Protocol: "knx", Device: "d"}}).validate(0); len(errs) != 0 {
		t.Errorf("validate() = %v, want none", errs)
	}
}

func TestShutterConfig_Engine(t *testing.T) {
	cfg, err := Load(writeConfig(t, validShutterYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	eng := cfg.Shutters[0].Engine()

	if eng.Night.PositionOpen != 80 || eng.Night.PositionClosed != 0 {
		t.Errorf("Night positions = %v/%v, want 80/0", eng.Night.PositionOpen, eng.Night.PositionClosed)
	}
	if eng.Shading.PositionClosed != 30 {
		t.Errorf("Shading.PositionClosed = %v, want 30", eng.Shading.PositionClosed)
	}
	if eng.NightPositionTilted != 50 {
		t.Errorf("NightPositionTilted = %v, want 50", eng.NightPositionTilted)
	}
	if eng.Day.Temperature.Desired == nil || *eng.Day.Temperature.Desired != 22 {
		t.Errorf("Day.Temperature.Desired = %v, want 22", eng.Day.Temperature.Desired)
	}
	if eng.DayStartIlluminance == nil || *eng.DayStartIlluminance != 80 {
		t.Errorf("DayStartIlluminance = %v, want 80", eng.DayStartIlluminance)
	}
	if eng.MorningStartIlluminance == nil || *eng.MorningStartIlluminance != 25 {
		t.Errorf("MorningStartIlluminance = %v, want default 25", eng.MorningStartIlluminance)
	}
	if eng.Output.Open != 0 || eng.Output.Closed != 255 || eng.Output.Step != 1 {
		t.Errorf("Output = %+v, want open 0 closed 255 step 1", eng.Output)
	}
	if eng.Shading.StartAltitude == nil || eng.Shading.EndAltitude != nil {
		t.Errorf("Shading altitude = %v..%v, want start only", eng.Shading.StartAltitude, eng.Shading.EndAltitude)
	}
	if eng.NightStop.Weekend == nil || *eng.NightStop.Weekend != "0830" {
		t.Errorf("NightStop.Weekend = %v, want 0830", eng.NightStop.Weekend)
	}
}

func TestShutterConfig_Defaults(t *testing.T) {
	s := validShutter()

	if got := s.DriveTime(); got != 60*time.Second {
		t.Errorf("DriveTime() = %v, want 60s", got)
	}
	if got := s.Recompute(); got != time.Minute {
		t.Errorf("Recompute() = %v, want 1m", got)
	}
	if got := s.StatusFrequency(); got != StatusChange {
		t.Errorf("StatusFrequency() = %q, want %q", got, StatusChange)
	}

	zero := ptr(0)
	s.Output.DriveTime = zero
	if got := s.DriveTime(); got != 0 {
		t.Errorf("DriveTime() = %v, want 0", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		env   string
		value string
		got   *string
	}{
		{"SHUTTER_SITE_TIMEZONE", "Europe/Berlin", &cfg.Site.Timezone},
		{"SHUTTER_DATABASE_PATH", "/custom/path.db", &cfg.Database.Path},
		{"SHUTTER_MQTT_HOST", "mqtt.example.com", &cfg.MQTT.Broker.Host},
		{"SHUTTER_MQTT_USERNAME", "testuser", &cfg.MQTT.Auth.Username},
		{"SHUTTER_MQTT_PASSWORD", "testpass", &cfg.MQTT.Auth.Password},
		{"SHUTTER_INFLUXDB_URL", "http://influx:8086", &cfg.InfluxDB.URL},
		{"SHUTTER_INFLUXDB_TOKEN", "secret-token", &cfg.InfluxDB.Token},
		{"SHUTTER_LOG_LEVEL", "debug", &cfg.Logging.Level},
	}
	for _, tt := range tests {
		t.Setenv(tt.env, tt.value)
	}

	applyEnvOverrides(cfg)

	for _, tt := range tests {
		if *tt.got != tt.value {
			t.Errorf("%s: field = %q, want %q", tt.env, *tt.got, tt.value)
		}
	}
}

func TestApplyEnvOverrides_EmptyIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("SHUTTER_MQTT_HOST", "")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want default", cfg.MQTT.Broker.Host)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if !cfg.History.Enabled || cfg.History.Retention() != 30*24*time.Hour {
		t.Errorf("defaultConfig History = %+v, want enabled with 30 days", cfg.History)
	}
}

func TestConfig_Shutter(t *testing.T) {
	cfg := &Config{Shutters: []ShutterConfig{validShutter()}}

	if _, ok := cfg.Shutter("blind-01"); !ok {
		t.Error("Shutter(blind-01) not found")
	}
	if _, ok := cfg.Shutter("missing"); ok {
		t.Error("Shutter(missing) found")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	if _, err := time.LoadLocation("Europe/London"); err != nil {
		t.Skip("timezone database not available")
	}

	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if len(cfg.Shutters) != 2 {
		t.Fatalf("len(Shutters) = %d, want 2", len(cfg.Shutters))
	}
	living, ok := cfg.Shutter("living-room")
	if !ok {
		t.Fatal("living-room missing from example config")
	}
	if got := living.Engine().Output.Scale(100); got != 0 {
		t.Errorf("living-room fully open scales to %v, want 0", got)
	}
}
