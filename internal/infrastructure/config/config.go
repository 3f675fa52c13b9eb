package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole of config.yaml.
type Config struct {
	Site     SiteConfig      `yaml:"site"`
	Database DatabaseConfig  `yaml:"database"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	InfluxDB InfluxDBConfig  `yaml:"influxdb"`
	Logging  LoggingConfig   `yaml:"logging"`
	History  HistoryConfig   `yaml:"history"`
	Shutters []ShutterConfig `yaml:"shutters"`
}

// SiteConfig identifies the installation. Timezone is the IANA zone that
// schedules and weekends are evaluated in.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// Location returns the site timezone. An empty timezone is UTC.
func (s SiteConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// DatabaseConfig locates the history database. BusyTimeout is in seconds.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig is the broker the shutters' sensors and bridges talk through.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig bounds the reconnect backoff, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig enables decision and sensor telemetry. FlushInterval is
// in seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HistoryConfig controls the SQLite decision history.
type HistoryConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// Retention returns the history retention as a Duration.
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}

// Load reads path on top of the defaults, applies SHUTTER_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/shutter.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-shutter",
			},
			QoS:       1,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		History: HistoryConfig{Enabled: true, RetentionDays: 30},
	}
}

// envOverrides maps SHUTTER_* variables onto config fields. Empty
// variables are ignored.
var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"SHUTTER_SITE_TIMEZONE", func(c *Config) *string { return &c.Site.Timezone }},
	{"SHUTTER_DATABASE_PATH", func(c *Config) *string { return &c.Database.Path }},
	{"SHUTTER_MQTT_HOST", func(c *Config) *string { return &c.MQTT.Broker.Host }},
	{"SHUTTER_MQTT_USERNAME", func(c *Config) *string { return &c.MQTT.Auth.Username }},
	{"SHUTTER_MQTT_PASSWORD", func(c *Config) *string { return &c.MQTT.Auth.Password }},
	{"SHUTTER_INFLUXDB_URL", func(c *Config) *string { return &c.InfluxDB.URL }},
	{"SHUTTER_INFLUXDB_TOKEN", func(c *Config) *string { return &c.InfluxDB.Token }},
	{"SHUTTER_LOG_LEVEL", func(c *Config) *string { return &c.Logging.Level }},
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			*o.field(cfg) = v
		}
	}
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.validateServices()...)
	errs = append(errs, c.validateShutters()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateServices() []string {
	var errs []string
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if _, err := c.Site.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a known timezone", c.Site.Timezone))
	}
	if c.History.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}
	return errs
}

func (c *Config) validateShutters() []string {
	if len(c.Shutters) == 0 {
		return []string{"at least one shutter must be configured"}
	}

	var errs []string
	seen := make(map[string]bool, len(c.Shutters))
	for i := range c.Shutters {
		s := &c.Shutters[i]
		if s.ID != "" && seen[s.ID] {
			errs = append(errs, fmt.Sprintf("shutters[%d].id %q is duplicated", i, s.ID))
		}
		seen[s.ID] = true
		errs = append(errs, s.validate(i)...)
	}
	return errs
}

// Shutter returns the shutter with the given ID.
func (c *Config) Shutter(id string) (ShutterConfig, bool) {
	for _, s := range c.Shutters {
		if s.ID == id {
			return s, true
		}
	}
	return ShutterConfig{}, false
}
