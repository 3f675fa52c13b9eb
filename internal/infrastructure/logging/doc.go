// Package logging configures log/slog for the shutter service.
//
// Every entry carries service and version. Components add their own
// context through child loggers:
//
//	log := logging.New(cfg.Logging, version)
//	log.ForComponent("mqtt").Warn("MQTT reconnecting")
//	log.ForShutter("living-room").Info("output published", "position", 25)
//
// The logging section of config.yaml selects level (debug, info, warn,
// error), format (json or text) and output (stdout or stderr).
//
// Sensor readings and positions are fine to log. Broker and InfluxDB
// credentials are not.
package logging
