// Package config loads the shutter service configuration.
//
// Load applies, in order: built-in defaults, the YAML file, SHUTTER_*
// environment overrides, then Validate. Broker passwords and the InfluxDB
// token are best supplied through the environment
// (SHUTTER_MQTT_PASSWORD, SHUTTER_INFLUXDB_TOKEN) so the file can stay
// world-readable.
//
// Each entry under shutters: describes one roller shutter: its output
// device, the MQTT topics its sensors arrive on, and its positioning
// policy. ShutterConfig.Engine translates the policy into shutter.Config.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	for _, s := range cfg.Shutters {
//	    eng := shutter.New(s.Engine())
//	    // ...
//	}
package config
