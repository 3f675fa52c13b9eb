// Package influxdb writes shutter telemetry to InfluxDB v2.
//
// Two measurements are produced:
//   - shutter_decision: one point per position change (tags shutter_id,
//     mode, special; fields position, output, reason, manual)
//   - shutter_sensor: the raw inputs a shutter received (tags shutter_id,
//     sensor; field value)
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Asynchronous write failures are delivered to the SetOnError callback;
// connection and health check errors are returned directly.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDecision(influxdb.Decision{ShutterID: "living-room", Mode: "day", Position: 25})
package influxdb
