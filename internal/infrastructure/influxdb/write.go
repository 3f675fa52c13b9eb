package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementDecision = "shutter_decision"
	MeasurementSensor   = "shutter_sensor"
)

// Decision is one evaluation of a shutter that changed its position.
type Decision struct {
	ShutterID string
	Mode      string
	Special   string
	Reason    string

	// Position is canonical (0 closed, 100 open).
	Position float64

	// Output is the device value sent to the bridge, nil when suppressed.
	Output *float64

	Manual bool
	Time   time.Time
}

// WriteDecision records a position decision.
//
// Mode and special are tags so dashboards can group by them; the reason is
// a field because its text varies with every threshold crossing.
//
// Example:
//
//	client.WriteDecision(influxdb.Decision{
//	    ShutterID: "living-room", Mode: "day", Special: "shade",
//	    Position: 25, Time: now,
//	})
func (c *Client) WriteDecision(d Decision) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(decisionPoint(d))
}

// WriteSensor records a sensor reading as received by a shutter.
//
// Parameters:
//   - shutterID: Shutter the reading was routed to
//   - sensor: Input name (e.g., "outside_illuminance", "inside_temperature")
//   - value: The reading
//   - at: When it was received
func (c *Client) WriteSensor(shutterID, sensor string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(sensorPoint(shutterID, sensor, value, at))
}

func decisionPoint(d Decision) *write.Point {
	tags := map[string]string{
		"shutter_id": d.ShutterID,
		"mode":       d.Mode,
	}
	if d.Special != "" {
		tags["special"] = d.Special
	}

	fields := map[string]any{
		"position": d.Position,
		"manual":   d.Manual,
	}
	if d.Output != nil {
		fields["output"] = *d.Output
	}
	if d.Reason != "" {
		fields["reason"] = d.Reason
	}

	return write.NewPoint(MeasurementDecision, tags, fields, pointTime(d.Time))
}

func sensorPoint(shutterID, sensor string, value float64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementSensor,
		map[string]string{
			"shutter_id": shutterID,
			"sensor":     sensor,
		},
		map[string]any{"value": value},
		pointTime(at),
	)
}

// pointTime stamps zero times with the current time.
func pointTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
