// Package shutter implements the roller shutter position decision engine.
//
// The engine turns a stream of environmental measurements (outside
// illuminance, sun azimuth/altitude, inside/outside temperature, window
// contact state) and a configured policy into an operating mode, a target
// position on a canonical 0-100 scale, and human-readable reasons for both.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                       Engine (engine.go)                      │
//	│                                                               │
//	│  setters ──▶ pause gate (queue.go) ──▶ sensor snapshot        │
//	│                                                               │
//	│  Update(now):                                                 │
//	│   1. drain queued mutations (FIFO, all at once)               │
//	│   2. resolve schedule instants (schedule.go)                  │
//	│   3. classify mode + same-day hysteresis (mode.go)            │
//	│   4. day policy (day.go) or twilight policy (twilight.go)     │
//	│   5. manual override arbitration                              │
//	│   6. scale to device units (scale.go)                         │
//	└──────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Config: immutable per-shutter policy (positions, temperature bands,
//     illuminance thresholds, schedules, shading band, output endpoints)
//   - Engine: mutable decision state for exactly one shutter
//   - Decision: result of one Update pass (device output, wakeup request)
//   - State: JSON snapshot for status/telemetry emission
//
// # Optional Values
//
// Every optional configuration field and every sensor value is a pointer.
// nil means "rule inactive" or "unknown", never zero.
//
// # Thread Safety
//
// Engine is NOT safe for concurrent use. The caller (see
// internal/controller) serialises access. The engine never
// sleeps, never starts goroutines and never reads the wall clock except
// through the injected clock used to stamp manual overrides.
//
// # Usage
//
//	eng := shutter.New(cfg)
//	eng.SetOutsideIlluminance(&lux)
//	d := eng.Update(time.Now())
//	if d.Output != nil {
//	    publish(*d.Output)
//	}
package shutter
