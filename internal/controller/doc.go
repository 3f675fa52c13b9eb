// Package controller connects shutter engines to the MQTT bus.
//
// Each configured shutter gets a Controller that owns its engine. Sensor
// readings arrive on bridge state topics, operator commands on the shutter
// command topic, and position commands leave on the bridge command topic.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                 Manager (manager.go)                    │
//	│  Subscribes each topic once, fans out to controllers    │
//	│        │                                                │
//	│        ▼                                                │
//	│  ┌──────────────────────────────────────────────────┐  │
//	│  │  Controller (controller.go), one per shutter      │  │
//	│  │  1. Decode input, set on engine                   │  │
//	│  │  2. Update engine                                 │  │
//	│  │  3. On change: history, telemetry, pause          │  │
//	│  │  4. After random delay: publish set_position      │  │
//	│  │  5. After drive time: unpause, update again       │  │
//	│  │  6. Publish retained status                       │  │
//	│  └──────────────────────────────────────────────────┘  │
//	└────────────────────────────────────────────────────────┘
//
// # Timers
//
// A controller runs up to four timers on its Clock: the output delay, the
// drive time, the wakeup at the next schedule boundary and the periodic
// recompute. All timer callbacks take the controller mutex, so the engine
// is only ever touched by one goroutine at a time.
//
// # Topics
//
//	graylogic/shutter/{id}/command          operator commands (in)
//	graylogic/state/{protocol}/{device}     sensor and position feedback (in)
//	graylogic/command/{protocol}/{device}   set_position (out)
//	graylogic/core/shutter/{id}/state       retained status (out)
package controller
