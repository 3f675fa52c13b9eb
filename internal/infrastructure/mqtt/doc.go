// Package mqtt connects the shutter service to the Gray Logic message bus.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and size checks
//   - Subscriptions that survive reconnects
//   - A retained online/offline status backed by a Last Will
//
// # Topics
//
// Sensor readings and position feedback arrive from protocol bridges on
// graylogic/state/{protocol}/{device} (or any topic named in the shutter's
// inputs). Position commands leave on graylogic/command/{protocol}/{device}.
// The service itself listens on graylogic/shutter/{id}/command and reports
// on graylogic/core/shutter/{id}/state.
//
//	sensors/bridges ─► broker ─► shutterd ─► broker ─► bridges (KNX, ...)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.ShutterCommand("living-room"), 1,
//	    func(topic string, payload []byte) error {
//	        return ctrl.HandleCommand(payload)
//	    })
package mqtt
