package mqtt

import (
	"fmt"
	"strings"
)

// Topic namespace roots.
//
// Bridges publish device state under graylogic/state and accept commands
// under graylogic/command. The shutter service owns graylogic/shutter for
// inbound commands and reports snapshots under graylogic/core/shutter.
const (
	TopicPrefix        = "graylogic"
	TopicPrefixCore    = "graylogic/core"
	TopicPrefixShutter = "graylogic/shutter"
	TopicPrefixSystem  = "graylogic/system"
)

// Topics builds MQTT topic strings.
//
// The zero value is ready to use:
//
//	topic := mqtt.Topics{}.ShutterCommand("living-room")
type Topics struct{}

// BridgeState is where a protocol bridge reports a device's state.
//
// Example: graylogic/state/knx/blind-living
func (Topics) BridgeState(protocol, device string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, protocol, device)
}

// BridgeCommand is where a protocol bridge accepts device commands.
//
// Example: graylogic/command/knx/blind-living
func (Topics) BridgeCommand(protocol, device string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, device)
}

// ShutterCommand receives operator commands for one shutter.
func (Topics) ShutterCommand(shutterID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixShutter, shutterID)
}

// ShutterState carries the retained snapshot of one shutter's engine.
func (Topics) ShutterState(shutterID string) string {
	return fmt.Sprintf("%s/shutter/%s/state", TopicPrefixCore, shutterID)
}

// ServiceStatus carries the retained online/offline status of a client.
func (Topics) ServiceStatus(clientID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixSystem, clientID)
}

// AllShutterCommands matches the command topic of every shutter.
func (Topics) AllShutterCommands() string {
	return fmt.Sprintf("%s/+/command", TopicPrefixShutter)
}

// AllShutterStates matches the state topic of every shutter.
func (Topics) AllShutterStates() string {
	return fmt.Sprintf("%s/shutter/+/state", TopicPrefixCore)
}

// ShutterIDFromTopic extracts the shutter ID from a command or state topic.
// It returns false when the topic is not in the shutter namespace.
func ShutterIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicPrefixShutter+"/")
	if !ok {
		rest, ok = strings.CutPrefix(topic, TopicPrefixCore+"/shutter/")
	}
	if !ok {
		return "", false
	}
	id, _, found := strings.Cut(rest, "/")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
