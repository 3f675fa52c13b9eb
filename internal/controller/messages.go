package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-shutter/internal/shutter"
)

// Command names accepted on the shutter command topic.
const (
	CommandUpdate              = "update"
	CommandUnpause             = "unpause"
	CommandClear               = "clear"
	CommandSetFixedTime        = "set_fixed_time"
	CommandUnsetFixedTime      = "unset_fixed_time"
	CommandUnsetManualPosition = "unset_manual_position"
	CommandConfigure           = "configure"
	CommandOutput              = "output"
)

// commandSetPosition is sent to the bridge to move the actuator.
const commandSetPosition = "set_position"

// commandSource tags bridge commands issued by this service.
const commandSource = "automation"

// CommandMessage is sent to a protocol bridge to move a shutter.
// Topic: graylogic/command/{protocol}/{device}
type CommandMessage struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Source     string         `json:"source"`
}

// StateMessage is what a bridge reports for a device.
// Topic: graylogic/state/{protocol}/{device}
type StateMessage struct {
	DeviceID  string                     `json:"device_id"`
	Timestamp time.Time                  `json:"timestamp"`
	State     map[string]json.RawMessage `json:"state"`
}

// ControlMessage is an operator command for one shutter.
// Topic: graylogic/shutter/{id}/command
//
// Examples:
//
//	{"command": "update"}
//	{"command": "set_fixed_time", "value": "2024-06-03T14:00:00Z"}
//	{"command": "configure", "key": "dayStartTimeWeekend", "value": "0930"}
type ControlMessage struct {
	Command   string          `json:"command"`
	Key       string          `json:"key,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// StatusMessage is the retained snapshot of a shutter.
// Topic: graylogic/core/shutter/{id}/state
type StatusMessage struct {
	ShutterID string        `json:"shutter_id"`
	Name      string        `json:"name,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	State     shutter.State `json:"state"`
}

// decodeControl parses a command payload. A bare word such as "update" is
// accepted as a command without arguments.
func decodeControl(payload []byte) (ControlMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ControlMessage{}, fmt.Errorf("%w: empty command", ErrInvalidPayload)
	}
	if trimmed[0] != '{' {
		return ControlMessage{Command: strings.ToLower(string(trimmed))}, nil
	}

	var msg ControlMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return ControlMessage{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	msg.Command = strings.ToLower(strings.TrimSpace(msg.Command))
	if msg.Command == "" {
		return ControlMessage{}, fmt.Errorf("%w: command is required", ErrInvalidPayload)
	}
	return msg, nil
}

// inputValue extracts the value of an input from a payload.
//
// The payload may be a bridge StateMessage (the value is state[key]), a
// flat JSON object (the value is object[key]), a bare JSON scalar, or
// plain text. JSON null yields nil, meaning "no value".
func inputValue(payload []byte, key string) (any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed), nil
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return decoded, nil
	}
	if key == "" {
		return nil, fmt.Errorf("%w: object payload needs an input key", ErrInvalidPayload)
	}
	if state, ok := obj["state"].(map[string]any); ok {
		if v, found := state[key]; found {
			return v, nil
		}
	}
	if v, found := obj[key]; found {
		return v, nil
	}
	return nil, fmt.Errorf("%w: key %q not found", ErrInvalidPayload, key)
}

// asNumber converts an input value to a number.
func asNumber(v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = x
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidPayload, x)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrInvalidPayload, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

// asBool converts an input value to a boolean.
func asBool(v any) (*bool, error) {
	var b bool
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		b = x
	case float64:
		b = x != 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return nil, nil
		}
		parsed, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			switch strings.ToLower(s) {
			case "on", "yes":
				parsed = true
			case "off", "no":
				parsed = false
			default:
				return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidPayload, x)
			}
		}
		b = parsed
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrInvalidPayload, v)
	}
	return &b, nil
}

// asWindow converts an input value to a window state. Booleans and
// numbers follow the contact convention: true or non-zero means open.
func asWindow(v any) shutter.Window {
	switch x := v.(type) {
	case string:
		return shutter.ParseWindow(x)
	case bool:
		if x {
			return shutter.WindowOpen
		}
		return shutter.WindowClosed
	case float64:
		switch x {
		case 0:
			return shutter.WindowClosed
		case 1:
			return shutter.WindowOpen
		case 2:
			return shutter.WindowTilted
		}
	}
	return shutter.WindowUnknown
}

// asText converts a command value to optional text.
func asText(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, fmt.Errorf("%w: value must be text or a number", ErrInvalidPayload)
	}
	return &s, nil
}

// parseFixedTime accepts RFC 3339 or a schedule text resolved on ref's day.
func parseFixedTime(text string, ref time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.In(ref.Location()), nil
	}
	if t, ok := shutter.ResolveTime(text, ref); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrInvalidPayload, text)
}
