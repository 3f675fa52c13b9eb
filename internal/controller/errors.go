package controller

import "errors"

// Domain-specific errors for the controller.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrShutterNotFound is returned when no controller exists for an ID.
	ErrShutterNotFound = errors.New("controller: shutter not found")

	// ErrUnknownCommand is returned for a command name the controller does not know.
	ErrUnknownCommand = errors.New("controller: unknown command")

	// ErrInvalidPayload is returned when an input or command payload cannot be decoded.
	ErrInvalidPayload = errors.New("controller: invalid payload")

	// ErrMQTTUnavailable is returned when Start is called without an MQTT client.
	ErrMQTTUnavailable = errors.New("controller: mqtt client unavailable")

	// ErrStopped is returned when a stopped controller is asked to act.
	ErrStopped = errors.New("controller: stopped")
)
