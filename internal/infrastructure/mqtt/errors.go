package mqtt

import "errors"

// Argument errors, returned before the broker is contacted.
var (
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
	ErrInvalidQoS   = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
)

// Broker errors. Failures are wrapped, so match them with errors.Is.
var (
	// ErrNotConnected means the client has no live broker session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	ErrConnectionFailed  = errors.New("mqtt: connection failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrTimeout is joined with one of the errors above when the broker
	// did not acknowledge in time.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
