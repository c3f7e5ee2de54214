package pkg

import "errors"

// Host link errors.
var (
	// ErrTimeout indicates no data arrived before the deadline.
	ErrTimeout = errors.New("timeout")

	// ErrClosed indicates the link or port was closed.
	ErrClosed = errors.New("link closed")

	// ErrNotConfigured indicates the USB device has not been configured by the host.
	ErrNotConfigured = errors.New("device not configured")

	// ErrNoPorts indicates no serial ports were found.
	ErrNoPorts = errors.New("no serial ports found")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)
