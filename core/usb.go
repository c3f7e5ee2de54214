package core

// MaxPacketSize is the USB full-speed bulk endpoint packet size
const MaxPacketSize = 64

// USB is the CDC endpoint pair provided by the USB device stack.
//
// Methods are called from both the servicer and foreground code, always
// inside the critical section.
type USB interface {
	// DataIsReady reports whether an OUT transfer is waiting
	DataIsReady() bool

	// GetCount returns the number of bytes in the waiting OUT transfer
	GetCount() int

	// GetAll drains the waiting OUT transfer into buf and returns its length
	GetAll(buf []byte) int

	// CDCIsReady reports whether the IN endpoint accepts a new transfer
	CDCIsReady() bool

	// PutData queues buf as the next IN transfer. An empty buf sends a
	// zero-length packet.
	PutData(buf []byte)

	// GetConfiguration reports whether the host has configured the device
	GetConfiguration() bool

	// IsConfigurationChanged reports and clears the configuration change flag
	IsConfigurationChanged() bool

	// CDCInit initializes the CDC sub-layer after (re)configuration
	CDCInit()
}
