// Package core implements the buffered USB CDC adapter: two ring buffers
// between the CDC endpoint pair and foreground code, a periodic servicer
// that moves bytes between them, and a blocking byte/line/message API.
//
// Foreground calls and the servicer serialize on one global critical
// section (interrupts disabled on hardware, a mutex on hosted Go).
package core

import (
	"context"

	"usbuart/protocol"
)

// UART is the transport state shared by the servicer and the foreground API
type UART struct {
	usb     USB
	cfg     Config
	framing protocol.Framing

	rx *protocol.FifoBuffer // producer: servicer, consumer: foreground
	tx *protocol.FifoBuffer // producer: foreground, consumer: servicer

	// scratch stages one packet between the rings and the USB layer.
	// Only the servicer touches it.
	scratch [MaxPacketSize]byte

	zlpRequired bool
	txReject    int

	stats  Stats
	events eventRing
	debug  DebugWriter
}

// New allocates the rings for a UART on top of usb.
// Zero fields in cfg take their defaults.
func New(usb USB, cfg Config) *UART {
	cfg = cfg.WithDefaults()
	return &UART{
		usb:     usb,
		cfg:     cfg,
		framing: cfg.Framing(),
		rx:      protocol.NewFifoBuffer(cfg.RxBufferSize),
		tx:      protocol.NewFifoBuffer(cfg.TxBufferSize),
	}
}

// Config returns the configuration in effect
func (u *UART) Config() Config {
	return u.cfg
}

// Init resets all transport state, waits for the host to configure the
// device and initializes the CDC sub-layer. It returns ctx.Err() if ctx is
// done before enumeration completes.
func (u *UART) Init(ctx context.Context) error {
	state := disableInterrupts()
	u.rx.Reset()
	u.tx.Reset()
	u.zlpRequired = false
	u.txReject = 0
	u.stats = Stats{}
	u.events = eventRing{}
	restoreInterrupts(state)

	for {
		state = disableInterrupts()
		if u.usb.GetConfiguration() {
			u.initCDC()
			restoreInterrupts(state)
			return nil
		}
		restoreInterrupts(state)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		yield()
	}
}

// ensureReady re-initializes the CDC sub-layer when the host changed the
// configuration since the last poll. Must be called inside the critical
// section.
//
// A change seen while the device is unconfigured is skipped: the host's
// next SET_CONFIGURATION raises the flag again.
func (u *UART) ensureReady(first bool) {
	if !first && !u.usb.IsConfigurationChanged() {
		return
	}
	if !u.usb.GetConfiguration() {
		return
	}
	u.initCDC()
}

func (u *UART) initCDC() {
	// Re-read to clear the change flag
	u.usb.IsConfigurationChanged()
	u.usb.CDCInit()

	u.stats.Reconfigurations++
	u.events.record(EvtCDCInit, u.stats.Reconfigurations)
	if u.stats.Reconfigurations > 1 {
		u.debugPrintln("[USBUART] CDC re-initialized after configuration change")
	}
}

// Stats returns a snapshot of the transport counters
func (u *UART) Stats() Stats {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.stats
}
