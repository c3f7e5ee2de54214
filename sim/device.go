// Package sim provides an in-process USB CDC device for running the
// adapter without hardware. The device side satisfies core.USB; the host
// side queues OUT packets, records IN transfers and exposes the byte
// stream the host would see as an io.ReadWriteCloser.
package sim

import (
	"io"
	"sync"

	"usbuart/core"
	"usbuart/pkg"
)

// Device is a simulated CDC endpoint pair
type Device struct {
	mu   sync.Mutex
	cond *sync.Cond

	configured bool
	changed    bool
	inReady    bool
	loopback   bool

	out      [][]byte // OUT packets waiting for the device
	in       [][]byte // IN transfers issued by the device
	inbox    []byte   // IN payload not yet read through Conn
	cdcInits int
	closed   bool
}

// Option configures a Device
type Option func(*Device)

// WithLoopback re-queues every non-empty IN transfer as an OUT packet
func WithLoopback() Option {
	return func(d *Device) { d.loopback = true }
}

// Configured starts the device already enumerated
func Configured() Option {
	return func(d *Device) {
		d.configured = true
		d.changed = true
	}
}

// NewDevice creates an unconfigured device whose IN endpoint is ready
func NewDevice(opts ...Option) *Device {
	d := &Device{inReady: true}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ core.USB = (*Device)(nil)

// DataIsReady reports whether an OUT packet is waiting
func (d *Device) DataIsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.out) > 0
}

// GetCount returns the size of the waiting OUT packet
func (d *Device) GetCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.out) == 0 {
		return 0
	}
	return len(d.out[0])
}

// GetAll drains the waiting OUT packet into buf
func (d *Device) GetAll(buf []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.out) == 0 {
		return 0
	}
	n := copy(buf, d.out[0])
	d.out = d.out[1:]
	return n
}

// CDCIsReady reports whether the IN endpoint accepts a transfer
func (d *Device) CDCIsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configured && d.inReady
}

// PutData records an IN transfer
func (d *Device) PutData(buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pkt := append([]byte(nil), buf...)
	d.in = append(d.in, pkt)
	d.inbox = append(d.inbox, pkt...)
	if d.loopback && len(pkt) > 0 {
		d.out = append(d.out, pkt)
	}
	pkg.LogDebug(pkg.ComponentSim, "IN transfer", "len", len(pkt))
	d.cond.Broadcast()
}

// GetConfiguration reports whether the host configured the device
func (d *Device) GetConfiguration() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configured
}

// IsConfigurationChanged reports and clears the change flag
func (d *Device) IsConfigurationChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := d.changed
	d.changed = false
	return changed
}

// CDCInit counts CDC sub-layer initializations
func (d *Device) CDCInit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cdcInits++
}

// SetConfigured sets the configured state, raising the change flag when
// the state changes
func (d *Device) SetConfigured(configured bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.configured != configured {
		d.changed = true
	}
	d.configured = configured
	pkg.LogDebug(pkg.ComponentSim, "configuration", "configured", configured)
}

// Reconfigure simulates the host re-enumerating the device
func (d *Device) Reconfigure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configured = true
	d.changed = true
}

// SetINReady sets whether the host is polling the IN endpoint
func (d *Device) SetINReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inReady = ready
}

// CDCInitCount returns how many times CDCInit was called
func (d *Device) CDCInitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cdcInits
}

// HostWrite queues p as OUT traffic split into packets of at most
// core.MaxPacketSize bytes
func (d *Device) HostWrite(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(p) > 0 {
		n := len(p)
		if n > core.MaxPacketSize {
			n = core.MaxPacketSize
		}
		d.out = append(d.out, append([]byte(nil), p[:n]...))
		p = p[n:]
	}
}

// PendingOut returns the number of OUT packets not yet drained
func (d *Device) PendingOut() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.out)
}

// Transfers returns a copy of the IN transfers issued so far
func (d *Device) Transfers() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.in))
	for i, pkt := range d.in {
		out[i] = append([]byte(nil), pkt...)
	}
	return out
}

// ClearTransfers forgets recorded IN transfers
func (d *Device) ClearTransfers() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.in = nil
}

// Conn returns the host end of the device as a byte stream
func (d *Device) Conn() io.ReadWriteCloser {
	return &conn{d: d}
}

type conn struct {
	d *Device
}

// Read blocks until IN data is available or the device is closed
func (c *conn) Read(p []byte) (int, error) {
	d := c.d
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.inbox) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.inbox) == 0 {
		return 0, io.EOF
	}
	n := copy(p, d.inbox)
	d.inbox = d.inbox[n:]
	return n, nil
}

func (c *conn) Write(p []byte) (int, error) {
	c.d.mu.Lock()
	closed := c.d.closed
	c.d.mu.Unlock()
	if closed {
		return 0, pkg.ErrClosed
	}
	c.d.HostWrite(p)
	return len(p), nil
}

func (c *conn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closed = true
	c.d.cond.Broadcast()
	return nil
}
