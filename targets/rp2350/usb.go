//go:build rp2350

package main

import (
	"machine"

	"usbuart/core"
)

// cdcPort maps core.USB onto TinyGo's USB CDC-ACM serial.
//
// TinyGo's driver owns the endpoints and keeps its own receive buffer, so
// an "OUT transfer" here is whatever the driver has buffered, capped at one
// packet. The IN side accepts writes whenever the driver does.
type cdcPort struct {
	serial     cdcSerial
	configured bool
}

// cdcSerial is the subset of machine.Serial the shim uses
type cdcSerial interface {
	Configure(config machine.UARTConfig) error
	Buffered() int
	ReadByte() (byte, error)
	Write(data []byte) (int, error)
}

// newCDCPort returns the shim for machine.Serial
func newCDCPort() *cdcPort {
	return &cdcPort{serial: machine.Serial}
}

func (p *cdcPort) DataIsReady() bool {
	return p.serial.Buffered() > 0
}

func (p *cdcPort) GetCount() int {
	n := p.serial.Buffered()
	if n > core.MaxPacketSize {
		n = core.MaxPacketSize
	}
	return n
}

func (p *cdcPort) GetAll(buf []byte) int {
	n := 0
	for n < len(buf) && p.serial.Buffered() > 0 {
		b, err := p.serial.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	return n
}

// CDCIsReady is always true: the driver queues IN data itself
func (p *cdcPort) CDCIsReady() bool {
	return true
}

func (p *cdcPort) PutData(buf []byte) {
	if len(buf) == 0 {
		// TinyGo terminates short transfers on its own
		return
	}
	p.serial.Write(buf)
}

// GetConfiguration is true once CDCInit configured the driver
func (p *cdcPort) GetConfiguration() bool {
	return true
}

// IsConfigurationChanged reports the first poll only; TinyGo does not
// expose SET_CONFIGURATION to applications
func (p *cdcPort) IsConfigurationChanged() bool {
	changed := !p.configured
	p.configured = true
	return changed
}

func (p *cdcPort) CDCInit() {
	// machine.Serial is USB CDC, not a UART; descriptors come from the runtime
	p.serial.Configure(machine.UARTConfig{})
}
