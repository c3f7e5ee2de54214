// Package session manages a host connection to a usbuart device: it opens
// the port (or locates it), wraps it in a link and offers request/response
// helpers on top.
package session

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"usbuart/config"
	"usbuart/host/link"
	"usbuart/host/serial"
	"usbuart/pkg"
)

// Session represents a connection to a usbuart device
type Session struct {
	// Link layer
	link *link.Link

	// Underlying port
	port io.ReadWriteCloser

	// Device path, empty for in-process ports
	device string

	// Receive timeout for request/response helpers
	timeout time.Duration

	connected bool
}

// New creates a session (not yet connected)
func New() *Session {
	return &Session{timeout: time.Second}
}

// Connect opens the port named in cfg and starts the link. An empty device
// selects the first CDC ACM port found.
func (s *Session) Connect(cfg *config.Config) error {
	host := cfg.Host
	device := host.Device
	if device == "" {
		found, err := serial.FindCDCPort()
		if err != nil {
			return fmt.Errorf("failed to locate device: %w", err)
		}
		device = found
	}

	port, err := serial.Open(&serial.Config{
		Device:      device,
		Baud:        host.Baud,
		ReadTimeout: host.ReadTimeoutMs,
	})
	if err != nil {
		return err
	}
	// Drop anything the device sent before we were listening
	if err := port.Flush(); err != nil {
		pkg.LogWarn(pkg.ComponentHost, "flush failed", "err", err)
	}

	if err := s.Attach(port, cfg); err != nil {
		port.Close()
		return err
	}
	s.device = device
	return nil
}

// Attach starts the link over an already open port
func (s *Session) Attach(port io.ReadWriteCloser, cfg *config.Config) error {
	mode, err := link.ParseMode(cfg.Host.Mode)
	if err != nil {
		return err
	}

	opts := link.DefaultOptions()
	opts.Mode = mode
	opts.LineTerminator = cfg.Firmware.LineTerminator
	opts.Framing = cfg.Firmware.Framing()

	s.port = port
	s.link = link.New(port, opts)
	if cfg.Host.ReadTimeoutMs > 0 {
		s.timeout = 10 * time.Duration(cfg.Host.ReadTimeoutMs) * time.Millisecond
	}
	s.connected = true
	pkg.LogInfo(pkg.ComponentHost, "connected", "mode", mode.String())
	return nil
}

// Close closes the connection
func (s *Session) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	return s.link.Close()
}

// Device returns the path of the connected port
func (s *Session) Device() string {
	return s.device
}

// Link returns the underlying link
func (s *Session) Link() *link.Link {
	return s.link
}

// Send transmits p framed according to the link mode
func (s *Session) Send(p []byte) error {
	if !s.connected {
		return pkg.ErrNotConfigured
	}
	if s.link.Mode() == link.ModeMessage {
		return s.link.WriteMessage(p)
	}
	return s.link.WriteLine(p)
}

// Receive waits for the next line or message
func (s *Session) Receive() ([]byte, error) {
	if !s.connected {
		return nil, pkg.ErrNotConfigured
	}
	return s.link.Receive(s.timeout)
}

// Ping sends p and waits for the device to echo it back, returning the
// round-trip time
func (s *Session) Ping(p []byte) (time.Duration, error) {
	start := time.Now()
	if err := s.Send(p); err != nil {
		return 0, fmt.Errorf("failed to send ping: %w", err)
	}
	reply, err := s.Receive()
	if err != nil {
		return 0, fmt.Errorf("no echo: %w", err)
	}
	if !bytes.Equal(reply, p) {
		return 0, fmt.Errorf("echo mismatch: sent %d bytes, got %d", len(p), len(reply))
	}
	return time.Since(start), nil
}
