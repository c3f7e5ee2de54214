// Package link is the host side of the usbuart byte stream: it frames
// outgoing lines and messages and reassembles incoming ones from a serial
// port (or the simulator's host end).
package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"usbuart/pkg"
	"usbuart/protocol"
)

// Mode selects how the incoming stream is framed
type Mode int

const (
	ModeLine    Mode = iota // newline-terminated lines
	ModeMessage             // length-prefixed messages
)

func (m Mode) String() string {
	if m == ModeMessage {
		return "message"
	}
	return "line"
}

// ParseMode maps "line" or "message"/"msg" to a Mode
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "line":
		return ModeLine, nil
	case "message", "msg":
		return ModeMessage, nil
	default:
		return ModeLine, fmt.Errorf("%w: mode %q", pkg.ErrInvalidParameter, name)
	}
}

// Options configures a Link
type Options struct {
	Mode           Mode
	LineTerminator byte
	Framing        protocol.Framing
	BufferSize     int // receive ring size
	QueueSize      int // received frames held for ReadLine / ReadMessage
}

// DefaultOptions returns line mode with the default terminator and framing
func DefaultOptions() Options {
	return Options{
		Mode:           ModeLine,
		LineTerminator: protocol.LineTerminator,
		Framing:        protocol.DefaultFraming,
		BufferSize:     1024,
		QueueSize:      16,
	}
}

// Link exchanges lines or messages with the device over port
type Link struct {
	port io.ReadWriteCloser
	opts Options

	inputBuffer *protocol.FifoBuffer
	recvChan    chan []byte

	writeMutex sync.Mutex

	// Stop channel for graceful shutdown
	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once

	dropped atomic.Uint32
}

// New creates a link and starts its reader
func New(port io.ReadWriteCloser, opts Options) *Link {
	d := DefaultOptions()
	if opts.LineTerminator == 0 {
		opts.LineTerminator = d.LineTerminator
	}
	if opts.Framing == (protocol.Framing{}) {
		opts.Framing = d.Framing
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = d.BufferSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = d.QueueSize
	}

	l := &Link{
		port:        port,
		opts:        opts,
		inputBuffer: protocol.NewFifoBuffer(opts.BufferSize),
		recvChan:    make(chan []byte, opts.QueueSize),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	go l.readLoop()
	return l
}

// Mode returns the receive framing mode
func (l *Link) Mode() Mode {
	return l.opts.Mode
}

// WriteLine sends p followed by the line terminator
func (l *Link) WriteLine(p []byte) error {
	buf := make([]byte, 0, len(p)+1)
	buf = append(buf, p...)
	buf = append(buf, l.opts.LineTerminator)
	return l.write(buf)
}

// WriteMessage sends p as a framed message
func (l *Link) WriteMessage(p []byte) error {
	frame, err := l.opts.Framing.Encode(p)
	if err != nil {
		return fmt.Errorf("failed to frame message: %w", err)
	}
	return l.write(frame)
}

// WriteRaw sends p unframed
func (l *Link) WriteRaw(p []byte) error {
	return l.write(p)
}

func (l *Link) write(p []byte) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	select {
	case <-l.stopChan:
		return pkg.ErrClosed
	default:
	}

	n, err := l.port.Write(p)
	if err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(p))
	}
	pkg.LogDebug(pkg.ComponentLink, "sent", "bytes", n)
	return nil
}

// ReadLine waits for the next line. The link must be in line mode.
func (l *Link) ReadLine(timeout time.Duration) ([]byte, error) {
	if l.opts.Mode != ModeLine {
		return nil, fmt.Errorf("%w: link is in %s mode", pkg.ErrInvalidParameter, l.opts.Mode)
	}
	return l.Receive(timeout)
}

// ReadMessage waits for the next message payload. The link must be in
// message mode.
func (l *Link) ReadMessage(timeout time.Duration) ([]byte, error) {
	if l.opts.Mode != ModeMessage {
		return nil, fmt.Errorf("%w: link is in %s mode", pkg.ErrInvalidParameter, l.opts.Mode)
	}
	return l.Receive(timeout)
}

// Receive waits for the next received line or message
func (l *Link) Receive(timeout time.Duration) ([]byte, error) {
	select {
	case p := <-l.recvChan:
		return p, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", pkg.ErrTimeout, timeout)
	case <-l.stopChan:
		return nil, pkg.ErrClosed
	}
}

// Dropped returns the number of frames discarded because the receive queue
// was full
func (l *Link) Dropped() uint32 {
	return l.dropped.Load()
}

// readLoop continuously reads from the port and extracts frames
func (l *Link) readLoop() {
	defer close(l.doneChan)

	buffer := make([]byte, 256)
	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buffer)
		if n > 0 {
			l.feed(buffer[:n])
		}
		if err != nil {
			select {
			case <-l.stopChan:
				return
			default:
			}
			// A timed-out serial read surfaces as io.EOF
			if !errors.Is(err, io.EOF) {
				pkg.LogWarn(pkg.ComponentLink, "read failed", "err", err)
				time.Sleep(10 * time.Millisecond)
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// feed appends data to the input ring, extracting frames as it fills
func (l *Link) feed(data []byte) {
	for len(data) > 0 {
		n := l.inputBuffer.Write(data)
		data = data[n:]
		l.processFrames()

		if len(data) > 0 && l.inputBuffer.IsFull() {
			pkg.LogWarn(pkg.ComponentLink, "receive buffer overflow, discarding",
				"bytes", l.inputBuffer.Used())
			l.inputBuffer.Reset()
		}
	}
}

// processFrames moves every complete frame from the input ring to recvChan
func (l *Link) processFrames() {
	for {
		var frame []byte
		switch l.opts.Mode {
		case ModeMessage:
			length, ok := l.opts.Framing.Locate(l.inputBuffer)
			if !ok {
				return
			}
			frame = make([]byte, length-protocol.MessageStructureLength)
			l.opts.Framing.Take(l.inputBuffer, length, frame)
		default:
			n, ok := protocol.LineLength(l.inputBuffer, l.opts.LineTerminator)
			if !ok {
				return
			}
			frame = make([]byte, n)
			protocol.TakeLine(l.inputBuffer, n, frame)
		}
		l.dispatch(frame)
	}
}

// dispatch queues a frame, dropping the oldest one when the queue is full
func (l *Link) dispatch(frame []byte) {
	pkg.LogDebug(pkg.ComponentLink, "received", "mode", l.opts.Mode.String(), "len", len(frame))
	select {
	case l.recvChan <- frame:
		return
	default:
	}

	select {
	case <-l.recvChan:
		l.dropped.Add(1)
	default:
	}
	select {
	case l.recvChan <- frame:
	default:
	}
}

// Close stops the reader and closes the port
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.stopChan)
		if l.port != nil {
			err = l.port.Close()
		}
		<-l.doneChan
	})
	return err
}
