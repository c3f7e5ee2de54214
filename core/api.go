package core

import "usbuart/protocol"

// GetByte copies one received byte into out. It returns the number of
// bytes copied, 0 when nothing is buffered or out is nil.
func (u *UART) GetByte(out *byte) int {
	if out == nil {
		return 0
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	u.ensureReady(false)
	b, ok := u.rx.Get()
	if !ok {
		return 0
	}
	*out = b
	return 1
}

// PutByte queues b for transmission, waiting for room in the TX ring.
// It returns once b is queued, not once it is sent.
func (u *UART) PutByte(b byte) {
	state := u.acquireTx(1)
	u.tx.Put(b)
	restoreInterrupts(state)
}

// GetLine copies the next complete line into out, without its terminator,
// and returns its length. It returns 0 and consumes nothing when no full
// line is buffered or the line does not fit in out.
func (u *UART) GetLine(out []byte) int {
	if out == nil {
		return 0
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	u.ensureReady(false)
	n, ok := protocol.LineLength(u.rx, u.cfg.LineTerminator)
	if !ok || n > len(out) {
		return 0
	}
	return protocol.TakeLine(u.rx, n, out)
}

// PutLine queues in followed by the line terminator, waiting for room for
// the whole line. Empty lines and lines longer than the TX ring are ignored.
func (u *UART) PutLine(in []byte) {
	count := len(in)
	if count == 0 || count+1 > u.tx.Capacity() {
		return
	}

	state := u.acquireTx(count + 1)
	u.tx.Write(in)
	u.tx.Put(u.cfg.LineTerminator)
	restoreInterrupts(state)
}

// GetMessage copies the payload of the next complete message into out and
// returns its length. Garbage ahead of a frame is discarded; incomplete
// frames are left buffered and 0 is returned.
func (u *UART) GetMessage(out []byte) int {
	if !u.cfg.Messages || out == nil {
		return 0
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	u.ensureReady(false)
	length, ok := u.framing.Locate(u.rx)
	if !ok || length-protocol.MessageStructureLength > len(out) {
		return 0
	}
	return u.framing.Take(u.rx, length, out)
}

// PutMessage frames in and queues it, waiting for room for the whole frame.
// Empty payloads and payloads that cannot be framed or ever fit the TX ring
// are ignored.
func (u *UART) PutMessage(in []byte) {
	count := len(in)
	length := count + protocol.MessageStructureLength
	if !u.cfg.Messages || count == 0 || count > protocol.MessagePayloadMax || length > u.tx.Capacity() {
		return
	}

	state := u.acquireTx(length)
	u.framing.WriteFrame(u.tx, in)
	restoreInterrupts(state)
}

// Read copies buffered bytes into p without waiting. It returns 0 when
// nothing is buffered.
func (u *UART) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	u.ensureReady(false)
	return u.rx.Read(p), nil
}

// Write queues all of p, waiting for the servicer to make room as needed.
func (u *UART) Write(p []byte) (n int, err error) {
	for n < len(p) {
		state := u.acquireTx(1)
		n += u.tx.Write(p[n:])
		restoreInterrupts(state)
	}
	return n, nil
}

// Buffered returns the number of received bytes waiting to be read
func (u *UART) Buffered() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.rx.Used()
}

// TxPending returns the number of bytes waiting to be sent
func (u *UART) TxPending() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.tx.Used()
}

// acquireTx enters the critical section once the TX ring has room for n
// bytes. Between attempts the critical section is released so the servicer
// can drain the ring (or purge it on stall). The caller must restore the
// returned state.
func (u *UART) acquireTx(n int) State {
	for {
		state := disableInterrupts()
		u.ensureReady(false)
		if u.tx.Free() >= n {
			return state
		}
		restoreInterrupts(state)
		yield()
	}
}
