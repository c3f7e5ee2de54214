package protocol

import "fmt"

// LineLength returns the number of bytes before the first term in f.
// ok is false when f holds no complete line.
func LineLength(f *FifoBuffer, term byte) (n int, ok bool) {
	if f.IsEmpty() {
		return 0, false
	}
	n = f.Find(term, 0)
	return n, n < f.Used()
}

// TakeLine copies a line of n bytes into out and removes the line and its
// terminator from f. out must hold at least n bytes.
func TakeLine(f *FifoBuffer, n int, out []byte) int {
	got := f.Read(out[:n])
	f.Pop(1)
	return got
}

// Framing describes the sentinels of a length-prefixed message.
type Framing struct {
	First byte
	Last  byte
}

// DefaultFraming uses STX / ETX sentinels
var DefaultFraming = Framing{First: DefaultFirstByte, Last: DefaultLastByte}

// Locate finds the first complete frame in f and returns its total length.
//
// Bytes preceding a FIRST_BYTE are discarded. A candidate whose footer does
// not match, or whose LENGTH can never describe a valid frame in f, loses
// its FIRST_BYTE and the scan restarts. Incomplete frames are left in place
// and ok is false.
func (fr Framing) Locate(f *FifoBuffer) (length int, ok bool) {
	for {
		used := f.Used()
		first := f.Find(fr.First, 0)
		if first == used {
			return 0, false
		}
		if first > 0 {
			f.Pop(first)
		}

		if f.Used() < MessageHeaderLength {
			return 0, false
		}
		length = int(f.Peek(MessageLengthOffset))
		if length <= MessageStructureLength || length > f.Capacity() {
			f.Pop(MessageLengthOffset)
			continue
		}

		if f.Used() < length {
			return 0, false
		}
		if f.Peek(length-1) == fr.Last {
			return length, true
		}
		f.Pop(MessageLengthOffset)
	}
}

// Take consumes a frame of the given total length located by Locate and
// copies its payload into out. out must hold length-MessageStructureLength
// bytes.
func (fr Framing) Take(f *FifoBuffer, length int, out []byte) int {
	count := length - MessageStructureLength
	f.Pop(MessageHeaderLength)
	got := f.Read(out[:count])
	f.Pop(MessageFooterLength)
	return got
}

// AppendFrame appends the framed payload to dst.
func (fr Framing) AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return dst, ErrEmptyPayload
	}
	if len(payload) > MessagePayloadMax {
		return dst, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLong, len(payload), MessagePayloadMax)
	}
	dst = append(dst, fr.First, byte(len(payload)+MessageStructureLength))
	dst = append(dst, payload...)
	return append(dst, fr.Last), nil
}

// Encode returns payload wrapped in a frame.
func (fr Framing) Encode(payload []byte) ([]byte, error) {
	return fr.AppendFrame(make([]byte, 0, len(payload)+MessageStructureLength), payload)
}

// WriteFrame writes the framed payload into f. The caller must have
// checked that f has room for len(payload)+MessageStructureLength bytes.
func (fr Framing) WriteFrame(f *FifoBuffer, payload []byte) {
	f.Put(fr.First)
	f.Put(byte(len(payload) + MessageStructureLength))
	f.Write(payload)
	f.Put(fr.Last)
}
