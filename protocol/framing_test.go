package protocol

import (
	"bytes"
	"errors"
	"testing"
)

const (
	first = DefaultFirstByte
	last  = DefaultLastByte
)

func fifoWith(capacity int, data ...byte) *FifoBuffer {
	f := NewFifoBuffer(capacity)
	f.Write(data)
	return f
}

func TestLineLength(t *testing.T) {
	f := fifoWith(16, 'H', 'e', 'l', 'l', 'o', '\n', 'W')

	n, ok := LineLength(f, LineTerminator)
	if !ok || n != 5 {
		t.Fatalf("Expected line of 5, got %d (ok=%v)", n, ok)
	}

	out := make([]byte, 16)
	got := TakeLine(f, n, out)
	if got != 5 || string(out[:got]) != "Hello" {
		t.Errorf("Expected Hello, got %q", out[:got])
	}
	if f.Used() != 1 || f.Peek(0) != 'W' {
		t.Errorf("Expected W left in ring, used=%d", f.Used())
	}

	if _, ok := LineLength(f, LineTerminator); ok {
		t.Error("Expected no complete line")
	}
}

func TestLocateWithPreamble(t *testing.T) {
	f := fifoWith(32, 0xFF, 0xFF, first, 0x06, 'A', 'B', 'C', last)

	length, ok := DefaultFraming.Locate(f)
	if !ok || length != 6 {
		t.Fatalf("Expected frame length 6, got %d (ok=%v)", length, ok)
	}
	if f.Used() != 6 {
		t.Errorf("Expected preamble discarded, used=%d", f.Used())
	}

	out := make([]byte, 8)
	n := DefaultFraming.Take(f, length, out)
	if n != 3 || string(out[:n]) != "ABC" {
		t.Errorf("Expected ABC, got %q", out[:n])
	}
	if !f.IsEmpty() {
		t.Errorf("Expected empty ring, used=%d", f.Used())
	}
}

func TestLocateFalseFirstByte(t *testing.T) {
	f := fifoWith(32, first, 0x05, 'X', 'Y', 'Z', first, 0x05, 'A', 'B', last)

	length, ok := DefaultFraming.Locate(f)
	if !ok || length != 5 {
		t.Fatalf("Expected second frame of length 5, got %d (ok=%v)", length, ok)
	}
	out := make([]byte, 8)
	n := DefaultFraming.Take(f, length, out)
	if n != 2 || string(out[:n]) != "AB" {
		t.Errorf("Expected AB, got %q", out[:n])
	}
}

func TestLocateIncomplete(t *testing.T) {
	cases := map[string][]byte{
		"no first byte": {'x', 'y'},
		"header only":   {first},
		"short body":    {first, 0x06, 'A', 'B'},
	}
	for name, data := range cases {
		f := fifoWith(32, data...)
		if _, ok := DefaultFraming.Locate(f); ok {
			t.Errorf("%s: expected no frame", name)
		}
	}

	// Partial frames stay buffered
	f := fifoWith(32, 'g', first, 0x06, 'A', 'B')
	DefaultFraming.Locate(f)
	if f.Used() != 4 || f.Peek(0) != first {
		t.Errorf("Expected partial frame kept at head, used=%d head=0x%02x", f.Used(), f.Peek(0))
	}
	f.Write([]byte{'C', last})
	if length, ok := DefaultFraming.Locate(f); !ok || length != 6 {
		t.Errorf("Expected frame once completed, got %d (ok=%v)", length, ok)
	}
}

func TestLocateRejectsImpossibleLength(t *testing.T) {
	// LENGTH 2 cannot hold a frame; LENGTH 200 exceeds a 16-byte ring
	f := fifoWith(16, first, 0x02, first, 200, first, 0x04, 'k', last)
	length, ok := DefaultFraming.Locate(f)
	if !ok || length != 4 {
		t.Fatalf("Expected frame length 4, got %d (ok=%v)", length, ok)
	}
}

func TestEncode(t *testing.T) {
	frame, err := DefaultFraming.Encode([]byte("hi"))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{first, 5, 'h', 'i', last}
	if !bytes.Equal(frame, want) {
		t.Errorf("Expected %v, got %v", want, frame)
	}

	if _, err := DefaultFraming.Encode(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
	if _, err := DefaultFraming.Encode(make([]byte, MessagePayloadMax+1)); !errors.Is(err, ErrPayloadTooLong) {
		t.Errorf("Expected ErrPayloadTooLong, got %v", err)
	}
}

func TestWriteFrameRoundTrip(t *testing.T) {
	f := NewFifoBuffer(256)
	for _, size := range []int{1, 64, MessagePayloadMax} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
		DefaultFraming.WriteFrame(f, payload)

		length, ok := DefaultFraming.Locate(f)
		if !ok || length != size+MessageStructureLength {
			t.Fatalf("size %d: expected length %d, got %d (ok=%v)", size, size+MessageStructureLength, length, ok)
		}
		out := make([]byte, MessagePayloadMax)
		n := DefaultFraming.Take(f, length, out)
		if !bytes.Equal(out[:n], payload) {
			t.Errorf("size %d: payload mismatch", size)
		}
	}
}
