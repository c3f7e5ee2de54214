package link

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"usbuart/pkg"
	"usbuart/protocol"
)

// pipePort feeds the link from an io.Pipe and records what it writes
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *pipePort) Close() error {
	p.w.Close()
	return p.r.Close()
}

func (p *pipePort) sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeLine, "line": ModeLine, "message": ModeMessage, "msg": ModeMessage}
	for name, want := range cases {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q): expected %v, got %v (%v)", name, want, got, err)
		}
	}
	if _, err := ParseMode("raw"); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestWriteFraming(t *testing.T) {
	port := newPipePort()
	l := New(port, DefaultOptions())
	defer l.Close()

	if err := l.WriteLine([]byte("ok")); err != nil {
		t.Fatal(err)
	}
	if err := l.WriteMessage([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	want := []byte{'o', 'k', '\n', protocol.DefaultFirstByte, 5, 'h', 'i', protocol.DefaultLastByte}
	if got := port.sent(); !bytes.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if err := l.WriteMessage(nil); !errors.Is(err, protocol.ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
}

func TestReadLines(t *testing.T) {
	port := newPipePort()
	l := New(port, DefaultOptions())
	defer l.Close()

	go port.w.Write([]byte("first\nsec"))
	got, err := l.ReadLine(time.Second)
	if err != nil || string(got) != "first" {
		t.Fatalf("Expected first, got %q (%v)", got, err)
	}

	if _, err := l.ReadLine(20 * time.Millisecond); !errors.Is(err, pkg.ErrTimeout) {
		t.Errorf("Expected timeout on a partial line, got %v", err)
	}

	go port.w.Write([]byte("ond\n"))
	got, err = l.ReadLine(time.Second)
	if err != nil || string(got) != "second" {
		t.Errorf("Expected second, got %q (%v)", got, err)
	}

	if _, err := l.ReadMessage(time.Millisecond); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Expected mode mismatch error, got %v", err)
	}
}

func TestReadMessages(t *testing.T) {
	port := newPipePort()
	opts := DefaultOptions()
	opts.Mode = ModeMessage
	l := New(port, opts)
	defer l.Close()

	stream := []byte{0xAA, protocol.DefaultFirstByte, 0x05, 'X', 'Y', 'Z'}
	frame, _ := protocol.DefaultFraming.Encode([]byte("AB"))
	stream = append(stream, frame...)
	go port.w.Write(stream)

	got, err := l.ReadMessage(time.Second)
	if err != nil || string(got) != "AB" {
		t.Fatalf("Expected AB, got %q (%v)", got, err)
	}

	if _, err := l.ReadLine(time.Millisecond); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Expected mode mismatch error, got %v", err)
	}
}

func TestQueueDropsOldest(t *testing.T) {
	port := newPipePort()
	opts := DefaultOptions()
	opts.QueueSize = 2
	l := New(port, opts)
	defer l.Close()

	port.w.Write([]byte("1\n2\n3\n"))

	deadline := time.Now().Add(time.Second)
	for l.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.Dropped() != 1 {
		t.Fatalf("Expected 1 dropped frame, got %d", l.Dropped())
	}
	for _, want := range []string{"2", "3"} {
		got, err := l.Receive(time.Second)
		if err != nil || string(got) != want {
			t.Errorf("Expected %s, got %q (%v)", want, got, err)
		}
	}
}

func TestClose(t *testing.T) {
	port := newPipePort()
	l := New(port, DefaultOptions())

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a pending read")
	}

	if err := l.WriteLine([]byte("x")); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := l.Receive(time.Second); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Second close: %v", err)
	}
}

// stuckPort is a pipePort whose writes hang until release is closed
type stuckPort struct {
	*pipePort
	release chan struct{}
}

func (p *stuckPort) Write(b []byte) (int, error) {
	<-p.release
	return p.pipePort.Write(b)
}

func TestReceiveWhileWriteBlocked(t *testing.T) {
	port := &stuckPort{pipePort: newPipePort(), release: make(chan struct{})}
	opts := DefaultOptions()
	opts.QueueSize = 2
	l := New(port, opts)
	defer l.Close()
	defer close(port.release)

	go l.WriteLine([]byte("stuck"))
	time.Sleep(10 * time.Millisecond)

	// Frames keep flowing, and drops keep counting, while a write hangs
	go port.w.Write([]byte("1\n2\n3\n"))

	result := make(chan uint32, 1)
	go func() {
		deadline := time.Now().Add(time.Second)
		for l.Dropped() == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		result <- l.Dropped()
	}()
	select {
	case dropped := <-result:
		if dropped != 1 {
			t.Errorf("Expected 1 dropped frame, got %d", dropped)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dropped blocked behind a pending write")
	}

	for _, want := range []string{"2", "3"} {
		got, err := l.Receive(time.Second)
		if err != nil || string(got) != want {
			t.Errorf("Expected %s, got %q (%v)", want, got, err)
		}
	}
}
