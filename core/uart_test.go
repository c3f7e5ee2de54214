package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestInitWaitsForEnumeration(t *testing.T) {
	m := newMockUSB()
	m.configured = false
	u := New(m, DefaultConfig())

	go func() {
		time.Sleep(10 * time.Millisecond)
		m.setConfigured(true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := u.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if m.inits() != 1 {
		t.Errorf("Expected one CDC init, got %d", m.inits())
	}

	// The change flag raised by enumeration was consumed by Init
	var b byte
	u.GetByte(&b)
	if m.inits() != 1 {
		t.Errorf("Expected no re-init after Init, got %d", m.inits())
	}
}

func TestInitCancelled(t *testing.T) {
	m := newMockUSB()
	m.configured = false
	u := New(m, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := u.Init(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if m.inits() != 0 {
		t.Error("CDC must not be initialized before enumeration")
	}
}

func TestInitResetsState(t *testing.T) {
	u, m := newTestUART(t, Config{})
	m.hostWrite([]byte("stale"))
	u.Service()
	u.Write([]byte("pending"))

	if err := u.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if u.Buffered() != 0 || u.TxPending() != 0 || u.ZLPRequired() {
		t.Errorf("Expected clean state, rx=%d tx=%d", u.Buffered(), u.TxPending())
	}
}

func TestEnsureReadyReinitializesOnChange(t *testing.T) {
	u, m := newTestUART(t, Config{})
	var debug []string
	u.SetDebugWriter(func(s string) { debug = append(debug, s) })

	m.hostWrite([]byte("kept\n"))
	u.Service()

	m.reconfigure()
	out := make([]byte, 16)
	n := u.GetLine(out)
	if m.inits() != 2 {
		t.Errorf("Expected CDC re-init before the read, got %d inits", m.inits())
	}
	if string(out[:n]) != "kept" {
		t.Errorf("Ring contents must survive reconfiguration, got %q", out[:n])
	}
	if u.Stats().Reconfigurations != 2 {
		t.Errorf("Expected 2 reconfigurations, got %d", u.Stats().Reconfigurations)
	}
	if len(debug) != 1 || !strings.Contains(debug[0], "re-initialized") {
		t.Errorf("Expected re-init debug message, got %v", debug)
	}

	// No change: no init
	u.PutByte('x')
	if m.inits() != 2 {
		t.Errorf("Unexpected re-init, got %d", m.inits())
	}
}

func TestEnsureReadySkipsWhileUnconfigured(t *testing.T) {
	u, m := newTestUART(t, Config{})

	m.setConfigured(false)
	var b byte
	u.GetByte(&b)
	if m.inits() != 1 {
		t.Errorf("Expected no init while unconfigured, got %d", m.inits())
	}

	m.setConfigured(true)
	u.GetByte(&b)
	if m.inits() != 2 {
		t.Errorf("Expected init once configured again, got %d", m.inits())
	}
}

func TestEvents(t *testing.T) {
	u, m := newTestUART(t, Config{})
	u.Write(make([]byte, MaxPacketSize))
	u.Service()
	u.Service()

	events := u.Events()
	if len(events) != 2 || events[0].Type != EvtCDCInit || events[1].Type != EvtTxZLP {
		t.Fatalf("Unexpected events %+v", events)
	}

	var lines []string
	u.SetDebugWriter(func(s string) { lines = append(lines, s) })
	u.DumpEvents()
	if len(lines) != 4 || !strings.Contains(lines[2], "TX_ZLP") {
		t.Errorf("Unexpected dump %v", lines)
	}
	if len(m.transfers()) != 2 {
		t.Errorf("Expected 2 transfers, got %d", len(m.transfers()))
	}
}

func TestEventRingWraps(t *testing.T) {
	u, m := newTestUART(t, Config{})
	m.setINReady(false)
	// Each stall cycle records a reject and a purge
	for i := 0; i < EventRingSize*(DefaultTxMaxReject+1); i++ {
		if u.TxPending() == 0 {
			u.Write([]byte{1})
		}
		u.Service()
	}
	if got := len(u.Events()); got != EventRingSize {
		t.Errorf("Expected %d events, got %d", EventRingSize, got)
	}
}

func TestUtoa(t *testing.T) {
	cases := map[uint32]string{0: "0", 7: "7", 100: "100", 4294967295: "4294967295"}
	for n, want := range cases {
		if got := utoa(n); got != want {
			t.Errorf("utoa(%d): expected %s, got %s", n, want, got)
		}
	}
}
