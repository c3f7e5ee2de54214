package core

// DebugWriter is a function type for writing debug messages.
// It is called inside the critical section and must not block or call
// back into the UART.
type DebugWriter func(string)

// Stats counts servicer and supervisor activity
type Stats struct {
	RxPackets        uint32 // OUT transfers drained into the RX ring
	RxBytes          uint32
	RxNaks           uint32 // OUT transfers left in the FIFO for lack of space
	TxPackets        uint32 // IN transfers issued, zero-length included
	TxBytes          uint32
	TxZLPs           uint32
	TxRejects        uint32 // ticks with pending data and a busy IN endpoint
	TxPurges         uint32 // stall recoveries
	TxPurgedBytes    uint32
	Reconfigurations uint32 // CDC sub-layer initializations
}

// Event type codes
const (
	EvtRxNak    = 1 // OUT transfer did not fit the RX ring
	EvtTxZLP    = 2 // zero-length packet sent
	EvtTxPurge  = 3 // TX ring discarded by stall recovery
	EvtCDCInit  = 4 // CDC sub-layer (re)initialized
	EvtTxReject = 5 // IN endpoint not ready
)

// EventRingSize is the number of events kept for post-mortem
const EventRingSize = 32

// Event captures a transport event for post-mortem analysis
type Event struct {
	Type  uint8
	Clock uint32
	Value uint32
}

type eventRing struct {
	events [EventRingSize]Event
	head   uint8
}

func (r *eventRing) record(typ uint8, value uint32) {
	r.events[r.head] = Event{Type: typ, Clock: GetTime(), Value: value}
	r.head = (r.head + 1) % EventRingSize
}

// SetDebugWriter sets the debug output function. Stall purges and
// reconfigurations are reported through it.
func (u *UART) SetDebugWriter(writer DebugWriter) {
	state := disableInterrupts()
	u.debug = writer
	restoreInterrupts(state)
}

func (u *UART) debugPrintln(msg string) {
	if u.debug != nil {
		u.debug(msg)
	}
}

// Events returns the recorded events, oldest first
func (u *UART) Events() []Event {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := u.events.events[(u.events.head+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// DumpEvents writes the event ring through the debug writer
func (u *UART) DumpEvents() {
	events := u.Events()
	state := disableInterrupts()
	defer restoreInterrupts(state)

	u.debugPrintln("[USBUART] === Event Dump ===")
	for _, evt := range events {
		u.debugPrintln("[USBUART] " + eventName(evt.Type) +
			" us=" + utoa(TimerToUS(evt.Clock)) +
			" value=" + utoa(evt.Value))
	}
	u.debugPrintln("[USBUART] === End Dump ===")
}

func eventName(typ uint8) string {
	switch typ {
	case EvtRxNak:
		return "RX_NAK"
	case EvtTxZLP:
		return "TX_ZLP"
	case EvtTxPurge:
		return "TX_PURGE!"
	case EvtCDCInit:
		return "CDC_INIT"
	case EvtTxReject:
		return "TX_REJECT"
	default:
		return "UNKNOWN"
	}
}

// utoa converts an unsigned integer to a string without the fmt package
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
