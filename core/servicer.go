package core

// TxState is the state of the transmit side
type TxState uint8

// Transmit states
const (
	TxIdle    TxState = iota // ring empty, no ZLP owed
	TxFilling                // ring holds data
	TxWaitZLP                // last IN transfer was a full packet
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxFilling:
		return "filling"
	case TxWaitZLP:
		return "wait_zlp"
	default:
		return "unknown"
	}
}

// Service moves bytes between the USB endpoints and the rings. It is the
// body of the periodic tick (about 2 kHz) and runs entirely inside the
// critical section.
func (u *UART) Service() {
	state := disableInterrupts()
	u.rxPump()
	u.txPump()
	restoreInterrupts(state)
}

// rxPump drains a waiting OUT transfer into the RX ring. A transfer that
// does not fit is left in the USB FIFO so the endpoint NAKs the host.
func (u *UART) rxPump() {
	if !u.usb.DataIsReady() {
		return
	}

	count := u.usb.GetCount()
	if count > u.rx.Free() || count > len(u.scratch) {
		u.stats.RxNaks++
		u.events.record(EvtRxNak, uint32(count))
		return
	}

	count = u.usb.GetAll(u.scratch[:count])
	u.rx.Write(u.scratch[:count])
	u.stats.RxPackets++
	u.stats.RxBytes += uint32(count)
}

// txPump sends up to one packet from the TX ring, or the zero-length
// packet owed after a full one. When the host stops draining for more than
// TxMaxReject ticks the TX ring is discarded.
func (u *UART) txPump() {
	if u.tx.IsEmpty() && !u.zlpRequired {
		return
	}

	if u.usb.CDCIsReady() {
		count := u.tx.Used()
		if count > MaxPacketSize {
			count = MaxPacketSize
		}
		u.tx.Read(u.scratch[:count])
		u.usb.PutData(u.scratch[:count])

		u.zlpRequired = count == MaxPacketSize
		u.txReject = 0

		u.stats.TxPackets++
		u.stats.TxBytes += uint32(count)
		if count == 0 {
			u.stats.TxZLPs++
			u.events.record(EvtTxZLP, 0)
		}
		return
	}

	u.txReject++
	u.stats.TxRejects++
	if u.txReject == 1 {
		u.events.record(EvtTxReject, uint32(u.tx.Used()))
	}
	if u.txReject > u.cfg.TxMaxReject {
		purged := u.tx.Used()
		u.tx.Reset()
		u.txReject = 0
		u.stats.TxPurges++
		u.stats.TxPurgedBytes += uint32(purged)
		u.events.record(EvtTxPurge, uint32(purged))
		u.debugPrintln("[USBUART] TX stalled, discarded " + utoa(uint32(purged)) + " bytes")
	}
}

// TxState reports the transmit state
func (u *UART) TxState() TxState {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	switch {
	case u.zlpRequired:
		return TxWaitZLP
	case !u.tx.IsEmpty():
		return TxFilling
	default:
		return TxIdle
	}
}

// TxRejects returns the current consecutive reject count
func (u *UART) TxRejects() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.txReject
}

// ZLPRequired reports whether the next IN transfer must close a full packet
func (u *UART) ZLPRequired() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.zlpRequired
}
