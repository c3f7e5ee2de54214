package core

import (
	"context"
	"time"
)

// Run calls Service every period until ctx is done. It stands in for the
// periodic tick interrupt when the adapter runs as a goroutine.
func (u *UART) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = time.Second / time.Duration(u.cfg.TickRateHz)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.Service()
		}
	}
}

// TimerLoop latches the clock with update and runs due timers until ctx is
// done, sleeping idle between passes. Run it on its own goroutine: a
// foreground put waiting for TX room yields to it, so the servicer timer
// keeps draining the ring.
func TimerLoop(ctx context.Context, update func(), idle time.Duration) {
	for ctx.Err() == nil {
		if update != nil {
			update()
		}
		ProcessTimers()
		time.Sleep(idle)
	}
}

// MonotonicClock returns an update function for TimerLoop that sets the
// system time from the host's monotonic clock, in timer ticks since the
// call.
func MonotonicClock() func() {
	start := time.Now()
	return func() {
		SetTime(TimerFromUS(uint32(time.Since(start).Microseconds())))
	}
}
