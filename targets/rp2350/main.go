//go:build rp2350

// Firmware for RP2350 boards: a line/message echo on top of the buffered
// USB CDC adapter, serviced at 2 kHz from the timer list.
package main

import (
	"context"
	"machine"
	"time"

	"usbuart/core"
)

// echoMode selects line or message echo. Set at build time with
// -ldflags "-X main.echoMode=message".
var echoMode = "line"

// ledBlink blinks the LED a specific number of times for diagnostics
func ledBlink(count int) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < count; i++ {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(150 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)
}

func main() {
	// Clear any watchdog state left from before the reset
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitClock()
	InitDebugUART()

	cfg := core.DefaultConfig()
	cfg.Messages = echoMode == "message"
	u := core.New(newCDCPort(), cfg)
	u.SetDebugWriter(DebugPrintln)

	if err := u.Init(context.Background()); err != nil {
		DebugPrintln("usbuart init failed: " + err.Error())
		return
	}

	// The servicer runs on its own goroutine so a put waiting for TX room
	// yields to it
	UpdateSystemTime()
	core.ScheduleTimer(u.ServiceTimer(core.TickPeriod(cfg.TickRateHz)))
	go core.TimerLoop(context.Background(), UpdateSystemTime, 10*time.Microsecond)

	// DIAGNOSTIC: 1 blink = adapter running
	ledBlink(1)

	buf := make([]byte, 256)
	for {
		if cfg.Messages {
			if n := u.GetMessage(buf); n > 0 {
				u.PutMessage(buf[:n])
			}
		} else if n := u.GetLine(buf); n > 0 {
			u.PutLine(buf[:n])
		}

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}
