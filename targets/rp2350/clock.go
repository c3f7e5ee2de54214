//go:build rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"usbuart/core"
)

// RP2350 TIMER0 registers. The RP2040 timer lives at 0x40054000 instead.
//
// timeRawL @ 0x28 - Raw read from lower 32b (what TinyGo uses)
const (
	timerBase     = 0x400B0000
	timerTimeRawL = timerBase + 0x28
)

var timerRawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawL)))

// InitClock waits for the 1 MHz timer to settle after TinyGo's clock setup
func InitClock() {
	_ = timerRawL.Get()
	_ = timerRawL.Get()
	_ = timerRawL.Get()
}

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRawL.Get()
}

// UpdateSystemTime latches the hardware counter into the core clock
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
