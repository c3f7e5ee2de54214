package core

// TimerFreq is the system tick rate: the 1 MHz microsecond counter found on
// RP2040/RP2350 and used by the hosted clock.
const TimerFreq = 1000000

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TickPeriod returns the servicer period in timer ticks for rateHz
func TickPeriod(rateHz int) uint32 {
	if rateHz <= 0 {
		rateHz = DefaultTickRateHz
	}
	return TimerFromUS(uint32(1000000 / rateHz))
}

// ProcessTimers latches the system time and runs due timers
func ProcessTimers() {
	state := disableInterrupts()
	currentTime = GetTime()
	restoreInterrupts(state)
	TimerDispatch()
}
