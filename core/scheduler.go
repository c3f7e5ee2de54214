package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	insertTimer(t)
}

// CancelTimer removes t from the schedule if present
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for p := &timerList; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return
		}
	}
}

// insertTimer inserts a timer in order of WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || timerBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !timerBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// timerBefore compares wake times across counter wrap-around
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// TimerDispatch runs due timers. Each timer is unlinked inside the critical
// section and its handler runs outside it, so handlers may enter the
// critical section themselves (the UART servicer does).
func TimerDispatch() {
	for {
		state := disableInterrupts()
		t := timerList
		if t == nil || timerBefore(currentTime, t.WakeTime) {
			restoreInterrupts(state)
			return
		}
		timerList = t.Next
		t.Next = nil
		restoreInterrupts(state)

		if t.Handler(t) == SF_RESCHEDULE {
			ScheduleTimer(t)
		}
	}
}

// ServiceTimer returns a timer that runs u.Service every period ticks.
// Missed periods are skipped rather than replayed.
func (u *UART) ServiceTimer(period uint32) *Timer {
	if period == 0 {
		period = 1
	}
	return &Timer{
		WakeTime: GetTime() + period,
		Handler: func(t *Timer) uint8 {
			u.Service()
			t.WakeTime += period
			if !timerBefore(GetTime(), t.WakeTime) {
				t.WakeTime = GetTime() + period
			}
			return SF_RESCHEDULE
		},
	}
}

// resetTimers clears the schedule
func resetTimers() {
	state := disableInterrupts()
	timerList = nil
	currentTime = 0
	restoreInterrupts(state)
}
