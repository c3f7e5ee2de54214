//go:build tinygo

package core

import (
	"runtime"
	"runtime/interrupt"
)

// State is the saved interrupt state
type State = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}

// yield lets the tick interrupt (or scheduler) run between spin iterations
func yield() {
	runtime.Gosched()
}
