//go:build !tinygo

package core

import (
	"runtime"
	"sync"
)

// State is a placeholder for interrupt state on regular Go
type State uintptr

// criticalSection stands in for the global interrupt disable when the
// servicer runs on its own goroutine.
var criticalSection sync.Mutex

// disableInterrupts enters the critical section
func disableInterrupts() State {
	criticalSection.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	criticalSection.Unlock()
}

// yield lets the servicer goroutine run between spin iterations
func yield() {
	runtime.Gosched()
}
