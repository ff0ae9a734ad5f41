//go:build !tinygo

package core

// State stands in for the saved interrupt mask on hosted Go.
type State uintptr

// disableInterrupts is a no-op on hosted Go; tests drive the dispatch loop
// from a single goroutine.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {
}
