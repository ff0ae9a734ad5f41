package core

// TimerFreq is the step timer tick rate. All step periods in this package
// are expressed in these ticks.
const TimerFreq = 16000000

// GetTime returns the current system time in timer ticks.
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time. Used by tests and by hardware
// targets that mirror a hardware counter into the soft clock.
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks.
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds.
func TimerToUS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000000)
}

// ProcessTimers refreshes the dispatch clock and runs all due timers.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
