//go:build !tinygo

package core

var systemTicks uint32

// getSystemTicks returns the soft clock value. On hosted Go the clock only
// moves when tests or the host loop call SetTime.
func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
