//go:build rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"accelstep/core"
)

// RP2350 TIMER0. The peripheral moved relative to the RP2040 and the
// raw read registers sit at different offsets.
const (
	timerBase     = 0x400B0000
	timerTimeRawH = timerBase + 0x24
	timerTimeRawL = timerBase + 0x28
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawL)))
)

const ticksPerMicrosecond = core.TimerFreq / 1000000

func InitClock() {
	UpdateSystemTime()
}

// GetHardwareTime reads the low 32 bits of the microsecond counter.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit counter. High word is read
// twice to detect a rollover between the two halves.
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime mirrors the hardware counter into the scheduler
// clock. The multiply wraps uint32, which keeps tick arithmetic
// consistent across the rollover.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime() * ticksPerMicrosecond)
}
