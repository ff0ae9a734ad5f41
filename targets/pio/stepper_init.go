//go:build rp2040

package pio

import (
	"accelstep/core"
)

// The RP2040 has 2 PIO blocks with 4 state machines each. Each motor
// claims one state machine; once all 8 are taken the factory falls back
// to direct GPIO.
var (
	pioAllocations [2][4]bool
	nextPIONum     uint8
	nextSMNum      uint8
)

// InitBackends installs the backend factory used by config_motor when no
// explicit backend is supplied.
func InitBackends() {
	core.SetMotorBackendFactory(newBackend)
}

func newBackend() core.StepBackend {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return NewGPIOBackend()
	}
	return NewPIOBackend(pioNum, smNum)
}

func allocatePIO() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ {
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// ResetAllocations frees all state machine bookkeeping (for testing).
func ResetAllocations() {
	pioAllocations = [2][4]bool{}
	nextPIONum = 0
	nextSMNum = 0
}
