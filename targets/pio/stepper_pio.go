//go:build rp2040

package pio

// Step pulse generation on the RP2040 PIO. The state machine consumes one
// 32-bit command word per burst:
//
//	Bits 0-15:  pulse count
//	Bits 16-23: delay cycles between pulses
//	Bit 31:     direction level
//
// The program pulls a word, splits it into X (count), Y (delay) and the
// direction pin, then emits X pulses with Y idle cycles between them.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

func buildStepProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

// Jump targets are absolute, so the program must load at offset 0.
const stepProgramOrigin = 0

// PIOBackend emits step pulses from a PIO state machine. The ramp code
// still paces individual steps; the PIO only shapes the pulse, which
// keeps the width stable regardless of interrupt load.
type PIOBackend struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	countUp   bool
	invertDir bool
	offset    uint8
}

// NewPIOBackend binds a backend to PIO block pioNum (0 or 1), state
// machine smNum (0-3).
func NewPIOBackend(pioNum, smNum uint8) *PIOBackend {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &PIOBackend{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

func (b *PIOBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)
	b.invertDir = invertDir

	b.sm.TryClaim()

	program := buildStepProgram()
	offset, err := b.pio.AddProgram(program, stepProgramOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)
	// Shift right, no autopull, the program pulls explicitly.
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	// Pin directions and levels must be set after Init.
	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, invertStep)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)

	b.sm.SetEnabled(true)
	return nil
}

// Step queues a single pulse with the current direction level.
func (b *PIOBackend) Step() {
	cmd := uint32(1) | (1 << 16)
	if b.countUp != b.invertDir {
		cmd |= 1 << 31
	}
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(cmd)
}

func (b *PIOBackend) SetDirection(countUp bool) {
	b.countUp = countUp
}

// Stop drains pending pulses and restarts the state machine.
func (b *PIOBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

func (b *PIOBackend) GetName() string {
	return "PIO"
}
