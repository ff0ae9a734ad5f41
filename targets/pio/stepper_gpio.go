//go:build rp2040 || rp2350

package pio

import (
	"device/arm"
	"device/rp"
	"machine"
)

// GPIOBackend drives step and dir pins through the SIO registers. It is
// the fallback when all PIO state machines are taken.
type GPIOBackend struct {
	stepPin    machine.Pin
	dirPin     machine.Pin
	invertStep bool
	invertDir  bool

	stepSetMask   uint32
	stepClearMask uint32
	dirSetMask    uint32
	dirClearMask  uint32
}

func NewGPIOBackend() *GPIOBackend {
	return &GPIOBackend{}
}

func (b *GPIOBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)
	b.invertStep = invertStep
	b.invertDir = invertDir

	b.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.stepPin.Low()
	b.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.dirPin.Low()

	b.stepSetMask = 1 << stepPin
	b.stepClearMask = 1 << stepPin
	b.dirSetMask = 1 << dirPin
	b.dirClearMask = 1 << dirPin
	if invertStep {
		b.stepSetMask, b.stepClearMask = b.stepClearMask, b.stepSetMask
	}
	if invertDir {
		b.dirSetMask, b.dirClearMask = b.dirClearMask, b.dirSetMask
	}
	return nil
}

// Step emits one pulse. 13 NOPs hold the pin high for roughly 104ns at
// 125MHz, above the 100ns minimum Trinamic drivers need.
func (b *GPIOBackend) Step() {
	rp.SIO.GPIO_OUT_SET.Set(b.stepSetMask)
	arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")
	rp.SIO.GPIO_OUT_CLR.Set(b.stepClearMask)
}

// SetDirection sets the dir pin level. The trailing NOPs cover the
// 20ns dir-to-step setup time of TMC drivers.
func (b *GPIOBackend) SetDirection(countUp bool) {
	if countUp {
		rp.SIO.GPIO_OUT_SET.Set(b.dirSetMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(b.dirClearMask)
	}
	arm.Asm("nop\nnop\nnop")
}

func (b *GPIOBackend) Stop() {
	rp.SIO.GPIO_OUT_CLR.Set(b.stepClearMask)
}

func (b *GPIOBackend) GetName() string {
	return "GPIO"
}
