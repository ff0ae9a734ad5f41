//go:build tinygo

// Package unipolar adapts a four-wire unipolar stepper (28BYJ-48 and
// friends on a ULN2003 board) to the step backend interface, so the same
// ramp code can drive coil-sequenced motors that have no step/dir input.
package unipolar

import (
	"machine"

	"tinygo.org/x/drivers/easystepper"
)

// Backend drives the coil sequence through the easystepper driver. The
// ramp code paces the steps; the driver only advances the coil pattern,
// so DeviceConfig.RPM merely sets its internal minimum delay.
type Backend struct {
	dev       *easystepper.Device
	countUp   bool
	invertDir bool
}

// Config selects the four coil pins and the motor geometry.
type Config struct {
	Pin1, Pin2, Pin3, Pin4 machine.Pin
	StepCount              uint
}

// New creates a backend for the given coil pins.
func New(cfg Config) (*Backend, error) {
	dev, err := easystepper.New(easystepper.DeviceConfig{
		Pin1:      cfg.Pin1,
		Pin2:      cfg.Pin2,
		Pin3:      cfg.Pin3,
		Pin4:      cfg.Pin4,
		StepCount: cfg.StepCount,
		RPM:       60,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{dev: dev}, nil
}

// Init configures the coil pins. The step and dir pin arguments do not
// apply to a coil-sequenced motor; only invertDir is honored.
func (b *Backend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.invertDir = invertDir
	b.dev.Configure()
	return nil
}

// Step advances the coil sequence by one position.
func (b *Backend) Step() {
	if b.countUp != b.invertDir {
		b.dev.Move(1)
	} else {
		b.dev.Move(-1)
	}
}

func (b *Backend) SetDirection(countUp bool) {
	b.countUp = countUp
}

// Stop de-energizes the coils.
func (b *Backend) Stop() {
	b.dev.Off()
}

func (b *Backend) GetName() string {
	return "unipolar"
}
