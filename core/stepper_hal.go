package core

// StepBackend is the hardware abstraction the step queue drives.
// Implementations exist for plain GPIO, PIO state machines and stepper
// driver libraries; Step and SetDirection run at timer dispatch priority
// and must return quickly.
type StepBackend interface {
	// Init claims the pins. Polarity inversion is handled inside the
	// backend so the queue always speaks in logical pulses.
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// Step emits a single step pulse, including its minimum width.
	Step()

	// SetDirection drives the direction output. true counts up. The
	// backend guarantees direction-to-step setup time.
	SetDirection(countUp bool)

	// Stop forces the outputs to their idle level.
	Stop()

	// GetName identifies the backend implementation.
	GetName() string
}
