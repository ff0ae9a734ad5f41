package core

import "errors"

// MaxMotors bounds the motor registry.
const MaxMotors = 16

var (
	ErrBadMotorIndex = errors.New("motor index exceeds maximum")
	ErrNoBackend     = errors.New("no step backend configured")
	ErrMotorRunning  = errors.New("operation requires a stopped motor")
)

// Motor couples a ramp generator with a step queue and a hardware backend
// for one axis. The application thread configures motion and calls
// FillQueue from its main loop; the step queue drains at timer dispatch
// priority.
type Motor struct {
	rg      RampGenerator
	queue   StepQueue
	backend StepBackend
}

// Global motor registry, indexed by the motor id used on the wire.
var (
	motors     [MaxMotors]*Motor
	motorCount uint8

	// Backend factory, set by platform-specific initialization.
	motorBackendFactory func() StepBackend
)

// SetMotorBackendFactory installs the factory used by ConfigMotor when no
// explicit backend is passed.
func SetMotorBackendFactory(factory func() StepBackend) {
	motorBackendFactory = factory
}

// ConfigMotor creates and registers a motor on the given pins. A nil
// backend selects the platform factory backend.
func ConfigMotor(index uint8, backend StepBackend, stepPin, dirPin uint8, invertStep, invertDir bool) (*Motor, error) {
	if index >= MaxMotors {
		return nil, ErrBadMotorIndex
	}
	if backend == nil && motorBackendFactory != nil {
		backend = motorBackendFactory()
	}
	if backend == nil {
		return nil, ErrNoBackend
	}

	m := &Motor{}
	if err := m.Init(backend, stepPin, dirPin, invertStep, invertDir); err != nil {
		return nil, err
	}

	motors[index] = m
	if index >= motorCount {
		motorCount = index + 1
	}
	return m, nil
}

// GetMotor returns a registered motor or nil.
func GetMotor(index uint8) *Motor {
	if index >= motorCount {
		return nil
	}
	return motors[index]
}

// Init claims the backend pins and resets all motion state.
func (m *Motor) Init(backend StepBackend, stepPin, dirPin uint8, invertStep, invertDir bool) error {
	if err := backend.Init(stepPin, dirPin, invertStep, invertDir); err != nil {
		return err
	}
	m.backend = backend
	m.rg.Init()
	m.queue.Init(backend)
	return nil
}

// SetAcceleration configures the ramp acceleration in steps/s^2.
// Values <= 0 are rejected.
func (m *Motor) SetAcceleration(accel int32) error {
	return m.rg.SetAcceleration(accel)
}

// SetSpeedInTicks configures the step period at target speed in timer
// ticks.
func (m *Motor) SetSpeedInTicks(minTravelTicks uint32) error {
	return m.rg.SetSpeedInTicks(minTravelTicks)
}

// SetSpeedInHz configures the target speed in steps per second.
func (m *Motor) SetSpeedInHz(stepsPerSecond uint32) error {
	if stepsPerSecond == 0 {
		return ErrInvalidSpeed
	}
	return m.rg.SetSpeedInTicks(TimerFreq / stepsPerSecond)
}

// ApplySpeedAcceleration publishes pending speed and acceleration changes
// to a running ramp. Move commands apply them implicitly.
func (m *Motor) ApplySpeedAcceleration() {
	m.rg.ApplySpeedAcceleration()
}

// MoveTo ramps the motor to an absolute position.
func (m *Motor) MoveTo(position int32) error {
	end := m.queue.EndState()
	return m.rg.MoveTo(position, &end)
}

// Move ramps the motor by delta steps relative to where the already queued
// commands will end.
func (m *Motor) Move(delta int32) error {
	end := m.queue.EndState()
	return m.rg.Move(delta, &end)
}

// AdvanceTargetPosition shifts the target of a running move.
func (m *Motor) AdvanceTargetPosition(delta int32) {
	end := m.queue.EndState()
	m.rg.AdvanceTargetPosition(delta, &end)
}

// RunForward starts continuous rotation in count-up direction.
func (m *Motor) RunForward() error {
	return m.rg.StartRun(true)
}

// RunBackward starts continuous rotation in count-down direction.
func (m *Motor) RunBackward() error {
	return m.rg.StartRun(false)
}

// StopMove ramps down to standstill at the configured acceleration,
// abandoning the target position.
func (m *Motor) StopMove() {
	m.rg.StopRamp()
}

// ForceStop discards all queued commands immediately. A command the
// executor has already committed to still finishes; the ramp generator
// then winds the remaining speed down.
func (m *Motor) ForceStop() {
	state := disableInterrupts()
	inFlight := m.queue.IsCommandInFlight()
	m.queue.Clear()
	restoreInterrupts(state)
	m.rg.InitiateImmediateStop(inFlight)
	m.backend.Stop()
}

// FillQueue tops the step queue up with freshly generated commands. Call
// it regularly from the main loop; it returns once the queue is full, the
// ramp is complete, or a command was rejected.
func (m *Motor) FillQueue() error {
	for !m.queue.IsFull() {
		cmd := m.rg.GetNextCommand(&m.queue.end)
		if cmd.Command.Ticks == 0 {
			// No further command; fold the terminal state so the idle
			// transition reaches the baseline.
			m.rg.AfterCommandEnqueued(&cmd)
			return nil
		}
		if err := m.queue.AddEntry(cmd.Command); err != nil {
			// Baseline untouched; the same command is regenerated on the
			// next call.
			return err
		}
		m.rg.AfterCommandEnqueued(&cmd)
	}
	return nil
}

// IsRunning reports whether the motor still has motion pending, either in
// the generator or in the queue.
func (m *Motor) IsRunning() bool {
	return m.rg.IsRampGeneratorActive() || !m.queue.IsEmpty() || m.queue.IsCommandInFlight()
}

// GetCurrentPosition returns the position after all executed steps.
func (m *Motor) GetCurrentPosition() int32 {
	return m.queue.GetCurrentPosition()
}

// GetPositionAfterCommandsCompleted returns where the already queued
// commands will leave the motor.
func (m *Motor) GetPositionAfterCommandsCompleted() int32 {
	return m.queue.EndState().Pos
}

// SetCurrentPosition overwrites the position, typically after homing.
// Rejected while motion is pending.
func (m *Motor) SetCurrentPosition(pos int32) error {
	if m.IsRunning() {
		return ErrMotorRunning
	}
	m.queue.SetPosition(pos)
	return nil
}

// GetCurrentSpeedInTicks returns the step period of the most recent
// command, zero at standstill.
func (m *Motor) GetCurrentSpeedInTicks() uint32 {
	return m.rg.GetCurrentSpeedInTicks()
}

// GetCurrentSpeedInHz returns the current speed in steps per second.
func (m *Motor) GetCurrentSpeedInHz() uint32 {
	ticks := m.rg.GetCurrentSpeedInTicks()
	if ticks == 0 {
		return 0
	}
	return TimerFreq / ticks
}

// GetCurrentAcceleration reports the signed acceleration acting on the
// motor right now.
func (m *Motor) GetCurrentAcceleration() int32 {
	return m.rg.GetCurrentAcceleration()
}

// FillAllQueues refills the step queues of every configured motor. Call
// from the main loop; the first error aborts the sweep.
func FillAllQueues() error {
	for i := uint8(0); i < motorCount; i++ {
		if m := motors[i]; m != nil {
			if err := m.FillQueue(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForceStopAll force-stops every configured motor.
func ForceStopAll() {
	for i := uint8(0); i < motorCount; i++ {
		if m := motors[i]; m != nil {
			m.ForceStop()
		}
	}
}
