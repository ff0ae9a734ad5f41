package core

import (
	"errors"
	"testing"
)

func newTestMotor(t *testing.T) (*Motor, *countingBackend) {
	t.Helper()
	resetScheduler()
	backend := &countingBackend{}
	m := &Motor{}
	if err := m.Init(backend, 2, 3, false, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.SetAcceleration(10000); err != nil {
		t.Fatalf("SetAcceleration: %v", err)
	}
	if err := m.SetSpeedInHz(4000); err != nil {
		t.Fatalf("SetSpeedInHz: %v", err)
	}
	return m, backend
}

// runMotor interleaves queue refills with timer wakeups until the motor
// reaches standstill, the way a target main loop does.
func runMotor(t *testing.T, m *Motor, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if err := m.FillQueue(); err != nil {
			t.Fatalf("FillQueue: %v", err)
		}
		if timerList == nil {
			if !m.IsRunning() {
				return
			}
			t.Fatalf("motor running but nothing scheduled")
		}
		SetTime(timerList.WakeTime)
		ProcessTimers()
	}
	t.Fatalf("motor did not stop within %d wakeups", limit)
}

func TestMotorMoveToCompletes(t *testing.T) {
	m, backend := newTestMotor(t)

	if err := m.MoveTo(500); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if !m.IsRunning() {
		t.Errorf("motor not running after MoveTo")
	}
	runMotor(t, m, 100000)

	if got := m.GetCurrentPosition(); got != 500 {
		t.Errorf("position %d, expected 500", got)
	}
	if backend.steps != 500 {
		t.Errorf("backend saw %d pulses, expected 500", backend.steps)
	}
	if m.GetCurrentSpeedInTicks() != 0 {
		t.Errorf("speed nonzero at standstill")
	}
}

func TestMotorRelativeMove(t *testing.T) {
	m, _ := newTestMotor(t)

	if err := m.Move(100); err != nil {
		t.Fatalf("Move: %v", err)
	}
	runMotor(t, m, 100000)
	if err := m.Move(-30); err != nil {
		t.Fatalf("Move: %v", err)
	}
	runMotor(t, m, 100000)

	if got := m.GetCurrentPosition(); got != 70 {
		t.Errorf("position %d, expected 70", got)
	}
}

func TestMotorMoveBackwards(t *testing.T) {
	m, backend := newTestMotor(t)

	if err := m.MoveTo(-200); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	runMotor(t, m, 100000)

	if got := m.GetCurrentPosition(); got != -200 {
		t.Errorf("position %d, expected -200", got)
	}
	if backend.dir {
		t.Errorf("direction output left in count-up state")
	}
}

func TestMotorRunAndStop(t *testing.T) {
	m, _ := newTestMotor(t)

	if err := m.RunForward(); err != nil {
		t.Fatalf("RunForward: %v", err)
	}
	for i := 0; i < 2000; i++ {
		if err := m.FillQueue(); err != nil {
			t.Fatalf("FillQueue: %v", err)
		}
		SetTime(timerList.WakeTime)
		ProcessTimers()
	}
	posAtStop := m.GetCurrentPosition()
	if posAtStop <= 0 {
		t.Fatalf("no forward progress before stop")
	}

	m.StopMove()
	runMotor(t, m, 100000)
	if m.IsRunning() {
		t.Errorf("motor still running after stop completed")
	}
	if got := m.GetCurrentPosition(); got <= posAtStop {
		t.Errorf("stop must ramp down, not halt: position %d at stop, %d after", posAtStop, got)
	}
}

func TestMotorForceStop(t *testing.T) {
	m, backend := newTestMotor(t)

	if err := m.MoveTo(100000); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	for i := 0; i < 100; i++ {
		if err := m.FillQueue(); err != nil {
			t.Fatalf("FillQueue: %v", err)
		}
		SetTime(timerList.WakeTime)
		ProcessTimers()
	}

	m.ForceStop()
	if !backend.stopped {
		t.Errorf("backend not told to stop")
	}
	stepsAtStop := backend.steps
	runMotor(t, m, 100000)

	if m.GetCurrentPosition() >= 100000 {
		t.Errorf("force stop did not abandon the move")
	}
	// Wind-down mirrors the ramp-up known to the generator, which ran at
	// most one queue depth ahead of execution.
	if windDown := backend.steps - stepsAtStop; windDown > stepsAtStop+QueueLen {
		t.Errorf("excessive wind-down: %d steps before stop, %d after", stepsAtStop, windDown)
	}
}

func TestMotorSetCurrentPosition(t *testing.T) {
	m, _ := newTestMotor(t)

	if err := m.SetCurrentPosition(-1234); err != nil {
		t.Fatalf("SetCurrentPosition: %v", err)
	}
	if got := m.GetCurrentPosition(); got != -1234 {
		t.Errorf("position %d, expected -1234", got)
	}

	if err := m.MoveTo(0); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if err := m.SetCurrentPosition(0); !errors.Is(err, ErrMotorRunning) {
		t.Errorf("expected ErrMotorRunning, got %v", err)
	}
	runMotor(t, m, 100000)
	if got := m.GetCurrentPosition(); got != 0 {
		t.Errorf("position %d, expected 0", got)
	}
}

func TestMotorSpeedAccessors(t *testing.T) {
	m, _ := newTestMotor(t)

	if err := m.SetSpeedInHz(0); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}
	if got := m.GetCurrentSpeedInHz(); got != 0 {
		t.Errorf("idle speed %d Hz, expected 0", got)
	}

	if err := m.MoveTo(100000); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	var sawCruise bool
	for i := 0; i < 5000; i++ {
		if err := m.FillQueue(); err != nil {
			t.Fatalf("FillQueue: %v", err)
		}
		SetTime(timerList.WakeTime)
		ProcessTimers()
		if m.GetCurrentSpeedInTicks() == TimerFreq/4000 {
			sawCruise = true
			break
		}
	}
	if !sawCruise {
		t.Errorf("never reached the configured cruise speed")
	}
	m.ForceStop()
	runMotor(t, m, 100000)
}

func TestConfigMotorRegistry(t *testing.T) {
	resetScheduler()
	motors = [MaxMotors]*Motor{}
	motorCount = 0

	if _, err := ConfigMotor(MaxMotors, &countingBackend{}, 2, 3, false, false); !errors.Is(err, ErrBadMotorIndex) {
		t.Errorf("expected ErrBadMotorIndex, got %v", err)
	}
	if _, err := ConfigMotor(0, nil, 2, 3, false, false); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}

	m, err := ConfigMotor(1, &countingBackend{}, 2, 3, false, false)
	if err != nil {
		t.Fatalf("ConfigMotor: %v", err)
	}
	if GetMotor(1) != m {
		t.Errorf("registry did not return the configured motor")
	}
	if GetMotor(0) != nil {
		t.Errorf("unconfigured index returned a motor")
	}
	if GetMotor(5) != nil {
		t.Errorf("out-of-range index returned a motor")
	}
}
