package core

import (
	"errors"
	"testing"
)

// countingBackend records pulses for assertions.
type countingBackend struct {
	inited  bool
	steps   uint32
	dir     bool
	stopped bool
}

func (b *countingBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.inited = true
	return nil
}
func (b *countingBackend) Step()                { b.steps++ }
func (b *countingBackend) SetDirection(up bool) { b.dir = up }
func (b *countingBackend) Stop()                { b.stopped = true }
func (b *countingBackend) GetName() string      { return "counting" }

// resetScheduler clears the global timer list between tests.
func resetScheduler() {
	timerList = nil
	currentTime = 0
	SetTime(0)
}

// drainTimers advances the clock wakeup by wakeup until nothing is
// scheduled.
func drainTimers(t *testing.T, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if timerList == nil {
			return
		}
		SetTime(timerList.WakeTime)
		ProcessTimers()
	}
	t.Fatalf("timers did not drain within %d wakeups", limit)
}

func TestQueueAddAndDrain(t *testing.T) {
	resetScheduler()
	backend := &countingBackend{}
	var q StepQueue
	q.Init(backend)

	if !q.IsEmpty() {
		t.Fatalf("fresh queue not empty")
	}
	if err := q.AddEntry(StepCommand{Ticks: 10000, Steps: 3, CountUp: true}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if q.IsEmpty() {
		t.Errorf("queue empty after add")
	}
	if got := q.EndState().Pos; got != 3 {
		t.Errorf("projected end %d, expected 3", got)
	}

	drainTimers(t, 100)
	if backend.steps != 3 {
		t.Errorf("expected 3 pulses, got %d", backend.steps)
	}
	if got := q.GetCurrentPosition(); got != 3 {
		t.Errorf("position %d, expected 3", got)
	}
	if q.IsCommandInFlight() {
		t.Errorf("executor still marked running")
	}
}

func TestQueueFull(t *testing.T) {
	resetScheduler()
	var q StepQueue
	q.Init(&countingBackend{})

	for i := 0; i < QueueLen-1; i++ {
		if err := q.AddEntry(StepCommand{Ticks: 10000, Steps: 1, CountUp: true}); err != nil {
			t.Fatalf("entry %d rejected: %v", i, err)
		}
	}
	if !q.IsFull() {
		t.Errorf("queue not full after %d entries", QueueLen-1)
	}
	if err := q.AddEntry(StepCommand{Ticks: 10000, Steps: 1, CountUp: true}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueueRejectsOutOfRange(t *testing.T) {
	resetScheduler()
	var q StepQueue
	q.Init(&countingBackend{})

	if err := q.AddEntry(StepCommand{Ticks: AbsoluteMaxTicks + 1, Steps: 1}); !errors.Is(err, ErrTicksTooHigh) {
		t.Errorf("expected ErrTicksTooHigh, got %v", err)
	}
	if err := q.AddEntry(StepCommand{Ticks: 10000, Steps: MaxStepsPerCommand + 1}); !errors.Is(err, ErrTooManySteps) {
		t.Errorf("expected ErrTooManySteps, got %v", err)
	}
	if !q.IsEmpty() {
		t.Errorf("rejected entries must not occupy the queue")
	}

	// Both limits are inclusive.
	if err := q.AddEntry(StepCommand{Ticks: AbsoluteMaxTicks, Steps: 1}); err != nil {
		t.Errorf("maximum ticks rejected: %v", err)
	}
	if err := q.AddEntry(StepCommand{Ticks: 10000, Steps: MaxStepsPerCommand}); err != nil {
		t.Errorf("maximum steps rejected: %v", err)
	}
}

func TestQueueEndPosition(t *testing.T) {
	resetScheduler()
	backend := &countingBackend{}
	var q StepQueue
	q.Init(backend)

	q.AddEntry(StepCommand{Ticks: 10000, Steps: 10, CountUp: true})
	q.AddEntry(StepCommand{Ticks: 10000, Steps: 4, CountUp: false})
	q.AddEntry(StepCommand{Ticks: 10000, Steps: 0, CountUp: false})
	q.AddEntry(StepCommand{Ticks: 10000, Steps: 1, CountUp: true})
	if got := q.EndState().Pos; got != 7 {
		t.Errorf("projected end %d, expected 7", got)
	}

	drainTimers(t, 100)
	if got := q.GetCurrentPosition(); got != 7 {
		t.Errorf("position %d, expected 7", got)
	}
	if backend.steps != 15 {
		t.Errorf("expected 15 pulses, got %d", backend.steps)
	}
}

func TestQueuePauseEntryEmitsNoStep(t *testing.T) {
	resetScheduler()
	backend := &countingBackend{}
	var q StepQueue
	q.Init(backend)

	q.AddEntry(StepCommand{Ticks: 10000, Steps: 0, CountUp: true})
	drainTimers(t, 10)
	if backend.steps != 0 {
		t.Errorf("pause entry stepped %d times", backend.steps)
	}
	if got := q.GetCurrentPosition(); got != 0 {
		t.Errorf("position %d, expected 0", got)
	}
}

func TestQueueStepTiming(t *testing.T) {
	resetScheduler()
	backend := &countingBackend{}
	var q StepQueue
	q.Init(backend)

	q.AddEntry(StepCommand{Ticks: 10000, Steps: 2, CountUp: true})

	// The first dispatch only loads the entry; each step fires after its
	// full wait interval.
	ProcessTimers()
	if backend.steps != 0 {
		t.Fatalf("step before wait interval elapsed")
	}
	SetTime(9999)
	ProcessTimers()
	if backend.steps != 0 {
		t.Fatalf("step fired early")
	}
	SetTime(10000)
	ProcessTimers()
	if backend.steps != 1 {
		t.Fatalf("expected 1 step at t=10000, got %d", backend.steps)
	}
	SetTime(20000)
	ProcessTimers()
	if backend.steps != 2 {
		t.Fatalf("expected 2 steps at t=20000, got %d", backend.steps)
	}
}

func TestQueueClear(t *testing.T) {
	resetScheduler()
	backend := &countingBackend{}
	var q StepQueue
	q.Init(backend)

	q.AddEntry(StepCommand{Ticks: 10000, Steps: 100, CountUp: true})
	q.AddEntry(StepCommand{Ticks: 10000, Steps: 100, CountUp: true})

	// Execute a few steps, then drop the rest.
	for i := 0; i < 5; i++ {
		SetTime(timerList.WakeTime)
		ProcessTimers()
	}
	q.Clear()
	if got := q.EndState().Pos; got != q.GetCurrentPosition() {
		t.Errorf("projected end %d after clear, expected executed position %d", got, q.GetCurrentPosition())
	}
	drainTimers(t, 10)
	if backend.steps > 5 {
		t.Errorf("steps continued after clear: %d", backend.steps)
	}
}
