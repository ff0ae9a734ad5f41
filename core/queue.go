package core

import "errors"

const (
	// QueueLen is the number of command slots per motor. One slot stays
	// unused so a full queue can be told apart from an empty one.
	QueueLen = 32

	// AbsoluteMaxTicks is the longest step period one queue command can
	// carry. Longer periods are split into pause commands by the ramp
	// generator.
	AbsoluteMaxTicks = 255 * 65535

	// MaxStepsPerCommand bounds the steps a single command may bundle.
	MaxStepsPerCommand = 127
)

// Step queue errors, surfaced to the queue feeder. A rejected command is
// never retried by the queue itself.
var (
	ErrQueueFull    = errors.New("step queue full")
	ErrTicksTooHigh = errors.New("step period above absolute maximum")
	ErrTooManySteps = errors.New("too many steps for one command")
)

// StepCommand is one queue entry: Steps step pulses spaced Ticks apart in
// CountUp direction. Steps of zero makes the entry a pure pause.
type StepCommand struct {
	Ticks   uint32
	Steps   uint8
	CountUp bool
}

// QueueEndState is the projected state of the step queue once every
// enqueued command has executed. The ramp generator consumes it to decide
// whether a new target differs from where the motor is already headed.
type QueueEndState struct {
	Pos int32
}

// StepQueue is the fixed-size command ring consumed at interrupt priority.
// The application side only ever appends; the timer-driven executor only
// ever consumes.
type StepQueue struct {
	entries  [QueueLen]StepCommand
	readIdx  uint8
	writeIdx uint8

	// pos is the position after all executed steps; end projects the
	// position after all enqueued steps.
	pos int32
	end QueueEndState

	backend StepBackend

	timer     Timer
	running   bool
	active    StepCommand
	stepsLeft uint8
}

// Init prepares the queue for use with the given step backend.
func (q *StepQueue) Init(backend StepBackend) {
	*q = StepQueue{backend: backend}
	q.timer.Handler = q.stepEvent
}

// IsEmpty reports whether no commands are pending.
func (q *StepQueue) IsEmpty() bool {
	return q.readIdx == q.writeIdx
}

// IsFull reports whether no further command can be accepted.
func (q *StepQueue) IsFull() bool {
	return (q.writeIdx+1)%QueueLen == q.readIdx
}

// IsCommandInFlight reports whether the executor is currently working on a
// command that can no longer be revoked.
func (q *StepQueue) IsCommandInFlight() bool {
	return q.running
}

// EndState returns the projected queue completion state. The copy is taken
// inside a protected section because the executor updates the underlying
// fields concurrently.
func (q *StepQueue) EndState() QueueEndState {
	state := disableInterrupts()
	end := q.end
	restoreInterrupts(state)
	return end
}

// GetCurrentPosition returns the position after all executed steps.
func (q *StepQueue) GetCurrentPosition() int32 {
	state := disableInterrupts()
	pos := q.pos
	restoreInterrupts(state)
	return pos
}

// SetPosition overwrites the current and projected position. Only valid
// while the queue is empty, typically after homing.
func (q *StepQueue) SetPosition(pos int32) {
	state := disableInterrupts()
	q.pos = pos
	q.end.Pos = pos
	restoreInterrupts(state)
}

// AddEntry validates and appends one command and starts the executor when
// it is not already running. A validation failure leaves the queue
// untouched.
func (q *StepQueue) AddEntry(cmd StepCommand) error {
	if cmd.Ticks > AbsoluteMaxTicks {
		return ErrTicksTooHigh
	}
	if cmd.Steps > MaxStepsPerCommand {
		return ErrTooManySteps
	}
	nextWrite := (q.writeIdx + 1) % QueueLen
	if nextWrite == q.readIdx {
		return ErrQueueFull
	}

	state := disableInterrupts()
	q.entries[q.writeIdx] = cmd
	q.writeIdx = nextWrite
	if cmd.CountUp {
		q.end.Pos += int32(cmd.Steps)
	} else {
		q.end.Pos -= int32(cmd.Steps)
	}
	if !q.running {
		q.running = true
		q.stepsLeft = 0
		q.timer.WakeTime = GetTime()
		insertTimer(&q.timer)
	}
	restoreInterrupts(state)
	return nil
}

// Clear drops all pending commands. The command currently executing below
// the interrupt layer cannot be revoked; the projected end position snaps
// back to the executed position.
func (q *StepQueue) Clear() {
	state := disableInterrupts()
	q.readIdx = q.writeIdx
	q.stepsLeft = 0
	q.end.Pos = q.pos
	restoreInterrupts(state)
}

// stepEvent runs at timer dispatch priority. Each invocation accounts for
// one elapsed wait interval: emit the due step pulse, then line up the next
// interval from the active command or the next queue entry.
func (q *StepQueue) stepEvent(t *Timer) uint8 {
	if q.stepsLeft > 0 {
		q.backend.Step()
		if q.active.CountUp {
			q.pos++
		} else {
			q.pos--
		}
		q.stepsLeft--
		if q.stepsLeft > 0 {
			t.WakeTime += q.active.Ticks
			return SF_RESCHEDULE
		}
	}
	if q.readIdx == q.writeIdx {
		q.running = false
		return SF_DONE
	}
	q.active = q.entries[q.readIdx]
	q.readIdx = (q.readIdx + 1) % QueueLen
	q.stepsLeft = q.active.Steps
	if q.active.Steps > 0 {
		q.backend.SetDirection(q.active.CountUp)
	}
	t.WakeTime += q.active.Ticks
	return SF_RESCHEDULE
}
