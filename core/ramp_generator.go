package core

// logTimerFreq is the timer frequency in log space, used by every period
// computation in the generation path.
var logTimerFreq = LogFromU32(TimerFreq)

// NextCommand is the handoff unit between the ramp generator and the step
// queue. Ticks of zero in Command means no further command is available.
// Result is the write state to adopt once the command has been accepted.
type NextCommand struct {
	Command StepCommand
	Result  RampWriteState
}

// RampGenerator turns a target position, target speed and acceleration into
// one step timing command at a time, while previously generated commands are
// still executing at interrupt priority. All of its arithmetic is bounded
// integer work on the logarithmic fixed point type; the generation path
// never blocks and never allocates.
type RampGenerator struct {
	params RampParameters
	ro     RampReadState
	rw     RampWriteState

	// acceleration mirrors the raw configured value for
	// GetCurrentAcceleration, which reports the configured magnitude even
	// before ApplyParameters has published it to the generation context.
	// Do not fold this into the snapshot: the accessor is specified on
	// the configured value, not the applied one.
	acceleration uint32
}

// Init resets parameters, read state and write state to their idle values.
func (rg *RampGenerator) Init() {
	rg.params.Init()
	rg.ro.Init()
	rg.rw.Init()
	rg.acceleration = 0
}

// SetAcceleration configures the ramp acceleration. Values <= 0 are
// rejected and leave the previous configuration in place.
func (rg *RampGenerator) SetAcceleration(accel int32) error {
	if err := rg.params.SetAcceleration(accel); err != nil {
		return err
	}
	rg.acceleration = uint32(accel)
	return nil
}

// SetSpeedInTicks configures the step period at target speed.
func (rg *RampGenerator) SetSpeedInTicks(minTravelTicks uint32) error {
	return rg.params.SetSpeedInTicks(minTravelTicks)
}

// ApplySpeedAcceleration publishes pending speed/acceleration changes to
// the generation context.
func (rg *RampGenerator) ApplySpeedAcceleration() {
	rg.params.ApplyParameters()
}

// StartRun begins continuous rotation in the given direction: accelerate to
// target speed, then cruise until explicitly stopped.
func (rg *RampGenerator) StartRun(countUp bool) error {
	if err := rg.params.CheckValidConfig(); err != nil {
		return err
	}
	rg.params.SetTargetPosition(0)
	rg.ro.clearImmediateStop()
	rg.params.SetKeepRunning(countUp)
	rg.params.ApplyParameters()

	state := disableInterrupts()
	rg.rw.startRampIfNotRunning()
	restoreInterrupts(state)
	return nil
}

// startMove is the shared entry for all position-targeted moves.
// positionChanged false means the target equals the projected end position;
// in that case a running ramp is left untouched so redundant move requests
// never reset ramp progress.
func (rg *RampGenerator) startMove(targetPos int32, positionChanged bool) error {
	if err := rg.params.CheckValidConfig(); err != nil {
		return err
	}
	rg.params.SetTargetPosition(targetPos)
	rg.ro.clearImmediateStop()
	rg.params.ClearKeepRunning()
	rg.params.ApplyParameters()

	if positionChanged {
		state := disableInterrupts()
		rg.rw.startRampIfNotRunning()
		restoreInterrupts(state)
	}
	return nil
}

// IsRampGeneratorActive reports whether a ramp is in flight.
func (rg *RampGenerator) IsRampGeneratorActive() bool {
	return rg.rw.isRunning()
}

// MoveTo targets an absolute position.
func (rg *RampGenerator) MoveTo(position int32, queueEnd *QueueEndState) error {
	currPos := rg.projectedPosition(queueEnd)
	return rg.startMove(position, currPos != position)
}

// Move targets a position relative to the projected end of all pending
// commands.
func (rg *RampGenerator) Move(delta int32, queueEnd *QueueEndState) error {
	currPos := rg.projectedPosition(queueEnd)
	newPos := currPos + delta
	return rg.startMove(newPos, currPos != newPos)
}

// AdvanceTargetPosition shifts the target of a running position move.
// It has no effect when idle or in continuous-run mode.
func (rg *RampGenerator) AdvanceTargetPosition(delta int32, queueEnd *QueueEndState) {
	if rg.IsRampGeneratorActive() && !rg.ro.Params.KeepRunning {
		rg.startMove(rg.ro.Params.TargetPos+delta, true)
	}
}

func (rg *RampGenerator) projectedPosition(queueEnd *QueueEndState) int32 {
	if rg.IsRampGeneratorActive() && !rg.ro.Params.KeepRunning {
		return rg.ro.Params.TargetPos
	}
	return queueEnd.Pos
}

// StopRamp requests a deceleration-only trajectory: the target position is
// ignored and the motor ramps down to standstill at the configured
// acceleration.
func (rg *RampGenerator) StopRamp() {
	rg.rw.ForceStop = true
}

// InitiateImmediateStop aborts command generation on the next cycle.
// commandInFlight marks that the interrupt layer is executing a command
// that cannot be revoked anymore; the stop is then recorded as incomplete
// and finished by a forced deceleration on the following cycle.
func (rg *RampGenerator) InitiateImmediateStop(commandInFlight bool) {
	rg.ro.markImmediateStop(commandInFlight)
}

// GetCurrentAcceleration reports the signed acceleration currently acting
// on the motor: positive when gaining speed in count-up direction or losing
// speed in count-down direction, negative for the two mirror cases, zero
// when idle or cruising.
func (rg *RampGenerator) GetCurrentAcceleration() int32 {
	switch rg.rw.RampState & (rampStateAccelerating | rampStateDecelerating | rampDirMask) {
	case rampStateAccelerating | rampDirCountUp,
		rampStateDecelerating | rampDirCountDown:
		return int32(rg.acceleration)
	case rampStateDecelerating | rampDirCountUp,
		rampStateAccelerating | rampDirCountDown:
		return -int32(rg.acceleration)
	}
	return 0
}

// GetCurrentSpeedInTicks returns the full step period of the most recently
// generated command, zero when idle.
func (rg *RampGenerator) GetCurrentSpeedInTicks() uint32 {
	return rg.rw.CurrTicks
}

// AfterCommandEnqueued folds a command's resulting write state back as the
// new baseline. The queue feeder calls it once the step queue has accepted
// the command, and also for the terminal zero-tick command so the idle
// transition reaches the baseline. Folding is idempotent: the Result
// carried by a command is always the complete successor state.
func (rg *RampGenerator) AfterCommandEnqueued(command *NextCommand) {
	rg.rw = command.Result
}

// GetNextCommand produces the next timing command from the applied
// configuration, the rolling write state and the projected queue end.
// It never mutates the baseline write state; rejection of the returned
// command by the queue simply means the same call is made again later.
func (rg *RampGenerator) GetNextCommand(queueEnd *QueueEndState) NextCommand {
	// The generation context runs at higher priority than the application
	// thread, so the parameter snapshot cannot be torn by the producer and
	// needs no protected section.
	if rg.params.apply {
		rg.ro.Params = rg.params
		rg.params.apply = false
		rg.params.anyChange = false
		rg.params.recalcRampSteps = false
		rg.ro.update()
	}

	// The projected queue end is a multi-field structure written by the
	// step executor; copy it inside the shortest possible protected
	// section.
	state := disableInterrupts()
	qe := *queueEnd
	restoreInterrupts(state)

	if rg.ro.isImmediateStopInitiated() {
		rg.ro.stopInitiated = false
		command := NextCommand{}
		if rg.ro.isImmediateStopIncomplete() {
			// A command below the interrupt layer is still running;
			// keep the baseline and retry on the next cycle.
			command.Result = rg.rw
		} else {
			rg.ro.clearImmediateStop()
		}
		return command
	}
	if rg.ro.isImmediateStopIncomplete() {
		// The in-flight command has drained by now; finish the stop with
		// a deceleration-only trajectory from the current ramp state.
		rg.ro.clearImmediateStop()
		rg.rw.ForceStop = true
	}

	return nextCommand(&rg.ro, &rg.rw, qe)
}

// periodAtStep returns the step period in ticks after n acceleration steps
// from standstill: TimerFreq / sqrt(2 * acceleration * n), the constant
// acceleration timing formula computed entirely in log space.
func periodAtStep(n uint32, ro *RampReadState) uint32 {
	speedSquared := ro.LogAccel.Mul(LogFromU32(n)).Shl(1)
	period := logTimerFreq.Mul(speedSquared.RSqrt()).ToU32()
	if period == 0 {
		period = 1
	}
	return period
}

// nextCommand advances a copy of the write state by exactly one command.
func nextCommand(ro *RampReadState, rw *RampWriteState, qe QueueEndState) NextCommand {
	next := *rw

	if rw.RampState == rampStateIdle {
		next.stop()
		return NextCommand{Result: next}
	}

	countUp := rw.RampState&rampDirCountUp != 0
	if rw.RampState&rampDirMask == 0 {
		// First command of a fresh ramp: pick the direction now that the
		// target can be compared against the projected queue end.
		if rw.ForceStop {
			// Stopped before the first step; nothing to unwind.
			next.stop()
			return NextCommand{Result: next}
		}
		if ro.Params.KeepRunning {
			countUp = ro.Params.KeepRunningUp
		} else {
			delta := ro.Params.TargetPos - qe.Pos
			if delta == 0 {
				next.stop()
				return NextCommand{Result: next}
			}
			countUp = delta > 0
		}
	}

	// Idle ticks still owed before the next step are paid out first.
	if rw.PauseTicksLeft > 0 {
		ticks := rw.PauseTicksLeft
		if ticks > AbsoluteMaxTicks {
			ticks = AbsoluteMaxTicks
		}
		next.PauseTicksLeft -= ticks
		return NextCommand{
			Command: StepCommand{Ticks: ticks, CountUp: countUp},
			Result:  next,
		}
	}

	// Steps still to travel in the current direction. reverse marks a
	// target behind us: decelerate through zero velocity first, never jump
	// direction at speed.
	remaining := ^uint32(0)
	reverse := false
	if rw.ForceStop {
		remaining = 0
	} else if ro.Params.KeepRunning {
		reverse = countUp != ro.Params.KeepRunningUp
		if reverse && rw.PerformedRampUpSteps == 0 {
			// Standing still: reversing is free.
			countUp = ro.Params.KeepRunningUp
			reverse = false
		}
	} else {
		remaining, reverse = stepsToGo(ro.Params.TargetPos, qe.Pos, countUp)
		if reverse && rw.PerformedRampUpSteps == 0 {
			// Standing still: reversing is free.
			countUp = !countUp
			remaining, reverse = stepsToGo(ro.Params.TargetPos, qe.Pos, countUp)
		}
	}

	if rw.ForceStop || reverse || remaining <= rw.PerformedRampUpSteps {
		if rw.PerformedRampUpSteps == 0 {
			// Standstill reached: ramp complete.
			next.stop()
			return NextCommand{
				Command: StepCommand{CountUp: countUp},
				Result:  next,
			}
		}
		// Mirror the acceleration phase step by step.
		n := rw.PerformedRampUpSteps
		next.PerformedRampUpSteps = n - 1
		next.RampState = rampStateDecelerating | dirBit(countUp)
		return finishCommand(&next, periodAtStep(n, ro), 1, countUp)
	}

	// Accelerate while below target speed, but only with enough distance
	// left to mirror this step on the way down.
	if remaining >= rw.PerformedRampUpSteps+2 {
		n := rw.PerformedRampUpSteps + 1
		period := periodAtStep(n, ro)
		if period > ro.Params.MinTravelTicks {
			next.PerformedRampUpSteps = n
			next.RampState = rampStateAccelerating | dirBit(countUp)
			return finishCommand(&next, period, 1, countUp)
		}
	}

	// Cruise. Either target speed was reached, or the deceleration point
	// is one step away and the current speed is held for that step.
	next.RampState = rampStateCoasting | dirBit(countUp)
	if remaining < rw.PerformedRampUpSteps+2 {
		n := rw.PerformedRampUpSteps
		if n == 0 {
			n = 1
		}
		period := periodAtStep(n, ro)
		if period < ro.Params.MinTravelTicks {
			period = ro.Params.MinTravelTicks
		}
		return finishCommand(&next, period, 1, countUp)
	}
	steps := remaining - rw.PerformedRampUpSteps - 1
	if steps > MaxStepsPerCommand {
		steps = MaxStepsPerCommand
	}
	return finishCommand(&next, ro.Params.MinTravelTicks, uint8(steps), countUp)
}

// stepsToGo returns the unsigned distance from pos to target along the
// given direction, or reverse when the target lies the other way.
func stepsToGo(target, pos int32, countUp bool) (remaining uint32, reverse bool) {
	delta := target - pos
	switch {
	case countUp && delta >= 0:
		return uint32(delta), false
	case !countUp && delta <= 0:
		return uint32(-delta), false
	}
	return 0, true
}

// finishCommand packs the computed period into a command, splitting off a
// pause remainder when one command cannot carry the whole period.
func finishCommand(next *RampWriteState, period uint32, steps uint8, countUp bool) NextCommand {
	ticks := period
	if ticks > AbsoluteMaxTicks {
		ticks = AbsoluteMaxTicks
		next.PauseTicksLeft = period - AbsoluteMaxTicks
		steps = 1
	}
	next.CurrTicks = period
	return NextCommand{
		Command: StepCommand{Ticks: ticks, Steps: steps, CountUp: countUp},
		Result:  *next,
	}
}
