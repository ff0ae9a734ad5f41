package core

// Ramp phase and direction are combined in one small bit-field so the
// generation path can branch on a single byte.
const (
	rampStateIdle         uint8 = 0
	rampStateAccelerating uint8 = 1 << 0
	rampStateCoasting     uint8 = 1 << 1
	rampStateDecelerating uint8 = 1 << 2
	rampStateMask               = rampStateAccelerating | rampStateCoasting | rampStateDecelerating

	rampDirCountUp   uint8 = 1 << 5
	rampDirCountDown uint8 = 1 << 6
	rampDirMask            = rampDirCountUp | rampDirCountDown
)

func dirBit(countUp bool) uint8 {
	if countUp {
		return rampDirCountUp
	}
	return rampDirCountDown
}

// RampReadState is the interrupt-visible snapshot of the applied
// configuration. It is replaced wholesale when the apply handshake fires and
// stays immutable during command generation.
type RampReadState struct {
	Params RampParameters

	// LogAccel caches the acceleration in log space; recomputed once per
	// applied snapshot instead of once per command.
	LogAccel LogFloat

	// Immediate-stop bookkeeping. stopInitiated aborts command generation
	// on the next cycle; stopIncomplete records that a command was already
	// irrevocably handed to the interrupt layer, so the stop must be
	// finished by a forced deceleration afterwards.
	stopInitiated  bool
	stopIncomplete bool
}

// Init resets the snapshot to idle defaults.
func (ro *RampReadState) Init() {
	*ro = RampReadState{}
}

// update recomputes the derived fields after a new parameter snapshot was
// copied in.
func (ro *RampReadState) update() {
	ro.LogAccel = LogFromU32(ro.Params.Acceleration)
}

// markImmediateStop records a stop request from the application context.
// commandInFlight tells whether the interrupt layer is currently executing
// a command that cannot be canceled anymore.
func (ro *RampReadState) markImmediateStop(commandInFlight bool) {
	ro.stopInitiated = true
	if commandInFlight {
		ro.stopIncomplete = true
	}
}

func (ro *RampReadState) isImmediateStopInitiated() bool  { return ro.stopInitiated }
func (ro *RampReadState) isImmediateStopIncomplete() bool { return ro.stopIncomplete }

func (ro *RampReadState) clearImmediateStop() {
	ro.stopInitiated = false
	ro.stopIncomplete = false
}

// RampWriteState is the rolling progress of the in-flight ramp. The
// generator advances a copy of it by exactly one command per call; the copy
// becomes the new baseline only after the consuming layer confirms the
// command was accepted (see RampGenerator.AfterCommandEnqueued).
type RampWriteState struct {
	// RampState combines the current phase and direction bits.
	RampState uint8
	// PerformedRampUpSteps counts completed acceleration steps. The
	// deceleration phase mirrors this count, so slowing down is the exact
	// time-reverse of speeding up.
	PerformedRampUpSteps uint32
	// CurrTicks is the full step period of the most recent command,
	// including any pause remainder carried in separate commands.
	CurrTicks uint32
	// PauseTicksLeft holds the idle ticks still owed before the next step
	// when one command cannot carry the whole period.
	PauseTicksLeft uint32
	// ForceStop requests a deceleration-only trajectory that ignores the
	// target position; cleared when standstill is reached.
	ForceStop bool
}

// Init resets the progress record to idle.
func (rw *RampWriteState) Init() {
	*rw = RampWriteState{}
}

// stop drops all progress and returns to idle.
func (rw *RampWriteState) stop() {
	*rw = RampWriteState{}
}

// startRampIfNotRunning arms the ramp without disturbing one that is
// already in flight. The direction bits are left unset; the generator picks
// the direction on the first command, when the target is known relative to
// the projected queue end.
func (rw *RampWriteState) startRampIfNotRunning() {
	if rw.RampState == rampStateIdle {
		rw.RampState = rampStateAccelerating
		rw.ForceStop = false
	}
}

func (rw *RampWriteState) isRunning() bool {
	return rw.RampState != rampStateIdle
}
