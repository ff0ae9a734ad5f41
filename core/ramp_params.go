package core

import "errors"

// Configuration errors. Every fallible operation on the motion API returns
// one of these; nothing panics across the package boundary.
var (
	ErrInvalidAcceleration = errors.New("acceleration must be positive")
	ErrInvalidSpeed        = errors.New("speed must be positive")
	ErrNotConfigured       = errors.New("speed and acceleration must be configured before moving")
)

// RampParameters is the application-writable motion configuration for one
// motor axis. The application thread mutates it through the setters; the
// ramp generator only ever consumes a snapshot taken under the apply
// handshake, so a half-updated set is never observed.
type RampParameters struct {
	// TargetPos is the absolute target position in steps.
	TargetPos int32
	// MinTravelTicks is the step period at the configured target speed.
	MinTravelTicks uint32
	// Acceleration in steps per tick squared domain units.
	Acceleration uint32
	// KeepRunning ignores TargetPos and cruises indefinitely in
	// KeepRunningUp direction until explicitly stopped.
	KeepRunning   bool
	KeepRunningUp bool

	// Dirty flags. anyChange marks any raw input change,
	// recalcRampSteps marks changes the ramp-step derivation depends on,
	// apply publishes the assembled set to the generation context.
	anyChange       bool
	recalcRampSteps bool
	apply           bool
}

// Init resets the parameter set to its unconfigured state.
func (p *RampParameters) Init() {
	*p = RampParameters{}
}

// SetAcceleration stores a new acceleration. Non-positive values are
// rejected and leave the prior configuration unchanged.
func (p *RampParameters) SetAcceleration(accel int32) error {
	if accel <= 0 {
		return ErrInvalidAcceleration
	}
	if uint32(accel) != p.Acceleration {
		p.Acceleration = uint32(accel)
		p.recalcRampSteps = true
		p.anyChange = true
	}
	return nil
}

// SetSpeedInTicks stores the step period at target speed.
func (p *RampParameters) SetSpeedInTicks(minTravelTicks uint32) error {
	if minTravelTicks == 0 {
		return ErrInvalidSpeed
	}
	if minTravelTicks != p.MinTravelTicks {
		p.MinTravelTicks = minTravelTicks
		p.anyChange = true
	}
	return nil
}

// SetTargetPosition updates the move target. An unchanged target does not
// dirty the set, so redundant move requests never disturb a running ramp.
func (p *RampParameters) SetTargetPosition(pos int32) {
	if pos != p.TargetPos {
		p.TargetPos = pos
		p.anyChange = true
	}
}

// SetKeepRunning switches to continuous-run mode in the given direction.
func (p *RampParameters) SetKeepRunning(countUp bool) {
	if !p.KeepRunning || p.KeepRunningUp != countUp {
		p.KeepRunning = true
		p.KeepRunningUp = countUp
		p.anyChange = true
	}
}

// ClearKeepRunning returns to position-targeted mode.
func (p *RampParameters) ClearKeepRunning() {
	if p.KeepRunning {
		p.KeepRunning = false
		p.anyChange = true
	}
	if !p.KeepRunningUp {
		p.KeepRunningUp = true
		p.anyChange = true
	}
}

// ApplyParameters publishes the assembled configuration. Derived values
// depending on multiple raw inputs are recomputed by the consumer when the
// snapshot is taken; here only the publish flag is raised, and only when a
// dependency actually changed.
func (p *RampParameters) ApplyParameters() {
	if p.anyChange || p.recalcRampSteps {
		p.apply = true
	}
}

// CheckValidConfig validates the parameter set as a whole. Motion must not
// start before both acceleration and speed are configured.
func (p *RampParameters) CheckValidConfig() error {
	if p.Acceleration == 0 || p.MinTravelTicks == 0 {
		return ErrNotConfigured
	}
	return nil
}
