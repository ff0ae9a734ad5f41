package core

import (
	"errors"

	"accelstep/protocol"
)

// ErrUnknownMotor is returned for commands addressing an unconfigured
// motor index.
var ErrUnknownMotor = errors.New("motor not configured")

// RegisterMotorCommands registers the motion command set and its
// responses.
func RegisterMotorCommands() {
	RegisterCommand("config_motor",
		"motor=%c step_pin=%c dir_pin=%c invert_step=%c invert_dir=%c",
		cmdConfigMotor)
	RegisterCommand("set_acceleration", "motor=%c accel=%i", cmdSetAcceleration)
	RegisterCommand("set_speed", "motor=%c hz=%u", cmdSetSpeed)
	RegisterCommand("move_to", "motor=%c pos=%i", cmdMoveTo)
	RegisterCommand("move", "motor=%c delta=%i", cmdMove)
	RegisterCommand("start_run", "motor=%c dir=%c", cmdStartRun)
	RegisterCommand("stop_ramp", "motor=%c", cmdStopRamp)
	RegisterCommand("force_stop", "motor=%c", cmdForceStop)
	RegisterCommand("set_position", "motor=%c pos=%i", cmdSetPosition)
	RegisterCommand("get_position", "motor=%c", cmdGetPosition)

	RegisterResponse("motor_position", "motor=%c pos=%i target=%i speed=%u")
}

func decodeMotor(data *[]byte) (uint32, *Motor, error) {
	index, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return 0, nil, err
	}
	m := GetMotor(uint8(index))
	if m == nil {
		return index, nil, ErrUnknownMotor
	}
	return index, m, nil
}

func cmdConfigMotor(data *[]byte) error {
	index, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	stepPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	dirPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	invertStep, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	invertDir, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	_, err = ConfigMotor(uint8(index), nil, uint8(stepPin), uint8(dirPin),
		invertStep != 0, invertDir != 0)
	return err
}

func cmdSetAcceleration(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	accel, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	return m.SetAcceleration(accel)
}

func cmdSetSpeed(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	hz, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if err := m.SetSpeedInHz(hz); err != nil {
		return err
	}
	m.ApplySpeedAcceleration()
	return nil
}

func cmdMoveTo(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	pos, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	return m.MoveTo(pos)
}

func cmdMove(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	delta, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	return m.Move(delta)
}

func cmdStartRun(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	dir, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if dir != 0 {
		return m.RunForward()
	}
	return m.RunBackward()
}

func cmdStopRamp(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	m.StopMove()
	return nil
}

func cmdForceStop(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	m.ForceStop()
	return nil
}

func cmdSetPosition(data *[]byte) error {
	_, m, err := decodeMotor(data)
	if err != nil {
		return err
	}
	pos, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	return m.SetCurrentPosition(pos)
}

func cmdGetPosition(data *[]byte) error {
	index, m, err := decodeMotor(data)
	if err != nil {
		return err
	}

	pos := m.GetCurrentPosition()
	target := m.GetPositionAfterCommandsCompleted()
	speed := m.GetCurrentSpeedInHz()
	SendResponse("motor_position", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, index)
		protocol.EncodeVLQInt(output, pos)
		protocol.EncodeVLQInt(output, target)
		protocol.EncodeVLQUint(output, speed)
	})
	return nil
}
