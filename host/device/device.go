// Package device implements the host-side client for the motion
// controller: it opens the serial link, retrieves the command dictionary
// and exposes typed wrappers for the motion command set.
package device

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"accelstep/host/serial"
	"accelstep/protocol"
)

// Bootstrap command IDs, fixed on both sides so the dictionary itself can
// be fetched.
const (
	idIdentifyResponse = 0
	idIdentify         = 1
)

// Device is a connection to one motion controller.
type Device struct {
	transport *protocol.HostTransport
	port      serial.Port

	// Dictionary as retrieved and as parsed name/ID maps. Both commands
	// and responses share the ID space.
	dictionaryRaw []byte
	nameToID      map[string]uint16
	idToName      map[uint16]string

	connected bool
}

// MotorStatus is the decoded motor_position response.
type MotorStatus struct {
	Motor    uint8
	Position int32
	Target   int32
	SpeedHz  uint32
}

// New creates an unconnected device handle.
func New() *Device {
	return &Device{}
}

// Connect opens the default serial configuration for the given path.
func (d *Device) Connect(devicePath string) error {
	return d.ConnectWithConfig(serial.DefaultConfig(devicePath))
}

// ConnectWithConfig opens the link with a custom serial configuration.
func (d *Device) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	d.port = port
	d.transport = protocol.NewHostTransport(port)
	d.connected = true

	// Give a freshly powered controller a moment before the first frame.
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Close shuts down the link.
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return err
		}
	}
	d.connected = false
	return nil
}

// IsConnected reports whether the link is open.
func (d *Device) IsConnected() bool {
	return d.connected
}

// RetrieveDictionary fetches the command dictionary in chunks and parses
// it. Must be called once after Connect before using named commands.
func (d *Device) RetrieveDictionary() error {
	if !d.connected {
		return fmt.Errorf("not connected")
	}

	var dictBuffer bytes.Buffer
	offset := uint32(0)
	chunkSize := uint8(40)

	for i := 0; i < 1000; i++ {
		chunk, err := d.sendIdentify(offset, chunkSize)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}
		dictBuffer.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < int(chunkSize) {
			break
		}
	}

	d.dictionaryRaw = dictBuffer.Bytes()
	return d.parseDictionary()
}

func (d *Device) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	err := d.transport.SendCommand(idIdentify, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify: %w", err)
	}

	resp, err := d.transport.ReceiveResponse(1 * time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}

	payload := resp.Payload
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response command ID: %w", err)
	}
	if cmdID != idIdentifyResponse {
		return nil, fmt.Errorf("unexpected response command ID: %d", cmdID)
	}

	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}

	return protocol.DecodeVLQBytes(&payload)
}

// parseDictionary reads the newline-separated "name format" lines; the ID
// of an entry is its line index.
func (d *Device) parseDictionary() error {
	d.nameToID = make(map[string]uint16)
	d.idToName = make(map[uint16]string)

	lines := strings.Split(strings.TrimRight(string(d.dictionaryRaw), "\n"), "\n")
	for i, line := range lines {
		name := line
		if sp := strings.IndexByte(line, ' '); sp >= 0 {
			name = line[:sp]
		}
		if name == "" {
			return fmt.Errorf("empty dictionary entry at ID %d", i)
		}
		d.nameToID[name] = uint16(i)
		d.idToName[uint16(i)] = name
	}
	return nil
}

// DictionaryRaw returns the raw dictionary text.
func (d *Device) DictionaryRaw() []byte {
	return d.dictionaryRaw
}

// CommandID looks up a command or response ID by name.
func (d *Device) CommandID(name string) (uint16, bool) {
	id, ok := d.nameToID[name]
	return id, ok
}

// SendCommand sends a named command with encoded arguments and waits for
// the ACK.
func (d *Device) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	if !d.connected {
		return fmt.Errorf("not connected")
	}
	if d.nameToID == nil {
		return fmt.Errorf("dictionary not loaded")
	}
	id, ok := d.nameToID[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	return d.transport.SendCommand(id, args)
}

// ConfigMotor configures a motor on the given pins.
func (d *Device) ConfigMotor(motor, stepPin, dirPin uint8, invertStep, invertDir bool) error {
	return d.SendCommand("config_motor", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQUint(output, uint32(stepPin))
		protocol.EncodeVLQUint(output, uint32(dirPin))
		protocol.EncodeVLQUint(output, boolArg(invertStep))
		protocol.EncodeVLQUint(output, boolArg(invertDir))
	})
}

// SetAcceleration sets the ramp acceleration in steps/s^2.
func (d *Device) SetAcceleration(motor uint8, accel int32) error {
	return d.SendCommand("set_acceleration", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQInt(output, accel)
	})
}

// SetSpeed sets the target speed in steps per second.
func (d *Device) SetSpeed(motor uint8, hz uint32) error {
	return d.SendCommand("set_speed", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQUint(output, hz)
	})
}

// MoveTo ramps the motor to an absolute position.
func (d *Device) MoveTo(motor uint8, pos int32) error {
	return d.SendCommand("move_to", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQInt(output, pos)
	})
}

// Move ramps the motor by a relative number of steps.
func (d *Device) Move(motor uint8, delta int32) error {
	return d.SendCommand("move", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQInt(output, delta)
	})
}

// StartRun starts continuous rotation; countUp selects the direction.
func (d *Device) StartRun(motor uint8, countUp bool) error {
	return d.SendCommand("start_run", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQUint(output, boolArg(countUp))
	})
}

// StopRamp decelerates the motor to standstill.
func (d *Device) StopRamp(motor uint8) error {
	return d.SendCommand("stop_ramp", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
	})
}

// ForceStop stops the motor immediately, dropping queued motion.
func (d *Device) ForceStop(motor uint8) error {
	return d.SendCommand("force_stop", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
	})
}

// SetPosition overwrites the motor position, e.g. after homing.
func (d *Device) SetPosition(motor uint8, pos int32) error {
	return d.SendCommand("set_position", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
		protocol.EncodeVLQInt(output, pos)
	})
}

// GetPosition queries the motor and decodes the motor_position response.
func (d *Device) GetPosition(motor uint8) (*MotorStatus, error) {
	err := d.SendCommand("get_position", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(motor))
	})
	if err != nil {
		return nil, err
	}

	wantID, ok := d.nameToID["motor_position"]
	if !ok {
		return nil, fmt.Errorf("motor_position not in dictionary")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := d.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		payload := resp.Payload
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil || uint16(cmdID) != wantID {
			continue
		}
		return decodeMotorStatus(&payload)
	}
	return nil, fmt.Errorf("no motor_position response")
}

func decodeMotorStatus(payload *[]byte) (*MotorStatus, error) {
	motor, err := protocol.DecodeVLQUint(payload)
	if err != nil {
		return nil, err
	}
	pos, err := protocol.DecodeVLQInt(payload)
	if err != nil {
		return nil, err
	}
	target, err := protocol.DecodeVLQInt(payload)
	if err != nil {
		return nil, err
	}
	speed, err := protocol.DecodeVLQUint(payload)
	if err != nil {
		return nil, err
	}
	return &MotorStatus{
		Motor:    uint8(motor),
		Position: pos,
		Target:   target,
		SpeedHz:  speed,
	}, nil
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
