package core

import (
	"sync/atomic"

	"accelstep/protocol"
)

// shutdown flag, set by emergency_stop and cleared on reconnect.
var isShutdown uint32

// RegisterSystemCommands registers the device-level command set. The two
// identify messages must be registered first; the host bootstraps with
// their IDs hardcoded.
func RegisterSystemCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_clock", "", handleGetClock)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
	RegisterCommand("reset", "", handleReset)

	RegisterResponse("clock", "clock=%u")
}

// handleIdentify streams the command dictionary to the host in chunks.
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	dict := globalRegistry.GetDictionary()
	chunk := []byte(nil)
	if int(offset) < len(dict) {
		end := int(offset) + int(count)
		if end > len(dict) {
			end = len(dict)
		}
		chunk = []byte(dict[offset:end])
	}

	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func handleGetClock(data *[]byte) error {
	clock := GetTime()
	SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})
	return nil
}

// handleEmergencyStop force-stops every configured motor.
func handleEmergencyStop(data *[]byte) error {
	atomic.StoreUint32(&isShutdown, 1)
	ForceStopAll()
	return nil
}

// IsShutdown reports whether an emergency stop is latched.
func IsShutdown() bool {
	return atomic.LoadUint32(&isShutdown) != 0
}

// ResetFirmwareState clears the shutdown latch, typically after the host
// reconnects.
func ResetFirmwareState() {
	atomic.StoreUint32(&isShutdown, 0)
}

// Platform reset plumbing. The reset command only latches a flag; the
// actual reset runs from the main loop after the ACK went out.
var (
	globalResetHandler func()
	resetPending       uint32
)

// SetResetHandler installs the platform-specific reset handler.
func SetResetHandler(handler func()) {
	globalResetHandler = handler
}

func handleReset(_ *[]byte) error {
	atomic.StoreUint32(&resetPending, 1)
	return nil
}

// CheckPendingReset executes a latched reset request. Call from the main
// loop once pending output has been flushed.
func CheckPendingReset() {
	if atomic.LoadUint32(&resetPending) != 0 {
		if globalResetHandler != nil {
			globalResetHandler()
		}
	}
}
