//go:build rp2040

package main

import (
	"machine"
)

// InitUSB configures the USB CDC serial link. On the RP2040
// machine.Serial is USB CDC, not a hardware UART; the descriptors come
// from the TinyGo runtime.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// USBAvailable returns the number of buffered input bytes.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data, returning the number of bytes accepted.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
