package serial

import (
	"io"
)

// Port is the serial link to the motion controller. The abstraction keeps
// the device client testable against a mock and portable to other
// transports.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes any buffered data out.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. "/dev/ttyACM0" or "COM3".
	Device string

	// Baud rate. USB CDC devices ignore it.
	Baud int

	// Read timeout in milliseconds, 0 blocks.
	ReadTimeout int
}

// DefaultConfig returns the standard configuration for the controller
// link.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}
