// Package protocol implements the framed serial protocol between the host
// and the motion controller: variable length quantity argument encoding,
// CRC16-protected message blocks and sequence-tracked transports for both
// ends of the link.
package protocol

// Version of the controller firmware.
const Version = "0.1.0"

const (
	MessageMax     = 512 // output buffer size, holds several frames
	MessageMin     = 5
	MessageHeader  = 2
	MessageTrailer = 3

	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)

// MessageBlock is one framed message on the wire.
type MessageBlock struct {
	Length   uint8
	Sequence uint8
	Data     []byte
	CRC      uint16
}
