package protocol

import (
	"bytes"
	"testing"
)

// buildFrame assembles a wire frame the way the host does.
func buildFrame(seq uint8, payload []byte) []byte {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	frame := []byte{uint8(msgLen), seq}
	frame = append(frame, payload...)
	crc := CRC16(frame)
	frame = append(frame, uint8(crc>>8), uint8(crc&0xFF), MessageValueSync)
	return frame
}

func commandPayload(cmdID uint16, args ...int32) []byte {
	output := NewScratchOutput()
	EncodeVLQUint(output, uint32(cmdID))
	for _, a := range args {
		EncodeVLQInt(output, a)
	}
	return output.Result()
}

func TestTransportReceiveDispatches(t *testing.T) {
	var gotID uint16
	var gotArg int32
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		gotID = cmdID
		arg, err := DecodeVLQInt(data)
		if err != nil {
			return err
		}
		gotArg = arg
		return nil
	})

	frame := buildFrame(MessageDest, commandPayload(3, -42))
	tr.Receive(NewSliceInputBuffer(frame))

	if gotID != 3 || gotArg != -42 {
		t.Errorf("dispatched cmd=%d arg=%d, expected cmd=3 arg=-42", gotID, gotArg)
	}

	// The ACK must carry the advanced sequence.
	ack := output.Result()
	if len(ack) != 5 {
		t.Fatalf("expected a 5-byte ACK, got %d bytes", len(ack))
	}
	if ack[MessagePositionSeq] != MessageDest+1 {
		t.Errorf("ACK sequence 0x%02x, expected 0x%02x", ack[MessagePositionSeq], MessageDest+1)
	}
	crc := CRC16(ack[:2])
	if ack[2] != uint8(crc>>8) || ack[3] != uint8(crc&0xFF) || ack[4] != MessageValueSync {
		t.Errorf("malformed ACK trailer: %v", ack)
	}
}

func TestTransportRepeatedSequenceNotReplayed(t *testing.T) {
	calls := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		*data = nil
		return nil
	})

	tr.Receive(NewSliceInputBuffer(buildFrame(MessageDest, commandPayload(1))))
	second := buildFrame(MessageDest+1, commandPayload(1))
	tr.Receive(NewSliceInputBuffer(second))
	// Host missed the ACK and resends the same sequence.
	tr.Receive(NewSliceInputBuffer(second))

	if calls != 2 {
		t.Errorf("frames executed %d times, expected 2", calls)
	}
}

func TestTransportBadCRCDesynchronizes(t *testing.T) {
	calls := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		*data = nil
		return nil
	})

	frame := buildFrame(MessageDest, commandPayload(1))
	frame[2] ^= 0xFF
	tr.Receive(NewSliceInputBuffer(frame))
	if calls != 0 {
		t.Errorf("corrupted frame was executed")
	}

	// A clean frame after the sync byte recovers the link.
	good := buildFrame(MessageDest, commandPayload(1))
	tr.Receive(NewSliceInputBuffer(good))
	if calls != 1 {
		t.Errorf("link did not recover after corruption: %d calls", calls)
	}
}

func TestTransportEncodeFrameRoundTrip(t *testing.T) {
	output := NewScratchOutput()
	tr := NewTransport(output, nil)

	tr.SendCommand(7, func(out OutputBuffer) {
		EncodeVLQInt(out, 12345)
	})

	frame := output.Result()
	if int(frame[MessagePositionLen]) != len(frame) {
		t.Fatalf("length byte %d, frame is %d bytes", frame[MessagePositionLen], len(frame))
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Errorf("missing trailing sync byte")
	}
	crc := CRC16(frame[:len(frame)-MessageTrailerSize])
	wantTrailer := []byte{uint8(crc >> 8), uint8(crc & 0xFF), MessageValueSync}
	if !bytes.Equal(frame[len(frame)-3:], wantTrailer) {
		t.Errorf("trailer %v, expected %v", frame[len(frame)-3:], wantTrailer)
	}

	payload := frame[MessageHeaderSize : len(frame)-MessageTrailerSize]
	cmdID, err := DecodeVLQUint(&payload)
	if err != nil || cmdID != 7 {
		t.Fatalf("decoded cmd %d (%v), expected 7", cmdID, err)
	}
	val, err := DecodeVLQInt(&payload)
	if err != nil || val != 12345 {
		t.Fatalf("decoded arg %d (%v), expected 12345", val, err)
	}
}
