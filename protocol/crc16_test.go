package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC of empty input: expected 0xFFFF, got 0x%04X", got)
	}
}

func TestCRC16Consistency(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if CRC16(data) != CRC16(data) {
		t.Error("CRC16 not deterministic")
	}
}

func TestCRC16Sensitivity(t *testing.T) {
	cases := [][2][]byte{
		{{0x01, 0x02, 0x03}, {0x01, 0x02, 0x04}},
		{{0x01, 0x02}, {0x02, 0x01}},
		{{0x00}, {0x00, 0x00}},
	}
	for i, c := range cases {
		if CRC16(c[0]) == CRC16(c[1]) {
			t.Errorf("case %d: CRC collision for %v and %v", i, c[0], c[1])
		}
	}
}
