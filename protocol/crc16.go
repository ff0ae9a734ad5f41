package protocol

// CRC16 computes the CCITT checksum used in the message trailer. Both ends
// of the link must agree on it byte for byte, so this stays a hand-rolled
// loop rather than a table-driven variant.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
