package codec

import (
	"encoding/binary"
	"hash/crc32"
)

// IEEE 802.15.4 FCS-32: reflected CRC-32 (0xEDB88320), initial register
// 0xFFFFFFFF, final XOR 0xFFFFFFFF, sent least significant octet first.

const (
	FCS32_SEED = 0xFFFFFFFF
	FCS32_GOOD = 0x2144DF1C // residue over data || FCS
	FCS32_LEN  = 4

	fcs32MinField = 8
)

// FCS32 runs the CRC over data with the register preset to seed.
func FCS32(seed uint32, data []byte) uint32 {
	return crc32.Update(^seed, crc32.IEEETable, data)
}

// FCS32Trailer returns the 4 FCS octets for payload. A payload shorter than
// 4 octets is covered as if zero padded to 4.
func FCS32Trailer(payload []byte) []byte {
	field := payload
	if len(field) < FCS32_LEN {
		field = make([]byte, FCS32_LEN)
		copy(field, payload)
	}
	out := make([]byte, FCS32_LEN)
	binary.LittleEndian.PutUint32(out, FCS32(FCS32_SEED, field))
	return out
}

// FCS32IsGood reports whether buf ends in a valid FCS-32. A frame shorter
// than 8 octets is checked as an 8-octet field with the FCS at offset 4.
func FCS32IsGood(buf []byte) bool {
	if len(buf) <= FCS32_LEN {
		return false
	}

	field := buf
	if len(buf) < fcs32MinField {
		n := len(buf) - FCS32_LEN
		field = make([]byte, fcs32MinField)
		copy(field, buf[:n])
		copy(field[FCS32_LEN:], buf[n:])
	}
	return FCS32(FCS32_SEED, field) == FCS32_GOOD
}
