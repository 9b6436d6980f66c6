package codec

// PN9 data whitening for the SUN FSK PSDU (IEEE 802.15.4 data whitening)
//
// - 9-bit LFSR seeded with all ones
// - Feedback is bit0 XOR bit5, shifted in at bit8
// - The feedback bit is the keystream output, 8 outputs per byte, LSB first
// - The sequence repeats every 511 bytes, so a 511-byte table covers it

const (
	PN9_SEED       = 0x1FF
	PN9_TABLE_SIZE = 511
)

var pn9Table = newPN9Table()

// pn9Shift clocks the register once and returns the new state and output bit.
func pn9Shift(pn9 uint16) (uint16, uint8) {
	out := uint8((pn9 ^ pn9>>5) & 1)
	pn9 = pn9>>1 | uint16(out)<<8
	return pn9, out
}

func newPN9Table() [PN9_TABLE_SIZE]byte {
	var table [PN9_TABLE_SIZE]byte
	pn9 := uint16(PN9_SEED)

	for i := range table {
		var n byte
		for bit := 0; bit < 8; bit++ {
			var out uint8
			pn9, out = pn9Shift(pn9)
			n |= out << bit
		}
		table[i] = n
	}

	return table
}

// PN9Table returns a copy of the whitening keystream.
func PN9Table() [PN9_TABLE_SIZE]byte {
	return pn9Table
}

// Whiten XORs buf with the PN9 keystream in place. Applying it twice
// restores the original bytes.
func Whiten(buf []byte) {
	for i := range buf {
		buf[i] ^= pn9Table[i%PN9_TABLE_SIZE]
	}
}
