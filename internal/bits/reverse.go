package bits

// Reverse8 reverses the bit order of an 8-bit word.
func Reverse8(v uint8) uint8 {
	v = (v&0xF0)>>4 | (v&0x0F)<<4
	v = (v&0xCC)>>2 | (v&0x33)<<2
	v = (v&0xAA)>>1 | (v&0x55)<<1
	return v
}

// Reverse16 reverses the bit order of a 16-bit word.
func Reverse16(v uint16) uint16 {
	v = v>>8 | v<<8
	v = (v&0xF0F0)>>4 | (v&0x0F0F)<<4
	v = (v&0xCCCC)>>2 | (v&0x3333)<<2
	v = (v&0xAAAA)>>1 | (v&0x5555)<<1
	return v
}

// Reverse32 reverses the bit order of a 32-bit word.
func Reverse32(v uint32) uint32 {
	v = v>>16 | v<<16
	v = (v&0xFF00FF00)>>8 | (v&0x00FF00FF)<<8
	v = (v&0xF0F0F0F0)>>4 | (v&0x0F0F0F0F)<<4
	v = (v&0xCCCCCCCC)>>2 | (v&0x33333333)<<2
	v = (v&0xAAAAAAAA)>>1 | (v&0x55555555)<<1
	return v
}
