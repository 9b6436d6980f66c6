package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPN9TableHead(t *testing.T) {
	table := PN9Table()
	assert.Equal(t, []byte{0xf0, 0x0e, 0xcd, 0xf6, 0xc2, 0x19, 0x12, 0x75}, table[:8])
	assert.Equal(t, byte(0xff), table[PN9_TABLE_SIZE-1])
}

func TestPN9Period(t *testing.T) {
	pn9 := uint16(PN9_SEED)
	for i := 0; i < PN9_TABLE_SIZE; i++ {
		pn9, _ = pn9Shift(pn9)
		if i < PN9_TABLE_SIZE-1 {
			assert.NotEqual(t, uint16(PN9_SEED), pn9, "register returned to seed after %d shifts", i+1)
		}
	}
	assert.Equal(t, uint16(PN9_SEED), pn9)
}

func TestWhitenZeroesGivesKeystream(t *testing.T) {
	buf := make([]byte, PN9_TABLE_SIZE+3)
	Whiten(buf)

	table := PN9Table()
	assert.Equal(t, table[:], buf[:PN9_TABLE_SIZE])
	assert.Equal(t, table[:3], buf[PN9_TABLE_SIZE:])
}

func TestWhitenInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 1200).Draw(t, "data")
		buf := append([]byte(nil), data...)

		Whiten(buf)
		Whiten(buf)
		assert.Equal(t, data, buf)
	})
}
