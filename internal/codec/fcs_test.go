package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFCS32KnownVectors(t *testing.T) {
	assert.Equal(t, uint32(0xCBF43926), FCS32(FCS32_SEED, []byte("123456789")))

	tests := []struct {
		name    string
		payload []byte
		want    []byte
	}{
		{"four octets", []byte{0x01, 0x02, 0x03, 0x04}, []byte{0xcd, 0xfb, 0x3c, 0xb6}},
		{"one octet padded", []byte{0xaa}, []byte{0x7d, 0x26, 0x92, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FCS32Trailer(tt.payload))
		})
	}
}

func TestFCS32IsGood(t *testing.T) {
	frame := append([]byte{0x01, 0x02, 0x03, 0x04}, FCS32Trailer([]byte{0x01, 0x02, 0x03, 0x04})...)
	assert.True(t, FCS32IsGood(frame))

	short := append([]byte{0xaa}, FCS32Trailer([]byte{0xaa})...)
	assert.True(t, FCS32IsGood(short))

	assert.False(t, FCS32IsGood(nil))
	assert.False(t, FCS32IsGood([]byte{0x7d, 0x26, 0x92, 0x03}))

	frame[0] ^= 0x80
	assert.False(t, FCS32IsGood(frame))
}

func TestFCS32SelfConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 5, 300).Draw(t, "payload")
		frame := append(append([]byte(nil), payload...), FCS32Trailer(payload)...)
		assert.True(t, FCS32IsGood(frame))

		bit := rapid.IntRange(0, len(payload)*8-1).Draw(t, "bit")
		frame[bit/8] ^= 1 << (bit % 8)
		assert.False(t, FCS32IsGood(frame))
	})
}
