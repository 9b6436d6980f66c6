package codec

import (
	"testing"

	"github.com/dbehnke/wisunfsk/internal/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInterleaveTable(t *testing.T) {
	assert.Equal(t, [16]int{15, 11, 7, 3, 14, 10, 6, 2, 13, 9, 5, 1, 12, 8, 4, 0}, INTERLEAVE_TABLE)

	seen := make(map[int]bool)
	for k, pos := range INTERLEAVE_TABLE {
		assert.False(t, seen[pos], "position %d used twice", pos)
		seen[pos] = true
		assert.Equal(t, k, INTERLEAVE_TABLE[pos])
	}
	assert.Len(t, seen, INTERLEAVE_BLOCK_SYMBOLS)
}

func TestInterleaveKnownBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"first symbol", []byte{0x01, 0x00, 0x00, 0x00}, []byte{0x00, 0x00, 0x00, 0x40}},
		{"mixed", []byte{0x12, 0x34, 0x56, 0x78}, []byte{0x05, 0x77, 0x16, 0x88}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := bits.FromBytes(tt.in, 32, bits.LSBFirst)
			require.NoError(t, err)

			out, err := Interleave(src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Bytes())

			back, err := Deinterleave(out)
			require.NoError(t, err)
			assert.Equal(t, tt.in, back.Bytes())
		})
	}
}

func TestInterleaveRejectsPartialBlock(t *testing.T) {
	for _, n := range []int{1, 16, 31, 33, 48} {
		src := bits.New(n, bits.LSBFirst)
		for i := 0; i < n; i++ {
			require.NoError(t, src.Append(1))
		}
		_, err := Interleave(src)
		assert.ErrorIs(t, err, ErrMisaligned, "n=%d", n)
		_, err = Deinterleave(src)
		assert.ErrorIs(t, err, ErrMisaligned, "n=%d", n)
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blocks := rapid.IntRange(0, 8).Draw(t, "blocks")
		data := rapid.SliceOfN(rapid.Byte(), blocks*4, blocks*4).Draw(t, "data")
		order := bits.Order(rapid.IntRange(0, 1).Draw(t, "order"))

		src, err := bits.FromBytes(data, blocks*32, order)
		require.NoError(t, err)

		out, err := Interleave(src)
		require.NoError(t, err)
		assert.Equal(t, src.Len(), out.Len())

		back, err := Deinterleave(out)
		require.NoError(t, err)
		assert.True(t, src.Equal(back))
	})
}
