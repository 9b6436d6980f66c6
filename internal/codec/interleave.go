package codec

import (
	"fmt"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// SUN FSK block interleaver
// Each 32-bit block holds 16 two-bit symbols. Symbol k is stream bits 2k and
// 2k+1 of the block and is sent at position 15 - 4*(k%4) - k/4.

const (
	INTERLEAVE_BLOCK_BITS    = 32
	INTERLEAVE_BLOCK_SYMBOLS = 16
)

// INTERLEAVE_TABLE maps a symbol's position in the coded stream to its
// position on air.
var INTERLEAVE_TABLE = newInterleaveTable()

func newInterleaveTable() [INTERLEAVE_BLOCK_SYMBOLS]int {
	var table [INTERLEAVE_BLOCK_SYMBOLS]int
	for k := range table {
		table[k] = 15 - 4*(k%4) - k/4
	}
	return table
}

func permute(src *bits.Buffer, inverse bool) (*bits.Buffer, error) {
	if src.Len()%INTERLEAVE_BLOCK_BITS != 0 {
		return nil, fmt.Errorf("interleave %d bits: %w", src.Len(), ErrMisaligned)
	}

	out, err := src.Slice(0, src.Len(), src.Order())
	if err != nil {
		return nil, err
	}

	for blk := 0; blk < src.Len(); blk += INTERLEAVE_BLOCK_BITS {
		for k, t := range INTERLEAVE_TABLE {
			from, to := blk+2*k, blk+2*t
			if inverse {
				from, to = to, from
			}
			out.SetBit(to, src.Bit(from))
			out.SetBit(to+1, src.Bit(from+1))
		}
	}
	return out, nil
}

// Interleave returns a copy of src with every 32-bit block permuted for
// transmission.
func Interleave(src *bits.Buffer) (*bits.Buffer, error) {
	return permute(src, false)
}

// Deinterleave undoes Interleave.
func Deinterleave(src *bits.Buffer) (*bits.Buffer, error) {
	return permute(src, true)
}
