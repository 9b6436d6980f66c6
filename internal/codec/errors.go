package codec

import "errors"

var (
	// ErrMisaligned is returned when a bit count does not fit the codec's
	// granularity (2-bit symbols, 32-bit interleaver blocks).
	ErrMisaligned = errors.New("bit count not aligned")

	// ErrDecode is returned when no trellis path is within the allowed
	// Hamming distance of the received symbols.
	ErrDecode = errors.New("convolutional decode failed")
)
