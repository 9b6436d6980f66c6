package wisun

import (
	"fmt"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// SHR is a located synchronization header.
type SHR struct {
	Offset       int // bit index of the first preamble bit
	PreambleBits int
	SFD          SFDType
}

// PHRStart returns the bit index just past the SFD.
func (s SHR) PHRStart() int {
	return s.Offset + s.PreambleBits + SFD_BITS
}

func matchAt(stream *bits.Buffer, pos int, pattern *bits.Buffer) bool {
	if pos < 0 || pos+pattern.Len() > stream.Len() {
		return false
	}
	for i := 0; i < pattern.Len(); i++ {
		if stream.Bit(pos+i) != pattern.Bit(i) {
			return false
		}
	}
	return true
}

func findPreamble(stream *bits.Buffer, from int) int {
	for p := from; p+PREAMBLE_BITS <= stream.Len(); p++ {
		if matchAt(stream, p, preambleUnit) {
			return p
		}
	}
	return -1
}

func matchSFD(stream *bits.Buffer, pos int) (SFDType, bool) {
	for i, p := range sfdBuffers {
		if matchAt(stream, pos, p) {
			return SFDType(i), true
		}
	}
	return 0, false
}

// FindSHR returns the first preamble plus SFD at or after bit from. A
// candidate preamble whose repeats are not followed by an exact SFD is
// dropped and the search resumes one bit after its start.
func FindSHR(stream *bits.Buffer, from int) (SHR, error) {
	if from < 0 {
		from = 0
	}

	for cursor := from; ; {
		p := findPreamble(stream, cursor)
		if p < 0 {
			return SHR{}, fmt.Errorf("searched bits %d-%d: %w", from, stream.Len(), ErrSHRNotFound)
		}

		q := p
		for matchAt(stream, q, preambleUnit) {
			q += PREAMBLE_BITS
		}

		if sfd, ok := matchSFD(stream, q); ok {
			return SHR{Offset: p, PreambleBits: q - p, SFD: sfd}, nil
		}
		cursor = p + 1
	}
}
