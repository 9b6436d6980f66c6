package wisun

import (
	"fmt"
	"strings"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// SUN FSK frame constants (IEEE 802.15.4 SUN FSK PHY)
const (
	PREAMBLE_PATTERN = "01010101" // one preamble unit, first transmitted bit first
	PREAMBLE_OCTET   = 0xAA       // PREAMBLE_PATTERN packed LSB first
	PREAMBLE_BITS    = 8
	SFD_BITS         = 16
	PHR_BITS         = 16
	PHR_OCTETS       = 2
	CODED_PHR_BITS   = 2 * PHR_BITS

	MAX_FRAME_LENGTH = 0x7FF // 11-bit PHR length field
)

// SFDType identifies one of the four start-of-frame delimiters. The coded
// variants announce FEC plus interleaving on PHR and PSDU.
type SFDType int

const (
	SFDCoded0 SFDType = iota
	SFDUncoded0
	SFDCoded1
	SFDUncoded1
)

// SFD_PATTERNS are the delimiters in transmission order
var SFD_PATTERNS = [...]string{
	SFDCoded0:   "0110111101001110",
	SFDUncoded0: "1001000001001110",
	SFDCoded1:   "0110001100101101",
	SFDUncoded1: "0111101000001110",
}

var (
	sfdBuffers      = newPatternBuffers()
	preambleUnit, _ = bits.ParseString(PREAMBLE_PATTERN, bits.LSBFirst)
)

func newPatternBuffers() [len(SFD_PATTERNS)]*bits.Buffer {
	var out [len(SFD_PATTERNS)]*bits.Buffer
	for i, p := range SFD_PATTERNS {
		b, err := bits.ParseString(p, bits.LSBFirst)
		if err != nil {
			panic(err)
		}
		out[i] = b
	}
	return out
}

var sfdNames = [...]string{
	SFDCoded0:   "coded0",
	SFDUncoded0: "uncoded0",
	SFDCoded1:   "coded1",
	SFDUncoded1: "uncoded1",
}

func (s SFDType) String() string {
	if s < 0 || int(s) >= len(sfdNames) {
		return fmt.Sprintf("SFDType(%d)", int(s))
	}
	return sfdNames[s]
}

// Valid reports whether s is one of the four delimiters.
func (s SFDType) Valid() bool {
	return s >= SFDCoded0 && s <= SFDUncoded1
}

// Coded reports whether frames with this delimiter carry FEC.
func (s SFDType) Coded() bool {
	return s == SFDCoded0 || s == SFDCoded1
}

// Pattern returns the delimiter bits.
func (s SFDType) Pattern() *bits.Buffer {
	p := sfdBuffers[s]
	out, _ := p.Slice(0, p.Len(), bits.LSBFirst)
	return out
}

// ParseSFD maps a delimiter name such as "uncoded0" to its SFDType.
func ParseSFD(name string) (SFDType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range sfdNames {
		if n == name {
			return SFDType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown SFD %q", ErrInvalidOption, name)
}

// State is a step of the receive state machine.
type State int

const (
	StateSearching State = iota
	StatePreambleFound
	StateSfdMatched
	StateHeaderRecovered
	StatePayloadRecovered
	StateVerified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StatePreambleFound:
		return "preamble-found"
	case StateSfdMatched:
		return "sfd-matched"
	case StateHeaderRecovered:
		return "header-recovered"
	case StatePayloadRecovered:
		return "payload-recovered"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
