package wisun

import (
	"fmt"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// PHR bit positions, bit i being the i-th transmitted bit. The length field
// occupies bits 5-15 and is sent most significant bit first.
const (
	PHR_MODE_SWITCH = 1 << 0
	PHR_FCS_TYPE    = 1 << 3
	PHR_WHITENING   = 1 << 4
	PHR_LENGTH_MASK = 0x7FF
)

// PHR is the SUN FSK PHY header.
type PHR struct {
	ModeSwitch bool
	FCS16      bool
	Whitening  bool
	Length     int // PSDU octets including the FCS
}

// ParsePHR splits a raw header into its fields.
func ParsePHR(raw uint16) PHR {
	return PHR{
		ModeSwitch: raw&PHR_MODE_SWITCH != 0,
		FCS16:      raw&PHR_FCS_TYPE != 0,
		Whitening:  raw&PHR_WHITENING != 0,
		Length:     int(bits.Reverse16(raw) & PHR_LENGTH_MASK),
	}
}

// Raw packs the header.
func (p PHR) Raw() uint16 {
	var raw uint16
	if p.ModeSwitch {
		raw |= PHR_MODE_SWITCH
	}
	if p.FCS16 {
		raw |= PHR_FCS_TYPE
	}
	if p.Whitening {
		raw |= PHR_WHITENING
	}
	return raw | bits.Reverse16(uint16(p.Length)&PHR_LENGTH_MASK)
}

// Bytes returns the two header octets in transmission order.
func (p PHR) Bytes() []byte {
	raw := p.Raw()
	return []byte{byte(raw), byte(raw >> 8)}
}

func (p PHR) String() string {
	return fmt.Sprintf("PHR{raw=0x%04x ms=%t fcs16=%t dw=%t len=%d}",
		p.Raw(), p.ModeSwitch, p.FCS16, p.Whitening, p.Length)
}
