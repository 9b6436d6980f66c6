package codec

import (
	"fmt"
	"strings"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// SUN FSK convolutional codes (IEEE 802.15.4 SUN FSK FEC)
//
// Code parameters:
// - Rate 1/2, one 2-bit symbol (u1,u0) per input bit
// - RSC: recursive systematic, 3-bit memory, u0 is the input bit
// - NRNSC: non-recursive non-systematic, 4-bit window, no feedback
// - Both start from memory 0 and are terminated with 3 tail bits
// - On air each symbol is sent u1 first, then u0

// Code selects one of the two SUN FSK convolutional code families.
type Code int

const (
	NRNSC Code = iota
	RSC
)

const (
	RSC_INIT_M   = 0
	NRNSC_INIT_M = 0

	MAX_STATES = 16 // NRNSC window is the larger state space
	TAIL_BITS  = 3
)

func (c Code) String() string {
	switch c {
	case NRNSC:
		return "nrnsc"
	case RSC:
		return "rsc"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// ParseCode maps "rsc" / "nrnsc" to a Code.
func ParseCode(s string) (Code, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nrnsc":
		return NRNSC, nil
	case "rsc":
		return RSC, nil
	}
	return 0, fmt.Errorf("unknown FEC code %q", s)
}

// StateBits returns the width of the memory register.
func (c Code) StateBits() int {
	if c == RSC {
		return 3
	}
	return 4
}

// NumStates returns 2^StateBits().
func (c Code) NumStates() int {
	return 1 << c.StateBits()
}

type transition struct {
	symbol uint8 // (u1 << 1) | u0
	next   uint8
}

type trellis [MAX_STATES][2]transition

var (
	rscTrellis   = newTrellis(RSC)
	nrnscTrellis = newTrellis(NRNSC)

	// symbolSwap reverses the two bits of a symbol before it is packed
	symbolSwap = [4]uint8{0b00, 0b10, 0b01, 0b11}

	// RSC_TAIL_TABLE holds the tail bits (first bit in bit 0) that return
	// each RSC state to 0
	RSC_TAIL_TABLE = newRSCTailTable()
)

// rscStep is the bit-level RSC encoder.
// bi is bit3, bi-1 is bit2, bi-2 is bit1, bi-3 is bit0 of the register.
func rscStep(m uint8, bi uint8) (uint8, uint8) {
	last := (m ^ m>>1 ^ m>>2) & 1
	u0 := bi & 1
	f := u0 ^ last
	u1 := f ^ (m>>1)&1 ^ m&1

	next := (m>>1)&0b011 | f<<2
	return u1<<1 | u0, next
}

// nrnscStep is the bit-level NRNSC encoder.
//
//	u0 = bi ^ bi1 ^ bi2 ^ bi3 ^ 1
//	u1 = bi ^ bi2 ^ bi3 ^ 1
func nrnscStep(m uint8, bi uint8) (uint8, uint8) {
	next := (m>>1 | (bi&1)<<3) & 0x0F

	b := (next >> 3) & 1
	b1 := (next >> 2) & 1
	b2 := (next >> 1) & 1
	b3 := next & 1

	u0 := b ^ b1 ^ b2 ^ b3 ^ 1
	u1 := b ^ b2 ^ b3 ^ 1
	return u1<<1 | u0, next
}

func newTrellis(c Code) *trellis {
	t := new(trellis)
	step := nrnscStep
	if c == RSC {
		step = rscStep
	}

	for s := 0; s < c.NumStates(); s++ {
		for b := uint8(0); b < 2; b++ {
			sym, next := step(uint8(s), b)
			t[s][b] = transition{symbol: sym, next: next}
		}
	}
	return t
}

func newRSCTailTable() [8]uint8 {
	var table [8]uint8
	for s := uint8(0); s < 8; s++ {
		m := s
		for i := 0; i < TAIL_BITS; i++ {
			b := (m ^ m>>1 ^ m>>2) & 1
			table[s] |= b << i
			_, m = rscStep(m, b)
		}
	}
	return table
}

func (c Code) trellis() *trellis {
	if c == RSC {
		return rscTrellis
	}
	return nrnscTrellis
}

// Step looks up the unswapped symbol (u1<<1)|u0 and next state for one
// input bit.
func (c Code) Step(state, bit uint8) (symbol, next uint8) {
	t := c.trellis()[state&uint8(c.NumStates()-1)][bit&1]
	return t.symbol, t.next
}

// TailBits returns the 3 termination bits (first bit in bit 0) for the
// given state: state dependent for RSC, zero for NRNSC.
func TailBits(c Code, state uint8) uint8 {
	if c == RSC {
		return RSC_TAIL_TABLE[state&0b111]
	}
	return 0
}

// Pad octets follow PHR+PSDU in a coded frame. The tail bits are ORed into
// bits 0-2 of the first one; the rest is the pad pattern 01011, 0101101011010
// in transmission order.
var padPattern = [2]byte{0xD0, 0x5A}

// PadOctets returns the number of tail/pad octets for n octets of PHR+PSDU.
// The total is always even so the coded stream fills whole interleaver
// blocks.
func PadOctets(n int) int {
	if n%2 == 0 {
		return 2
	}
	return 1
}

// PadBytes returns the tail/pad octets for n octets of PHR+PSDU encoded
// up to state.
func PadBytes(c Code, n int, state uint8) []byte {
	pad := make([]byte, PadOctets(n))
	copy(pad, padPattern[:])
	pad[0] |= TailBits(c, state)
	return pad
}

// Encoder is a convolutional encoder that keeps its memory between calls.
type Encoder struct {
	code  Code
	state uint8
}

// checkState panics on a register value the code cannot hold.
func (c Code) checkState(state uint8) {
	if int(state) >= c.NumStates() {
		panic(fmt.Sprintf("codec: %s state %d out of range [0:%d]", c, state, c.NumStates()))
	}
}

// NewEncoder creates an encoder starting from state. It panics when state
// is not below code.NumStates().
func NewEncoder(code Code, state uint8) *Encoder {
	code.checkState(state)
	return &Encoder{code: code, state: state}
}

// Code returns the encoder's code family.
func (e *Encoder) Code() Code { return e.code }

// State returns the current register contents.
func (e *Encoder) State() uint8 { return e.state }

// EncodeBit feeds one bit and returns the on-air symbol: the first
// transmitted bit in bit 0, the second in bit 1.
func (e *Encoder) EncodeBit(bit uint8) uint8 {
	var sym uint8
	sym, e.state = e.code.Step(e.state, bit)
	return symbolSwap[sym]
}

// Encode appends two bits to dst for every bit of src, in index order.
// Nothing is written when dst cannot hold the whole output.
func (e *Encoder) Encode(dst, src *bits.Buffer) error {
	if dst.Len()+2*src.Len() > dst.Cap() {
		return fmt.Errorf("encode %d bits into %d/%d: %w", src.Len(), dst.Len(), dst.Cap(), bits.ErrCapacity)
	}

	for i := 0; i < src.Len(); i++ {
		sym := e.EncodeBit(src.Bit(i))
		if err := dst.Append(sym & 1); err != nil {
			return err
		}
		if err := dst.Append(sym >> 1); err != nil {
			return err
		}
	}
	return nil
}

// Encode runs src through a fresh encoder starting at state and returns the
// symbols (LSB-first stream) and the final state.
func Encode(code Code, state uint8, src *bits.Buffer) (*bits.Buffer, uint8, error) {
	enc := NewEncoder(code, state)
	dst := bits.New(2*src.Len(), bits.LSBFirst)
	if err := enc.Encode(dst, src); err != nil {
		return nil, 0, err
	}
	return dst, enc.State(), nil
}

// EncodeBytes encodes every bit of data in transmission order (LSB first
// within each byte) and returns the packed symbols.
func EncodeBytes(code Code, state uint8, data []byte) ([]byte, uint8, error) {
	src, err := bits.FromBytes(data, len(data)*8, bits.LSBFirst)
	if err != nil {
		return nil, 0, err
	}
	out, final, err := Encode(code, state, src)
	if err != nil {
		return nil, 0, err
	}
	return out.Bytes(), final, nil
}
