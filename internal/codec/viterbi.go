package codec

import (
	"fmt"
	"math"
	mathbits "math/bits"

	"github.com/dbehnke/wisunfsk/internal/bits"
)

// Viterbi is a hard-decision maximum-likelihood decoder for the SUN FSK
// convolutional codes.
//
// Decoder parameters:
// - Branch metric is the Hamming distance between the received symbol and
//   the symbol predicted by the trellis
// - The start state is known, every other state starts unreachable
// - States are relaxed in ascending order, bit 0 before bit 1, and only a
//   strictly smaller metric replaces a survivor
// - Chainback starts from the end state with the lowest metric (lowest state
//   number on a tie)

const unreachable = math.MaxUint32

type survivor struct {
	prev uint8
	bit  uint8
}

// Viterbi holds the path metrics and survivor decisions of one decode run.
type Viterbi struct {
	code        Code
	metrics1    [MAX_STATES]uint32
	metrics2    [MAX_STATES]uint32
	oldMetrics  []uint32
	newMetrics  []uint32
	decisions   [][MAX_STATES]survivor
	maxDistance int
}

// NewViterbi creates a decoder for code with no distance limit.
func NewViterbi(code Code) *Viterbi {
	v := &Viterbi{code: code, maxDistance: -1}
	v.Start(0)
	return v
}

// SetMaxDistance sets the largest path distance Chainback accepts. A negative
// value removes the limit.
func (v *Viterbi) SetMaxDistance(d int) {
	v.maxDistance = d
}

// MaxDistance returns the configured limit, negative when unlimited.
func (v *Viterbi) MaxDistance() int {
	return v.maxDistance
}

// Start resets the decoder with the encoder memory known to be state. It
// panics when state is not below the code's NumStates().
func (v *Viterbi) Start(state uint8) {
	v.code.checkState(state)
	for i := range v.metrics1 {
		v.metrics1[i] = unreachable
		v.metrics2[i] = unreachable
	}
	v.metrics1[state] = 0

	v.oldMetrics = v.metrics1[:]
	v.newMetrics = v.metrics2[:]
	v.decisions = v.decisions[:0]
}

// Steps returns the number of symbols fed since Start.
func (v *Viterbi) Steps() int {
	return len(v.decisions)
}

// Decode processes one received symbol, first transmitted bit in bit 0.
func (v *Viterbi) Decode(symbol uint8) {
	var dec [MAX_STATES]survivor
	for i := range v.newMetrics {
		v.newMetrics[i] = unreachable
	}

	t := v.code.trellis()
	for s := 0; s < v.code.NumStates(); s++ {
		if v.oldMetrics[s] == unreachable {
			continue
		}
		for b := uint8(0); b < 2; b++ {
			tr := t[s][b]
			m := v.oldMetrics[s] + uint32(mathbits.OnesCount8(symbol^symbolSwap[tr.symbol]))
			if m < v.newMetrics[tr.next] {
				v.newMetrics[tr.next] = m
				dec[tr.next] = survivor{prev: uint8(s), bit: b}
			}
		}
	}

	v.decisions = append(v.decisions, dec)
	v.oldMetrics, v.newMetrics = v.newMetrics, v.oldMetrics
}

// best returns the reachable end state with the lowest metric.
func (v *Viterbi) best() (uint8, uint32) {
	state, metric := uint8(0), uint32(unreachable)
	for s := 0; s < v.code.NumStates(); s++ {
		if v.oldMetrics[s] < metric {
			state, metric = uint8(s), v.oldMetrics[s]
		}
	}
	return state, metric
}

// Chainback traces the surviving path and appends the decoded bits to out.
// It returns the end state of the path and its distance.
func (v *Viterbi) Chainback(out *bits.Buffer) (uint8, int, error) {
	n := len(v.decisions)
	if out.Len()+n > out.Cap() {
		return 0, 0, fmt.Errorf("chainback %d bits into %d/%d: %w", n, out.Len(), out.Cap(), bits.ErrCapacity)
	}

	end, metric := v.best()
	distance := int(metric)
	if v.maxDistance >= 0 && distance > v.maxDistance {
		return end, distance, fmt.Errorf("%w: path distance %d exceeds %d", ErrDecode, distance, v.maxDistance)
	}

	path := make([]uint8, n)
	state := end
	for i := n - 1; i >= 0; i-- {
		d := v.decisions[i][state]
		path[i] = d.bit
		state = d.prev
	}

	for _, b := range path {
		if err := out.Append(b); err != nil {
			return 0, 0, err
		}
	}
	return end, distance, nil
}

// DecodeBuffer decodes every symbol of src, starting from state, and appends
// the decoded bits to dst.
func (v *Viterbi) DecodeBuffer(state uint8, src, dst *bits.Buffer) (uint8, int, error) {
	if src.Len()%2 != 0 {
		return 0, 0, fmt.Errorf("decode %d symbol bits: %w", src.Len(), ErrMisaligned)
	}
	if dst.Len()+src.Len()/2 > dst.Cap() {
		return 0, 0, fmt.Errorf("decode %d bits into %d/%d: %w", src.Len()/2, dst.Len(), dst.Cap(), bits.ErrCapacity)
	}

	v.Start(state)
	for i := 0; i < src.Len(); i += 2 {
		v.Decode(src.Bit(i) | src.Bit(i+1)<<1)
	}
	return v.Chainback(dst)
}

// DecodeResult is the outcome of a package level Decode.
type DecodeResult struct {
	Bits     *bits.Buffer // decoded bits, LSB-first
	State    uint8        // encoder memory after the last bit
	Distance int          // Hamming distance of the chosen path
}

// Decode runs a fresh, unlimited decoder over src starting from state.
func Decode(code Code, state uint8, src *bits.Buffer) (*DecodeResult, error) {
	dst := bits.New(src.Len()/2, bits.LSBFirst)
	end, distance, err := NewViterbi(code).DecodeBuffer(state, src, dst)
	if err != nil {
		return nil, err
	}
	return &DecodeResult{Bits: dst, State: end, Distance: distance}, nil
}
