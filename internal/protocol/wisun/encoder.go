package wisun

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dbehnke/wisunfsk/internal/bits"
	"github.com/dbehnke/wisunfsk/internal/codec"
)

// Options are the PHR and FEC settings of a transmitted frame.
type Options struct {
	Whitening  bool
	ModeSwitch bool
	Code       codec.Code // used with coded SFDs only
}

// Encoder builds transmittable frames with a fixed SHR and options.
type Encoder struct {
	preambleBits int
	sfd          SFDType
	opts         Options
	logger       *log.Logger
}

// NewEncoder validates the frame settings. preambleBits must be a positive
// multiple of 8.
func NewEncoder(preambleBits int, sfd SFDType, opts Options) (*Encoder, error) {
	if preambleBits < PREAMBLE_BITS || preambleBits%PREAMBLE_BITS != 0 {
		return nil, fmt.Errorf("%w: preamble of %d bits", ErrInvalidOption, preambleBits)
	}
	if !sfd.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOption, sfd)
	}
	if opts.Code != codec.RSC && opts.Code != codec.NRNSC {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOption, opts.Code)
	}

	return &Encoder{
		preambleBits: preambleBits,
		sfd:          sfd,
		opts:         opts,
		logger:       log.New(io.Discard),
	}, nil
}

// SetLogger sets the logger used for encode traces.
func (e *Encoder) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e.logger = logger
}

// Encode appends the FCS to psdu and returns the complete frame, SHR
// included, in transmission order.
func (e *Encoder) Encode(psdu []byte) (*bits.Buffer, error) {
	length := len(psdu) + codec.FCS32_LEN
	if length > MAX_FRAME_LENGTH {
		return nil, fmt.Errorf("%w: %d octets, max %d", ErrFrameTooLong, length, MAX_FRAME_LENGTH)
	}

	phr := PHR{ModeSwitch: e.opts.ModeSwitch, Whitening: e.opts.Whitening, Length: length}

	payload := make([]byte, 0, length)
	payload = append(payload, psdu...)
	payload = append(payload, codec.FCS32Trailer(psdu)...)
	if phr.Whitening {
		codec.Whiten(payload)
	}

	data := append(phr.Bytes(), payload...)
	src, err := bits.FromBytes(data, len(data)*8, bits.LSBFirst)
	if err != nil {
		return nil, err
	}

	body := src
	if e.sfd.Coded() {
		if body, err = e.fecEncode(src, len(data)); err != nil {
			return nil, err
		}
	}

	stream := bits.New(e.preambleBits+SFD_BITS+body.Len(), bits.LSBFirst)
	for i := 0; i < e.preambleBits/PREAMBLE_BITS; i++ {
		if err := stream.AppendBuffer(preambleUnit); err != nil {
			return nil, err
		}
	}
	if err := stream.AppendBuffer(sfdBuffers[e.sfd]); err != nil {
		return nil, err
	}
	if err := stream.AppendBuffer(body); err != nil {
		return nil, err
	}

	e.logger.Debug("frame encoded", "sfd", e.sfd, "phr", phr, "bits", stream.Len())
	return stream, nil
}

// fecEncode encodes PHR and PSDU, terminates the trellis with the tail and
// pad octets and interleaves the result.
func (e *Encoder) fecEncode(src *bits.Buffer, octets int) (*bits.Buffer, error) {
	padOctets := codec.PadOctets(octets)
	coded := bits.New((octets+padOctets)*16, bits.LSBFirst)

	enc := codec.NewEncoder(e.opts.Code, 0)
	if err := enc.Encode(coded, src); err != nil {
		return nil, err
	}

	pad := codec.PadBytes(e.opts.Code, octets, enc.State())
	padSrc, err := bits.FromBytes(pad, len(pad)*8, bits.LSBFirst)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(coded, padSrc); err != nil {
		return nil, err
	}

	return codec.Interleave(coded)
}

// Encode builds a frame for psdu in one call.
func Encode(psdu []byte, preambleBits int, sfd SFDType, opts Options) (*bits.Buffer, error) {
	e, err := NewEncoder(preambleBits, sfd, opts)
	if err != nil {
		return nil, err
	}
	return e.Encode(psdu)
}
