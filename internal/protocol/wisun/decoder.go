package wisun

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dbehnke/wisunfsk/internal/bits"
	"github.com/dbehnke/wisunfsk/internal/codec"
)

// Frame is a received SUN FSK frame.
type Frame struct {
	SHR
	Code     codec.Code // FEC family, meaningful for coded SFDs only
	PHR      PHR
	PSDU     []byte // payload without the FCS
	FCS      []byte
	FCSGood  bool
	Distance int // summed Viterbi path distance of PHR and PSDU
	End      int // bit index just past the frame
}

// Coded reports whether the frame was FEC protected.
func (f *Frame) Coded() bool {
	return f.SFD.Coded()
}

// Decoder runs the receive state machine over a bit stream.
type Decoder struct {
	code        codec.Code
	detect      bool
	skipVerify  bool
	maxDistance int
	logger      *log.Logger
	state       State
}

// NewDecoder creates a decoder that decodes every coded frame with code.
func NewDecoder(code codec.Code) *Decoder {
	return &Decoder{
		code:        code,
		maxDistance: -1,
		logger:      log.New(io.Discard),
	}
}

// NewDetectingDecoder creates a decoder that works out the FEC family of
// each coded frame by decoding its PHR with both codes.
func NewDetectingDecoder() *Decoder {
	d := NewDecoder(codec.NRNSC)
	d.detect = true
	return d
}

// SetSkipVerify disables FCS verification.
func (d *Decoder) SetSkipVerify(skip bool) { d.skipVerify = skip }

// SetMaxDistance bounds the Viterbi path distance accepted for each of the
// PHR and PSDU sections. Negative means unlimited.
func (d *Decoder) SetMaxDistance(n int) { d.maxDistance = n }

// SetLogger sets the logger used for state machine traces.
func (d *Decoder) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	d.logger = logger
}

// State returns the state reached by the last Decode call.
func (d *Decoder) State() State { return d.state }

func (d *Decoder) enter(s State, keyvals ...interface{}) {
	d.state = s
	d.logger.Debug(s.String(), keyvals...)
}

func (d *Decoder) fail(err error) error {
	d.enter(StateFailed, "err", err)
	return err
}

// fecDecode de-interleaves and Viterbi decodes n coded bits at pos.
func (d *Decoder) fecDecode(stream *bits.Buffer, code codec.Code, pos, n int, state uint8) ([]byte, uint8, int, error) {
	section, err := stream.Slice(pos, pos+n, bits.LSBFirst)
	if err != nil {
		return nil, 0, 0, err
	}
	section, err = codec.Deinterleave(section)
	if err != nil {
		return nil, 0, 0, err
	}

	v := codec.NewViterbi(code)
	v.SetMaxDistance(d.maxDistance)
	out := bits.New(n/2, bits.LSBFirst)
	end, dist, err := v.DecodeBuffer(state, section, out)
	if err != nil {
		return nil, 0, 0, err
	}
	return out.Bytes(), end, dist, nil
}

func codedPSDUBits(length int) int {
	return (length + codec.PadOctets(PHR_OCTETS+length)) * 16
}

// codedPHR is one candidate decoding of a coded PHR.
type codedPHR struct {
	phr      PHR
	code     codec.Code
	state    uint8
	distance int
	fits     bool // the announced PSDU fits in the stream
}

func (c *codedPHR) better(o *codedPHR) bool {
	if c.fits != o.fits {
		return c.fits
	}
	return c.distance < o.distance
}

// decodeCodedPHR decodes the coded PHR at pos. When detecting, both code
// families are tried and the one whose length fits the stream with the
// lower distance wins; NRNSC wins a tie.
func (d *Decoder) decodeCodedPHR(stream *bits.Buffer, pos int) (*codedPHR, error) {
	codes := []codec.Code{d.code}
	if d.detect {
		codes = []codec.Code{codec.NRNSC, codec.RSC}
	}

	var best *codedPHR
	var firstErr error
	for _, code := range codes {
		hdr, end, dist, err := d.fecDecode(stream, code, pos, CODED_PHR_BITS, 0)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c := &codedPHR{
			phr:      ParsePHR(uint16(hdr[0]) | uint16(hdr[1])<<8),
			code:     code,
			state:    end,
			distance: dist,
		}
		c.fits = pos+CODED_PHR_BITS+codedPSDUBits(c.phr.Length) <= stream.Len()
		d.logger.Debug("coded PHR", "code", code, "phr", c.phr, "distance", dist, "fits", c.fits)
		if best == nil || c.better(best) {
			best = c
		}
	}
	if best == nil {
		return nil, firstErr
	}
	return best, nil
}

// Decode finds and decodes the first frame in stream.
func (d *Decoder) Decode(stream *bits.Buffer) (*Frame, error) {
	return d.DecodeFrom(stream, 0)
}

// DecodeFrom finds and decodes the first frame starting at or after bit from.
//
// When the FCS does not verify, or the PHR announces FCS-16, the frame is
// returned together with ErrFCSMismatch or ErrUnsupportedFCS.
func (d *Decoder) DecodeFrom(stream *bits.Buffer, from int) (*Frame, error) {
	d.enter(StateSearching, "from", from, "bits", stream.Len())

	shr, err := FindSHR(stream, from)
	if err != nil {
		return nil, d.fail(err)
	}
	d.enter(StatePreambleFound, "offset", shr.Offset, "preamble", shr.PreambleBits)
	d.enter(StateSfdMatched, "sfd", shr.SFD)

	f := &Frame{SHR: shr, Code: d.code}
	pos := shr.PHRStart()

	// PHR
	var raw uint16
	var state uint8
	if shr.SFD.Coded() {
		if pos+CODED_PHR_BITS > stream.Len() {
			return nil, d.fail(fmt.Errorf("%w: coded PHR needs %d bits at %d of %d", ErrTruncated, CODED_PHR_BITS, pos, stream.Len()))
		}
		c, err := d.decodeCodedPHR(stream, pos)
		if err != nil {
			return nil, d.fail(fmt.Errorf("PHR: %w", err))
		}
		raw = c.phr.Raw()
		state = c.state
		f.Code = c.code
		f.Distance += c.distance
		pos += CODED_PHR_BITS
	} else {
		if pos+PHR_BITS > stream.Len() {
			return nil, d.fail(fmt.Errorf("%w: PHR needs %d bits at %d of %d", ErrTruncated, PHR_BITS, pos, stream.Len()))
		}
		hdr, _ := stream.Slice(pos, pos+PHR_BITS, bits.LSBFirst)
		raw = uint16(hdr.Bytes()[0]) | uint16(hdr.Bytes()[1])<<8
		pos += PHR_BITS
	}
	f.PHR = ParsePHR(raw)
	d.enter(StateHeaderRecovered, "phr", f.PHR, "fec", f.Code, "distance", f.Distance)

	if f.PHR.FCS16 {
		f.End = pos
		return f, d.fail(ErrUnsupportedFCS)
	}

	// PSDU
	length := f.PHR.Length
	var psdu []byte
	if shr.SFD.Coded() {
		n := codedPSDUBits(length)
		if pos+n > stream.Len() {
			return nil, d.fail(fmt.Errorf("%w: coded PSDU needs %d bits at %d of %d", ErrTruncated, n, pos, stream.Len()))
		}
		out, _, dist, err := d.fecDecode(stream, f.Code, pos, n, state)
		if err != nil {
			return nil, d.fail(fmt.Errorf("PSDU: %w", err))
		}
		psdu = out[:length]
		f.Distance += dist
		pos += n
	} else {
		n := length * 8
		if pos+n > stream.Len() {
			return nil, d.fail(fmt.Errorf("%w: PSDU needs %d bits at %d of %d", ErrTruncated, n, pos, stream.Len()))
		}
		section, _ := stream.Slice(pos, pos+n, bits.LSBFirst)
		psdu = section.Bytes()
		pos += n
	}
	f.End = pos

	if f.PHR.Whitening {
		codec.Whiten(psdu)
	}

	f.FCSGood = codec.FCS32IsGood(psdu)
	if length >= codec.FCS32_LEN {
		f.PSDU = psdu[:length-codec.FCS32_LEN]
		f.FCS = psdu[length-codec.FCS32_LEN:]
	} else {
		f.PSDU = psdu
	}
	d.enter(StatePayloadRecovered, "length", length, "distance", f.Distance, "fcs_good", f.FCSGood)

	if d.skipVerify {
		return f, nil
	}
	if !f.FCSGood {
		return f, d.fail(fmt.Errorf("%w: FCS % x", ErrFCSMismatch, f.FCS))
	}
	d.enter(StateVerified)
	return f, nil
}

// DecodeAll decodes every frame in stream. Scanning resumes after each
// decoded frame, or one bit past a frame start that failed to decode.
// Frames with a bad FCS are kept in the result.
func (d *Decoder) DecodeAll(stream *bits.Buffer) []*Frame {
	var frames []*Frame
	for from := 0; from < stream.Len(); {
		shr, err := FindSHR(stream, from)
		if errors.Is(err, ErrSHRNotFound) {
			break
		}

		f, err := d.DecodeFrom(stream, shr.Offset)
		if f == nil {
			d.logger.Debug("skipping frame", "offset", shr.Offset, "err", err)
			from = shr.Offset + 1
			continue
		}
		frames = append(frames, f)
		from = f.End
	}
	return frames
}

// Decode decodes the first frame in stream. The FEC family of a coded frame
// is detected from its PHR.
func Decode(stream *bits.Buffer, skipVerify bool) (*Frame, error) {
	d := NewDetectingDecoder()
	d.SetSkipVerify(skipVerify)
	return d.Decode(stream)
}
