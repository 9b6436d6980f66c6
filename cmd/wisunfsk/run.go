package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/wisunfsk/internal/bits"
	"github.com/dbehnke/wisunfsk/internal/codec"
	"github.com/dbehnke/wisunfsk/internal/database"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
	"github.com/lestrrat-go/strftime"
)

func parseBits(input string) (*bits.Buffer, error) {
	b, err := bits.ParseString(input, bits.LSBFirst)
	if err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("%w: empty bit string", bits.ErrMalformed)
	}
	return b, nil
}

// emit prints a bit buffer in the selected output format
func (a *app) emit(b *bits.Buffer) {
	if a.hexo {
		fmt.Fprintln(a.stdout, hex.EncodeToString(b.Bytes()))
		return
	}
	fmt.Fprintln(a.stdout, b.Format(a.group))
}

func (a *app) runPN9(input string) error {
	b, err := parseBits(input)
	if err != nil {
		return err
	}
	n := b.Len()
	codec.Whiten(b.Bytes())
	if !a.hexo {
		b.Truncate(n)
	}
	a.emit(b)
	return nil
}

func (a *app) runFEC(code codec.Code, input string) error {
	src, err := parseBits(input)
	if err != nil {
		return err
	}

	if a.decode {
		res, err := codec.Decode(code, 0, src)
		if err != nil {
			return err
		}
		a.logger.Info("viterbi", "code", code, "distance", res.Distance, "state", res.State)
		a.emit(res.Bits)
		return nil
	}

	out, state, err := codec.Encode(code, 0, src)
	if err != nil {
		return err
	}
	a.logger.Debug("encoded", "code", code, "bits", out.Len(), "state", state, "tail", codec.TailBits(code, state))
	a.emit(out)
	return nil
}

func (a *app) runInterleaving(input string) error {
	src, err := parseBits(input)
	if err != nil {
		return err
	}
	permute := codec.Interleave
	if a.decode {
		permute = codec.Deinterleave
	}
	out, err := permute(src)
	if err != nil {
		return err
	}
	a.emit(out)
	return nil
}

func (a *app) runEncodeFrame(input string) error {
	psdu, err := hex.DecodeString(strings.TrimPrefix(input, "0x"))
	if err != nil {
		return fmt.Errorf("PSDU must be hex: %w", err)
	}

	enc, err := wisun.NewEncoder(a.preamble, a.sfd, a.opts)
	if err != nil {
		return err
	}
	enc.SetLogger(a.logger)

	stream, err := enc.Encode(psdu)
	if err != nil {
		return err
	}
	a.emit(stream)

	rec := database.NewTXRecord(psdu, a.preamble, a.sfd, a.opts)
	a.logger.Info("frame encoded", "frame", rec.String())
	return a.record([]database.FrameRecord{rec})
}

func (a *app) runDecodeFrame(input string) error {
	stream, err := parseBits(input)
	if err != nil {
		return err
	}

	dec := wisun.NewDetectingDecoder()
	if a.fecSet {
		dec = wisun.NewDecoder(a.fec)
	}
	dec.SetSkipVerify(a.skipVerify)
	dec.SetMaxDistance(a.maxDist)
	dec.SetLogger(a.logger)

	if a.all {
		frames := dec.DecodeAll(stream)
		if len(frames) == 0 {
			return wisun.ErrSHRNotFound
		}
		records := make([]database.FrameRecord, 0, len(frames))
		for _, f := range frames {
			if err := a.printFrame(f); err != nil {
				return err
			}
			records = append(records, database.NewRXRecord(f, nil))
		}
		a.logger.Info("frames decoded", "count", len(frames))
		return a.record(records)
	}

	f, decodeErr := dec.Decode(stream)
	if f == nil {
		return decodeErr
	}
	if err := a.printFrame(f); err != nil {
		return err
	}
	if err := a.record([]database.FrameRecord{database.NewRXRecord(f, decodeErr)}); err != nil {
		return err
	}
	return decodeErr
}

// printFrame prints the recovered frame as it would appear on air uncoded
// and unwhitened.
func (a *app) printFrame(f *wisun.Frame) error {
	prefix := ""
	if a.timestamp != "" {
		ts, err := strftime.Format(a.timestamp, time.Now())
		if err != nil {
			a.logger.Warn("bad timestamp format", "format", a.timestamp, "err", err)
		} else {
			prefix = ts + " "
		}
	}

	payload := append(append([]byte{}, f.PSDU...), f.FCS...)
	phr := f.PHR.Bytes()
	sfd := f.SFD.Pattern()

	if a.hexo {
		fmt.Fprintf(a.stdout, "%s%s-%s-%s-%s\n", prefix,
			strings.Repeat(hex.EncodeToString([]byte{wisun.PREAMBLE_OCTET}), f.PreambleBits/wisun.PREAMBLE_BITS),
			hex.EncodeToString(sfd.Bytes()),
			hex.EncodeToString(phr),
			hex.EncodeToString(payload))
	} else {
		data := bytes.Repeat([]byte{wisun.PREAMBLE_OCTET}, f.PreambleBits/wisun.PREAMBLE_BITS)
		data = append(data, sfd.Bytes()...)
		data = append(data, phr...)
		data = append(data, payload...)
		out, err := bits.FromBytes(data, len(data)*8, bits.LSBFirst)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s%s\n", prefix, out.Format(a.group))
	}

	a.logger.Debug("frame", "offset", f.Offset, "sfd", f.SFD, "fec", f.Code, "phr", f.PHR, "distance", f.Distance, "fcs_good", f.FCSGood)
	return nil
}

// record stores frames in the capture database when one is configured.
func (a *app) record(records []database.FrameRecord) error {
	if a.capture == "" || len(records) == 0 {
		return nil
	}
	db, err := database.NewDB(database.Config{Path: a.capture, Debug: a.cfg.GetCaptureDebug()}, a.logger)
	if err != nil {
		return fmt.Errorf("open capture database: %w", err)
	}
	defer db.Close()

	if err := db.Frames().InsertBatch(records); err != nil {
		return fmt.Errorf("capture frames: %w", err)
	}
	a.logger.Debug("frames captured", "count", len(records), "path", a.capture)
	return nil
}

func (a *app) printCaptureStats() error {
	if a.capture == "" {
		return errors.New("no capture database configured")
	}
	db, err := database.NewDB(database.Config{Path: a.capture, Debug: a.cfg.GetCaptureDebug()}, a.logger)
	if err != nil {
		return fmt.Errorf("open capture database: %w", err)
	}
	defer db.Close()

	repo := db.Frames()
	stats, err := repo.GetStatistics()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "total frames: %d\n", stats["total_frames"])
	fmt.Fprintf(a.stdout, "bad FCS:      %d\n", stats["bad_fcs"])
	if last, ok := stats["last_captured"].(time.Time); ok {
		fmt.Fprintf(a.stdout, "last:         %s\n", last.Format(time.RFC3339))
	}

	recent, err := repo.Recent(10)
	if err != nil {
		return err
	}
	for _, r := range recent {
		fmt.Fprintln(a.stdout, r.String())
	}
	return nil
}
