package database

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dbehnke/wisunfsk/internal/codec"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
)

const (
	DirectionRX = "rx"
	DirectionTX = "tx"
)

// FrameRecord is one decoded or encoded frame
type FrameRecord struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	Direction    string    `gorm:"size:2;index" json:"direction"`
	SFD          string    `gorm:"size:10;index" json:"sfd"`
	FEC          string    `gorm:"size:8" json:"fec,omitempty"`
	Offset       int       `json:"offset"`
	PreambleBits int       `json:"preamble_bits"`
	PHR          uint16    `json:"phr"`
	ModeSwitch   bool      `json:"mode_switch"`
	Whitening    bool      `json:"whitening"`
	FCS16        bool      `json:"fcs16"`
	Length       int       `json:"length"`
	PSDU         string    `gorm:"size:4094" json:"psdu"`
	FCS          string    `gorm:"size:8" json:"fcs"`
	FCSGood      bool      `gorm:"index" json:"fcs_good"`
	Distance     int       `json:"distance"`
	Error        string    `gorm:"column:error_text;size:255" json:"error,omitempty"`
}

// TableName specifies the table name for GORM
func (FrameRecord) TableName() string {
	return "frames"
}

// NewRXRecord builds a record from a decode result. err is the error
// returned with the frame, if any.
func NewRXRecord(f *wisun.Frame, err error) FrameRecord {
	r := FrameRecord{
		Direction:    DirectionRX,
		SFD:          f.SFD.String(),
		Offset:       f.Offset,
		PreambleBits: f.PreambleBits,
		PHR:          f.PHR.Raw(),
		ModeSwitch:   f.PHR.ModeSwitch,
		Whitening:    f.PHR.Whitening,
		FCS16:        f.PHR.FCS16,
		Length:       f.PHR.Length,
		PSDU:         hex.EncodeToString(f.PSDU),
		FCS:          hex.EncodeToString(f.FCS),
		FCSGood:      f.FCSGood,
		Distance:     f.Distance,
	}
	if f.Coded() {
		r.FEC = f.Code.String()
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// NewTXRecord builds a record for a frame built by the encoder.
func NewTXRecord(psdu []byte, preambleBits int, sfd wisun.SFDType, opts wisun.Options) FrameRecord {
	phr := wisun.PHR{ModeSwitch: opts.ModeSwitch, Whitening: opts.Whitening, Length: len(psdu) + codec.FCS32_LEN}
	r := FrameRecord{
		Direction:    DirectionTX,
		SFD:          sfd.String(),
		PreambleBits: preambleBits,
		PHR:          phr.Raw(),
		ModeSwitch:   phr.ModeSwitch,
		Whitening:    phr.Whitening,
		Length:       phr.Length,
		PSDU:         hex.EncodeToString(psdu),
		FCS:          hex.EncodeToString(codec.FCS32Trailer(psdu)),
		FCSGood:      true,
	}
	if sfd.Coded() {
		r.FEC = opts.Code.String()
	}
	return r
}

// IsValid checks if the record has required fields
func (r FrameRecord) IsValid() bool {
	return (r.Direction == DirectionRX || r.Direction == DirectionTX) && r.SFD != ""
}

// String returns a formatted string representation
func (r FrameRecord) String() string {
	result := fmt.Sprintf("%s %s phr=%04x len=%d psdu=%s", r.Direction, r.SFD, r.PHR, r.Length, r.PSDU)

	if r.FEC != "" {
		result += fmt.Sprintf(" fec=%s/%d", r.FEC, r.Distance)
	}

	if !r.FCSGood {
		result += " BAD-FCS"
	}

	if r.Error != "" {
		result += fmt.Sprintf(" (%s)", r.Error)
	}

	return result
}
