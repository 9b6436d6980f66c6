package wisun

import "errors"

var (
	ErrSHRNotFound    = errors.New("SHR not found")
	ErrTruncated      = errors.New("frame truncated")
	ErrInvalidOption  = errors.New("invalid frame option")
	ErrFrameTooLong   = errors.New("frame too long")
	ErrFCSMismatch    = errors.New("FCS mismatch")
	ErrUnsupportedFCS = errors.New("FCS-16 not supported")
)
