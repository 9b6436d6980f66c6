package bits

import (
	"fmt"
	"strings"
)

// ParseString converts a "0"/"1" string into a buffer, first character
// first. Group separators ('-', ':') and white space are skipped.
func ParseString(s string, order Order) (*Buffer, error) {
	b := New(len(s), order)
	for pos, r := range s {
		switch r {
		case '0', '1':
			if err := b.Append(uint8(r - '0')); err != nil {
				return nil, err
			}
		case '-', ':', ' ', '\t', '\n', '\r':
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, r, pos)
		}
	}
	return b, nil
}

// String renders the buffer as a "0"/"1" string in index order.
func (b *Buffer) String() string {
	return b.Format(0)
}

// Format renders the buffer as a "0"/"1" string, inserting '-' every group
// bits when group is positive.
func (b *Buffer) Format(group int) string {
	var sb strings.Builder
	sb.Grow(b.n + b.n/4)
	for i := 0; i < b.n; i++ {
		if group > 0 && i != 0 && i%group == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte('0' + b.Bit(i))
	}
	return sb.String()
}
