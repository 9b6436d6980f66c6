package bits

import (
	"errors"
	"fmt"
)

// Order selects how a bit index maps onto a byte and bit offset.
type Order int

const (
	// LSBFirst stores bit i at byte i/8, bit i%8 (bit 0 = least significant).
	// This is the over-the-air order of the 802.15.4 PHY.
	LSBFirst Order = iota
	// MSBFirst stores bit i at byte i/8, bit 7-i%8.
	MSBFirst
)

func (o Order) String() string {
	switch o {
	case LSBFirst:
		return "lsb-first"
	case MSBFirst:
		return "msb-first"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

var (
	// ErrCapacity is returned when a write would go past the buffer capacity.
	ErrCapacity = errors.New("bit buffer capacity exceeded")
	// ErrOutOfRange is returned for a bit index outside the addressed bytes.
	ErrOutOfRange = errors.New("bit index out of range")
	// ErrMalformed is returned for text input that is not a bit string.
	ErrMalformed = errors.New("malformed bit string")
)

func mask(i int, order Order) byte {
	if order == MSBFirst {
		return 0x80 >> uint(i&7)
	}
	return 1 << uint(i&7)
}

// ReadBit reads bit i of buf in the given order.
func ReadBit(buf []byte, i int, order Order) (uint8, error) {
	if i < 0 || i>>3 >= len(buf) {
		return 0, fmt.Errorf("read bit %d of %d: %w", i, len(buf)*8, ErrOutOfRange)
	}
	if buf[i>>3]&mask(i, order) != 0 {
		return 1, nil
	}
	return 0, nil
}

// WriteBit writes v (0 or non-zero) to bit i of buf in the given order.
func WriteBit(buf []byte, i int, v uint8, order Order) error {
	if i < 0 || i>>3 >= len(buf) {
		return fmt.Errorf("write bit %d of %d: %w", i, len(buf)*8, ErrOutOfRange)
	}
	if v != 0 {
		buf[i>>3] |= mask(i, order)
	} else {
		buf[i>>3] &^= mask(i, order)
	}
	return nil
}

// Buffer is a bounded sequence of bits backed by bytes.
//
// A Buffer has a fixed capacity chosen at construction. Bit and SetBit panic
// on an index outside [0, Len()), the same way a slice index does; Append
// reports ErrCapacity once the capacity is used up.
type Buffer struct {
	data  []byte
	n     int
	order Order
}

// New returns an empty buffer able to hold capBits bits.
func New(capBits int, order Order) *Buffer {
	if capBits < 0 {
		capBits = 0
	}
	return &Buffer{
		data:  make([]byte, (capBits+7)/8),
		order: order,
	}
}

// FromBytes wraps a copy of the first nbits bits of data.
func FromBytes(data []byte, nbits int, order Order) (*Buffer, error) {
	if nbits < 0 || nbits > len(data)*8 {
		return nil, fmt.Errorf("%d bits from %d bytes: %w", nbits, len(data), ErrOutOfRange)
	}
	b := &Buffer{
		data:  make([]byte, (nbits+7)/8),
		n:     nbits,
		order: order,
	}
	copy(b.data, data)
	b.clearTail()
	return b, nil
}

// clearTail zeroes the unused bits of the final partial byte.
func (b *Buffer) clearTail() {
	if b.n%8 == 0 || b.n/8 >= len(b.data) {
		return
	}
	last := &b.data[b.n/8]
	for i := b.n; i < (b.n/8+1)*8; i++ {
		*last &^= mask(i, b.order)
	}
}

// Len returns the number of bits held.
func (b *Buffer) Len() int { return b.n }

// Cap returns the capacity in bits.
func (b *Buffer) Cap() int { return len(b.data) * 8 }

// ByteLen returns ceil(Len()/8).
func (b *Buffer) ByteLen() int { return (b.n + 7) / 8 }

// Order returns the bit order of the buffer.
func (b *Buffer) Order() Order { return b.order }

// Bytes returns the ByteLen() bytes backing the buffer. The slice aliases
// the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.ByteLen()] }

func (b *Buffer) check(i int) {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bits: index %d out of range [0:%d]", i, b.n))
	}
}

// Bit returns bit i.
func (b *Buffer) Bit(i int) uint8 {
	b.check(i)
	if b.data[i>>3]&mask(i, b.order) != 0 {
		return 1
	}
	return 0
}

// SetBit sets bit i to v (0 or non-zero).
func (b *Buffer) SetBit(i int, v uint8) {
	b.check(i)
	if v != 0 {
		b.data[i>>3] |= mask(i, b.order)
	} else {
		b.data[i>>3] &^= mask(i, b.order)
	}
}

// Append adds one bit at the end.
func (b *Buffer) Append(v uint8) error {
	if b.n >= b.Cap() {
		return fmt.Errorf("append bit %d: %w", b.n, ErrCapacity)
	}
	b.n++
	b.SetBit(b.n-1, v)
	return nil
}

// AppendBuffer appends every bit of src, in index order. src may be b.
func (b *Buffer) AppendBuffer(src *Buffer) error {
	n := src.n
	if b.n+n > b.Cap() {
		return fmt.Errorf("append %d bits to %d/%d: %w", n, b.n, b.Cap(), ErrCapacity)
	}
	for i := 0; i < n; i++ {
		b.n++
		b.SetBit(b.n-1, src.Bit(i))
	}
	return nil
}

// AppendBytes appends the first nbits bits of data, read in the buffer's
// own order.
func (b *Buffer) AppendBytes(data []byte, nbits int) error {
	src, err := FromBytes(data, nbits, b.order)
	if err != nil {
		return err
	}
	return b.AppendBuffer(src)
}

// Slice copies bits [from, to) into a new buffer of the given order.
func (b *Buffer) Slice(from, to int, order Order) (*Buffer, error) {
	if from < 0 || to < from || to > b.n {
		return nil, fmt.Errorf("slice [%d:%d] of %d bits: %w", from, to, b.n, ErrOutOfRange)
	}
	out := New(to-from, order)
	out.n = to - from
	for i := from; i < to; i++ {
		out.SetBit(i-from, b.Bit(i))
	}
	return out, nil
}

// Truncate shortens the buffer to n bits.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("bits: truncate to %d of %d", n, b.n))
	}
	b.n = n
	b.clearTail()
	for i := b.ByteLen(); i < len(b.data); i++ {
		b.data[i] = 0
	}
}

// Equal reports whether both buffers hold the same bit sequence,
// regardless of their storage order.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.n != o.n {
		return false
	}
	for i := 0; i < b.n; i++ {
		if b.Bit(i) != o.Bit(i) {
			return false
		}
	}
	return true
}
