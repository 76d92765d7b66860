package line

import (
	"errors"
	"fmt"

	"github.com/robotalks/bbtx/pkg/bbtx"
)

var (
	// ErrShortSymbol indicates not enough writes for a full symbol.
	ErrShortSymbol = errors.New("short symbol")
	// ErrZeroWidth indicates the bit width is zero.
	ErrZeroWidth = errors.New("zero writes per bit")
)

// FramingError indicates a bad start or stop bit.
type FramingError struct {
	// Slot is the bit slot in the symbol, 0 for start.
	Slot int
	Bit  bbtx.Bit
}

// Error implements error.
func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error: bit %d is %s", e.Slot, e.Bit)
}

// SymbolWrites returns the number of writes of a symbol.
func SymbolWrites(writesPerBit uint32) int {
	return bbtx.BitsPerSymbol * int(writesPerBit)
}

// DecodeSymbol decodes a byte from a symbol of writes, sampling each bit slot
// in the middle.
func DecodeSymbol(samples []bbtx.Bit, writesPerBit uint32) (byte, error) {
	if writesPerBit == 0 {
		return 0, ErrZeroWidth
	}
	if len(samples) < SymbolWrites(writesPerBit) {
		return 0, ErrShortSymbol
	}
	wpb, mid := int(writesPerBit), int(writesPerBit/2)
	sample := func(slot int) bbtx.Bit {
		return samples[slot*wpb+mid]
	}
	if b := sample(0); b != bbtx.Start {
		return 0, &FramingError{Slot: 0, Bit: b}
	}
	stopSlot := bbtx.BitsPerSymbol - 1
	if b := sample(stopSlot); b != bbtx.Stop {
		return 0, &FramingError{Slot: stopSlot, Bit: b}
	}
	var value byte
	for n := 0; n < bbtx.BitsPerByte; n++ {
		value |= byte(sample(bbtx.StartBits+n)&1) << uint(n)
	}
	return value, nil
}

// Decoder reads bytes back from recorded writes.
type Decoder struct {
	bits         []bbtx.Bit
	pos          int
	writesPerBit uint32
}

// NewDecoder creates a Decoder.
func NewDecoder(bits []bbtx.Bit, writesPerBit uint32) *Decoder {
	return &Decoder{bits: bits, writesPerBit: writesPerBit}
}

// Remaining returns the number of unread writes.
func (d *Decoder) Remaining() int {
	return len(d.bits) - d.pos
}

// ReadBitRun consumes consecutive writes of level and returns the count.
func (d *Decoder) ReadBitRun(level bbtx.Bit) int {
	n := 0
	for d.pos < len(d.bits) && d.bits[d.pos] == level {
		d.pos++
		n++
	}
	return n
}

// ReadByte decodes the symbol at the current position.
// The position only advances on success.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := DecodeSymbol(d.bits[d.pos:], d.writesPerBit)
	if err != nil {
		return 0, err
	}
	d.pos += SymbolWrites(d.writesPerBit)
	return b, nil
}

// ReadByteRun consumes consecutive symbols decoding to value and returns
// the count.
func (d *Decoder) ReadByteRun(value byte) int {
	n := 0
	for {
		pos := d.pos
		b, err := d.ReadByte()
		if err != nil {
			return n
		}
		if b != value {
			d.pos = pos
			return n
		}
		n++
	}
}

// ReadString decodes n consecutive symbols.
func (d *Decoder) ReadString(n int) (string, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		b, err := d.ReadByte()
		if err != nil {
			return string(buf), err
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// ReadAll decodes all remaining symbols, skipping idle writes between them.
func (d *Decoder) ReadAll() ([]byte, error) {
	var buf []byte
	for {
		d.ReadBitRun(bbtx.Idle)
		if d.Remaining() == 0 {
			return buf, nil
		}
		b, err := d.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
	}
}
