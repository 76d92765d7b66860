package bbtx

import (
	"math"
	"time"
)

const nsecPerSecond = 1000000000

// Channel is a transmit-only serial channel.
// The zero value is a closed channel.
type Channel struct {
	open         bool
	writer       Writer
	writesPerBit uint32
	baudRate     uint32
	writeNsec    uint32
}

// Open sets the writer and the timing used to generate 8N1 output at
// baudRate. writeNsec is the duration of a single call to w.
// It returns false and leaves the channel untouched if any argument is zero
// or nil. On success the line is driven idle for one bit period.
//
// The channel borrows w, it must remain usable until Close.
func (c *Channel) Open(baudRate uint32, w Writer, writeNsec uint32) bool {
	if baudRate == 0 || isNilWriter(w) || writeNsec == 0 {
		return false
	}
	nsecPerBit := nsecPerSecond / baudRate
	c.writesPerBit = nsecPerBit / writeNsec
	c.baudRate, c.writeNsec = baudRate, writeNsec
	c.writer = w
	c.open = true

	c.writeBit(Idle)
	return true
}

func isNilWriter(w Writer) bool {
	if w == nil {
		return true
	}
	if f, ok := w.(WriterFunc); ok && f == nil {
		return true
	}
	return false
}

// Close drops the writer. It's safe to call on a closed channel.
func (c *Channel) Close() {
	c.writer = nil
	c.open = false
}

// IsOpen indicates the channel is open.
func (c *Channel) IsOpen() bool {
	return c.open
}

// WritesPerBit returns the number of writes emitted for one bit.
func (c *Channel) WritesPerBit() uint32 {
	return c.writesPerBit
}

// BaudRate returns the baud rate of the last successful Open.
func (c *Channel) BaudRate() uint32 {
	return c.baudRate
}

// WriteNsec returns the write duration of the last successful Open.
func (c *Channel) WriteNsec() uint32 {
	return c.writeNsec
}

func (c *Channel) writeBit(b Bit) {
	if !c.open {
		return
	}
	for n := uint32(0); n < c.writesPerBit; n++ {
		c.writer.WriteBit(b)
	}
}

// WriteByte outputs one framed byte. It implements io.ByteWriter and
// never fails, a closed channel silently discards the byte.
func (c *Channel) WriteByte(b byte) error {
	c.writeBit(Start)
	for n := uint(0); n < BitsPerByte; n++ {
		c.writeBit(Bit((b >> n) & 1))
	}
	c.writeBit(Stop)
	return nil
}

// Write implements io.Writer.
func (c *Channel) Write(p []byte) (int, error) {
	if !c.open {
		return 0, ErrNotOpen
	}
	for _, b := range p {
		c.WriteByte(b)
	}
	return len(p), nil
}

// Calibrate outputs the calibration pattern: a preamble of
// CalibrationPreambleWrites idle writes, CalibrationBytes symbols of
// CalibrationByte at CalibrationWritesPerBit, and a postamble of
// CalibrationPostambleWrites idle writes.
//
// Measure the width of the alternating region on a logic analyzer and pass
// it to EstimateWriteNsec. The result may need adjusting by a few percent to
// avoid framing errors on the receiver.
func (c *Channel) Calibrate() {
	if !c.open {
		return
	}
	saved := c.writesPerBit
	c.writesPerBit = CalibrationWritesPerBit
	defer func() { c.writesPerBit = saved }()

	for n := 0; n < CalibrationPreambleWrites; n++ {
		c.writer.WriteBit(Idle)
	}
	for n := 0; n < CalibrationBytes; n++ {
		c.WriteByte(CalibrationByte)
	}
	for n := 0; n < CalibrationPostambleWrites; n++ {
		c.writer.WriteBit(Idle)
	}
}

// CalibrationPatternWrites is the number of writes in the alternating region
// of the calibration pattern.
const CalibrationPatternWrites = CalibrationBytes * BitsPerSymbol * CalibrationWritesPerBit

// EstimateWriteNsec converts the measured width of the alternating region of
// the calibration pattern into the duration of a single write, suitable for
// Open. It returns 0 if the width is shorter than one nanosecond per write.
func EstimateWriteNsec(patternWidth time.Duration) uint32 {
	if patternWidth <= 0 {
		return 0
	}
	nsec := patternWidth.Nanoseconds() / CalibrationPatternWrites
	if nsec > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(nsec)
}
