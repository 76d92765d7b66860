package bbtx

// Bit is the logic level on the serial line.
type Bit uint8

// Line levels.
const (
	// Space is the logic level for binary 0.
	Space Bit = 0
	// Mark is the logic level for binary 1.
	Mark Bit = 1

	// Idle is the level of an idle line.
	Idle = Mark
	// Start is the level of the start bit.
	Start = Space
	// Stop is the level of the stop bit.
	Stop = Mark
)

// String implements fmt.Stringer.
func (b Bit) String() string {
	if b == Space {
		return "SPACE"
	}
	return "MARK"
}

// Framing constants.
const (
	StartBits     = 1
	StopBits      = 1
	BitsPerByte   = 8
	OverheadBits  = StartBits + StopBits
	BitsPerSymbol = BitsPerByte + OverheadBits
)

// Calibration pattern.
const (
	CalibrationPreambleWrites  = 1000
	CalibrationPostambleWrites = 1000
	CalibrationWritesPerBit    = 10
	CalibrationBytes           = 10
	// CalibrationByte is alternating ones and zeroes.
	CalibrationByte byte = 0x55
)

// Writer sets the level of the output line.
// Each call is expected to take about the same amount of time.
type Writer interface {
	WriteBit(Bit)
}

// WriterFunc is func form of Writer.
type WriterFunc func(Bit)

// WriteBit implements Writer.
func (f WriterFunc) WriteBit(b Bit) {
	f(b)
}
