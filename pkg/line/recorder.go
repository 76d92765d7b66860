package line

import (
	"time"

	"github.com/robotalks/bbtx/pkg/bbtx"
)

// Recorder records every bit written to it.
type Recorder struct {
	// Limit is the maximum number of recorded bits, 0 for unlimited.
	// Writes beyond the limit are dropped.
	Limit int

	bits []bbtx.Bit
}

// WriteBit implements bbtx.Writer.
func (r *Recorder) WriteBit(b bbtx.Bit) {
	if r.Limit > 0 && len(r.bits) >= r.Limit {
		return
	}
	r.bits = append(r.bits, b)
}

// Bits returns the recorded bits.
func (r *Recorder) Bits() []bbtx.Bit {
	return r.bits
}

// Len returns the number of recorded bits.
func (r *Recorder) Len() int {
	return len(r.bits)
}

// Reset discards recorded bits.
func (r *Recorder) Reset() {
	r.bits = r.bits[:0]
}

// Decoder creates a Decoder over the recorded bits.
func (r *Recorder) Decoder(writesPerBit uint32) *Decoder {
	return NewDecoder(r.bits, writesPerBit)
}

type tee []bbtx.Writer

func (t tee) WriteBit(b bbtx.Bit) {
	for _, w := range t {
		w.WriteBit(b)
	}
}

// Tee creates a Writer duplicating every write to all ws, in order.
// nil writers are skipped.
func Tee(ws ...bbtx.Writer) bbtx.Writer {
	t := make(tee, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			t = append(t, w)
		}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}

// Paced spins for Duration after every write to Writer, so a fast writer
// gets a fixed and measurable write duration.
type Paced struct {
	Writer   bbtx.Writer
	Duration time.Duration
}

// WriteBit implements bbtx.Writer.
func (p *Paced) WriteBit(b bbtx.Bit) {
	start := time.Now()
	p.Writer.WriteBit(b)
	for time.Since(start) < p.Duration {
	}
}
