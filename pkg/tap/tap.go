// Package tap decodes the bits written to a channel and forwards the
// transmitted bytes as packets, e.g. to a monitor over MQTT.
package tap

import (
	"github.com/golang/glog"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/line"
)

// DefaultMaxPacket is the default packet size limit.
const DefaultMaxPacket = 256

// Tap implements bbtx.Writer. It decodes symbols as they are written and
// forwards the bytes to Writer in packets terminated by Delim or limited by
// MaxPacket.
type Tap struct {
	Writer    PacketWriter
	Delim     byte
	MaxPacket int

	writesPerBit  uint32
	symbol        []bbtx.Bit
	inSymbol      bool
	idle          bool
	packet        []byte
	framingErrors int
	writeErrors   int
}

// New creates a Tap sending to w with newline delimited packets.
func New(w PacketWriter) *Tap {
	return &Tap{Writer: w, Delim: '\n', MaxPacket: DefaultMaxPacket}
}

// Sync adopts the bit width of an open channel. Call it after Open
// and before writing to the channel.
func (t *Tap) Sync(ch *bbtx.Channel) {
	t.SetWritesPerBit(ch.WritesPerBit())
}

// SetWritesPerBit sets the bit width and discards a partial symbol.
func (t *Tap) SetWritesPerBit(n uint32) {
	t.writesPerBit = n
	t.symbol = t.symbol[:0]
	t.inSymbol = false
}

// FramingErrors returns the number of symbols failed to decode.
func (t *Tap) FramingErrors() int {
	return t.framingErrors
}

// WriteErrors returns the number of packets failed to be written.
func (t *Tap) WriteErrors() int {
	return t.writeErrors
}

// WriteBit implements bbtx.Writer.
// A symbol starts only on an idle to start edge, so after a framing error
// the decoder waits for the line to return idle.
func (t *Tap) WriteBit(b bbtx.Bit) {
	wasIdle := t.idle
	t.idle = b == bbtx.Idle
	if t.writesPerBit == 0 {
		return
	}
	if !t.inSymbol {
		if b != bbtx.Start || !wasIdle {
			return
		}
		t.inSymbol = true
	}
	t.symbol = append(t.symbol, b)
	if len(t.symbol) < line.SymbolWrites(t.writesPerBit) {
		return
	}
	val, err := line.DecodeSymbol(t.symbol, t.writesPerBit)
	t.symbol, t.inSymbol = t.symbol[:0], false
	if err != nil {
		t.framingErrors++
		glog.Warningf("tap: %v", err)
		return
	}
	t.packet = append(t.packet, val)
	maxPacket := t.MaxPacket
	if maxPacket <= 0 {
		maxPacket = DefaultMaxPacket
	}
	if val == t.Delim || len(t.packet) >= maxPacket {
		t.Flush()
	}
}

// Flush sends the pending bytes, if any.
func (t *Tap) Flush() error {
	if len(t.packet) == 0 {
		return nil
	}
	pkt := make([]byte, len(t.packet))
	copy(pkt, t.packet)
	t.packet = t.packet[:0]
	if err := t.Writer.WritePacket(pkt); err != nil {
		t.writeErrors++
		glog.Errorf("tap: write packet error: %v", err)
		return err
	}
	return nil
}
