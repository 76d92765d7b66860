package tap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/tap/stream"
)

type packets [][]byte

func (p *packets) WritePacket(pkt []byte) error {
	*p = append(*p, pkt)
	return nil
}

func (p packets) strings() []string {
	strs := make([]string, len(p))
	for n, pkt := range p {
		strs[n] = string(pkt)
	}
	return strs
}

func openTapped(t *testing.T, w PacketWriter, nsec uint32) (*bbtx.Channel, *Tap) {
	tp := New(w)
	var ch bbtx.Channel
	require.True(t, ch.Open(1000, tp, nsec))
	tp.Sync(&ch)
	return &ch, tp
}

func TestTapPackets(t *testing.T) {
	for _, nsec := range []uint32{1000000, 250000, 100000} {
		var pkts packets
		ch, tp := openTapped(t, &pkts, nsec)
		ch.WriteString("hello\n", 0)
		ch.WriteDecimal(-42, 4)
		ch.WriteByte('\n')
		ch.WriteUint16(0xbeef)
		require.Equal(t, []string{"hello\n", " -42\n"}, pkts.strings())
		require.NoError(t, tp.Flush())
		require.Equal(t, []string{"hello\n", " -42\n", "BEEF"}, pkts.strings())
		require.Zero(t, tp.FramingErrors())
	}
}

func TestTapMaxPacket(t *testing.T) {
	var pkts packets
	ch, tp := openTapped(t, &pkts, 1000000)
	tp.MaxPacket = 3
	ch.WriteString("abcdefg", 0)
	tp.Flush()
	require.Equal(t, []string{"abc", "def", "g"}, pkts.strings())
}

func TestTapCalibrationFramingErrors(t *testing.T) {
	var pkts packets
	ch, tp := openTapped(t, &pkts, 1000000)
	ch.Calibrate()
	require.True(t, tp.FramingErrors() > 0)

	tp.Flush()
	pkts = nil
	ch.WriteString("ok\n", 0)
	require.Equal(t, []string{"ok\n"}, pkts.strings())
}

func TestTapUnsynced(t *testing.T) {
	var pkts packets
	tp := New(&pkts)
	var ch bbtx.Channel
	require.True(t, ch.Open(1000, tp, 1000000))
	ch.WriteString("x\n", 0)
	require.Empty(t, pkts)
}

func TestTapWriteError(t *testing.T) {
	fail := errors.New("fail")
	ch, tp := openTapped(t, WritePacketFunc(func([]byte) error { return fail }), 1000000)
	ch.WriteString("a\nb", 0)
	require.Equal(t, 1, tp.WriteErrors())
	require.Equal(t, fail, tp.Flush())
	require.Equal(t, 2, tp.WriteErrors())
}

func TestTapStream(t *testing.T) {
	var buf bytes.Buffer
	rw := stream.New(&buf)
	ch, tp := openTapped(t, rw, 500000)
	ch.WriteString("line\n", 0)
	tp.Flush()
	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "line\n", string(pkt))
}

func TestTapResyncOnIdleEdge(t *testing.T) {
	var pkts packets
	ch, tp := openTapped(t, &pkts, 1000000)
	for n := 0; n < bbtx.BitsPerSymbol; n++ {
		tp.WriteBit(bbtx.Space)
	}
	require.Equal(t, 1, tp.FramingErrors())

	// a space following the broken symbol is not a start bit.
	tp.WriteBit(bbtx.Space)
	for n := 0; n < bbtx.BitsPerSymbol; n++ {
		tp.WriteBit(bbtx.Mark)
	}
	ch.WriteByte('k')
	require.NoError(t, tp.Flush())
	require.Equal(t, []string{"k"}, pkts.strings())
	require.Equal(t, 1, tp.FramingErrors())
}
