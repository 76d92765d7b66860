package env

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/line"
	"github.com/robotalks/bbtx/pkg/tap/stream"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		conf  Config
		valid bool
	}{
		{"default", defaultConfig, true},
		{"zero baud", Config{BaudRate: 0, WriteNsec: 1}, false},
		{"zero nsec", Config{BaudRate: 9600, WriteNsec: 0}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.valid {
				require.NoError(t, tc.conf.Validate())
			} else {
				require.Error(t, tc.conf.Validate())
			}
		})
	}
}

func TestLoopback(t *testing.T) {
	conf := &Config{BaudRate: 1000, WriteNsec: 250000}
	out, err := conf.NewOutput()
	require.NoError(t, err)
	require.NotNil(t, out.Recorder)
	require.Nil(t, out.Tap)

	var ch bbtx.Channel
	require.NoError(t, out.Open(&ch))
	require.Equal(t, uint32(4), ch.WritesPerBit())
	require.Equal(t, 4, out.Discard())

	ch.WriteString("hi", 4)
	ch.WriteDecimal(-7, 3)
	data, err := out.Loopback(&ch)
	require.NoError(t, err)
	require.Equal(t, "hi   -7", string(data))
	require.Zero(t, out.Recorder.Len())
	require.NoError(t, out.Close())
}

func TestOpenWithInvalid(t *testing.T) {
	out, err := (&Config{BaudRate: 1000, WriteNsec: 1}).NewOutput()
	require.NoError(t, err)
	var ch bbtx.Channel
	require.Error(t, out.OpenWith(&ch, 0, 1))
	require.False(t, ch.IsOpen())
}

func TestFileTap(t *testing.T) {
	dir, err := ioutil.TempDir("", "bbtx")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "tap.bin")

	conf := &Config{BaudRate: 1000, WriteNsec: 500000, TapURL: "file://" + fn}
	out, err := conf.NewOutput()
	require.NoError(t, err)
	require.NotNil(t, out.Tap)

	var ch bbtx.Channel
	require.NoError(t, out.Open(&ch))
	ch.WriteString("one\ntwo", 0)
	require.NoError(t, out.Close())

	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	rw := stream.New(f)
	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "one\n", string(pkt))
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "two", string(pkt))
}

func TestUnknownTapScheme(t *testing.T) {
	_, err := (&Config{BaudRate: 1000, WriteNsec: 1, TapURL: "gopher://x"}).NewOutput()
	require.Error(t, err)
}

func TestTransmitterID(t *testing.T) {
	require.Equal(t, "dev1", (&Config{ID: "dev1"}).TransmitterID())
	require.NotEmpty(t, (&Config{}).TransmitterID())
}

func TestPacedLoopback(t *testing.T) {
	conf := &Config{BaudRate: 1000, WriteNsec: 250000, Pace: true}
	out, err := conf.NewOutput()
	require.NoError(t, err)
	require.NotNil(t, out.Paced)
	require.Equal(t, out.Paced, out.Writer.(*line.Paced))
	require.Equal(t, 250*time.Microsecond, out.Paced.Duration)

	var ch bbtx.Channel
	require.NoError(t, out.Open(&ch))
	out.Discard()
	start := time.Now()
	ch.WriteByte('p')
	require.True(t, time.Since(start) >= 10*time.Millisecond)
	data, err := out.Loopback(&ch)
	require.NoError(t, err)
	require.Equal(t, "p", string(data))
}

func TestUnpacedLoopback(t *testing.T) {
	out, err := (&Config{BaudRate: 1000, WriteNsec: 1}).NewOutput()
	require.NoError(t, err)
	require.Nil(t, out.Paced)
	require.Equal(t, out.Recorder, out.Writer.(*line.Recorder))
}

func TestCalibrateTap(t *testing.T) {
	dir, err := ioutil.TempDir("", "bbtx")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "tap.bin")

	conf := &Config{BaudRate: 1000, WriteNsec: 500000, TapURL: "file://" + fn}
	out, err := conf.NewOutput()
	require.NoError(t, err)

	var ch bbtx.Channel
	require.NoError(t, out.Open(&ch))
	ch.WriteString("a", 0)
	require.NoError(t, out.Calibrate(&ch))
	require.Zero(t, out.Tap.FramingErrors())
	require.Equal(t, uint32(2), ch.WritesPerBit())
	ch.WriteString("b\n", 0)
	require.NoError(t, out.Close())

	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	rw := stream.New(f)
	for _, expect := range []string{"a", "UUUUUUUUUU", "b\n"} {
		pkt, err := rw.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, expect, string(pkt))
	}
}
