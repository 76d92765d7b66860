package env

import (
	"io"
	"net/url"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/line"
	"github.com/robotalks/bbtx/pkg/pin"
	"github.com/robotalks/bbtx/pkg/tap"
	"github.com/robotalks/bbtx/pkg/tap/mqtt"
	"github.com/robotalks/bbtx/pkg/tap/stream"
	"github.com/robotalks/bbtx/pkg/tap/websocket"
)

// Output is the line a channel writes to: a GPIO pin or a loopback
// recorder, optionally tapped.
type Output struct {
	Config *Config
	Writer bbtx.Writer

	// Pin is set when a GPIO pin is configured.
	Pin *pin.Writer
	// Recorder is set in loopback mode (no pin).
	Recorder *line.Recorder
	// Paced wraps Recorder when Config.Pace is set.
	Paced *line.Paced
	// Tap is set when a tap URL is configured.
	Tap *tap.Tap

	publisher *mqtt.Publisher
	closers   []io.Closer
}

// NewOutput creates the Output using current config.
func (c *Config) NewOutput() (*Output, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := &Output{Config: c}
	if c.Pin != "" {
		p, err := pin.Open(c.Pin)
		if err != nil {
			return nil, err
		}
		out.Pin = p
	} else {
		out.Recorder = &line.Recorder{}
		if c.Pace {
			out.Paced = &line.Paced{Writer: out.Recorder, Duration: time.Duration(c.WriteNsec)}
		}
	}
	if c.TapURL != "" {
		sink, closer, err := c.newSink(out)
		if err != nil {
			return nil, err
		}
		out.Tap = tap.New(sink)
		if closer != nil {
			out.closers = append(out.closers, closer)
		}
	}

	var writers []bbtx.Writer
	if out.Pin != nil {
		writers = append(writers, out.Pin)
	}
	switch {
	case out.Paced != nil:
		writers = append(writers, out.Paced)
	case out.Recorder != nil:
		writers = append(writers, out.Recorder)
	}
	if out.Tap != nil {
		writers = append(writers, out.Tap)
	}
	out.Writer = line.Tee(writers...)
	return out, nil
}

func (c *Config) newSink(out *Output) (tap.PacketWriter, io.Closer, error) {
	if c.TapURL == "-" {
		return stream.NewWriter(os.Stdout), nil, nil
	}
	u, err := url.Parse(c.TapURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid tap URL %q", c.TapURL)
	}
	switch u.Scheme {
	case "file":
		f, err := os.OpenFile(u.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open tap file")
		}
		return stream.NewWriter(f), f, nil
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(c.TapURL)
		if err != nil {
			return nil, nil, err
		}
		if err = q.Connect(); err != nil {
			return nil, nil, err
		}
		out.publisher = mqtt.NewPublisher(q, c.TransmitterID())
		return out.publisher, q, nil
	case "ws", "wss":
		rw, err := websocket.Dial(c.TapURL)
		if err != nil {
			return nil, nil, err
		}
		return rw, rw, nil
	default:
		return nil, nil, errors.Errorf("unknown tap URL scheme: %q", u.Scheme)
	}
}

// Open opens ch on the output with the configured timing.
func (o *Output) Open(ch *bbtx.Channel) error {
	return o.OpenWith(ch, uint32(o.Config.BaudRate), uint32(o.Config.WriteNsec))
}

// OpenWith opens ch on the output with explicit timing.
func (o *Output) OpenWith(ch *bbtx.Channel, baudRate, writeNsec uint32) error {
	if !ch.Open(baudRate, o.Writer, writeNsec) {
		return errors.Errorf("invalid channel settings: baud rate %d, write duration %dns", baudRate, writeNsec)
	}
	if ch.WritesPerBit() == 0 {
		glog.Warningf("write duration %dns exceeds the bit period at %d baud, nothing will be written", writeNsec, baudRate)
	}
	if o.Tap != nil {
		o.Tap.Sync(ch)
	}
	if o.publisher != nil {
		meta := mqtt.Meta{
			BaudRate:     baudRate,
			WriteNsec:    writeNsec,
			WritesPerBit: ch.WritesPerBit(),
			Pin:          o.Config.Pin,
		}
		if err := o.publisher.PublishMeta(meta); err != nil {
			glog.Warningf("publish meta error: %v", err)
		}
	}
	return nil
}

// Calibrate outputs the calibration pattern on ch. The tap decodes the
// pattern at its own width and the pattern is sent as a separate packet.
func (o *Output) Calibrate(ch *bbtx.Channel) error {
	if o.Tap == nil {
		ch.Calibrate()
		return nil
	}
	if err := o.Tap.Flush(); err != nil {
		return err
	}
	o.Tap.SetWritesPerBit(bbtx.CalibrationWritesPerBit)
	ch.Calibrate()
	err := o.Tap.Flush()
	o.Tap.Sync(ch)
	return err
}

// Loopback decodes and clears what the recorder captured since the last
// call. It returns nil when not in loopback mode.
func (o *Output) Loopback(ch *bbtx.Channel) ([]byte, error) {
	if o.Recorder == nil {
		return nil, nil
	}
	defer o.Recorder.Reset()
	return o.Recorder.Decoder(ch.WritesPerBit()).ReadAll()
}

// Discard clears the recorder and returns the number of writes dropped.
func (o *Output) Discard() int {
	if o.Recorder == nil {
		return 0
	}
	n := o.Recorder.Len()
	o.Recorder.Reset()
	return n
}

// Flush flushes pending tap bytes.
func (o *Output) Flush() error {
	if o.Tap != nil {
		return o.Tap.Flush()
	}
	return nil
}

// Err returns the first pin error.
func (o *Output) Err() error {
	if o.Pin != nil {
		return o.Pin.Err()
	}
	return nil
}

// Close flushes the tap and releases sinks.
func (o *Output) Close() error {
	var errs []error
	if err := o.Flush(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range o.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
