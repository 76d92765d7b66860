// Package pin drives a GPIO pin as the output of a bbtx.Channel.
package pin

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/robotalks/bbtx/pkg/bbtx"
)

// Writer implements bbtx.Writer on a gpio.PinOut.
type Writer struct {
	Pin gpio.PinOut

	err error
}

// New creates a Writer.
func New(p gpio.PinOut) *Writer {
	return &Writer{Pin: p}
}

// Open initializes the host drivers and opens the pin by name,
// e.g. "GPIO17". The pin is driven idle.
func Open(name string) (*Writer, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "host init")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("unknown pin %q", name)
	}
	if err := p.Out(Level(bbtx.Idle)); err != nil {
		return nil, errors.Wrapf(err, "pin %s", name)
	}
	return New(p), nil
}

// Level converts a bit to the pin level.
func Level(b bbtx.Bit) gpio.Level {
	return gpio.Level(b == bbtx.Mark)
}

// WriteBit implements bbtx.Writer.
func (w *Writer) WriteBit(b bbtx.Bit) {
	if err := w.Pin.Out(Level(b)); err != nil && w.err == nil {
		w.err = err
		glog.Errorf("pin %s: %v", w.Pin, err)
	}
}

// Err returns the first error from the pin.
func (w *Writer) Err() error {
	return w.err
}

// String implements fmt.Stringer.
func (w *Writer) String() string {
	return w.Pin.String()
}
