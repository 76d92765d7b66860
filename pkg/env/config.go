// Package env configures a bbtx channel and its output from flags and
// environment variables.
package env

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Config provides common options to setup a channel.
type Config struct {
	BaudRate  uint
	WriteNsec uint
	// Pin is the GPIO pin name, empty for loopback.
	Pin string
	// TapURL is the URL of a sink for decoded transmissions.
	// e.g. mqtt://host:port/topic-prefix, ws://host:port/path, file:///path or -
	TapURL string
	// ID identifies this transmitter on the tap.
	ID string
	// Pace makes every loopback write take WriteNsec, so the loopback
	// output can be calibrated like a pin. Ignored when Pin is set.
	Pace bool
}

var defaultConfig = Config{
	BaudRate:  9600,
	WriteNsec: 1000,
}

func init() {
	envUint("BBTX_BAUD", &defaultConfig.BaudRate)
	envUint("BBTX_WRITE_NSEC", &defaultConfig.WriteNsec)
	if val := os.Getenv("BBTX_PIN"); val != "" {
		defaultConfig.Pin = val
	}
	if val := os.Getenv("BBTX_TAP_URL"); val != "" {
		defaultConfig.TapURL = val
	}
	if val := os.Getenv("BBTX_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val := os.Getenv("BBTX_PACE"); val != "" {
		pace, err := strconv.ParseBool(val)
		if err != nil {
			glog.Warningf("ignore BBTX_PACE=%q: %v", val, err)
		} else {
			defaultConfig.Pace = pace
		}
	}
}

func envUint(name string, val *uint) {
	str := os.Getenv(name)
	if str == "" {
		return
	}
	n, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		glog.Warningf("ignore %s=%q: %v", name, str, err)
		return
	}
	*val = uint(n)
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate.")
	flag.UintVar(&defaultConfig.WriteNsec, "write-nsec", defaultConfig.WriteNsec, "Duration of a single pin write in nanoseconds, measured with calibration.")
	flag.StringVar(&defaultConfig.Pin, "pin", defaultConfig.Pin, "GPIO pin name, empty for loopback.")
	flag.StringVar(&defaultConfig.TapURL, "tap", defaultConfig.TapURL, "Tap URL for decoded output (mqtt://, ws://, file://, -).")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Transmitter ID on the tap, defaults to machine ID.")
	flag.BoolVar(&defaultConfig.Pace, "pace", defaultConfig.Pace, "Spin for the write duration after each loopback write.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the timing options fit the channel.
func (c *Config) Validate() error {
	if c.BaudRate == 0 || c.BaudRate > maxUint32 {
		return errors.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.WriteNsec == 0 || c.WriteNsec > maxUint32 {
		return errors.Errorf("invalid write duration %d", c.WriteNsec)
	}
	return nil
}

const maxUint32 = 1<<32 - 1

// TransmitterID returns ID or the machine ID.
func (c *Config) TransmitterID() string {
	if c.ID != "" {
		return c.ID
	}
	return MachineID()
}

// MustNewOutput creates Output and fails on error.
func (c *Config) MustNewOutput() *Output {
	out, err := c.NewOutput()
	if err != nil {
		log.Fatalln(err)
	}
	return out
}
