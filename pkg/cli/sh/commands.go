package sh

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/bbtx/pkg/bbtx"
)

func parseUint(arg, name string, bits int) (uint64, error) {
	val, err := strconv.ParseUint(arg, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return val, nil
}

func parseWidth(args []string, at int) (int, error) {
	if len(args) <= at {
		return 0, nil
	}
	val, err := strconv.Atoi(args[at])
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid WIDTH: %q", args[at])
	}
	return val, nil
}

// transmit wraps a command func which writes to the channel and prints
// the result.
func transmit(fn func(c *ishell.Context) (func(ch *bbtx.Channel), error)) func(c *ishell.Context) {
	return MustBeOpen(func(c *ishell.Context) {
		write, err := fn(c)
		if err != nil {
			c.Err(err)
			return
		}
		s := ShellFrom(c)
		res, err := s.Transmit(write)
		if err != nil {
			c.Err(err)
			return
		}
		s.Print(c, res)
	})
}

// OpenArgs parses arguments of the open command.
func (s *Shell) OpenArgs(args []string) (baudRate, writeNsec uint32, err error) {
	baudRate, writeNsec = uint32(s.Config.BaudRate), uint32(s.Config.WriteNsec)
	if len(args) > 0 {
		val, err := parseUint(args[0], "BAUD", 32)
		if err != nil {
			return 0, 0, err
		}
		baudRate = uint32(val)
	}
	if len(args) > 1 {
		val, err := parseUint(args[1], "NSEC", 32)
		if err != nil {
			return 0, 0, err
		}
		writeNsec = uint32(val)
	}
	return
}

// Writes parses arguments of a transmitting command.
func Writes(name string, args []string) (func(ch *bbtx.Channel), error) {
	switch name {
	case "byte":
		if len(args) == 0 {
			return nil, fmt.Errorf("BYTE required")
		}
		data := make([]byte, len(args))
		for n, arg := range args {
			val, err := parseUint(arg, "BYTE", 8)
			if err != nil {
				return nil, err
			}
			data[n] = byte(val)
		}
		return func(ch *bbtx.Channel) {
			for _, b := range data {
				ch.WriteByte(b)
			}
		}, nil
	case "str":
		if len(args) == 0 {
			return nil, fmt.Errorf("TEXT required")
		}
		width, err := parseWidth(args, 1)
		if err != nil {
			return nil, err
		}
		return func(ch *bbtx.Channel) { ch.WriteString(args[0], width) }, nil
	case "dec":
		if len(args) == 0 {
			return nil, fmt.Errorf("N required")
		}
		val, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid N: %v", err)
		}
		width, err := parseWidth(args, 1)
		if err != nil {
			return nil, err
		}
		return func(ch *bbtx.Channel) { ch.WriteDecimal(int32(val), width) }, nil
	case "hex8", "hex16", "hex32":
		if len(args) == 0 {
			return nil, fmt.Errorf("VALUE required")
		}
		bits, _ := strconv.Atoi(name[3:])
		val, err := parseUint(args[0], "VALUE", bits)
		if err != nil {
			return nil, err
		}
		switch bits {
		case 8:
			return func(ch *bbtx.Channel) { ch.WriteUint8(uint8(val)) }, nil
		case 16:
			return func(ch *bbtx.Channel) { ch.WriteUint16(uint16(val)) }, nil
		}
		return func(ch *bbtx.Channel) { ch.WriteUint32(uint32(val)) }, nil
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func writesCmd(name, alias, help string) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    help,
		Func: transmit(func(c *ishell.Context) (func(ch *bbtx.Channel), error) {
			return Writes(name, c.Args)
		}),
	}
}

// EstimateWriteNsec parses the measured width of the calibration pattern
// in microseconds.
func EstimateWriteNsec(args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("USEC required")
	}
	usec, err := strconv.ParseFloat(args[0], 64)
	if err != nil || usec <= 0 || math.IsNaN(usec) {
		return 0, fmt.Errorf("invalid USEC: %q", args[0])
	}
	// float64(math.MaxInt64) rounds up to 2^63, anything below fits.
	width := usec * float64(time.Microsecond)
	if width >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("pattern width %sus too long", args[0])
	}
	nsec := bbtx.EstimateWriteNsec(time.Duration(width))
	if nsec == 0 {
		return 0, fmt.Errorf("pattern width %sus too short", args[0])
	}
	return nsec, nil
}

var (
	// OpenCmd opens the channel.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[BAUD [NSEC]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			baudRate, writeNsec, err := s.OpenArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = s.Open(baudRate, writeNsec); err != nil {
				c.Err(err)
				return
			}
			s.Print(c, s.Status())
		},
	}

	// CloseCmd closes the channel.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// StatusCmd prints the channel status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Print(c, s.Status())
		},
	}

	// CalibrateCmd outputs the calibration pattern.
	CalibrateCmd = ishell.Cmd{
		Name:    "calibrate",
		Aliases: []string{"cal"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Output.Calibrate(&s.Channel); err != nil {
				c.Err(err)
				return
			}
			if s.Output.Recorder != nil {
				c.Printf("calibration pattern: %d writes\n", s.Output.Discard())
				return
			}
			c.Println("OK")
		}),
	}

	// EstimateCmd converts the measured pattern width to write duration.
	EstimateCmd = ishell.Cmd{
		Name:    "estimate",
		Aliases: []string{"est"},
		Help:    "USEC",
		Func: func(c *ishell.Context) {
			nsec, err := EstimateWriteNsec(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Print(c, nsec)
		},
	}

	// ByteCmd writes raw bytes.
	ByteCmd = writesCmd("byte", "b", "BYTE...")
	// StrCmd writes a string.
	StrCmd = writesCmd("str", "s", "TEXT [WIDTH]")
	// DecCmd writes a decimal.
	DecCmd = writesCmd("dec", "d", "N [WIDTH]")
	// Hex8Cmd writes 2 hex digits.
	Hex8Cmd = writesCmd("hex8", "h8", "VALUE")
	// Hex16Cmd writes 4 hex digits.
	Hex16Cmd = writesCmd("hex16", "h16", "VALUE")
	// Hex32Cmd writes 8 hex digits.
	Hex32Cmd = writesCmd("hex32", "h32", "VALUE")
)
