package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/env"
)

// Shell provides ishell backed interactive shell driving a channel.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell   *ishell.Shell
	Config  *env.Config
	Output  *env.Output
	Channel bbtx.Channel
}

const (
	shellKey       = "$shell"
	closedPrompt   = "[closed] > "
	openPromptTmpl = "[%d] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&StatusCmd,
		&CalibrateCmd,
		&EstimateCmd,
		&ByteCmd,
		&StrCmd,
		&DecCmd,
		&Hex8Cmd,
		&Hex16Cmd,
		&Hex32Cmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config, out *env.Output) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Output: out,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open channel.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !ShellFrom(c).Channel.IsOpen() {
			c.Err(fmt.Errorf("channel not open"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the channel with explicit timing.
func (s *Shell) Open(baudRate, writeNsec uint32) error {
	if err := s.Output.OpenWith(&s.Channel, baudRate, writeNsec); err != nil {
		return err
	}
	s.Output.Discard()
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf(openPromptTmpl, baudRate))
	}
	return nil
}

// Close closes the channel.
func (s *Shell) Close() {
	s.Output.Flush()
	s.Channel.Close()
	if s.Shell != nil {
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Result is the outcome of a transmitting command.
type Result struct {
	Loopback string `json:"loopback,omitempty"`
	Writes   int    `json:"writes,omitempty"`
}

// Status describes the channel.
type Status struct {
	Open         bool   `json:"open"`
	BaudRate     uint32 `json:"baud_rate,omitempty"`
	WriteNsec    uint32 `json:"write_nsec,omitempty"`
	WritesPerBit uint32 `json:"writes_per_bit,omitempty"`
	Pin          string `json:"pin,omitempty"`
	Tap          string `json:"tap,omitempty"`
}

// Status returns the channel status.
func (s *Shell) Status() Status {
	st := Status{Open: s.Channel.IsOpen(), Pin: s.Config.Pin, Tap: s.Config.TapURL}
	if st.Open {
		st.BaudRate = s.Channel.BaudRate()
		st.WriteNsec = s.Channel.WriteNsec()
		st.WritesPerBit = s.Channel.WritesPerBit()
	}
	return st
}

// Transmit runs fn against the channel and collects the result.
func (s *Shell) Transmit(fn func(ch *bbtx.Channel)) (Result, error) {
	fn(&s.Channel)
	var res Result
	if err := s.Output.Flush(); err != nil {
		return res, err
	}
	if err := s.Output.Err(); err != nil {
		return res, err
	}
	if s.Output.Recorder != nil {
		res.Writes = s.Output.Recorder.Len()
	}
	data, err := s.Output.Loopback(&s.Channel)
	res.Loopback = string(data)
	return res, err
}

// Print prints a value as JSON or plain text.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	switch val := v.(type) {
	case Result:
		if s.Output.Recorder != nil {
			c.Printf("%q (%d writes)\n", val.Loopback, val.Writes)
		} else {
			c.Println("OK")
		}
	case Status:
		if !val.Open {
			c.Println("closed")
			return
		}
		c.Printf("open: %d baud, %dns/write, %d writes/bit", val.BaudRate, val.WriteNsec, val.WritesPerBit)
		if val.Pin != "" {
			c.Printf(", pin %s", val.Pin)
		} else {
			c.Printf(", loopback")
		}
		if val.Tap != "" {
			c.Printf(", tap %s", val.Tap)
		}
		c.Println()
	default:
		c.Println(val)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen {
		if err := s.Open(uint32(s.Config.BaudRate), uint32(s.Config.WriteNsec)); err != nil {
			log.Fatalln(err)
		}
	}
	defer s.Output.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	New(conf, conf.MustNewOutput()).WithAutoOpen(true).Run(flag.Args()...)
}
