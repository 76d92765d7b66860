package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/bbtx/pkg/bbtx"
	"github.com/robotalks/bbtx/pkg/env"
	fx "github.com/robotalks/bbtx/pkg/framework"
)

var (
	calibrate  bool
	beacon     time.Duration
	beaconText = "bbtx"
	lineWidth  int
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&calibrate, "calibrate", calibrate, "Output the calibration pattern after open.")
	flag.DurationVar(&beacon, "beacon", beacon, "Interval of beacon lines, 0 to disable.")
	flag.StringVar(&beaconText, "beacon-text", beaconText, "Text of beacon lines.")
	flag.IntVar(&lineWidth, "width", lineWidth, "Pad transmitted lines with spaces to width.")
}

type daemon struct {
	out     *env.Output
	ch      bbtx.Channel
	lines   chan string
	beacons chan time.Time
	started time.Time
	count   int32
}

func (d *daemon) Name() string {
	return "transmitter"
}

// Run owns the channel, lines and beacons are serialized through it.
func (d *daemon) Run(ctx context.Context) error {
	if err := d.out.Open(&d.ch); err != nil {
		return err
	}
	defer d.ch.Close()
	if calibrate {
		glog.Info("calibrating")
		if err := d.out.Calibrate(&d.ch); err != nil {
			glog.Warningf("calibration tap error: %v", err)
		}
		d.out.Discard()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-d.lines:
			if !ok {
				return nil
			}
			d.transmit(text)
		case t := <-d.beacons:
			d.beacon(t)
		}
		if err := d.out.Err(); err != nil {
			return err
		}
	}
}

func (d *daemon) transmit(text string) {
	d.ch.WriteString(text, lineWidth)
	d.ch.WriteString("\r\n", 0)
	d.out.Flush()
	d.out.Discard()
}

func (d *daemon) beacon(t time.Time) {
	d.count++
	d.ch.WriteString(beaconText, 0)
	d.ch.WriteByte(' ')
	d.ch.WriteDecimal(d.count, 0)
	d.ch.WriteByte(' ')
	d.ch.WriteUint32(uint32(t.Sub(d.started) / time.Second))
	d.ch.WriteString("\r\n", 0)
	d.out.Flush()
	d.out.Discard()
}

func readLines(lines chan<- string) fx.Runnable {
	return fx.NamedRun("stdin", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, os.Stdin, func() error {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := scanner.Err(); err != nil || beacon <= 0 {
				return err
			}
			// keep beaconing after end of input
			<-ctx.Done()
			return ctx.Err()
		})
	}))
}

// ticks drops a beacon when the transmitter is busy.
func (d *daemon) ticks(t time.Time) error {
	select {
	case d.beacons <- t:
	default:
		glog.V(2).Info("transmitter busy, beacon dropped")
	}
	return nil
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	d := &daemon{
		out:     conf.MustNewOutput(),
		lines:   make(chan string),
		beacons: make(chan time.Time),
		started: time.Now(),
	}
	defer d.out.Close()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(d, readLines(d.lines))
	if beacon > 0 {
		runner.Go(fx.NamedRun("beacon", fx.Every(beacon, d.ticks)))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
