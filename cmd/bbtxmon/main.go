package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/glog"

	fx "github.com/robotalks/bbtx/pkg/framework"
	"github.com/robotalks/bbtx/pkg/tap/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/bbtx/"
)

func init() {
	if val := os.Getenv("BBTX_TAP_URL"); strings.HasPrefix(val, "mqtt") {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("+/"+mqtt.MetaTopic, func(topic string, payload []byte) {
		var meta mqtt.Meta
		if err := json.Unmarshal(payload, &meta); err != nil {
			log.Printf("%s: bad meta: %v", topic, err)
			return
		}
		log.Printf("%s: %d baud, %dns/write, %d writes/bit", topic, meta.BaudRate, meta.WriteNsec, meta.WritesPerBit)
	})
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	sub := mqtt.NewSubscriber(q)
	printer := fx.NamedRun("printer", fx.RunFunc(func(ctx context.Context) error {
		for {
			select {
			case pkt := <-sub.Packets():
				log.Printf("%s: %q", pkt.ID, pkt.Data)
			case <-sub.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}))
	runner := fx.NewRunner().HandleSignals()
	runner.Go(sub, printer)
	if err = runner.Wait(); err != nil {
		glog.Error(err)
		os.Exit(1)
	}
}
