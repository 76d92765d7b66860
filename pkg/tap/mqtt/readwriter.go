package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/wrappers"
	"github.com/pkg/errors"
)

// Topic suffixes.
const (
	TxTopic   = "tx"
	MetaTopic = "meta"
)

// Meta describes a transmitter publishing on a tap.
type Meta struct {
	BaudRate     uint32 `json:"baud_rate"`
	WriteNsec    uint32 `json:"write_nsec"`
	WritesPerBit uint32 `json:"writes_per_bit"`
	Pin          string `json:"pin,omitempty"`
}

// Packet is a packet received from a transmitter.
type Packet struct {
	ID   string
	Data []byte
}

// EncodePacket encodes packet data for publishing.
func EncodePacket(data []byte) ([]byte, error) {
	return proto.Marshal(&wrappers.BytesValue{Value: data})
}

// DecodePacket decodes a published payload.
func DecodePacket(payload []byte) ([]byte, error) {
	var val wrappers.BytesValue
	if err := proto.Unmarshal(payload, &val); err != nil {
		return nil, errors.Wrap(err, "decode packet")
	}
	return val.Value, nil
}

// Publisher implements tap.PacketWriter. Packets are published to ID/tx.
type Publisher struct {
	Queue *Queue
	ID    string

	metaLock sync.Mutex
	meta     *Meta
}

// NewPublisher creates the Publisher. It takes over q.OnConnect to
// republish the last meta after reconnecting.
func NewPublisher(q *Queue, id string) *Publisher {
	p := &Publisher{Queue: q, ID: id}
	q.OnConnect = p.republishMeta
	return p
}

// WritePacket implements tap.PacketWriter.
func (p *Publisher) WritePacket(pkt []byte) error {
	payload, err := EncodePacket(pkt)
	if err != nil {
		return err
	}
	token := p.Queue.Pub(p.ID+"/"+TxTopic, payload)
	token.Wait()
	return token.Error()
}

// PublishMeta publishes retained meta to ID/meta.
// The meta is kept even if publishing fails, and sent again on reconnect.
func (p *Publisher) PublishMeta(meta Meta) error {
	p.metaLock.Lock()
	p.meta = &meta
	p.metaLock.Unlock()
	token := p.pubMeta(meta)
	if token == nil {
		return nil
	}
	token.Wait()
	return token.Error()
}

// Meta returns the last published meta, nil if none.
func (p *Publisher) Meta() *Meta {
	p.metaLock.Lock()
	defer p.metaLock.Unlock()
	if p.meta == nil {
		return nil
	}
	meta := *p.meta
	return &meta
}

func (p *Publisher) pubMeta(meta Meta) paho.Token {
	payload, err := json.Marshal(&meta)
	if err != nil {
		glog.Errorf("encode meta: %v", err)
		return nil
	}
	return p.Queue.PubWith(p.ID+"/"+MetaTopic, payload, 1, true)
}

// republishMeta runs on the MQTT client goroutine, it doesn't wait.
func (p *Publisher) republishMeta(*Queue) {
	if meta := p.Meta(); meta != nil {
		p.pubMeta(*meta)
	}
}

// Subscriber receives packets from all transmitters (+/tx).
// It implements tap.PacketReader with the data of the packets.
type Subscriber struct {
	Queue *Queue

	packetCh chan Packet
	doneCh   chan struct{}
	doneOnce sync.Once
}

// NewSubscriber creates the Subscriber.
func NewSubscriber(q *Queue) *Subscriber {
	return &Subscriber{
		Queue:    q,
		packetCh: make(chan Packet, 16),
		doneCh:   make(chan struct{}),
	}
}

// Packets returns the chan of received packets.
// It's never closed, select on Done as well.
func (s *Subscriber) Packets() <-chan Packet {
	return s.packetCh
}

// Done is closed when Run returns.
func (s *Subscriber) Done() <-chan struct{} {
	return s.doneCh
}

// ReadPacket implements tap.PacketReader.
// It returns io.EOF once Run returned and buffered packets are drained.
func (s *Subscriber) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-s.packetCh:
		return pkt.Data, nil
	case <-s.doneCh:
	}
	select {
	case pkt := <-s.packetCh:
		return pkt.Data, nil
	default:
		return nil, io.EOF
	}
}

// Name implements framework.Named.
func (s *Subscriber) Name() string {
	return "mqtt-subscriber"
}

// Run implements framework.Runnable.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.Queue.Sub("+/"+TxTopic, s.handleMsg)
	defer s.doneOnce.Do(func() { close(s.doneCh) })
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

// handleMsg runs on the MQTT client goroutine. Packets are dropped after
// Run returns.
func (s *Subscriber) handleMsg(topic string, payload []byte) {
	data, err := DecodePacket(payload)
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
		return
	}
	pkt := Packet{ID: strings.TrimSuffix(topic, "/"+TxTopic), Data: data}
	select {
	case <-s.doneCh:
	default:
		select {
		case s.packetCh <- pkt:
			return
		case <-s.doneCh:
		}
	}
	glog.V(2).Infof("%s: subscriber stopped, packet dropped", topic)
}
