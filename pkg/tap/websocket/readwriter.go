// Package websocket carries tap packets as websocket messages.
package websocket

import (
	"net/url"

	"github.com/pkg/errors"
	"golang.org/x/net/websocket"
)

// ReadWriter implements tap.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket server, e.g. ws://host:port/path.
func Dial(serverURL string) (*ReadWriter, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid websocket URL %q", serverURL)
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	conn, err := websocket.Dial(serverURL, "", origin)
	if err != nil {
		return nil, errors.Wrapf(err, "websocket dial %s", serverURL)
	}
	return New(conn), nil
}

// ReadPacket implements tap.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements tap.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
