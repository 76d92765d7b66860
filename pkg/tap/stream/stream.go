// Package stream frames tap packets over a byte stream.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxPacketSize limits the size of a packet accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates a length prefix beyond MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements tap.PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	R io.Reader
	W io.Writer
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{R: s, W: s}
}

// NewWriter creates a write-only ReadWriter.
func NewWriter(w io.Writer) *ReadWriter {
	return &ReadWriter{W: w}
}

// ReadPacket implements tap.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	if p.R == nil {
		return nil, io.EOF
	}
	var size uint32
	if err := binary.Read(p.R, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.R, pkt)
	return pkt, err
}

// WritePacket implements tap.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.W.Write(buf)
	return err
}
