package mcpot

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/gstoney/mcpot/packet"
)

var ErrPacketTooBig = errors.New("packet too big")

const DefaultMaxPacketLen int32 = 1 << 21

type TransportConfig struct {
	MaxPacketLen int32
}

type byteWriter interface {
	io.Writer
	io.ByteWriter
}

// Transport provides read and write access to a framed stream.
// Transport does not deserialize packet bodies.
type Transport struct {
	reader *bufio.Reader
	writer byteWriter

	fReader FrameReader
	wBuffer bytes.Buffer

	cfg TransportConfig
}

// NewTransport creates a Transport.
//
// The reader is always buffered so that the first byte of a connection
// can be peeked. Writers that do not implement io.ByteWriter are wrapped
// with bufio and flushed after every send.
func NewTransport(r io.Reader, w io.Writer, cfg TransportConfig) Transport {
	var br *bufio.Reader
	var bw byteWriter

	if b, ok := r.(*bufio.Reader); ok {
		br = b
	} else if r != nil {
		br = bufio.NewReader(r)
	}

	if b, ok := w.(byteWriter); ok {
		bw = b
	} else if w != nil {
		bw = bufio.NewWriter(w)
	}

	if cfg.MaxPacketLen <= 0 {
		cfg.MaxPacketLen = DefaultMaxPacketLen
	}

	return Transport{
		reader:  br,
		writer:  bw,
		fReader: FrameReader{br, 0},
		cfg:     cfg,
	}
}

// Peek returns the next byte without consuming it.
func (t *Transport) Peek() (byte, error) {
	b, err := t.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Reader exposes the unframed stream, for the legacy dialect.
func (t *Transport) Reader() packet.Reader {
	return t.reader
}

// Recv reads the next frame header and returns a reader bounded to the
// rest of the frame.
func (t *Transport) Recv() (h packet.Header, r PayloadReader, err error) {
	h.Length, err = t.fReader.Next()
	if err != nil {
		return
	}

	if h.Length > t.cfg.MaxPacketLen {
		err = ErrPacketTooBig
		return
	}

	h.ID, err = packet.ReadVarInt(&t.fReader)
	if err != nil {
		return
	}

	r = plainPayload{&t.fReader}
	return
}

// Send writes b as one frame.
func (t *Transport) Send(b []byte) error {
	err := packet.WriteVarInt(t.writer, int32(len(b)))
	if err != nil {
		return err
	}
	_, err = t.writer.Write(b)
	if err != nil {
		return err
	}

	return t.flush()
}

// SendPacket encodes p, id included, and sends it as one frame.
func (t *Transport) SendPacket(p packet.Encoder) error {
	t.wBuffer.Reset()
	if err := p.Encode(&t.wBuffer); err != nil {
		return err
	}
	return t.Send(t.wBuffer.Bytes())
}

// SendRaw writes e without framing.
func (t *Transport) SendRaw(e packet.Encoder) error {
	if err := e.Encode(t.writer); err != nil {
		return err
	}
	return t.flush()
}

func (t *Transport) flush() error {
	if bw, ok := t.writer.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}
