package mcpot

import (
	"errors"
	"io"

	"github.com/gstoney/mcpot/packet"
)

var (
	ErrNotExhausted       = errors.New("not exhausted")
	ErrInvalidFrameLength = errors.New("invalid frame length")
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// FrameReader wraps a source reader to provide bounded access to one frame at a time.
// It ensures packet frame alignment.
type FrameReader struct {
	src       byteReader
	remaining int32
}

func (f *FrameReader) Read(p []byte) (n int, err error) {
	if f.remaining <= 0 {
		return 0, io.EOF
	}
	if int32(len(p)) > f.remaining {
		p = p[0:f.remaining]
	}
	n, err = f.src.Read(p)
	f.remaining -= int32(n)

	if err == io.EOF && f.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	return
}

func (f *FrameReader) ReadByte() (byte, error) {
	if f.remaining <= 0 {
		return 0, io.EOF
	}
	v, err := f.src.ReadByte()
	if err == nil {
		f.remaining -= 1
	} else if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return v, err
}

// Next reads the length prefix of the following frame. The current frame
// must have been consumed.
func (f *FrameReader) Next() (length int32, err error) {
	if f.remaining > 0 {
		return f.remaining, ErrNotExhausted
	}

	length, err = packet.ReadVarInt(f.src)
	if err == nil && length <= 0 {
		err = ErrInvalidFrameLength
	}
	if err == nil {
		f.remaining = length
	}
	return
}

func (f *FrameReader) Skip() (n int32, err error) {
	n64, err := io.CopyN(io.Discard, f, int64(f.remaining))
	n = int32(n64)
	return
}

func (f *FrameReader) Remaining() int32 {
	return f.remaining
}

// PayloadReader provides access to a single packet's payload, the bytes
// following the packet id.
//
// Skip discards remaining payload bytes, enabling validation on Close.
//
// Close validates payload exhaustion, returning ErrNotExhausted if the
// payload was not fully consumed. Close does not realign on error.
//
// Discard abandons the current frame and realigns to the next frame boundary.
type PayloadReader interface {
	packet.Reader
	io.Closer
	Skip() (n int32, err error)
	Discard() (n int32, err error)
	Remaining() int32
}

type plainPayload struct {
	*FrameReader
}

func (p plainPayload) Close() (err error) {
	if p.remaining > 0 {
		err = ErrNotExhausted
	}
	return
}

func (p plainPayload) Discard() (n int32, err error) {
	return p.Skip()
}
