package packet

import (
	"errors"
	"io"
)

var ErrUnexpectedPacket = errors.New("unexpected packet id")

type Encoder interface {
	Encode(w io.Writer) error
}

// Packet is a modern-dialect packet body. Encode writes the VarInt id
// followed by the fields; Decode reads the fields only, the id having
// been consumed with the Header.
type Packet interface {
	Encoder
	ID() int32
	Decode(r Reader) error
}

// Header precedes every modern-dialect packet.
type Header struct {
	Length int32
	ID     int32
}

const (
	NextStateStatus   int32 = 1
	NextStateLogin    int32 = 2
	NextStateTransfer int32 = 3
)

type Handshake struct {
	ProtocolVersion int32
	ServerAddr      string
	ServerPort      uint16
	NextState       int32
}

func (p Handshake) ID() int32 {
	return 0
}

func (p Handshake) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ID()); err != nil {
		return
	}
	if err = WriteVarInt(w, p.ProtocolVersion); err != nil {
		return
	}
	if err = WriteString(w, p.ServerAddr); err != nil {
		return
	}
	if err = WriteUnsignedShort(w, p.ServerPort); err != nil {
		return
	}
	return WriteVarInt(w, p.NextState)
}

func (p *Handshake) Decode(r Reader) (err error) {
	if p.ProtocolVersion, err = ReadVarInt(r); err != nil {
		return
	}
	if p.ServerAddr, err = ReadString(r); err != nil {
		return
	}
	if p.ServerPort, err = ReadUnsignedShort(r); err != nil {
		return
	}
	p.NextState, err = ReadVarInt(r)
	return
}
