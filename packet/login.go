package packet

import (
	"io"

	"github.com/google/uuid"
)

// LoginStart opens the login sequence. Clients before 1.19 send the name
// only; a body that ends right after the name decodes with uuid.Nil.
type LoginStart struct {
	Name       string
	PlayerUUID uuid.UUID
}

func (p LoginStart) ID() int32 {
	return 0
}

func (p LoginStart) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ID()); err != nil {
		return
	}
	if err = WriteString(w, p.Name); err != nil {
		return
	}
	return WriteUUIDLE(w, p.PlayerUUID)
}

func (p *LoginStart) Decode(r Reader) (err error) {
	if p.Name, err = ReadString(r); err != nil {
		return
	}

	p.PlayerUUID, err = ReadUUIDLE(r)
	if err == io.EOF {
		p.PlayerUUID, err = uuid.Nil, nil
	}
	return
}
