package packet

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// LegacyPingID is the first byte of a pre-1.7 server list ping. A modern
// frame whose length varint starts with 0xFE (e.g. a 254-byte handshake,
// fe 01) is dispatched as a legacy ping too and fails to decode there.
const LegacyPingID byte = 0xFE

const legacyPingResponseID byte = 0xFF

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ReadLegacyString reads a string prefixed by a big-endian uint16 count
// of UTF-16 code units, followed by the UTF-16BE text.
func ReadLegacyString(r io.Reader) (v string, err error) {
	units, err := ReadUnsignedShort(r)
	if err != nil {
		return
	}
	if int(units) > 2*MaxStringLen {
		err = ErrStringTooLong
		return
	}

	buf := make([]byte, 2*int(units))
	if _, err = io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}

	decoded, err := utf16BE.NewDecoder().Bytes(buf)
	if err != nil {
		return "", err
	}
	if utf8.RuneCount(decoded) > MaxStringLen {
		return "", ErrStringTooLong
	}
	return string(decoded), nil
}

func WriteLegacyString(w io.Writer, v string) (err error) {
	encoded, err := utf16BE.NewEncoder().Bytes([]byte(v))
	if err != nil {
		return
	}
	if err = WriteUnsignedShort(w, uint16(len(encoded)/2)); err != nil {
		return
	}
	_, err = w.Write(encoded)
	return
}

// LegacyPing is the 1.6 server list ping. It has no VarInt framing.
type LegacyPing struct {
	PingHost        string // "MC|PingHost"
	ProtocolVersion uint8
	Hostname        string
	Port            int32
}

func (p LegacyPing) Encode(w io.Writer) (err error) {
	if _, err = w.Write([]byte{LegacyPingID, 0x01, 0xFA}); err != nil {
		return
	}
	if err = WriteLegacyString(w, p.PingHost); err != nil {
		return
	}

	var rest bytes.Buffer
	rest.WriteByte(p.ProtocolVersion)
	if err = WriteLegacyString(&rest, p.Hostname); err != nil {
		return
	}
	WriteInt(&rest, p.Port)

	if err = WriteFixed(w, int16(rest.Len())); err != nil {
		return
	}
	_, err = rest.WriteTo(w)
	return
}

// Decode reads the whole ping including its leading 0xFE. The sub-id,
// plugin marker and remaining-length fields are read but not checked.
func (p *LegacyPing) Decode(r io.Reader) (err error) {
	id, err := ReadByte(r)
	if err != nil {
		return
	}
	if id != LegacyPingID {
		return ErrUnexpectedPacket
	}

	if _, err = ReadByte(r); err != nil { // payload, always 1
		return
	}
	if _, err = ReadByte(r); err != nil { // plugin message, 0xFA
		return
	}
	if p.PingHost, err = ReadLegacyString(r); err != nil {
		return
	}
	if _, err = ReadShort(r); err != nil {
		return
	}
	if p.ProtocolVersion, err = ReadByte(r); err != nil {
		return
	}
	if p.Hostname, err = ReadLegacyString(r); err != nil {
		return
	}
	p.Port, err = ReadInt(r)
	return
}

// The legacy reply is a fixed template: it always claims protocol 127
// and version 1.6.4 whatever the client sent.
const legacyPingResponseText = "§1\x00127\x001.6.4\x00A Minecraft Server\x000\x0020"

var legacyPingResponse = func() []byte {
	var buf bytes.Buffer
	buf.WriteByte(legacyPingResponseID)
	if err := WriteLegacyString(&buf, legacyPingResponseText); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

type LegacyPingResponse struct{}

func (LegacyPingResponse) Encode(w io.Writer) (err error) {
	_, err = w.Write(legacyPingResponse)
	return
}
