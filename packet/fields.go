package packet

import (
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxStringLen bounds every string decoded from the wire, in characters.
const MaxStringLen = 255

var (
	ErrVarIntTooLong  = errors.New("VarInt is too long")
	ErrNegativeLength = errors.New("negative length")
	ErrStringTooLong  = errors.New("string exceeds maximum length")
	ErrInvalidUTF8    = errors.New("string is not valid UTF-8")
)

// Reader is the source every packet decodes from.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Fixed lists the scalar types carried as fixed-width big-endian fields.
type Fixed interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// ReadFixed reads a big-endian scalar of T's width. A short read yields
// the zero value together with the error.
func ReadFixed[T Fixed](r io.Reader) (v T, err error) {
	if err = binary.Read(r, binary.BigEndian, &v); err != nil {
		var zero T
		return zero, err
	}
	return
}

func WriteFixed[T Fixed](w io.Writer, v T) error {
	return binary.Write(w, binary.BigEndian, v)
}

func WriteByte(w io.Writer, v byte) (err error) {
	_, err = w.Write([]byte{v})
	return
}

func ReadByte(r io.Reader) (v byte, err error) {
	return ReadFixed[byte](r)
}

func WriteUnsignedShort(w io.Writer, v uint16) (err error) {
	return WriteFixed(w, v)
}

func ReadUnsignedShort(r io.Reader) (v uint16, err error) {
	return ReadFixed[uint16](r)
}

func ReadShort(r io.Reader) (v int16, err error) {
	return ReadFixed[int16](r)
}

func WriteInt(w io.Writer, v int32) (err error) {
	return WriteFixed(w, v)
}

func ReadInt(r io.Reader) (v int32, err error) {
	return ReadFixed[int32](r)
}

func WriteLong(w io.Writer, v int64) (err error) {
	return WriteFixed(w, v)
}

func ReadLong(r io.Reader) (v int64, err error) {
	return ReadFixed[int64](r)
}

func WriteVarInt(w io.Writer, v int32) error {
	uv := uint32(v)
	for {
		b := byte(uv & 0x7F)
		uv >>= 7

		if uv != 0 {
			b |= 0x80
		}

		if _, err := w.Write([]byte{b}); err != nil {
			return err
		}

		if uv == 0 {
			return nil
		}
	}
}

// ReadVarInt decodes at most five bytes. Any failure returns 0: a clean
// EOF before the first byte is io.EOF, a truncated value is
// io.ErrUnexpectedEOF and a sixth continuation byte is ErrVarIntTooLong.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var v int32
	var shift uint

	for n := 0; n < 5; n++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}

		v |= int32(b&0x7F) << shift
		shift += 7

		if (b & 0x80) == 0 {
			return v, nil
		}
	}
	return 0, ErrVarIntTooLong
}

func WriteString(w io.Writer, v string) (err error) {
	err = WriteVarInt(w, int32(len(v)))
	if err != nil {
		return
	}
	_, err = io.WriteString(w, v)
	return
}

// ReadString reads a VarInt-prefixed UTF-8 string of at most MaxStringLen
// characters.
func ReadString(r Reader) (string, error) {
	return ReadStringMax(r, MaxStringLen)
}

// ReadStringMax is ReadString with an explicit character bound. The
// declared byte length is checked against the bound before anything is
// allocated.
func ReadStringMax(r Reader, max int) (v string, err error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return
	}

	if length < 0 {
		err = ErrNegativeLength
		return
	}
	if int64(length) > int64(max)*utf8.UTFMax {
		err = ErrStringTooLong
		return
	}

	buf := make([]byte, length)
	if _, err = io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}

	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	if utf8.RuneCount(buf) > max {
		return "", ErrStringTooLong
	}
	return string(buf), nil
}

// ReadUUIDLE reads a UUID sent as a little-endian 128-bit integer: the
// resulting UUID bytes are the wire bytes in reverse order.
func ReadUUIDLE(r io.Reader) (v uuid.UUID, err error) {
	var b [16]byte
	if _, err = io.ReadFull(r, b[:]); err != nil {
		return uuid.Nil, err
	}

	for i := range b {
		v[i] = b[len(b)-1-i]
	}
	return
}

func WriteUUIDLE(w io.Writer, v uuid.UUID) (err error) {
	var b [16]byte
	for i := range v {
		b[i] = v[len(v)-1-i]
	}

	_, err = w.Write(b[:])
	return
}
