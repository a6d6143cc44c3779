package packet

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type TestCase[T any] struct {
	desc      string
	expectErr error
	v         T
	ser       []byte
}

var varintTc = []TestCase[int32]{
	{
		desc: "Zero",
		v:    0,
		ser:  []byte{0x00},
	},
	{
		desc: "One",
		v:    1,
		ser:  []byte{0x01},
	},
	{
		desc: "Max single byte (127)",
		v:    127,
		ser:  []byte{0x7f},
	},
	{
		desc: "Min two bytes (128)",
		v:    128,
		ser:  []byte{0x80, 0x01},
	},
	{
		desc: "Max two bytes (255)",
		v:    255,
		ser:  []byte{0xff, 0x01},
	},
	{
		desc: "Small three bytes (25565)",
		v:    25565,
		ser:  []byte{0xdd, 0xc7, 0x01},
	},
	{
		desc: "Max three bytes (2097151)",
		v:    2097151,
		ser:  []byte{0xff, 0xff, 0x7f},
	},
	{
		desc: "Protocol 770",
		v:    770,
		ser:  []byte{0x82, 0x06},
	},
	{
		desc: "Max positive int32 (2147483647)",
		v:    2147483647,
		ser:  []byte{0xff, 0xff, 0xff, 0xff, 0x07},
	},
	{
		desc: "Negative one (-1)",
		v:    -1,
		ser:  []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
	},
	{
		desc: "Min negative int32 (-2147483648)",
		v:    -2147483648,
		ser:  []byte{0x80, 0x80, 0x80, 0x80, 0x08},
	},
	{
		desc:      "VarInt too long",
		expectErr: ErrVarIntTooLong,
		ser:       []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x07},
	},
	{
		desc:      "Unexpected EOF",
		expectErr: io.ErrUnexpectedEOF,
		ser:       []byte{0xff, 0xff, 0xff, 0xff},
	},
	{
		desc:      "Empty input",
		expectErr: io.EOF,
		ser:       []byte{},
	},
}

func TestWriteVarInt(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 0, 5))
	for _, tC := range varintTc {
		if tC.expectErr != nil {
			continue
		}

		t.Run(tC.desc, func(t *testing.T) {
			err := WriteVarInt(buf, tC.v)
			if err != nil {
				t.Fatalf("WriteVarInt failed: %v", err)
			}

			if !bytes.Equal(buf.Bytes(), tC.ser) {
				t.Errorf("WriteVarInt expected %x, got %x", tC.ser, buf.Bytes())
			}
		})
		buf.Reset()
	}
}

func TestReadVarInt(t *testing.T) {
	for _, tC := range varintTc {
		t.Run(tC.desc, func(t *testing.T) {
			r := NewFrameReader(tC.ser)

			got, err := ReadVarInt(&r)

			if tC.expectErr != nil {
				if !errors.Is(err, tC.expectErr) {
					t.Errorf("ReadVarInt expected error %v, but got error %v", tC.expectErr, err)
				}
				// malformed input never yields a partial value
				if got != 0 {
					t.Errorf("ReadVarInt expected 0 on error, got %d", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadVarInt failed: %v", err)
			}

			if got != tC.v {
				t.Errorf("ReadVarInt expected %d, got %d", tC.v, got)
			}

			if r.Remaining() != 0 {
				t.Errorf("Reader did not consume all bytes. %d bytes remaining.", r.Remaining())
			}
		})
	}
}

func TestVarIntRoundtrip(t *testing.T) {
	values := []int32{math.MinInt32, -1 << 21, -300, -1, 0, 1, 1 << 7, 1 << 14, 1 << 21, 1 << 28, math.MaxInt32}
	rng := rand.New(rand.NewSource(25565))
	for i := 0; i < 1000; i++ {
		values = append(values, int32(rng.Uint32()))
	}

	var buf bytes.Buffer
	for _, v := range values {
		buf.Reset()
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}
		if buf.Len() < 1 || buf.Len() > 5 {
			t.Fatalf("WriteVarInt(%d) wrote %d bytes", v, buf.Len())
		}

		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("roundtrip: wrote %d, read %d", v, got)
		}
	}
}

var stringTc = []TestCase[string]{
	{
		desc: "Empty string",
		v:    "",
		ser:  []byte{0x00},
	},
	{
		desc: "ASCII string",
		v:    "Hello",
		ser:  []byte{0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f},
	},
	{
		desc: "Unicode string",
		v:    "Go \U0001F389",
		ser:  []byte{0x07, 0x47, 0x6f, 0x20, 0xf0, 0x9f, 0x8e, 0x89},
	},
	{
		desc: "Multi byte length (128 bytes)",
		v:    strings.Repeat("a", 128),
		ser:  append([]byte{0x80, 0x01}, bytes.Repeat([]byte{'a'}, 128)...),
	},
	{
		desc: "Max length (255 characters)",
		v:    strings.Repeat("a", MaxStringLen),
		ser:  append([]byte{0xff, 0x01}, bytes.Repeat([]byte{'a'}, MaxStringLen)...),
	},
	{
		desc:      "Read fail: EOF on length VarInt (Length is 0x80)",
		expectErr: io.ErrUnexpectedEOF,
		ser:       []byte{0x80},
	},
	{
		desc:      "Read fail: EOF reading string content",
		expectErr: io.ErrUnexpectedEOF,
		ser:       []byte{0x05, 0x48, 0x65, 0x6c},
	},
	{
		desc:      "Read fail: Negative length prefix",
		expectErr: ErrNegativeLength,
		ser:       []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
	},
	{
		desc:      "Read fail: 256 characters",
		expectErr: ErrStringTooLong,
		ser:       append([]byte{0x80, 0x02}, bytes.Repeat([]byte{'a'}, 256)...),
	},
	{
		desc:      "Read fail: hostile length without data",
		expectErr: ErrStringTooLong,
		ser:       []byte{0xff, 0xff, 0xff, 0xff, 0x07},
	},
	{
		desc:      "Read fail: invalid UTF-8",
		expectErr: ErrInvalidUTF8,
		ser:       []byte{0x02, 0xc3, 0x28},
	},
}

func TestWriteString(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 0))
	for _, tC := range stringTc {
		if tC.expectErr != nil {
			continue
		}

		t.Run(tC.desc, func(t *testing.T) {
			err := WriteString(buf, tC.v)
			if err != nil {
				t.Fatalf("WriteString failed: %v", err)
			}

			if !bytes.Equal(buf.Bytes(), tC.ser) {
				t.Errorf("WriteString expected %x, got %x", tC.ser, buf.Bytes())
			}
		})
		buf.Reset()
	}
}

func TestReadString(t *testing.T) {
	for _, tC := range stringTc {
		t.Run(tC.desc, func(t *testing.T) {
			r := NewFrameReader(tC.ser)

			got, err := ReadString(&r)

			if tC.expectErr != nil {
				if err == nil {
					t.Fatalf("ReadString expected error %v, but succeeded and returned value %s", tC.expectErr, got)
				}
				if !errors.Is(err, tC.expectErr) {
					t.Errorf("ReadString expected error %v, but got error %v", tC.expectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadString failed: %v", err)
			}

			if got != tC.v {
				t.Errorf("ReadString expected %s, got %s", tC.v, got)
			}

			if r.Remaining() != 0 {
				t.Errorf("Reader did not consume all bytes. %d bytes remaining.", r.Remaining())
			}
		})
	}
}

// A 255 character string may take up to 4 bytes per character.
func TestReadString_MultiByteAtLimit(t *testing.T) {
	v := strings.Repeat("é", MaxStringLen)

	var buf bytes.Buffer
	if err := WriteString(&buf, v); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}

	got, err := ReadString(&buf)
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if got != v {
		t.Errorf("ReadString returned %d characters, want %d", len([]rune(got)), MaxStringLen)
	}
}

var legacyStringTc = []TestCase[string]{
	{
		desc: "Empty string",
		v:    "",
		ser:  []byte{0x00, 0x00},
	},
	{
		desc: "Ping host",
		v:    "MC|PingHost",
		ser: []byte{
			0x00, 0x0b,
			0x00, 0x4d, 0x00, 0x43, 0x00, 0x7c, 0x00, 0x50, 0x00, 0x69, 0x00, 0x6e,
			0x00, 0x67, 0x00, 0x48, 0x00, 0x6f, 0x00, 0x73, 0x00, 0x74,
		},
	},
	{
		desc: "Section sign",
		v:    "§1",
		ser:  []byte{0x00, 0x02, 0x00, 0xa7, 0x00, 0x31},
	},
	{
		desc:      "Read fail: EOF on length",
		expectErr: io.ErrUnexpectedEOF,
		ser:       []byte{0x00},
	},
	{
		desc:      "Read fail: EOF reading content",
		expectErr: io.ErrUnexpectedEOF,
		ser:       []byte{0x00, 0x03, 0x00, 0x61},
	},
	{
		desc:      "Read fail: hostile length",
		expectErr: ErrStringTooLong,
		ser:       []byte{0xff, 0xff},
	},
}

func TestWriteLegacyString(t *testing.T) {
	for _, tC := range legacyStringTc {
		if tC.expectErr != nil {
			continue
		}

		t.Run(tC.desc, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteLegacyString(&buf, tC.v); err != nil {
				t.Fatalf("WriteLegacyString failed: %v", err)
			}

			if !bytes.Equal(buf.Bytes(), tC.ser) {
				t.Errorf("WriteLegacyString expected %x, got %x", tC.ser, buf.Bytes())
			}
		})
	}
}

func TestReadLegacyString(t *testing.T) {
	for _, tC := range legacyStringTc {
		t.Run(tC.desc, func(t *testing.T) {
			r := NewFrameReader(tC.ser)

			got, err := ReadLegacyString(&r)

			if tC.expectErr != nil {
				if !errors.Is(err, tC.expectErr) {
					t.Errorf("ReadLegacyString expected error %v, but got error %v", tC.expectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadLegacyString failed: %v", err)
			}
			if got != tC.v {
				t.Errorf("ReadLegacyString expected %q, got %q", tC.v, got)
			}
			if r.Remaining() != 0 {
				t.Errorf("Reader did not consume all bytes. %d bytes remaining.", r.Remaining())
			}
		})
	}
}

// The two string forms are distinct encodings; feeding one to the other's
// reader must fail or produce garbage, never panic.
func TestStringForms_NotInterchangeable(t *testing.T) {
	var modern, legacy bytes.Buffer
	WriteString(&modern, "localhost")
	WriteLegacyString(&legacy, "localhost")

	r := NewFrameReader(modern.Bytes())
	if got, err := ReadLegacyString(&r); err == nil && got == "localhost" {
		t.Errorf("ReadLegacyString decoded a modern string")
	}

	r = NewFrameReader(legacy.Bytes())
	if got, err := ReadString(&r); err == nil && got == "localhost" {
		t.Errorf("ReadString decoded a legacy string")
	}
}

func TestReadFixed(t *testing.T) {
	r := NewFrameReader([]byte{
		0x63, 0xdd, // uint16 25565
		0xff, 0xfe, // int16 -2
		0x00, 0x00, 0x63, 0xdd, // int32 25565
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // int64
	})

	port, err := ReadUnsignedShort(&r)
	if err != nil || port != 25565 {
		t.Errorf("ReadUnsignedShort = %d, %v", port, err)
	}
	short, err := ReadShort(&r)
	if err != nil || short != -2 {
		t.Errorf("ReadShort = %d, %v", short, err)
	}
	i, err := ReadInt(&r)
	if err != nil || i != 25565 {
		t.Errorf("ReadInt = %d, %v", i, err)
	}
	l, err := ReadLong(&r)
	if err != nil || l != 0x0102030405060708 {
		t.Errorf("ReadLong = %x, %v", l, err)
	}
}

func TestReadFixed_ShortReadIsZero(t *testing.T) {
	r := NewFrameReader([]byte{0x01, 0x02, 0x03})

	v, err := ReadLong(&r)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadLong expected io.ErrUnexpectedEOF, got %v", err)
	}
	if v != 0 {
		t.Errorf("ReadLong expected zero value on short read, got %d", v)
	}
}

func TestWriteFixed(t *testing.T) {
	var buf bytes.Buffer
	WriteUnsignedShort(&buf, 25565)
	WriteInt(&buf, -1)
	WriteLong(&buf, 0x0102030405060708)

	want := []byte{
		0x63, 0xdd,
		0xff, 0xff, 0xff, 0xff,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteFixed expected %x, got %x", want, buf.Bytes())
	}
}

func TestReadUUIDLE(t *testing.T) {
	wire := []byte{
		0x10, 0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	want := uuid.UUID{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}

	r := NewFrameReader(wire)
	got, err := ReadUUIDLE(&r)
	if err != nil {
		t.Fatalf("ReadUUIDLE failed: %v", err)
	}
	if got != want {
		t.Errorf("ReadUUIDLE expected %s, got %s", want, got)
	}

	var buf bytes.Buffer
	WriteUUIDLE(&buf, got)
	if !bytes.Equal(buf.Bytes(), wire) {
		t.Errorf("WriteUUIDLE expected %x, got %x", wire, buf.Bytes())
	}
}
