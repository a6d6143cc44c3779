package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstoney/mcpot"
)

func testEvent(name string) mcpot.LoginEvent {
	return mcpot.LoginEvent{
		IP:              "203.0.113.7:51234",
		ProtocolVersion: 767,
		GameVersion:     "1.21.1",
		Hostname:        "mc.example.net",
		PlayerName:      name,
		PlayerUUID:      uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10"),
		Timestamp:       time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC),
		Sensor:          "sensor-1",
	}
}

type failingSink struct {
	name   string
	err    error
	writes int
	closed bool
}

func (f *failingSink) Write(mcpot.LoginEvent) error {
	f.writes++
	return f.err
}

func (f *failingSink) Name() string { return f.name }

func (f *failingSink) Close() error {
	f.closed = true
	return nil
}

func TestParseFormats(t *testing.T) {
	testCases := []struct {
		desc      string
		in        string
		want      []string
		expectErr bool
	}{
		{desc: "Single", in: "json", want: []string{"json"}},
		{desc: "Ordered", in: "csv,json,sqlite", want: []string{"csv", "json", "sqlite"}},
		{desc: "Spaces and case", in: " JSON , Csv ", want: []string{"json", "csv"}},
		{desc: "Empty entries", in: "json,,csv,", want: []string{"json", "csv"}},
		{desc: "Empty", in: "", want: nil},
		{desc: "Unknown", in: "json,xml", expectErr: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got, err := ParseFormats(tC.in)
			if tC.expectErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestMulti_NameOrder(t *testing.T) {
	m := NewMulti(&failingSink{name: "json"}, &failingSink{name: "csv"})
	assert.Equal(t, "json,csv", m.Name())

	m.Add(&failingSink{name: "sqlite"})
	assert.Equal(t, "json,csv,sqlite", m.Name())
	assert.Equal(t, 3, m.Len())

	assert.Equal(t, "", NewMulti().Name())
}

func TestMulti_WriteContinuesPastErrors(t *testing.T) {
	first := &failingSink{name: "first", err: errors.New("boom")}
	second := &failingSink{name: "second"}
	m := NewMulti(first, second)

	err := m.Write(testEvent("Steve"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first: boom")
	assert.Equal(t, 1, first.writes)
	assert.Equal(t, 1, second.writes)

	require.NoError(t, m.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestOpen_FileFormats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	opts := Options{FileName: "logins", OutputDir: dir}

	m, err := Open([]string{FormatJSON, FormatCSV, FormatSQLite}, opts)
	require.NoError(t, err)
	assert.Equal(t, "json,csv,sqlite", m.Name())

	require.NoError(t, m.Write(testEvent("Steve")))
	require.NoError(t, m.Close())

	for _, f := range []string{"logins.json", "logins.csv", "logins.sqlite"} {
		fi, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, f)
		assert.NotZero(t, fi.Size(), f)
	}
}

func TestOpen_Errors(t *testing.T) {
	opts := Options{FileName: "logins", OutputDir: t.TempDir()}

	_, err := Open([]string{FormatJSON, "xml"}, opts)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Open([]string{FormatBeats}, opts)
	assert.ErrorIs(t, err, ErrNoEndpoint)

	_, err = Open([]string{FormatMQTT}, opts)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
