package sink

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/gstoney/mcpot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON keeps every event in memory and rewrites the file as one JSON
// array after each write. Existing entries are loaded on open.
type JSON struct {
	f       *os.File
	entries []mcpot.LoginEvent
}

func NewJSON(path string) (*JSON, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	s := &JSON{f: f}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("existing JSON log is unreadable, starting a new one")
			s.entries = nil
		}
	}
	return s, nil
}

// Write rewrites the file with ev appended. If that fails, ev is dropped
// so the entries keep matching what was last written.
func (s *JSON) Write(ev mcpot.LoginEvent) (err error) {
	s.entries = append(s.entries, ev)
	defer func() {
		if err != nil {
			s.entries = s.entries[:len(s.entries)-1]
		}
	}()

	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if _, err = s.f.WriteAt(data, 0); err != nil {
		return err
	}
	return s.f.Truncate(int64(len(data)))
}

func (s *JSON) Entries() []mcpot.LoginEvent {
	return append([]mcpot.LoginEvent(nil), s.entries...)
}

func (s *JSON) Name() string {
	return FormatJSON
}

func (s *JSON) Close() error {
	return s.f.Close()
}
