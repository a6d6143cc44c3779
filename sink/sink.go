// Package sink provides the storage and forwarding backends login events
// are written to.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gstoney/mcpot"
)

var ErrUnknownFormat = errors.New("unknown format")

const (
	FormatJSON   = "json"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatBeats  = "beats"
	FormatMQTT   = "mqtt"
)

// Formats lists every name accepted by Open.
var Formats = []string{FormatJSON, FormatCSV, FormatSQLite, FormatBeats, FormatMQTT}

// ParseFormats splits a comma-separated format list. Names are trimmed
// and lowercased; empty entries are skipped.
func ParseFormats(s string) (formats []string, err error) {
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !known(f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		formats = append(formats, f)
	}
	return
}

func known(f string) bool {
	for _, k := range Formats {
		if f == k {
			return true
		}
	}
	return false
}

// Options carries what the backends need to open.
type Options struct {
	FileName  string
	OutputDir string

	BeatsEndpoint string
	MQTT          MQTTOptions
}

// Path returns the file a file-backed format writes to.
func (o Options) Path(format string) string {
	return filepath.Join(o.OutputDir, o.FileName+"."+format)
}

// Open creates one backend per format, in order, and combines them. If
// any backend fails to open, those already opened are closed.
func Open(formats []string, opts Options) (m *Multi, err error) {
	if opts.OutputDir != "" {
		if err = os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	m = NewMulti()
	defer func() {
		if err != nil {
			m.Close()
			m = nil
		}
	}()

	for _, f := range formats {
		var s mcpot.EventSink
		switch f {
		case FormatJSON:
			s, err = NewJSON(opts.Path(FormatJSON))
		case FormatCSV:
			s, err = NewCSV(opts.Path(FormatCSV))
		case FormatSQLite:
			s, err = NewSQLite(opts.Path(FormatSQLite))
		case FormatBeats:
			s, err = NewBeats(opts.BeatsEndpoint)
		case FormatMQTT:
			s, err = NewMQTT(opts.MQTT)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		if err != nil {
			return
		}
		m.Add(s)
		log.Debug().Str("sink", s.Name()).Msg("sink opened")
	}
	return
}

// Multi writes every event to each of its sinks in the order they were
// added.
type Multi struct {
	sinks []mcpot.EventSink
}

func NewMulti(sinks ...mcpot.EventSink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Add(s mcpot.EventSink) {
	m.sinks = append(m.sinks, s)
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

// Write hands ev to every sink even if an earlier one fails.
func (m *Multi) Write(ev mcpot.LoginEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name joins the sink names with commas, e.g. "json,csv".
func (m *Multi) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
