package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gstoney/mcpot"
)

var csvHeader = []string{
	"ip",
	"protocol_version",
	"game_version",
	"hostname",
	"player_name",
	"player_uuid",
	"timestamp",
	"sensor",
}

// CSV appends one row per event. The header is written only when the
// file starts out empty.
type CSV struct {
	f *os.File
	w *csv.Writer
}

func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &CSV{f: f, w: csv.NewWriter(f)}
	if fi.Size() == 0 {
		if err := s.writeRow(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

func csvRecord(ev mcpot.LoginEvent) []string {
	return []string{
		ev.IP,
		strconv.FormatInt(int64(ev.ProtocolVersion), 10),
		ev.GameVersion,
		ev.Hostname,
		ev.PlayerName,
		ev.PlayerUUID.String(),
		ev.Timestamp.Format(time.RFC3339Nano),
		ev.Sensor,
	}
}

func (s *CSV) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSV) Write(ev mcpot.LoginEvent) error {
	return s.writeRow(csvRecord(ev))
}

func (s *CSV) Name() string {
	return FormatCSV
}

func (s *CSV) Close() error {
	s.w.Flush()
	return s.f.Close()
}
