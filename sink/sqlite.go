package sink

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/gstoney/mcpot"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS login_events (
	ip TEXT,
	version INTEGER,
	mc_version TEXT,
	hostname TEXT,
	player_name TEXT,
	player_uuid TEXT,
	sensor TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// SQLite inserts one row per event into the login_events table.
type SQLite struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLite opens or creates the database at path and makes sure the
// table exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warn().Err(err).Msg("failed to enable WAL mode")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create login_events table: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Write(ev mcpot.LoginEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO login_events
		(ip, version, mc_version, hostname, player_name, player_uuid, sensor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.IP,
		ev.ProtocolVersion,
		ev.GameVersion,
		ev.Hostname,
		ev.PlayerName,
		ev.PlayerUUID.String(),
		ev.Sensor,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]mcpot.LoginEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		ip, version, mc_version, hostname, player_name, player_uuid, sensor, created_at
		FROM login_events ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []mcpot.LoginEvent
	for rows.Next() {
		var (
			ev        mcpot.LoginEvent
			id        string
			sensor    sql.NullString
			createdAt interface{}
		)
		if err := rows.Scan(&ev.IP, &ev.ProtocolVersion, &ev.GameVersion, &ev.Hostname,
			&ev.PlayerName, &id, &sensor, &createdAt); err != nil {
			return nil, err
		}
		ev.PlayerUUID, _ = uuid.Parse(id)
		ev.Sensor = sensor.String
		ev.Timestamp = parseTimestamp(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of stored events.
func (s *SQLite) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM login_events").Scan(&n)
	return
}

// parseTimestamp accepts what the driver hands back for a DATETIME
// column: a time.Time, or the stored text.
func parseTimestamp(v interface{}) time.Time {
	var text string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		text = t
	case []byte:
		text = string(t)
	default:
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func (s *SQLite) Name() string {
	return FormatSQLite
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
