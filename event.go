package mcpot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LoginEvent records one completed login attempt.
type LoginEvent struct {
	IP              string    `json:"ip"` // remote host:port
	ProtocolVersion int32     `json:"protocol_version"`
	GameVersion     string    `json:"game_version"`
	Hostname        string    `json:"hostname"`
	PlayerName      string    `json:"player_name"`
	PlayerUUID      uuid.UUID `json:"player_uuid"`
	Timestamp       time.Time `json:"timestamp"`
	Sensor          string    `json:"sensor,omitempty"`
}

// EventSink persists login events. Implementations need not be safe for
// concurrent use; the server serializes writes through a LockedSink.
type EventSink interface {
	Write(ev LoginEvent) error
	Name() string
	Close() error
}

// LockedSink guards a sink with a single mutex held for one Write at a
// time.
type LockedSink struct {
	mu   sync.Mutex
	sink EventSink
}

func NewLockedSink(s EventSink) *LockedSink {
	return &LockedSink{sink: s}
}

func (l *LockedSink) Write(ev LoginEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink.Write(ev)
}

func (l *LockedSink) Name() string {
	return l.sink.Name()
}

func (l *LockedSink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink.Close()
}
