package sink

import (
	"errors"
	"fmt"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"

	"github.com/gstoney/mcpot"
)

var ErrNoEndpoint = errors.New("no endpoint configured")

// Beats forwards events to a Logstash beats input over the lumberjack v2
// protocol.
type Beats struct {
	client   *lumberjack.SyncClient
	endpoint string
}

func NewBeats(endpoint string) (*Beats, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("beats: %w", ErrNoEndpoint)
	}

	compression := lumberjack.CompressionLevel(0)
	timeout := lumberjack.Timeout(3 * time.Second)

	client, err := lumberjack.SyncDial(endpoint, compression, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed connection to beats server: %w", err)
	}

	return &Beats{client: client, endpoint: endpoint}, nil
}

// beatsFields shapes an event the way Logstash expects a beat document.
func beatsFields(ev mcpot.LoginEvent) map[string]interface{} {
	return map[string]interface{}{
		"@timestamp": ev.Timestamp.UTC(),
		"message":    fmt.Sprintf("minecraft login from %s as %s", ev.IP, ev.PlayerName),

		"source": map[string]interface{}{
			"address": ev.IP,
		},
		"destination": map[string]interface{}{
			"domain": ev.Hostname,
		},
		"user": map[string]interface{}{
			"name": ev.PlayerName,
			"id":   ev.PlayerUUID.String(),
		},
		"minecraft": map[string]interface{}{
			"protocol_version": ev.ProtocolVersion,
			"game_version":     ev.GameVersion,
		},
		"observer": map[string]interface{}{
			"name": ev.Sensor,
			"type": "honeypot",
		},
		"event": map[string]interface{}{
			"kind":     "event",
			"category": "network",
			"action":   "login",
		},
	}
}

func (s *Beats) Write(ev mcpot.LoginEvent) error {
	_, err := s.client.Send([]interface{}{beatsFields(ev)})
	return err
}

func (s *Beats) Name() string {
	return FormatBeats
}

func (s *Beats) Close() error {
	return s.client.Close()
}
