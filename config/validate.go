package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gstoney/mcpot/sink"
)

// ValidationError reports one bad setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// Validate checks the settings the server can't run without. All
// problems are returned together.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Port < 1 || c.Port > 65535 {
		add("port", "must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxPlayers < 0 {
		add("max_players", "must not be negative")
	}
	if c.OnlinePlayers < 0 {
		add("online_players", "must not be negative")
	}
	if c.MaxPacketLen <= 0 {
		add("max_packet_len", "must be positive")
	}
	if strings.TrimSpace(c.FileName) == "" {
		add("file_name", "is required")
	}

	formats, err := sink.ParseFormats(c.Formats)
	if err != nil {
		add("formats", "%v", err)
	}
	for _, f := range formats {
		switch {
		case f == sink.FormatBeats && c.Beats.Endpoint == "":
			add("beats.endpoint", "is required by the beats format")
		case f == sink.FormatMQTT && c.MQTT.Broker == "":
			add("mqtt.broker", "is required by the mqtt format")
		}
	}

	if c.API.Addr != "" && c.API.Recent <= 0 {
		add("api.recent", "must be positive when the API is enabled")
	}

	return errors.Join(errs...)
}

// FormatList returns the parsed formats. Call Validate first.
func (c *Config) FormatList() []string {
	formats, _ := sink.ParseFormats(c.Formats)
	return formats
}
