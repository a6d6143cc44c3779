package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gstoney/mcpot"
)

func TestPrintLogins(t *testing.T) {
	var buf bytes.Buffer
	printLogins(&buf, []mcpot.LoginEvent{{
		IP:              "203.0.113.7:51234",
		ProtocolVersion: 767,
		GameVersion:     "1.21.1",
		Hostname:        "mc.example.net",
		PlayerName:      "Notch",
		PlayerUUID:      uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5"),
		Timestamp:       time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC),
		Sensor:          "sensor-1",
	}})

	out := buf.String()
	for _, want := range []string{"PLAYER", "203.0.113.7:51234", "767", "1.21.1", "mc.example.net", "Notch", "069a79f4-44e9-4726-a5be-fca90e38aaf5", "sensor-1"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintLogins_Empty(t *testing.T) {
	var buf bytes.Buffer
	printLogins(&buf, nil)
	assert.Contains(t, buf.String(), "HOSTNAME")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "mcpot "+Version)
}
