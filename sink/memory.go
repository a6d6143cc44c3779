package sink

import (
	"sync"
	"time"

	"github.com/gstoney/mcpot"
)

const DefaultRecent = 100

// Memory holds the most recent events in a fixed-size ring and keeps
// running totals over everything written. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	ring  []mcpot.LoginEvent
	next  int
	count int

	total     int
	byVersion map[string]int
	started   time.Time
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultRecent
	}
	return &Memory{
		ring:      make([]mcpot.LoginEvent, size),
		byVersion: make(map[string]int),
		started:   time.Now(),
	}
}

func (m *Memory) Write(ev mcpot.LoginEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ring[m.next] = ev
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}

	m.total++
	m.byVersion[ev.GameVersion]++
	return nil
}

// Recent returns up to limit events, newest first. A limit of zero or
// less returns everything held.
func (m *Memory) Recent(limit int) []mcpot.LoginEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > m.count {
		limit = m.count
	}

	out := make([]mcpot.LoginEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out
}

type Stats struct {
	Total         int            `json:"total"`
	ByGameVersion map[string]int `json:"by_game_version"`
	Since         time.Time      `json:"since"`
}

func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byVersion := make(map[string]int, len(m.byVersion))
	for k, v := range m.byVersion {
		byVersion[k] = v
	}
	return Stats{
		Total:         m.total,
		ByGameVersion: byVersion,
		Since:         m.started,
	}
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Close() error {
	return nil
}
