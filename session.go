package mcpot

import (
	"errors"
	"fmt"
	"net"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/gstoney/mcpot/packet"
)

var ErrInvalidNextState = errors.New("invalid next state")

// State is the phase a connection is in. Each state is entered at most
// once and in order.
type State byte

const (
	StateStart State = iota
	StateLegacy
	StateHandshaking
	StateStatus
	StateLogin
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLegacy:
		return "legacy"
	case StateHandshaking:
		return "handshaking"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StateTerminal:
		return "terminal"
	}
	return "invalid"
}

// A Session drives a single connection from its first byte to a
// terminal state.
type Session struct {
	RemoteAddr net.Addr
	State      State

	Handshake packet.Handshake
	Login     packet.LoginStart

	t      *Transport
	srv    *Server
	logger zerolog.Logger
}

// NewSession prepares a session over t. The server supplies the status
// configuration, the sensor name and the sink.
func (s *Server) NewSession(t *Transport, remote net.Addr) *Session {
	return &Session{
		RemoteAddr: remote,
		State:      StateStart,
		t:          t,
		srv:        s,
		logger: s.logger.With().
			Str("conn", connID()).
			Str("remote", addrString(remote)).
			Str("scope", AddrScope(remote)).
			Logger(),
	}
}

func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

// Run reads the first byte to pick the dialect and follows the matching
// exchange. It returns once the connection reaches a terminal state; the
// caller closes the connection.
func (s *Session) Run() (err error) {
	defer s.enter(StateTerminal)

	first, err := s.t.Peek()
	if err != nil {
		return err
	}

	if first == packet.LegacyPingID {
		s.enter(StateLegacy)
		return s.legacyPing()
	}

	s.enter(StateHandshaking)
	if err = s.expect(&s.Handshake); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	hs := s.Handshake
	s.logger = s.logger.With().
		Int32("protocol", hs.ProtocolVersion).
		Str("version", packet.ModernVersionName(hs.ProtocolVersion)).
		Str("hostname", hs.ServerAddr).
		Uint16("port", hs.ServerPort).
		Logger()

	switch hs.NextState {
	case packet.NextStateStatus:
		s.enter(StateStatus)
		return s.status()
	case packet.NextStateLogin, packet.NextStateTransfer:
		s.enter(StateLogin)
		return s.login()
	default:
		return fmt.Errorf("%w: %d", ErrInvalidNextState, hs.NextState)
	}
}

func (s *Session) enter(st State) {
	s.State = st
	s.logger.Trace().Stringer("state", st).Msg("state")
}

// expect receives one packet into p. A different id aborts the session.
// Unread bytes of the frame are discarded so the next header is aligned.
func (s *Session) expect(p packet.Packet) error {
	h, r, err := s.t.Recv()
	if err != nil {
		return err
	}
	if h.ID != p.ID() {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", packet.ErrUnexpectedPacket, h.ID, p.ID())
	}

	if err = p.Decode(r); err != nil {
		return err
	}
	if n, err := r.Discard(); err != nil {
		return err
	} else if n > 0 {
		s.logger.Debug().Int32("bytes", n).Msg("discarded trailing packet bytes")
	}
	return nil
}

func (s *Session) legacyPing() error {
	var ping packet.LegacyPing
	if err := ping.Decode(s.t.Reader()); err != nil {
		return fmt.Errorf("legacy ping: %w", err)
	}

	if err := s.t.SendRaw(packet.LegacyPingResponse{}); err != nil {
		return err
	}

	s.logger.Info().
		Uint8("protocol", ping.ProtocolVersion).
		Str("version", packet.LegacyVersionName(ping.ProtocolVersion)).
		Str("hostname", ping.Hostname).
		Int32("port", ping.Port).
		Msg("legacy ping")
	return nil
}

func (s *Session) status() error {
	var req packet.StatusRequest
	if err := s.expect(&req); err != nil {
		return fmt.Errorf("status request: %w", err)
	}

	resp, err := packet.NewStatusResponse(s.Handshake.ProtocolVersion, s.srv.cfg.Status)
	if err != nil {
		return err
	}
	if err = s.t.SendPacket(resp); err != nil {
		return err
	}

	var ping packet.Ping
	if err = s.expect(&ping); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if err = s.t.SendPacket(packet.Pong{Payload: ping.Payload}); err != nil {
		return err
	}

	s.logger.Info().Msg("status ping")
	return nil
}

func (s *Session) login() error {
	if err := s.expect(&s.Login); err != nil {
		return fmt.Errorf("login start: %w", err)
	}

	ev := LoginEvent{
		IP:              addrString(s.RemoteAddr),
		ProtocolVersion: s.Handshake.ProtocolVersion,
		GameVersion:     packet.ModernVersionName(s.Handshake.ProtocolVersion),
		Hostname:        s.Handshake.ServerAddr,
		PlayerName:      s.Login.Name,
		PlayerUUID:      s.Login.PlayerUUID,
		Timestamp:       time.Now(),
		Sensor:          s.srv.cfg.Sensor,
	}

	s.logger.Info().
		Str("player", ev.PlayerName).
		Str("uuid", ev.PlayerUUID.String()).
		Msg("login")

	if s.srv.sink == nil {
		return nil
	}
	if err := s.srv.sink.Write(ev); err != nil {
		s.logger.Error().Err(err).Str("sink", s.srv.sink.Name()).Msg("failed to record login")
	}
	return nil
}

// connID names a connection in the logs. A failed id draw falls back to
// a placeholder rather than an empty field.
func connID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		return "-"
	}
	return id
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
