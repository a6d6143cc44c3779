package mcpot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gstoney/mcpot/logging"
	"github.com/gstoney/mcpot/packet"
)

var (
	ErrAddrInUse        = errors.New("address already in use")
	ErrPermissionDenied = errors.New("permission denied")
)

// ServerConfig is what a Server needs from the process configuration.
type ServerConfig struct {
	Status       packet.StatusConfig
	MaxPacketLen int32
	Sensor       string
}

// A Server accepts connections and runs a Session for each of them.
// Completed logins are written to its sink, one at a time.
type Server struct {
	cfg    ServerConfig
	sink   *LockedSink
	logger zerolog.Logger

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a Server. sink may be nil, in which case logins are
// only logged.
func NewServer(cfg ServerConfig, sink EventSink) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logging.Component("server"),
		conns:  make(map[net.Conn]struct{}),
	}
	if sink != nil {
		s.sink = NewLockedSink(sink)
	}
	return s
}

// Listen binds a TCP listener on every IPv4 address. The two bind
// failures an operator can act on are reported as ErrAddrInUse and
// ErrPermissionDenied.
func Listen(port int) (net.Listener, error) {
	l, err := net.Listen("tcp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
	if err != nil {
		switch {
		case errors.Is(err, syscall.EADDRINUSE):
			return nil, fmt.Errorf("port %d: %w", port, ErrAddrInUse)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("port %d: %w", port, ErrPermissionDenied)
		}
		return nil, err
	}
	return l, nil
}

// Serve accepts incoming connections on the Listener l,
// creating a new goroutine for each.
// Accept errors are logged and do not stop the loop. When ctx is done the
// listener and every open connection are closed, and Serve returns nil
// once all connection goroutines have finished.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			l.Close()
			s.closeConns()
		case <-stop:
		}
	}()

	s.logger.Info().Str("addr", l.Addr().String()).Msg("listening")

	for {
		c, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		s.track(c)
		s.wg.Add(1)
		go s.handle(c)
	}
}

func (s *Server) handle(c net.Conn) {
	defer s.wg.Done()
	defer s.untrack(c)
	defer c.Close()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("remote", addrString(c.RemoteAddr())).
				Bytes("stack", debug.Stack()).
				Msg("connection handler panicked")
		}
	}()

	t := NewTransport(c, c, TransportConfig{MaxPacketLen: s.cfg.MaxPacketLen})
	sess := s.NewSession(&t, c.RemoteAddr())

	err := sess.Run()
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		sess.Logger().Debug().Err(err).Msg("connection closed early")
	default:
		sess.Logger().Warn().Err(err).Msg("connection aborted")
	}
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		c.Close()
	}
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	for c := range s.conns {
		c.Close()
	}
}
