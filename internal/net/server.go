package net

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/enginert/runtime/internal/core/event"
	"go.uber.org/zap"
)

// Options tunes a Server.
type Options struct {
	// LinesPerSecond disconnects peers sending faster (0 = unlimited).
	LinesPerSecond int
	// Translate maps key names before they reach the bus.
	Translate func(string) string
}

// Server accepts TCP connections speaking the line-based input protocol and
// forwards their events onto the same queues the local input reader feeds.
// Only the update loop drains those queues, so sessions never touch the world.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	keys     chan<- event.KeyEvent
	mouse    chan<- event.MouseEvent
	opts     Options
	log      *zap.Logger
	closeCh  chan struct{}

	// mu orders session registration (and wg.Add) against Shutdown.
	mu       sync.Mutex
	closing  bool
	sessions map[uint64]*Session
	wg       sync.WaitGroup
}

func NewServer(bindAddr string, keys chan<- event.KeyEvent, mouse chan<- event.MouseEvent, opts Options, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		listener: ln,
		keys:     keys,
		mouse:    mouse,
		opts:     opts,
		log:      log,
		closeCh:  make(chan struct{}),
		sessions: make(map[uint64]*Session),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept input connection", zap.Error(err))
			continue
		}

		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			conn.Close()
			return
		}
		id := s.nextID.Add(1)
		sess := newSession(conn, id, s, s.log)
		s.sessions[id] = sess
		s.wg.Add(1)
		s.mu.Unlock()

		s.log.Info("input session connected", zap.Uint64("session", id), zap.String("ip", sess.IP))
		go func() {
			defer s.wg.Done()
			sess.run()
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			s.log.Info("input session closed", zap.Uint64("session", id))
		}()
	}
}

// Sessions returns the number of connected peers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops accepting connections, closes every session and waits for
// their goroutines. Later calls are no-ops.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	close(s.closeCh)
	s.listener.Close()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// forward blocks until the command is queued or the session closes.
func (s *Server) forward(cmd Command, closeCh <-chan struct{}) bool {
	for _, k := range cmd.Keys {
		select {
		case s.keys <- k:
		case <-closeCh:
			return false
		}
	}
	for _, m := range cmd.Mouse {
		if s.mouse == nil {
			break
		}
		select {
		case s.mouse <- m:
		case <-closeCh:
			return false
		}
	}
	return true
}
