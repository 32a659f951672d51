package net

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Session is one input connection. Reading and writing run on their own
// goroutines and replies are queued, so a slow peer never blocks the reader.
// Only the reader sends on out.
type Session struct {
	ID   uint64
	IP   string
	conn net.Conn
	srv  *Server

	out chan string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second line rate limiter (reader goroutine only)
	lineCount int
	resetAt   int64

	log *zap.Logger
}

func newSession(conn net.Conn, id uint64, srv *Server, log *zap.Logger) *Session {
	return &Session{
		ID:      id,
		IP:      conn.RemoteAddr().String(),
		conn:    conn,
		srv:     srv,
		out:     make(chan string, 32),
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint64("session", id)),
	}
}

// run serves the session until the peer disconnects or Close is called.
// Replies queued before the reader stops are flushed before the connection
// is closed.
func (s *Session) run() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop()
	}()
	s.readLoop()
	close(s.out)
	<-done
	s.Close()
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) reply(msg string) {
	select {
	case s.out <- msg:
	default:
		s.log.Warn("reply queue full, dropping slow peer")
		s.Close()
	}
}

func (s *Session) readLoop() {
	sc := bufio.NewScanner(s.conn)
	for sc.Scan() {
		if limit := s.srv.opts.LinesPerSecond; limit > 0 {
			now := time.Now().Unix()
			if now != s.resetAt {
				s.lineCount = 0
				s.resetAt = now
			}
			s.lineCount++
			if s.lineCount > limit {
				s.log.Warn("input rate exceeded", zap.Int("lps", s.lineCount))
				return
			}
		}

		cmd, err := ParseCommand(sc.Text(), s.srv.opts.Translate)
		if err != nil {
			s.reply(fmt.Sprintf("err %v", err))
			continue
		}
		if cmd.Quit {
			s.reply("bye")
			return
		}
		if !s.srv.forward(cmd, s.closeCh) {
			return
		}
		s.reply("ok")
	}
	if err := sc.Err(); err != nil && !s.closed.Load() {
		s.log.Debug("read error", zap.Error(err))
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case msg, ok := <-s.out:
			if !ok || !s.writeLine(msg) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLine(msg string) bool {
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if _, err := fmt.Fprintln(s.conn, msg); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
