package net

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/enginert/runtime/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	upper := strings.ToUpper

	cmd, err := ParseCommand("  ", nil)
	require.NoError(t, err)
	assert.Empty(t, cmd.Keys)
	assert.False(t, cmd.Quit)

	cmd, err = ParseCommand("key w down", upper)
	require.NoError(t, err)
	assert.Equal(t, []event.KeyEvent{{Key: "W", Pressed: true}}, cmd.Keys)

	cmd, err = ParseCommand("key w", nil)
	require.NoError(t, err)
	assert.Equal(t, []event.KeyEvent{{Key: "w", Pressed: true}, {Key: "w", Pressed: false}}, cmd.Keys)

	cmd, err = ParseCommand("a b", nil)
	require.NoError(t, err)
	assert.Len(t, cmd.Keys, 4)
	assert.Equal(t, "b", cmd.Keys[2].Key)

	cmd, err = ParseCommand("mouse 1.5 -2", nil)
	require.NoError(t, err)
	assert.Equal(t, []event.MouseEvent{{X: 1.5, Y: -2, Pressed: true}}, cmd.Mouse)

	cmd, err = ParseCommand("mouse 0 0 2 up", nil)
	require.NoError(t, err)
	assert.Equal(t, event.MouseEvent{Button: 2}, cmd.Mouse[0])

	cmd, err = ParseCommand("QUIT", nil)
	require.NoError(t, err)
	assert.True(t, cmd.Quit)

	for _, bad := range []string{"key", "key a b c", "key a sideways", "mouse 1", "mouse x 1", "mouse 1 1 1 up extra", "quit now"} {
		_, err := ParseCommand(bad, nil)
		assert.Error(t, err, bad)
	}
}

func startServer(t *testing.T, opts Options) (*Server, chan event.KeyEvent, chan event.MouseEvent) {
	t.Helper()
	keys := make(chan event.KeyEvent, 16)
	mouse := make(chan event.MouseEvent, 16)
	s, err := NewServer("127.0.0.1:0", keys, mouse, opts, nil)
	require.NoError(t, err)
	go s.AcceptLoop()
	t.Cleanup(s.Shutdown)
	return s, keys, mouse
}

func dial(t *testing.T, s *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSpace(line)
}

func TestServerForwardsEvents(t *testing.T) {
	s, keys, mouse := startServer(t, Options{Translate: strings.ToUpper})
	conn, r := dial(t, s)

	_, err := conn.Write([]byte("key w down\nmouse 4 5\nkey\nquit\n"))
	require.NoError(t, err)

	assert.Equal(t, "ok", readLine(t, r))
	assert.Equal(t, "ok", readLine(t, r))
	assert.True(t, strings.HasPrefix(readLine(t, r), "err "))
	assert.Equal(t, "bye", readLine(t, r))

	assert.Equal(t, event.KeyEvent{Key: "W", Pressed: true}, <-keys)
	assert.Equal(t, event.MouseEvent{X: 4, Y: 5, Pressed: true}, <-mouse)

	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServerDropsFloodingPeer(t *testing.T) {
	s, _, _ := startServer(t, Options{LinesPerSecond: 2})
	conn, r := dial(t, s)

	_, err := conn.Write([]byte("a\nb\nc\nd\n"))
	require.NoError(t, err)

	var replies []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		replies = append(replies, strings.TrimSpace(line))
	}
	assert.LessOrEqual(t, len(replies), 3)
	assert.Eventually(t, func() bool { return s.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesSessions(t *testing.T) {
	keys := make(chan event.KeyEvent)
	s, err := NewServer("127.0.0.1:0", keys, nil, Options{}, nil)
	require.NoError(t, err)
	go s.AcceptLoop()

	conn, _ := dial(t, s)
	// Unbuffered and never drained: the session blocks forwarding.
	_, err = conn.Write([]byte("x\n"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return s.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, 0, s.Sessions())
}

func TestShutdownRacesAccept(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", make(chan event.KeyEvent, 1), nil, Options{}, nil)
	require.NoError(t, err)
	go s.AcceptLoop()
	addr := s.Addr().String()

	stop := make(chan struct{})
	dialed := make(chan struct{})
	go func() {
		defer close(dialed)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if conn, err := net.Dial("tcp", addr); err == nil {
				conn.Close()
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	s.Shutdown()
	close(stop)
	<-dialed

	assert.Equal(t, 0, s.Sessions())
	s.Shutdown()
}
