package tcp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jennifer4569/Tetris-Battle/internal/config"
)

// echoHandler is a test SessionHandler that echoes lines back to the client.
type echoHandler struct {
	sessionCount atomic.Int32
}

func (h *echoHandler) HandleSession(_ context.Context, conn *Conn) error {
	h.sessionCount.Add(1)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			_ = conn.WriteLine("bye")
			return nil
		}
		_ = conn.WriteLine("echo: " + line)
	}
}

// startAcceptor runs an acceptor on a random port and returns it with its address.
func startAcceptor(t *testing.T, handler SessionHandler) (*Acceptor, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := config.ListenConfig{
		Host:         "127.0.0.1",
		Port:         0, // random port
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	acc := NewAcceptor(cfg, handler, logger)
	go func() { _ = acc.ListenAndServe() }()

	deadline := time.After(2 * time.Second)
	for {
		if acc.IsRunning() && acc.Addr() != "" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("acceptor did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	return acc, acc.Addr()
}

func TestAcceptorStartAndStop(t *testing.T) {
	handler := &echoHandler{}
	acc, addr := startAcceptor(t, handler)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)

	_, err = conn.Write([]byte("hello\n"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "echo: hello")

	_, _ = conn.Write([]byte("quit\n"))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _ = conn.Read(buf)
	assert.Contains(t, string(buf[:n]), "bye")

	conn.Close()
	acc.Stop()

	assert.Equal(t, int32(1), handler.sessionCount.Load())
}

func TestAcceptorMultipleClients(t *testing.T) {
	handler := &echoHandler{}
	acc, addr := startAcceptor(t, handler)
	defer acc.Stop()

	const clients = 5
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func() {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
			if err != nil {
				t.Error(err)
				return
			}
			defer conn.Close()

			_, _ = conn.Write([]byte("ping\n"))
			buf := make([]byte, 64)
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			n, err := conn.Read(buf)
			if err != nil {
				t.Error(err)
				return
			}
			if string(buf[:n]) != "echo: ping\n" {
				t.Errorf("unexpected reply %q", string(buf[:n]))
			}
			_, _ = conn.Write([]byte("quit\n"))
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _ = conn.Read(buf)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(clients), handler.sessionCount.Load())
}

func TestAcceptorStopUnblocksSessions(t *testing.T) {
	handler := &echoHandler{}
	acc, addr := startAcceptor(t, handler)

	// Connect a client that sends nothing; its worker blocks in ReadLine.
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		acc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not unblock the idle session")
	}
}

func TestAcceptorStopIdempotent(t *testing.T) {
	handler := &echoHandler{}
	acc, _ := startAcceptor(t, handler)
	acc.Stop()
	acc.Stop()
	assert.False(t, acc.IsRunning())
}
