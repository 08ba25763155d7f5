package remote

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

const testWelcome = "Hello! Welcome to Beefmote's server. Type \"h\" for a list of available commands\n\n"

// freePort asks the OS for an ephemeral port the test server can bind.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal("failed to find a free port:", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func startTestServer(t *testing.T, fake *fakePlayer) (*Server, context.CancelFunc, *sync.WaitGroup) {
	t.Helper()

	s := &Server{
		Config: testConfig(),
		Logger: testLogger(),
		Player: fake,
	}
	s.Config.RemoteServer.Hostname = "127.0.0.1"
	s.Config.RemoteServer.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	s.Start(ctx, wg)

	if s.Addr() == nil {
		cancel()
		t.Fatal("server failed to bind")
	}
	return s, cancel, wg
}

func readUntil(t *testing.T, conn net.Conn, want string, timeout time.Duration) string {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var b strings.Builder
	buf := make([]byte, 1024)
	for !strings.Contains(b.String(), want) {
		n, err := conn.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
			continue
		}
		if err != nil {
			t.Fatalf("waiting for %q, got %q (error: %v)", want, b.String(), err)
		}
	}
	return b.String()
}

func TestServer_WelcomeAndDispatch(t *testing.T) {
	s, cancel, wg := startTestServer(t, &fakePlayer{})
	defer func() { cancel(); wg.Wait() }()

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatal("failed to connect:", err)
	}
	defer conn.Close()

	out := readUntil(t, conn, testWelcome, 3*time.Second)
	if !strings.HasPrefix(out, testWelcome) {
		t.Errorf("welcome want prefix %q, got %q", testWelcome, out)
	}

	if _, err := conn.Write([]byte("bogus\r\n")); err != nil {
		t.Fatal("failed to write command:", err)
	}
	readUntil(t, conn, invalidCommandMessage, 3*time.Second)
}

func TestServer_SingleSessionAtATime(t *testing.T) {
	s, cancel, wg := startTestServer(t, &fakePlayer{})
	defer func() { cancel(); wg.Wait() }()

	first, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatal("failed to connect:", err)
	}
	readUntil(t, first, testWelcome, 3*time.Second)

	// The second connection is not accepted while the first session lives:
	// no welcome arrives.
	second, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatal("second dial failed:", err)
	}
	defer second.Close()

	_ = second.SetReadDeadline(time.Now().Add(1500 * time.Millisecond))
	buf := make([]byte, 256)
	if n, err := second.Read(buf); err == nil {
		t.Fatalf("second client was served while first was connected: %q", buf[:n])
	} else if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
		t.Fatalf("expected read timeout on second connection, got %v", err)
	}

	// Once the first session ends, the second client gets its turn.
	_ = first.Close()
	readUntil(t, second, testWelcome, 5*time.Second)
}

func TestServer_CancellationUnblocksAcceptWait(t *testing.T) {
	_, cancel, wg := startTestServer(t, &fakePlayer{})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not exit within one timeout period of cancellation")
	}

	// A second cancellation must be a harmless no-op.
	cancel()
}

func TestServer_CancellationEndsLiveSession(t *testing.T) {
	s, cancel, wg := startTestServer(t, &fakePlayer{})

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatal("failed to connect:", err)
	}
	defer conn.Close()
	readUntil(t, conn, testWelcome, 3*time.Second)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not exit while a session was active")
	}
}

func TestServer_UnresolvableAddressLeavesServerUnbound(t *testing.T) {
	s := &Server{
		Config: testConfig(),
		Logger: testLogger(),
		Player: &fakePlayer{},
	}
	s.Config.RemoteServer.Hostname = "invalid.host.invalid"

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	// Must not panic or crash; the worker idles until shutdown.
	s.Start(ctx, wg)
	if s.Addr() != nil {
		t.Error("expected no bound address for an unresolvable hostname")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("unbound worker did not exit on cancellation")
	}
}
