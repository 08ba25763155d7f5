package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beefmote/beefmote/internal/core"
	"github.com/beefmote/beefmote/internal/player"
)

const (
	// Both waits are short so a cancellation is observed within about one
	// timeout period.
	acceptTimeout = time.Second
	readTimeout   = time.Second

	readBufferSize = 1024
)

// Server is the remote-control protocol server. One worker goroutine runs
// the accept/read/dispatch loop for a single client at a time; the
// notification bridge (notify.go) re-enters from the host player's
// goroutine and shares the connection through the session's write mutex.
type Server struct {
	Config *core.Config
	Logger *logrus.Logger
	Player player.Player

	registry *registry
	handles  *handleTable

	// mu guards the session reference, notification toggles, the
	// current-track reference, and the last search result set, all of
	// which are shared between the worker and the bridge.
	mu                    sync.Mutex
	session               *Session
	notifyPlaylistChanged bool
	notifyNowPlaying      bool
	currentTrack          *player.Track
	lastSearch            []string

	addr net.Addr
}

func (s *Server) volumeStep() int { return s.Config.RemoteServer.VolumeStep }
func (s *Server) seekStep() int   { return s.Config.RemoteServer.SeekStep }

// Start binds the listening socket and spins off the worker goroutine. A
// bind or listen failure leaves the server unbound for the rest of the
// process: it is logged and the worker idles so the host keeps running,
// but no client will ever be able to connect.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) {
	s.registry = newRegistry(s)
	s.handles = newHandleTable()

	listener, err := s.createSocket()
	if err != nil {
		s.Logger.Errorf("remote server unbound: %v", err)
	} else {
		s.addr = listener.Addr()
		s.Logger.Infof("waiting for connections on %v", s.addr)
	}

	wg.Add(1)
	go s.serve(ctx, listener, wg)
}

// Addr returns the bound listen address, or nil if the server is unbound.
func (s *Server) Addr() net.Addr { return s.addr }

func (s *Server) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", s.Config.RemoteAddress())
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s: %w", s.Config.RemoteAddress(), err)
	}

	listener, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}
	return listener, nil
}

// serve is the worker loop: accept one client, run its session to
// completion, return to accepting. Accept waits are bounded by a deadline
// and the cancellation flag is re-checked after every expiry.
func (s *Server) serve(ctx context.Context, listener *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()
	defer s.Logger.Info("remote server exited")

	if listener == nil {
		<-ctx.Done()
		return
	}
	defer listener.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = listener.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.Logger.Warnf("failed to accept connection: %s", err)
			continue
		}

		// Sessions run inline: a second connection attempt sits unaccepted
		// until the current session ends.
		s.runSession(ctx, conn)
	}
}

func (s *Server) runSession(ctx context.Context, conn net.Conn) {
	sess := NewSession(conn)
	s.attachSession(sess)
	defer s.closeSessionAndRecover(sess)

	s.Logger.Infof("accepted connection from %s", sess.IPAddr())

	welcome := fmt.Sprintf(
		"Hello! Welcome to Beefmote's server. Type %q for a list of available commands\n\n",
		helpCommandName)
	if err := sess.WriteString(welcome); err != nil {
		s.Logger.Warnf("error sending welcome message: %v", err)
		return
	}

	buffer := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = sess.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := sess.Read(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				s.Logger.Infof("client %s closed connection", sess.IPAddr())
			} else {
				s.Logger.Warnf("read error from client %s: %v", sess.IPAddr(), err)
			}
			return
		}
		if n == 0 {
			continue
		}

		// The buffer is treated as one logical line per read; typical
		// clients are line buffered and send one command at a time.
		sess.lines++
		line := string(buffer[:n])
		s.Logger.Debugf("received line %d from client %s: %q", sess.lines, sess.IPAddr(), line)

		command, argument, hasArgument := parseLine(line)
		s.registry.dispatch(sess, command, argument, hasArgument)
	}
}

func (s *Server) attachSession(sess *Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}

// closeSessionAndRecover is the failsafe that catches handler panics and
// releases the connection regardless of how the session ended.
func (s *Server) closeSessionAndRecover(sess *Session) {
	if err := recover(); err != nil {
		s.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			sess.IPAddr(), err, debug.Stack())
	}

	if err := sess.Close(); err != nil {
		s.Logger.Warnf("failed to close client connection: %s", err)
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	s.Logger.Infof("disconnected client %s", sess.IPAddr())
}
