package remote

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Session represents the one active client connection. The write mutex
// serializes writes between the session loop and the notification bridge,
// which share the connection.
type Session struct {
	conn   net.Conn
	ipAddr string

	writeMu sync.Mutex

	// Number of lines received from this client so far.
	lines uint64
}

func NewSession(conn net.Conn) *Session {
	addr := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	return &Session{conn: conn, ipAddr: addr}
}

func (s *Session) IPAddr() string { return s.ipAddr }

// Read consumes the available bytes directly from the client's connection.
func (s *Session) Read(b []byte) (int, error) {
	return s.conn.Read(b)
}

// SetReadDeadline bounds the next Read so the session loop can observe
// cancellation between reads.
func (s *Session) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// WriteString sends a string to the client, writing until the whole payload
// is on the wire. Concurrent callers are serialized.
func (s *Session) WriteString(str string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data := []byte(str)
	for len(data) > 0 {
		n, err := s.conn.Write(data)
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %w", s.ipAddr, err)
		}
		data = data[n:]
	}
	return nil
}

// Close the client connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
