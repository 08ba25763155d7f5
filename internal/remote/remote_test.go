package remote

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beefmote/beefmote/internal/core"
	"github.com/beefmote/beefmote/internal/player"
)

// recordConn is a net.Conn that records everything written to it, so
// handler output can be asserted without a real socket.
type recordConn struct {
	bytes.Buffer
}

func (c *recordConn) Read(b []byte) (int, error)         { return 0, io.EOF }
func (c *recordConn) Close() error                       { return nil }
func (c *recordConn) LocalAddr() net.Addr                { return recordAddr{} }
func (c *recordConn) RemoteAddr() net.Addr               { return recordAddr{} }
func (c *recordConn) SetDeadline(t time.Time) error      { return nil }
func (c *recordConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *recordConn) SetWriteDeadline(t time.Time) error { return nil }

type recordAddr struct{}

func (recordAddr) Network() string { return "record" }
func (recordAddr) String() string  { return "record:0" }

// fakePlayer is a scriptable Player that records every control call.
type fakePlayer struct {
	playlists []player.Playlist
	current   int
	tracks    []player.Track
	state     player.PlaybackState
	failWith  error

	setPlaylistCalls []int
	playedIDs        []string
	playedIndexes    []int
	playCurrentCalls int
	pauseCalls       int
	stopCalls        int
	previousCalls    int
	nextCalls        int
	randomCalls      int
	volumeAdjusts    []int
	seeks            []int
	queuedIDs        []string
	stopAfterCurrent bool
	terminated       bool
}

func (f *fakePlayer) Playlists() ([]player.Playlist, int, error) {
	return f.playlists, f.current, f.failWith
}

func (f *fakePlayer) SetCurrentPlaylist(idx int) error {
	f.setPlaylistCalls = append(f.setPlaylistCalls, idx)
	f.current = idx
	return f.failWith
}

func (f *fakePlayer) Tracks() ([]player.Track, error) { return f.tracks, f.failWith }

func (f *fakePlayer) TrackByID(id string) (player.Track, bool, error) {
	if f.failWith != nil {
		return player.Track{}, false, f.failWith
	}
	for _, t := range f.tracks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return player.Track{}, false, nil
}

func (f *fakePlayer) Search(query string) ([]player.Track, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var matches []player.Track
	for _, t := range f.tracks {
		if bytes.Contains([]byte(t.Artist+" "+t.Album+" "+t.Title), []byte(query)) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (f *fakePlayer) PlayCurrent() error { f.playCurrentCalls++; return f.failWith }

func (f *fakePlayer) PlayIndex(idx int) error {
	f.playedIndexes = append(f.playedIndexes, idx)
	return f.failWith
}

func (f *fakePlayer) PlayTrack(id string) error {
	f.playedIDs = append(f.playedIDs, id)
	return f.failWith
}

func (f *fakePlayer) PlayRandom() error { f.randomCalls++; return f.failWith }
func (f *fakePlayer) Pause() error      { f.pauseCalls++; return f.failWith }
func (f *fakePlayer) Stop() error       { f.stopCalls++; return f.failWith }
func (f *fakePlayer) Previous() error   { f.previousCalls++; return f.failWith }
func (f *fakePlayer) Next() error       { f.nextCalls++; return f.failWith }

func (f *fakePlayer) State() (player.PlaybackState, error) { return f.state, f.failWith }

func (f *fakePlayer) AdjustVolume(step int) error {
	f.volumeAdjusts = append(f.volumeAdjusts, step)
	return f.failWith
}

func (f *fakePlayer) Seek(step int) error {
	f.seeks = append(f.seeks, step)
	return f.failWith
}

func (f *fakePlayer) QueuePush(id string) error {
	f.queuedIDs = append(f.queuedIDs, id)
	return f.failWith
}

func (f *fakePlayer) ToggleStopAfterCurrent() (bool, error) {
	f.stopAfterCurrent = !f.stopAfterCurrent
	return f.stopAfterCurrent, f.failWith
}

func (f *fakePlayer) Terminate() error { f.terminated = true; return f.failWith }

var errPlayerDown = errors.New("player down")

func testConfig() *core.Config {
	cfg := &core.Config{}
	cfg.RemoteServer.VolumeStep = 5
	cfg.RemoteServer.SeekStep = 5
	return cfg
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newTestServer(fake *fakePlayer) *Server {
	s := &Server{
		Config: testConfig(),
		Logger: testLogger(),
		Player: fake,
	}
	s.registry = newRegistry(s)
	s.handles = newHandleTable()
	return s
}

// dispatchLine runs one raw protocol line through parse and dispatch,
// returning everything written back to the client.
func dispatchLine(s *Server, line string) string {
	conn := &recordConn{}
	sess := NewSession(conn)
	command, argument, hasArgument := parseLine(line)
	s.registry.dispatch(sess, command, argument, hasArgument)
	return conn.String()
}
