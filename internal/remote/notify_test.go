package remote

import (
	"strings"
	"testing"

	"github.com/beefmote/beefmote/internal/player"
)

func attachRecordSession(s *Server) *recordConn {
	conn := &recordConn{}
	s.attachSession(NewSession(conn))
	return conn
}

func TestBridge_NowPlayingNotification(t *testing.T) {
	s := newTestServer(&fakePlayer{})
	conn := attachRecordSession(s)
	s.setNotifyNowPlaying(true)

	track := testTracks()[0]
	s.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: &track})

	out := conn.String()
	expected := "Now playing [Tool - Lateralus] 05 - Schism (6:48)\n\n"
	if out != expected {
		t.Errorf("notification want = %q, got = %q", expected, out)
	}
	if strings.Count(out, "Now playing") != 1 {
		t.Errorf("expected exactly one notification, got %q", out)
	}
}

func TestBridge_NowPlayingDisabled(t *testing.T) {
	s := newTestServer(&fakePlayer{})
	conn := attachRecordSession(s)

	track := testTracks()[0]
	s.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: &track})

	if conn.Len() != 0 {
		t.Errorf("expected no notification while disabled, got %q", conn.String())
	}

	// The current-track reference still updates so tc keeps working.
	s.mu.Lock()
	current := s.currentTrack
	s.mu.Unlock()
	if current == nil || current.ID != track.ID {
		t.Error("track-changed event did not update the current track")
	}
}

func TestBridge_PlaylistChangedNotification(t *testing.T) {
	s := newTestServer(&fakePlayer{})
	conn := attachRecordSession(s)

	s.OnPlayerEvent(player.Event{Kind: player.EventPlaylistChanged})
	if conn.Len() != 0 {
		t.Errorf("expected no notification while disabled, got %q", conn.String())
	}

	dispatchLine(s, "ntfy-plchanged\r\n")
	s.OnPlayerEvent(player.Event{Kind: player.EventPlaylistChanged})
	if conn.String() != playlistChangedMessage {
		t.Errorf("notification want = %q, got = %q", playlistChangedMessage, conn.String())
	}
}

func TestBridge_NoSessionIsSafe(t *testing.T) {
	s := newTestServer(&fakePlayer{})
	s.setNotifyNowPlaying(true)

	track := testTracks()[0]
	// Must not panic with no client connected.
	s.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: &track})
	s.OnPlayerEvent(player.Event{Kind: player.EventPlaylistChanged})
}

func TestBridge_StopClearsCurrentTrack(t *testing.T) {
	s := newTestServer(&fakePlayer{})
	conn := attachRecordSession(s)
	s.setNotifyNowPlaying(true)

	track := testTracks()[0]
	s.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: &track})
	s.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: nil})

	// The stop event updates state but produces no notification line.
	if got := strings.Count(conn.String(), "Now playing"); got != 1 {
		t.Errorf("expected one notification, got %d: %q", got, conn.String())
	}

	out := dispatchLine(s, "tc\r\n")
	if out != "\nNo current track\n\n" {
		t.Errorf("tc after stop want no-current-track message, got %q", out)
	}
}
