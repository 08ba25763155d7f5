package remote

import "github.com/beefmote/beefmote/internal/player"

const playlistChangedMessage = "\nThe current playlist content changed; you " +
	"may want to get the tracklist again.\n\n"

// OnPlayerEvent is the notification bridge. The host player invokes it from
// its own goroutine, so everything it touches is either read under the
// server mutex or written through the session's serialized writer.
func (s *Server) OnPlayerEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventTrackChanged:
		s.mu.Lock()
		s.currentTrack = ev.Track
		sess, enabled := s.session, s.notifyNowPlaying
		s.mu.Unlock()

		if ev.Track == nil || !enabled || sess == nil {
			return
		}
		if err := sess.WriteString("Now playing " + formatTrack(*ev.Track) + "\n\n"); err != nil {
			s.Logger.Warnf("error writing now-playing notification: %v", err)
		}

	case player.EventPlaylistChanged:
		s.mu.Lock()
		sess, enabled := s.session, s.notifyPlaylistChanged
		s.mu.Unlock()

		if !enabled || sess == nil {
			return
		}
		if err := sess.WriteString(playlistChangedMessage); err != nil {
			s.Logger.Warnf("error writing playlist-changed notification: %v", err)
		}
	}
}
