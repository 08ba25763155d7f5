package remote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beefmote/beefmote/internal/player"
)

// Handler conventions: a missing or malformed argument produces a
// descriptive message (or the command's own help text) and a normal return.
// Player errors are reported to the client and logged; nothing a client
// sends can take down the server or the host.

const playerUnavailableMessage = "\nPlayer unavailable\n\n"

// send writes to the client, demoting write failures to a warning. A dead
// connection surfaces as a read error in the session loop right after.
func (s *Server) send(sess *Session, str string) {
	if err := sess.WriteString(str); err != nil {
		s.Logger.Warnf("error writing to client: %v", err)
	}
}

func (s *Server) sendPlayerError(sess *Session, op string, err error) {
	s.Logger.Warnf("player error in %s: %v", op, err)
	s.send(sess, playerUnavailableMessage)
}

// echoHelp replies with a command's own help text, the standard response to
// a malformed invocation.
func (s *Server) echoHelp(sess *Session, name string) {
	if c, ok := s.registry.lookup(name); ok {
		s.send(sess, "\n"+c.Help+"\n")
	}
}

func (s *Server) handleHelp(sess *Session, _ string, _ bool) {
	var b strings.Builder
	b.WriteString("\n")
	for _, c := range s.registry.commands {
		b.WriteString(c.Name)
		b.WriteString("\n\t")
		b.WriteString(c.Help)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	s.send(sess, b.String())
}

func (s *Server) handlePlaylists(sess *Session, argument string, hasArgument bool) {
	playlists, current, err := s.Player.Playlists()
	if err != nil {
		s.sendPlayerError(sess, "pl", err)
		return
	}

	if len(playlists) == 0 {
		s.send(sess, "\nNo playlists\n\n")
		return
	}

	if hasArgument {
		idx, err := strconv.Atoi(strings.TrimSpace(argument))
		if err != nil || idx < 1 || idx > len(playlists) {
			s.send(sess, "\nPlaylist index out of bounds\n\n")
			return
		}
		if err := s.Player.SetCurrentPlaylist(idx - 1); err != nil {
			s.sendPlayerError(sess, "pl", err)
		}
		return
	}

	var b strings.Builder
	for i, pl := range playlists {
		fmt.Fprintf(&b, "\nPlaylist %d: %s", i+1, pl.Title)
		if i == current {
			b.WriteString(" (*)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	s.send(sess, b.String())
}

func (s *Server) handleTracklist(sess *Session, _ string, _ bool) {
	s.writeTracklist(sess, false)
}

func (s *Server) handleTracklistHandles(sess *Session, _ string, _ bool) {
	s.writeTracklist(sess, true)
}

// writeTracklist streams the current playlist between TRACKLIST_BEGIN and
// TRACKLIST_END markers, optionally prefixing each track with its handle.
func (s *Server) writeTracklist(sess *Session, withHandles bool) {
	tracks, err := s.Player.Tracks()
	if err != nil {
		s.sendPlayerError(sess, "tl", err)
		return
	}

	var b strings.Builder
	b.WriteString("TRACKLIST_BEGIN\n")
	for i, t := range tracks {
		fmt.Fprintf(&b, "(%d) ", i+1)
		if withHandles {
			b.WriteString(s.handles.HandleFor(t.ID))
			b.WriteString(" ")
		}
		b.WriteString(formatTrack(t))
		b.WriteString("\n")
	}
	b.WriteString("TRACKLIST_END\n")
	s.send(sess, b.String())
}

func (s *Server) handleCurrentTrack(sess *Session, _ string, _ bool) {
	s.mu.Lock()
	track := s.currentTrack
	s.mu.Unlock()

	if track == nil {
		s.send(sess, "\nNo current track\n\n")
		return
	}
	s.send(sess, "\n"+formatTrack(*track)+"\n\n")
}

func (s *Server) handlePlay(sess *Session, _ string, _ bool) {
	if err := s.Player.PlayCurrent(); err != nil {
		s.sendPlayerError(sess, "pp", err)
	}
}

func (s *Server) handlePlaySearch(sess *Session, argument string, hasArgument bool) {
	if !hasArgument {
		s.echoHelp(sess, "ps")
		return
	}

	track, ok := s.searchResult(sess, argument)
	if !ok {
		return
	}

	s.send(sess, "\nPlaying "+formatTrack(track)+"\n\n")
	if err := s.Player.PlayTrack(track.ID); err != nil {
		s.sendPlayerError(sess, "ps", err)
	}
}

// searchResult resolves a 1-based index into the most recent search result
// set and revalidates the track against the host before use.
func (s *Server) searchResult(sess *Session, argument string) (player.Track, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(argument))
	if err != nil || idx < 1 {
		s.send(sess, "\nInvalid search index\n\n")
		return player.Track{}, false
	}

	s.mu.Lock()
	results := s.lastSearch
	s.mu.Unlock()

	if idx > len(results) {
		s.send(sess, "\nInvalid search index\n\n")
		return player.Track{}, false
	}

	track, found, err := s.Player.TrackByID(results[idx-1])
	if err != nil {
		s.sendPlayerError(sess, "ps", err)
		return player.Track{}, false
	}
	if !found {
		s.send(sess, "\nInvalid search index\n\n")
		return player.Track{}, false
	}
	return track, true
}

func (s *Server) handlePlayHandle(sess *Session, argument string, hasArgument bool) {
	if !hasArgument {
		s.echoHelp(sess, "pa")
		return
	}

	trackID, ok := s.handles.Resolve(strings.TrimSpace(argument))
	if !ok {
		s.send(sess, "\nInvalid track handle\n\n")
		return
	}

	// The handle may outlive the track; confirm it still resolves in the
	// host before playing.
	_, found, err := s.Player.TrackByID(trackID)
	if err != nil {
		s.sendPlayerError(sess, "pa", err)
		return
	}
	if !found {
		s.send(sess, "\nInvalid track handle\n\n")
		return
	}

	if err := s.Player.PlayTrack(trackID); err != nil {
		s.sendPlayerError(sess, "pa", err)
	}
}

func (s *Server) handlePauseResume(sess *Session, argument string, hasArgument bool) {
	if hasArgument {
		idx, err := strconv.Atoi(strings.TrimSpace(argument))
		if err != nil || idx < 1 {
			s.send(sess, "\nInvalid track index\n\n")
			return
		}
		if err := s.Player.PlayIndex(idx - 1); err != nil {
			s.sendPlayerError(sess, "p", err)
		}
		return
	}

	state, err := s.Player.State()
	if err != nil {
		s.sendPlayerError(sess, "p", err)
		return
	}

	if state == player.StatePlaying {
		err = s.Player.Pause()
	} else {
		err = s.Player.PlayCurrent()
	}
	if err != nil {
		s.sendPlayerError(sess, "p", err)
	}
}

func (s *Server) handleRandom(sess *Session, _ string, _ bool) {
	if err := s.Player.PlayRandom(); err != nil {
		s.sendPlayerError(sess, "r", err)
	}
}

func (s *Server) handleStopAfterCurrent(sess *Session, _ string, _ bool) {
	enabled, err := s.Player.ToggleStopAfterCurrent()
	if err != nil {
		s.sendPlayerError(sess, "sac", err)
		return
	}
	s.Logger.Infof("stop after current set to %t", enabled)
}

func (s *Server) handleStop(sess *Session, _ string, _ bool) {
	if err := s.Player.Stop(); err != nil {
		s.sendPlayerError(sess, "s", err)
	}
}

func (s *Server) handlePrevious(sess *Session, _ string, _ bool) {
	if err := s.Player.Previous(); err != nil {
		s.sendPlayerError(sess, "pv", err)
	}
}

func (s *Server) handleNext(sess *Session, _ string, _ bool) {
	if err := s.Player.Next(); err != nil {
		s.sendPlayerError(sess, "nt", err)
	}
}

func (s *Server) handleVolumeUp(sess *Session, argument string, hasArgument bool) {
	s.adjustVolume(sess, argument, hasArgument, 1)
}

func (s *Server) handleVolumeDown(sess *Session, argument string, hasArgument bool) {
	s.adjustVolume(sess, argument, hasArgument, -1)
}

func (s *Server) adjustVolume(sess *Session, argument string, hasArgument bool, direction int) {
	step := s.volumeStep()
	if hasArgument {
		var err error
		step, err = strconv.Atoi(strings.TrimSpace(argument))
		if err != nil {
			s.send(sess, "\nInvalid volume step\n\n")
			return
		}
	}
	if err := s.Player.AdjustVolume(direction * step); err != nil {
		s.sendPlayerError(sess, "volume", err)
	}
}

func (s *Server) handleSeekForward(sess *Session, argument string, hasArgument bool) {
	s.seek(sess, argument, hasArgument, 1)
}

func (s *Server) handleSeekBackward(sess *Session, argument string, hasArgument bool) {
	s.seek(sess, argument, hasArgument, -1)
}

func (s *Server) seek(sess *Session, argument string, hasArgument bool, direction int) {
	step := s.seekStep()
	if hasArgument {
		var err error
		step, err = strconv.Atoi(strings.TrimSpace(argument))
		if err != nil {
			s.send(sess, "\nInvalid seek step\n\n")
			return
		}
	}
	if err := s.Player.Seek(direction * step); err != nil {
		s.sendPlayerError(sess, "seek", err)
	}
}

func (s *Server) handleSearch(sess *Session, argument string, hasArgument bool) {
	if !hasArgument {
		s.echoHelp(sess, "/")
		return
	}

	results, err := s.Player.Search(argument)
	if err != nil {
		s.sendPlayerError(sess, "/", err)
		return
	}

	ids := make([]string, len(results))
	for i, t := range results {
		ids[i] = t.ID
	}
	s.mu.Lock()
	s.lastSearch = ids
	s.mu.Unlock()

	if len(results) == 0 {
		s.send(sess, "(nothing was found)\n\n")
		return
	}

	var b strings.Builder
	b.WriteString("TRACKLIST_BEGIN\n")
	for i, t := range results {
		fmt.Fprintf(&b, "(%d)\t%s\n", i+1, formatTrack(t))
	}
	b.WriteString("TRACKLIST_END\n")
	s.send(sess, b.String())
}

func (s *Server) handleNotifyPlaylistChanged(sess *Session, _ string, _ bool) {
	s.mu.Lock()
	s.notifyPlaylistChanged = !s.notifyPlaylistChanged
	enabled := s.notifyPlaylistChanged
	s.mu.Unlock()

	if enabled {
		s.send(sess, "\nNotification set to true.\n\n")
	} else {
		s.send(sess, "\nNotification set to false.\n\n")
	}
}

func (s *Server) handleNotifyNowPlaying(sess *Session, argument string, hasArgument bool) {
	if !hasArgument {
		s.echoHelp(sess, "ntfy-nowplaying")
		return
	}

	switch strings.TrimSpace(argument) {
	case "true":
		s.setNotifyNowPlaying(true)
	case "false":
		s.setNotifyNowPlaying(false)
	default:
		s.echoHelp(sess, "ntfy-nowplaying")
	}
}

func (s *Server) setNotifyNowPlaying(enabled bool) {
	s.mu.Lock()
	s.notifyNowPlaying = enabled
	s.mu.Unlock()
	s.Logger.Debugf("now playing notification set to %t", enabled)
}

func (s *Server) handleAddSearchToQueue(sess *Session, argument string, hasArgument bool) {
	if !hasArgument {
		s.echoHelp(sess, "aps")
		return
	}

	track, ok := s.searchResult(sess, argument)
	if !ok {
		return
	}
	if err := s.Player.QueuePush(track.ID); err != nil {
		s.sendPlayerError(sess, "aps", err)
	}
}

func (s *Server) handleExit(sess *Session, _ string, _ bool) {
	if err := s.Player.Terminate(); err != nil {
		s.sendPlayerError(sess, "exit", err)
	}
}
