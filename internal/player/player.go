package player

import "time"

// PlaybackState describes what the host player is currently doing.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

// Track is a snapshot of one track's metadata. ID is an opaque identifier
// owned by the host player; it is only ever handed back to the same Player
// for lookups and must not be interpreted.
type Track struct {
	ID       string
	Artist   string
	Album    string
	Title    string
	Number   string
	Duration time.Duration
}

// Playlist is one playlist known to the host player.
type Playlist struct {
	Title string
}

// Player is the control surface beefmote requires from a host media player.
// Implementations are expected to be safe for use from the server goroutine
// and the event goroutine concurrently.
//
// Any method may return an error if the host is unreachable; handlers treat
// these as transient and report them to the client rather than failing.
type Player interface {
	// Playlists returns all playlists in order along with the index of the
	// current one (-1 if there is none).
	Playlists() ([]Playlist, int, error)

	// SetCurrentPlaylist switches the current playlist to the 0-based index.
	SetCurrentPlaylist(idx int) error

	// Tracks returns every track of the current playlist in main-view order.
	Tracks() ([]Track, error)

	// TrackByID resolves a track ID to its current metadata. The second
	// return is false if the ID no longer refers to a track in the host.
	TrackByID(id string) (Track, bool, error)

	// Search runs the host's playlist search over the current playlist and
	// returns the matches in search-view order.
	Search(query string) ([]Track, error)

	// Transport controls.
	PlayCurrent() error
	PlayIndex(idx int) error
	PlayTrack(id string) error
	PlayRandom() error
	Pause() error
	Stop() error
	Previous() error
	Next() error

	// State reports the current playback state.
	State() (PlaybackState, error)

	// AdjustVolume applies a relative volume change in the host's native
	// units (dB, percent, ...). Negative lowers the volume.
	AdjustVolume(step int) error

	// Seek moves the playback position by step seconds, negative backward.
	Seek(step int) error

	// QueuePush appends the track to the host's play queue.
	QueuePush(id string) error

	// ToggleStopAfterCurrent flips the host's persisted stop-after-current
	// option and returns the new value.
	ToggleStopAfterCurrent() (bool, error)

	// Terminate asks the host process to shut down.
	Terminate() error
}

// EventKind identifies the host player events beefmote reacts to.
type EventKind int

const (
	// EventTrackChanged fires when a new track starts (or playback stops).
	EventTrackChanged EventKind = iota
	// EventPlaylistChanged fires when the current playlist's content changes.
	EventPlaylistChanged
)

// Event is one notification from the host player. Track is only set for
// EventTrackChanged and is nil when playback stopped.
type Event struct {
	Kind  EventKind
	Track *Track
}

// Handler receives host player events. The host owns invocation timing and
// calls OnPlayerEvent from its own goroutine, so implementations must be
// safe against the server's worker goroutine.
type Handler interface {
	OnPlayerEvent(ev Event)
}
