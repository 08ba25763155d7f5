package remote

import "fmt"

// helpCommandName is referenced by the welcome banner sent to new clients.
const helpCommandName = "h"

const invalidCommandMessage = "\nPlease type a valid command\n\n"

// Command is one entry in the registry: a short name, a one-line help text,
// and the handler invoked on dispatch.
type Command struct {
	Name    string
	Help    string
	Execute func(sess *Session, argument string, hasArgument bool)
}

// registry is the fixed, ordered command table. It is built once at startup
// and immutable afterwards.
type registry struct {
	commands []Command
}

// newRegistry builds the command table for the server. Command names must
// be pairwise distinct; a duplicate is a programming error and panics.
func newRegistry(s *Server) *registry {
	commands := []Command{
		{
			Name: helpCommandName, Help: "prints this message.",
			Execute: s.handleHelp,
		},
		{
			Name: "pl",
			Help: "usage: pl [idx]. If passed with no arguments, prints all playlists (" +
				"the current playlist is marked with (*)). " +
				"If passed with an index number, sets the current playlist to the " +
				"playlist with index idx.",
			Execute: s.handlePlaylists,
		},
		{
			Name: "tl", Help: "prints all the tracks in the current playlist.",
			Execute: s.handleTracklist,
		},
		{
			Name: "tla", Help: "like tl, but prepends each track by an opaque track handle.",
			Execute: s.handleTracklistHandles,
		},
		{
			Name: "tc", Help: "prints the current track.",
			Execute: s.handleCurrentTrack,
		},
		{
			Name: "pp", Help: "plays current track.",
			Execute: s.handlePlay,
		},
		{
			Name: "ps", Help: "usage: ps idx. Plays a track by its index in the search list.",
			Execute: s.handlePlaySearch,
		},
		{
			Name: "pa",
			Help: "usage: pa handle. Plays a track by its handle (in hex notation), " +
				"as printed by tla.",
			Execute: s.handlePlayHandle,
		},
		{
			Name: "p",
			Help: "usage: p [idx]. If passed with no arguments, pauses/resumes playback. " +
				"If passed with an index, plays the track at index idx in the current " +
				"playlist.",
			Execute: s.handlePauseResume,
		},
		{
			Name: "r", Help: "plays random track.",
			Execute: s.handleRandom,
		},
		{
			Name: "sac", Help: "stops playback after current track.",
			Execute: s.handleStopAfterCurrent,
		},
		{
			Name: "s", Help: "stops playback.",
			Execute: s.handleStop,
		},
		{
			Name: "pv", Help: "plays previous track.",
			Execute: s.handlePrevious,
		},
		{
			Name: "nt", Help: "plays next track.",
			Execute: s.handleNext,
		},
		{
			Name: "vu",
			Help: fmt.Sprintf("usage: vu [step]. If no argument is passed, increases volume "+
				"by a default step of %d. If a number is passed, increases volume "+
				"by that amount.", s.volumeStep()),
			Execute: s.handleVolumeUp,
		},
		{
			Name: "vd",
			Help: fmt.Sprintf("usage: vd [step]. If no argument is passed, decreases volume "+
				"by a default step of %d. If a number is passed, decreases volume "+
				"by that amount.", s.volumeStep()),
			Execute: s.handleVolumeDown,
		},
		{
			Name: "sf",
			Help: fmt.Sprintf("usage: sf [step]. If no argument is passed, seeks forward by "+
				"a default step of %d seconds. If a number is passed, seeks forward "+
				"by that amount.", s.seekStep()),
			Execute: s.handleSeekForward,
		},
		{
			Name: "sb",
			Help: fmt.Sprintf("usage: sb [step]. If no argument is passed, seeks backward by "+
				"a default step of %d seconds. If a number is passed, seeks backward "+
				"by that amount.", s.seekStep()),
			Execute: s.handleSeekBackward,
		},
		{
			Name: "/",
			Help: "usage: / str. Searches a string in the current playlist and returns a " +
				"list of matching tracks. The matched tracks can be played by using their " +
				"index number with the ps command.",
			Execute: s.handleSearch,
		},
		{
			Name: "ntfy-plchanged",
			Help: "Notifies when the current playlist has changed (meaning you'll probably " +
				"want to get the tracklist again).",
			Execute: s.handleNotifyPlaylistChanged,
		},
		{
			Name: "ntfy-nowplaying",
			Help: "usage: ntfy-nowplaying true/false. Sets whether to notify when a new track " +
				"starts to play. Default: false.",
			Execute: s.handleNotifyNowPlaying,
		},
		{
			Name: "aps", Help: "usage: aps idx. Adds a searched track to the playback queue.",
			Execute: s.handleAddSearchToQueue,
		},
		{
			Name: "exit", Help: "terminates the host player.",
			Execute: s.handleExit,
		},
	}

	seen := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		if _, dup := seen[c.Name]; dup {
			panic(fmt.Sprintf("duplicate command name %q in registry", c.Name))
		}
		seen[c.Name] = struct{}{}
	}

	return &registry{commands: commands}
}

// lookup finds a command by exact name. Names only match whole; "p" never
// matches "pp".
func (r *registry) lookup(name string) (Command, bool) {
	for _, c := range r.commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// dispatch routes one parsed line to its handler. An unknown command gets
// the fixed invalid-command response; it is not an error.
func (r *registry) dispatch(sess *Session, name, argument string, hasArgument bool) {
	if c, ok := r.lookup(name); ok {
		c.Execute(sess, argument, hasArgument)
		return
	}
	_ = sess.WriteString(invalidCommandMessage)
}
