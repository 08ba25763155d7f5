// Package mpd implements the player interfaces on top of an MPD instance.
package mpd

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	mpdc "github.com/fhs/gompd/v2/mpd"
	"github.com/sirupsen/logrus"

	"github.com/beefmote/beefmote/internal/core"
	"github.com/beefmote/beefmote/internal/player"
)

// Player drives a single MPD instance. Commands are issued over short-lived
// connections (one dial per operation) so a flaky daemon never wedges the
// server; events arrive over a dedicated idle connection owned by Start.
type Player struct {
	Config *core.Config
	Logger *logrus.Logger

	mu          sync.Mutex
	curPlaylist int

	watcher *mpdc.Watcher
	done    chan struct{}
}

func NewPlayer(config *core.Config, logger *logrus.Logger) *Player {
	return &Player{
		Config:      config,
		Logger:      logger,
		curPlaylist: -1,
		done:        make(chan struct{}),
	}
}

// Start opens the event connection and begins forwarding MPD subsystem
// changes to the handler as player events.
func (p *Player) Start(handler player.Handler) error {
	watcher, err := mpdc.NewWatcher(
		"tcp", p.Config.Player.Address, p.Config.Player.Password, "player", "playlist")
	if err != nil {
		return fmt.Errorf("starting mpd watcher: %w", err)
	}

	p.watcher = watcher
	go p.watch(handler)
	return nil
}

// Close tears down the event connection. Safe to call once Start succeeded.
func (p *Player) Close() {
	close(p.done)
	if p.watcher != nil {
		_ = p.watcher.Close()
	}
}

func (p *Player) watch(handler player.Handler) {
	var lastID string

	for {
		select {
		case <-p.done:
			return
		case err := <-p.watcher.Error:
			p.Logger.Warnf("mpd watcher error: %v", err)
		case subsystem, ok := <-p.watcher.Event:
			if !ok {
				return
			}

			switch subsystem {
			case "player":
				track, err := p.nowPlaying()
				if err != nil {
					p.Logger.Warnf("error fetching current song: %v", err)
					continue
				}

				id := ""
				if track != nil {
					id = track.ID
				}
				if id == lastID {
					continue
				}
				lastID = id

				handler.OnPlayerEvent(player.Event{Kind: player.EventTrackChanged, Track: track})
			case "playlist":
				handler.OnPlayerEvent(player.Event{Kind: player.EventPlaylistChanged})
			}
		}
	}
}

// nowPlaying returns the track MPD is currently on, or nil when stopped.
func (p *Player) nowPlaying() (*player.Track, error) {
	var track *player.Track

	err := p.do(func(c *mpdc.Client) error {
		attrs, err := c.CurrentSong()
		if err != nil {
			return err
		}
		if len(attrs) == 0 {
			return nil
		}
		t := attrsToTrack(attrs)
		track = &t
		return nil
	})

	return track, err
}

// do dials MPD, runs fn, and closes the connection. MPD commands are cheap
// and the daemon may restart at any time, so a connection per operation is
// simpler than keepalive bookkeeping.
func (p *Player) do(fn func(c *mpdc.Client) error) error {
	client, err := p.dial()
	if err != nil {
		return fmt.Errorf("connecting to mpd at %s: %w", p.Config.Player.Address, err)
	}
	defer client.Close()

	return fn(client)
}

func (p *Player) dial() (*mpdc.Client, error) {
	if p.Config.Player.Password != "" {
		return mpdc.DialAuthenticated("tcp", p.Config.Player.Address, p.Config.Player.Password)
	}
	return mpdc.Dial("tcp", p.Config.Player.Address)
}

func (p *Player) Playlists() ([]player.Playlist, int, error) {
	var playlists []player.Playlist

	err := p.do(func(c *mpdc.Client) error {
		attrs, err := c.ListPlaylists()
		if err != nil {
			return err
		}
		for _, a := range attrs {
			playlists = append(playlists, player.Playlist{Title: a["playlist"]})
		}
		return nil
	})
	if err != nil {
		return nil, -1, err
	}

	p.mu.Lock()
	cur := p.curPlaylist
	p.mu.Unlock()
	if cur >= len(playlists) {
		cur = -1
	}
	return playlists, cur, nil
}

// SetCurrentPlaylist replaces the play queue with the stored playlist at
// idx. MPD's queue is the only playable view, so "switching playlists"
// means reloading the queue.
func (p *Player) SetCurrentPlaylist(idx int) error {
	err := p.do(func(c *mpdc.Client) error {
		attrs, err := c.ListPlaylists()
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(attrs) {
			return fmt.Errorf("playlist index %d out of range", idx)
		}
		if err := c.Clear(); err != nil {
			return err
		}
		return c.PlaylistLoad(attrs[idx]["playlist"], -1, -1)
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.curPlaylist = idx
	p.mu.Unlock()
	return nil
}

func (p *Player) Tracks() ([]player.Track, error) {
	var tracks []player.Track

	err := p.do(func(c *mpdc.Client) error {
		attrs, err := c.PlaylistInfo(-1, -1)
		if err != nil {
			return err
		}
		for _, a := range attrs {
			tracks = append(tracks, attrsToTrack(a))
		}
		return nil
	})

	return tracks, err
}

func (p *Player) TrackByID(id string) (player.Track, bool, error) {
	tracks, err := p.Tracks()
	if err != nil {
		return player.Track{}, false, err
	}
	for _, t := range tracks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return player.Track{}, false, nil
}

// Search filters the current queue by a case-insensitive substring match
// over artist, album, and title.
func (p *Player) Search(query string) ([]player.Track, error) {
	tracks, err := p.Tracks()
	if err != nil {
		return nil, err
	}
	return filterTracks(tracks, query), nil
}

func (p *Player) PlayCurrent() error {
	return p.do(func(c *mpdc.Client) error { return c.Play(-1) })
}

func (p *Player) PlayIndex(idx int) error {
	return p.do(func(c *mpdc.Client) error { return c.Play(idx) })
}

func (p *Player) PlayTrack(id string) error {
	songID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("malformed track id %q", id)
	}
	return p.do(func(c *mpdc.Client) error { return c.PlayID(songID) })
}

func (p *Player) PlayRandom() error {
	tracks, err := p.Tracks()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("play queue is empty")
	}
	return p.PlayIndex(rand.Intn(len(tracks)))
}

func (p *Player) Pause() error {
	return p.do(func(c *mpdc.Client) error { return c.Pause(true) })
}

func (p *Player) Stop() error {
	return p.do(func(c *mpdc.Client) error { return c.Stop() })
}

func (p *Player) Previous() error {
	return p.do(func(c *mpdc.Client) error { return c.Previous() })
}

func (p *Player) Next() error {
	return p.do(func(c *mpdc.Client) error { return c.Next() })
}

func (p *Player) State() (player.PlaybackState, error) {
	state := player.StateStopped

	err := p.do(func(c *mpdc.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		switch status["state"] {
		case "play":
			state = player.StatePlaying
		case "pause":
			state = player.StatePaused
		}
		return nil
	})

	return state, err
}

// AdjustVolume applies a relative change in percent, clamped to [0, 100].
func (p *Player) AdjustVolume(step int) error {
	return p.do(func(c *mpdc.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		volume, _ := strconv.Atoi(status["volume"])

		volume += step
		if volume < 0 {
			volume = 0
		} else if volume > 100 {
			volume = 100
		}
		return c.SetVolume(volume)
	})
}

func (p *Player) Seek(step int) error {
	return p.do(func(c *mpdc.Client) error {
		return c.SeekCur(time.Duration(step)*time.Second, true)
	})
}

// QueuePush moves the track directly after the playing one, which is as
// close as MPD's queue model gets to a playback queue.
func (p *Player) QueuePush(id string) error {
	songID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("malformed track id %q", id)
	}
	return p.do(func(c *mpdc.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(status["song"])
		if err != nil {
			pos = -1
		}
		return c.MoveID(songID, pos+1)
	})
}

// ToggleStopAfterCurrent flips MPD's single mode, which ends playback after
// the current song when repeat is off.
func (p *Player) ToggleStopAfterCurrent() (bool, error) {
	var enabled bool

	err := p.do(func(c *mpdc.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		enabled = status["single"] != "1"
		return c.Single(enabled)
	})

	return enabled, err
}

func (p *Player) Terminate() error {
	return p.do(func(c *mpdc.Client) error {
		// kill closes the connection without a response, so an EOF here
		// means the daemon did what we asked.
		return c.Command("kill").OK()
	})
}

func attrsToTrack(attrs mpdc.Attrs) player.Track {
	var duration time.Duration
	if secs, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		duration = time.Duration(secs * float64(time.Second))
	} else if secs, err := strconv.Atoi(attrs["Time"]); err == nil {
		duration = time.Duration(secs) * time.Second
	}

	return player.Track{
		ID:       attrs["Id"],
		Artist:   attrs["Artist"],
		Album:    attrs["Album"],
		Title:    attrs["Title"],
		Number:   attrs["Track"],
		Duration: duration,
	}
}

func filterTracks(tracks []player.Track, query string) []player.Track {
	query = strings.ToLower(strings.TrimSpace(query))

	var matches []player.Track
	for _, t := range tracks {
		haystack := strings.ToLower(t.Artist + " " + t.Album + " " + t.Title)
		if strings.Contains(haystack, query) {
			matches = append(matches, t)
		}
	}
	return matches
}
