package internal

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/beefmote/beefmote/internal/core"
	"github.com/beefmote/beefmote/internal/player"
	mpdplayer "github.com/beefmote/beefmote/internal/player/mpd"
	"github.com/beefmote/beefmote/internal/remote"
)

// Controller is the main entrypoint for beefmote. It's responsible for
// initializing the shared resources (logging, the host player connection),
// wiring the player events into the remote server, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup
}

func (c *Controller) Start(ctx context.Context) error {
	var err error
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	if c.Config.Debugging.PprofEnabled {
		go c.startPprofServer()
	}

	hostPlayer := mpdplayer.NewPlayer(c.Config, c.logger)

	server := &remote.Server{
		Config: c.Config,
		Logger: c.logger,
		Player: hostPlayer,
	}

	// The server's notification bridge consumes the player events,
	// optionally behind a debug tap.
	var handler player.Handler = server
	if c.Config.Debugging.EventLoggingEnabled {
		handler = &eventTap{logger: c.logger, next: server}
	}

	if err := hostPlayer.Start(handler); err != nil {
		// An unreachable player isn't fatal: commands will report it to
		// the client, and notifications resume if it comes back.
		c.logger.Warnf("player events unavailable: %v", err)
	} else {
		defer hostPlayer.Close()
	}

	server.Start(ctx, &c.wg)

	// Join the worker before releasing anything it shares.
	c.wg.Wait()
	return nil
}

func (c *Controller) startPprofServer() {
	addr := fmt.Sprintf("localhost:%d", c.Config.Debugging.PprofPort)
	c.logger.Infof("starting pprof server on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		c.logger.Warnf("pprof server exited: %v", err)
	}
}

// eventTap dumps every player event at debug level before forwarding it.
type eventTap struct {
	logger *logrus.Logger
	next   player.Handler
}

func (t *eventTap) OnPlayerEvent(ev player.Event) {
	t.logger.Debugf("player event: %s", spew.Sdump(ev))
	t.next.OnPlayerEvent(ev)
}
