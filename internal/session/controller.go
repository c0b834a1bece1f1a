// ABOUTME: Connect-session lifecycle controller
// ABOUTME: Owns enable/disable and multiplexes engine events into one stream
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Calliope-Cast/calliope-go/internal/sink"
	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

// ErrAlreadyEnabled is returned when Enable is called while a connect
// session is live. Overlapping sessions would race on the bridge's single
// producer/consumer roles, so a second Enable is rejected outright.
var ErrAlreadyEnabled = errors.New("session: connect already enabled")

// Config holds everything Enable needs to construct a session.
type Config struct {
	DeviceName    string
	DeviceType    string
	InitialVolume uint16
	Bitrate       streaming.Bitrate
	Sink          sink.Config
}

// Controller owns at most one live connect session. Enable builds a fresh
// bridge-backed sink and playback engine, opens the connect session and
// runs its protocol loop in the background; Disable requests cooperative
// shutdown. Engine events from every session are forwarded into a single
// long-lived channel so the coordinator never has to re-subscribe.
type Controller struct {
	cfg     Config
	session streaming.Session
	engines streaming.EngineFactory
	connect streaming.ConnectFactory
	volume  streaming.VolumePolicy

	mu      sync.Mutex
	current streaming.ConnectSession
	active  *sink.StreamSink
	gen     int // bumped per Enable so stale pumps self-identify

	events    chan streaming.Event
	done      chan struct{}
	closeOnce sync.Once

	// OnStateChange, when set, observes session activation transitions
	OnStateChange func(active bool)
}

// NewController creates a controller bound to an authenticated session.
func NewController(cfg Config, session streaming.Session, engines streaming.EngineFactory, connect streaming.ConnectFactory, volume streaming.VolumePolicy) *Controller {
	if volume == nil {
		volume = streaming.FixedVolume{Level: cfg.InitialVolume}
	}
	return &Controller{
		cfg:     cfg,
		session: session,
		engines: engines,
		connect: connect,
		volume:  volume,
		events:  make(chan streaming.Event),
		done:    make(chan struct{}),
	}
}

// Events returns the multiplexed playback-event stream. The channel lives
// for the controller's lifetime; Enable swaps which engine feeds it.
func (c *Controller) Events() <-chan streaming.Event {
	return c.events
}

// Session returns the authenticated streaming session for metadata lookups.
func (c *Controller) Session() streaming.Session {
	return c.session
}

// Reader returns the consumer end of the current session's bridge, or nil
// when no session is enabled.
func (c *Controller) Reader() io.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.Reader()
}

// ActiveSink returns the current sink for stats, or nil.
func (c *Controller) ActiveSink() *sink.StreamSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Enabled reports whether a connect session is live.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Enable constructs a fresh sink, engine and connect session and starts
// the session's protocol loop. Returns ErrAlreadyEnabled if a session is
// already live.
func (c *Controller) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return ErrAlreadyEnabled
	}

	streamSink := sink.New(c.cfg.Sink)

	engineCfg := streaming.EngineConfig{
		Bitrate:  c.cfg.Bitrate,
		Gapless:  true,
		Autoplay: true,
	}

	engine, engineEvents, err := c.engines(engineCfg, c.session, func() streaming.Sink {
		return streamSink
	})
	if err != nil {
		return fmt.Errorf("session: engine creation failed: %w", err)
	}

	connectCfg := streaming.ConnectConfig{
		DeviceName:    c.cfg.DeviceName,
		DeviceType:    c.cfg.DeviceType,
		InitialVolume: c.volume.Volume(),
		Autoplay:      true,
	}

	conn, run, err := c.connect(connectCfg, c.session, engine, c.volume)
	if err != nil {
		engine.Close()
		return fmt.Errorf("session: connect open failed: %w", err)
	}

	c.current = conn
	c.active = streamSink
	c.gen++
	gen := c.gen

	// Forward this engine's events into the shared stream until the
	// engine closes it. Scoped to the session: a replaced pump drains
	// and exits without touching controller state.
	go c.pump(engineEvents, gen)

	// Protocol loop; returns once Shutdown is observed or the session
	// ends on its own.
	go func() {
		run()
		c.sessionEnded(gen)
	}()

	if c.OnStateChange != nil {
		c.OnStateChange(true)
	}

	log.Printf("Connect enabled: %s (%s)", c.cfg.DeviceName, c.cfg.DeviceType)
	return nil
}

// Disable requests cooperative shutdown of the live session. Calling it
// with no session is a no-op.
func (c *Controller) Disable() {
	c.mu.Lock()
	conn := c.current
	c.mu.Unlock()

	if conn == nil {
		return
	}

	log.Printf("Connect disable requested")
	conn.Shutdown()
}

// pump forwards engine events into the multiplexed stream.
func (c *Controller) pump(in <-chan streaming.Event, gen int) {
	for ev := range in {
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
	log.Printf("Event stream %d ended", gen)
}

// sessionEnded clears controller state after the protocol loop returns.
func (c *Controller) sessionEnded(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer Enable may already have replaced us
	if c.gen != gen {
		return
	}

	if c.active != nil {
		c.active.Stop()
	}
	c.current = nil
	c.active = nil

	if c.OnStateChange != nil {
		c.OnStateChange(false)
	}
	log.Printf("Connect session ended")
}

// Close shuts down the live session, if any, and stops event forwarding.
// Safe to call more than once; shutdown paths often converge here.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.Disable()
		close(c.done)
	})
}
