// ABOUTME: Main bridge application orchestration
// ABOUTME: Wires gateway, session controller, coordinator and presence tracker
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Calliope-Cast/calliope-go/internal/config"
	"github.com/Calliope-Cast/calliope-go/internal/coordinator"
	"github.com/Calliope-Cast/calliope-go/internal/discovery"
	"github.com/Calliope-Cast/calliope-go/internal/metrics"
	"github.com/Calliope-Cast/calliope-go/internal/presence"
	"github.com/Calliope-Cast/calliope-go/internal/session"
	"github.com/Calliope-Cast/calliope-go/internal/sink"
	"github.com/Calliope-Cast/calliope-go/internal/streaming"
	"github.com/Calliope-Cast/calliope-go/internal/ui"
	"github.com/Calliope-Cast/calliope-go/internal/voice"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Bridge is the assembled application.
type Bridge struct {
	cfg      config.Config
	provider streaming.Provider

	gateway     *voice.Gateway
	controller  *session.Controller
	coordinator *coordinator.Coordinator
	tracker     *presence.Tracker
	advertiser  *discovery.Advertiser
	metrics     *metrics.Metrics

	tuiProg *tea.Program
	tuiQuit chan ui.QuitMsg

	callID string

	statusMu   sync.Mutex
	nowPlaying string

	stopOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New assembles a bridge from configuration and a streaming provider.
func New(cfg config.Config, provider streaming.Provider, m *metrics.Metrics) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())

	return &Bridge{
		cfg:      cfg,
		provider: provider,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start connects the gateway and runs all component loops. Blocks until
// Stop is called or the TUI quits.
func (b *Bridge) Start() error {
	b.gateway = voice.NewGateway(voice.GatewayConfig{
		Addr:       b.cfg.GatewayAddr,
		Token:      b.cfg.Token,
		Name:       b.cfg.DeviceName,
		SampleRate: b.cfg.OutputRate,
		Channels:   b.cfg.Channels,
	})

	if err := b.gateway.Connect(); err != nil {
		return fmt.Errorf("gateway connect failed: %w", err)
	}

	// The call context arrives with ready; without one there is nothing
	// to bridge into.
	var ready voice.Ready
	select {
	case ready = <-b.gateway.ReadyCh:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("gateway ready timed out")
	}

	if ready.CallID == "" {
		return fmt.Errorf("gateway reported no enclosing call")
	}
	b.callID = ready.CallID

	sinkCfg := sink.Config{
		InputRate:      b.cfg.InputRate,
		OutputRate:     b.cfg.OutputRate,
		Channels:       b.cfg.Channels,
		BridgeCapacity: b.cfg.BridgeCapacity,
	}
	if b.metrics != nil {
		m := b.metrics
		sinkCfg.OnPush = func(n int) {
			m.BytesPushed.Add(float64(n))
			m.BlocksWritten.Inc()
		}
	}

	b.controller = session.NewController(session.Config{
		DeviceName:    b.cfg.DeviceName,
		DeviceType:    b.cfg.DeviceType,
		InitialVolume: b.cfg.InitialVolume,
		Bitrate:       b.cfg.Bitrate,
		Sink:          sinkCfg,
	}, b.provider.Session, b.provider.Engines, b.provider.Connect,
		b.cfg.VolumePolicy(nil))

	b.coordinator = coordinator.New(coordinator.Config{
		CallID:     b.callID,
		WatchedID:  b.cfg.WatchedID,
		BitrateBps: b.cfg.BitrateBps(),
	}, b.controller, b.gateway, b.gateway, b.gateway)

	b.tracker = presence.NewTracker(b.cfg.WatchedID, b.callID, b.controller, b.gateway)

	b.wireObservers()

	// Advertise the cast device so the streaming service can offer it
	b.advertiser = discovery.NewAdvertiser(discovery.Config{
		DeviceName: b.cfg.DeviceName,
		DeviceID:   uuid.New().String(),
		Port:       b.cfg.AdvertisePort,
	})
	if err := b.advertiser.Start(); err != nil {
		log.Printf("Discovery unavailable: %v", err)
	}

	go b.coordinator.Run(b.ctx)
	go b.tracker.Run(b.gateway.StateChanges)

	if !b.cfg.NoTUI {
		prog, quit, err := ui.Run()
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		b.tuiProg = prog
		b.tuiQuit = quit
		go b.tuiProg.Run()
		go b.tuiLoop()
	}

	// If the watched participant is already in voice, start casting now
	if ready.Members[b.cfg.WatchedID] != "" {
		if err := b.controller.Enable(); err != nil {
			log.Printf("Initial enable failed: %v", err)
		}
	}

	select {
	case <-b.ctx.Done():
	case <-b.quitChan():
		log.Printf("Quit requested from TUI")
	}

	return nil
}

// quitChan returns the TUI quit channel or a never-firing one.
func (b *Bridge) quitChan() <-chan ui.QuitMsg {
	if b.tuiQuit != nil {
		return b.tuiQuit
	}
	return make(chan ui.QuitMsg)
}

// wireObservers connects metrics and TUI hooks.
func (b *Bridge) wireObservers() {
	b.coordinator.OnStatus = func(text string) {
		b.statusMu.Lock()
		b.nowPlaying = text
		b.statusMu.Unlock()
	}

	if b.metrics == nil {
		return
	}
	m := b.metrics

	b.coordinator.OnEvent = func(kind streaming.EventKind) {
		m.EventsProcessed.WithLabelValues(kind.String()).Inc()
	}
	b.coordinator.OnMetadataFailure = func() {
		m.MetadataFailures.Inc()
	}
	b.coordinator.WrapSource = func(src io.Reader) io.Reader {
		return &countingReader{r: src, count: m.BytesPulled}
	}

	b.controller.OnStateChange = func(active bool) {
		if active {
			m.SessionsStarted.Inc()
			m.SessionActive.Set(1)
		} else {
			m.SessionsStopped.Inc()
			m.SessionActive.Set(0)
		}
	}

	b.gateway.OnFrame = func() { m.FramesSent.Inc() }
	b.gateway.OnJoin = func() { m.VoiceJoins.Inc() }
}

// tuiLoop pushes periodic status snapshots into the TUI.
func (b *Bridge) tuiLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.statusMu.Lock()
			playing := b.nowPlaying
			b.statusMu.Unlock()

			msg := ui.StatusMsg{
				GatewayConnected: b.gateway.IsConnected(),
				GatewayAddr:      b.cfg.GatewayAddr,
				SessionEnabled:   b.controller.Enabled(),
				NowPlaying:       playing,
				VoiceChannel:     b.gateway.CurrentChannel(),
			}
			if msg.SessionEnabled {
				msg.PlaybackState = "playing"
			} else {
				msg.PlaybackState = "idle"
			}
			if s := b.controller.ActiveSink(); s != nil {
				msg.BridgeBuffered = s.Bridge().Len()
				msg.BridgeCapacity = s.Bridge().Cap()
			}
			b.tuiProg.Send(msg)

		case <-b.ctx.Done():
			return
		}
	}
}

// Stop shuts everything down cooperatively. The signal handler and the
// post-Start cleanup both call it; only the first call acts.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.cancel()

		if b.controller != nil {
			b.controller.Close()
		}
		if b.gateway != nil {
			b.gateway.Close()
		}
		if b.advertiser != nil {
			b.advertiser.Stop()
		}
		if b.tuiProg != nil {
			b.tuiProg.Quit()
		}
	})
}

// countingReader counts bytes pulled through the bridge reader.
type countingReader struct {
	r     io.Reader
	count interface{ Add(float64) }
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.count.Add(float64(n))
	}
	return n, err
}
