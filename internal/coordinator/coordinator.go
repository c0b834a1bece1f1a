// ABOUTME: Event coordinator turning playback events into call actions
// ABOUTME: Drives voice join/leave, bitrate, status text and metadata lookups
package coordinator

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
	"github.com/Calliope-Cast/calliope-go/internal/voice"
)

// Sessions is the controller surface the coordinator reads from.
type Sessions interface {
	Events() <-chan streaming.Event
	Session() streaming.Session
	Reader() io.Reader
}

// Membership resolves where a participant currently is.
type Membership interface {
	ChannelOf(userID string) string
}

// Config holds the coordinator's call context.
type Config struct {
	CallID     string
	WatchedID  string
	BitrateBps int
}

// Coordinator is the single long-lived loop consuming playback events.
// A slow metadata lookup stalls only its own iteration; the audio path
// through the bridge is untouched by it.
type Coordinator struct {
	cfg       Config
	sessions  Sessions
	transport voice.Transport
	status    voice.StatusAPI
	members   Membership

	// OnStatus, when set, mirrors status text to a local observer (TUI)
	OnStatus func(text string)
	// OnEvent, when set, observes each handled event kind
	OnEvent func(kind streaming.EventKind)
	// OnMetadataFailure, when set, observes swallowed lookup failures
	OnMetadataFailure func()
	// WrapSource, when set, wraps the bridge reader before playback
	WrapSource func(io.Reader) io.Reader
}

// New creates a coordinator.
func New(cfg Config, sessions Sessions, transport voice.Transport, status voice.StatusAPI, members Membership) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		sessions:  sessions,
		transport: transport,
		status:    status,
		members:   members,
	}
}

// Run consumes the multiplexed event stream until ctx is cancelled or the
// stream closes.
func (c *Coordinator) Run(ctx context.Context) {
	log.Printf("Event coordinator started")

	for {
		select {
		case <-ctx.Done():
			log.Printf("Event coordinator stopping")
			return

		case ev, ok := <-c.sessions.Events():
			if !ok {
				log.Printf("Event stream closed")
				return
			}
			c.handle(ctx, ev)
		}
	}
}

// handle applies one playback event.
func (c *Coordinator) handle(ctx context.Context, ev streaming.Event) {
	if c.OnEvent != nil {
		c.OnEvent(ev.Kind)
	}

	switch ev.Kind {
	case streaming.EventStopped:
		c.setStatus("")
		if err := c.transport.Leave(c.cfg.CallID); err != nil {
			log.Printf("Leave failed: %v", err)
		}

	case streaming.EventStarted:
		c.started()

	case streaming.EventPaused:
		c.setStatus("")

	case streaming.EventPlaying:
		c.playing(ctx, ev.TrackID)

	default:
		// engine chatter the bridge does not act on
	}
}

// started joins the watched participant's channel and wires the bridge
// into the transmitter. Playback start must not assume bytes are already
// buffered; the transmit loop blocks on the bridge until they arrive.
func (c *Coordinator) started() {
	channel := c.members.ChannelOf(c.cfg.WatchedID)
	if channel == "" {
		log.Printf("Playback started but watched participant is not in voice")
		return
	}

	if err := c.transport.Join(c.cfg.CallID, channel); err != nil {
		log.Printf("Join failed: %v", err)
		return
	}

	if err := c.transport.SetBitrate(c.cfg.BitrateBps); err != nil {
		log.Printf("Bitrate set failed: %v", err)
	}

	src := c.sessions.Reader()
	if src == nil {
		log.Printf("Playback started with no active session bridge")
		return
	}

	if c.WrapSource != nil {
		src = c.WrapSource(src)
	}

	c.transport.PlaySource(src)
}

// playing resolves track and primary-artist metadata and updates the
// displayed status. Any lookup failure leaves the status untouched:
// cosmetic degradation, never an error surfaced upward.
func (c *Coordinator) playing(ctx context.Context, trackID string) {
	sess := c.sessions.Session()

	track, err := sess.ResolveTrack(ctx, trackID)
	if err != nil {
		log.Printf("Track lookup failed for %s: %v", trackID, err)
		c.metadataFailed()
		return
	}

	if len(track.Artists) == 0 {
		log.Printf("Track %s has no artists", trackID)
		c.metadataFailed()
		return
	}

	artist, err := sess.ResolveArtist(ctx, track.Artists[0])
	if err != nil {
		log.Printf("Artist lookup failed for %s: %v", track.Artists[0], err)
		c.metadataFailed()
		return
	}

	c.setStatus(fmt.Sprintf("%s: %s", artist.Name, track.Name))
}

func (c *Coordinator) metadataFailed() {
	if c.OnMetadataFailure != nil {
		c.OnMetadataFailure()
	}
}

// setStatus publishes status text; empty clears it, staying online.
func (c *Coordinator) setStatus(text string) {
	if err := c.status.SetStatus(text, true); err != nil {
		log.Printf("Status update failed: %v", err)
	}
	if c.OnStatus != nil {
		c.OnStatus(text)
	}
}
