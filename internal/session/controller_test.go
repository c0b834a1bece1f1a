// ABOUTME: Tests for the connect-session controller
// ABOUTME: Lifecycle, overlapping-enable policy and event multiplexing
package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

type fakeSession struct{}

func (fakeSession) ResolveTrack(context.Context, string) (streaming.Track, error) {
	return streaming.Track{}, nil
}
func (fakeSession) ResolveArtist(context.Context, string) (streaming.Artist, error) {
	return streaming.Artist{}, nil
}

type fakeEngine struct{}

func (fakeEngine) Close() {}

type fakeConnect struct {
	mu        sync.Mutex
	shutdowns int
	stop      chan struct{}
}

func (f *fakeConnect) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
}

func (f *fakeConnect) shutdownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

// harness bundles fake factories and exposes their state to assertions.
type harness struct {
	mu       sync.Mutex
	events   chan streaming.Event
	connects []*fakeConnect
}

func newHarness() *harness {
	return &harness{}
}

func (h *harness) engineFactory(cfg streaming.EngineConfig, s streaming.Session, sf streaming.SinkFactory) (streaming.Engine, <-chan streaming.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = make(chan streaming.Event, 16)
	sf() // a real factory always builds the sink
	return fakeEngine{}, h.events, nil
}

func (h *harness) connectFactory(cfg streaming.ConnectConfig, s streaming.Session, e streaming.Engine, v streaming.VolumePolicy) (streaming.ConnectSession, func(), error) {
	conn := &fakeConnect{stop: make(chan struct{})}
	h.mu.Lock()
	h.connects = append(h.connects, conn)
	events := h.events
	h.mu.Unlock()

	run := func() {
		<-conn.stop
		close(events)
	}
	return conn, run, nil
}

func (h *harness) lastConnect() *fakeConnect {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.connects) == 0 {
		return nil
	}
	return h.connects[len(h.connects)-1]
}

func (h *harness) emit(ev streaming.Event) {
	h.mu.Lock()
	events := h.events
	h.mu.Unlock()
	events <- ev
}

func newTestController(h *harness) *Controller {
	return NewController(Config{
		DeviceName:    "Test Device",
		DeviceType:    "speaker",
		InitialVolume: 100,
	}, fakeSession{}, h.engineFactory, h.connectFactory, nil)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEnableDisableLifecycle(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	if !c.Enabled() {
		t.Fatal("expected controller to be enabled")
	}
	if c.Reader() == nil {
		t.Fatal("expected an active bridge reader")
	}

	c.Disable()

	if h.lastConnect().shutdownCount() != 1 {
		t.Errorf("expected 1 shutdown, got %d", h.lastConnect().shutdownCount())
	}

	// The background task must observe shutdown and clear state
	waitFor(t, "session to end", func() bool { return !c.Enabled() })
}

func TestDisableWithoutSessionIsNoop(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	c.Disable() // must not panic or error

	if len(h.connects) != 0 {
		t.Errorf("expected no connect sessions, got %d", len(h.connects))
	}
}

func TestEnableWhileEnabledIsRejected(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	if err := c.Enable(); err != nil {
		t.Fatalf("first enable failed: %v", err)
	}

	if err := c.Enable(); err != ErrAlreadyEnabled {
		t.Errorf("expected ErrAlreadyEnabled, got %v", err)
	}

	if len(h.connects) != 1 {
		t.Errorf("expected a single connect session, got %d", len(h.connects))
	}
}

func TestEnableAfterDisableStartsFreshSession(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	first := c.Reader()

	c.Disable()
	waitFor(t, "first session to end", func() bool { return !c.Enabled() })

	if err := c.Enable(); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}

	if len(h.connects) != 2 {
		t.Fatalf("expected 2 connect sessions, got %d", len(h.connects))
	}
	if c.Reader() == first {
		t.Error("expected a fresh bridge for the new session")
	}
}

func TestEventsAreMultiplexed(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	h.emit(streaming.Event{Kind: streaming.EventStarted})

	select {
	case ev := <-c.Events():
		if ev.Kind != streaming.EventStarted {
			t.Errorf("expected started event, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestEventsSurviveSessionReplacement(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	c.Disable()
	waitFor(t, "session to end", func() bool { return !c.Enabled() })

	if err := c.Enable(); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}

	// Events from the second session arrive on the same channel; the
	// coordinator never has to re-subscribe
	h.emit(streaming.Event{Kind: streaming.EventPlaying, TrackID: "t1"})

	select {
	case ev := <-c.Events():
		if ev.Kind != streaming.EventPlaying || ev.TrackID != "t1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event from replacement session not forwarded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness()
	c := newTestController(h)

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	// Shutdown paths converge on Close from both the signal handler and
	// the post-run cleanup; the second call must be a no-op
	c.Close()
	c.Close()

	waitFor(t, "session to end", func() bool { return !c.Enabled() })
	if h.lastConnect().shutdownCount() != 1 {
		t.Errorf("expected 1 shutdown, got %d", h.lastConnect().shutdownCount())
	}
}

func TestOnStateChangeObserver(t *testing.T) {
	h := newHarness()
	c := newTestController(h)
	defer c.Close()

	var mu sync.Mutex
	var transitions []bool
	c.OnStateChange = func(active bool) {
		mu.Lock()
		transitions = append(transitions, active)
		mu.Unlock()
	}

	if err := c.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	c.Disable()
	waitFor(t, "session to end", func() bool { return !c.Enabled() })

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Errorf("expected [true false], got %v", transitions)
	}
}
