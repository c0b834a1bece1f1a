// ABOUTME: Playback event types emitted by the playback engine
// ABOUTME: Tagged variants consumed by the event coordinator
package streaming

// EventKind tags a playback event.
type EventKind int

const (
	// EventOther covers engine events the coordinator does not act on
	EventOther EventKind = iota
	EventStopped
	EventStarted
	EventPaused
	EventPlaying
)

// Event is one playback-state transition from the engine's stream.
// Events are delivered in emission order and consumed at most once.
type Event struct {
	Kind    EventKind
	TrackID string // set for EventPlaying
}

func (k EventKind) String() string {
	switch k {
	case EventStopped:
		return "stopped"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventPlaying:
		return "playing"
	default:
		return "other"
	}
}
