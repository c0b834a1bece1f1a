// ABOUTME: Collaborator boundary for the remote music-streaming service
// ABOUTME: Session, metadata and playback-engine interfaces the core consumes
package streaming

import (
	"context"

	"github.com/Calliope-Cast/calliope-go/pkg/audio"
)

// Session is an authenticated connection to the streaming service.
// The wire protocol, auth and reconnect behavior live behind it.
type Session interface {
	// ResolveTrack looks up track metadata by ID
	ResolveTrack(ctx context.Context, trackID string) (Track, error)

	// ResolveArtist looks up artist metadata by ID
	ResolveArtist(ctx context.Context, artistID string) (Artist, error)
}

// Track is resolved track metadata.
type Track struct {
	ID      string
	Name    string
	Artists []string // artist IDs, primary first
}

// Artist is resolved artist metadata.
type Artist struct {
	ID   string
	Name string
}

// Sink receives decoded audio blocks from the playback engine.
type Sink interface {
	Start() error
	Write(block audio.Block) error
	Stop() error
}

// SinkFactory yields a fresh sink for each playback engine.
type SinkFactory func() Sink

// Engine is the playback engine bound to a session and a sink.
type Engine interface {
	Close()
}

// EngineFactory builds a playback engine and its event stream.
type EngineFactory func(cfg EngineConfig, session Session, sinkFactory SinkFactory) (Engine, <-chan Event, error)

// EngineConfig configures the playback engine.
type EngineConfig struct {
	Bitrate  Bitrate
	Gapless  bool
	Autoplay bool
}

// Bitrate is the streaming quality tier.
type Bitrate int

const (
	Bitrate96 Bitrate = iota
	Bitrate160
	Bitrate320
)

// ConnectSession is an active handle representing this process acting as
// a remote playback target. Shutdown is cooperative: the protocol loop
// observes the request and exits on its own schedule.
type ConnectSession interface {
	Shutdown()
}

// ConnectConfig describes the advertised cast device.
type ConnectConfig struct {
	DeviceName    string
	DeviceType    string
	InitialVolume uint16
	Autoplay      bool
}

// ConnectFactory opens a connect session. The returned run function is the
// session's protocol loop; it blocks until Shutdown is invoked or the
// session ends on its own.
type ConnectFactory func(cfg ConnectConfig, session Session, engine Engine, volume VolumePolicy) (ConnectSession, func(), error)

// Provider bundles the collaborator implementations handed to the
// session controller at startup.
type Provider struct {
	Session Session
	Engines EngineFactory
	Connect ConnectFactory
}
