// ABOUTME: Bridge-backed audio sink for the playback engine
// ABOUTME: Resamples and encodes each block, then pushes it into the byte bridge
package sink

import (
	"fmt"
	"io"

	"github.com/Calliope-Cast/calliope-go/internal/bridge"
	"github.com/Calliope-Cast/calliope-go/pkg/audio"
	"github.com/Calliope-Cast/calliope-go/pkg/audio/encode"
	"github.com/Calliope-Cast/calliope-go/pkg/audio/resample"
)

// Config holds sink rates and bridge sizing.
type Config struct {
	InputRate      int
	OutputRate     int
	Channels       int
	BridgeCapacity int

	// OnPush, when set, observes each successful push (byte count)
	OnPush func(bytes int)
}

// DefaultConfig matches the streaming service's delivery format and the
// voice transport's consumption format.
func DefaultConfig() Config {
	return Config{
		InputRate:      44100,
		OutputRate:     48000,
		Channels:       2,
		BridgeCapacity: bridge.DefaultCapacity,
	}
}

// StreamSink converts blocks from the playback engine into the byte stream
// the voice transport reads. Write runs on the engine's callback schedule
// and blocks on the bridge when the consumer falls behind; that
// backpressure is what paces the engine.
type StreamSink struct {
	cfg       Config
	resampler *resample.Resampler
	encoder   encode.Encoder
	bridge    *bridge.Bridge
}

// New creates a sink backed by a fresh bridge.
func New(cfg Config) *StreamSink {
	def := DefaultConfig()
	if cfg.InputRate == 0 {
		cfg.InputRate = def.InputRate
	}
	if cfg.OutputRate == 0 {
		cfg.OutputRate = def.OutputRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = def.Channels
	}
	if cfg.BridgeCapacity == 0 {
		cfg.BridgeCapacity = def.BridgeCapacity
	}
	return &StreamSink{
		cfg:       cfg,
		resampler: resample.New(cfg.InputRate, cfg.OutputRate, cfg.Channels),
		encoder:   encode.NewFloat32LE(),
		bridge:    bridge.New(cfg.BridgeCapacity),
	}
}

// Start implements streaming.Sink.
func (s *StreamSink) Start() error {
	return nil
}

// Write resamples, encodes and pushes one block. A block the encoder
// cannot handle fails the write visibly; a silently dropped block would
// leave the consumer starved with no signal why.
func (s *StreamSink) Write(block audio.Block) error {
	if !block.Valid() {
		return fmt.Errorf("sink: malformed block: %d samples for %d channels",
			len(block.Samples), block.Format.Channels)
	}

	resampled := s.resampler.Resample(block.Samples)

	data, err := s.encoder.Encode(resampled)
	if err != nil {
		return fmt.Errorf("sink: encode failed: %w", err)
	}

	if err := s.bridge.Push(data); err != nil {
		return fmt.Errorf("sink: bridge push failed: %w", err)
	}

	if s.cfg.OnPush != nil {
		s.cfg.OnPush(len(data))
	}
	return nil
}

// Stop closes the bridge, releasing a blocked consumer.
func (s *StreamSink) Stop() error {
	s.bridge.Close()
	return nil
}

// Reader returns the consumer end of the bridge as a raw byte source.
func (s *StreamSink) Reader() io.Reader {
	return s.bridge
}

// Bridge exposes the underlying bridge for stats.
func (s *StreamSink) Bridge() *bridge.Bridge {
	return s.bridge
}
