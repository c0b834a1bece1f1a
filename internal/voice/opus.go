// ABOUTME: Opus encoder for outbound voice frames
// ABOUTME: Wraps libopus to encode float32 PCM before transmission
package voice

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// OpusEncoder wraps the Opus encoder used by the transmit loop.
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int // samples per channel per frame
}

// NewOpusEncoder creates an encoder for the transmit format.
// frameSize is in samples per channel (960 for 20ms at 48kHz).
func NewOpusEncoder(sampleRate, channels, frameSize int) (*OpusEncoder, error) {
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  frameSize,
	}, nil
}

// SetBitrate applies the target bitrate in bits/s.
func (e *OpusEncoder) SetBitrate(bps int) error {
	if err := e.encoder.SetBitrate(bps); err != nil {
		return fmt.Errorf("failed to set opus bitrate: %w", err)
	}
	return nil
}

// Encode encodes one interleaved float32 frame to an Opus packet.
func (e *OpusEncoder) Encode(pcm []float32) ([]byte, error) {
	// Opus packets never exceed 4000 bytes
	output := make([]byte, 4000)

	n, err := e.encoder.EncodeFloat32(pcm, output)
	if err != nil {
		return nil, fmt.Errorf("opus encode failed: %w", err)
	}

	return output[:n], nil
}

// FrameSamples returns the interleaved sample count of one frame.
func (e *OpusEncoder) FrameSamples() int {
	return e.frameSize * e.channels
}
