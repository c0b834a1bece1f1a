// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats and interleaved float32 blocks
package audio

// Format describes a PCM float stream
type Format struct {
	SampleRate int
	Channels   int
}

// Block represents one chunk of decoded audio as delivered by the
// streaming session: channel-interleaved float32 samples.
type Block struct {
	Samples []float32
	Format  Format
}

// Frames returns the number of per-channel frames in the block.
func (b Block) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Valid reports whether the sample count is a whole number of frames.
func (b Block) Valid() bool {
	return b.Format.Channels > 0 && len(b.Samples)%b.Format.Channels == 0
}
