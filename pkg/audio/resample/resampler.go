// ABOUTME: Linear-interpolation resampler for float32 audio
// ABOUTME: Converts between sample rates while preserving channel interleaving
package resample

import "math"

// Resampler converts interleaved float32 frames between sample rates
// using linear interpolation. The fractional read position carries over
// between calls so consecutive blocks resample without drift.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a resampler converting inputRate to outputRate.
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts one block of interleaved input samples and returns the
// interpolated output samples at the target rate. The output length is
// approximately ceil(frames * outputRate / inputRate) frames; the exact count
// varies by one frame depending on the carried fractional position.
func (r *Resampler) Resample(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}

	inputFrames := len(input) / r.channels
	// ceil so the block's tail is held rather than dropped; the epsilon
	// keeps exact-ratio boundaries from rounding up twice
	outputFrames := int(math.Ceil((float64(inputFrames)-r.position)/r.ratio - 1e-9))
	if outputFrames < 0 {
		outputFrames = 0
	}

	output := make([]float32, 0, outputFrames*r.channels)

	for out := 0; out < outputFrames; out++ {
		inputPos := r.position + float64(out)*r.ratio
		inputIdx := int(inputPos)
		frac := inputPos - float64(inputIdx)

		// Hold the final frame instead of reading past the block
		next := inputIdx + 1
		if next >= inputFrames {
			next = inputFrames - 1
		}
		if inputIdx >= inputFrames {
			inputIdx = inputFrames - 1
			frac = 0
		}

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(input[inputIdx*r.channels+ch])
			s2 := float64(input[next*r.channels+ch])
			output = append(output, float32(s1*(1.0-frac)+s2*frac))
		}
	}

	// Carry the fractional position into the next block
	r.position += float64(outputFrames) * r.ratio
	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}

	return output
}

// Reset clears the carried fractional position.
func (r *Resampler) Reset() {
	r.position = 0.0
}

// Ratio returns the input/output rate ratio.
func (r *Resampler) Ratio() float64 {
	return r.ratio
}
