// ABOUTME: Tests for the float32 audio resampler
// ABOUTME: Tests linear interpolation between sample rates and carry across blocks
package resample

import (
	"testing"
)

func TestNewResampler(t *testing.T) {
	r := New(44100, 48000, 2)

	if r == nil {
		t.Fatal("expected resampler to be created")
	}

	if r.inputRate != 44100 {
		t.Errorf("expected inputRate 44100, got %d", r.inputRate)
	}

	if r.outputRate != 48000 {
		t.Errorf("expected outputRate 48000, got %d", r.outputRate)
	}

	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleUpsampling(t *testing.T) {
	// 44100 -> 48000 (upsampling by factor of ~1.088)
	r := New(44100, 48000, 2)

	// Input: 100 stereo frames (200 float values)
	input := make([]float32, 200)
	for i := range input {
		input[i] = float32(i) * 0.001 // Ramp signal
	}

	output := r.Resample(input)

	if len(output) == 0 {
		t.Fatal("resampler produced no output")
	}

	// Should have produced approximately the rate-scaled amount
	expectedSize := int(float64(len(input)) * 48000.0 / 44100.0)
	if len(output) < expectedSize-4 || len(output) > expectedSize+4 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, len(output))
	}

	// Output must be a whole number of frames
	if len(output)%2 != 0 {
		t.Errorf("expected whole stereo frames, got %d samples", len(output))
	}

	// Output should carry the ramp, not zeros
	allZero := true
	for _, s := range output {
		if s != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("output contains only zeros")
	}
}

func TestResampleDownsampling(t *testing.T) {
	// 48000 -> 44100 (downsampling by factor of ~0.919)
	r := New(48000, 44100, 2)

	input := make([]float32, 200)
	for i := range input {
		input[i] = float32(i) * 0.001
	}

	output := r.Resample(input)

	expectedSize := int(float64(len(input)) * 44100.0 / 48000.0)
	if len(output) < expectedSize-4 || len(output) > expectedSize+4 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, len(output))
	}
}

func TestResampleTenFrameBlock(t *testing.T) {
	// 10 stereo frames from 44100 to 48000 should yield ceil(10.88) = 11
	// frames, 22 samples
	r := New(44100, 48000, 2)

	input := make([]float32, 20)
	for i := range input {
		input[i] = float32(i)
	}

	output := r.Resample(input)

	if len(output) != 22 {
		t.Errorf("expected 22 output samples, got %d", len(output))
	}
}

func TestResampleInterpolates(t *testing.T) {
	r := New(44100, 48000, 1)

	// Monotonic ramp in, monotonic ramp out
	input := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	output := r.Resample(input)

	for i := 1; i < len(output); i++ {
		if output[i] < output[i-1] {
			t.Fatalf("output not monotonic at %d: %f < %f", i, output[i], output[i-1])
		}
	}

	if output[0] != 0 {
		t.Errorf("expected first sample 0, got %f", output[0])
	}
}

func TestResampleCarriesAcrossBlocks(t *testing.T) {
	r := New(44100, 48000, 2)

	totalOut := 0
	blocks := 50
	framesPerBlock := 100

	for i := 0; i < blocks; i++ {
		input := make([]float32, framesPerBlock*2)
		totalOut += len(r.Resample(input))
	}

	// Across many blocks the total must track the exact rate ratio
	// without accumulating drift
	expected := int(float64(blocks*framesPerBlock*2) * 48000.0 / 44100.0)
	if totalOut < expected-8 || totalOut > expected+8 {
		t.Errorf("expected ~%d total samples over %d blocks, got %d", expected, blocks, totalOut)
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(44100, 48000, 2)

	if out := r.Resample(nil); out != nil {
		t.Errorf("expected nil output for empty input, got %d samples", len(out))
	}
}

func TestReset(t *testing.T) {
	r := New(44100, 48000, 2)

	r.Resample(make([]float32, 20))
	r.Reset()

	if r.position != 0 {
		t.Errorf("expected position 0 after reset, got %f", r.position)
	}
}
