// ABOUTME: Tests for audio block helpers
// ABOUTME: Frame counting and validity checks
package audio

import "testing"

func TestBlockFrames(t *testing.T) {
	b := Block{
		Samples: make([]float32, 20),
		Format:  Format{SampleRate: 44100, Channels: 2},
	}

	if b.Frames() != 10 {
		t.Errorf("expected 10 frames, got %d", b.Frames())
	}

	if !b.Valid() {
		t.Error("expected block to be valid")
	}
}

func TestBlockInvalid(t *testing.T) {
	b := Block{
		Samples: make([]float32, 21),
		Format:  Format{SampleRate: 44100, Channels: 2},
	}

	if b.Valid() {
		t.Error("expected odd-length stereo block to be invalid")
	}

	zero := Block{}
	if zero.Valid() {
		t.Error("expected zero block to be invalid")
	}
	if zero.Frames() != 0 {
		t.Errorf("expected 0 frames, got %d", zero.Frames())
	}
}
