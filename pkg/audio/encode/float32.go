// ABOUTME: Little-endian float32 PCM encoder
// ABOUTME: Encodes interleaved float samples to 4-byte LE words
package encode

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrNoSamples is returned when an encode is attempted on an empty block.
var ErrNoSamples = errors.New("encode: no samples")

// Float32LE encodes float32 samples as little-endian 32-bit words,
// preserving interleave order. One sample becomes exactly 4 bytes.
type Float32LE struct{}

// NewFloat32LE creates a new little-endian float encoder.
func NewFloat32LE() *Float32LE {
	return &Float32LE{}
}

// Encode converts samples to little-endian bytes.
func (e *Float32LE) Encode(samples []float32) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	output := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(s))
	}
	return output, nil
}

// Close releases resources.
func (e *Float32LE) Close() error {
	return nil
}
