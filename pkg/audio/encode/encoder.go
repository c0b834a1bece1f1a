// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for sample-to-byte encoders
package encode

// Encoder encodes interleaved float32 samples to wire bytes
type Encoder interface {
	// Encode converts samples to encoded bytes
	Encode(samples []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
