// ABOUTME: Voice-transmission layer interfaces consumed by the core
// ABOUTME: Call join/leave, bitrate, raw audio source playback and status
package voice

import "io"

// Transport moves raw audio into a live group voice call.
type Transport interface {
	// Join connects the transmitter to a channel within a call
	Join(callID, channelID string) error

	// Leave disconnects from the call
	Leave(callID string) error

	// SetBitrate configures the outbound encoder bitrate in bits/s
	SetBitrate(bps int) error

	// PlaySource starts transmitting from a raw little-endian
	// interleaved-float byte source. Replaces any previous source.
	PlaySource(src io.Reader)
}

// StatusAPI publishes the displayed activity of this participant.
type StatusAPI interface {
	// SetStatus sets the activity text; empty text clears it while
	// keeping the participant online
	SetStatus(text string, online bool) error
}

// StateChange reports one voice-membership transition for a participant.
// Empty channel IDs mean "not in any channel".
type StateChange struct {
	UserID     string
	OldChannel string
	NewChannel string
}
