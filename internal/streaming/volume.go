// ABOUTME: Volume policy capability for the connect session
// ABOUTME: Fixed, adjustable and external-controller variants
package streaming

import "sync/atomic"

// VolumePolicy decides how remote volume commands from the streaming
// service are applied. The bridge forwards raw floats into the voice call,
// so volume is a session-level capability rather than a DSP stage.
type VolumePolicy interface {
	// Volume returns the current level in the service's 0-65535 range
	Volume() uint16

	// SetVolume applies a remote volume command
	SetVolume(v uint16)
}

// FixedVolume ignores remote volume commands and always reports one level.
type FixedVolume struct {
	Level uint16
}

func (f FixedVolume) Volume() uint16   { return f.Level }
func (f FixedVolume) SetVolume(uint16) {}

// AdjustableVolume tracks remote volume commands.
type AdjustableVolume struct {
	level atomic.Uint32
}

// NewAdjustableVolume creates an adjustable policy at an initial level.
func NewAdjustableVolume(initial uint16) *AdjustableVolume {
	v := &AdjustableVolume{}
	v.level.Store(uint32(initial))
	return v
}

func (a *AdjustableVolume) Volume() uint16 {
	return uint16(a.level.Load())
}

func (a *AdjustableVolume) SetVolume(v uint16) {
	a.level.Store(uint32(v))
}

// ExternalVolume delegates volume changes to an outside controller,
// e.g. the voice transport's own gain control.
type ExternalVolume struct {
	Get   func() uint16
	Apply func(uint16)
}

func (e ExternalVolume) Volume() uint16 {
	if e.Get == nil {
		return 0
	}
	return e.Get()
}

func (e ExternalVolume) SetVolume(v uint16) {
	if e.Apply != nil {
		e.Apply(v)
	}
}
