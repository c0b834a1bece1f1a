// ABOUTME: Presence tracker for the single watched call participant
// ABOUTME: Maps voice-membership transitions to session lifecycle actions
package presence

import (
	"errors"
	"log"

	"github.com/Calliope-Cast/calliope-go/internal/session"
	"github.com/Calliope-Cast/calliope-go/internal/voice"
)

// Controller is the session-lifecycle surface the tracker drives.
type Controller interface {
	Enable() error
	Disable()
}

// Mover moves the transmitter between channels without a session toggle.
type Mover interface {
	Join(callID, channelID string) error
}

// Tracker reacts to membership changes of one watched participant.
// Changes for anyone else are ignored outright.
type Tracker struct {
	watchedID string
	callID    string
	sessions  Controller
	mover     Mover
}

// NewTracker creates a tracker for the watched participant.
func NewTracker(watchedID, callID string, sessions Controller, mover Mover) *Tracker {
	return &Tracker{
		watchedID: watchedID,
		callID:    callID,
		sessions:  sessions,
		mover:     mover,
	}
}

// HandleStateChange applies one membership transition:
// joined voice from nothing -> enable casting; left voice -> disable;
// moved channels -> follow without toggling the session.
func (t *Tracker) HandleStateChange(change voice.StateChange) {
	if change.UserID != t.watchedID {
		return
	}

	switch {
	case change.OldChannel == "":
		if err := t.sessions.Enable(); err != nil {
			if errors.Is(err, session.ErrAlreadyEnabled) {
				return
			}
			log.Printf("Enable failed: %v", err)
		}

	case change.NewChannel == "":
		t.sessions.Disable()

	case change.OldChannel != change.NewChannel:
		if err := t.mover.Join(t.callID, change.NewChannel); err != nil {
			log.Printf("Channel follow failed: %v", err)
		}

	default:
		// same channel: nothing to do
	}
}

// Run consumes membership changes until the channel closes.
func (t *Tracker) Run(changes <-chan voice.StateChange) {
	for change := range changes {
		t.HandleStateChange(change)
	}
}
