// ABOUTME: Connect-session handle over the streaming daemon API
// ABOUTME: Enables and disables the daemon's cast-device mode
package remote

import (
	"fmt"
	"log"
	"sync"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
)

// connectSession holds the daemon's cast-device registration. Shutdown
// asks the daemon to stop; the run loop then observes the engine socket
// closing and returns.
type connectSession struct {
	client    *Client
	engine    *engine
	done      chan struct{}
	closeOnce sync.Once
}

type connectRequest struct {
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	Volume     uint16 `json:"volume"`
	Autoplay   bool   `json:"autoplay"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// openConnect implements streaming.ConnectFactory.
func (c *Client) openConnect(cfg streaming.ConnectConfig, _ streaming.Session, eng streaming.Engine, volume streaming.VolumePolicy) (streaming.ConnectSession, func(), error) {
	remoteEngine, ok := eng.(*engine)
	if !ok {
		return nil, nil, fmt.Errorf("connect: engine is not a daemon engine")
	}

	req := connectRequest{
		DeviceName: cfg.DeviceName,
		DeviceType: cfg.DeviceType,
		Volume:     volume.Volume(),
		Autoplay:   cfg.Autoplay,
		Username:   c.cfg.Username,
		Password:   c.cfg.Password,
	}

	if err := c.postJSON("/connect/enable", req); err != nil {
		return nil, nil, fmt.Errorf("connect enable: %w", err)
	}

	session := &connectSession{
		client: c,
		engine: remoteEngine,
		done:   make(chan struct{}),
	}

	run := func() {
		// The protocol loop lives in the daemon; block until shutdown
		// is requested or the daemon drops the session on its own.
		select {
		case <-session.done:
		case <-remoteEngine.ended:
		}
		remoteEngine.Close()
	}

	return session, run, nil
}

// Shutdown implements streaming.ConnectSession. Cooperative: it signals
// the run loop rather than cancelling anything forcibly.
func (s *connectSession) Shutdown() {
	s.closeOnce.Do(func() {
		if err := s.client.postJSON("/connect/disable", struct{}{}); err != nil {
			log.Printf("Connect disable request failed: %v", err)
		}
		close(s.done)
	})
}
