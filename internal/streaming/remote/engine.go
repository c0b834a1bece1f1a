// ABOUTME: Playback engine backed by the streaming daemon's event socket
// ABOUTME: Translates daemon pushes into sink writes and playback events
package remote

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/url"
	"sync"

	"github.com/Calliope-Cast/calliope-go/internal/streaming"
	"github.com/Calliope-Cast/calliope-go/pkg/audio"
	"github.com/gorilla/websocket"
)

// engine consumes the daemon's combined audio/event WebSocket. Binary
// messages are decoded audio blocks, text messages are playback events.
type engine struct {
	conn      *websocket.Conn
	sink      streaming.Sink
	events    chan streaming.Event
	format    audio.Format
	ended     chan struct{} // closed when the daemon socket dies
	closeOnce sync.Once
}

type eventMessage struct {
	Type    string `json:"type"`
	TrackID string `json:"track_id,omitempty"`
}

// newEngine implements streaming.EngineFactory.
func (c *Client) newEngine(cfg streaming.EngineConfig, _ streaming.Session, sinkFactory streaming.SinkFactory) (streaming.Engine, <-chan streaming.Event, error) {
	u := url.URL{Scheme: "ws", Host: c.cfg.Addr, Path: "/player"}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("player socket dial failed: %w", err)
	}

	snk := sinkFactory()
	if err := snk.Start(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("sink start failed: %w", err)
	}

	e := &engine{
		conn:   conn,
		sink:   snk,
		events: make(chan streaming.Event, 16),
		format: audio.Format{SampleRate: 44100, Channels: 2},
		ended:  make(chan struct{}),
	}

	go e.readLoop()

	return e, e.events, nil
}

// readLoop pushes daemon messages into the sink and event stream until
// the socket closes.
func (e *engine) readLoop() {
	defer func() {
		e.sink.Stop()
		close(e.events)
		close(e.ended)
	}()

	for {
		messageType, data, err := e.conn.ReadMessage()
		if err != nil {
			log.Printf("Player socket closed: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			block, err := decodeBlock(data, e.format)
			if err != nil {
				log.Printf("Bad audio block: %v", err)
				continue
			}
			// Blocks here when the bridge is full; the daemon's
			// send window provides the upstream pacing.
			if err := e.sink.Write(block); err != nil {
				log.Printf("Sink write failed: %v", err)
				return
			}

		case websocket.TextMessage:
			ev, err := decodeEvent(data)
			if err != nil {
				log.Printf("Bad player event: %v", err)
				continue
			}
			e.events <- ev
		}
	}
}

// Close implements streaming.Engine.
func (e *engine) Close() {
	e.closeOnce.Do(func() {
		e.conn.Close()
	})
}

// decodeBlock parses little-endian float32 interleaved samples.
func decodeBlock(data []byte, format audio.Format) (audio.Block, error) {
	if len(data)%4 != 0 {
		return audio.Block{}, fmt.Errorf("block length %d is not a whole sample count", len(data))
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return audio.Block{Samples: samples, Format: format}, nil
}

// decodeEvent parses one playback event message.
func decodeEvent(data []byte) (streaming.Event, error) {
	var msg eventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return streaming.Event{}, err
	}

	switch msg.Type {
	case "stopped":
		return streaming.Event{Kind: streaming.EventStopped}, nil
	case "started":
		return streaming.Event{Kind: streaming.EventStarted}, nil
	case "paused":
		return streaming.Event{Kind: streaming.EventPaused}, nil
	case "playing":
		return streaming.Event{Kind: streaming.EventPlaying, TrackID: msg.TrackID}, nil
	default:
		return streaming.Event{Kind: streaming.EventOther}, nil
	}
}
