// ABOUTME: WebSocket gateway client for the group-call service
// ABOUTME: Handles identify, membership tracking, status and voice frame transmit
package voice

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// GatewayConfig holds gateway connection settings.
type GatewayConfig struct {
	Addr  string // host:port
	Token string
	Name  string

	// Transmit format
	SampleRate int
	Channels   int
	FrameMs    int
}

// Ready carries the call context delivered after identify.
type Ready struct {
	CallID  string            `json:"call_id"`
	Members map[string]string `json:"members"` // user ID -> channel ID
}

// Gateway is a WebSocket client for the voice service. It implements
// Transport and StatusAPI and synthesizes membership transitions from
// raw voice-state messages by tracking each participant's last channel.
type Gateway struct {
	config  GatewayConfig
	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex // gorilla allows one concurrent writer

	// Message channels
	StateChanges chan StateChange
	ReadyCh      chan Ready

	// Membership cache, updated from voice/state messages
	members   map[string]string
	membersMu sync.RWMutex

	// Transmit state
	txMu      sync.Mutex
	txCancel  context.CancelFunc
	txDone    chan struct{}
	encoder   *OpusEncoder
	bitrate   int
	connected bool
	joined    string // current channel, "" when not in a call

	ctx    context.Context
	cancel context.CancelFunc

	// OnFrame and OnJoin, when set, observe transmit/join activity
	OnFrame func()
	OnJoin  func()
}

type message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type identifyPayload struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type voiceStatePayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"` // empty = left voice
}

type joinPayload struct {
	CallID    string `json:"call_id"`
	ChannelID string `json:"channel_id"`
}

type leavePayload struct {
	CallID string `json:"call_id"`
}

type presencePayload struct {
	Activity string `json:"activity,omitempty"`
	Online   bool   `json:"online"`
}

// NewGateway creates a gateway client.
func NewGateway(config GatewayConfig) *Gateway {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.FrameMs == 0 {
		config.FrameMs = 20
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Gateway{
		config:       config,
		StateChanges: make(chan StateChange, 16),
		ReadyCh:      make(chan Ready, 1),
		members:      make(map[string]string),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Connect establishes the gateway connection and identifies.
func (g *Gateway) Connect() error {
	u := url.URL{Scheme: "ws", Host: g.config.Addr, Path: "/gateway"}
	log.Printf("Connecting to voice gateway %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("gateway dial failed: %w", err)
	}

	g.mu.Lock()
	g.conn = conn
	g.connected = true
	g.mu.Unlock()

	if err := g.identify(); err != nil {
		g.Close()
		return fmt.Errorf("gateway identify failed: %w", err)
	}

	go g.readMessages()

	return nil
}

// identify performs the hello/ready exchange.
func (g *Gateway) identify() error {
	msg := message{
		Type:    "client/identify",
		Payload: identifyPayload{Token: g.config.Token, Name: g.config.Name},
	}

	if err := g.sendJSON(msg); err != nil {
		return fmt.Errorf("failed to send identify: %w", err)
	}

	g.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := g.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read ready: %w", err)
	}
	g.conn.SetReadDeadline(time.Time{})

	var serverMsg message
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse ready: %w", err)
	}

	if serverMsg.Type != "server/ready" {
		return fmt.Errorf("expected server/ready, got %s", serverMsg.Type)
	}

	payloadBytes, _ := json.Marshal(serverMsg.Payload)
	var ready Ready
	if err := json.Unmarshal(payloadBytes, &ready); err != nil {
		return fmt.Errorf("failed to parse ready payload: %w", err)
	}

	g.membersMu.Lock()
	for user, channel := range ready.Members {
		g.members[user] = channel
	}
	g.membersMu.Unlock()

	log.Printf("Gateway ready: call %s, %d members", ready.CallID, len(ready.Members))

	select {
	case g.ReadyCh <- ready:
	default:
	}

	return nil
}

// sendJSON sends a JSON control message.
func (g *Gateway) sendJSON(msg message) error {
	g.mu.RLock()
	conn, connected := g.conn, g.connected
	g.mu.RUnlock()

	if !connected {
		return fmt.Errorf("not connected")
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages.
func (g *Gateway) readMessages() {
	defer g.Close()

	for {
		select {
		case <-g.ctx.Done():
			return
		default:
		}

		messageType, data, err := g.conn.ReadMessage()
		if err != nil {
			log.Printf("Gateway read error: %v", err)
			return
		}

		if messageType == websocket.TextMessage {
			g.handleJSONMessage(data)
		}
	}
}

// handleJSONMessage routes control messages.
func (g *Gateway) handleJSONMessage(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse gateway message: %v", err)
		return
	}

	payloadBytes, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case "voice/state":
		var state voiceStatePayload
		if err := json.Unmarshal(payloadBytes, &state); err != nil {
			log.Printf("Failed to parse voice state: %v", err)
			return
		}
		g.handleVoiceState(state)

	default:
		log.Printf("Unknown gateway message type: %s", msg.Type)
	}
}

// handleVoiceState updates the membership cache and emits the transition.
func (g *Gateway) handleVoiceState(state voiceStatePayload) {
	g.membersMu.Lock()
	old := g.members[state.UserID]
	if state.ChannelID == "" {
		delete(g.members, state.UserID)
	} else {
		g.members[state.UserID] = state.ChannelID
	}
	g.membersMu.Unlock()

	change := StateChange{
		UserID:     state.UserID,
		OldChannel: old,
		NewChannel: state.ChannelID,
	}

	select {
	case g.StateChanges <- change:
	case <-g.ctx.Done():
	}
}

// ChannelOf returns the channel a participant currently occupies,
// or "" if they are not in voice.
func (g *Gateway) ChannelOf(userID string) string {
	g.membersMu.RLock()
	defer g.membersMu.RUnlock()
	return g.members[userID]
}

// Join connects the transmitter to a channel. Implements Transport.
func (g *Gateway) Join(callID, channelID string) error {
	msg := message{
		Type:    "voice/join",
		Payload: joinPayload{CallID: callID, ChannelID: channelID},
	}
	if err := g.sendJSON(msg); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	g.txMu.Lock()
	g.joined = channelID
	g.txMu.Unlock()

	if g.OnJoin != nil {
		g.OnJoin()
	}

	log.Printf("Joined voice channel %s", channelID)
	return nil
}

// Leave disconnects from the call and stops any transmit loop.
func (g *Gateway) Leave(callID string) error {
	g.stopTransmit()

	g.txMu.Lock()
	g.joined = ""
	g.txMu.Unlock()

	msg := message{
		Type:    "voice/leave",
		Payload: leavePayload{CallID: callID},
	}
	if err := g.sendJSON(msg); err != nil {
		return fmt.Errorf("leave failed: %w", err)
	}

	log.Printf("Left voice call")
	return nil
}

// CurrentChannel returns the joined channel ID, or "" when not in a call.
func (g *Gateway) CurrentChannel() string {
	g.txMu.Lock()
	defer g.txMu.Unlock()
	return g.joined
}

// SetBitrate configures the outbound encoder bitrate.
func (g *Gateway) SetBitrate(bps int) error {
	g.txMu.Lock()
	defer g.txMu.Unlock()

	g.bitrate = bps
	if g.encoder != nil {
		return g.encoder.SetBitrate(bps)
	}
	return nil
}

// PlaySource starts transmitting from a raw interleaved-float byte source,
// replacing any previous source. Sources are single-consumer streams: the
// new loop takes over only after the old one has fully exited, so two
// loops never race for bytes.
func (g *Gateway) PlaySource(src io.Reader) {
	ctx, cancel := context.WithCancel(g.ctx)
	done := make(chan struct{})

	g.txMu.Lock()
	prevCancel, prevDone := g.txCancel, g.txDone
	g.txCancel = cancel
	g.txDone = done
	g.txMu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}

	go func() {
		defer close(done)

		// An old loop parked in a blocked read only notices the cancel
		// once that read returns; hold off until it is gone
		if prevDone != nil {
			select {
			case <-prevDone:
			case <-ctx.Done():
				return
			}
		}

		g.transmit(ctx, src)
	}()
}

// stopTransmit cancels the running transmit loop, if any. The loop's done
// channel stays registered so a later PlaySource still sequences after it.
func (g *Gateway) stopTransmit() {
	g.txMu.Lock()
	cancel := g.txCancel
	g.txCancel = nil
	g.txMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// transmit paces the source into opus frames.
func (g *Gateway) transmit(ctx context.Context, src io.Reader) {
	frameSamples := (g.config.SampleRate * g.config.FrameMs / 1000) * g.config.Channels

	encoder, err := NewOpusEncoder(g.config.SampleRate, g.config.Channels,
		g.config.SampleRate*g.config.FrameMs/1000)
	if err != nil {
		log.Printf("Transmit encoder error: %v", err)
		return
	}

	g.txMu.Lock()
	g.encoder = encoder
	if g.bitrate > 0 {
		if err := encoder.SetBitrate(g.bitrate); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	g.txMu.Unlock()

	frameBytes := make([]byte, frameSamples*4)
	pcm := make([]float32, frameSamples)

	ticker := time.NewTicker(time.Duration(g.config.FrameMs) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("Voice transmit started (%d samples/frame)", frameSamples)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Voice transmit stopped")
			return

		case <-ticker.C:
			// The source blocks until a full frame is buffered; the
			// bridge's backpressure keeps this loop in step with the
			// playback engine.
			if _, err := io.ReadFull(src, frameBytes); err != nil {
				log.Printf("Voice source ended: %v", err)
				return
			}

			// Cancelled mid-read: a replacement loop is waiting in
			// stopTransmit. Drop the frame rather than send it.
			if ctx.Err() != nil {
				log.Printf("Voice transmit stopped")
				return
			}

			for i := range pcm {
				bits := binary.LittleEndian.Uint32(frameBytes[i*4:])
				pcm[i] = math.Float32frombits(bits)
			}

			packet, err := encoder.Encode(pcm)
			if err != nil {
				log.Printf("Transmit encode error: %v", err)
				continue
			}

			if err := g.sendVoiceFrame(packet); err != nil {
				log.Printf("Transmit send error: %v", err)
				return
			}

			if g.OnFrame != nil {
				g.OnFrame()
			}
		}
	}
}

// sendVoiceFrame sends one opus packet as a timestamped binary message.
func (g *Gateway) sendVoiceFrame(packet []byte) error {
	frame := make([]byte, 9+len(packet))
	frame[0] = 0 // frame type: audio
	binary.BigEndian.PutUint64(frame[1:9], uint64(time.Now().UnixMicro()))
	copy(frame[9:], packet)

	g.mu.RLock()
	conn, connected := g.conn, g.connected
	g.mu.RUnlock()

	if !connected {
		return fmt.Errorf("not connected")
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

// SetStatus publishes the displayed activity. Implements StatusAPI.
func (g *Gateway) SetStatus(text string, online bool) error {
	msg := message{
		Type:    "presence/update",
		Payload: presencePayload{Activity: text, Online: online},
	}
	return g.sendJSON(msg)
}

// IsConnected returns connection status.
func (g *Gateway) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// Close closes the gateway connection.
func (g *Gateway) Close() {
	g.stopTransmit()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		g.connected = false
		g.cancel()
		g.conn.Close()
		log.Printf("Gateway connection closed")
	}
}
