// ABOUTME: Bubbletea model for the bridge status TUI
// ABOUTME: Shows gateway, session and now-playing state
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusMsg updates the TUI with current bridge state.
type StatusMsg struct {
	GatewayConnected bool
	GatewayAddr      string
	SessionEnabled   bool
	PlaybackState    string
	NowPlaying       string
	VoiceChannel     string
	BridgeBuffered   int
	BridgeCapacity   int
}

// QuitMsg asks the application to shut down.
type QuitMsg struct{}

// Model represents the TUI state
type Model struct {
	// Gateway
	connected   bool
	gatewayAddr string

	// Session
	sessionEnabled bool
	playbackState  string
	nowPlaying     string
	voiceChannel   string

	// Bridge
	bridgeBuffered int
	bridgeCapacity int

	// Control
	quit chan QuitMsg

	// Dimensions
	width  int
	height int
}

// NewModel creates the initial model.
func NewModel(quit chan QuitMsg) Model {
	return Model{
		playbackState: "idle",
		quit:          quit,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			select {
			case m.quit <- QuitMsg{}:
			default:
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.connected = msg.GatewayConnected
		m.gatewayAddr = msg.GatewayAddr
		m.sessionEnabled = msg.SessionEnabled
		m.playbackState = msg.PlaybackState
		m.nowPlaying = msg.NowPlaying
		m.voiceChannel = msg.VoiceChannel
		m.bridgeBuffered = msg.BridgeBuffered
		m.bridgeCapacity = msg.BridgeCapacity
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.gatewayAddr)
	}

	castStatus := "Idle"
	if m.sessionEnabled {
		castStatus = "Casting"
	}

	playing := m.nowPlaying
	if playing == "" {
		playing = "-"
	}

	channel := m.voiceChannel
	if channel == "" {
		channel = "-"
	}

	return fmt.Sprintf(`┌─ Calliope Bridge ────────────────────────────────────┐
│ Gateway:  %-43s│
│ Session:  %-43s│
│ State:    %-43s│
│ Playing:  %-43s│
│ Channel:  %-43s│
│ Bridge:   %-43s│
├──────────────────────────────────────────────────────┤
│ q: quit                                              │
└──────────────────────────────────────────────────────┘
`, connStatus, castStatus, m.playbackState, playing, channel,
		fmt.Sprintf("%d/%d bytes buffered", m.bridgeBuffered, m.bridgeCapacity))
}
