// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the bridge UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and returns its program and quit channel.
func Run() (*tea.Program, chan QuitMsg, error) {
	quit := make(chan QuitMsg, 1)
	p := tea.NewProgram(NewModel(quit), tea.WithAltScreen())
	return p, quit, nil
}
