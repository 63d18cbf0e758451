// Package editmode gates direct writes to the checklist.
package editmode

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/qualify/internal/model"
)

// State is the guard state.
type State int

const (
	// Locked rejects direct writes. It is the initial state.
	Locked State = iota
	// Editing accepts direct writes, which commit immediately.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "locked"
}

// IndicatorText is shown for as long as editing is enabled.
const IndicatorText = "MODO EDIÇÃO"

var indicatorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#1A1A1A")).
	Background(lipgloss.Color("#FFE66D")).
	Padding(0, 1)

// Guard toggles between Locked and Editing. There is no cancel: leaving
// Editing keeps every write made while it was active.
type Guard struct {
	state State
}

// New returns a locked guard.
func New() *Guard {
	return &Guard{state: Locked}
}

// Toggle flips the state and returns the new one.
func (g *Guard) Toggle() State {
	if g.state == Locked {
		g.state = Editing
	} else {
		g.state = Locked
	}
	return g.state
}

// State returns the current state.
func (g *Guard) State() State {
	return g.state
}

// Session returns the edit session passed to store writes.
func (g *Guard) Session() model.EditSession {
	return model.EditSession{Active: g.state == Editing}
}

// Indicator renders the editing badge, or "" while locked.
func (g *Guard) Indicator() string {
	if g.state != Editing {
		return ""
	}
	return indicatorStyle.Render(IndicatorText)
}
