// Package screen defines what the router stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lectern/internal/ui/layout"
)

// Screen is one page of the terminal client.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	// View renders the content area only; the app draws header and footer.
	View(width, height int) string
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status in the header.
type StatusProvider interface {
	Status() string
}

// Closer is implemented by screens holding resources to release when popped.
type Closer interface {
	Close()
}

// StartLessonMsg asks the root screen to open a session for LessonID.
type StartLessonMsg struct {
	LessonID string
}
