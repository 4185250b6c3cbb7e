// Package home is the lesson picker the terminal client opens on.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/router"
	"github.com/abhisek/lectern/internal/screen"
	"github.com/abhisek/lectern/internal/screens/study"
	"github.com/abhisek/lectern/internal/session"
	"github.com/abhisek/lectern/internal/ui/components"
	"github.com/abhisek/lectern/internal/ui/layout"
	"github.com/abhisek/lectern/internal/ui/theme"
)

// sessionReadyMsg carries the result of opening a session.
type sessionReadyMsg struct {
	ctrl *session.Controller
	err  error
}

// HomeScreen lists every lesson of the catalog.
type HomeScreen struct {
	svc      *session.Service
	menu     components.Menu
	autoplay bool
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen over svc.
func New(svc *session.Service) *HomeScreen {
	h := &HomeScreen{svc: svc, autoplay: true}

	var items []components.MenuItem
	course := ""
	for _, l := range svc.Lessons() {
		if l.CourseID != course {
			course = l.CourseID
			items = append(items, components.MenuItem{Label: strings.ToUpper(course), Disabled: true})
		}
		id := l.ID
		items = append(items, components.MenuItem{
			Label:  lessonLabel(l),
			Detail: fmt.Sprintf("%d segments", l.SegmentCount),
			Action: func() tea.Cmd { return h.open(id) },
		})
	}
	items = append(items, components.MenuItem{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }})
	h.menu = components.NewMenu(items)
	return h
}

// WithoutAutoplay turns off automatic playback in the lessons it opens.
func (h *HomeScreen) WithoutAutoplay() *HomeScreen {
	h.autoplay = false
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Lessons"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StartLessonMsg:
		return h, h.open(msg.LessonID)

	case sessionReadyMsg:
		if msg.err != nil {
			h.errMsg = msg.err.Error()
			return h, nil
		}
		h.errMsg = ""
		s := study.New(h.svc, msg.ctrl)
		if !h.autoplay {
			s = s.WithoutAutoplay()
		}
		return h, func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// open creates a session for lessonID off the update loop.
func (h *HomeScreen) open(lessonID string) tea.Cmd {
	return func() tea.Msg {
		res, err := h.svc.CreateSession(lessonID)
		if err != nil {
			return sessionReadyMsg{err: err}
		}
		ctrl, err := h.svc.Controller(res.UserID)
		return sessionReadyMsg{ctrl: ctrl, err: err}
	}
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Title, "Choose a lesson"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Subtitle, "Each lesson is spoken in seven segments, driven by voice-style commands."))
	b.WriteString("\n\n")

	if len(h.menu.Items) == 1 {
		b.WriteString(layout.Centered(width, theme.Hint, "No lessons found. Check the curriculum directory."))
		b.WriteString("\n\n")
	}

	menu := theme.Card.Width(min(width-8, 72)).Render(strings.TrimRight(h.menu.View(), "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, menu))

	if h.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), h.errMsg))
	}
	return b.String()
}

// lessonLabel is the menu label of l.
func lessonLabel(l lesson.Summary) string {
	return fmt.Sprintf("%d. %s", l.Sequence, l.Title)
}
