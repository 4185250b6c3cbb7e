package study

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectern/internal/command"
	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/playback"
	"github.com/abhisek/lectern/internal/ui/components"
	"github.com/abhisek/lectern/internal/ui/layout"
	"github.com/abhisek/lectern/internal/ui/theme"
)

func (s *StudyScreen) View(width, height int) string {
	cardWidth := min(width-8, 86)

	var b strings.Builder
	b.WriteString("\n")
	if s.view.Lesson != nil {
		b.WriteString(layout.Centered(width, theme.Subtitle, s.ctrl.Lesson().Objective))
		b.WriteString("\n\n")
	}

	labels := make([]string, len(lesson.SegmentTypes))
	for i, t := range lesson.SegmentTypes {
		labels[i] = string(t)
	}
	current := -1
	if s.view.FSMState.IsSegment() {
		current = s.view.SegmentIdx
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, components.Steps(labels, current, s.progress)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderCard(cardWidth)))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Hint, renderPlayback(s.view.Audio)))
	b.WriteString("\n\n")

	if s.message != "" {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if s.isErr {
			style = style.Foreground(theme.Error)
		}
		b.WriteString(layout.Centered(width, style, s.message))
		b.WriteString("\n\n")
	}

	if s.feedback != nil {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderFeedback(s.feedback.Feedback, s.feedback.Hint, cardWidth)))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.prompt.View()))
	if hint := nextHint(s.view.FSMState, s.view.SegmentIdx); hint != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(width, theme.Hint, "next: "+hint))
	}
	return b.String()
}

// renderCard shows the current segment and its resolved script.
func (s *StudyScreen) renderCard(width int) string {
	var heading, body string
	style := theme.Card.Width(width)

	switch {
	case s.view.FSMState == fsm.StateIdle:
		heading = "Ready"
		body = "Say \"begin the lesson\" to start."
	case s.view.FSMState == fsm.StatePaused:
		heading = "Paused"
		body = "Say \"begin the lesson\" to start again from the orientation."
	case s.view.FSMState == fsm.StateFinished:
		heading = "Finished"
		body = "This lesson is complete."
	default:
		heading = fmt.Sprintf("%d. %s", s.view.SegmentIdx+1, strings.ToUpper(string(s.view.SegmentType)))
		body = s.script
		if body == "" {
			body = s.view.Script
		}
		style = theme.ActiveCard.Width(width)
	}

	return style.Render(theme.Label.Render(heading) + "\n\n" + theme.Body.Render(body))
}

func renderFeedback(feedback, hint string, width int) string {
	body := theme.Body.Render(feedback)
	if hint != "" {
		body += "\n\n" + theme.Hint.Render("Hint: "+hint)
	}
	return theme.Card.
		BorderForeground(theme.Accent).
		Width(width).
		Render(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("Coach") + "\n\n" + body)
}

func renderPlayback(st playback.Status) string {
	switch st.State {
	case playback.StatePlaying, playback.StatePaused:
		icon := "▶"
		if st.State == playback.StatePaused {
			icon = "❚❚"
		}
		return fmt.Sprintf("%s %s  %s / %s  %gx", icon, st.State,
			st.Elapsed.Truncate(time.Second), st.Duration, st.Rate)
	default:
		return fmt.Sprintf("■ stopped  %gx", st.Rate)
	}
}

// nextHint suggests the command that moves the lesson forward.
func nextHint(state fsm.State, idx int) string {
	phrases := command.Phrases()
	switch {
	case state == fsm.StateIdle || state == fsm.StatePaused:
		return phrases[0]
	case state.IsSegment() && idx+1 < len(phrases)-1:
		return phrases[idx+1]
	case state.IsSegment():
		return phrases[len(phrases)-1]
	}
	return ""
}
