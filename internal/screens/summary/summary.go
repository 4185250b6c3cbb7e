package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/router"
	"github.com/abhisek/lectern/internal/screen"
	"github.com/abhisek/lectern/internal/session"
	"github.com/abhisek/lectern/internal/ui/components"
	"github.com/abhisek/lectern/internal/ui/layout"
	"github.com/abhisek/lectern/internal/ui/theme"
)

// SummaryScreen displays the end-of-lesson summary.
type SummaryScreen struct {
	summary session.SessionSummary
	next    *lesson.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen. next is the following lesson in the course,
// nil at the end of it.
func New(summary session.SessionSummary, next *lesson.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary, next: next}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Lesson Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Home"}}
	if s.next != nil {
		hints = append(hints, layout.KeyHint{Key: "N", Description: "Next lesson"})
	}
	return hints
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "enter":
		return s, func() tea.Msg { return router.PopToRootMsg{} }
	case "n", "N":
		if s.next == nil {
			return s, nil
		}
		id := s.next.ID
		return s, tea.Sequence(
			func() tea.Msg { return router.PopToRootMsg{} },
			func() tea.Msg { return screen.StartLessonMsg{LessonID: id} },
		)
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	var b strings.Builder

	b.WriteString("\n")
	headline := "Lesson complete!"
	if !sum.Completed {
		headline = "Lesson ended"
	}
	b.WriteString(layout.Centered(width, theme.Title, headline))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Subtitle, sum.Title))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(layout.Centered(width, theme.Subtitle, fmt.Sprintf("Duration: %d:%02d", mins, secs)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Segments heard: %d/%d", sum.SegmentsCompleted, sum.SegmentCount)
	if sum.Answers > 0 {
		stats += fmt.Sprintf("        Answers: %d        Correct: %d        Accuracy: %.0f%%",
			sum.Answers, sum.Correct, sum.Accuracy*100)
	}
	b.WriteString(layout.Centered(width, theme.Body, stats))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("Course")))
	b.WriteString("\n")
	b.WriteString(layout.Divider(width))
	b.WriteString("\n\n")

	c := sum.Course
	var pct float64
	if c.TotalLessons > 0 {
		pct = float64(c.Completed) / float64(c.TotalLessons)
	}
	bar := components.NewProgressBar(c.CourseID, pct, true, min(width-8, 60)).View()
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Hint,
		fmt.Sprintf("%d of %d lessons complete", c.Completed, c.TotalLessons)))

	if s.next != nil {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Secondary),
			"Up next: "+s.next.Title))
	}
	return b.String()
}
