package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectern/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}
	return result
}

// Steps renders one labelled cell per step. Cells before current are done,
// current is highlighted.
func Steps(labels []string, current int, done map[int]bool) string {
	cells := make([]string, len(labels))
	for i, l := range labels {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(theme.TextDim)
		switch {
		case i == current:
			style = style.Foreground(theme.BgDark).Background(theme.Primary).Bold(true)
		case done[i]:
			style = style.Foreground(theme.Success)
		}
		cells[i] = style.Render(l)
	}
	return strings.Join(cells, lipgloss.NewStyle().Foreground(theme.Border).Render("·"))
}
