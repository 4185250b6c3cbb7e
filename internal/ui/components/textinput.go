package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectern/internal/ui/theme"
)

// Prompt wraps bubbles/textinput with a label and a result mark.
type Prompt struct {
	Model textinput.Model
	Label string
	mark  *bool
}

// NewPrompt creates a focused prompt.
func NewPrompt(label, placeholder string, limit int) Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if limit > 0 {
		ti.CharLimit = limit
	}
	return Prompt{Model: ti, Label: label}
}

func (p Prompt) Init() tea.Cmd {
	return p.Model.Focus()
}

func (p Prompt) Update(msg tea.Msg) (Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return p, cmd
}

// View renders the label, the input and the last result mark.
func (p Prompt) View() string {
	view := theme.Label.Render(p.Label) + " " + p.Model.View()
	if p.mark != nil {
		if *p.mark {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

// Value returns the current input value.
func (p Prompt) Value() string {
	return p.Model.Value()
}

// Reset clears the input and switches label and placeholder.
func (p *Prompt) Reset(label, placeholder string) {
	p.Model.SetValue("")
	p.Model.Placeholder = placeholder
	p.Label = label
}

// Mark shows ok as a check or a cross after the input.
func (p *Prompt) Mark(ok bool) {
	p.mark = &ok
}

// ClearMark removes the result mark.
func (p *Prompt) ClearMark() {
	p.mark = nil
}
