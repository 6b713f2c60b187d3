// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Level is how a phase row is colored.
type Level int

const (
	LevelIdle Level = iota
	LevelPending
	LevelOK
	LevelAttention
	LevelFailed
)

// PhaseRow is one sub-machine and its current phase.
type PhaseRow struct {
	Name  string
	Phase string
	Level Level
	Note  string
}

// PhasesComponent renders the session sub-machines as a tree.
type PhasesComponent struct {
	title string
	rows  []PhaseRow
	// Frame is the spinner glyph shown next to pending rows.
	Frame string
}

func NewPhasesComponent(title string) *PhasesComponent {
	return &PhasesComponent{title: title, Frame: "◐"}
}

// Update replaces the rows.
func (p *PhasesComponent) Update(rows []PhaseRow) {
	p.rows = rows
}

// View renders the component.
func (p *PhasesComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(header.Render(p.title))
	b.WriteString("\n\n")

	if len(p.rows) == 0 {
		b.WriteString(muted.Render("  Not connected"))
		return b.String()
	}

	for i, row := range p.rows {
		branch := "├─"
		if i == len(p.rows)-1 {
			branch = "└─"
		}
		icon, style := p.marker(row.Level)
		line := fmt.Sprintf("%s %-9s %s %s", muted.Render(branch), row.Name, style.Render(icon), style.Render(row.Phase))
		if row.Note != "" {
			line += muted.Render("  " + row.Note)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *PhasesComponent) marker(l Level) (string, lipgloss.Style) {
	switch l {
	case LevelOK:
		return "●", lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	case LevelPending:
		return p.Frame, lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	case LevelAttention:
		return "◆", lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	case LevelFailed:
		return "✗", lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	default:
		return "○", lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	}
}
