package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type theme struct {
	Prompt    lipgloss.Style
	UserLabel lipgloss.Style
	Agent     lipgloss.Style
	AgentText lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
}

// newTheme detects color support from out, so a pipe gets plain text.
func newTheme(out io.Writer) theme {
	r := lipgloss.NewRenderer(out)
	return theme{
		Prompt: r.NewStyle().
			Foreground(lipgloss.Color("39")). // Blue
			Bold(true),

		UserLabel: r.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		Agent: r.NewStyle().
			Foreground(lipgloss.Color("76")). // Green
			Bold(true),

		AgentText: r.NewStyle().
			Foreground(lipgloss.Color("252")),

		Status: r.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			Italic(true),

		Error: r.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
	}
}
