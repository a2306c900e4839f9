package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styleLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderError colours the first line of an error message and dims any
// continuation lines (suggestions, lists of alternatives).
func renderError(msg string) string {
	first, rest, found := strings.Cut(msg, "\n")
	out := styleErr.Render(first)
	if found {
		out += "\n" + styleHint.Render(rest)
	}
	return out
}
