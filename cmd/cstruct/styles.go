package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type styles struct {
	title    lipgloss.Style
	name     lipgloss.Style
	typ      lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	header   lipgloss.Style
	padding  lipgloss.Style
	err      lipgloss.Style
	help     lipgloss.Style
}

// newStyles returns the coloured palette, or plain styles when color is
// false so redirected output carries no escape sequences.
func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain, name: plain, typ: plain, value: plain,
			selected: plain, header: plain, padding: plain, err: plain, help: plain,
		}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		name:  lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		typ:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")),
		header:  lipgloss.NewStyle().Bold(true),
		padding: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
