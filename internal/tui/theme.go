package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/productdevbook/portzap/internal/config"
)

type palette struct {
	text        lipgloss.Color
	textDim     lipgloss.Color
	accent      lipgloss.Color
	success     lipgloss.Color
	failure     lipgloss.Color
	info        lipgloss.Color
	border      lipgloss.Color
	title       lipgloss.Color
	highlightBg lipgloss.Color
	highlightFg lipgloss.Color
	port        lipgloss.Color
}

var darkPalette = palette{
	text:        "#c8c8dc",
	textDim:     "#8c8caa",
	accent:      "#ffc832",
	success:     "#50dc64",
	failure:     "#ff5050",
	info:        "#64b4ff",
	border:      "#323246",
	title:       "#ff6432",
	highlightBg: "#282841",
	highlightFg: "#ff9650",
	port:        "#ff9650",
}

var lightPalette = palette{
	text:        "#28283c",
	textDim:     "#505064",
	accent:      "#c86400",
	success:     "#1e9632",
	failure:     "#c81e1e",
	info:        "#1e64c8",
	border:      "#b4b4c8",
	title:       "#dc5014",
	highlightBg: "#dce6f5",
	highlightFg: "#c85014",
	port:        "#c85014",
}

type theme struct {
	title   lipgloss.Style
	header  lipgloss.Style
	dim     lipgloss.Style
	key     lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
	box     lipgloss.Style
	frame   lipgloss.Style
	table   table.Styles
}

func newTheme(variant config.Theme) theme {
	p := darkPalette
	if variant == config.ThemeLight {
		p = lightPalette
	}

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.border).
		BorderBottom(true).
		Bold(true).
		Foreground(p.port)
	ts.Cell = ts.Cell.Foreground(p.text)
	ts.Selected = ts.Selected.
		Foreground(p.highlightFg).
		Background(p.highlightBg).
		Bold(true)

	return theme{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.title).Padding(0, 1),
		header:  lipgloss.NewStyle().Foreground(p.textDim),
		dim:     lipgloss.NewStyle().Foreground(p.textDim).Padding(0, 1),
		key:     lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		success: lipgloss.NewStyle().Foreground(p.success).Padding(0, 1),
		failure: lipgloss.NewStyle().Foreground(p.failure).Padding(0, 1),
		info:    lipgloss.NewStyle().Foreground(p.info).Padding(0, 1),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(1, 3).
			MarginLeft(2),
		frame: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.border),
		table: ts,
	}
}
