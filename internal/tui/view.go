package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpKeys = [][2]string{
	{"↑/k ↓/j", "move"},
	{"g/G", "first / last"},
	{"space", "select"},
	{"a", "select all / none"},
	{"enter/x", "kill selected or current"},
	{"/", "filter"},
	{"s", "next sort column"},
	{"S", "reverse sort"},
	{"f", "favorite port"},
	{"t", "toggle theme"},
	{"r", "refresh"},
	{"?", "help"},
	{"q/esc", "quit"},
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.title.Render("⚡ portzap"))
	b.WriteString(m.theme.header.Render(m.summary()))
	b.WriteString("\n\n")

	switch {
	case m.showHelp:
		b.WriteString(m.helpView())
	case m.confirm:
		b.WriteString(m.confirmView())
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(" ")
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) summary() string {
	dir := "↑"
	if !m.sortAsc {
		dir = "↓"
	}
	s := fmt.Sprintf("%d listening · sort: %s %s", len(m.procs), m.sortCol, dir)
	if len(m.visible) != len(m.procs) {
		s = fmt.Sprintf("%d of %s", len(m.visible), s)
	}
	if n := len(m.selected); n > 0 {
		s += fmt.Sprintf(" · %d selected", n)
	}
	return s
}

func (m *Model) listView() string {
	if m.scanErr != nil && len(m.procs) == 0 {
		return m.theme.failure.Render("Scan failed: " + m.scanErr.Error())
	}
	if len(m.procs) == 0 {
		return m.theme.dim.Render("No listening processes.")
	}
	if len(m.visible) == 0 {
		return m.theme.dim.Render("No processes match the filter.")
	}
	return m.theme.frame.Render(m.table.View())
}

func (m *Model) confirmView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kill %d %s?\n\n", len(m.targets), plural(len(m.targets), "process", "processes"))
	for i, p := range m.targets {
		if i == 8 {
			fmt.Fprintf(&b, "  … and %d more\n", len(m.targets)-i)
			break
		}
		fmt.Fprintf(&b, "  %s (PID %d) on port %d/%s\n", p.Name, p.PID, p.Port, p.Protocol)
	}
	b.WriteString("\n")
	b.WriteString(m.theme.key.Render("y") + " confirm   " + m.theme.key.Render("n") + " cancel")
	return m.theme.box.Render(b.String())
}

func (m *Model) helpView() string {
	rows := make([]string, 0, len(helpKeys))
	for _, h := range helpKeys {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			m.theme.key.Width(12).Render(h[0]),
			h[1],
		))
	}
	rows = append(rows, "", m.theme.header.Render("press any key to close"))
	return m.theme.box.Render(strings.Join(rows, "\n"))
}

func (m *Model) statusView() string {
	if m.status == nil {
		return ""
	}
	switch m.status.kind {
	case statusSuccess:
		return m.theme.success.Render("✓ " + m.status.text)
	case statusError:
		return m.theme.failure.Render("✗ " + m.status.text)
	default:
		return m.theme.info.Render(m.status.text)
	}
}

func (m *Model) footer() string {
	if m.filtering {
		return m.theme.dim.Render("enter keep filter · esc clear")
	}
	return m.theme.dim.Render("space select · enter kill · / filter · s sort · ? help · q quit")
}
