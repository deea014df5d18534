// Package tui is the full-screen process browser behind `portzap gui`.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/productdevbook/portzap/internal/config"
	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/log"
	"github.com/productdevbook/portzap/internal/scanner"
)

var logger = log.Component("tui")

const (
	refreshInterval = 2 * time.Second
	tickInterval    = 100 * time.Millisecond
	statusLifetime  = 4 * time.Second
)

// Terminator kills one process. *killer.Terminator satisfies it.
type Terminator interface {
	Kill(ctx context.Context, p scanner.ProcessInfo, cfg killer.Config) killer.Result
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

type status struct {
	text string
	kind statusKind
	at   time.Time
}

type sortColumn int

const (
	sortPort sortColumn = iota
	sortPID
	sortName
	sortProtocol
)

var sortNames = [...]string{"port", "pid", "name", "protocol"}

func (c sortColumn) String() string { return sortNames[c] }

func (c sortColumn) next() sortColumn { return (c + 1) % sortColumn(len(sortNames)) }

type rowKey struct {
	pid   int
	port  int
	proto scanner.Protocol
}

func keyOf(p scanner.ProcessInfo) rowKey {
	return rowKey{pid: p.PID, port: p.Port, proto: p.Protocol}
}

type (
	tickMsg time.Time
	scanMsg struct {
		procs []scanner.ProcessInfo
		err   error
	}
	killDoneMsg struct {
		results []killer.Result
	}
)

// Model is the bubbletea model for the process browser.
type Model struct {
	ctx     context.Context
	scanner scanner.Scanner
	killer  Terminator
	store   config.Store
	cfg     *config.Config
	killCfg killer.Config
	theme   theme
	now     func() time.Time

	procs    []scanner.ProcessInfo
	visible  []int
	cursor   int
	selected map[rowKey]bool
	zapping  map[rowKey]time.Time
	scanErr  error

	sortCol sortColumn
	sortAsc bool

	filter    textinput.Model
	filtering bool

	confirm     bool
	targets     []scanner.ProcessInfo
	killing     bool
	showHelp    bool
	status      *status
	lastRefresh time.Time

	table  table.Model
	width  int
	height int
}

// New builds a model. Preferences are loaded from store.
func New(ctx context.Context, s scanner.Scanner, k Terminator, store config.Store) *Model {
	cfg := config.LoadOrDefault(store)

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "name, port, pid or command"
	fi.CharLimit = 64

	m := &Model{
		ctx:      ctx,
		scanner:  s,
		killer:   k,
		store:    store,
		cfg:      cfg,
		killCfg:  killer.DefaultConfig(),
		theme:    newTheme(cfg.Theme),
		now:      time.Now,
		selected: make(map[rowKey]bool),
		zapping:  make(map[rowKey]time.Time),
		sortAsc:  true,
		filter:   fi,
		table: table.New(
			table.WithColumns(columns(80)),
			table.WithFocused(true),
			table.WithHeight(15),
		),
	}
	m.table.SetStyles(m.theme.table)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.scan(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) scan() tea.Cmd {
	ctx, s := m.ctx, m.scanner
	return func() tea.Msg {
		ps, err := s.FindAllListening(ctx)
		return scanMsg{procs: ps, err: err}
	}
}

func (m *Model) kill(targets []scanner.ProcessInfo) tea.Cmd {
	ctx, k, cfg := m.ctx, m.killer, m.killCfg
	return func() tea.Msg {
		results := make([]killer.Result, 0, len(targets))
		for _, p := range targets {
			results = append(results, k.Kill(ctx, p, cfg))
		}
		return killDoneMsg{results: results}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.onTick(), tick())

	case scanMsg:
		m.applyScan(msg)
		return m, nil

	case killDoneMsg:
		return m, m.applyKills(msg.results)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// onTick expires status lines and kill markers and schedules the periodic
// refresh.
func (m *Model) onTick() tea.Cmd {
	now := m.now()
	if m.status != nil && now.Sub(m.status.at) > statusLifetime {
		m.status = nil
	}

	if len(m.zapping) > 0 {
		for k, at := range m.zapping {
			if now.Sub(at) >= m.cfg.AnimationDuration() {
				delete(m.zapping, k)
			}
		}
		if len(m.zapping) == 0 {
			m.lastRefresh = now
			return m.scan()
		}
		m.syncTable()
	}

	if !m.filtering && !m.confirm && !m.killing && now.Sub(m.lastRefresh) >= refreshInterval {
		m.lastRefresh = now
		return m.scan()
	}
	return nil
}

func (m *Model) applyScan(msg scanMsg) {
	m.lastRefresh = m.now()
	if msg.err != nil {
		logger.WithError(msg.err).Debug("scan failed")
		m.scanErr = msg.err
		return
	}
	m.scanErr = nil

	current, hasCurrent := m.current()
	m.procs = msg.procs
	m.sortProcs()

	present := make(map[rowKey]bool, len(m.procs))
	for _, p := range m.procs {
		present[keyOf(p)] = true
	}
	for k := range m.selected {
		if !present[k] {
			delete(m.selected, k)
		}
	}

	m.refilter()
	m.cursor = 0
	if hasCurrent {
		for row, idx := range m.visible {
			if keyOf(m.procs[idx]) == keyOf(current) {
				m.cursor = row
				break
			}
		}
	}
	m.syncTable()
}

func (m *Model) applyKills(results []killer.Result) tea.Cmd {
	m.killing = false
	now := m.now()
	killed, failed := 0, 0
	for _, r := range results {
		if r.Success {
			killed++
			m.zapping[keyOf(r.Process)] = now
		} else {
			failed++
			logger.WithField("pid", r.Process.PID).Debug(r.Error)
		}
	}
	clear(m.selected)

	if failed == 0 {
		m.setStatus(fmt.Sprintf("Zapped %d %s", killed, plural(killed, "process", "processes")), statusSuccess)
	} else {
		m.setStatus(fmt.Sprintf("Zapped %d, %d failed (try sudo)", killed, failed), statusError)
	}

	if len(m.zapping) == 0 || m.cfg.AnimationDuration() <= 0 {
		clear(m.zapping)
		m.lastRefresh = now
		return m.scan()
	}
	m.syncTable()
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}

	if m.confirm {
		switch key {
		case "y", "Y":
			m.confirm = false
			return m.startKill(m.targets)
		case "n", "N", "esc":
			m.confirm = false
			m.targets = nil
			m.setStatus("Kill cancelled", statusInfo)
		}
		return nil
	}

	if m.filtering {
		switch key {
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return nil
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.refilter()
			m.cursor = 0
			m.syncTable()
			return nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.refilter()
		m.cursor = 0
		m.syncTable()
		return cmd
	}

	if m.showHelp {
		m.showHelp = false
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.refilter()
			m.cursor = 0
			m.syncTable()
			return nil
		}
		return tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "home", "g":
		m.cursor = 0
		m.syncTable()
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
		m.syncTable()
	case " ", "space":
		m.toggleSelected()
	case "a":
		m.toggleAll()
	case "enter", "x":
		return m.requestKill()
	case "r":
		m.setStatus("Refreshed", statusInfo)
		m.lastRefresh = m.now()
		return m.scan()
	case "s":
		m.sortCol = m.sortCol.next()
		m.sortAsc = true
		m.resort()
	case "S":
		m.sortAsc = !m.sortAsc
		m.resort()
	case "/":
		m.filtering = true
		m.filter.SetValue("")
		m.refilter()
		m.syncTable()
		return m.filter.Focus()
	case "t":
		m.toggleTheme()
	case "f":
		m.toggleFavorite()
	case "?":
		m.showHelp = true
	}
	return nil
}

func (m *Model) move(delta int) {
	if len(m.visible) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.visible)-1)
	m.syncTable()
}

func (m *Model) current() (scanner.ProcessInfo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return scanner.ProcessInfo{}, false
	}
	return m.procs[m.visible[m.cursor]], true
}

func (m *Model) toggleSelected() {
	p, ok := m.current()
	if !ok {
		return
	}
	k := keyOf(p)
	if m.selected[k] {
		delete(m.selected, k)
	} else {
		m.selected[k] = true
	}
	m.syncTable()
}

// toggleAll selects every visible row, or clears the selection when all
// of them are already selected.
func (m *Model) toggleAll() {
	all := len(m.visible) > 0
	for _, idx := range m.visible {
		if !m.selected[keyOf(m.procs[idx])] {
			all = false
			break
		}
	}
	clear(m.selected)
	if !all {
		for _, idx := range m.visible {
			m.selected[keyOf(m.procs[idx])] = true
		}
	}
	m.syncTable()
}

// killTargets is the selection in display order, or the row under the
// cursor when nothing is selected.
func (m *Model) killTargets() []scanner.ProcessInfo {
	var targets []scanner.ProcessInfo
	if len(m.selected) > 0 {
		for _, p := range m.procs {
			if m.selected[keyOf(p)] {
				targets = append(targets, p)
			}
		}
		return targets
	}
	if p, ok := m.current(); ok {
		targets = append(targets, p)
	}
	return targets
}

func (m *Model) requestKill() tea.Cmd {
	if m.killing {
		return nil
	}
	targets := m.killTargets()
	if len(targets) == 0 {
		m.setStatus("Nothing selected", statusInfo)
		return nil
	}
	if m.cfg.SkipConfirmDialog {
		return m.startKill(targets)
	}
	m.confirm = true
	m.targets = targets
	return nil
}

func (m *Model) startKill(targets []scanner.ProcessInfo) tea.Cmd {
	m.targets = nil
	if len(targets) == 0 {
		return nil
	}
	m.killing = true
	m.setStatus(fmt.Sprintf("Zapping %d %s...", len(targets), plural(len(targets), "process", "processes")), statusInfo)
	return m.kill(targets)
}

func (m *Model) toggleTheme() {
	m.cfg.Theme = m.cfg.Theme.Toggle()
	m.theme = newTheme(m.cfg.Theme)
	m.table.SetStyles(m.theme.table)
	if err := m.store.Save(m.cfg); err != nil {
		logger.WithError(err).Warn("failed to save theme")
		m.setStatus("Failed to save theme preference", statusError)
		return
	}
	name := "Dark"
	if m.cfg.Theme == config.ThemeLight {
		name = "Light"
	}
	m.setStatus(fmt.Sprintf("Switched to %s theme", name), statusInfo)
}

func (m *Model) toggleFavorite() {
	p, ok := m.current()
	if !ok {
		return
	}
	added := m.cfg.ToggleFavorite(p.Port)
	m.syncTable()
	if err := m.store.Save(m.cfg); err != nil {
		logger.WithError(err).Warn("failed to save favorites")
		m.setStatus("Failed to save favorites", statusError)
		return
	}
	if added {
		m.setStatus(fmt.Sprintf("Port %d added to favorites", p.Port), statusSuccess)
	} else {
		m.setStatus(fmt.Sprintf("Port %d removed from favorites", p.Port), statusInfo)
	}
}

func (m *Model) setStatus(text string, kind statusKind) {
	m.status = &status{text: text, kind: kind, at: m.now()}
}

func (m *Model) resort() {
	current, ok := m.current()
	m.sortProcs()
	m.refilter()
	m.cursor = 0
	if ok {
		for row, idx := range m.visible {
			if keyOf(m.procs[idx]) == keyOf(current) {
				m.cursor = row
				break
			}
		}
	}
	m.syncTable()
}

func (m *Model) sortProcs() {
	less := func(a, b scanner.ProcessInfo) int {
		switch m.sortCol {
		case sortPID:
			return a.PID - b.PID
		case sortName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case sortProtocol:
			return strings.Compare(string(a.Protocol), string(b.Protocol))
		default:
			return a.Port - b.Port
		}
	}
	sort.SliceStable(m.procs, func(i, j int) bool {
		c := less(m.procs[i], m.procs[j])
		if !m.sortAsc {
			c = -c
		}
		return c < 0
	})
}

// processSource adapts the process list for fuzzy matching.
type processSource []scanner.ProcessInfo

func (s processSource) String(i int) string {
	p := s[i]
	return strings.ToLower(fmt.Sprintf("%s %d %d %s", p.Name, p.Port, p.PID, p.Command))
}

func (s processSource) Len() int { return len(s) }

// refilter recomputes the visible rows, keeping the current sort order.
func (m *Model) refilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	if query == "" {
		for i := range m.procs {
			m.visible = append(m.visible, i)
		}
		return
	}
	for _, match := range fuzzy.FindFrom(query, processSource(m.procs)) {
		m.visible = append(m.visible, match.Index)
	}
	sort.Ints(m.visible)
}

func (m *Model) syncTable() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, idx := range m.visible {
		p := m.procs[idx]
		rows = append(rows, table.Row{
			m.marks(p),
			strconv.Itoa(p.Port),
			p.Protocol.String(),
			strconv.Itoa(p.PID),
			p.Name,
			orDash(p.User),
			orDash(p.Command),
		})
	}
	m.table.SetRows(rows)
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
	m.table.SetCursor(m.cursor)
}

func (m *Model) marks(p scanner.ProcessInfo) string {
	var b strings.Builder
	k := keyOf(p)
	switch {
	case !m.zapping[k].IsZero():
		b.WriteString("⚡")
	case m.selected[k]:
		b.WriteString("●")
	default:
		b.WriteString(" ")
	}
	if m.cfg.IsFavorite(p.Port) {
		b.WriteString("★")
	}
	return b.String()
}

func columns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "", Width: 2},
		{Title: "PORT", Width: 6},
		{Title: "PROTO", Width: 5},
		{Title: "PID", Width: 8},
		{Title: "PROCESS", Width: 18},
		{Title: "USER", Width: 10},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	return append(fixed, table.Column{Title: "COMMAND", Width: max(width-used-4, 10)})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
