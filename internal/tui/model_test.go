package tui

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/productdevbook/portzap/internal/config"
	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/scanner"
	"github.com/productdevbook/portzap/internal/scanner/mock"
)

var fixture = []scanner.ProcessInfo{
	{PID: 300, Name: "postgres", Port: 5432, Protocol: scanner.TCP, Command: "postgres -D /var/lib/pg"},
	{PID: 100, Name: "node", Port: 3000, Protocol: scanner.TCP, Command: "node server.js"},
	{PID: 200, Name: "vite", Port: 5173, Protocol: scanner.TCP, Command: "vite --port 5173"},
}

type memStore struct {
	cfg   *config.Config
	saves int
	err   error
}

func (s *memStore) Load() (*config.Config, error) {
	if s.cfg == nil {
		return config.Default(), nil
	}
	cp := *s.cfg
	cp.Favorites = slices.Clone(s.cfg.Favorites)
	return &cp, nil
}

func (s *memStore) Save(cfg *config.Config) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	cp := *cfg
	cp.Favorites = slices.Clone(cfg.Favorites)
	s.cfg = &cp
	return nil
}

type fakeTerminator struct {
	mu     sync.Mutex
	killed []int
	fail   map[int]bool
}

func (f *fakeTerminator) Kill(_ context.Context, p scanner.ProcessInfo, _ killer.Config) killer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, p.PID)
	if f.fail[p.PID] {
		return killer.Result{Process: p, Error: killer.ErrPermissionDenied.Error(), SignalSent: "SIGTERM"}
	}
	return killer.Result{Process: p, Success: true, SignalSent: "SIGTERM"}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestModel(t *testing.T, store *memStore, k Terminator) (*Model, *clock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	s := mock.NewMockScanner(ctrl)
	s.EXPECT().FindAllListening(gomock.Any()).Return(fixture, nil).AnyTimes()

	if store == nil {
		store = &memStore{}
	}
	if k == nil {
		k = &fakeTerminator{}
	}
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New(context.Background(), s, k, store)
	m.now = c.now
	m.Update(scanMsg{procs: append([]scanner.ProcessInfo(nil), fixture...)})
	return m, c
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func visiblePorts(m *Model) []int {
	ports := make([]int, 0, len(m.visible))
	for _, idx := range m.visible {
		ports = append(ports, m.procs[idx].Port)
	}
	return ports
}

func TestScanSortsByPort(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	assert.Equal(t, []int{3000, 5173, 5432}, visiblePorts(m))
	assert.Len(t, m.table.Rows(), 3)
	assert.Contains(t, m.View(), "3 listening")
}

func TestInitScans(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	msg := m.scan()()

	sm, ok := msg.(scanMsg)
	require.True(t, ok)
	assert.NoError(t, sm.err)
	assert.Len(t, sm.procs, 3)
}

func TestNavigation(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "j", "j", "j")
	assert.Equal(t, 2, m.cursor)

	press(m, "k")
	assert.Equal(t, 1, m.cursor)

	press(m, "g")
	assert.Equal(t, 0, m.cursor)

	press(m, "G")
	assert.Equal(t, 2, m.cursor)
}

func TestSelectionAndSelectAll(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, " ")
	assert.True(t, m.selected[keyOf(fixture[1])])

	press(m, "a")
	assert.Len(t, m.selected, 3)

	press(m, "a")
	assert.Empty(t, m.selected)
}

func TestSelectionPrunedOnRefresh(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	press(m, "a")

	m.Update(scanMsg{procs: []scanner.ProcessInfo{fixture[0]}})

	assert.Equal(t, map[rowKey]bool{keyOf(fixture[0]): true}, m.selected)
}

func TestCursorFollowsRowAcrossRefresh(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	press(m, "j")
	require.Equal(t, 5173, m.procs[m.visible[m.cursor]].Port)

	m.Update(scanMsg{procs: []scanner.ProcessInfo{fixture[0], fixture[2]}})

	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 5173, m.procs[m.visible[m.cursor]].Port)
}

func TestScanErrorKeepsRows(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	m.Update(scanMsg{err: errors.New("boom")})

	assert.Len(t, m.procs, 3)
	assert.Error(t, m.scanErr)
}

func TestFilter(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "/", "v", "i", "t")
	assert.True(t, m.filtering)
	assert.Equal(t, []int{5173}, visiblePorts(m))

	press(m, "enter")
	assert.False(t, m.filtering)
	assert.Equal(t, []int{5173}, visiblePorts(m))

	press(m, "esc")
	assert.Equal(t, []int{3000, 5173, 5432}, visiblePorts(m))
}

func TestFilterMatchesPort(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "/", "5", "4", "3", "2")

	assert.Equal(t, []int{5432}, visiblePorts(m))
}

func TestFilterEscClears(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "/", "n", "o", "d", "e", "esc")

	assert.False(t, m.filtering)
	assert.Empty(t, m.filter.Value())
	assert.Len(t, m.visible, 3)
}

func TestSort(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "s")
	assert.Equal(t, sortPID, m.sortCol)
	assert.Equal(t, []int{3000, 5173, 5432}, visiblePorts(m))

	press(m, "s")
	assert.Equal(t, sortName, m.sortCol)
	assert.Equal(t, []int{3000, 5432, 5173}, visiblePorts(m))

	press(m, "S")
	assert.False(t, m.sortAsc)
	assert.Equal(t, []int{5173, 5432, 3000}, visiblePorts(m))
}

func TestKillWithConfirmation(t *testing.T) {
	k := &fakeTerminator{}
	m, _ := newTestModel(t, nil, k)

	assert.Nil(t, press(m, "enter"))
	require.True(t, m.confirm)
	assert.Contains(t, m.View(), "Kill 1 process?")

	cmd := press(m, "y")
	require.NotNil(t, cmd)
	assert.False(t, m.confirm)
	assert.True(t, m.killing)

	m.Update(cmd())
	assert.Equal(t, []int{100}, k.killed)
	assert.False(t, m.killing)
	assert.Equal(t, "Zapped 1 process", m.status.text)
	assert.Contains(t, m.zapping, keyOf(fixture[1]))
	assert.Equal(t, "⚡", m.table.Rows()[0][0])
}

func TestKillCancelled(t *testing.T) {
	k := &fakeTerminator{}
	m, _ := newTestModel(t, nil, k)

	press(m, "x", "n")

	assert.False(t, m.confirm)
	assert.Empty(t, k.killed)
	assert.Equal(t, "Kill cancelled", m.status.text)
}

func TestKillSelectionSkipsConfirm(t *testing.T) {
	k := &fakeTerminator{fail: map[int]bool{300: true}}
	store := &memStore{cfg: &config.Config{Theme: config.ThemeDark, SkipConfirmDialog: true, AnimationDurationMS: 1000}}
	m, _ := newTestModel(t, store, k)

	press(m, "a")
	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.confirm)

	m.Update(cmd())
	assert.ElementsMatch(t, []int{100, 200, 300}, k.killed)
	assert.Equal(t, "Zapped 2, 1 failed (try sudo)", m.status.text)
	assert.Equal(t, statusError, m.status.kind)
	assert.Empty(t, m.selected)
}

func TestKillNothingSelected(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	m.Update(scanMsg{procs: nil})

	assert.Nil(t, press(m, "enter"))
	assert.False(t, m.confirm)
	assert.Equal(t, "Nothing selected", m.status.text)
}

func TestTickExpiresStatusAndAnimation(t *testing.T) {
	m, c := newTestModel(t, nil, nil)
	cmd := press(m, "enter", "y")
	m.Update(cmd())
	require.NotEmpty(t, m.zapping)

	c.advance(500 * time.Millisecond)
	assert.Nil(t, m.onTick())
	assert.NotEmpty(t, m.zapping)

	c.advance(600 * time.Millisecond)
	assert.NotNil(t, m.onTick())
	assert.Empty(t, m.zapping)
	require.NotNil(t, m.status)

	c.advance(5 * time.Second)
	m.onTick()
	assert.Nil(t, m.status)
}

func TestTickRefreshesPeriodically(t *testing.T) {
	m, c := newTestModel(t, nil, nil)

	assert.Nil(t, m.onTick())

	c.advance(refreshInterval)
	assert.NotNil(t, m.onTick())

	press(m, "/")
	c.advance(refreshInterval)
	assert.Nil(t, m.onTick())
}

func TestToggleTheme(t *testing.T) {
	store := &memStore{}
	m, _ := newTestModel(t, store, nil)

	press(m, "t")

	assert.Equal(t, config.ThemeLight, m.cfg.Theme)
	assert.Equal(t, config.ThemeLight, store.cfg.Theme)
	assert.Equal(t, "Switched to Light theme", m.status.text)
}

func TestToggleThemeSaveFailure(t *testing.T) {
	store := &memStore{err: errors.New("read-only")}
	m, _ := newTestModel(t, store, nil)

	press(m, "t")

	assert.Equal(t, "Failed to save theme preference", m.status.text)
}

func TestToggleFavorite(t *testing.T) {
	store := &memStore{}
	m, _ := newTestModel(t, store, nil)

	press(m, "f")
	assert.Equal(t, []int{3000}, store.cfg.Favorites)
	assert.Equal(t, " ★", m.table.Rows()[0][0])

	press(m, "f")
	assert.Empty(t, store.cfg.Favorites)
}

func TestHelp(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "toggle theme")

	assert.Nil(t, press(m, "q"))
	assert.False(t, m.showHelp)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestEscClearsFilterBeforeQuitting(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	press(m, "/", "v", "enter")

	assert.Nil(t, press(m, "esc"))
	assert.Empty(t, m.filter.Value())

	assert.NotNil(t, press(m, "esc"))
}
