package tui

import (
	"strings"
	"testing"

	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestModelFrameTicksLoop(t *testing.T) {
	a := newTestApp(t, false)
	m := NewModel(a)

	m, _ = update(t, m, runeKey('r'))
	if m.statusMsg != "Rotating right" {
		t.Fatalf("unexpected status %q", m.statusMsg)
	}

	before := a.Cube.Orientation()
	for i := 0; i < 10; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, frameMsg{})
		if cmd == nil {
			t.Fatal("a frame must schedule the next one")
		}
	}
	if a.Loop.Frames() != 10 {
		t.Fatalf("expected 10 frames, got %d", a.Loop.Frames())
	}
	if a.Cube.Orientation() == before {
		t.Error("expected the rotation to advance")
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(newTestApp(t, false))
	_, cmd := update(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelViewLayouts(t *testing.T) {
	a := newTestApp(t, false)
	m := NewModel(a)

	if m.View() != "Initializing..." {
		t.Fatal("expected the placeholder before the first size")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, want := range []string{"CUBESPIN", "#the-cube", "Orientation", "History", "Journal disabled."} {
		if !strings.Contains(view, want) {
			t.Errorf("wide view missing %q", want)
		}
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.activePane != PaneHistory {
		t.Fatalf("expected the history pane, got %d", m.activePane)
	}
	if view := m.View(); strings.Contains(view, "Orientation") {
		t.Error("compact view should show only the focused pane")
	}
}

func TestModelHistoryAndLaps(t *testing.T) {
	a := newTestApp(t, true)
	m := NewModel(a)

	for _, id := range []string{"aaaaaaaa-1", "bbbbbbbb-2"} {
		if err := a.DB.InsertSpin(&database.SpinRecord{
			SpinID: id, Selector: "#the-cube", Slot: "rotate", Easing: "linear",
			Repeat: true, Budget: 1000, Frames: 60, Status: "cancelled", StartedAt: 1,
		}); err != nil {
			t.Fatalf("InsertSpin failed: %v", err)
		}
	}
	if err := a.DB.BatchInsertLaps([]*database.LapRecord{
		{SpinID: "aaaaaaaa-1", Axis: "y", Lap: 1, StartDeg: 0, EndDeg: 360, RecordedAt: 2},
		{SpinID: "aaaaaaaa-1", Axis: "y", Lap: 2, StartDeg: 360, EndDeg: 720.5, RecordedAt: 3},
	}); err != nil {
		t.Fatalf("BatchInsertLaps failed: %v", err)
	}

	msg := m.loadHistory()()
	loaded, ok := msg.(historyLoadedMsg)
	if !ok {
		t.Fatalf("expected historyLoadedMsg, got %T", msg)
	}
	m, _ = update(t, m, loaded)
	if len(m.spins) != 2 || m.stats == nil || m.stats.TotalSpins != 2 {
		t.Fatalf("unexpected history %d %+v", len(m.spins), m.stats)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	var spinID string
	for i, sp := range m.spins {
		if sp.SpinID == "aaaaaaaa-1" {
			spinID = sp.SpinID
			m.selectedSpin = i
		}
	}
	_, cmd := update(t, m, runeKey('l'))
	if cmd == nil {
		t.Fatal("expected a lap load")
	}
	m, _ = update(t, m, cmd())
	if m.lapsFor != spinID || len(m.laps) != 2 {
		t.Fatalf("unexpected laps for %q: %d", m.lapsFor, len(m.laps))
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view := m.View()
	if !strings.Contains(view, "+0.5000") || !strings.Contains(view, "+0.0000") {
		t.Errorf("lap residuals missing from view:\n%s", view)
	}
}

func TestModelKeysReachController(t *testing.T) {
	a := newTestApp(t, false)
	m := NewModel(a)

	m, _ = update(t, m, runeKey('f'))
	for i := 0; i < 120; i++ {
		m, _ = update(t, m, frameMsg{})
	}
	if !a.Cube.Focused() {
		t.Fatal("expected focus")
	}
	if a.Cube.Mode() != orientation.Idle {
		t.Errorf("focus without a session should settle idle, got %s", a.Cube.Mode())
	}
}
