package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := cells[y*w+x]
			if len(cell.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(cell.Runes[0])
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func TestKeyName(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), "r"},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "enter"},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "esc"},
		{tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), "ctrl+c"},
		{tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), ""},
	}
	for _, tc := range cases {
		if got := keyName(tc.ev); got != tc.want {
			t.Errorf("keyName(%v) = %q, want %q", tc.ev.Name(), got, tc.want)
		}
	}
}

func TestDrawScreen(t *testing.T) {
	a := newTestApp(t, false)
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer s.Fini()
	s.SetSize(100, 30)

	drawScreen(s, a, "Ready")
	s.Show()

	text := screenText(s)
	if !strings.Contains(text, "CUBESPIN") || !strings.Contains(text, "#the-cube") {
		t.Fatalf("header missing:\n%s", text)
	}
	if !strings.Contains(text, "Ready") {
		t.Error("status row missing")
	}
	rows := strings.Split(text, "\n")
	if body := strings.Join(rows[1:len(rows)-2], "\n"); !strings.ContainsAny(body, "@#%*+=-:.") {
		t.Error("expected cube edges on screen")
	}
}

func TestRunTcellQuits(t *testing.T) {
	a := newTestApp(t, false)
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	s.SetSize(80, 24)
	s.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RunTcell(ctx, a, NewController(a), s); err != nil {
		t.Fatalf("expected a clean quit, got %v", err)
	}
	if _, ok := a.Cube.Store().Session(); !ok {
		t.Error("the rotate key should have fixed a session")
	}
}
