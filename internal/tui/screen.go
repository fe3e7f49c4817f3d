package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Mr-Dark-debug/cubespin/internal/app"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/render"
	"github.com/gdamore/tcell/v2"
)

var (
	tcellBase   = tcell.StyleDefault.Background(tcell.ColorReset)
	tcellBrand  = tcellBase.Foreground(tcell.NewHexColor(0x58a6ff)).Bold(true)
	tcellMeta   = tcellBase.Foreground(tcell.NewHexColor(0x8b949e))
	tcellStatus = tcellBase.Foreground(tcell.NewHexColor(0xe6edf3))
	tcellHints  = tcellBase.Foreground(tcell.NewHexColor(0x484f58))
)

// RunTcell drives the app on an initialized tcell screen until a quit
// key or ctx ends. It ticks the loop itself and finalizes s on return.
func RunTcell(ctx context.Context, a *app.App, ctrl *Controller, s tcell.Screen) error {
	defer s.Fini()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frame.Interval)
	defer ticker.Stop()

	status := "Ready"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				s.Sync()
			case *tcell.EventKey:
				msg, quit := ctrl.HandleKey(keyName(ev))
				if quit {
					return nil
				}
				if msg != "" {
					status = msg
				}
			}

		case <-ticker.C:
			a.Loop.Tick()
			drawScreen(s, a, status)
			s.Show()
		}
	}
}

// keyName spells a tcell key the way bubbletea does, so both backends
// share one key table.
func keyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		return string(ev.Rune())
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyEscape:
		return "esc"
	case tcell.KeyCtrlC:
		return "ctrl+c"
	case tcell.KeyTab:
		return "tab"
	}
	return ""
}

// drawScreen paints one frame: a header row, the cube and a status row.
func drawScreen(s tcell.Screen, a *app.App, status string) {
	s.Clear()
	w, h := s.Size()
	if w <= 0 || h < 3 {
		return
	}

	c := a.Cube
	render.DrawText(s, 0, 0, tcellBrand, "CUBESPIN")
	header := fmt.Sprintf("  %s  %s  %v", c.Selector(), c.Mode(), c.Transform().Display())
	if c.Focused() {
		header += "  focused"
	}
	render.DrawText(s, 8, 0, tcellMeta, header)

	render.Paint(s, render.Project(c.Transform(), w, h-2), 0, 1, tcellBase)

	render.DrawText(s, 0, h-1, tcellStatus, truncate(status, w))
	hints := plainHints()
	if x := w - len(hints); x > len(status)+2 {
		render.DrawText(s, x, h-1, tcellHints, hints)
	}
}
