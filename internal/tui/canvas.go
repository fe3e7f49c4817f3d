package tui

import (
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/render"
)

// renderCanvas projects the live transform and colors each run of
// cells by depth.
func renderCanvas(m *Model, width, height int) string {
	titleStyle := panelTitleDimStyle
	if m.activePane == PaneCube {
		titleStyle = panelTitleStyle
	}
	title := titleStyle.Render("Cube") + dimStyle.Render("  "+m.app.Cube.Selector())

	canvas := render.Project(m.app.Cube.Transform(), width, height-2)

	lines := make([]string, 0, canvas.Height+2)
	lines = append(lines, title, "")
	for y := 0; y < canvas.Height; y++ {
		lines = append(lines, styledRow(canvas, y))
	}
	return strings.Join(lines, "\n")
}

// styledRow renders one canvas row, grouping cells of the same depth
// bucket so each run is styled once.
func styledRow(c *render.Canvas, y int) string {
	var b, run strings.Builder
	bucket := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if bucket < 0 {
			b.WriteString(run.String())
		} else {
			b.WriteString(depthStyles[bucket].Render(run.String()))
		}
		run.Reset()
	}
	for x := 0; x < c.Width; x++ {
		cell := c.At(x, y)
		next := -1
		r := ' '
		if cell.Rune != 0 {
			next = depthBucket(cell.Depth)
			r = cell.Rune
		}
		if next != bucket {
			flush()
			bucket = next
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}

// renderCanvasPanel wraps the canvas in a styled panel.
func renderCanvasPanel(m *Model, width, height int) string {
	content := renderCanvas(m, width-4, height-2)

	style := panelStyle
	if m.activePane == PaneCube {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(content)
}
