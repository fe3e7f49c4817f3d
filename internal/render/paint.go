package render

import (
	"github.com/gdamore/tcell/v2"
)

// DepthColor shades from bright cyan (near) to dim blue (far).
func DepthColor(depth float64) tcell.Color {
	if depth < 0 {
		depth = 0
	}
	if depth > 1 {
		depth = 1
	}
	r := int32(40 + (1-depth)*60)
	g := int32(80 + (1-depth)*175)
	b := int32(140 + (1-depth)*115)
	return tcell.NewRGBColor(r, g, b)
}

// Paint copies c onto s with its top-left corner at (x0, y0). Empty cells
// are left untouched.
func Paint(s tcell.Screen, c *Canvas, x0, y0 int, base tcell.Style) {
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			cell := c.cells[y*c.Width+x]
			if cell.Rune == 0 {
				continue
			}
			s.SetContent(x0+x, y0+y, cell.Rune, nil, base.Foreground(DepthColor(cell.Depth)))
		}
	}
}

// DrawText writes str on one row starting at (x, y).
func DrawText(s tcell.Screen, x, y int, style tcell.Style, str string) {
	for i, r := range []rune(str) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
