package render

import (
	"math"
	"strings"
)

// HalfEdge is half the cube's edge length in pixels.
const HalfEdge = 100

// Point3D is a point in element space: x right, y down, z toward the
// viewer.
type Point3D struct{ X, Y, Z float64 }

// Rotate applies the transform's rotations the way the composed
// transform does: rotateZ first, then rotateY, then rotateX.
func (p Point3D) Rotate(a [3]float64) Point3D {
	ax, ay, az := a[0]*math.Pi/180, a[1]*math.Pi/180, a[2]*math.Pi/180
	cosX, sinX := math.Cos(ax), math.Sin(ax)
	cosY, sinY := math.Cos(ay), math.Sin(ay)
	cosZ, sinZ := math.Cos(az), math.Sin(az)

	x1 := p.X*cosZ - p.Y*sinZ
	y1 := p.X*sinZ + p.Y*cosZ
	p.X, p.Y = x1, y1

	x2 := p.X*cosY + p.Z*sinY
	z2 := -p.X*sinY + p.Z*cosY
	p.X, p.Z = x2, z2

	y3 := p.Y*cosX - p.Z*sinX
	z3 := p.Y*sinX + p.Z*cosX
	p.Y, p.Z = y3, z3

	return p
}

// ProjectPoint rotates p by t and applies perspective. The result is in
// pixels relative to the element's center; z is kept for depth.
func ProjectPoint(t Transform, p Point3D) Point3D {
	r := p.Rotate(t.Display())
	persp := t.Perspective
	if persp <= 0 {
		persp = DefaultPerspective
	}
	d := persp - r.Z
	if d < 1 {
		d = 1
	}
	f := persp / d
	return Point3D{X: r.X * f, Y: r.Y * f, Z: r.Z}
}

var vertices = [8]Point3D{
	{-HalfEdge, -HalfEdge, -HalfEdge},
	{HalfEdge, -HalfEdge, -HalfEdge},
	{HalfEdge, HalfEdge, -HalfEdge},
	{-HalfEdge, HalfEdge, -HalfEdge},
	{-HalfEdge, -HalfEdge, HalfEdge},
	{HalfEdge, -HalfEdge, HalfEdge},
	{HalfEdge, HalfEdge, HalfEdge},
	{-HalfEdge, HalfEdge, HalfEdge},
}

var edges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// depthRamp goes from nearest to farthest.
var depthRamp = []rune{'@', '#', '%', '*', '+', '=', '-', ':', '.'}

// DepthRune maps a depth in [0,1] (0 nearest) to a shading rune.
func DepthRune(depth float64) rune {
	if depth < 0 {
		depth = 0
	}
	if depth > 1 {
		depth = 1
	}
	return depthRamp[int(depth*float64(len(depthRamp)-1))]
}

// Cell is one character of a projected canvas.
type Cell struct {
	Rune  rune
	Depth float64
}

// Canvas is a character grid holding one projected frame.
type Canvas struct {
	Width, Height int
	cells         []Cell
}

// NewCanvas returns an empty w×h canvas.
func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Canvas{Width: w, Height: h, cells: make([]Cell, w*h)}
}

// At returns the cell at (x, y). Empty cells have Rune 0.
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return Cell{}
	}
	return c.cells[y*c.Width+x]
}

// plot keeps the nearer of two points landing on the same cell.
func (c *Canvas) plot(x, y int, depth float64) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	i := y*c.Width + x
	if c.cells[i].Rune != 0 && c.cells[i].Depth <= depth {
		return
	}
	c.cells[i] = Cell{Rune: DepthRune(depth), Depth: depth}
}

func (c *Canvas) line(x0, y0 int, d0 float64, x1, y1 int, d1 float64) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, -dy)
	err := dx + dy
	x, y := x0, y0
	for i := 0; ; i++ {
		depth := d0
		if steps > 0 {
			depth = d0 + (d1-d0)*float64(i)/float64(steps)
		}
		c.plot(x, y, depth)
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Lines returns the canvas as text rows; empty cells are spaces.
func (c *Canvas) Lines() []string {
	rows := make([]string, c.Height)
	var b strings.Builder
	for y := 0; y < c.Height; y++ {
		b.Reset()
		for x := 0; x < c.Width; x++ {
			r := c.cells[y*c.Width+x].Rune
			if r == 0 {
				r = ' '
			}
			b.WriteRune(r)
		}
		rows[y] = b.String()
	}
	return rows
}

// String joins Lines with newlines.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Project draws the cube's twelve edges under t onto a w×h canvas.
// Terminal cells are about twice as tall as wide, so x is doubled.
func Project(t Transform, w, h int) *Canvas {
	c := NewCanvas(w, h)
	if w == 0 || h == 0 {
		return c
	}

	scale := math.Min(float64(w)/2, float64(h)) / 480
	cx, cy := float64(w)/2, float64(h)/2
	reach := HalfEdge * math.Sqrt(3)

	type screenPoint struct {
		x, y  int
		depth float64
	}
	var pts [8]screenPoint
	for i, v := range vertices {
		p := ProjectPoint(t, v)
		pts[i] = screenPoint{
			x:     int(math.Round(cx + p.X*scale*2)),
			y:     int(math.Round(cy + p.Y*scale)),
			depth: (reach - p.Z) / (2 * reach),
		}
	}
	for _, e := range edges {
		a, b := pts[e[0]], pts[e[1]]
		c.line(a.x, a.y, a.depth, b.x, b.y, b.depth)
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
