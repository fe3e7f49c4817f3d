// Package render turns an orientation into something visible: the
// transform string applied to the target element, a wireframe projection
// of the cube, and painters for tcell screens and lipgloss views.
package render

import (
	"strconv"
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
)

// DefaultPerspective is the viewer distance in pixels.
const DefaultPerspective = 1100

// Transform is the per-frame render input: a perspective distance and the
// logical angles.
type Transform struct {
	Perspective float64
	Angles      orientation.Angles
}

// Display returns the angles mapped into [0,360).
func (t Transform) Display() orientation.Angles {
	return t.Angles.Normalized()
}

// String composes the transform in CSS syntax:
//
//	perspective(1100px) rotateX(0deg) rotateY(90deg) rotateZ(0deg)
func (t Transform) String() string {
	var b strings.Builder
	b.WriteString("perspective(")
	b.WriteString(formatNum(t.Perspective))
	b.WriteString("px)")

	d := t.Display()
	for _, axis := range orientation.Axes {
		b.WriteString(" rotate")
		b.WriteString(strings.ToUpper(axis.String()))
		b.WriteString("(")
		b.WriteString(formatNum(d[axis]))
		b.WriteString("deg)")
	}
	return b.String()
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Target is the visual element a cube renders into.
type Target interface {
	ApplyTransform(t Transform)
	AddClass(name string)
	RemoveClass(name string)
}

// Resolver finds a Target by selector.
type Resolver interface {
	Resolve(selector string) (Target, bool)
}
