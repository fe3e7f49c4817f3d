// Package capability decides whether the host can animate a cube at all.
package capability

import (
	"math"

	"github.com/mattn/go-isatty"

	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/render"
)

// Probe reports the two host features an animated cube needs.
type Probe interface {
	// AnimationFrame reports whether per-frame callbacks can be scheduled.
	AnimationFrame() bool
	// Transform3D reports whether 3-D transforms render correctly.
	Transform3D() bool
}

// Available reports whether both features are present. A nil probe is
// unavailable.
func Available(p Probe) bool {
	if p == nil {
		return false
	}
	return p.AnimationFrame() && p.Transform3D()
}

// Static is a fixed answer, for tests and headless hosts.
type Static struct {
	Frame     bool
	Transform bool
}

func (s Static) AnimationFrame() bool { return s.Frame }
func (s Static) Transform3D() bool    { return s.Transform }

// Supported is the probe for hosts known to be capable.
var Supported = Static{Frame: true, Transform: true}

// Terminal probes a terminal host.
type Terminal struct {
	// Fd is the output descriptor, normally os.Stdout.Fd().
	Fd        uintptr
	Scheduler frame.Scheduler
}

// AnimationFrame implements Probe.
func (t Terminal) AnimationFrame() bool {
	return t.Scheduler != nil
}

// Transform3D implements Probe. It needs a terminal to draw on and a
// projector that puts a known vertex where it belongs.
func (t Terminal) Transform3D() bool {
	if !isatty.IsTerminal(t.Fd) && !isatty.IsCygwinTerminal(t.Fd) {
		return false
	}
	return RenderCheck()
}

// RenderCheck projects the right-hand face center at rest and after a
// half turn around Y. It must move from right of center to left of
// center with its distance preserved.
func RenderCheck() bool {
	probe := render.Point3D{X: render.HalfEdge}

	rest := render.ProjectPoint(render.Transform{Perspective: render.DefaultPerspective}, probe)
	turned := render.ProjectPoint(render.Transform{
		Perspective: render.DefaultPerspective,
		Angles:      orientation.Angles{0, 180, 0},
	}, probe)

	if rest.X <= 0 || turned.X >= 0 {
		return false
	}
	return math.Abs(rest.X+turned.X) < 1e-6
}
