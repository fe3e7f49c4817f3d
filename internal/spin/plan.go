// Package spin computes and applies frame-by-frame orientation updates.
//
// A Request describes where each axis should go and how fast. NewPlan
// resolves it against the current angles: one-shot requests take the
// shorter arc on every axis, repeating requests always travel a full turn.
// The Engine then steps the plan once per frame, writing each eased
// position into the orientation store, until every axis reports done.
package spin

import (
	"math"

	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
)

// Iterations converts milliseconds to frames at frame.Rate. The rate is
// fixed; measured frame timing is not taken into account.
func Iterations(ms float64) float64 {
	return ms * frame.Rate / 1000
}

// Request describes one spin.
type Request struct {
	// Target is the destination angle per axis. For repeating spins it is
	// one lap away from the start.
	Target orientation.Angles
	// Speed is the time in milliseconds a full 360° move would take. When
	// set, every axis is paced by the one with the longest distance.
	Speed float64
	// Speeds is the time in milliseconds per axis, used when Speed is 0.
	// Zero keeps the axis still.
	Speeds [3]float64
	Easing easing.Kind
	// Repeat restarts each axis from its lap start when it arrives.
	Repeat bool
	Slot   frame.Slot
	// OnComplete runs once after a one-shot spin reaches its target.
	OnComplete func()
}

// Plan is a request resolved against a start orientation.
type Plan struct {
	Start  orientation.Angles
	Target orientation.Angles
	// Delta is the unsigned distance to travel per axis.
	Delta [3]float64
	Dir   [3]orientation.Direction
	// Budget is the iteration count per axis.
	Budget [3]float64
}

// NewPlan resolves req against start.
func NewPlan(start orientation.Angles, req Request) Plan {
	p := Plan{Start: start, Target: req.Target}

	for _, axis := range orientation.Axes {
		s, target := start[axis], req.Target[axis]

		if req.Repeat {
			p.Delta[axis] = math.Abs(s - target)
		} else {
			direct := math.Abs(s - target)
			var wrapped float64
			if s > target {
				wrapped = math.Abs(s - target - 360)
			} else {
				wrapped = math.Abs(s - target + 360)
			}

			if direct < wrapped {
				p.Delta[axis] = direct
			} else {
				if s > target {
					target += 360
				} else {
					target -= 360
				}
				p.Delta[axis] = wrapped
			}
			p.Target[axis] = target
		}

		if s < p.Target[axis] {
			p.Dir[axis] = orientation.Right
		} else {
			p.Dir[axis] = orientation.Left
		}
	}

	if req.Speed > 0 {
		pace := Iterations(req.Speed)
		var budget float64
		for _, axis := range orientation.Axes {
			b := math.Floor(math.Abs(start[axis]-p.Target[axis]) * pace / 360)
			if b > budget {
				budget = b
			}
		}
		for _, axis := range orientation.Axes {
			p.Budget[axis] = budget
		}
	} else {
		for _, axis := range orientation.Axes {
			p.Budget[axis] = Iterations(req.Speeds[axis])
		}
	}

	return p
}

// Moving reports whether axis travels at all.
func (p Plan) Moving(axis orientation.Axis) bool {
	return p.Delta[axis] != 0 && p.Budget[axis] != 0
}

// Frames returns the number of frames the slowest axis needs, counting
// the frame that lands on the target.
func (p Plan) Frames() int {
	n := 0
	for _, axis := range orientation.Axes {
		if !p.Moving(axis) {
			continue
		}
		if f := int(math.Ceil(p.Budget[axis])) + 1; f > n {
			n = f
		}
	}
	return n
}
