// Package orientation holds the cube's per-axis angles, the named sides,
// the continuous-rotation session and the snapshot used by focus
// transitions.
//
// Angles are degrees. A stored angle may leave [0,360) while a lap is in
// flight or when a target was shifted by a full turn to take the shorter
// path; Normalized gives the display value.
package orientation

import (
	"math"
	"sort"
)

// Axis identifies one of the three rotation dimensions.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists every axis in iteration order.
var Axes = [3]Axis{X, Y, Z}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return "?"
	}
}

// Angles is one angle per axis, indexed by Axis.
type Angles [3]float64

// Normalized maps every angle into [0,360).
func (a Angles) Normalized() Angles {
	var out Angles
	for _, axis := range Axes {
		v := math.Mod(a[axis], 360)
		if v < 0 {
			v += 360
		}
		// -0 and 360 after rounding both read as 0
		if v == 0 || v == 360 {
			v = 0
		}
		out[axis] = v
	}
	return out
}

// Coerced replaces NaN and infinities with zero.
func (a Angles) Coerced() Angles {
	for _, axis := range Axes {
		a[axis] = Coerce(a[axis])
	}
	return a
}

// Coerce returns v, or zero when v is NaN or infinite.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Direction is the continuous rotation direction.
type Direction string

const (
	// Left decreases angles.
	Left Direction = "left"
	// Right increases angles.
	Right Direction = "right"
)

// Sign returns -1 for Left and +1 otherwise.
func (d Direction) Sign() float64 {
	if d == Left {
		return -1
	}
	return 1
}

// ParseDirection accepts "left" and "right".
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Left:
		return Left, true
	case Right:
		return Right, true
	}
	return "", false
}

// ────────────────────────────────────────────────────────────
// Named sides
// ────────────────────────────────────────────────────────────

var sides = map[string]Angles{
	"side-1": {0, 90, 0},
	"side-2": {90, 0, 0},
	"side-3": {0, 0, 0},
	"side-4": {270, 0, 0},
	"side-5": {0, 270, 0},
	"side-6": {0, 180, 0},
}

// Side returns the fixed orientation for a named side. op names the
// calling operation for the error message.
func Side(name, op string) (Angles, error) {
	a, ok := sides[name]
	if !ok {
		return Angles{}, &InvalidSideError{Side: name, Op: op}
	}
	return a, nil
}

// SideNames returns the recognized side names in order.
func SideNames() []string {
	names := make([]string, 0, len(sides))
	for name := range sides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
