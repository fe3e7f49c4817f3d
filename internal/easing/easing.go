// Package easing provides the interpolation curves used by spins.
//
// Every curve takes the current iteration t, the start value, the change
// in value and the total number of iterations, and returns the value at t.
// All curves return start at t=0 and start+change at t=total.
package easing

import "math"

// Kind names an easing curve.
type Kind string

const (
	Linear Kind = "linear"
	Out    Kind = "out"
	InOut  Kind = "inOut"
)

// Func interpolates between start and start+change over total iterations.
type Func func(t, start, change, total float64) float64

// LinearFunc advances at a constant rate.
func LinearFunc(t, start, change, total float64) float64 {
	return change*t/total + start
}

// OutFunc is a circular ease-out: fast start, slow settle.
func OutFunc(t, start, change, total float64) float64 {
	t = t/total - 1
	return change*math.Sqrt(1-t*t) + start
}

// InOutFunc is a cosine ease-in-out: slow, fast, slow.
func InOutFunc(t, start, change, total float64) float64 {
	return change/2*(1-math.Cos(math.Pi*t/total)) + start
}

// Lookup returns the curve for k. Unknown kinds fall back to Linear.
func Lookup(k Kind) Func {
	switch k {
	case Out:
		return OutFunc
	case InOut:
		return InOutFunc
	default:
		return LinearFunc
	}
}

// Parse accepts "linear", "out" and "inOut".
func Parse(s string) (Kind, bool) {
	switch Kind(s) {
	case Linear, Out, InOut:
		return Kind(s), true
	}
	return "", false
}

// Kinds lists the available curves.
func Kinds() []Kind {
	return []Kind{Linear, Out, InOut}
}
