package cube

import (
	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/input"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/spin"
)

// FocusOptions configures what happens when the pointer (or a touch)
// lands on the cube.
type FocusOptions struct {
	// BounceBack spins back to the pre-focus orientation on defocus.
	BounceBack bool
	// SpinTo names the side to show. It takes precedence over Target.
	SpinTo string
	// Target is the orientation to show when SpinTo is empty. Nil means
	// (0,0,0).
	Target *orientation.Angles
	// Speed paces both transitions, in ms for a full turn. Zero means
	// DefaultFocusSpeed.
	Speed float64
}

// FocusOn binds focus transitions to the cube's input bridge. The side
// is checked now, so a bad name fails here instead of on the first event.
// Calling it again replaces the binding.
func (c *Cube) FocusOn(o FocusOptions) (bool, error) {
	var to orientation.Angles
	if o.SpinTo != "" {
		a, err := orientation.Side(o.SpinTo, "focus on")
		if err != nil {
			return false, err
		}
		to = a
	} else if o.Target != nil {
		to = o.Target.Coerced()
	}
	if o.Speed <= 0 {
		o.Speed = DefaultFocusSpeed
	}

	c.focus = &o
	c.focusTo = to
	if c.bridge != nil && !c.subscribed {
		c.bridge.Subscribe(c.handle)
		c.subscribed = true
	}
	return true, nil
}

func (c *Cube) handle(ev input.Event) {
	if c.focus == nil {
		return
	}
	touch := c.bridge != nil && c.bridge.Touch()

	switch ev.Kind {
	case input.PointerEnter:
		if !touch {
			c.Focus()
		}
	case input.PointerLeave:
		c.Defocus()
	case input.TouchStart:
		if !touch {
			return
		}
		if ev.Inside {
			c.Focus()
		} else {
			c.Defocus()
		}
	}
}

// Focus starts the focus transition. It does nothing while already
// focused or before FocusOn.
func (c *Cube) Focus() {
	if c.focus == nil || c.focused {
		return
	}
	c.engine.Cancel(frame.SlotRotate)
	if c.focus.BounceBack {
		c.engine.Cancel(frame.SlotDeFocus)
	}
	c.store.TakeSnapshot()
	c.engaged = true

	c.engine.Start(spin.Request{
		Target: c.focusTo,
		Speed:  c.focus.Speed,
		Easing: easing.Out,
		Slot:   frame.SlotSpinTo,
		OnComplete: func() {
			c.target.AddClass(FocusedClass)
			c.focused = true
		},
	})
}

// Defocus leaves the focused state. With BounceBack it spins back to the
// snapshot first; either way a fixed rotation session resumes from where
// the cube ends up.
func (c *Cube) Defocus() {
	if c.focus == nil || !c.engaged {
		return
	}
	c.engaged = false
	c.engine.Cancel(frame.SlotSpinTo)
	c.engine.Cancel(frame.SlotRotate)

	c.target.RemoveClass(FocusedClass)
	c.focused = false

	if !c.focus.BounceBack {
		c.Resume()
		return
	}

	c.engine.Start(spin.Request{
		Target: c.store.Snapshot(),
		Speed:  c.focus.Speed,
		Easing: easing.Out,
		Slot:   frame.SlotDeFocus,
		OnComplete: func() {
			// the path may have ended a full turn away
			c.store.RestoreSnapshot()
			c.render()
			c.Resume()
		},
	})
}

// Resume restarts a fixed rotation session from the live angles. Without
// a session it only leaves Transitioning.
func (c *Cube) Resume() {
	c.store.EndTransition()
	if _, ok := c.store.Session(); !ok {
		return
	}
	// cannot fail: the session exists and no side is named
	c.Rotate(RotateOptions{})
}
