package tui

import (
	"fmt"
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/app"
	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/spin"
)

// FrontSide is the side a focus transition shows.
const FrontSide = "side-3"

// SideSpinSpeed paces the number-key spins, in ms per full turn.
const SideSpinSpeed = 1000

// Controller maps keys to cube operations. Both backends share it, and
// it must be called on the goroutine that ticks the loop.
type Controller struct {
	app *app.App

	speeds    map[orientation.Axis]float64
	direction orientation.Direction
	bounce    bool
}

// NewController binds focus transitions with bounce-back on.
func NewController(a *app.App) *Controller {
	c := &Controller{
		app: a,
		speeds: map[orientation.Axis]float64{
			orientation.X: 12000,
			orientation.Y: 8000,
			orientation.Z: 0,
		},
		direction: orientation.Right,
		bounce:    true,
	}
	c.bindFocus()
	return c
}

func (c *Controller) bindFocus() {
	// FrontSide is valid, so this cannot fail.
	c.app.Cube.FocusOn(cube.FocusOptions{BounceBack: c.bounce, SpinTo: FrontSide})
}

// BounceBack reports whether defocus spins back.
func (c *Controller) BounceBack() bool { return c.bounce }

// Direction returns the rotation direction the next rotate uses.
func (c *Controller) Direction() orientation.Direction { return c.direction }

// HandleKey runs the action bound to key and returns a status line.
// quit is set for the quit keys.
func (c *Controller) HandleKey(key string) (status string, quit bool) {
	switch key {
	case "q", "ctrl+c":
		return "", true

	case "1", "2", "3", "4", "5", "6":
		side := "side-" + key
		target, err := orientation.Side(side, "spin to")
		if err != nil {
			return err.Error(), false
		}
		c.app.Cube.SpinTo(spin.Request{
			Target: target,
			Speed:  SideSpinSpeed,
			Easing: easing.InOut,
		})
		return "Spinning to " + side, false

	case "0":
		c.app.Cube.ApplyRotation(cube.Rotation{Side: FrontSide})
		return "Snapped to " + FrontSide, false

	case "r":
		if _, err := c.app.Cube.Rotate(cube.RotateOptions{Speeds: c.speeds, Direction: c.direction}); err != nil {
			return err.Error(), false
		}
		return fmt.Sprintf("Rotating %s", c.direction), false

	case "d":
		if c.direction == orientation.Right {
			c.direction = orientation.Left
		} else {
			c.direction = orientation.Right
		}
		if c.app.Cube.Mode() == orientation.Rotating {
			c.app.Cube.Rotate(cube.RotateOptions{Direction: c.direction})
		}
		return fmt.Sprintf("Direction %s", c.direction), false

	case "f", "enter":
		if c.app.Bridge.Touch() {
			c.app.TouchAt(c.app.FaceID(FrontSide))
			return "Touch on the cube", false
		}
		c.app.PointerEnter()
		return "Pointer entered", false

	case "u", "esc":
		c.app.PointerLeave()
		return "Pointer left", false

	case "t":
		c.app.TouchAt(c.app.Stage.ID)
		return "Touch outside the cube", false

	case "b":
		c.bounce = !c.bounce
		c.bindFocus()
		return "Bounce-back " + onOff(c.bounce), false
	}
	return "", false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// keyHint is one entry of the footer.
type keyHint struct {
	key  string
	desc string
}

var keyHints = []keyHint{
	{"1-6", "side"},
	{"r", "rotate"},
	{"d", "direction"},
	{"f", "focus"},
	{"u", "leave"},
	{"t", "touch out"},
	{"b", "bounce"},
	{"tab", "panel"},
	{"q", "quit"},
}

// plainHints renders keyHints without styling, for the tcell backend.
func plainHints() string {
	parts := make([]string, len(keyHints))
	for i, h := range keyHints {
		parts[i] = h.key + " " + h.desc
	}
	return strings.Join(parts, "  ")
}
