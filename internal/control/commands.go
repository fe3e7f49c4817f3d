package control

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/spin"
)

// Target is the cube surface commands act on. *cube.Cube implements it.
type Target interface {
	cube.Animator
	Focus()
	Defocus()
	Resume()
	Selector() string
	Orientation() orientation.Angles
	Mode() orientation.Mode
	Focused() bool
}

// ErrNotApplied is returned when the cube accepted a command without
// acting on it.
var ErrNotApplied = errors.New("command not applied")

// op runs on the frame loop.
type op func(t Target) error

func checked(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApplied
	}
	return nil
}

// decode validates a payload and turns it into an op. Decoding happens
// off the frame loop so a bad payload never reaches it.
func decode(t MessageType, payload []byte) (op, error) {
	switch t {
	case MsgApply:
		var cmd ApplyCommand
		if err := unmarshal(payload, &cmd); err != nil {
			return nil, err
		}
		r := cube.Rotation{Side: cmd.Side}
		if cmd.Angles != nil {
			a := cmd.Angles.Angles()
			r.Angles = &a
		}
		return func(tg Target) error { return checked(tg.ApplyRotation(r)) }, nil

	case MsgRotate:
		var cmd RotateCommand
		if err := unmarshal(payload, &cmd); err != nil {
			return nil, err
		}
		opts := cube.RotateOptions{StartSide: cmd.StartSide}
		if cmd.Start != nil {
			a := cmd.Start.Angles()
			opts.Start = &a
		}
		if cmd.Direction != "" {
			d, ok := orientation.ParseDirection(cmd.Direction)
			if !ok {
				return nil, fmt.Errorf("unknown direction %q", cmd.Direction)
			}
			opts.Direction = d
		}
		if len(cmd.Speeds) > 0 {
			opts.Speeds = make(map[orientation.Axis]float64, len(cmd.Speeds))
			for name, v := range cmd.Speeds {
				axis, ok := parseAxis(name)
				if !ok {
					return nil, fmt.Errorf("unknown axis %q", name)
				}
				opts.Speeds[axis] = float64(v)
			}
		}
		return func(tg Target) error { return checked(tg.Rotate(opts)) }, nil

	case MsgFocus:
		var cmd FocusCommand
		if err := unmarshal(payload, &cmd); err != nil {
			return nil, err
		}
		opts := cube.FocusOptions{
			BounceBack: cmd.BounceBack,
			SpinTo:     cmd.SpinTo,
			Speed:      float64(cmd.Speed),
		}
		if cmd.Target != nil {
			a := cmd.Target.Angles()
			opts.Target = &a
		}
		return func(tg Target) error {
			if err := checked(tg.FocusOn(opts)); err != nil {
				return err
			}
			tg.Focus()
			return nil
		}, nil

	case MsgDefocus:
		return func(tg Target) error {
			tg.Defocus()
			return nil
		}, nil

	case MsgSpin:
		var cmd SpinCommand
		if err := unmarshal(payload, &cmd); err != nil {
			return nil, err
		}
		req := spin.Request{
			Target: cmd.Target.Angles(),
			Speed:  float64(cmd.Speed),
		}
		if cmd.Speeds != nil {
			req.Speeds = [3]float64(cmd.Speeds.Angles())
		}
		if req.Speed == 0 && cmd.Speeds == nil {
			req.Speed = cube.DefaultFocusSpeed
		}
		if cmd.Easing != "" {
			k, ok := easing.Parse(cmd.Easing)
			if !ok {
				return nil, fmt.Errorf("unknown easing %q", cmd.Easing)
			}
			req.Easing = k
		}
		return func(tg Target) error {
			if cmd.Resume {
				req.OnComplete = tg.Resume
			}
			return checked(tg.SpinTo(req))
		}, nil
	}
	return nil, fmt.Errorf("unknown message type %s", t)
}

func unmarshal(payload []byte, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}
	return nil
}

func parseAxis(name string) (orientation.Axis, bool) {
	for _, axis := range orientation.Axes {
		if axis.String() == name {
			return axis, true
		}
	}
	return 0, false
}
