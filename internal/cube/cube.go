// Package cube is the public face of the animator. A Cube binds one
// target element to an orientation store and a spin engine, and
// coordinates continuous rotation with focus transitions.
//
// All methods must be called on the frame loop goroutine. Hosts running
// elsewhere hand work over with frame.Poster.
package cube

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/Mr-Dark-debug/cubespin/internal/capability"
	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/input"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/render"
	"github.com/Mr-Dark-debug/cubespin/internal/spin"
)

const (
	// DefaultSelector is used when New gets an empty selector.
	DefaultSelector = "#the-cube"
	// FocusedClass marks the target once a focus transition completed.
	FocusedClass = "focused"

	// DefaultRotateSpeed is the time in ms for a full turn when Rotate
	// leaves an axis unspecified.
	DefaultRotateSpeed = 360
	// DefaultFocusSpeed is the time in ms a focus transition is paced by.
	DefaultFocusSpeed = 2000
)

// Config holds construction options.
type Config struct {
	// Perspective is the viewer distance in pixels. Zero means 1100.
	Perspective float64
}

// Animator is the operation set of a cube. A host without 3-D support
// gets Disabled, whose operations all report false.
type Animator interface {
	ApplyRotation(r Rotation) (bool, error)
	Rotate(o RotateOptions) (bool, error)
	FocusOn(o FocusOptions) (bool, error)
	SpinTo(req spin.Request) (bool, error)
}

// Rotation is an immediate orientation: a named side, or explicit angles.
// With neither set, ApplyRotation only re-renders.
type Rotation struct {
	Side   string
	Angles *orientation.Angles
}

// RotateOptions configures continuous rotation. Speeds and Direction are
// fixed by the first Rotate; later calls only change the direction.
type RotateOptions struct {
	StartSide string
	Start     *orientation.Angles
	// Speeds is the time in ms for a full turn per axis. A missing axis
	// gets DefaultRotateSpeed; an explicit 0 keeps the axis still.
	Speeds    map[orientation.Axis]float64
	Direction orientation.Direction
}

type options struct {
	sched    frame.Scheduler
	resolver render.Resolver
	probe    capability.Probe
	bridge   *input.Bridge
	store    *orientation.Store
	engine   []spin.Option
}

// Option configures Open and New.
type Option func(*options)

// WithScheduler sets the frame scheduler.
func WithScheduler(s frame.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithResolver sets where the selector is looked up.
func WithResolver(r render.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithProbe overrides the capability probe. The default probes stdout.
func WithProbe(p capability.Probe) Option {
	return func(o *options) { o.probe = p }
}

// WithBridge sets the input bridge focus transitions listen on.
func WithBridge(b *input.Bridge) Option {
	return func(o *options) { o.bridge = b }
}

// WithStore shares an existing orientation store.
func WithStore(s *orientation.Store) Option {
	return func(o *options) { o.store = s }
}

// WithObserver reports spin events to obs.
func WithObserver(obs spin.Observer) Option {
	return func(o *options) { o.engine = append(o.engine, spin.WithObserver(obs)) }
}

// WithIDs sets the spin id generator.
func WithIDs(fn func() string) Option {
	return func(o *options) { o.engine = append(o.engine, spin.WithIDs(fn)) }
}

// Cube animates one target element.
type Cube struct {
	selector string
	cfg      Config
	target   render.Target
	bridge   *input.Bridge
	store    *orientation.Store
	engine   *spin.Engine

	focus      *FocusOptions
	focusTo    orientation.Angles
	subscribed bool
	engaged    bool
	focused    bool
}

// Open builds a cube for selector. It fails with ErrUnavailable when the
// probe rejects the host and with *MissingTargetError when nothing
// matches the selector.
func Open(selector string, cfg Config, opts ...Option) (*Cube, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if selector == "" {
		selector = DefaultSelector
	}
	if cfg.Perspective <= 0 {
		cfg.Perspective = render.DefaultPerspective
	}
	if o.probe == nil {
		o.probe = capability.Terminal{Fd: os.Stdout.Fd(), Scheduler: o.sched}
	}
	if o.sched == nil || !capability.Available(o.probe) {
		return nil, ErrUnavailable
	}
	if o.resolver == nil {
		return nil, &MissingTargetError{Selector: selector}
	}
	target, ok := o.resolver.Resolve(selector)
	if !ok {
		return nil, &MissingTargetError{Selector: selector}
	}
	if o.store == nil {
		o.store = orientation.NewStore()
	}

	c := &Cube{
		selector: selector,
		cfg:      cfg,
		target:   target,
		bridge:   o.bridge,
		store:    o.store,
	}
	c.engine = spin.NewEngine(c.store, o.sched, c.render, o.engine...)
	return c, nil
}

// New is Open with degradation: any failure is logged and yields
// Disabled.
func New(selector string, cfg Config, opts ...Option) Animator {
	c, err := Open(selector, cfg, opts...)
	if err != nil {
		log.Printf("[WARN] cube %s disabled: %v", selector, err)
		return Disabled{}
	}
	return c
}

// Selector returns the selector the cube was opened with.
func (c *Cube) Selector() string { return c.selector }

// Orientation returns the logical angles.
func (c *Cube) Orientation() orientation.Angles { return c.store.Angles() }

// Mode returns the animation mode.
func (c *Cube) Mode() orientation.Mode { return c.store.Mode() }

// Focused reports whether a focus transition has completed and not been
// left yet.
func (c *Cube) Focused() bool { return c.focused }

// Store exposes the orientation store.
func (c *Cube) Store() *orientation.Store { return c.store }

// Transform returns what the next render would apply.
func (c *Cube) Transform() render.Transform {
	return render.Transform{Perspective: c.cfg.Perspective, Angles: c.store.Angles()}
}

func (c *Cube) render() {
	c.target.ApplyTransform(c.Transform())
}

// ApplyRotation sets the orientation immediately and renders it.
func (c *Cube) ApplyRotation(r Rotation) (bool, error) {
	switch {
	case r.Side != "":
		a, err := orientation.Side(r.Side, "apply rotation")
		if err != nil {
			return false, err
		}
		c.store.SetAngles(a)
	case r.Angles != nil:
		c.store.SetAngles(r.Angles.Coerced())
	}
	c.render()
	return true, nil
}

// Rotate starts continuous rotation. The first call fixes the session;
// later calls resume it from the live angles unless a start is given.
// Pending one-shot spins are cancelled.
func (c *Cube) Rotate(o RotateOptions) (bool, error) {
	var start *orientation.Angles
	if o.StartSide != "" {
		a, err := orientation.Side(o.StartSide, "rotate")
		if err != nil {
			return false, err
		}
		start = &a
	} else if o.Start != nil {
		a := o.Start.Coerced()
		start = &a
	}

	c.engine.Cancel(frame.SlotSpinTo)
	c.engine.Cancel(frame.SlotDeFocus)

	if start != nil {
		c.store.SetAngles(*start)
	}
	if !c.store.FixSession(orientation.Session{Speeds: rotateSpeeds(o.Speeds), Direction: o.Direction}) {
		c.store.SetDirection(o.Direction)
	}
	if err := c.store.BeginRotation(); err != nil {
		return false, fmt.Errorf("rotate: %w", err)
	}

	sess, _ := c.store.Session()
	from := c.store.Angles()
	var to orientation.Angles
	for _, axis := range orientation.Axes {
		to[axis] = from[axis] + 360*sess.Direction.Sign()
	}

	c.engine.Start(spin.Request{
		Target: to,
		Speeds: sess.Speeds,
		Easing: easing.Linear,
		Repeat: true,
		Slot:   frame.SlotRotate,
	})
	return true, nil
}

func rotateSpeeds(in map[orientation.Axis]float64) [3]float64 {
	var out [3]float64
	for _, axis := range orientation.Axes {
		v, ok := in[axis]
		if !ok {
			out[axis] = DefaultRotateSpeed
			continue
		}
		out[axis] = math.Max(orientation.Coerce(v), 0)
	}
	return out
}

// SpinTo runs a one-shot spin from the live angles. It interrupts
// continuous rotation, which the caller may resume from req.OnComplete.
func (c *Cube) SpinTo(req spin.Request) (bool, error) {
	if req.Repeat {
		return false, fmt.Errorf("spin to: repeating spins are started with Rotate")
	}
	if req.Slot == "" {
		req.Slot = frame.SlotSpinTo
	}
	req.Target = req.Target.Coerced()

	c.engine.Cancel(frame.SlotRotate)
	c.engine.Start(req)
	return true, nil
}

// Disabled stands in for a cube on hosts that cannot animate one. Every
// operation reports false and nothing is scheduled.
type Disabled struct{}

func (Disabled) ApplyRotation(Rotation) (bool, error) { return false, nil }
func (Disabled) Rotate(RotateOptions) (bool, error)   { return false, nil }
func (Disabled) FocusOn(FocusOptions) (bool, error)   { return false, nil }
func (Disabled) SpinTo(spin.Request) (bool, error)    { return false, nil }
