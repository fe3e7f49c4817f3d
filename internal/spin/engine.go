package spin

import (
	"fmt"
	"math"

	"github.com/Mr-Dark-debug/cubespin/internal/easing"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
)

// Status is how a spin ended.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Info describes a spin for observers.
type Info struct {
	ID     string
	Slot   frame.Slot
	Easing easing.Kind
	Repeat bool
	Plan   Plan
}

// Lap is one completed lap of a repeating spin on one axis. End is the
// angle reached before the axis was reset to Start.
type Lap struct {
	SpinID string
	Axis   orientation.Axis
	Number int
	Start  float64
	End    float64
}

// Observer receives spin lifecycle events on the frame loop.
type Observer interface {
	SpinStarted(info Info)
	LapCompleted(lap Lap)
	SpinFinished(info Info, status Status, final orientation.Angles)
}

// Engine runs spins against one orientation store. At most one spin runs
// per slot; starting another on the same slot cancels the first.
type Engine struct {
	store    *orientation.Store
	sched    frame.Scheduler
	render   func()
	observer Observer
	newID    func() string

	active map[frame.Slot]*Spin
	seq    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports spin events to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithIDs sets the spin id generator.
func WithIDs(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine returns an engine that writes to store, schedules on sched
// and calls render after every frame.
func NewEngine(store *orientation.Store, sched frame.Scheduler, render func(), opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		sched:  sched,
		render: render,
		active: make(map[frame.Slot]*Spin),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.newID == nil {
		e.newID = func() string {
			e.seq++
			return fmt.Sprintf("spin-%d", e.seq)
		}
	}
	return e
}

// Start cancels whatever runs on req.Slot, plans req from the current
// angles, runs the first frame immediately and schedules the rest.
// One-shot spins put the store in Transitioning until they finish.
func (e *Engine) Start(req Request) *Spin {
	if req.Slot == "" {
		req.Slot = frame.SlotSpinTo
	}
	if req.Easing == "" {
		req.Easing = easing.Linear
	}
	e.Cancel(req.Slot)

	if !req.Repeat {
		e.store.BeginTransition()
	}

	s := &Spin{
		engine: e,
		req:    req,
		ease:   easing.Lookup(req.Easing),
		plan:   NewPlan(e.store.Angles(), req),
		status: StatusRunning,
	}
	s.info = Info{
		ID:     e.newID(),
		Slot:   req.Slot,
		Easing: req.Easing,
		Repeat: req.Repeat,
		Plan:   s.plan,
	}

	e.active[req.Slot] = s
	if e.observer != nil {
		e.observer.SpinStarted(s.info)
	}

	s.step()
	return s
}

// Cancel stops the spin on slot so its next frame never runs.
func (e *Engine) Cancel(slot frame.Slot) {
	e.sched.Cancel(slot)
	s, ok := e.active[slot]
	if !ok {
		return
	}
	delete(e.active, slot)
	s.status = StatusCancelled
	if e.observer != nil {
		e.observer.SpinFinished(s.info, StatusCancelled, e.store.Angles())
	}
}

// Active returns the spin running on slot, if any.
func (e *Engine) Active(slot frame.Slot) (*Spin, bool) {
	s, ok := e.active[slot]
	return s, ok
}

// Spin is the frame state of one running spin. It is discarded when the
// spin ends.
type Spin struct {
	engine *Engine
	req    Request
	ease   easing.Func
	plan   Plan
	info   Info
	status Status

	iter [3]int
	done [3]bool
	laps [3]int
}

// ID returns the spin id.
func (s *Spin) ID() string { return s.info.ID }

// Plan returns the resolved plan.
func (s *Spin) Plan() Plan { return s.plan }

// Status returns the current status.
func (s *Spin) Status() Status { return s.status }

// Iteration returns the iteration counter of axis.
func (s *Spin) Iteration(axis orientation.Axis) int { return s.iter[axis] }

func (s *Spin) step() {
	if s.status != StatusRunning {
		return
	}
	e := s.engine

	for _, axis := range orientation.Axes {
		if !s.plan.Moving(axis) {
			s.done[axis] = true
			continue
		}

		start := s.plan.Start[axis]
		delta := s.plan.Delta[axis]
		budget := s.plan.Budget[axis]
		t := math.Min(float64(s.iter[axis]), budget)
		eased := s.ease(t, 0, delta, budget)

		limit := s.plan.Target[axis]
		var deg float64
		var short bool
		if s.plan.Dir[axis] == orientation.Right {
			deg = start + eased
			short = deg < limit
		} else {
			deg = start - eased
			short = deg > limit
		}

		if short && float64(s.iter[axis]) < budget {
			s.iter[axis]++
		} else {
			deg = limit
			s.done[axis] = true
		}
		e.store.SetAxis(axis, deg)
	}

	if e.render != nil {
		e.render()
	}

	if s.req.Repeat {
		for _, axis := range orientation.Axes {
			if !s.done[axis] {
				continue
			}
			if s.plan.Moving(axis) {
				s.laps[axis]++
				if e.observer != nil {
					e.observer.LapCompleted(Lap{
						SpinID: s.info.ID,
						Axis:   axis,
						Number: s.laps[axis],
						Start:  s.plan.Start[axis],
						End:    e.store.Angles()[axis],
					})
				}
			}
			e.store.SetAxis(axis, s.plan.Start[axis])
			s.iter[axis] = 0
			s.done[axis] = false
		}
	} else if s.done[orientation.X] && s.done[orientation.Y] && s.done[orientation.Z] {
		s.finish()
		return
	}

	e.sched.Schedule(s.req.Slot, s.step)
}

func (s *Spin) finish() {
	e := s.engine
	s.status = StatusCompleted
	if cur, ok := e.active[s.req.Slot]; ok && cur == s {
		delete(e.active, s.req.Slot)
	}
	e.store.EndTransition()
	if e.observer != nil {
		e.observer.SpinFinished(s.info, StatusCompleted, e.store.Angles())
	}
	if s.req.OnComplete != nil {
		s.req.OnComplete()
	}
}
