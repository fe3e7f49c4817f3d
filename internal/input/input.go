// Package input carries pointer and touch events from a host to the cube.
package input

import "sync"

// Kind is the event type.
type Kind int

const (
	PointerEnter Kind = iota
	PointerLeave
	TouchStart
)

func (k Kind) String() string {
	switch k {
	case PointerEnter:
		return "pointerenter"
	case PointerLeave:
		return "pointerleave"
	case TouchStart:
		return "touchstart"
	}
	return "unknown"
}

// Event is one input event. Inside is set for TouchStart when the touch
// landed on the target or one of its descendants.
type Event struct {
	Kind   Kind
	Inside bool
}

// Bridge fans events out to subscribers in subscription order.
type Bridge struct {
	touch bool

	mu   sync.RWMutex
	subs []func(Event)
}

// NewBridge returns a bridge for a host that is (or is not) touch-capable.
func NewBridge(touch bool) *Bridge {
	return &Bridge{touch: touch}
}

// Touch reports whether the host uses touch instead of a pointer.
func (b *Bridge) Touch() bool { return b.touch }

// Subscribe registers fn for every dispatched event.
func (b *Bridge) Subscribe(fn func(Event)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Dispatch delivers ev to all subscribers on the caller's goroutine.
func (b *Bridge) Dispatch(ev Event) {
	b.mu.RLock()
	subs := append([]func(Event){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
