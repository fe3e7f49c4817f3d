// Package frame implements the single-threaded frame loop that drives
// every animation.
//
// Callbacks are registered under a named Slot. A slot holds at most one
// pending callback: scheduling on a slot replaces whatever was pending
// there, and cancelling a slot drops it so its continuation never runs.
// A callback that wants another frame schedules itself again.
//
// Tick runs the callbacks that were pending when it started, each to
// completion, in the order they were scheduled. Other goroutines never
// call Schedule or Cancel; they hand work to the loop with Post.
package frame

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Rate is the assumed host callback rate in frames per second.
const Rate = 60

// Interval is the time between two frames at Rate.
const Interval = time.Second / Rate

// Slot names a timer. Each running spin owns one slot.
type Slot string

const (
	SlotRotate  Slot = "rotate"
	SlotSpinTo  Slot = "spinTo"
	SlotDeFocus Slot = "deFocus"
)

// Scheduler registers per-frame callbacks.
type Scheduler interface {
	// Schedule registers fn for the next frame under slot, replacing any
	// callback already pending there.
	Schedule(slot Slot, fn func())
	// Cancel drops the callback pending under slot, if any.
	Cancel(slot Slot)
	// Pending reports whether slot has a callback waiting.
	Pending(slot Slot) bool
}

// Poster accepts work from other goroutines.
type Poster interface {
	Post(fn func())
}

type entry struct {
	token uint64
	fn    func()
}

// Loop is the default Scheduler. The zero value is not usable; call
// NewLoop.
type Loop struct {
	mu      sync.Mutex
	pending map[Slot]entry
	inbox   []func()
	seq     uint64

	frames atomic.Uint64
}

// NewLoop returns an empty loop.
func NewLoop() *Loop {
	return &Loop{pending: make(map[Slot]entry)}
}

// Schedule implements Scheduler.
func (l *Loop) Schedule(slot Slot, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.pending[slot] = entry{token: l.seq, fn: fn}
}

// Cancel implements Scheduler.
func (l *Loop) Cancel(slot Slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, slot)
}

// Pending implements Scheduler.
func (l *Loop) Pending(slot Slot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[slot]
	return ok
}

// PendingCount returns the number of slots with a waiting callback.
func (l *Loop) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Post queues fn to run at the start of the next tick. Safe for
// concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.inbox = append(l.inbox, fn)
	l.mu.Unlock()
}

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Tick runs one frame: posted work first, then every callback that was
// pending when the tick began. A callback cancelled by an earlier one in
// the same tick does not run.
func (l *Loop) Tick() {
	l.mu.Lock()
	inbox := l.inbox
	l.inbox = nil
	l.mu.Unlock()

	for _, fn := range inbox {
		fn()
	}

	l.mu.Lock()
	type due struct {
		slot Slot
		entry
	}
	batch := make([]due, 0, len(l.pending))
	for slot, e := range l.pending {
		batch = append(batch, due{slot: slot, entry: e})
	}
	l.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].token < batch[j].token })

	for _, d := range batch {
		l.mu.Lock()
		cur, ok := l.pending[d.slot]
		if !ok || cur.token != d.token {
			l.mu.Unlock()
			continue
		}
		delete(l.pending, d.slot)
		l.mu.Unlock()

		d.fn()
	}

	l.frames.Add(1)
}

// Step runs n ticks.
func (l *Loop) Step(n int) {
	for i := 0; i < n; i++ {
		l.Tick()
	}
}

// Run ticks every interval until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}
