// Package journal records spin activity into the database without
// slowing the frame loop down.
//
// Architecture:
//
//	spin.Engine → Recorder (observer) → buffered channels → flushLoop → database.Store
//
// The observer callbacks run on the frame loop and never wait on the
// database: records go into buffered channels that a single goroutine
// drains, committing every FlushInterval or BatchSize records, whichever
// comes first. When a channel is full the record is written directly.
package journal

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/spin"
)

// NewSpinID returns a random spin id.
func NewSpinID() string {
	return uuid.NewString()
}

// Metrics tracks what the recorder has written.
type Metrics struct {
	SpinsRecorded    int64 `json:"spins_recorded"`
	LapsRecorded     int64 `json:"laps_recorded"`
	DirectWrites     int64 `json:"direct_writes"`
	ErrorCount       int64 `json:"error_count"`
	BatchesCommitted int64 `json:"batches_committed"`
	Uptime           int64 `json:"uptime_seconds"`
}

// Config holds the recorder settings.
type Config struct {
	// Selector is stored with every spin and keys the saved orientation.
	Selector      string
	BatchSize     int
	FlushInterval time.Duration
}

// Recorder implements spin.Observer on top of a database.Store.
type Recorder struct {
	config  Config
	store   database.Store
	metrics Metrics

	spinChan chan *database.SpinRecord
	lapChan  chan *database.LapRecord

	mu      sync.RWMutex
	closed  bool
	last    *database.SavedOrientation
	lastMu  sync.Mutex
	wg      sync.WaitGroup
	started time.Time
	cancel  context.CancelFunc
}

// NewRecorder creates a recorder. Call Start before the first spin.
func NewRecorder(config Config, store database.Store) *Recorder {
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 500 * time.Millisecond
	}
	return &Recorder{
		config:   config,
		store:    store,
		spinChan: make(chan *database.SpinRecord, config.BatchSize*2),
		lapChan:  make(chan *database.LapRecord, config.BatchSize*4),
	}
}

// Start launches the flush goroutine.
func (r *Recorder) Start(ctx context.Context) error {
	r.started = time.Now()
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.flushLoop(ctx)

	log.Printf("[INFO] Journal recording %s (batch %d, every %s)", r.config.Selector, r.config.BatchSize, r.config.FlushInterval)
	return nil
}

// Stop flushes everything buffered and waits for the flush goroutine.
// Events arriving afterwards are dropped.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.spinChan)
	close(r.lapChan)
	r.mu.Unlock()

	r.wg.Wait()
	if r.cancel != nil {
		r.cancel()
	}
	// The flush loop may have left on ctx before the channels closed.
	r.write(drain(r.spinChan), drain(r.lapChan))
	r.saveOrientation()
	return nil
}

// Metrics returns a snapshot of the recorder metrics.
func (r *Recorder) Metrics() Metrics {
	var uptime int64
	if !r.started.IsZero() {
		uptime = int64(time.Since(r.started).Seconds())
	}
	return Metrics{
		SpinsRecorded:    atomic.LoadInt64(&r.metrics.SpinsRecorded),
		LapsRecorded:     atomic.LoadInt64(&r.metrics.LapsRecorded),
		DirectWrites:     atomic.LoadInt64(&r.metrics.DirectWrites),
		ErrorCount:       atomic.LoadInt64(&r.metrics.ErrorCount),
		BatchesCommitted: atomic.LoadInt64(&r.metrics.BatchesCommitted),
		Uptime:           uptime,
	}
}

// ============================================================
// spin.Observer
// ============================================================

// SpinStarted implements spin.Observer.
func (r *Recorder) SpinStarted(info spin.Info) {
	r.sendSpin(r.spinRecord(info, spin.StatusRunning, nil))
}

// LapCompleted implements spin.Observer.
func (r *Recorder) LapCompleted(lap spin.Lap) {
	rec := &database.LapRecord{
		SpinID:     lap.SpinID,
		Axis:       lap.Axis.String(),
		Lap:        lap.Number,
		StartDeg:   lap.Start,
		EndDeg:     lap.End,
		RecordedAt: time.Now().UnixNano(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.lapChan <- rec:
	default:
		// Channel full: write directly rather than drop the lap
		atomic.AddInt64(&r.metrics.DirectWrites, 1)
		if err := r.store.BatchInsertLaps([]*database.LapRecord{rec}); err != nil {
			log.Printf("[ERROR] Direct lap insert: %v", err)
			atomic.AddInt64(&r.metrics.ErrorCount, 1)
			return
		}
	}
	atomic.AddInt64(&r.metrics.LapsRecorded, 1)
}

// SpinFinished implements spin.Observer.
func (r *Recorder) SpinFinished(info spin.Info, status spin.Status, final orientation.Angles) {
	r.sendSpin(r.spinRecord(info, status, &final))

	r.lastMu.Lock()
	r.last = &database.SavedOrientation{
		Selector:  r.config.Selector,
		Angles:    final.Normalized(),
		UpdatedAt: time.Now().UnixNano(),
	}
	r.lastMu.Unlock()
}

func (r *Recorder) spinRecord(info spin.Info, status spin.Status, final *orientation.Angles) *database.SpinRecord {
	var budget float64
	for _, b := range info.Plan.Budget {
		if b > budget {
			budget = b
		}
	}
	rec := &database.SpinRecord{
		SpinID:    info.ID,
		Selector:  r.config.Selector,
		Slot:      string(info.Slot),
		Easing:    string(info.Easing),
		Repeat:    info.Repeat,
		Start:     info.Plan.Start,
		Target:    info.Plan.Target,
		Budget:    budget,
		Frames:    info.Plan.Frames(),
		Status:    string(status),
		StartedAt: time.Now().UnixNano(),
	}
	if final != nil {
		now := time.Now().UnixNano()
		f := [3]float64(*final)
		rec.FinishedAt = &now
		rec.Final = &f
	}
	return rec
}

func (r *Recorder) sendSpin(rec *database.SpinRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.spinChan <- rec:
	default:
		atomic.AddInt64(&r.metrics.DirectWrites, 1)
		if err := r.store.InsertSpin(rec); err != nil {
			log.Printf("[ERROR] Direct spin insert: %v", err)
			atomic.AddInt64(&r.metrics.ErrorCount, 1)
			return
		}
	}
	if rec.FinishedAt == nil {
		atomic.AddInt64(&r.metrics.SpinsRecorded, 1)
	}
}

// ============================================================
// Flushing
// ============================================================

// flushLoop drains both channels into batches. It returns once both
// channels are closed and drained, or when ctx ends.
func (r *Recorder) flushLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	spinBuf := make([]*database.SpinRecord, 0, r.config.BatchSize)
	lapBuf := make([]*database.LapRecord, 0, r.config.BatchSize)

	flush := func() {
		r.write(spinBuf, lapBuf)
		spinBuf = spinBuf[:0]
		lapBuf = lapBuf[:0]
	}

	spins, laps := r.spinChan, r.lapChan
	for spins != nil || laps != nil {
		select {
		case <-ctx.Done():
			spinBuf = append(spinBuf, drain(spins)...)
			lapBuf = append(lapBuf, drain(laps)...)
			flush()
			return

		case rec, ok := <-spins:
			if !ok {
				spins = nil
				continue
			}
			spinBuf = append(spinBuf, rec)
			if len(spinBuf) >= r.config.BatchSize {
				flush()
			}

		case rec, ok := <-laps:
			if !ok {
				laps = nil
				continue
			}
			lapBuf = append(lapBuf, rec)
			if len(lapBuf) >= r.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
			r.saveOrientation()
		}
	}
	flush()
}

// write commits one batch of spins and one of laps.
func (r *Recorder) write(spins []*database.SpinRecord, laps []*database.LapRecord) {
	if len(spins) > 0 {
		if err := r.store.BatchInsertSpins(spins); err != nil {
			log.Printf("[ERROR] Flushing spin batch: %v", err)
			atomic.AddInt64(&r.metrics.ErrorCount, 1)
		} else {
			atomic.AddInt64(&r.metrics.BatchesCommitted, 1)
		}
	}
	if len(laps) > 0 {
		if err := r.store.BatchInsertLaps(laps); err != nil {
			log.Printf("[ERROR] Flushing lap batch: %v", err)
			atomic.AddInt64(&r.metrics.ErrorCount, 1)
		} else {
			atomic.AddInt64(&r.metrics.BatchesCommitted, 1)
		}
	}
}

// drain takes whatever is buffered in ch without blocking.
func drain[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func (r *Recorder) saveOrientation() {
	r.lastMu.Lock()
	last := r.last
	r.last = nil
	r.lastMu.Unlock()

	if last == nil || last.Selector == "" {
		return
	}
	if err := r.store.SaveOrientation(last); err != nil {
		log.Printf("[ERROR] Saving orientation: %v", err)
		atomic.AddInt64(&r.metrics.ErrorCount, 1)
	}
}
