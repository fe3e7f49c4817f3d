package database

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestNewDBService verifies that the database initializes correctly
// with the embedded schema using an in-memory SQLite instance.
func TestNewDBService(t *testing.T) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService(:memory:) failed: %v", err)
	}
	defer svc.Close()
}

func newTestDB(t *testing.T) *DBService {
	t.Helper()
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// TestSpinLifecycle inserts a running spin, finishes it with an upsert
// and checks the stored record.
func TestSpinLifecycle(t *testing.T) {
	svc := newTestDB(t)

	now := time.Now().UnixNano()
	spin := &SpinRecord{
		SpinID:    "spin-001",
		Selector:  "#the-cube",
		Slot:      "spinTo",
		Easing:    "out",
		Start:     [3]float64{0, 60, 0},
		Target:    [3]float64{0, 180, 0},
		Budget:    20,
		Frames:    21,
		Status:    "running",
		StartedAt: now,
	}
	if err := svc.InsertSpin(spin); err != nil {
		t.Fatalf("InsertSpin failed: %v", err)
	}

	finished := now + int64(time.Second)
	spin.Status = "completed"
	spin.FinishedAt = &finished
	spin.Final = &[3]float64{0, 180, 0}
	if err := svc.InsertSpin(spin); err != nil {
		t.Fatalf("InsertSpin (update) failed: %v", err)
	}

	spins, err := svc.QuerySpins(SpinFilter{Limit: 10})
	if err != nil {
		t.Fatalf("QuerySpins failed: %v", err)
	}
	if len(spins) != 1 {
		t.Fatalf("expected 1 spin, got %d", len(spins))
	}
	got := spins[0]
	if got.Status != "completed" {
		t.Errorf("expected status=completed, got %s", got.Status)
	}
	if got.FinishedAt == nil || *got.FinishedAt != finished {
		t.Errorf("unexpected finished_at %v", got.FinishedAt)
	}
	if got.Final == nil || *got.Final != [3]float64{0, 180, 0} {
		t.Errorf("unexpected final angles %v", got.Final)
	}
	if got.Start != spin.Start || got.Target != spin.Target {
		t.Errorf("angles not preserved: %+v", got)
	}
	if got.Repeat {
		t.Error("expected a one-shot spin")
	}
}

// TestUpsertKeepsFinalAngles checks that a later upsert without final
// angles does not erase them.
func TestUpsertKeepsFinalAngles(t *testing.T) {
	svc := newTestDB(t)

	finished := time.Now().UnixNano()
	svc.InsertSpin(&SpinRecord{
		SpinID: "spin-keep", Selector: "#c", Slot: "rotate", Easing: "linear",
		Status: "cancelled", StartedAt: 1, FinishedAt: &finished, Final: &[3]float64{1, 2, 3},
	})
	svc.InsertSpin(&SpinRecord{
		SpinID: "spin-keep", Selector: "#c", Slot: "rotate", Easing: "linear",
		Status: "cancelled", StartedAt: 1,
	})

	spins, _ := svc.QuerySpins(SpinFilter{})
	if len(spins) != 1 || spins[0].Final == nil || *spins[0].Final != [3]float64{1, 2, 3} {
		t.Errorf("final angles lost: %+v", spins)
	}
}

// TestUpsertKeepsTerminalStatus checks that a late running record cannot
// reopen a spin that already finished, on either write path.
func TestUpsertKeepsTerminalStatus(t *testing.T) {
	svc := newTestDB(t)

	finished := time.Now().UnixNano()
	if err := svc.InsertSpin(&SpinRecord{
		SpinID: "spin-done", Selector: "#c", Slot: "spinTo", Easing: "inOut",
		Status: "cancelled", StartedAt: 1, FinishedAt: &finished,
	}); err != nil {
		t.Fatalf("InsertSpin failed: %v", err)
	}
	if err := svc.InsertSpin(&SpinRecord{
		SpinID: "spin-done", Selector: "#c", Slot: "spinTo", Easing: "inOut",
		Status: "running", StartedAt: 1,
	}); err != nil {
		t.Fatalf("InsertSpin failed: %v", err)
	}
	if err := svc.BatchInsertSpins([]*SpinRecord{{
		SpinID: "spin-done", Selector: "#c", Slot: "spinTo", Easing: "inOut",
		Status: "running", StartedAt: 1,
	}}); err != nil {
		t.Fatalf("BatchInsertSpins failed: %v", err)
	}

	spins, err := svc.QuerySpins(SpinFilter{})
	if err != nil {
		t.Fatalf("QuerySpins failed: %v", err)
	}
	if len(spins) != 1 {
		t.Fatalf("expected 1 spin, got %d", len(spins))
	}
	if spins[0].Status != "cancelled" {
		t.Errorf("expected status cancelled, got %s", spins[0].Status)
	}
	if spins[0].FinishedAt == nil || *spins[0].FinishedAt != finished {
		t.Errorf("finished_at lost: %v", spins[0].FinishedAt)
	}

	// A running spin still moves to its terminal status.
	svc.InsertSpin(&SpinRecord{
		SpinID: "spin-live", Selector: "#c", Slot: "rotate", Easing: "linear",
		Status: "running", StartedAt: 2,
	})
	svc.InsertSpin(&SpinRecord{
		SpinID: "spin-live", Selector: "#c", Slot: "rotate", Easing: "linear",
		Status: "completed", StartedAt: 2, FinishedAt: &finished,
	})
	spins, _ = svc.QuerySpins(SpinFilter{})
	for _, sp := range spins {
		if sp.SpinID == "spin-live" && sp.Status != "completed" {
			t.Errorf("spin-live: expected completed, got %s", sp.Status)
		}
	}
}

// TestBatchInsertLaps verifies batch insertion and lap ordering.
func TestBatchInsertLaps(t *testing.T) {
	svc := newTestDB(t)

	now := time.Now().UnixNano()
	if err := svc.InsertSpin(&SpinRecord{
		SpinID: "spin-rot", Selector: "#the-cube", Slot: "rotate", Easing: "linear",
		Repeat: true, Target: [3]float64{360, 360, 360}, Budget: 21.6, Frames: 23,
		Status: "running", StartedAt: now,
	}); err != nil {
		t.Fatalf("InsertSpin failed: %v", err)
	}

	var laps []*LapRecord
	for i := 100; i >= 1; i-- {
		for _, axis := range []string{"y", "x"} {
			laps = append(laps, &LapRecord{
				SpinID: "spin-rot", Axis: axis, Lap: i,
				StartDeg: 0, EndDeg: 360, RecordedAt: now + int64(i),
			})
		}
	}
	if err := svc.BatchInsertLaps(laps); err != nil {
		t.Fatalf("BatchInsertLaps failed: %v", err)
	}

	got, err := svc.QueryLaps("spin-rot")
	if err != nil {
		t.Fatalf("QueryLaps failed: %v", err)
	}
	if len(got) != 200 {
		t.Fatalf("expected 200 laps, got %d", len(got))
	}
	if got[0].Axis != "x" || got[0].Lap != 1 {
		t.Errorf("expected x lap 1 first, got %s lap %d", got[0].Axis, got[0].Lap)
	}
	for i := 1; i < 100; i++ {
		if got[i].Lap != got[i-1].Lap+1 {
			t.Errorf("laps not ordered at %d: %d after %d", i, got[i].Lap, got[i-1].Lap)
		}
	}
}

// TestBatchInsertSpinsAppliesInOrder checks that a start and a finish
// record for the same spin in one batch end up finished.
func TestBatchInsertSpinsAppliesInOrder(t *testing.T) {
	svc := newTestDB(t)

	finished := int64(2000)
	batch := []*SpinRecord{
		{SpinID: "a", Selector: "#c", Slot: "spinTo", Easing: "out", Status: "running", StartedAt: 1000},
		{SpinID: "a", Selector: "#c", Slot: "spinTo", Easing: "out", Status: "completed", StartedAt: 1000, FinishedAt: &finished},
		{SpinID: "b", Selector: "#c", Slot: "deFocus", Easing: "out", Status: "running", StartedAt: 1500},
	}
	if err := svc.BatchInsertSpins(batch); err != nil {
		t.Fatalf("BatchInsertSpins failed: %v", err)
	}

	spins, err := svc.QuerySpins(SpinFilter{})
	if err != nil {
		t.Fatalf("QuerySpins failed: %v", err)
	}
	if len(spins) != 2 {
		t.Fatalf("expected 2 spins, got %d", len(spins))
	}
	if spins[0].SpinID != "b" {
		t.Errorf("expected newest spin first, got %s", spins[0].SpinID)
	}
	if spins[1].Status != "completed" {
		t.Errorf("expected spin a completed, got %s", spins[1].Status)
	}
}

// TestSpinFilter verifies filtering by selector, status and repeat.
func TestSpinFilter(t *testing.T) {
	svc := newTestDB(t)

	for i, sel := range []string{"#one", "#two", "#one"} {
		svc.InsertSpin(&SpinRecord{
			SpinID:    fmt.Sprintf("filter-%d", i),
			Selector:  sel,
			Slot:      "spinTo",
			Easing:    "linear",
			Repeat:    i == 2,
			Status:    "completed",
			StartedAt: int64(i * 1000),
		})
	}

	one := "#one"
	results, err := svc.QuerySpins(SpinFilter{Selector: &one, Limit: 10})
	if err != nil {
		t.Fatalf("QuerySpins with selector failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 spins for #one, got %d", len(results))
	}

	repeat := true
	results, _ = svc.QuerySpins(SpinFilter{Repeat: &repeat})
	if len(results) != 1 || results[0].SpinID != "filter-2" {
		t.Errorf("expected only filter-2 to repeat, got %d results", len(results))
	}

	since := int64(1000)
	results, _ = svc.QuerySpins(SpinFilter{Since: &since})
	if len(results) != 2 {
		t.Errorf("expected 2 spins since 1000, got %d", len(results))
	}

	results, _ = svc.QuerySpins(SpinFilter{Limit: 1, Offset: 1})
	if len(results) != 1 || results[0].SpinID != "filter-1" {
		t.Errorf("expected filter-1 on the second page, got %v", results)
	}
}

// TestOrientationRoundTrip saves and loads the last angles of a cube.
func TestOrientationRoundTrip(t *testing.T) {
	svc := newTestDB(t)

	if _, err := svc.LoadOrientation("#the-cube"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.SaveOrientation(&SavedOrientation{Selector: "#the-cube", Angles: [3]float64{0, 90, 0}}); err != nil {
		t.Fatalf("SaveOrientation failed: %v", err)
	}
	if err := svc.SaveOrientation(&SavedOrientation{Selector: "#the-cube", Angles: [3]float64{270, 0, 0}}); err != nil {
		t.Fatalf("SaveOrientation (update) failed: %v", err)
	}

	o, err := svc.LoadOrientation("#the-cube")
	if err != nil {
		t.Fatalf("LoadOrientation failed: %v", err)
	}
	if o.Angles != [3]float64{270, 0, 0} {
		t.Errorf("expected side-4 angles, got %v", o.Angles)
	}
	if o.UpdatedAt == 0 {
		t.Error("expected updated_at to be set")
	}
}

// TestPendingCommands verifies the command log used for crash recovery.
func TestPendingCommands(t *testing.T) {
	svc := newTestDB(t)

	id1, err := svc.WritePendingCommand("rotate", []byte(`{"speed_y":10000}`))
	if err != nil {
		t.Fatalf("WritePendingCommand failed: %v", err)
	}
	id2, _ := svc.WritePendingCommand("apply", []byte(`{"side":"side-7"}`))

	pending, err := svc.GetPendingCommands()
	if err != nil {
		t.Fatalf("GetPendingCommands failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Kind != "rotate" {
		t.Fatalf("expected 2 pending commands starting with rotate, got %+v", pending)
	}

	if err := svc.CommitCommand(id1, nil); err != nil {
		t.Fatalf("CommitCommand failed: %v", err)
	}
	msg := "unknown side"
	if err := svc.CommitCommand(id2, &msg); err != nil {
		t.Fatalf("CommitCommand (failed) failed: %v", err)
	}

	pending, _ = svc.GetPendingCommands()
	if len(pending) != 0 {
		t.Errorf("expected 0 pending commands after commit, got %d", len(pending))
	}
}

// TestGetSpinStats verifies aggregated statistics computation.
func TestGetSpinStats(t *testing.T) {
	svc := newTestDB(t)

	records := []*SpinRecord{
		{SpinID: "s1", Selector: "#c", Slot: "rotate", Easing: "linear", Repeat: true, Frames: 601, Status: "cancelled", StartedAt: 1},
		{SpinID: "s2", Selector: "#c", Slot: "spinTo", Easing: "out", Frames: 21, Status: "completed", StartedAt: 2},
		{SpinID: "s3", Selector: "#c", Slot: "deFocus", Easing: "out", Frames: 21, Status: "completed", StartedAt: 3},
		{SpinID: "s4", Selector: "#c", Slot: "rotate", Easing: "linear", Repeat: true, Frames: 601, Status: "running", StartedAt: 4},
	}
	if err := svc.BatchInsertSpins(records); err != nil {
		t.Fatalf("BatchInsertSpins failed: %v", err)
	}
	svc.BatchInsertLaps([]*LapRecord{
		{SpinID: "s1", Axis: "y", Lap: 1, EndDeg: 360, RecordedAt: 5},
		{SpinID: "s1", Axis: "y", Lap: 2, EndDeg: 360, RecordedAt: 6},
	})
	svc.WritePendingCommand("focus", []byte(`{}`))

	stats, err := svc.GetSpinStats()
	if err != nil {
		t.Fatalf("GetSpinStats failed: %v", err)
	}

	if stats.TotalSpins != 4 {
		t.Errorf("expected 4 total spins, got %d", stats.TotalSpins)
	}
	if stats.Completed != 2 || stats.Cancelled != 1 || stats.Running != 1 {
		t.Errorf("unexpected status counts: %+v", stats)
	}
	if stats.Repeating != 2 {
		t.Errorf("expected 2 repeating spins, got %d", stats.Repeating)
	}
	if stats.TotalLaps != 2 {
		t.Errorf("expected 2 laps, got %d", stats.TotalLaps)
	}
	if stats.TotalFrames != 1244 {
		t.Errorf("expected 1244 frames, got %d", stats.TotalFrames)
	}
	if stats.SpinsBySlot["rotate"] != 2 || stats.SpinsBySlot["spinTo"] != 1 {
		t.Errorf("unexpected slot counts: %v", stats.SpinsBySlot)
	}
	if stats.PendingCommands != 1 {
		t.Errorf("expected 1 pending command, got %d", stats.PendingCommands)
	}
}

// BenchmarkBatchInsertLaps measures the throughput of batch lap insertion.
func BenchmarkBatchInsertLaps(b *testing.B) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		b.Fatalf("NewDBService failed: %v", err)
	}
	defer svc.Close()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		laps := make([]*LapRecord, 1000)
		for i := 0; i < 1000; i++ {
			laps[i] = &LapRecord{
				SpinID:     fmt.Sprintf("bench-%d", n),
				Axis:       "y",
				Lap:        i + 1,
				EndDeg:     360,
				RecordedAt: int64(i),
			}
		}
		if err := svc.BatchInsertLaps(laps); err != nil {
			b.Fatalf("BatchInsertLaps failed: %v", err)
		}
	}
}
