package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Mr-Dark-debug/cubespin/internal/capability"
	"github.com/Mr-Dark-debug/cubespin/internal/config"
	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "cubespin.db")
	cfg.ListenAddr = ""
	cfg.MetricsAddr = ""
	return cfg
}

func TestNewBuildsScene(t *testing.T) {
	a, err := New(testConfig(t), capability.Supported)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Element.ID != "the-cube" || !a.Element.HasClass("cube") {
		t.Errorf("unexpected element %s %v", a.Element.ID, a.Element.Classes())
	}
	face, ok := a.Document.Lookup(a.FaceID("side-3"))
	if !ok || !a.Element.Contains(face) {
		t.Error("faces should live under the cube element")
	}
	if a.Element.Applied() == 0 {
		t.Error("expected the initial orientation to be rendered")
	}
	if a.Control != nil {
		t.Error("control server should be disabled without a listen address")
	}
}

func TestNewUnavailable(t *testing.T) {
	_, err := New(testConfig(t), capability.Static{Frame: true})
	if !errors.Is(err, cube.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestElementForClassSelector(t *testing.T) {
	id, classes := elementFor(".spinner")
	if id != "cube" || len(classes) != 1 || classes[0] != "spinner" {
		t.Errorf("got %s %v", id, classes)
	}
}

func TestRestoresSavedOrientation(t *testing.T) {
	cfg := testConfig(t)
	if err := config.EnsureDir(cfg.DBPath); err != nil {
		t.Fatal(err)
	}
	db, err := database.NewDBService(cfg.DBPath)
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	if err := db.SaveOrientation(&database.SavedOrientation{
		Selector: cfg.Selector, Angles: [3]float64{0, 180, 0}, UpdatedAt: 1,
	}); err != nil {
		t.Fatalf("SaveOrientation failed: %v", err)
	}
	db.Close()

	a, err := New(cfg, capability.Supported)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if got := a.Cube.Orientation(); got != (orientation.Angles{0, 180, 0}) {
		t.Errorf("expected restored angles, got %v", got)
	}
}

func TestJournalThroughApp(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, capability.Supported)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := a.Cube.Rotate(cube.RotateOptions{
		Speeds: map[orientation.Axis]float64{orientation.X: 0, orientation.Y: 1000, orientation.Z: 0},
	}); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	a.Loop.Step(125)
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := database.NewDBService(cfg.DBPath)
	if err != nil {
		t.Fatalf("reopening journal: %v", err)
	}
	defer db.Close()

	spins, err := db.QuerySpins(database.SpinFilter{})
	if err != nil {
		t.Fatalf("QuerySpins failed: %v", err)
	}
	if len(spins) != 1 || spins[0].Slot != "rotate" || !spins[0].Repeat {
		t.Fatalf("expected one rotate spin, got %+v", spins)
	}
	laps, err := db.QueryLaps(spins[0].SpinID)
	if err != nil {
		t.Fatalf("QueryLaps failed: %v", err)
	}
	if len(laps) != 2 {
		t.Errorf("expected 2 laps, got %d", len(laps))
	}
}

func TestTouchHostFocusesOnFace(t *testing.T) {
	cfg := testConfig(t)
	cfg.Touch = true
	a, err := New(cfg, capability.Supported)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Cube.FocusOn(cube.FocusOptions{SpinTo: "side-1", Speed: 1000}); err != nil {
		t.Fatalf("FocusOn failed: %v", err)
	}

	a.PointerEnter()
	if a.Cube.Mode() != orientation.Idle {
		t.Fatalf("pointer entry must not focus a touch host, mode %s", a.Cube.Mode())
	}

	a.TouchAt(a.FaceID("side-2"))
	a.Loop.Step(30)
	if !a.Cube.Focused() {
		t.Fatal("expected focus after touching a face")
	}

	a.TouchAt("stage")
	if a.Cube.Focused() {
		t.Fatal("expected defocus after touching outside")
	}
	if a.Element.HasClass(cube.FocusedClass) {
		t.Error("focused class should be removed")
	}
}
