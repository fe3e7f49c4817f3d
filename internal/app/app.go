// Package app wires a complete animated cube: frame loop, scene, input
// bridge, journal and control socket. The TUI and the daemon differ only
// in how they drive the loop and what they draw.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/capability"
	"github.com/Mr-Dark-debug/cubespin/internal/config"
	"github.com/Mr-Dark-debug/cubespin/internal/control"
	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/input"
	"github.com/Mr-Dark-debug/cubespin/internal/journal"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/internal/scene"
)

// App is one running cube and everything around it.
type App struct {
	Config   config.Config
	Loop     *frame.Loop
	Document *scene.Document
	// Stage is the element around the cube; touches on it land outside.
	Stage   *scene.Element
	Element *scene.Element
	Bridge  *input.Bridge
	Cube    *cube.Cube

	// DB, Journal and Control are nil when disabled.
	DB      *database.DBService
	Journal *journal.Recorder
	Control *control.Server
}

// New builds the app. A nil probe checks the terminal on stdout. An
// empty DBPath disables the journal, an empty ListenAddr the control
// socket.
func New(cfg config.Config, probe capability.Probe) (*App, error) {
	a := &App{
		Config:   cfg,
		Loop:     frame.NewLoop(),
		Document: scene.NewDocument(),
		Bridge:   input.NewBridge(cfg.Touch),
	}

	a.Stage = a.Document.Create("stage", nil, "stage")
	id, classes := elementFor(cfg.Selector)
	a.Element = a.Document.Create(id, a.Stage, classes...)
	for _, side := range orientation.SideNames() {
		a.Document.Create(a.Element.ID+"-"+side, a.Element, "face")
	}

	store := orientation.NewStore()
	opts := []cube.Option{
		cube.WithScheduler(a.Loop),
		cube.WithResolver(a.Document),
		cube.WithBridge(a.Bridge),
		cube.WithStore(store),
		cube.WithIDs(journal.NewSpinID),
	}
	if probe != nil {
		opts = append(opts, cube.WithProbe(probe))
	}

	if cfg.DBPath != "" {
		if cfg.DBPath != ":memory:" {
			if err := config.EnsureDir(cfg.DBPath); err != nil {
				return nil, err
			}
		}
		db, err := database.NewDBService(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		a.DB = db
		a.Journal = journal.NewRecorder(journal.Config{
			Selector:      cfg.Selector,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
		}, db)
		opts = append(opts, cube.WithObserver(a.Journal))

		saved, err := db.LoadOrientation(cfg.Selector)
		switch {
		case err == nil:
			store.SetAngles(orientation.Angles(saved.Angles))
			log.Printf("[INFO] Restored %s to %v", cfg.Selector, saved.Angles)
		case !errors.Is(err, database.ErrNotFound):
			log.Printf("[WARN] Loading saved orientation: %v", err)
		}
	}

	c, err := cube.Open(cfg.Selector, cube.Config{Perspective: cfg.Perspective}, opts...)
	if err != nil {
		if a.DB != nil {
			a.DB.Close()
		}
		return nil, err
	}
	a.Cube = c
	c.ApplyRotation(cube.Rotation{})

	if cfg.ListenAddr != "" {
		copts := []control.Option{}
		if a.DB != nil {
			copts = append(copts, control.WithStore(a.DB), control.WithJournal(a.Journal))
		}
		a.Control = control.NewServer(control.Config{
			ListenAddr:  cfg.ListenAddr,
			MetricsAddr: cfg.MetricsAddr,
			Timeout:     cfg.CommandTimeout,
		}, a.Loop, c, copts...)
	}
	return a, nil
}

// elementFor turns a selector into the id and classes of the element
// that satisfies it.
func elementFor(selector string) (string, []string) {
	switch {
	case strings.HasPrefix(selector, "."):
		return "cube", []string{selector[1:]}
	case strings.HasPrefix(selector, "#"):
		return selector[1:], []string{"cube"}
	}
	return selector, []string{"cube"}
}

// Start starts the journal and the control socket.
func (a *App) Start(ctx context.Context) error {
	if a.Journal != nil {
		if err := a.Journal.Start(ctx); err != nil {
			return fmt.Errorf("starting journal: %w", err)
		}
	}
	if a.Control != nil {
		if err := a.Control.Start(ctx); err != nil {
			return fmt.Errorf("starting control server: %w", err)
		}
	}
	return nil
}

// Close stops the control socket, flushes the journal and closes the
// database, in that order.
func (a *App) Close() error {
	if a.Control != nil {
		a.Control.Stop()
	}
	if a.Journal != nil {
		a.Journal.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// ============================================================
// Host input
// ============================================================

// PointerEnter reports the pointer entering the cube.
func (a *App) PointerEnter() {
	a.Bridge.Dispatch(input.Event{Kind: input.PointerEnter})
}

// PointerLeave reports the pointer leaving the cube.
func (a *App) PointerLeave() {
	a.Bridge.Dispatch(input.Event{Kind: input.PointerLeave})
}

// TouchAt reports a touch on the element with id. It counts as inside
// when that element is the cube or one of its faces.
func (a *App) TouchAt(id string) {
	hit, ok := a.Document.Lookup(id)
	if !ok {
		hit = a.Document.Root()
	}
	a.Bridge.Dispatch(input.Event{Kind: input.TouchStart, Inside: a.Element.Contains(hit)})
}

// FaceID returns the id of the element for a named side.
func (a *App) FaceID(side string) string {
	return a.Element.ID + "-" + side
}
