// Cubespin TUI: the animated cube in a terminal, with the spin journal
// alongside and the control socket open for other processes.
//
// Usage:
//
//	cubespin-tui [flags]
//
// Flags:
//
//	--selector  Element the cube renders into (default: #the-cube)
//	--db        Path to SQLite database file, "" disables the journal
//	--listen    Control socket address, "" disables it
//	--backend   Renderer: bubbletea or tcell (default: bubbletea)
//	--touch     Treat the terminal as a touch host
//	--log       Log file (default: ~/.cubespin/cubespin.log)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mr-Dark-debug/cubespin/internal/app"
	"github.com/Mr-Dark-debug/cubespin/internal/config"
	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.Selector, "selector", cfg.Selector, "Element the cube renders into")
	flag.Float64Var(&cfg.Perspective, "perspective", cfg.Perspective, "Viewer distance in pixels")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database file")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Control socket address")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Metrics HTTP address")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "Renderer: bubbletea or tcell")
	flag.BoolVar(&cfg.Touch, "touch", cfg.Touch, "Treat the terminal as a touch host")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The screen belongs to the UI, so logs go to a file.
	if cfg.LogFile != "" {
		if err := config.EnsureDir(cfg.LogFile); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
		f, err := tea.LogToFile(cfg.LogFile, "cubespin")
		if err != nil {
			log.Fatalf("Failed to open log file %s: %v", cfg.LogFile, err)
		}
		defer f.Close()
	}

	a, err := app.New(cfg, nil)
	if errors.Is(err, cube.ErrUnavailable) {
		fmt.Fprintln(os.Stderr, "This terminal cannot animate the cube.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	log.Printf("[INFO] Cube %s ready, backend %s", cfg.Selector, cfg.Backend)

	if cfg.Backend == "tcell" {
		err = runTcell(ctx, a)
	} else {
		_, err = tea.NewProgram(tui.NewModel(a),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(ctx),
		).Run()
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func runTcell(ctx context.Context, a *app.App) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	return tui.RunTcell(ctx, a, tui.NewController(a), s)
}
