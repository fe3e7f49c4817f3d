// Cubespin Daemon: a headless cube driven only by its control socket.
// The frame loop runs on a ticker, every spin is journaled and the live
// orientation survives restarts.
//
// Usage:
//
//	cubespin-daemon [flags]
//
// Flags:
//
//	--listen    TCP/UDS address to listen on (default: /tmp/cubespin.sock)
//	--db        Path to SQLite database file (default: ~/.cubespin/cubespin.db)
//	--metrics   HTTP address for metrics (default: 127.0.0.1:9877)
//	--batch     Journal batch size (default: 64)
//	--flush     Journal flush interval (default: 500ms)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mr-Dark-debug/cubespin/internal/app"
	"github.com/Mr-Dark-debug/cubespin/internal/capability"
	"github.com/Mr-Dark-debug/cubespin/internal/config"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP/UDS listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database file")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Metrics HTTP address")
	flag.StringVar(&cfg.Selector, "selector", cfg.Selector, "Element the cube renders into")
	flag.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Journal batch size before flush")
	flag.DurationVar(&cfg.FlushInterval, "flush", cfg.FlushInterval, "Journal flush interval")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.ListenAddr == "" {
		log.Fatal("A headless cube needs --listen")
	}

	// No terminal to draw on; the projector alone decides.
	probe := capability.Static{Frame: true, Transform: capability.RenderCheck()}
	a, err := app.New(cfg, probe)
	if err != nil {
		log.Fatalf("Failed to initialize cube: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		log.Fatalf("Failed to start daemon: %v", err)
	}
	loopCtx, stopLoop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Loop.Run(loopCtx, frame.Interval)
	}()

	// Print startup banner
	fmt.Println()
	fmt.Println("  CUBESPIN DAEMON")
	fmt.Println("  A three-axis rotating cube")
	fmt.Println()
	fmt.Printf("  Cube:    %s at %v\n", cfg.Selector, a.Cube.Orientation())
	fmt.Printf("  Listen:  %s\n", cfg.ListenAddr)
	fmt.Printf("  DB:      %s\n", cfg.DBPath)
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics: http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n  Shutting down gracefully...")
	// Stop the loop first, then let Close drain the journal before the
	// shared context goes away.
	stopLoop()
	<-done
	if err := a.Close(); err != nil {
		log.Printf("[ERROR] During shutdown: %v", err)
	}
	cancel()

	fmt.Println("  Done.")
}
