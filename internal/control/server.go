package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/journal"
)

// Config holds configuration for the control server.
type Config struct {
	// ListenAddr is a socket path ("/tmp/cubespin.sock") or a TCP
	// address ("127.0.0.1:9876").
	ListenAddr string `json:"listen_addr"`

	// MetricsAddr is the HTTP address for metrics. Empty disables it.
	MetricsAddr string `json:"metrics_addr"`

	// Timeout bounds how long a command waits for the frame loop.
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() Config {
	listenAddr := "127.0.0.1:9876"
	if runtime.GOOS != "windows" {
		listenAddr = "/tmp/cubespin.sock"
	}
	return Config{
		ListenAddr:  listenAddr,
		MetricsAddr: "127.0.0.1:9877",
		Timeout:     5 * time.Second,
	}
}

// Network returns "tcp" for host:port addresses and "unix" otherwise.
func Network(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return "tcp"
	}
	return "unix"
}

// Loop is the part of the frame loop the server needs.
type Loop interface {
	Post(fn func())
	Frames() uint64
}

// Metrics tracks command throughput and failures.
type Metrics struct {
	CommandsApplied  int64 `json:"commands_applied"`
	CommandsFailed   int64 `json:"commands_failed"`
	CommandsReplayed int64 `json:"commands_replayed"`
	Connections      int64 `json:"connections"`
	ErrorCount       int64 `json:"error_count"`
	Uptime           int64 `json:"uptime_seconds"`
}

// ErrTimeout is returned when the frame loop did not run a command
// within Config.Timeout.
var ErrTimeout = errors.New("timed out waiting for the frame loop")

// Server accepts control connections and applies their commands to a
// cube on its frame loop.
type Server struct {
	config  Config
	loop    Loop
	target  Target
	store   database.Store
	journal *journal.Recorder
	metrics Metrics

	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	started  time.Time
	cancel   context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithStore journals every command in store and replays the ones a
// previous run left pending.
func WithStore(store database.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithJournal adds the recorder's counters to the metrics endpoints.
func WithJournal(rec *journal.Recorder) Option {
	return func(s *Server) { s.journal = rec }
}

// NewServer creates a control server for target, which lives on loop.
func NewServer(config Config, loop Loop, target Target, opts ...Option) *Server {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	s := &Server{
		config:  config,
		loop:    loop,
		target:  target,
		conns:   make(map[net.Conn]struct{}),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on ListenAddr, serves metrics if configured and replays
// pending commands in the background. The frame loop must be ticking for
// replayed commands to run.
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()
	ctx, s.cancel = context.WithCancel(ctx)

	if s.config.ListenAddr != "" {
		network := Network(s.config.ListenAddr)
		if network == "unix" {
			// Remove stale socket file
			os.Remove(s.config.ListenAddr)
		}
		listener, err := net.Listen(network, s.config.ListenAddr)
		if err != nil {
			s.cancel()
			return fmt.Errorf("listening on %s: %w", s.config.ListenAddr, err)
		}
		s.listener = listener

		s.wg.Add(1)
		go s.acceptLoop(ctx)
		log.Printf("[INFO] Control socket listening on %s (network: %s)", s.config.ListenAddr, network)
	}

	if s.config.MetricsAddr != "" {
		s.wg.Add(1)
		go s.serveMetrics(ctx)
	}

	if s.store != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.replayPending(ctx); err != nil {
				log.Printf("[WARN] Failed to replay pending commands: %v", err)
			}
		}()
	}
	return nil
}

// Stop closes the listener and every open connection and waits for the
// server goroutines.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
		if Network(s.config.ListenAddr) == "unix" {
			os.Remove(s.config.ListenAddr)
		}
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("[INFO] Control server stopped.")
	return nil
}

// Metrics returns a snapshot of the server metrics.
func (s *Server) Metrics() Metrics {
	return Metrics{
		CommandsApplied:  atomic.LoadInt64(&s.metrics.CommandsApplied),
		CommandsFailed:   atomic.LoadInt64(&s.metrics.CommandsFailed),
		CommandsReplayed: atomic.LoadInt64(&s.metrics.CommandsReplayed),
		Connections:      atomic.LoadInt64(&s.metrics.Connections),
		ErrorCount:       atomic.LoadInt64(&s.metrics.ErrorCount),
		Uptime:           int64(time.Since(s.started).Seconds()),
	}
}

// ============================================================
// Command execution
// ============================================================

// Execute applies one command and returns the reply payload, which is
// only non-nil for MsgStatus.
func (s *Server) Execute(ctx context.Context, t MessageType, payload []byte) ([]byte, error) {
	if t == MsgStatus {
		var reply StatusReply
		err := s.run(ctx, func(tg Target) error {
			reply = s.status(tg)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(reply)
	}

	o, err := decode(t, payload)
	if err != nil {
		atomic.AddInt64(&s.metrics.CommandsFailed, 1)
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	var id int64
	if s.store != nil {
		if id, err = s.store.WritePendingCommand(t.String(), payload); err != nil {
			log.Printf("[ERROR] Journaling %s command: %v", t, err)
			atomic.AddInt64(&s.metrics.ErrorCount, 1)
			id = 0
		}
	}

	err = s.run(ctx, o)
	s.commit(id, err)
	if err != nil {
		atomic.AddInt64(&s.metrics.CommandsFailed, 1)
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	atomic.AddInt64(&s.metrics.CommandsApplied, 1)
	return nil, nil
}

// run posts o to the frame loop and waits for it. A command given up on
// by timeout or cancellation is skipped if the loop reaches it later; one
// already running is waited for, so the reported result matches the cube.
func (s *Server) run(ctx context.Context, o op) error {
	var (
		mu        sync.Mutex
		started   bool
		abandoned bool
	)
	done := make(chan error, 1)
	s.loop.Post(func() {
		mu.Lock()
		if abandoned {
			mu.Unlock()
			return
		}
		started = true
		mu.Unlock()
		done <- o(s.target)
	})

	timer := time.NewTimer(s.config.Timeout)
	defer timer.Stop()

	var cause error
	select {
	case err := <-done:
		return err
	case <-timer.C:
		cause = ErrTimeout
	case <-ctx.Done():
		cause = ctx.Err()
	}

	mu.Lock()
	if started {
		mu.Unlock()
		return <-done
	}
	abandoned = true
	mu.Unlock()
	return cause
}

func (s *Server) commit(id int64, err error) {
	if s.store == nil || id == 0 {
		return
	}
	var msg *string
	if err != nil {
		m := err.Error()
		msg = &m
	}
	if cerr := s.store.CommitCommand(id, msg); cerr != nil {
		log.Printf("[ERROR] Committing command %d: %v", id, cerr)
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
	}
}

func (s *Server) status(tg Target) StatusReply {
	a := tg.Orientation()
	return StatusReply{
		Selector: tg.Selector(),
		Angles:   a,
		Display:  a.Normalized(),
		Mode:     tg.Mode().String(),
		Focused:  tg.Focused(),
		Frames:   s.loop.Frames(),
	}
}

// replayPending re-applies commands a previous run journaled but never
// committed.
func (s *Server) replayPending(ctx context.Context) error {
	pending, err := s.store.GetPendingCommands()
	if err != nil {
		return fmt.Errorf("getting pending commands: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("[INFO] Replaying %d pending commands from crash recovery", len(pending))

	for _, pc := range pending {
		t, ok := ParseMessageType(pc.Kind)
		if !ok {
			log.Printf("[WARN] Skipping pending command %d of unknown kind %q", pc.CommandID, pc.Kind)
			msg := "unknown kind"
			s.store.CommitCommand(pc.CommandID, &msg)
			continue
		}
		o, err := decode(t, pc.Payload)
		if err != nil {
			log.Printf("[WARN] Skipping corrupt pending command %d: %v", pc.CommandID, err)
			msg := err.Error()
			s.store.CommitCommand(pc.CommandID, &msg)
			continue
		}

		err = s.run(ctx, o)
		s.commit(pc.CommandID, err)
		if err != nil {
			log.Printf("[ERROR] Failed to replay pending command %d: %v", pc.CommandID, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		atomic.AddInt64(&s.metrics.CommandsReplayed, 1)
	}
	return nil
}

// ============================================================
// Connections
// ============================================================

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("[ERROR] Accept failed: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn reads commands from conn until it closes. Each request gets
// an ACK byte; MsgStatus is followed by a status frame and AckError by
// an error frame.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	atomic.AddInt64(&s.metrics.Connections, 1)
	log.Printf("[DEBUG] New control connection from %s", conn.RemoteAddr())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t, payload, err := ReadMessage(conn)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Printf("[DEBUG] Control connection read error: %v", err)
				atomic.AddInt64(&s.metrics.ErrorCount, 1)
			}
			return
		}

		reply, err := s.Execute(ctx, t, payload)
		if err != nil {
			log.Printf("[WARN] Control command failed: %v", err)
			body, _ := json.Marshal(ErrorReply{Error: err.Error()})
			if _, werr := conn.Write([]byte{AckError}); werr != nil {
				return
			}
			if werr := WriteMessage(conn, MsgError, body); werr != nil {
				return
			}
			continue
		}

		if _, err := conn.Write([]byte{AckOK}); err != nil {
			return
		}
		if reply != nil {
			if err := WriteMessage(conn, t, reply); err != nil {
				return
			}
		}
	}
}

// ============================================================
// Metrics
// ============================================================

// Handler returns the metrics HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Metrics endpoint (Prometheus-compatible text format)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m := s.Metrics()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		counter(w, "cubespin_commands_applied_total", "Total control commands applied", m.CommandsApplied)
		counter(w, "cubespin_commands_failed_total", "Total control commands rejected or failed", m.CommandsFailed)
		counter(w, "cubespin_commands_replayed_total", "Total pending commands replayed at start", m.CommandsReplayed)
		counter(w, "cubespin_connections_total", "Total control connections accepted", m.Connections)
		counter(w, "cubespin_errors_total", "Total control errors", m.ErrorCount)
		gauge(w, "cubespin_frames", "Frames ticked by the loop", int64(s.loop.Frames()))
		gauge(w, "cubespin_uptime_seconds", "Uptime in seconds", m.Uptime)
		if s.journal != nil {
			j := s.journal.Metrics()
			counter(w, "cubespin_spins_recorded_total", "Total spins journaled", j.SpinsRecorded)
			counter(w, "cubespin_laps_recorded_total", "Total laps journaled", j.LapsRecorded)
			counter(w, "cubespin_journal_batches_total", "Total journal batches committed", j.BatchesCommitted)
			counter(w, "cubespin_journal_errors_total", "Total journal errors", j.ErrorCount)
		}
	})

	// JSON metrics for programmatic access
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"control": s.Metrics(),
			"frames":  s.loop.Frames(),
		}
		if s.journal != nil {
			body["journal"] = s.journal.Metrics()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	return mux
}

func counter(w io.Writer, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, v)
}

func gauge(w io.Writer, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, help, name, name, v)
}

func (s *Server) serveMetrics(ctx context.Context) {
	defer s.wg.Done()

	server := &http.Server{
		Addr:    s.config.MetricsAddr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Printf("[INFO] Metrics server listening on http://%s/metrics", s.config.MetricsAddr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("[ERROR] Metrics server: %v", err)
	}
}
