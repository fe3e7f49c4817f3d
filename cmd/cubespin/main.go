// Cubespin CLI: inspect the spin journal and drive a running cube over
// its control socket.
//
// Usage:
//
//	cubespin <command> [flags]
//
// Commands:
//
//	sides     List the named sides and their angles
//	history   List journaled spins
//	analyze   Run lap drift and slow spin analysis
//	send      Send a control command to a running cube
//	status    Show the live cube and its metrics
//	version   Print version information
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/Mr-Dark-debug/cubespin/internal/analysis"
	"github.com/Mr-Dark-debug/cubespin/internal/config"
	"github.com/Mr-Dark-debug/cubespin/internal/control"
	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/journal"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/pkg/jsonutil"
	"github.com/Mr-Dark-debug/cubespin/pkg/timeutil"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	switch os.Args[1] {
	case "sides":
		cmdSides()
	case "history":
		cmdHistory(cfg)
	case "analyze":
		cmdAnalyze(cfg)
	case "send":
		cmdSend(cfg)
	case "status":
		cmdStatus(cfg)
	case "version":
		fmt.Printf("Cubespin v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Cubespin, a three-axis rotating cube

Usage:
  cubespin <command> [flags]

Commands:
  sides      List the named sides and their angles
  history    List journaled spins
  analyze    Run lap drift and slow spin analysis
  send       Send a control command to a running cube
  status     Show the live cube and its metrics
  version    Print version information

Run 'cubespin <command> --help' for details on each command.`)
}

func cmdSides() {
	for _, name := range orientation.SideNames() {
		a, _ := orientation.Side(name, "sides")
		fmt.Printf("  %-7s x=%-4g y=%-4g z=%g\n", name, a[orientation.X], a[orientation.Y], a[orientation.Z])
	}
}

func openStore(path string) *database.DBService {
	store, err := database.NewDBService(path)
	if err != nil {
		log.Fatalf("Failed to open journal at %s: %v", path, err)
	}
	return store
}

// cmdHistory lists spins matching a filter.
func cmdHistory(cfg config.Config) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "Path to SQLite database")
	status := fs.String("status", "", "Filter by status: running, completed, cancelled")
	repeat := fs.String("repeat", "", "Filter by kind: true for rotations, false for one-shot spins")
	laps := fs.String("laps", "", "Show the laps of one spin instead")
	limit := fs.Int("limit", 20, "Maximum results")
	outputFormat := fs.String("format", "table", "Output format: table, json")
	fs.Parse(os.Args[2:])

	store := openStore(*dbPath)
	defer store.Close()

	if *laps != "" {
		records, err := store.QueryLaps(*laps)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		b, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(b))
		return
	}

	filter := database.SpinFilter{Limit: *limit}
	if *status != "" {
		filter.Status = status
	}
	if *repeat != "" {
		r := *repeat == "true"
		filter.Repeat = &r
	}

	spins, err := store.QuerySpins(filter)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	if *outputFormat == "json" {
		b, _ := json.MarshalIndent(spins, "", "  ")
		fmt.Println(string(b))
		return
	}
	if len(spins) == 0 {
		fmt.Println("No spins recorded.")
		return
	}
	for _, sp := range spins {
		kind := sp.Slot
		if sp.Repeat {
			kind += " (repeat)"
		}
		fmt.Printf("  %s  %-16s %-10s %-22s %s\n",
			sp.SpinID, kind, sp.Status,
			timeutil.FormatFrames(sp.Frames, frame.Rate),
			timeutil.FormatTimestampFull(sp.StartedAt))
	}
}

// cmdAnalyze runs the full analysis suite and outputs a report.
func cmdAnalyze(cfg config.Config) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	spinID := fs.String("spin", "", "Restrict drift analysis to one spin")
	dbPath := fs.String("db", cfg.DBPath, "Path to SQLite database")
	limit := fs.Int("limit", 200, "Number of recent spins to analyze")
	outputFormat := fs.String("format", "markdown", "Output format: markdown, json")
	fs.Parse(os.Args[2:])

	store := openStore(*dbPath)
	defer store.Close()

	analyzer := analysis.NewAnalyzer(store)
	report, err := analyzer.FullAnalysis(*spinID, *limit)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	switch *outputFormat {
	case "json":
		b, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(b))
	case "markdown":
		fmt.Print(analysis.FormatReport(report))
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *outputFormat)
		os.Exit(1)
	}
}

// cmdSend sends one command. The payload is the second argument, or
// stdin when it is "-".
func cmdSend(cfg config.Config) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "Control socket address")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cubespin send [--addr ADDR] <apply|rotate|focus|defocus|spin|status> [JSON|-]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	t, ok := control.ParseMessageType(fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command type: %s\n", fs.Arg(0))
		os.Exit(1)
	}

	var payload []byte
	switch arg := fs.Arg(1); arg {
	case "":
	case "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Reading payload: %v", err)
		}
		payload = b
	default:
		payload = []byte(arg)
	}
	if len(payload) > 0 && !json.Valid(payload) {
		log.Fatalf("Payload is not valid JSON: %s", jsonutil.TruncateString(string(payload), 80))
	}

	client, err := control.Dial(*addr, cfg.CommandTimeout)
	if err != nil {
		log.Fatalf("Cubespin is not listening on %s: %v", *addr, err)
	}
	defer client.Close()

	reply, err := client.SendRaw(t, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", t, err)
		os.Exit(1)
	}
	if reply != nil {
		fmt.Println(jsonutil.PrettyJSON(string(reply)))
		return
	}
	fmt.Printf("✓ %s applied\n", t)
}

// cmdStatus shows the live cube and the server's metrics endpoint.
func cmdStatus(cfg config.Config) {
	client, err := control.Dial(cfg.ListenAddr, cfg.CommandTimeout)
	if err != nil {
		fmt.Println("⚠ No cube is listening.")
		fmt.Printf("  Start one with: cubespin-daemon or cubespin-tui\n")
		fmt.Printf("  (tried: %s)\n", cfg.ListenAddr)
		os.Exit(1)
	}
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		log.Fatalf("Status failed: %v", err)
	}

	fmt.Println("✅ Cube is running.")
	fmt.Println()
	fmt.Printf("  Selector:  %s\n", st.Selector)
	fmt.Printf("  Angles:    %v\n", st.Angles)
	fmt.Printf("  Display:   %v\n", st.Display)
	fmt.Printf("  Mode:      %s\n", st.Mode)
	fmt.Printf("  Focused:   %v\n", st.Focused)
	fmt.Printf("  Frames:    %s\n", timeutil.FormatFrames(int(st.Frames), frame.Rate))

	if cfg.MetricsAddr == "" {
		return
	}
	url := fmt.Sprintf("http://%s/api/metrics", cfg.MetricsAddr)
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("\n  Metrics unavailable (tried: %s)\n", url)
		return
	}
	defer resp.Body.Close()

	var body struct {
		Control control.Metrics `json:"control"`
		Journal *journal.Metrics `json:"journal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Failed to decode metrics: %v", err)
	}

	fmt.Println()
	fmt.Printf("  Commands applied:    %d\n", body.Control.CommandsApplied)
	fmt.Printf("  Commands failed:     %d\n", body.Control.CommandsFailed)
	fmt.Printf("  Commands replayed:   %d\n", body.Control.CommandsReplayed)
	fmt.Printf("  Connections:         %d\n", body.Control.Connections)
	fmt.Printf("  Uptime:              %ds\n", body.Control.Uptime)
	if j := body.Journal; j != nil {
		fmt.Printf("  Spins recorded:      %d\n", j.SpinsRecorded)
		fmt.Printf("  Laps recorded:       %d\n", j.LapsRecorded)
		fmt.Printf("  Journal errors:      %d\n", j.ErrorCount)
	}
}
