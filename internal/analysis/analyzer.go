// Package analysis inspects the spin journal with plain statistics.
//
// Key capabilities:
//   - Lap drift detection via linear regression over lap start angles
//     and lap length residuals
//   - Slow spin detection via Z-score analysis of frame counts
//   - Journal summaries for `cubespin analyze`
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/pkg/timeutil"
)

// DriftTolerance is the largest lap residual, in degrees, that still
// counts as exact.
const DriftTolerance = 1e-9

// Analyzer runs analyses against a journal store.
type Analyzer struct {
	store database.Store
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store}
}

// ============================================================
// Lap Drift
// ============================================================

// AxisDrift describes the laps of one axis of a repeating spin.
type AxisDrift struct {
	Axis string `json:"axis"`
	Laps int    `json:"laps"`
	// StartSlope is the regression slope of the lap start angle over the
	// lap number, in degrees per lap.
	StartSlope float64 `json:"start_slope"`
	RSquared   float64 `json:"r_squared"`
	// MaxResidual is the largest distance of a lap length from a full
	// turn, in degrees.
	MaxResidual float64 `json:"max_residual"`
	Drifting    bool    `json:"drifting"`
}

// DriftReport is the lap drift analysis of one spin.
type DriftReport struct {
	SpinID string      `json:"spin_id"`
	Axes   []AxisDrift `json:"axes"`
}

// Drifting reports whether any axis drifts.
func (r *DriftReport) Drifting() bool {
	for _, a := range r.Axes {
		if a.Drifting {
			return true
		}
	}
	return false
}

// dataPoint is one observation for regression analysis.
type dataPoint struct {
	x float64
	y float64
}

// AnalyzeLapDrift checks that every lap of a repeating spin starts at the
// same angle and covers exactly one full turn.
//
// This answers: "Does continuous rotation accumulate error?"
func (a *Analyzer) AnalyzeLapDrift(spinID string) (*DriftReport, error) {
	laps, err := a.store.QueryLaps(spinID)
	if err != nil {
		return nil, fmt.Errorf("querying laps for drift analysis: %w", err)
	}

	byAxis := make(map[string][]*database.LapRecord)
	for _, l := range laps {
		byAxis[l.Axis] = append(byAxis[l.Axis], l)
	}
	axes := make([]string, 0, len(byAxis))
	for axis := range byAxis {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	report := &DriftReport{SpinID: spinID}
	for _, axis := range axes {
		report.Axes = append(report.Axes, axisDrift(axis, byAxis[axis]))
	}
	return report, nil
}

func axisDrift(axis string, laps []*database.LapRecord) AxisDrift {
	d := AxisDrift{Axis: axis, Laps: len(laps)}

	points := make([]dataPoint, len(laps))
	for i, l := range laps {
		points[i] = dataPoint{x: float64(l.Lap), y: l.StartDeg}
		residual := math.Abs(math.Abs(l.EndDeg-l.StartDeg) - 360)
		if residual > d.MaxResidual {
			d.MaxResidual = residual
		}
	}

	slope, _, rSquared := linearRegression(points)
	d.StartSlope = slope
	d.RSquared = math.Round(rSquared*1000) / 1000
	d.Drifting = d.MaxResidual > DriftTolerance || math.Abs(slope) > DriftTolerance
	return d
}

// linearRegression computes ordinary least squares regression.
// Returns slope (m), intercept (b), and R-squared goodness of fit.
func linearRegression(points []dataPoint) (slope, intercept, rSquared float64) {
	n := float64(len(points))
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumX2 += p.x * p.x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.x + intercept
		ssRes += (p.y - predicted) * (p.y - predicted)
		ssTot += (p.y - meanY) * (p.y - meanY)
	}

	if ssTot == 0 {
		rSquared = 1.0
	} else {
		rSquared = 1 - ssRes/ssTot
	}

	return slope, intercept, rSquared
}

// ============================================================
// Slow Spins
// ============================================================

// SlowSpin is a one-shot spin that took abnormally many frames.
type SlowSpin struct {
	SpinID   string  `json:"spin_id"`
	Slot     string  `json:"slot"`
	Frames   int     `json:"frames"`
	ZScore   float64 `json:"z_score"`
	Severity string  `json:"severity"` // "low", "medium", "high"
}

// DetectSlowSpins calculates the Z-score of the frame count of every
// completed one-shot spin in spins.
//
// A Z-score > 2.0 is "medium" severity, > 3.0 is "high".
func DetectSlowSpins(spins []*database.SpinRecord) []SlowSpin {
	var oneShot []*database.SpinRecord
	for _, s := range spins {
		if !s.Repeat && s.Status == "completed" {
			oneShot = append(oneShot, s)
		}
	}
	if len(oneShot) < 2 {
		return nil
	}

	var sum, sumSq float64
	for _, s := range oneShot {
		f := float64(s.Frames)
		sum += f
		sumSq += f * f
	}
	n := float64(len(oneShot))
	mean := sum / n
	stddev := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
	if stddev == 0 {
		return nil
	}

	var slow []SlowSpin
	for _, s := range oneShot {
		z := (float64(s.Frames) - mean) / stddev
		if z <= 1.5 {
			continue
		}
		severity := "low"
		if z > 3.0 {
			severity = "high"
		} else if z > 2.0 {
			severity = "medium"
		}
		slow = append(slow, SlowSpin{
			SpinID:   s.SpinID,
			Slot:     s.Slot,
			Frames:   s.Frames,
			ZScore:   math.Round(z*100) / 100,
			Severity: severity,
		})
	}

	sort.Slice(slow, func(i, j int) bool {
		return slow[i].ZScore > slow[j].ZScore
	})
	return slow
}

// ============================================================
// Full Analysis Report
// ============================================================

// AnalysisReport is the complete output of `cubespin analyze`.
type AnalysisReport struct {
	GeneratedAt string              `json:"generated_at"`
	Stats       *database.SpinStats `json:"stats"`
	CancelRate  float64             `json:"cancel_rate"`
	Drift       []*DriftReport      `json:"drift"`
	SlowSpins   []SlowSpin          `json:"slow_spins"`
	Warnings    []string            `json:"warnings"`
}

// FullAnalysis runs every pass over the last limit spins. A non-empty
// spinID restricts drift analysis to that spin.
func (a *Analyzer) FullAnalysis(spinID string, limit int) (*AnalysisReport, error) {
	report := &AnalysisReport{
		GeneratedAt: time.Now().Format(time.RFC3339),
	}

	stats, err := a.store.GetSpinStats()
	if err != nil {
		return nil, fmt.Errorf("gathering spin stats: %w", err)
	}
	report.Stats = stats
	if stats.TotalSpins > 0 {
		report.CancelRate = math.Round(float64(stats.Cancelled)/float64(stats.TotalSpins)*1000) / 10
	}

	spins, err := a.store.QuerySpins(database.SpinFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("querying spins: %w", err)
	}
	report.SlowSpins = DetectSlowSpins(spins)

	var drift []string
	if spinID != "" {
		drift = []string{spinID}
	} else {
		for _, s := range spins {
			if s.Repeat {
				drift = append(drift, s.SpinID)
			}
		}
	}
	for _, id := range drift {
		d, err := a.AnalyzeLapDrift(id)
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Lap drift analysis of %s failed: %v", id, err))
			continue
		}
		if len(d.Axes) == 0 {
			continue
		}
		report.Drift = append(report.Drift, d)
		for _, ax := range d.Axes {
			if ax.Drifting {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("⚠ LAP DRIFT on %s axis %s (max residual %.6f°, start slope %.6f°/lap)",
						id, ax.Axis, ax.MaxResidual, ax.StartSlope))
			}
		}
	}

	for _, s := range report.SlowSpins {
		if s.Severity == "high" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("⚠ SLOW SPIN: %s on %s took %d frames (Z-score: %.2f)",
					s.SpinID, s.Slot, s.Frames, s.ZScore))
		}
	}
	if stats.PendingCommands > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d control commands are still pending", stats.PendingCommands))
	}

	return report, nil
}

// FormatReport generates a human-readable markdown report.
func FormatReport(report *AnalysisReport) string {
	var b strings.Builder

	b.WriteString("# Cubespin Analysis Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt)

	if st := report.Stats; st != nil {
		b.WriteString("## Journal Summary\n\n")
		b.WriteString("| Metric | Value |\n")
		b.WriteString("|--------|-------|\n")
		fmt.Fprintf(&b, "| Total Spins | %d |\n", st.TotalSpins)
		fmt.Fprintf(&b, "| Completed | %d |\n", st.Completed)
		fmt.Fprintf(&b, "| Cancelled | %d (%.1f%%) |\n", st.Cancelled, report.CancelRate)
		fmt.Fprintf(&b, "| Running | %d |\n", st.Running)
		fmt.Fprintf(&b, "| Repeating | %d |\n", st.Repeating)
		fmt.Fprintf(&b, "| Laps | %d |\n", st.TotalLaps)
		fmt.Fprintf(&b, "| Planned Frames | %s |\n", timeutil.FormatFrames(int(st.TotalFrames), frame.Rate))

		slots := make([]string, 0, len(st.SpinsBySlot))
		for slot := range st.SpinsBySlot {
			slots = append(slots, slot)
		}
		sort.Strings(slots)
		for _, slot := range slots {
			fmt.Fprintf(&b, "| Slot %s | %d |\n", slot, st.SpinsBySlot[slot])
		}
		b.WriteString("\n")
	}

	if len(report.Drift) > 0 {
		b.WriteString("## Lap Drift\n\n")
		b.WriteString("| Spin | Axis | Laps | Max Residual | Start Slope | Drifting |\n")
		b.WriteString("|------|------|------|--------------|-------------|----------|\n")
		for _, d := range report.Drift {
			for _, ax := range d.Axes {
				fmt.Fprintf(&b, "| %s | %s | %d | %.6f | %.6f | %v |\n",
					d.SpinID, ax.Axis, ax.Laps, ax.MaxResidual, ax.StartSlope, ax.Drifting)
			}
		}
		b.WriteString("\n")
	}

	if len(report.SlowSpins) > 0 {
		b.WriteString("## Slow Spins\n\n")
		b.WriteString("| Spin | Slot | Frames | Z-Score | Severity |\n")
		b.WriteString("|------|------|--------|---------|----------|\n")
		for _, s := range report.SlowSpins {
			fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %s |\n",
				s.SpinID, s.Slot, s.Frames, s.ZScore, s.Severity)
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
