package tui

import (
	"fmt"
	"math"
	"strings"
)

// residualEpsilon is the smallest lap error shown as non-zero.
const residualEpsilon = 1e-6

// renderLaps shows each lap of the selected spin and how far its sweep
// strayed from a full turn.
func renderLaps(m *Model, width, height int) string {
	titleStyle := panelTitleDimStyle
	if m.activePane == PaneLaps {
		titleStyle = panelTitleStyle
	}
	title := titleStyle.Render("Laps")

	if m.lapsFor == "" {
		return title + "\n\n" + emptyStateStyle.Render("Select a spin in the history.")
	}
	title += dimStyle.Render("  " + shortID(m.lapsFor, 8))
	if len(m.laps) == 0 {
		return title + "\n\n" + emptyStateStyle.Render("No laps completed.")
	}

	lines := []string{
		title,
		lapHeaderStyle.Render(fmt.Sprintf("%-4s %4s %10s %10s %10s", "axis", "lap", "start", "end", "residual")),
	}

	contentHeight := height - 2
	start := clamp(m.lapScroll, 0, max(len(m.laps)-contentHeight, 0))
	end := min(start+contentHeight, len(m.laps))

	for _, lap := range m.laps[start:end] {
		sweep := lap.EndDeg - lap.StartDeg
		residual := math.Abs(sweep) - 360

		style := residualExactStyle
		switch {
		case residual > residualEpsilon:
			style = residualAheadStyle
		case residual < -residualEpsilon:
			style = residualBehindStyle
		}
		row := fmt.Sprintf("%-4s %4d %10.2f %10.2f ", lap.Axis, lap.Lap, lap.StartDeg, lap.EndDeg)
		lines = append(lines, truncate(row, width)+style.Render(fmt.Sprintf("%+10.4f", residual)))
	}
	return strings.Join(lines, "\n")
}

// renderLapsPanel wraps the laps in a styled panel.
func renderLapsPanel(m *Model, width, height int) string {
	content := renderLaps(m, width-4, height-2)

	style := panelStyle
	if m.activePane == PaneLaps {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(content)
}
