package tui

import (
	"fmt"
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/pkg/timeutil"
)

// renderHistory lists the journaled spins, newest first.
func renderHistory(m *Model, width, height int) string {
	titleStyle := panelTitleDimStyle
	if m.activePane == PaneHistory {
		titleStyle = panelTitleStyle
	}
	title := titleStyle.Render("History")
	if m.app.DB == nil {
		return title + "\n\n" + emptyStateStyle.Render("Journal disabled.")
	}
	if len(m.spins) == 0 {
		return title + "\n\n" + emptyStateStyle.Render("No spins recorded yet.")
	}
	title += dimStyle.Render(fmt.Sprintf("  %d spins", len(m.spins)))

	lines := []string{title, ""}
	contentHeight := height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	scrollStart := 0
	if m.selectedSpin >= contentHeight {
		scrollStart = m.selectedSpin - contentHeight + 1
	}
	end := scrollStart + contentHeight
	if end > len(m.spins) {
		end = len(m.spins)
	}

	for i := scrollStart; i < end; i++ {
		sp := m.spins[i]
		kind := sp.Slot
		if sp.Repeat {
			kind += "↻"
		}
		head := fmt.Sprintf("%-8s %-8s ", shortID(sp.SpinID, 8), truncate(kind, 8))
		status := fmt.Sprintf("%-10s", sp.Status)
		tail := fmt.Sprintf(" %-22s %s",
			timeutil.FormatFrames(sp.Frames, frame.Rate),
			timeutil.RelativeTime(sp.StartedAt))

		if i == m.selectedSpin && m.activePane == PaneHistory {
			lines = append(lines, spinSelectedStyle.Width(width).Render(truncate(head+status+tail, width)))
			continue
		}
		lines = append(lines, spinItemStyle.Render(head)+
			statusStyleFor(sp.Status).Render(status)+
			dimStyle.Render(truncate(tail, max(width-len(head)-len(status), 0))))
	}
	return strings.Join(lines, "\n")
}

// renderHistoryPanel wraps the history in a styled panel.
func renderHistoryPanel(m *Model, width, height int) string {
	content := renderHistory(m, width-4, height-2)

	style := panelStyle
	if m.activePane == PaneHistory {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(content)
}
