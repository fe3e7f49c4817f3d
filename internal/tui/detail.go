package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/pkg/timeutil"
)

// renderDetail shows the live orientation, the rotation session and the
// journal counters.
func renderDetail(m *Model, width int) string {
	c := m.app.Cube
	var lines []string

	lines = append(lines, panelTitleStyle.Render("Orientation"), "")

	angles := c.Orientation()
	display := c.Transform().Display()
	for _, axis := range orientation.Axes {
		lines = append(lines, detailRow(axis.String(),
			fmt.Sprintf("%8.2f°  %s", angles[axis], axisBar(display[axis], width-24))))
	}
	lines = append(lines, detailRow("Transform", truncate(c.Transform().String(), width-14)))
	lines = append(lines, detailRow("Mode", modeStyle(c.Mode()).Render(c.Mode().String())))

	focus := "no"
	if c.Focused() {
		focus = "yes"
	}
	lines = append(lines, detailRow("Focused", focus))
	lines = append(lines, detailRow("Bounce", onOff(m.ctrl.BounceBack())))

	lines = append(lines, "", detailSectionStyle.Render("Rotation"))
	if sess, ok := c.Store().Session(); ok {
		speeds := make([]string, 0, 3)
		for _, axis := range orientation.Axes {
			speeds = append(speeds, fmt.Sprintf("%s %gms", axis, sess.Speeds[axis]))
		}
		lines = append(lines, detailRow("Speeds", strings.Join(speeds, "  ")))
		lines = append(lines, detailRow("Direction", string(sess.Direction)))
		if sess.Suspended {
			lines = append(lines, detailRow("Session", "suspended"))
		}
	} else {
		lines = append(lines, detailRow("Session", "none"))
		lines = append(lines, detailRow("Next", string(m.ctrl.Direction())))
	}

	lines = append(lines, "", detailSectionStyle.Render("Loop"))
	lines = append(lines, detailRow("Frames", timeutil.FormatFrames(int(m.app.Loop.Frames()), frame.Rate)))

	if m.app.Journal != nil {
		jm := m.app.Journal.Metrics()
		lines = append(lines, detailRow("Journal",
			fmt.Sprintf("%d spins  %d laps  %d errors", jm.SpinsRecorded, jm.LapsRecorded, jm.ErrorCount)))
	}
	if m.stats != nil {
		lines = append(lines, detailRow("History",
			fmt.Sprintf("%d spins  %d completed  %d cancelled", m.stats.TotalSpins, m.stats.Completed, m.stats.Cancelled)))
	}

	return strings.Join(lines, "\n")
}

// axisBar draws a display angle in [0, 360) as a filled bar.
func axisBar(deg float64, width int) string {
	if width > 30 {
		width = 30
	}
	if width < 4 {
		return ""
	}
	filled := int(math.Round(deg / 360 * float64(width)))
	filled = clamp(filled, 0, width)
	return axisBarStyle.Render(strings.Repeat("█", filled)) +
		axisBarEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func detailRow(label, value string) string {
	return detailLabelStyle.Render(fmt.Sprintf("%-10s", label)) + " " +
		detailValueStyle.Render(value)
}

// renderDetailPanel wraps the detail in a styled panel.
func renderDetailPanel(m *Model, width, height int) string {
	return panelStyle.Width(width).Height(height).Render(renderDetail(m, width-4))
}
