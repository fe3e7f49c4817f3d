package tui

import (
	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/charmbracelet/lipgloss"
)

// modeStyle returns the badge style for a cube mode.
func modeStyle(m orientation.Mode) lipgloss.Style {
	switch m {
	case orientation.Rotating:
		return modeRotatingStyle
	case orientation.Transitioning:
		return modeTransitionStyle
	default:
		return modeIdleStyle
	}
}

// statusStyleFor colors a journaled spin status.
func statusStyleFor(status string) lipgloss.Style {
	switch status {
	case "completed":
		return spinStatusCompleted
	case "cancelled":
		return spinStatusCancelled
	default:
		return spinStatusRunning
	}
}

// depthBucket maps a canvas depth in [0, 1] to an index into depthStyles.
func depthBucket(depth float64) int {
	i := int(depth * float64(len(depthStyles)))
	return clamp(i, 0, len(depthStyles)-1)
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// truncate cuts a string to maxLen and appends "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// shortID returns first n characters of an ID string.
func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// clamp restricts val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
