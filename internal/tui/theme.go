package tui

import "github.com/charmbracelet/lipgloss"

// ────────────────────────────────────────────────────────────
// Color Palette
// ────────────────────────────────────────────────────────────
//
// All colors are defined here. No ad-hoc color literals anywhere.

var (
	// Base
	colorBg        = lipgloss.Color("#0d1117")
	colorBgSurface = lipgloss.Color("#1c2128")

	// Text
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")

	// Accents
	colorBlue   = lipgloss.Color("#58a6ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorRed    = lipgloss.Color("#f85149")
	colorYellow = lipgloss.Color("#d29922")
	colorPurple = lipgloss.Color("#bc8cff")
	colorCyan   = lipgloss.Color("#76e3ea")

	// Structural
	colorDivider   = lipgloss.Color("#30363d")
	colorHighlight = lipgloss.Color("#1f6feb")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Panel chrome
var (
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.Border{Top: "─"}).
			BorderForeground(colorDivider)

	panelActiveStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.Border{Top: "─"}).
				BorderForeground(colorBlue)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	panelTitleDimStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Bold(true)
)

// Cube canvas, nearest bucket first.
var depthStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	lipgloss.NewStyle().Foreground(colorCyan),
	lipgloss.NewStyle().Foreground(colorBlue),
	lipgloss.NewStyle().Foreground(colorHighlight),
	lipgloss.NewStyle().Foreground(colorTextMuted),
}

// Mode badges
var (
	modeIdleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	modeRotatingStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	modeTransitionStyle = lipgloss.NewStyle().
				Foreground(colorPurple).
				Bold(true)

	focusedBadgeStyle = lipgloss.NewStyle().
				Foreground(colorBg).
				Background(colorYellow).
				Padding(0, 1)
)

// Detail pane
var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorText)

	detailSectionStyle = lipgloss.NewStyle().
				Foreground(colorDivider)

	axisBarStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	axisBarEmptyStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)
)

// Lap residuals
var (
	residualExactStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	residualAheadStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	residualBehindStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	lapHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// Spin history
var (
	spinItemStyle = lipgloss.NewStyle().
			Foreground(colorText)

	spinSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true)

	spinStatusCompleted = lipgloss.NewStyle().
				Foreground(colorGreen)

	spinStatusCancelled = lipgloss.NewStyle().
				Foreground(colorRed)

	spinStatusRunning = lipgloss.NewStyle().
				Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(1, 2)
)
