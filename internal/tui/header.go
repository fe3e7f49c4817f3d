package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader produces the top bar:
//
//	CUBESPIN  |  #the-cube  |  rotating  |  focused
func renderHeader(m *Model) string {
	c := m.app.Cube
	sep := headerSepStyle.Render(" │ ")

	parts := []string{
		headerBrandStyle.Render("CUBESPIN"),
		sep,
		headerMetaStyle.Render(c.Selector()),
		sep,
		modeStyle(c.Mode()).Render(c.Mode().String()),
	}
	if c.Focused() {
		parts = append(parts, sep, focusedBadgeStyle.Render("focused"))
	}
	if m.app.Bridge.Touch() {
		parts = append(parts, sep, headerMetaStyle.Render("touch"))
	}

	return headerBarStyle.Width(m.width).Render(strings.Join(parts, ""))
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left string
	if m.statusMsg != "" {
		left = statusStyle.Render(m.statusMsg)
	}
	right := renderHints(keyHints)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		Render(bar)
}

func renderHints(hints []keyHint) string {
	var parts []string
	for _, h := range hints {
		parts = append(parts,
			hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
