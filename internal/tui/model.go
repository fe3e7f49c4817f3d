package tui

import (
	"fmt"
	"time"

	"github.com/Mr-Dark-debug/cubespin/internal/app"
	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ────────────────────────────────────────────────────────────
// Pane focuses
// ────────────────────────────────────────────────────────────

// Pane represents which UI pane currently has keyboard focus.
type Pane int

const (
	PaneCube Pane = iota
	PaneHistory
	PaneLaps
)

// historyLimit caps how many spins the history pane loads.
const historyLimit = 100

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Model is the root bubbletea model. Update ticks the app's frame loop,
// so every cube operation runs on the bubbletea goroutine.
type Model struct {
	app  *app.App
	ctrl *Controller

	// Journal
	spins   []*database.SpinRecord
	stats   *database.SpinStats
	laps    []*database.LapRecord
	lapsFor string

	// UI state
	activePane   Pane
	selectedSpin int
	lapScroll    int
	width        int
	height       int

	// Status
	statusMsg string
	err       error
}

// NewModel creates a model for a built app.
func NewModel(a *app.App) Model {
	return Model{
		app:       a,
		ctrl:      NewController(a),
		statusMsg: "Ready",
	}
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type frameMsg time.Time

type historyLoadedMsg struct {
	spins []*database.SpinRecord
	stats *database.SpinStats
}

type lapsLoadedMsg struct {
	spinID string
	laps   []*database.LapRecord
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.loadHistory())
}

func tick() tea.Cmd {
	return tea.Tick(frame.Interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) loadHistory() tea.Cmd {
	if m.app.DB == nil {
		return nil
	}
	db := m.app.DB
	return func() tea.Msg {
		spins, err := db.QuerySpins(database.SpinFilter{Limit: historyLimit})
		if err != nil {
			return errMsg{err}
		}
		stats, err := db.GetSpinStats()
		if err != nil {
			return errMsg{err}
		}
		return historyLoadedMsg{spins: spins, stats: stats}
	}
}

func (m Model) loadLaps(spinID string) tea.Cmd {
	if m.app.DB == nil {
		return nil
	}
	db := m.app.DB
	return func() tea.Msg {
		laps, err := db.QueryLaps(spinID)
		if err != nil {
			return errMsg{err}
		}
		return lapsLoadedMsg{spinID: spinID, laps: laps}
	}
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m.app.Loop.Tick()
		// Reload the journal about once a second.
		if m.app.Loop.Frames()%frame.Rate == 0 {
			return m, tea.Batch(tick(), m.loadHistory())
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case historyLoadedMsg:
		m.spins = msg.spins
		m.stats = msg.stats
		m.selectedSpin = clamp(m.selectedSpin, 0, max(len(m.spins)-1, 0))
		return m, nil

	case lapsLoadedMsg:
		m.laps = msg.laps
		m.lapsFor = msg.spinID
		m.lapScroll = 0
		return m, nil

	case errMsg:
		m.err = msg.err
		m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		return m, nil
	}

	return m, nil
}

// handleKey routes navigation keys to the focused pane and everything
// else to the controller.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "tab":
		m.activePane = (m.activePane + 1) % 3
		return m, nil
	case "shift+tab":
		m.activePane = (m.activePane + 2) % 3
		return m, nil
	}

	switch m.activePane {
	case PaneHistory:
		switch key {
		case "j", "down":
			if m.selectedSpin < len(m.spins)-1 {
				m.selectedSpin++
				return m, m.loadLaps(m.spins[m.selectedSpin].SpinID)
			}
			return m, nil
		case "k", "up":
			if m.selectedSpin > 0 {
				m.selectedSpin--
				return m, m.loadLaps(m.spins[m.selectedSpin].SpinID)
			}
			return m, nil
		case "l":
			if m.selectedSpin < len(m.spins) {
				return m, m.loadLaps(m.spins[m.selectedSpin].SpinID)
			}
			return m, nil
		}

	case PaneLaps:
		switch key {
		case "j", "down":
			m.lapScroll++
			return m, nil
		case "k", "up":
			if m.lapScroll > 0 {
				m.lapScroll--
			}
			return m, nil
		}
	}

	status, quit := m.ctrl.HandleKey(key)
	if quit {
		return m, tea.Quit
	}
	if status != "" {
		m.statusMsg = status
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	bodyHeight := m.height - 2 // header + footer

	var body string
	if m.width < 80 {
		body = m.renderCompactLayout(bodyHeight)
	} else {
		body = m.renderMainLayout(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderMainLayout puts the cube on the left, the orientation detail
// top right and the focused journal pane bottom right.
func (m Model) renderMainLayout(totalHeight int) string {
	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth
	topHeight := totalHeight * 55 / 100
	bottomHeight := totalHeight - topHeight

	cube := renderCanvasPanel(&m, leftWidth, totalHeight)
	detail := renderDetailPanel(&m, rightWidth, topHeight)

	var journal string
	if m.activePane == PaneLaps {
		journal = renderLapsPanel(&m, rightWidth, bottomHeight)
	} else {
		journal = renderHistoryPanel(&m, rightWidth, bottomHeight)
	}

	right := lipgloss.JoinVertical(lipgloss.Left, detail, journal)
	return lipgloss.JoinHorizontal(lipgloss.Top, cube, right)
}

// renderCompactLayout is used on narrow terminals. Only the focused
// pane is shown.
func (m Model) renderCompactLayout(totalHeight int) string {
	switch m.activePane {
	case PaneHistory:
		return renderHistoryPanel(&m, m.width, totalHeight)
	case PaneLaps:
		return renderLapsPanel(&m, m.width, totalHeight)
	default:
		return renderCanvasPanel(&m, m.width, totalHeight)
	}
}
