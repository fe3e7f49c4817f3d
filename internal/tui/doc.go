// Package tui draws the cube in a terminal and turns keys into cube
// operations.
//
// Two backends share one Controller:
//
//	model.go   bubbletea model, frame ticks and journal reloads
//	screen.go  bare tcell loop for terminals without alt-screen support
//
// The bubbletea views are split by pane: canvas.go draws the projected
// cube, detail.go the live orientation, history.go the journaled spins
// and laps.go the lap residuals of the selected spin.
package tui
