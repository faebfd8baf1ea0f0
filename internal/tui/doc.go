// Package tui shows a live stage list while a flow runs, using bubbletea.
package tui
