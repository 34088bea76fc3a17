package tui

import "clipstudio/internal/export"

// StatusMsg carries the latest export status.
type StatusMsg struct {
	Status export.Status
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
