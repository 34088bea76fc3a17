package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"clipstudio/internal/export"
)

// ExportReporter forwards export status changes to a bubbletea program.
type ExportReporter struct {
	send func(tea.Msg)
}

// NewExportReporter wraps a program send func.
func NewExportReporter(send func(tea.Msg)) *ExportReporter {
	return &ExportReporter{send: send}
}

// Progress implements export.ProgressReporter.
func (r *ExportReporter) Progress(st export.Status) {
	r.send(StatusMsg{Status: st})
}

var _ export.ProgressReporter = (*ExportReporter)(nil)
