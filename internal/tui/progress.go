package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"clipstudio/internal/export"
)

const (
	tickInterval = 150 * time.Millisecond
	barWidth     = 32
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives the spinner.
type tickMsg time.Time

// ExportModel is a bubbletea model showing one export: its phase, a
// progress bar and the frame counter.
type ExportModel struct {
	title  string
	status export.Status
	done   bool
	err    error

	// Animation state.
	tick int
}

// NewExportModel creates a model for an export writing to output.
func NewExportModel(title, output string) ExportModel {
	return ExportModel{
		title:  title,
		status: export.Status{Phase: export.PhaseIdle, Output: output},
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m ExportModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case StatusMsg:
		m.status = msg.Status
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m ExportModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteByte('\n')

	phase := string(m.status.Phase)
	fmt.Fprintf(&b, "%s  %s  %s\n",
		StatusStyle(phase).Render(pad(phase, 9)),
		renderBar(m.status.Progress, barWidth),
		frameCounter(m.status))

	if m.status.Output != "" {
		fmt.Fprintf(&b, "→ %s\n", m.status.Output)
	}
	if m.status.Phase == export.PhaseFailed && m.status.Message != "" {
		b.WriteString(StatusStyle("failed").Render(m.status.Message))
		b.WriteByte('\n')
	}

	if !m.done && !m.status.Phase.Done() {
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s %s...\n", spinner, activity(m.status.Phase))
	}
	return b.String()
}

// Status returns the last status the model received.
func (m ExportModel) Status() export.Status {
	return m.status
}

// Done returns whether the model has finished (work done or error).
func (m ExportModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m ExportModel) Err() error {
	return m.err
}

func activity(p export.Phase) string {
	switch p {
	case export.PhasePreparing:
		return "Preparing"
	case export.PhaseRendering:
		return "Rendering"
	default:
		return "Waiting"
	}
}

func frameCounter(s export.Status) string {
	if s.TotalFrames == 0 {
		return ""
	}
	return fmt.Sprintf("%5.1f%%  %d/%d frames", s.Progress, s.Frames, s.TotalFrames)
}

// renderBar draws a width-cell bar filled to pct percent.
func renderBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return barFilled.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", width-filled))
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
