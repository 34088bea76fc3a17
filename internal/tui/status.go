package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"clipstudio/internal/geom"
)

// StatusWriter prints a spinning status line to a writer. It runs in the
// background and redraws the line in place, followed by an elapsed clock.
// The record command uses it while a capture is running.
type StatusWriter struct {
	w       io.Writer
	mu      sync.Mutex
	label   string
	message string
	elapsed func() time.Duration
	done    chan struct{}
	stopped bool
}

// NewStatusWriter starts a background spinner that renders the current
// status to w every 100ms. elapsed supplies the clock; nil counts from now.
func NewStatusWriter(w io.Writer, label string, elapsed func() time.Duration) *StatusWriter {
	if elapsed == nil {
		start := time.Now()
		elapsed = func() time.Duration { return time.Since(start) }
	}
	sw := &StatusWriter{
		w:       w,
		label:   label,
		elapsed: elapsed,
		done:    make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update changes the message shown after the label.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.mu.Unlock()
}

// Stop clears the status line and stops the spinner.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	sw.mu.Unlock()
	close(sw.done)
	fmt.Fprintf(sw.w, "\r\033[K")
}

func (sw *StatusWriter) loop() {
	tick := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			line := sw.line(tick)
			sw.mu.Unlock()
			tick++
			fmt.Fprintf(sw.w, "\r\033[K%s", line)
		}
	}
}

func (sw *StatusWriter) line(tick int) string {
	spinner := spinnerFrames[tick%len(spinnerFrames)]
	line := fmt.Sprintf("%s %s %s", spinner, StatusStyle(sw.label).Render(sw.label), geom.FormatTimecode(sw.elapsed().Seconds()))
	if sw.message != "" {
		line += "  " + sw.message
	}
	return line
}
