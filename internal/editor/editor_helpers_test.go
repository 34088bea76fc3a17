package editor

import (
	"testing"

	"github.com/rs/zerolog"

	"clipstudio/internal/timeline"
)

func newTestDocument(t *testing.T, duration float64) *Document {
	t.Helper()
	d := New(zerolog.Nop())
	d.AddSource(timeline.MediaSource{ID: "src", Name: "take.mp4", Duration: duration, Width: 1920, Height: 1080})
	return d
}

func mustAdd(t *testing.T, d *Document, at float64) string {
	t.Helper()
	id, ok := d.AddClip(at, "")
	if !ok {
		t.Fatalf("AddClip(%v) rejected", at)
	}
	return id
}

func zeroLogger() zerolog.Logger {
	return zerolog.Nop()
}
