// Package media turns files and recordings into timeline media sources:
// probing with ffprobe, importing, releasing owned files and driving an
// ffmpeg screen or camera capture.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"clipstudio/internal/timeline"
)

// ErrSourceNotFound is returned when a source id does not resolve.
var ErrSourceNotFound = errors.New("media source not found")

// LoadError reports a media file that could not be opened or probed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load media %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Library creates media sources. Files under Dir belong to the studio
// (recordings) and are deleted when released; imported files elsewhere are
// only referenced.
type Library struct {
	Dir    string
	Prober Prober
	Logger zerolog.Logger
}

// Import probes path and describes it as a new media source.
func (l *Library) Import(ctx context.Context, path string) (timeline.MediaSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return timeline.MediaSource{}, &LoadError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return timeline.MediaSource{}, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return timeline.MediaSource{}, &LoadError{Path: path, Err: errors.New("is a directory")}
	}

	meta, err := l.Prober.Probe(ctx, abs)
	if err != nil {
		return timeline.MediaSource{}, &LoadError{Path: path, Err: err}
	}
	if meta.Duration < timeline.MinClipLength {
		return timeline.MediaSource{}, &LoadError{Path: path, Err: fmt.Errorf("duration %.3fs is too short to edit", meta.Duration)}
	}

	src := timeline.MediaSource{
		ID:       timeline.NewID(),
		Name:     filepath.Base(abs),
		Path:     abs,
		URI:      fileURI(abs),
		Duration: meta.Duration,
		Width:    meta.Width,
		Height:   meta.Height,
	}
	l.Logger.Info().
		Str("source", src.Name).
		Float64("duration", src.Duration).
		Int("width", src.Width).
		Int("height", src.Height).
		Msg("media imported")
	return src, nil
}

// Owns reports whether the library manages the file behind src.
func (l *Library) Owns(src timeline.MediaSource) bool {
	if l.Dir == "" || src.Path == "" {
		return false
	}
	dir, err := filepath.Abs(l.Dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, src.Path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// Release frees a source that was removed from the document. Owned files
// are deleted; referenced files are left alone.
func (l *Library) Release(src timeline.MediaSource) error {
	if !l.Owns(src) {
		return nil
	}
	if err := os.Remove(src.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", src.Path, err)
	}
	l.Logger.Debug().Str("path", src.Path).Msg("owned media removed")
	return nil
}

func fileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
