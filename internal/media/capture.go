package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipstudio/internal/timeline"
)

var (
	// ErrCaptureActive is returned when a capture is already running.
	ErrCaptureActive = errors.New("capture already running")
	// ErrNoCapture is returned when stopping without a running capture.
	ErrNoCapture = errors.New("no capture running")
)

// CaptureError reports a recorder that failed to start or finalize.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Recorder produces an encoded recording at output. Stop flushes buffered
// data and finalizes the file.
type Recorder interface {
	Start(ctx context.Context, output string) error
	Stop() error
}

// CaptureSession wraps a Recorder with the studio's bookkeeping: one
// recording at a time, an elapsed-seconds counter and import of the
// finished file. A failed capture leaves no file and no state behind.
type CaptureSession struct {
	recorder Recorder
	library  *Library
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	active  bool
	started time.Time
	output  string
}

// NewCaptureSession binds rec to lib. Recordings are written to lib.Dir.
func NewCaptureSession(rec Recorder, lib *Library, logger zerolog.Logger) *CaptureSession {
	return &CaptureSession{recorder: rec, library: lib, logger: logger, now: time.Now}
}

// Start begins recording and returns the output path.
func (c *CaptureSession) Start(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return "", ErrCaptureActive
	}
	if err := os.MkdirAll(c.library.Dir, 0o755); err != nil {
		return "", &CaptureError{Op: "start", Err: err}
	}

	started := c.now()
	output := filepath.Join(c.library.Dir, fmt.Sprintf("recording-%s.mp4", started.Format("20060102-150405")))
	if err := c.recorder.Start(ctx, output); err != nil {
		removeQuietly(output)
		return "", &CaptureError{Op: "start", Err: err}
	}
	c.active = true
	c.started = started
	c.output = output
	c.logger.Info().Str("output", output).Msg("capture started")
	return output, nil
}

// Active reports whether a recording is running.
func (c *CaptureSession) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Elapsed returns whole and fractional seconds since Start, or 0.
func (c *CaptureSession) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	return c.now().Sub(c.started).Seconds()
}

// Stop finalizes the recording and imports it as a media source.
func (c *CaptureSession) Stop(ctx context.Context) (timeline.MediaSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return timeline.MediaSource{}, ErrNoCapture
	}
	output, started := c.output, c.started
	c.active = false
	c.output = ""

	if err := c.recorder.Stop(); err != nil {
		removeQuietly(output)
		return timeline.MediaSource{}, &CaptureError{Op: "stop", Err: err}
	}
	src, err := c.library.Import(ctx, output)
	if err != nil {
		removeQuietly(output)
		return timeline.MediaSource{}, &CaptureError{Op: "finalize", Err: err}
	}
	src.Name = "Recording " + started.Format("2006-01-02 15:04:05")
	c.logger.Info().Str("output", output).Float64("duration", src.Duration).Msg("capture stopped")
	return src, nil
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
