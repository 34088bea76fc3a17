package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"clipstudio/internal/tools"
)

// FFmpegRecorder captures a device with ffmpeg. Format and Input are the
// demuxer and device ffmpeg should read, e.g. "x11grab" and ":0.0" or
// "avfoundation" and "1:none".
type FFmpegRecorder struct {
	Runner    tools.Runner
	FFmpeg    string
	Format    string
	Input     string
	Framerate int
	// StartupGrace is how long Start waits for ffmpeg to fail on a bad
	// device or denied permission before reporting success.
	StartupGrace time.Duration
	StopTimeout  time.Duration

	mu     sync.Mutex
	stdin  *io.PipeWriter
	done   chan error
	cancel context.CancelFunc
}

// Args builds the ffmpeg command line for output.
func (r *FFmpegRecorder) Args(output string) []string {
	rate := r.Framerate
	if rate <= 0 {
		rate = 30
	}
	return []string{
		"-hide_banner",
		"-y",
		"-f", r.Format,
		"-framerate", strconv.Itoa(rate),
		"-i", r.Input,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		output,
	}
}

// Start launches ffmpeg in the background.
func (r *FFmpegRecorder) Start(ctx context.Context, output string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrCaptureActive
	}
	if r.Format == "" || r.Input == "" {
		return errors.New("capture format and input must be configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		res, err := r.Runner.Run(runCtx, r.FFmpeg, r.Args(output), tools.RunOptions{Stdin: pr})
		if err != nil {
			err = fmt.Errorf("ffmpeg: %w: %s", err, firstLine(res.Stderr))
		}
		pr.Close()
		done <- err
	}()

	grace := r.StartupGrace
	if grace <= 0 {
		grace = 500 * time.Millisecond
	}
	select {
	case err := <-done:
		cancel()
		pw.Close()
		if err == nil {
			err = errors.New("recorder exited immediately")
		}
		return err
	case <-time.After(grace):
	}

	r.stdin = pw
	r.done = done
	r.cancel = cancel
	return nil
}

// Stop asks ffmpeg to quit, which flushes and finalizes the container.
func (r *FFmpegRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return ErrNoCapture
	}
	stdin, done, cancel := r.stdin, r.done, r.cancel
	r.stdin, r.done, r.cancel = nil, nil, nil
	defer cancel()

	// ffmpeg reads 'q' from stdin as a graceful quit.
	_, _ = io.WriteString(stdin, "q")
	stdin.Close()

	timeout := r.StopTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		cancel()
		<-done
		return errors.New("recorder did not finalize in time")
	}
}
