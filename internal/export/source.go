package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	"clipstudio/internal/timeline"
	"clipstudio/internal/tools"
)

// FrameSource yields decoded frames of one media source. Seek returns only
// once the frame at t is fully decoded, so callers never draw a stale frame.
type FrameSource interface {
	Seek(ctx context.Context, t float64) (*image.RGBA, error)
	Close() error
}

// SourceOpener opens a detached frame source for export, independent of any
// live preview handle.
type SourceOpener interface {
	Open(ctx context.Context, src timeline.MediaSource) (FrameSource, error)
}

// FFmpegOpener decodes single frames with ffmpeg.
type FFmpegOpener struct {
	Runner tools.Runner
	FFmpeg string
}

// Open validates src and returns a frame source over it.
func (o FFmpegOpener) Open(_ context.Context, src timeline.MediaSource) (FrameSource, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("source %s has no file", src.Name)
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("source %s has unknown dimensions", src.Name)
	}
	return &ffmpegSource{
		runner: o.Runner,
		ffmpeg: o.FFmpeg,
		src:    src,
		pool:   newFramePool(),
	}, nil
}

type ffmpegSource struct {
	runner tools.Runner
	ffmpeg string
	src    timeline.MediaSource
	pool   *framePool
}

func (s *ffmpegSource) args(t float64) []string {
	return []string{
		"-hide_banner",
		"-v", "error",
		"-ss", strconv.FormatFloat(t, 'f', 6, 64),
		"-i", s.src.Path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", s.src.Width, s.src.Height),
		"-",
	}
}

func (s *ffmpegSource) Seek(ctx context.Context, t float64) (*image.RGBA, error) {
	img := s.pool.get(image.Rect(0, 0, s.src.Width, s.src.Height))

	w := &frameWriter{pix: img.Pix}
	res, err := s.runner.Run(ctx, s.ffmpeg, s.args(t), tools.RunOptions{Stdout: w})
	if err != nil {
		s.pool.put(img)
		return nil, fmt.Errorf("decode %.3fs: %w: %s", t, err, bytes.TrimSpace(res.Stderr))
	}
	if w.n < len(img.Pix) {
		s.pool.put(img)
		if w.n == 0 {
			return nil, fmt.Errorf("decode %.3fs: no frame", t)
		}
		return nil, fmt.Errorf("decode %.3fs: short frame (%d of %d bytes)", t, w.n, len(img.Pix))
	}
	return img, nil
}

// Release hands a frame back for reuse.
func (s *ffmpegSource) Release(img *image.RGBA) {
	s.pool.put(img)
}

func (s *ffmpegSource) Close() error {
	return nil
}

// releaser is implemented by sources that recycle frame buffers.
type releaser interface {
	Release(*image.RGBA)
}

var errFrameOverflow = errors.New("decoder wrote more than one frame")

// frameWriter fills a preallocated pixel buffer.
type frameWriter struct {
	pix []byte
	n   int
}

func (w *frameWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > len(w.pix) {
		return 0, errFrameOverflow
	}
	copy(w.pix[w.n:], p)
	w.n += len(p)
	return len(p), nil
}
