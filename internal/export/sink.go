package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clipstudio/internal/tools"
)

// Sink consumes composited frames at a fixed rate. Close finalizes a
// playable file; Abort discards everything written so far.
type Sink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
	Abort() error
}

// SinkFactory creates the encoder for one export.
type SinkFactory interface {
	Create(ctx context.Context, output string, width, height, fps int) (Sink, error)
}

// Encoding selects the encoder and its quality.
type Encoding struct {
	Codec  string
	CRF    int
	Preset string
	PixFmt string
}

// FFmpegSinks streams raw RGBA frames into ffmpeg over stdin.
type FFmpegSinks struct {
	Runner   tools.Runner
	FFmpeg   string
	Encoding Encoding
}

// Args builds the encoder command line writing to path.
func (f FFmpegSinks) Args(path string, width, height, fps int) []string {
	codec := f.Encoding.Codec
	if codec == "" || codec == "auto" {
		codec = tools.DefaultEncoder
	}
	pixFmt := f.Encoding.PixFmt
	if pixFmt == "" {
		pixFmt = "yuv420p"
	}
	args := []string{
		"-hide_banner",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", codec,
	}
	args = append(args, tools.QualityArgs(codec, f.Encoding.CRF, f.Encoding.Preset)...)
	args = append(args, "-pix_fmt", pixFmt, "-r", strconv.Itoa(fps))
	format := containerFormat(path)
	if format == "mp4" || format == "mov" {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, "-f", format, path)
}

// Create starts ffmpeg writing to a temporary file next to output. The
// file is renamed into place only when Close succeeds.
func (f FFmpegSinks) Create(ctx context.Context, output string, width, height, fps int) (Sink, error) {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("prepare output dir: %w", err)
	}
	tmp := partialPath(output)

	runCtx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		res, err := f.Runner.Run(runCtx, f.FFmpeg, f.Args(tmp, width, height, fps), tools.RunOptions{Stdin: pr})
		if err != nil {
			err = fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(res.Stderr)))
		}
		pr.CloseWithError(errEncoderExited)
		done <- err
	}()

	return &ffmpegSink{
		output: output,
		tmp:    tmp,
		stdin:  pw,
		done:   done,
		cancel: cancel,
		frame:  width * height * 4,
	}, nil
}

var errEncoderExited = errors.New("encoder exited")

type ffmpegSink struct {
	output string
	tmp    string
	stdin  *io.PipeWriter
	done   chan error
	cancel context.CancelFunc
	frame  int
	closed bool
}

func (s *ffmpegSink) WriteFrame(img *image.RGBA) error {
	if s.closed {
		return errors.New("sink closed")
	}
	if len(img.Pix) != s.frame || img.Stride != img.Rect.Dx()*4 {
		return fmt.Errorf("frame is %d bytes, encoder expects %d", len(img.Pix), s.frame)
	}
	if _, err := s.stdin.Write(img.Pix); err != nil {
		if errors.Is(err, errEncoderExited) {
			return s.wait()
		}
		return err
	}
	return nil
}

func (s *ffmpegSink) wait() error {
	err := <-s.done
	s.done <- err
	if err == nil {
		err = errEncoderExited
	}
	return err
}

func (s *ffmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.cancel()
	s.stdin.Close()
	if err := <-s.done; err != nil {
		_ = os.Remove(s.tmp)
		return err
	}
	if err := os.Rename(s.tmp, s.output); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func (s *ffmpegSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.CloseWithError(errors.New("export aborted"))
	s.cancel()
	<-s.done
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func partialPath(output string) string {
	dir, base := filepath.Split(output)
	return filepath.Join(dir, "."+base+".partial")
}

func containerFormat(path string) string {
	name := strings.TrimSuffix(path, ".partial")
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mov":
		return "mov"
	case ".mkv":
		return "matroska"
	case ".webm":
		return "webm"
	default:
		return "mp4"
	}
}
