package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipstudio/internal/timeline"
	"clipstudio/internal/tools"
)

const probeJSON = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "duration": "12.000000"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.480000"}
}`

type probeRunner struct {
	stdout string
	err    error
}

func (r probeRunner) Run(context.Context, string, []string, tools.RunOptions) (tools.RunResult, error) {
	return tools.RunResult{Stdout: []byte(r.stdout), Stderr: []byte("boom\nmore")}, r.err
}

func newLibrary(t *testing.T, runner tools.Runner) *Library {
	t.Helper()
	return &Library{
		Dir:    filepath.Join(t.TempDir(), "media"),
		Prober: Prober{Runner: runner, FFprobe: "ffprobe"},
		Logger: zerolog.Nop(),
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProbeParsesVideoStream(t *testing.T) {
	p := Prober{Runner: probeRunner{stdout: probeJSON}, FFprobe: "ffprobe"}
	got, err := p.Probe(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration != 12.48 || got.Width != 1920 || got.Height != 1080 || got.Codec != "h264" {
		t.Errorf("unexpected probe %+v", got)
	}
}

func TestProbeRejectsAudioOnly(t *testing.T) {
	p := Prober{Runner: probeRunner{stdout: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"3"}}`}}
	if _, err := p.Probe(context.Background(), "song.m4a"); !errors.Is(err, errNoVideo) {
		t.Fatalf("err = %v, want errNoVideo", err)
	}
}

func TestImport(t *testing.T) {
	lib := newLibrary(t, probeRunner{stdout: probeJSON})
	path := filepath.Join(t.TempDir(), "take.mp4")
	touch(t, path)

	src, err := lib.Import(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if src.ID == "" || src.Name != "take.mp4" || src.Duration != 12.48 {
		t.Errorf("unexpected source %+v", src)
	}
	if !strings.HasPrefix(src.URI, "file://") {
		t.Errorf("uri = %q", src.URI)
	}
	if lib.Owns(src) {
		t.Error("imported file outside the media dir should not be owned")
	}
}

func TestImportFailuresAreLoadErrors(t *testing.T) {
	lib := newLibrary(t, probeRunner{err: errors.New("exit status 1")})
	path := filepath.Join(t.TempDir(), "broken.mp4")
	touch(t, path)

	for _, p := range []string{path, filepath.Join(t.TempDir(), "missing.mp4")} {
		_, err := lib.Import(context.Background(), p)
		var le *LoadError
		if !errors.As(err, &le) {
			t.Errorf("Import(%s) err = %v, want *LoadError", p, err)
		}
	}
}

func TestReleaseRemovesOwnedFilesOnly(t *testing.T) {
	lib := newLibrary(t, probeRunner{stdout: probeJSON})
	owned := filepath.Join(lib.Dir, "recording.mp4")
	touch(t, owned)
	outside := filepath.Join(t.TempDir(), "keep.mp4")
	touch(t, outside)

	if err := lib.Release(timeline.MediaSource{Path: owned}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(owned); !os.IsNotExist(err) {
		t.Error("owned recording not removed")
	}
	if err := lib.Release(timeline.MediaSource{Path: outside}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("referenced file was removed")
	}
}

type fakeRecorder struct {
	output   string
	startErr error
	stopErr  error
}

func (f *fakeRecorder) Start(_ context.Context, output string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.output = output
	return os.WriteFile(output, []byte("partial"), 0o644)
}

func (f *fakeRecorder) Stop() error { return f.stopErr }

func TestCaptureSessionLifecycle(t *testing.T) {
	lib := newLibrary(t, probeRunner{stdout: probeJSON})
	rec := &fakeRecorder{}
	session := NewCaptureSession(rec, lib, zerolog.Nop())
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	session.now = func() time.Time { return clock }

	out, err := session.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := session.Start(context.Background()); !errors.Is(err, ErrCaptureActive) {
		t.Errorf("second start err = %v", err)
	}

	clock = clock.Add(2500 * time.Millisecond)
	if got := session.Elapsed(); got != 2.5 {
		t.Errorf("elapsed = %v, want 2.5", got)
	}

	src, err := session.Stop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != out || !lib.Owns(src) {
		t.Errorf("recording not registered as owned media: %+v", src)
	}
	if session.Active() || session.Elapsed() != 0 {
		t.Error("session still active after stop")
	}
	if _, err := session.Stop(context.Background()); !errors.Is(err, ErrNoCapture) {
		t.Errorf("second stop err = %v", err)
	}
}

func TestCaptureFailureLeavesNothingBehind(t *testing.T) {
	lib := newLibrary(t, probeRunner{stdout: probeJSON})
	denied := errors.New("permission denied")

	session := NewCaptureSession(&fakeRecorder{startErr: denied}, lib, zerolog.Nop())
	_, err := session.Start(context.Background())
	var ce *CaptureError
	if !errors.As(err, &ce) || !errors.Is(err, denied) {
		t.Fatalf("err = %v, want CaptureError wrapping denial", err)
	}
	if session.Active() {
		t.Error("failed start left the session active")
	}

	rec := &fakeRecorder{stopErr: errors.New("muxer failed")}
	session = NewCaptureSession(rec, lib, zerolog.Nop())
	if _, err := session.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Stop(context.Background()); !errors.As(err, &ce) {
		t.Fatalf("stop err = %v", err)
	}
	if _, err := os.Stat(rec.output); !os.IsNotExist(err) {
		t.Error("partial recording left on disk")
	}
}

// stdinRunner behaves like ffmpeg: it runs until 'q' arrives on stdin.
type stdinRunner struct {
	args chan []string
}

func (r stdinRunner) Run(ctx context.Context, _ string, args []string, opts tools.RunOptions) (tools.RunResult, error) {
	r.args <- args
	buf := make([]byte, 1)
	for {
		if _, err := opts.Stdin.Read(buf); err != nil {
			if err == io.EOF {
				return tools.RunResult{}, errors.New("stdin closed without quit")
			}
			return tools.RunResult{}, err
		}
		if buf[0] == 'q' {
			return tools.RunResult{}, nil
		}
	}
}

func TestFFmpegRecorderQuitsGracefully(t *testing.T) {
	runner := stdinRunner{args: make(chan []string, 1)}
	rec := &FFmpegRecorder{
		Runner:       runner,
		FFmpeg:       "ffmpeg",
		Format:       "x11grab",
		Input:        ":0.0",
		StartupGrace: 20 * time.Millisecond,
	}
	if err := rec.Start(context.Background(), "out.mp4"); err != nil {
		t.Fatal(err)
	}
	args := <-runner.args
	if args[len(args)-1] != "out.mp4" || !contains(args, "x11grab") {
		t.Errorf("unexpected args %v", args)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := rec.Stop(); !errors.Is(err, ErrNoCapture) {
		t.Errorf("second stop err = %v", err)
	}
}

func TestFFmpegRecorderReportsEarlyExit(t *testing.T) {
	rec := &FFmpegRecorder{
		Runner:       probeRunner{err: errors.New("exit status 1")},
		FFmpeg:       "ffmpeg",
		Format:       "avfoundation",
		Input:        "1:none",
		StartupGrace: time.Second,
	}
	if err := rec.Start(context.Background(), "out.mp4"); err == nil {
		t.Fatal("expected start to fail")
	}
	if err := rec.Stop(); !errors.Is(err, ErrNoCapture) {
		t.Errorf("stop after failed start err = %v", err)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
