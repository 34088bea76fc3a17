package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/media"
	"clipstudio/internal/tools"
)

const recordingProbe = `{
  "streams": [{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}],
  "format": {"format_name": "mov,mp4", "duration": "4.000000"}
}`

type probeStub struct{}

func (probeStub) Run(context.Context, string, []string, tools.RunOptions) (tools.RunResult, error) {
	return tools.RunResult{Stdout: []byte(recordingProbe)}, nil
}

type fileRecorder struct {
	output   string
	startErr error
}

func (r *fileRecorder) Start(_ context.Context, output string) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.output = output
	return os.WriteFile(output, []byte("recording"), 0o644)
}

func (r *fileRecorder) Stop() error { return nil }

func newRecordFixture(t *testing.T, rec media.Recorder) (*media.CaptureSession, *editor.Document, *cobra.Command, *bytes.Buffer) {
	t.Helper()
	lib := &media.Library{
		Dir:    filepath.Join(t.TempDir(), "media"),
		Prober: media.Prober{Runner: probeStub{}, FFprobe: "ffprobe"},
		Logger: zerolog.Nop(),
	}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(""))
	return media.NewCaptureSession(rec, lib, zerolog.Nop()), editor.New(zerolog.Nop()), cmd, &out
}

func TestRecordSessionAddsSource(t *testing.T) {
	rec := &fileRecorder{}
	session, doc, cmd, out := newRecordFixture(t, rec)

	src, err := recordSession(context.Background(), cmd, session, doc, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != rec.output || src.Duration != 4 || src.Width != 1280 {
		t.Errorf("unexpected source %+v", src)
	}

	state := doc.State()
	if len(state.Sources) != 1 || state.CurrentSourceID != src.ID {
		t.Fatalf("sources = %+v, current = %q", state.Sources, state.CurrentSourceID)
	}
	if state.Capture.Recording || state.Capture.Message != "" {
		t.Errorf("capture status = %+v", state.Capture)
	}
	if !strings.Contains(out.String(), "recording to "+rec.output) {
		t.Errorf("output = %q", out.String())
	}
}

func TestRecordSessionStartFailure(t *testing.T) {
	session, doc, cmd, _ := newRecordFixture(t, &fileRecorder{startErr: errors.New("device busy")})

	_, err := recordSession(context.Background(), cmd, session, doc, time.Millisecond)
	var ce *media.CaptureError
	if !errors.As(err, &ce) || ce.Op != "start" {
		t.Fatalf("err = %v, want start CaptureError", err)
	}
	state := doc.State()
	if len(state.Sources) != 0 {
		t.Errorf("failed capture registered %d sources", len(state.Sources))
	}
	if state.Capture.Recording || !strings.Contains(state.Capture.Message, "device busy") {
		t.Errorf("capture status = %+v", state.Capture)
	}
}

func TestWaitForStop(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		limit  time.Duration
		cancel bool
	}{
		{"enter", "\n", 0, false},
		{"limit", "", 10 * time.Millisecond, false},
		{"cancelled", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			done := make(chan struct{})
			go func() {
				waitForStop(ctx, strings.NewReader(tt.in), tt.limit)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("waitForStop did not return")
			}
		})
	}
}
