package cli

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/geom"
	"clipstudio/internal/logx"
	"clipstudio/internal/media"
	"clipstudio/internal/timeline"
	"clipstudio/internal/tui"
)

var (
	recordDuration time.Duration
	recordClip     bool
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture the screen or camera into a new media source",
		Long: `Records with ffmpeg using the capture section of studio.yaml. Recording stops
after --duration, on Enter, or on interrupt; the finished file is added to the
project as a media source.`,
		Args: cobra.NoArgs,
		RunE: runRecord,
	}
	cmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop automatically after this long (0 waits for Enter or interrupt)")
	cmd.Flags().BoolVar(&recordClip, "clip", false, "Append a clip from the start of the recording")
	return cmd
}

func runRecord(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	bins, err := ws.binaries()
	if err != nil {
		return err
	}
	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	rec := &media.FFmpegRecorder{
		Runner:    ws.runner,
		FFmpeg:    bins.FFmpeg,
		Format:    ws.cfg.Capture.Format,
		Input:     ws.cfg.Capture.Input,
		Framerate: ws.cfg.Capture.Framerate,
	}
	session := media.NewCaptureSession(rec, ws.library(bins), logx.WithComponent(ws.logger, "capture"))

	src, err := recordSession(cmd.Context(), cmd, session, doc, recordDuration)
	if err != nil {
		return err
	}

	var clipID string
	if recordClip {
		clipID, _ = doc.AddClipFrom(src.ID, 0, "")
	}
	if err := ws.save(doc.State()); err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, importedSource{Source: src, ClipID: clipID})
	}
	cmd.Printf("recorded %s (%s) as %s\n", src.Path, geom.FormatTimecode(src.Duration), src.ID)
	if clipID != "" {
		cmd.Printf("  added clip %s\n", clipID)
	}
	return nil
}

// recordSession runs one capture until ctx ends, limit elapses or a line
// arrives on stdin, then registers the recording with doc. The document's
// capture status follows the session; a failure leaves no source behind.
func recordSession(ctx context.Context, cmd *cobra.Command, session *media.CaptureSession, doc *editor.Document, limit time.Duration) (timeline.MediaSource, error) {
	// ffmpeg must outlive an interrupt long enough to be stopped cleanly.
	output, err := session.Start(context.WithoutCancel(ctx))
	if err != nil {
		doc.SetCaptureStatus(editor.CaptureStatus{Message: err.Error()})
		return timeline.MediaSource{}, err
	}
	doc.SetCaptureStatus(editor.CaptureStatus{Recording: true})

	var status *tui.StatusWriter
	if tui.DetectMode(cmd.OutOrStdout(), false, outputJSON) == tui.ModeTUI {
		status = tui.NewStatusWriter(cmd.OutOrStdout(), "recording", func() time.Duration {
			return time.Duration(session.Elapsed() * float64(time.Second))
		})
		status.Update("press Enter to stop")
	} else if !outputJSON {
		cmd.Printf("recording to %s\n", output)
	}

	waitForStop(ctx, cmd.InOrStdin(), limit)
	elapsed := session.Elapsed()
	if status != nil {
		status.Stop()
	}

	// The capture context may already be cancelled by the interrupt that
	// stopped us; finalizing still needs to probe the file.
	src, err := session.Stop(context.WithoutCancel(ctx))
	if err != nil {
		doc.SetCaptureStatus(editor.CaptureStatus{Elapsed: elapsed, Message: err.Error()})
		return timeline.MediaSource{}, err
	}
	doc.SetCaptureStatus(editor.CaptureStatus{Elapsed: elapsed})
	doc.AddSource(src)
	return src, nil
}

// waitForStop blocks until ctx is done, limit passes (when positive) or a
// line is read from in. EOF on in is ignored.
func waitForStop(ctx context.Context, in io.Reader, limit time.Duration) {
	var timeout <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		timeout = timer.C
	}

	enter := make(chan struct{})
	if limit <= 0 && in != nil {
		go func() {
			if _, err := bufio.NewReader(in).ReadString('\n'); err == nil {
				close(enter)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case <-timeout:
	case <-enter:
	}
}
