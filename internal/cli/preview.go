package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/geom"
	"clipstudio/internal/logx"
	"clipstudio/internal/preview"
)

var (
	previewAt   float64
	previewFrom float64
	previewStep float64
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the composed preview frames of the timeline",
		Long: `Without --at, plays the timeline against a simulated media clock and prints
one frame per step, crossing cuts the way the live player does. With --at,
prints the single frame at that edited time.`,
		Args: cobra.NoArgs,
		RunE: runPreview,
	}
	cmd.Flags().Float64Var(&previewAt, "at", -1, "Print only the frame at this edited time (seconds)")
	cmd.Flags().Float64Var(&previewFrom, "from", 0, "Edited time to start playback from")
	cmd.Flags().Float64Var(&previewStep, "step", 0.5, "Wall-clock seconds between printed frames")
	return cmd
}

func runPreview(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	var frames []preview.Frame
	if previewAt >= 0 {
		frames = []preview.Frame{preview.FrameAt(doc.Clips(), previewAt)}
	} else {
		frames, err = simulatePlayback(doc.State(), previewFrom, previewStep, logx.WithComponent(ws.logger, "preview"))
		if err != nil {
			return err
		}
	}

	if outputJSON {
		return writeJSON(cmd, frames)
	}
	writeFrames(cmd.OutOrStdout(), frames)
	return nil
}

// simulatePlayback drives the preview over a simulated clock from edited
// time from until the end of the timeline, sampling every step seconds.
func simulatePlayback(state editor.State, from, step float64, logger zerolog.Logger) ([]preview.Frame, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, errors.New("step must be positive")
	}
	if len(state.Clips) == 0 {
		return []preview.Frame{preview.FrameAt(nil, 0)}, nil
	}

	clock := preview.NewSimClock(mediaSpan(state))
	drv := preview.NewDriver(clock, logger)
	if err := drv.SetClips(state.Clips); err != nil {
		return nil, err
	}
	first, err := drv.Seek(from)
	if err != nil {
		return nil, err
	}
	if err := drv.Play(); err != nil {
		return nil, err
	}
	frames := []preview.Frame{first}

	_, total := drv.Position()
	limit := int(math.Ceil(total/step)) + len(state.Clips) + 2
	for i := 0; i < limit; i++ {
		clock.Advance(step)
		f, ok := drv.OnTimeUpdate()
		if !ok {
			continue
		}
		frames = append(frames, f)
		if f.Ended {
			break
		}
	}
	return frames, nil
}

// mediaSpan is the length of the simulated media element: long enough to
// hold every clip's source window.
func mediaSpan(state editor.State) float64 {
	span := 0.0
	for _, c := range state.Clips {
		if src, ok := state.SourceFor(c); ok && src.Duration > span {
			span = src.Duration
		}
		span = math.Max(span, c.End)
	}
	return span
}

func writeFrames(w io.Writer, frames []preview.Frame) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "EDITED\tSOURCE\tCLIP\tLOCAL\tSCALE\tROTATE\tPAN\tOPACITY\tSTATE")
	for _, f := range frames {
		state := "paused"
		switch {
		case f.Ended:
			state = "ended"
		case f.Playing:
			state = "playing"
		}
		clip := "-"
		if f.ClipIndex >= 0 {
			clip = fmt.Sprintf("%d", f.ClipIndex+1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.3f\t%.1f\t%+.3f,%+.3f\t%.2f\t%s\n",
			geom.FormatTimecode(f.EditedTime),
			geom.FormatTimecode(f.SourceTime),
			clip,
			f.Local,
			f.Transform.Scale,
			f.Transform.Rotation,
			f.Transform.PanX,
			f.Transform.PanY,
			f.Transform.Opacity,
			state,
		)
	}
	tw.Flush()
}
