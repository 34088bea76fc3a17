package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/geom"
	"clipstudio/internal/project"
	"clipstudio/internal/timeline"
	"clipstudio/internal/tui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"timeline"},
		Short:   "Show the clip timeline",
		Args:    cobra.NoArgs,
		RunE:    runStatus,
	}
	return cmd
}

type statusClip struct {
	timeline.Clip
	OutputStart    float64 `json:"outputStart"`
	OutputDuration float64 `json:"outputDuration"`
	Frames         int     `json:"frames"`
	Keyframes      int     `json:"keyframes"`
	Selected       bool    `json:"selected"`
}

type statusOutput struct {
	Project       string                 `json:"project"`
	Fingerprint   string                 `json:"fingerprint"`
	CurrentSource string                 `json:"currentSource,omitempty"`
	Sources       []timeline.MediaSource `json:"sources"`
	Clips         []statusClip           `json:"clips"`
	TotalDuration float64                `json:"totalDuration"`
	TotalFrames   int                    `json:"totalFrames"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	out := buildStatus(ws.paths.Root, doc.State())
	if outputJSON {
		return writeJSON(cmd, out)
	}
	writeStatusTable(cmd.OutOrStdout(), out)
	return nil
}

func buildStatus(root string, state editor.State) statusOutput {
	out := statusOutput{
		Project:       root,
		Fingerprint:   project.FromState(state).Fingerprint(),
		CurrentSource: state.CurrentSourceID,
		Sources:       state.Sources,
		Clips:         make([]statusClip, 0, len(state.Clips)),
		TotalDuration: timeline.TotalDuration(state.Clips),
	}
	if out.Sources == nil {
		out.Sources = []timeline.MediaSource{}
	}

	segs := timeline.Segments(state.Clips)
	for i, c := range state.Clips {
		entry := statusClip{
			Clip:           c,
			OutputStart:    segs[i].OutputStart,
			OutputDuration: segs[i].OutputDuration,
			Frames:         geom.FrameCount(c.OutputDuration(), export.FPS),
			Selected:       c.ID == state.SelectedID,
		}
		if c.Animation != nil {
			for _, tr := range c.Animation.Tracks {
				entry.Keyframes += len(tr.Keyframes)
			}
		}
		out.TotalFrames += entry.Frames
		out.Clips = append(out.Clips, entry)
	}
	return out
}

func writeStatusTable(w io.Writer, out statusOutput) {
	fmt.Fprintf(w, "Project: %s\n", out.Project)
	fmt.Fprintf(w, "Sources: %d  Clips: %d  Length: %s  Frames: %d\n",
		len(out.Sources), len(out.Clips), geom.FormatTimecode(out.TotalDuration), out.TotalFrames)
	if len(out.Clips) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "\t#\tNAME\tAT\tLENGTH\tIN\tOUT\tSPEED\tPRESET\tZOOM\tKEYS\tID")
	for i, c := range out.Clips {
		marker := ""
		if c.Selected {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%.2fx\t%s\t%.2f\t%d\t%s\n",
			marker,
			i+1,
			tui.TruncateWithEllipsis(c.Name, 24),
			geom.FormatTimecode(c.OutputStart),
			geom.FormatTimecode(c.OutputDuration),
			geom.FormatTimecode(c.Start),
			geom.FormatTimecode(c.End),
			c.Speed,
			tui.NonEmptyOrDash(c.PresetID),
			c.Zoom,
			c.Keyframes,
			c.ID,
		)
	}
	tw.Flush()
}
