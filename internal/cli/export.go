package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/tui"
)

var (
	exportOutput     string
	exportNoProgress bool
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the timeline to a video file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file; a bare name lands in the exports directory")
	cmd.Flags().BoolVar(&exportNoProgress, "no-progress", false, "Print plain progress lines instead of the interactive view")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}
	return exportDocument(cmd, ws, doc, exportOutput)
}

// exportDocument renders doc's current clip list to the named output using
// the progress style picked for the command's stdout.
func exportDocument(cmd *cobra.Command, ws *workspace, doc *editor.Document, name string) error {
	state := doc.State()
	if len(state.Clips) == 0 {
		return exportExitError(export.ErrNoClips)
	}

	bins, err := ws.binaries()
	if err != nil {
		return err
	}
	renderer := ws.renderer(cmd.Context(), bins)
	job := state.ExportJob(ws.paths.ExportFile(name))

	mode := tui.DetectMode(cmd.OutOrStdout(), exportNoProgress, outputJSON)
	st, err := runRender(cmd.Context(), cmd.OutOrStdout(), mode, renderer, job)

	if mode == tui.ModeJSON {
		if werr := writeJSON(cmd, st); werr != nil {
			return werr
		}
	} else if err == nil {
		cmd.Printf("exported %d frames to %s\n", st.TotalFrames, st.Output)
	}
	return exportExitError(err)
}

func runRender(ctx context.Context, out io.Writer, mode tui.OutputMode, r *export.Renderer, job export.Job) (export.Status, error) {
	switch mode {
	case tui.ModeTUI:
		return renderInteractive(ctx, out, r, job)
	case tui.ModePlain:
		return r.Render(ctx, job, newPlainReporter(out))
	default:
		return r.Render(ctx, job, nil)
	}
}

func renderInteractive(ctx context.Context, out io.Writer, r *export.Renderer, job export.Job) (export.Status, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		final     export.Status
		renderErr error
		finished  = make(chan struct{})
	)
	model := tui.NewExportModel("Exporting "+filepath.Base(job.Output), job.Output)
	_, uiErr := tui.RunWithWork(out, model, func(send func(tea.Msg)) error {
		defer close(finished)
		final, renderErr = r.Render(ctx, job, tui.NewExportReporter(send))
		return renderErr
	})

	// Quitting the view cancels the export; wait for partial output cleanup.
	cancel()
	<-finished

	if renderErr != nil {
		return final, renderErr
	}
	if uiErr != nil {
		return final, fmt.Errorf("progress view: %w", uiErr)
	}
	return final, nil
}

// plainReporter prints one line per phase change or progress update.
type plainReporter struct {
	out io.Writer

	mu    sync.Mutex
	phase export.Phase
	frame int
}

func newPlainReporter(out io.Writer) *plainReporter {
	return &plainReporter{out: out}
}

func (p *plainReporter) Progress(st export.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st.Phase == p.phase && st.Frames == p.frame {
		return
	}
	p.phase, p.frame = st.Phase, st.Frames

	switch st.Phase {
	case export.PhaseRendering:
		fmt.Fprintf(p.out, "%-10s %5.1f%%  %d/%d frames\n", st.Phase, st.Progress, st.Frames, st.TotalFrames)
	case export.PhaseFailed:
		fmt.Fprintf(p.out, "%-10s %s\n", st.Phase, st.Message)
	default:
		fmt.Fprintf(p.out, "%-10s %s\n", st.Phase, tui.NonEmptyOrDash(st.Output))
	}
}

var _ export.ProgressReporter = (*plainReporter)(nil)

// exportExitError keeps ErrNoClips and ErrBusy recognisable to callers.
func exportExitError(err error) error {
	switch {
	case errors.Is(err, export.ErrNoClips):
		return fmt.Errorf("nothing to export: %w", err)
	case errors.Is(err, export.ErrBusy):
		return fmt.Errorf("export already running: %w", err)
	}
	return err
}
