package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
)

var editDryRun bool

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <actions-file|->",
		Short: "Apply a YAML or JSON action list as one undoable edit",
		Long: `Apply a list of timeline actions (add, trim, split, speed, preset, zoom,
crop, rename, duplicate, remove, reorder, select, keyframe, remove-keyframe,
clear-animation, export). Actions that do not apply are skipped; a list that
cannot be parsed changes nothing. Pass "-" to read the list from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}
	cmd.Flags().BoolVar(&editDryRun, "dry-run", false, "Report outcomes without saving or exporting")
	cmd.Flags().BoolVar(&exportNoProgress, "no-progress", false, "Print plain export progress lines")
	return cmd
}

func readActions(cmd *cobra.Command, arg string) ([]editor.Action, error) {
	if arg != "-" {
		return editor.LoadActions(arg)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	return editor.ParseActions(data)
}

func runEdit(cmd *cobra.Command, args []string) error {
	actions, err := readActions(cmd, args[0])
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	res, err := doc.Apply(actions)
	if err != nil {
		return err
	}
	ws.logger.Info().Int("actions", len(actions)).Int("applied", res.Applied).Bool("dryRun", editDryRun).Msg("action list applied")

	if outputJSON {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	} else {
		writeApplyResult(cmd.OutOrStdout(), res)
	}

	if editDryRun {
		return nil
	}
	if res.Applied > 0 {
		if err := ws.save(doc.State()); err != nil {
			return err
		}
	}
	if res.ExportRequested {
		return exportDocument(cmd, ws, doc, res.ExportOutput)
	}
	return nil
}

func writeApplyResult(w io.Writer, res editor.ApplyResult) {
	for _, o := range res.Outcomes {
		state := "skipped"
		if o.Applied {
			state = "applied"
		}
		line := fmt.Sprintf("  %2d  %-16s %s", o.Index+1, o.Type, state)
		if o.ClipID != "" {
			line += "  " + o.ClipID
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d of %d actions applied\n", res.Applied, len(res.Outcomes))
}
