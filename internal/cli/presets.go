package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clipstudio/internal/timeline"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the shot presets",
		Args:  cobra.NoArgs,
		RunE:  runPresets,
	}
}

func runPresets(cmd *cobra.Command, _ []string) error {
	presets := timeline.Presets()
	if outputJSON {
		return writeJSON(cmd, presets)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tZOOM\tROTATE\tPAN X\tPAN Y\tDURATION")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.1f\t%.1f\t%.1f\t%.1fs\n", p.ID, p.Name, p.Zoom, p.Rotate, p.PanX, p.PanY, p.Duration)
	}
	return w.Flush()
}
