package cli

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/config"
	"clipstudio/internal/paths"
	"clipstudio/internal/tools"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect external tools",
	}

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsEncodersCmd())

	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resolved tool statuses",
		RunE:  runToolsList,
	}
}

func newToolsEncodersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encoders",
		Short: "List the H.264 encoders this ffmpeg build can open",
		RunE:  runToolsEncoders,
	}
}

// toolsConfig loads the tool overrides without requiring an initialized
// project.
func toolsConfig() (config.ToolsConfig, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return config.ToolsConfig{}, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return config.ToolsConfig{}, err
	}
	return cfg.Tools, nil
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	tc, err := toolsConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	statuses := tools.Probe(ctx, tools.CmdRunner{}, tc.FFmpeg, tc.FFprobe)

	if outputJSON {
		return writeJSON(cmd, statuses)
	}

	printStatusTable(cmd, statuses)
	return nil
}

func runToolsEncoders(cmd *cobra.Command, _ []string) error {
	tc, err := toolsConfig()
	if err != nil {
		return err
	}
	bins, err := tools.Locate(tc.FFmpeg, tc.FFprobe)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	found := tools.ProbeEncoders(ctx, tools.CmdRunner{}, bins.FFmpeg)
	if found == nil {
		found = []string{}
	}

	if outputJSON {
		return writeJSON(cmd, map[string]any{"encoders": found, "fallback": tools.DefaultEncoder})
	}
	if len(found) == 0 {
		cmd.Printf("no H.264 encoder opened; exports fall back to %s\n", tools.DefaultEncoder)
		return nil
	}
	for i, codec := range found {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		cmd.Printf("%s %s\n", marker, codec)
	}
	return nil
}

func printStatusTable(cmd *cobra.Command, statuses []tools.ToolInfo) {
	if len(statuses) == 0 {
		cmd.Println("(no tool statuses)")
		return
	}

	rows := make([]tools.ToolInfo, len(statuses))
	copy(rows, statuses)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})

	cmd.Printf("%-10s %-12s %-7s %s\n", "Tool", "Version", "OK", "Path")
	for _, st := range rows {
		ok := "no"
		if st.Satisfied {
			ok = "yes"
		}
		path := st.Path
		if path == "" {
			path = "(missing)"
		}
		cmd.Printf("%-10s %-12s %-7s %s\n", st.Name, st.Version, ok, path)
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
		for _, hint := range st.Hints {
			cmd.Printf("  hint: %s\n", hint)
		}
	}
}
