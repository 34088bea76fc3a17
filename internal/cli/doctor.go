package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"clipstudio/internal/config"
	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/geom"
	"clipstudio/internal/paths"
	"clipstudio/internal/project"
	"clipstudio/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check project health",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	var checks []healthCheck

	cfg, cfgErr := config.Load(pp.ConfigFile)
	checks = append(checks, checkConfig(cfg, cfgErr))
	if cfgErr != nil {
		return writeDoctorResult(cmd, pp.Root, checks)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	checks = append(checks, checkTools(ctx, tools.CmdRunner{}, cfg.Tools))

	file, projErr := project.Load(pp.ProjectFile)
	if projErr != nil {
		checks = append(checks, healthCheck{Name: "Project", Status: "error", Summary: projErr.Error()})
		return writeDoctorResult(cmd, pp.Root, checks)
	}
	state := file.State()
	checks = append(checks, checkSources(state))
	checks = append(checks, checkTimeline(state))

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkTools(ctx context.Context, runner tools.Runner, tc config.ToolsConfig) healthCheck {
	statuses := tools.Probe(ctx, runner, tc.FFmpeg, tc.FFprobe)

	var satisfied int
	var toolInfo []string
	for _, st := range statuses {
		if st.Satisfied {
			satisfied++
			label := st.Name
			if st.Version != "" {
				label += " " + st.Version
			}
			toolInfo = append(toolInfo, label)
		}
	}

	if satisfied == len(statuses) {
		return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(toolInfo)}
	}
	return healthCheck{
		Name:    "Tools",
		Status:  "error",
		Summary: fmt.Sprintf("%d of %d tools satisfied", satisfied, len(statuses)),
	}
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errors int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	size := "source size"
	if cfg.Video.Width > 0 && cfg.Video.Height > 0 {
		size = fmt.Sprintf("%dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	summary := fmt.Sprintf("%s @ %d fps, codec %s", size, export.FPS, cfg.Encoding.VideoCodec)

	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkSources(state editor.State) healthCheck {
	if len(state.Sources) == 0 {
		return healthCheck{Name: "Sources", Status: "warning", Summary: "no media imported"}
	}

	var missing []string
	for _, src := range state.Sources {
		ok, err := paths.FileExists(src.Path)
		if err != nil || !ok {
			missing = append(missing, src.Name)
		}
	}
	if len(missing) > 0 {
		return healthCheck{
			Name:    "Sources",
			Status:  "error",
			Summary: fmt.Sprintf("%d of %d files missing: %s", len(missing), len(state.Sources), joinComma(missing)),
		}
	}
	return healthCheck{Name: "Sources", Status: "ok", Summary: fmt.Sprintf("%d sources on disk", len(state.Sources))}
}

func checkTimeline(state editor.State) healthCheck {
	if len(state.Clips) == 0 {
		return healthCheck{Name: "Timeline", Status: "warning", Summary: "no clips"}
	}

	var frames int
	var orphans int
	for _, c := range state.Clips {
		frames += geom.FrameCount(c.OutputDuration(), export.FPS)
		if _, ok := state.SourceFor(c); !ok {
			orphans++
		}
	}
	summary := fmt.Sprintf("%d clips, %s, %d frames", len(state.Clips), geom.FormatTimecode(state.TotalDuration()), frames)
	if orphans > 0 {
		return healthCheck{Name: "Timeline", Status: "error", Summary: fmt.Sprintf("%s; %d clips without media", summary, orphans)}
	}
	return healthCheck{Name: "Timeline", Status: "ok", Summary: summary}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
