package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipstudio/internal/config"
	"clipstudio/internal/logx"
	"clipstudio/internal/paths"
	"clipstudio/internal/project"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a studio project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	return cmd
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		if filepath.IsAbs(args[0]) {
			return args[0], nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("studio-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}

	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp, logx.Options{Level: "info"})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info().Str("project", pp.Root).Msg("clipstudio init")

	created, err := initProject(pp, logger)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, map[string]any{"project": pp.Root, "created": created})
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}

	return nil
}

// initProject writes whichever of studio.yaml and project.yaml are missing
// and returns the names it created.
func initProject(pp paths.ProjectPaths, logger zerolog.Logger) ([]string, error) {
	created := make([]string, 0, 2)

	if err := ensureConfig(pp, &created, logger); err != nil {
		return nil, err
	}
	if err := ensureProjectFile(pp, &created, logger); err != nil {
		return nil, err
	}
	return created, nil
}

func ensureConfig(pp paths.ProjectPaths, created *[]string, logger zerolog.Logger) error {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		logger.Debug().Str("path", pp.ConfigFile).Msg("config exists")
		return nil
	}

	cfg := config.Default()
	cfg.ApplyDefaults()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Info().Str("path", pp.ConfigFile).Msg("created config")
	*created = append(*created, filepath.Base(pp.ConfigFile))
	return nil
}

func ensureProjectFile(pp paths.ProjectPaths, created *[]string, logger zerolog.Logger) error {
	exists, err := paths.FileExists(pp.ProjectFile)
	if err != nil {
		return fmt.Errorf("check project file: %w", err)
	}
	if exists {
		logger.Debug().Str("path", pp.ProjectFile).Msg("project file exists")
		return nil
	}

	empty := project.File{Version: project.CurrentVersion}
	if err := empty.Save(pp.ProjectFile); err != nil {
		return err
	}
	logger.Info().Str("path", pp.ProjectFile).Msg("created project file")
	*created = append(*created, filepath.Base(pp.ProjectFile))
	return nil
}
