package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipstudio/internal/config"
)

// ProjectPaths captures canonical locations for a studio project.
type ProjectPaths struct {
	Root        string
	ConfigFile  string
	ProjectFile string
	MediaDir    string
	ExportsDir  string
	LogsDir     string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	return ProjectPaths{
		Root:        root,
		ConfigFile:  filepath.Join(root, "studio.yaml"),
		ProjectFile: filepath.Join(root, "project.yaml"),
		MediaDir:    filepath.Join(root, "media"),
		ExportsDir:  filepath.Join(root, "exports"),
		LogsDir:     filepath.Join(root, "logs"),
	}
}

// ApplyConfig points the exports directory at the configured location.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	if dir := strings.TrimSpace(cfg.Export.Dir); dir != "" {
		pp.ExportsDir = resolveProjectPath(pp.Root, dir)
	}
	return pp
}

// ExportFile resolves an export target. A bare or empty name lands in the
// exports directory; paths with a directory are taken as given.
func (p ProjectPaths) ExportFile(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export.mp4"
	}
	if filepath.Ext(name) == "" {
		name += ".mp4"
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return resolveProjectPath(p.Root, name)
	}
	return filepath.Join(p.ExportsDir, name)
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureDirs creates the media, exports and logs directories.
func (p ProjectPaths) EnsureDirs() error {
	dirs := []string{p.MediaDir, p.ExportsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
