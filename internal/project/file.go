// Package project persists the studio document to project.yaml: media
// sources, the clip list and the selection. Undo history is not persisted.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"clipstudio/internal/editor"
	"clipstudio/internal/timeline"
)

// CurrentVersion is the project file format version.
const CurrentVersion = 1

// File is the on-disk form of a project.
type File struct {
	Version         int                    `yaml:"version"`
	CurrentSourceID string                 `yaml:"current_source,omitempty"`
	Sources         []timeline.MediaSource `yaml:"sources"`
	Clips           []timeline.Clip        `yaml:"clips"`
	SelectedID      string                 `yaml:"selected,omitempty"`
	Playhead        float64                `yaml:"playhead,omitempty"`
}

// Load reads the project file at path. A missing file is an empty project.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{Version: CurrentVersion}, nil
		}
		return File{}, fmt.Errorf("read project: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("unmarshal project %s: %w", path, err)
	}
	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	if f.Version > CurrentVersion {
		return File{}, fmt.Errorf("project %s has format version %d, newer than supported %d", path, f.Version, CurrentVersion)
	}
	for _, c := range f.Clips {
		if err := c.Valid(); err != nil {
			return File{}, fmt.Errorf("project %s: %w", path, err)
		}
	}
	return f, nil
}

// Save writes the project atomically to path.
func (f File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f.Version = CurrentVersion

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	// Each save gets its own temp file so concurrent saves never share one.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// State converts the file into a document state.
func (f File) State() editor.State {
	return editor.State{
		Sources:         f.Sources,
		CurrentSourceID: f.CurrentSourceID,
		Clips:           timeline.CloneClips(f.Clips),
		SelectedID:      f.SelectedID,
		Playhead:        f.Playhead,
	}
}

// FromState captures the persistent part of a document state.
func FromState(s editor.State) File {
	return File{
		Version:         CurrentVersion,
		CurrentSourceID: s.CurrentSourceID,
		Sources:         s.Sources,
		Clips:           timeline.CloneClips(s.Clips),
		SelectedID:      s.SelectedID,
		Playhead:        s.Playhead,
	}
}
