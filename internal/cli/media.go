package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clipstudio/internal/geom"
	"clipstudio/internal/media"
	"clipstudio/internal/timeline"
)

var (
	importUse    bool
	importClip   bool
	importPreset string
)

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the project's media sources",
	}

	cmd.AddCommand(newMediaImportCmd())
	cmd.AddCommand(newMediaListCmd())
	cmd.AddCommand(newMediaUseCmd())
	cmd.AddCommand(newMediaReleaseCmd())
	return cmd
}

func newMediaImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Probe video files and add them as media sources",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMediaImport,
	}
	cmd.Flags().BoolVar(&importUse, "use", false, "Make the last imported file the current source")
	cmd.Flags().BoolVar(&importClip, "clip", false, "Append a clip from the start of each imported file")
	cmd.Flags().StringVar(&importPreset, "preset", timeline.DefaultPresetID, "Shot preset for clips added with --clip")
	return cmd
}

func newMediaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List media sources",
		Args:  cobra.NoArgs,
		RunE:  runMediaList,
	}
}

func newMediaUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <source-id>",
		Short: "Select the source new clips are cut from",
		Args:  cobra.ExactArgs(1),
		RunE:  runMediaUse,
	}
}

func newMediaReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <source-id>",
		Short: "Remove a source and every clip cut from it",
		Args:  cobra.ExactArgs(1),
		RunE:  runMediaRelease,
	}
}

type importedSource struct {
	Source timeline.MediaSource `json:"source"`
	ClipID string               `json:"clipId,omitempty"`
}

func runMediaImport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	bins, err := ws.binaries()
	if err != nil {
		return err
	}
	lib := ws.library(bins)
	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	var imported []importedSource
	var failures []error
	for _, path := range args {
		src, err := lib.Import(cmd.Context(), path)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		entry := importedSource{Source: src}
		doc.AddSource(src)
		if importUse {
			doc.SetCurrentSource(src.ID)
		}
		if importClip {
			id, ok := doc.AddClipFrom(src.ID, 0, importPreset)
			if !ok {
				failures = append(failures, fmt.Errorf("add clip from %s: unknown preset %q", src.Name, importPreset))
			}
			entry.ClipID = id
		}
		imported = append(imported, entry)
	}

	if len(imported) > 0 {
		if err := ws.save(doc.State()); err != nil {
			return err
		}
	}

	if outputJSON {
		if imported == nil {
			imported = []importedSource{}
		}
		if err := writeJSON(cmd, imported); err != nil {
			return err
		}
	} else {
		for _, entry := range imported {
			src := entry.Source
			cmd.Printf("imported %s (%s, %dx%d) as %s\n", src.Name, geom.FormatTimecode(src.Duration), src.Width, src.Height, src.ID)
			if entry.ClipID != "" {
				cmd.Printf("  added clip %s\n", entry.ClipID)
			}
		}
	}

	return errors.Join(failures...)
}

func runMediaList(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}
	state := doc.State()

	if outputJSON {
		sources := state.Sources
		if sources == nil {
			sources = []timeline.MediaSource{}
		}
		return writeJSON(cmd, map[string]any{"current": state.CurrentSourceID, "sources": sources})
	}

	if len(state.Sources) == 0 {
		cmd.Println("(no media sources)")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tDURATION\tSIZE\tPATH")
	for _, src := range state.Sources {
		marker := ""
		if src.ID == state.CurrentSourceID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d\t%s\n", marker, src.ID, src.Name, geom.FormatTimecode(src.Duration), src.Width, src.Height, src.Path)
	}
	return w.Flush()
}

func runMediaUse(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}
	if _, ok := doc.State().Source(args[0]); !ok {
		return fmt.Errorf("%w: %s", media.ErrSourceNotFound, args[0])
	}
	if doc.SetCurrentSource(args[0]) {
		if err := ws.save(doc.State()); err != nil {
			return err
		}
	}
	cmd.Printf("current source: %s\n", args[0])
	return nil
}

func runMediaRelease(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}
	before := len(doc.Clips())
	src, ok := doc.ReleaseSource(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", media.ErrSourceNotFound, args[0])
	}
	if err := ws.save(doc.State()); err != nil {
		return err
	}

	// The file is freed only after the project no longer references it.
	lib := &media.Library{Dir: ws.paths.MediaDir, Logger: ws.logger}
	if err := lib.Release(src); err != nil {
		return err
	}

	removed := before - len(doc.Clips())
	if outputJSON {
		return writeJSON(cmd, map[string]any{"released": src, "removedClips": removed})
	}
	cmd.Printf("released %s; removed %d clips\n", src.Name, removed)
	return nil
}
