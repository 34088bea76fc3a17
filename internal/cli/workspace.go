package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipstudio/internal/config"
	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/logx"
	"clipstudio/internal/media"
	"clipstudio/internal/paths"
	"clipstudio/internal/project"
	"clipstudio/internal/tools"
)

// workspace is the resolved project a command operates on.
type workspace struct {
	paths  paths.ProjectPaths
	cfg    config.Config
	logger zerolog.Logger
	closer io.Closer
	runner tools.Runner
}

func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, err
	}
	pp = paths.ApplyConfig(pp, cfg)
	if err := pp.EnsureDirs(); err != nil {
		return nil, err
	}

	opts := logx.Options{Level: cfg.Log.Level}
	if verbose {
		opts.Level = "debug"
		opts.Console = cmd.ErrOrStderr()
	}
	logger, closer, err := logx.New(pp, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("command", cmd.CommandPath()).Str("project", pp.Root).Msg("clipstudio start")

	return &workspace{
		paths:  pp,
		cfg:    cfg,
		logger: logger,
		closer: closer,
		runner: tools.CmdRunner{},
	}, nil
}

func (w *workspace) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// loadDocument reads project.yaml into a fresh editor document.
func (w *workspace) loadDocument() (*editor.Document, error) {
	file, err := project.Load(w.paths.ProjectFile)
	if err != nil {
		return nil, err
	}
	doc := editor.New(logx.WithComponent(w.logger, "editor"))
	doc.Load(file.State())
	return doc, nil
}

func (w *workspace) save(s editor.State) error {
	if err := project.FromState(s).Save(w.paths.ProjectFile); err != nil {
		return err
	}
	w.logger.Debug().Int("clips", len(s.Clips)).Int("sources", len(s.Sources)).Msg("project saved")
	return nil
}

func (w *workspace) binaries() (tools.Binaries, error) {
	return tools.Locate(w.cfg.Tools.FFmpeg, w.cfg.Tools.FFprobe)
}

func (w *workspace) library(bins tools.Binaries) *media.Library {
	return &media.Library{
		Dir:    w.paths.MediaDir,
		Prober: media.Prober{Runner: w.runner, FFprobe: bins.FFprobe},
		Logger: logx.WithComponent(w.logger, "media"),
	}
}

// renderer wires the ffmpeg decoder and encoder into an export renderer.
// An "auto" codec is resolved here so every export of the run uses the
// same encoder.
func (w *workspace) renderer(ctx context.Context, bins tools.Binaries) *export.Renderer {
	codec := tools.PickEncoder(ctx, w.runner, bins.FFmpeg, w.cfg.Encoding.VideoCodec)
	w.logger.Debug().Str("codec", codec).Msg("encoder selected")

	sinks := export.FFmpegSinks{
		Runner: w.runner,
		FFmpeg: bins.FFmpeg,
		Encoding: export.Encoding{
			Codec:  codec,
			CRF:    w.cfg.Encoding.CRF,
			Preset: w.cfg.Encoding.Preset,
			PixFmt: w.cfg.Encoding.PixFmt,
		},
	}
	opener := export.FFmpegOpener{Runner: w.runner, FFmpeg: bins.FFmpeg}
	opts := export.Options{
		Width:            w.cfg.Video.Width,
		Height:           w.cfg.Video.Height,
		ProgressInterval: w.cfg.Export.ProgressInterval(),
		Prefetch:         w.cfg.Export.PrefetchFrames,
	}
	return export.NewRenderer(opener, sinks, opts, logx.WithComponent(w.logger, "export"))
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
