package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the studio settings for a project.
type Config struct {
	Version  int            `yaml:"version"`
	Video    VideoConfig    `yaml:"video"`
	Encoding EncodingConfig `yaml:"encoding"`
	Export   ExportConfig   `yaml:"export"`
	Tools    ToolsConfig    `yaml:"tools"`
	Capture  CaptureConfig  `yaml:"capture"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// VideoConfig sizes the export surface. Zero width and height follow the
// source media. The frame rate is fixed at 30 fps and not configurable.
type VideoConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// EncodingConfig selects the video encoder.
type EncodingConfig struct {
	VideoCodec string `yaml:"video_codec"` // "auto" probes hardware encoders
	CRF        int    `yaml:"crf"`
	Preset     string `yaml:"preset"`
	PixFmt     string `yaml:"pix_fmt"`
}

// ExportConfig tunes the export pipeline.
type ExportConfig struct {
	Dir                string `yaml:"dir,omitempty"`
	ProgressIntervalMS int    `yaml:"progress_interval_ms"`
	PrefetchFrames     int    `yaml:"prefetch_frames"`
}

// ProgressInterval returns the progress throttle as a duration.
func (e ExportConfig) ProgressInterval() time.Duration {
	return time.Duration(e.ProgressIntervalMS) * time.Millisecond
}

// ToolsConfig overrides where ffmpeg and ffprobe are found.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg,omitempty"`
	FFprobe string `yaml:"ffprobe,omitempty"`
}

// CaptureConfig describes the recording device handed to ffmpeg.
type CaptureConfig struct {
	Format    string `yaml:"format"`
	Input     string `yaml:"input"`
	Framerate int    `yaml:"framerate"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig configures the automation API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Video: VideoConfig{
			Width:  1920,
			Height: 1080,
		},
		Encoding: EncodingConfig{
			VideoCodec: "auto",
			CRF:        20,
			Preset:     "medium",
			PixFmt:     "yuv420p",
		},
		Export: ExportConfig{
			ProgressIntervalMS: 250,
			PrefetchFrames:     4,
		},
		Capture: CaptureConfig{
			Format:    defaultCaptureFormat(),
			Input:     defaultCaptureInput(),
			Framerate: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7788",
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Encoding.VideoCodec == "" {
		c.Encoding.VideoCodec = defaults.Encoding.VideoCodec
	}
	if c.Encoding.CRF == 0 {
		c.Encoding.CRF = defaults.Encoding.CRF
	}
	if c.Encoding.Preset == "" {
		c.Encoding.Preset = defaults.Encoding.Preset
	}
	if c.Encoding.PixFmt == "" {
		c.Encoding.PixFmt = defaults.Encoding.PixFmt
	}
	if c.Export.ProgressIntervalMS == 0 {
		c.Export.ProgressIntervalMS = defaults.Export.ProgressIntervalMS
	}
	if c.Export.PrefetchFrames == 0 {
		c.Export.PrefetchFrames = defaults.Export.PrefetchFrames
	}
	if c.Capture.Format == "" {
		c.Capture.Format = defaults.Capture.Format
	}
	if c.Capture.Input == "" {
		c.Capture.Input = defaults.Capture.Input
	}
	if c.Capture.Framerate == 0 {
		c.Capture.Framerate = defaults.Capture.Framerate
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
