package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// MinimumFFmpeg is the oldest ffmpeg release known to handle the raw
// frame pipes used by export and capture.
const MinimumFFmpeg = "4.4"

// Binaries holds resolved executable paths.
type Binaries struct {
	FFmpeg  string `json:"ffmpeg"`
	FFprobe string `json:"ffprobe"`
}

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path,omitempty"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Available bool     `json:"available"`
	Satisfied bool     `json:"satisfied"`
	Error     string   `json:"error,omitempty"`
	Hints     []string `json:"hints,omitempty"`
}

// Locate resolves ffmpeg and ffprobe. A configured path wins over PATH
// lookup; an empty override means "search PATH".
func Locate(ffmpegOverride, ffprobeOverride string) (Binaries, error) {
	var bins Binaries
	var err error
	if bins.FFmpeg, err = lookup("ffmpeg", ffmpegOverride); err != nil {
		return bins, err
	}
	if bins.FFprobe, err = lookup("ffprobe", ffprobeOverride); err != nil {
		return bins, err
	}
	return bins, nil
}

func lookup(name, override string) (string, error) {
	candidate := strings.TrimSpace(override)
	if candidate == "" {
		candidate = executableName(name)
	}
	path, err := exec.LookPath(candidate)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s not found in PATH", candidate)
		}
		return "", fmt.Errorf("locate %s: %w", name, err)
	}
	return path, nil
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// Probe reports availability and version for ffmpeg and ffprobe.
func Probe(ctx context.Context, runner Runner, ffmpegOverride, ffprobeOverride string) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if runner == nil {
		runner = CmdRunner{}
	}

	overrides := map[string]string{"ffmpeg": ffmpegOverride, "ffprobe": ffprobeOverride}
	names := []string{"ffmpeg", "ffprobe"}
	out := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		out = append(out, probeOne(ctx, runner, name, overrides[name]))
	}
	return out
}

func probeOne(ctx context.Context, runner Runner, name, override string) ToolInfo {
	info := ToolInfo{Name: name, Minimum: MinimumFFmpeg}
	path, err := lookup(name, override)
	if err != nil {
		info.Error = err.Error()
		info.Hints = installHints()
		return info
	}
	info.Path = path
	info.Available = true

	res, err := runner.Run(ctx, path, []string{"-version"}, RunOptions{})
	if err != nil {
		info.Error = fmt.Sprintf("%s -version: %v", name, err)
		return info
	}
	info.Version = normalizeVersion(firstLine(strings.TrimSpace(string(res.Stdout))))
	info.Satisfied = meetsMinimum(info.Version, MinimumFFmpeg)
	if !info.Satisfied {
		info.Error = fmt.Sprintf("version %s below minimum %s", info.Version, MinimumFFmpeg)
	}
	return info
}

func installHints() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"Install ffmpeg via Homebrew: brew install ffmpeg"}
	case "linux":
		return []string{"Install ffmpeg with your distro package manager, e.g. sudo apt install ffmpeg"}
	case "windows":
		return []string{
			"Install ffmpeg via winget: winget install Gyan.FFmpeg",
			"or via Chocolatey: choco install ffmpeg",
		}
	default:
		return []string{"Install ffmpeg using your platform's package manager"}
	}
}
