package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"clipstudio/internal/tools"
)

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// ProbeResult is what the engine needs to know about a media file.
type ProbeResult struct {
	FormatName string  `json:"formatName"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

var errNoVideo = errors.New("no video stream")

// Prober reads container and stream metadata with ffprobe.
type Prober struct {
	Runner  tools.Runner
	FFprobe string
}

// Probe inspects path. Files without a video stream are rejected.
func (p Prober) Probe(ctx context.Context, path string) (ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	}
	result, err := p.Runner.Run(ctx, p.FFprobe, args, tools.RunOptions{})
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe: %w: %s", err, firstLine(result.Stderr))
	}
	if len(result.Stdout) == 0 {
		return ProbeResult{}, errors.New("ffprobe produced no output")
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(result.Stdout, &parsed); err != nil {
		return ProbeResult{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	out := ProbeResult{FormatName: parsed.Format.FormatName}
	var video *ffprobeStream
	for i := range parsed.Streams {
		if parsed.Streams[i].CodecType == "video" {
			video = &parsed.Streams[i]
			break
		}
	}
	if video == nil {
		return ProbeResult{}, errNoVideo
	}
	out.Codec = video.CodecName
	out.Width = video.Width
	out.Height = video.Height

	out.Duration = parseSeconds(parsed.Format.Duration)
	if out.Duration <= 0 {
		out.Duration = parseSeconds(video.Duration)
	}
	return out, nil
}

func parseSeconds(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
