package tools

import (
	"context"
	"fmt"
	"strings"
)

// H264Encoders lists the H.264 encoders export can drive, hardware first.
var H264Encoders = []string{"h264_videotoolbox", "h264_nvenc", "h264_amf", "libx264"}

// DefaultEncoder is used when nothing better is detected.
const DefaultEncoder = "libx264"

// ProbeEncoders returns the H.264 encoders this ffmpeg build can open, in
// priority order.
func ProbeEncoders(ctx context.Context, runner Runner, ffmpegPath string) []string {
	var available []string
	for _, codec := range H264Encoders {
		if testEncoder(ctx, runner, ffmpegPath, codec) {
			available = append(available, codec)
		}
	}
	return available
}

// PickEncoder resolves "auto" (or an empty value) to the first working
// encoder, falling back to libx264.
func PickEncoder(ctx context.Context, runner Runner, ffmpegPath, configured string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && configured != "auto" {
		return configured
	}
	if found := ProbeEncoders(ctx, runner, ffmpegPath); len(found) > 0 {
		return found[0]
	}
	return DefaultEncoder
}

func testEncoder(ctx context.Context, runner Runner, ffmpegPath, codec string) bool {
	args := []string{
		"-hide_banner",
		"-f", "lavfi",
		"-i", "color=black:s=64x64:d=1:r=1",
		"-c:v", codec,
		"-frames:v", "1",
		"-f", "null",
		"-",
	}
	_, err := runner.Run(ctx, ffmpegPath, args, RunOptions{})
	return err == nil
}

// QualityArgs maps a CRF-style quality value onto the rate-control flags
// each encoder understands.
func QualityArgs(codec string, crf int, preset string) []string {
	switch codec {
	case "h264_videotoolbox":
		// No CRF mode; approximate with a bitrate that falls as crf rises.
		kbps := (52 - crf) * 250
		if kbps < 1000 {
			kbps = 1000
		}
		return []string{"-b:v", fmt.Sprintf("%dk", kbps)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", crf)}
	case "h264_amf":
		return []string{"-rc", "cqp", "-qp_i", fmt.Sprintf("%d", crf), "-qp_p", fmt.Sprintf("%d", crf)}
	default:
		if preset == "" {
			preset = "medium"
		}
		return []string{"-crf", fmt.Sprintf("%d", crf), "-preset", preset}
	}
}
