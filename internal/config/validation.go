package config

import (
	"fmt"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// Validate checks the configuration and returns structured results.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVideo()...)
	results = append(results, c.validateEncoding()...)
	results = append(results, c.validateExport()...)
	results = append(results, c.validateCapture()...)
	results = append(results, c.validateLog()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateVideo() []ValidationResult {
	w, h := c.Video.Width, c.Video.Height
	switch {
	case w < 0 || h < 0:
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("video size %dx%d is negative", w, h)}}
	case (w == 0) != (h == 0):
		return []ValidationResult{{Level: "error", Message: "video width and height must both be set or both be 0"}}
	case w%2 == 1 || h%2 == 1:
		return []ValidationResult{{Level: "warning", Message: fmt.Sprintf("video size %dx%d will be rounded down to even dimensions", w, h)}}
	}
	return nil
}

func (c Config) validateEncoding() []ValidationResult {
	var results []ValidationResult
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 51 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("encoding crf %d must be between 0 and 51", c.Encoding.CRF),
		})
	}
	if strings.ContainsAny(c.Encoding.VideoCodec, " \t") {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("encoding video_codec %q is not a codec name", c.Encoding.VideoCodec),
		})
	}
	return results
}

func (c Config) validateExport() []ValidationResult {
	var results []ValidationResult
	if c.Export.ProgressIntervalMS < 0 {
		results = append(results, ValidationResult{Level: "error", Message: "export progress_interval_ms must be >= 0"})
	}
	if c.Export.PrefetchFrames < 0 {
		results = append(results, ValidationResult{Level: "error", Message: "export prefetch_frames must be >= 0"})
	} else if c.Export.PrefetchFrames > 64 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("export prefetch_frames %d holds many decoded frames in memory", c.Export.PrefetchFrames),
		})
	}
	return results
}

func (c Config) validateCapture() []ValidationResult {
	if c.Capture.Framerate <= 0 || c.Capture.Framerate > 120 {
		return []ValidationResult{{
			Level:   "warning",
			Message: fmt.Sprintf("capture framerate %d is unusual", c.Capture.Framerate),
		}}
	}
	return nil
}

func (c Config) validateLog() []ValidationResult {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	for _, l := range logLevels {
		if level == l {
			return nil
		}
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("log level %q is not one of %s", c.Log.Level, strings.Join(logLevels, ", ")),
	}}
}
