// Package timeline models the editable clip list: media sources, clips with
// their trim window, speed and static transform, keyframe animations, the
// edit operations over the ordered list, and the mapping between edited
// (output) time and source time.
package timeline

import (
	"fmt"

	"github.com/google/uuid"

	"clipstudio/internal/geom"
)

const (
	// MinClipLength is the shortest allowed trim window, in source seconds.
	MinClipLength = 0.2
	// MinSpeed and MaxSpeed bound the playback multiplier.
	MinSpeed = 0.25
	MaxSpeed = 3.0
	// MinZoom and MaxZoom bound the manual zoom multiplier.
	MinZoom = 1.0
	MaxZoom = 5.0
)

// Palette is the fixed set of display colors handed out round-robin.
var Palette = []string{
	"#6366f1",
	"#ec4899",
	"#f59e0b",
	"#10b981",
	"#3b82f6",
	"#8b5cf6",
	"#ef4444",
	"#14b8a6",
}

// MediaSource is an imported or recorded raw video.
type MediaSource struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Path     string  `yaml:"path" json:"path"`
	URI      string  `yaml:"uri" json:"uri"`
	Duration float64 `yaml:"duration" json:"duration"`
	Width    int     `yaml:"width" json:"width"`
	Height   int     `yaml:"height" json:"height"`
}

// Clip is one trimmed, speed-adjusted span of a media source.
type Clip struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	SourceID string `yaml:"source_id,omitempty" json:"sourceId,omitempty"` // empty means the current source

	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
	Speed float64 `yaml:"speed" json:"speed"`

	Zoom     float64       `yaml:"zoom" json:"zoom"`
	PresetID string        `yaml:"preset_id" json:"presetId"`
	Crop     geom.CropRect `yaml:"crop" json:"crop"`

	Animation *Animation `yaml:"animation,omitempty" json:"animation,omitempty"`
	Color     string     `yaml:"color" json:"color"`
}

// Length is the trim window in source seconds.
func (c Clip) Length() float64 {
	return c.End - c.Start
}

// OutputDuration is the clip's span of edited time.
func (c Clip) OutputDuration() float64 {
	return geom.OutputDuration(c.Start, c.End, c.Speed)
}

// SourceTimeAt maps a local output offset into source seconds, clamped to
// the trim window.
func (c Clip) SourceTimeAt(local float64) float64 {
	return geom.Clamp(c.Start+local*c.Speed, c.Start, c.End)
}

// Valid reports whether the clip satisfies the model invariants.
func (c Clip) Valid() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("clip has no id")
	case c.Start < 0:
		return fmt.Errorf("clip %s: start %.3f is negative", c.ID, c.Start)
	case c.Length() < MinClipLength-geom.Epsilon:
		return fmt.Errorf("clip %s: window %.3f-%.3f shorter than %.1fs", c.ID, c.Start, c.End, MinClipLength)
	case c.Speed < MinSpeed || c.Speed > MaxSpeed:
		return fmt.Errorf("clip %s: speed %.2f outside %.2f-%.2f", c.ID, c.Speed, MinSpeed, MaxSpeed)
	case c.Zoom < MinZoom:
		return fmt.Errorf("clip %s: zoom %.2f below %.0f", c.ID, c.Zoom, MinZoom)
	}
	crop := geom.ResolveCrop(c.Crop)
	if crop != c.Crop {
		return fmt.Errorf("clip %s: crop %+v escapes the frame", c.ID, c.Crop)
	}
	if err := c.Animation.Valid(); err != nil {
		return fmt.Errorf("clip %s: %w", c.ID, err)
	}
	return nil
}

// NewID returns a fresh identifier for clips, keyframes and sources.
func NewID() string {
	return uuid.NewString()
}

func colorFor(n int) string {
	return Palette[n%len(Palette)]
}

func indexOf(clips []Clip, id string) int {
	if id == "" {
		return -1
	}
	for i := range clips {
		if clips[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the clip with the given id.
func Find(clips []Clip, id string) (Clip, bool) {
	if i := indexOf(clips, id); i >= 0 {
		return clips[i], true
	}
	return Clip{}, false
}

// IndexOf returns the list position of id, or -1.
func IndexOf(clips []Clip, id string) int {
	return indexOf(clips, id)
}
