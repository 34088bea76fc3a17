// Package transform turns a clip and a local playback offset into the
// concrete frame transform. Live preview and export both call Compose, so a
// frame looks the same in either path.
package transform

import (
	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
)

// Transform is the resolved per-frame presentation of a clip.
type Transform struct {
	Scale    float64       `json:"scale"`
	Rotation float64       `json:"rotation"` // degrees, clockwise
	PanX     float64       `json:"panX"`     // fraction of frame width
	PanY     float64       `json:"panY"`     // fraction of frame height
	Crop     geom.CropRect `json:"crop"`
	Opacity  float64       `json:"opacity"`
}

// Identity leaves the frame untouched.
func Identity() Transform {
	return Transform{Scale: 1, Crop: geom.FullFrame(), Opacity: 1}
}

// CSS renders the transform as a CSS transform value.
func (t Transform) CSS() string {
	return geom.TransformString(t.Scale, t.Rotation, t.PanX, t.PanY)
}

// ClipPath renders the crop as a CSS clip-path value.
func (t Transform) ClipPath() string {
	return t.Crop.ClipPath()
}

// Progress normalises a local output offset to [0,1] of the clip's output
// duration.
func Progress(clip timeline.Clip, local float64) float64 {
	d := clip.OutputDuration()
	if d <= 0 {
		return 0
	}
	return geom.Clamp(local/d, 0, 1)
}

// Compose resolves the clip's transform local seconds into its output span.
func Compose(clip timeline.Clip, local float64) Transform {
	return ComposeAt(clip, Progress(clip, local))
}

// ComposeAt resolves the transform at normalised progress p.
//
// Static values come from the preset and the clip; each animated property
// replaces its static value outright. A zoom track therefore sets the final
// scale rather than multiplying the preset zoom.
func ComposeAt(clip timeline.Clip, p float64) Transform {
	preset := timeline.PresetOrIdentity(clip.PresetID)
	zoom := clip.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	out := Transform{
		Scale:    preset.Zoom * zoom,
		Rotation: preset.Rotate,
		PanX:     preset.PanX,
		PanY:     preset.PanY,
		Crop:     clip.Crop,
		Opacity:  1,
	}
	if out.Crop.Width == 0 && out.Crop.Height == 0 {
		out.Crop = geom.FullFrame()
	}

	if clip.Animation != nil {
		for _, track := range clip.Animation.Tracks {
			v, ok := Evaluate(track, p)
			if !ok {
				continue
			}
			v = track.Property.ClampValue(v)
			switch track.Property {
			case timeline.PropZoom:
				out.Scale = v
			case timeline.PropRotate:
				out.Rotation = v
			case timeline.PropPanX:
				out.PanX = v
			case timeline.PropPanY:
				out.PanY = v
			case timeline.PropOpacity:
				out.Opacity = v
			case timeline.PropCropX:
				out.Crop.X = v
			case timeline.PropCropY:
				out.Crop.Y = v
			case timeline.PropCropWidth:
				out.Crop.Width = v
			case timeline.PropCropHeight:
				out.Crop.Height = v
			}
		}
	}
	out.Crop = geom.ResolveCrop(out.Crop)
	return out
}
