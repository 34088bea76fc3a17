// Package geom holds the stateless arithmetic shared by the editor, the live
// preview and the exporter: clamping, duration math, crop rectangle
// resolution and CSS transform composition.
package geom

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the tolerance used when comparing timeline seconds.
const Epsilon = 1e-9

// Clamp limits v to the closed range [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// OutputDuration is how long a source window lasts once played back at speed.
func OutputDuration(start, end, speed float64) float64 {
	if speed <= 0 || end <= start {
		return 0
	}
	return (end - start) / speed
}

// FrameCount returns the number of whole frames covering duration at fps.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(duration * float64(fps)))
}

// CropRect is a crop window expressed in percent of the source frame.
type CropRect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// FullFrame is the uncropped window.
func FullFrame() CropRect {
	return CropRect{X: 0, Y: 0, Width: 100, Height: 100}
}

// ResolveCrop forces c into a valid window: each dimension within [1, 100]
// and the origin far enough from the edge that the window stays inside.
func ResolveCrop(c CropRect) CropRect {
	c.Width = Clamp(c.Width, 1, 100)
	c.Height = Clamp(c.Height, 1, 100)
	c.X = Clamp(c.X, 0, 100-c.Width)
	c.Y = Clamp(c.Y, 0, 100-c.Height)
	return c
}

// IsFull reports whether the crop covers the whole frame.
func (c CropRect) IsFull() bool {
	return c.X <= Epsilon && c.Y <= Epsilon && c.Width >= 100-Epsilon && c.Height >= 100-Epsilon
}

// Pixels maps the percentage window onto a w×h frame. The result always
// covers at least one pixel.
func (c CropRect) Pixels(w, h int) image.Rectangle {
	c = ResolveCrop(c)
	x0 := int(math.Floor(c.X / 100 * float64(w)))
	y0 := int(math.Floor(c.Y / 100 * float64(h)))
	x1 := int(math.Ceil((c.X + c.Width) / 100 * float64(w)))
	y1 := int(math.Ceil((c.Y + c.Height) / 100 * float64(h)))
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// ClipPath renders the crop as a CSS clip-path inset().
func (c CropRect) ClipPath() string {
	c = ResolveCrop(c)
	top := c.Y
	right := 100 - (c.X + c.Width)
	bottom := 100 - (c.Y + c.Height)
	left := c.X
	return fmt.Sprintf("inset(%s%% %s%% %s%% %s%%)",
		formatFloat(top), formatFloat(right), formatFloat(bottom), formatFloat(left))
}

// TransformString composes the CSS transform used by the live preview. Pan is
// a fraction of the frame size, rotation is in degrees.
func TransformString(scale, rotation, panX, panY float64) string {
	parts := make([]string, 0, 3)
	if math.Abs(panX) > Epsilon || math.Abs(panY) > Epsilon {
		parts = append(parts, fmt.Sprintf("translate(%s%%, %s%%)", formatFloat(panX*100), formatFloat(panY*100)))
	}
	if math.Abs(scale-1) > Epsilon {
		parts = append(parts, fmt.Sprintf("scale(%s)", formatFloat(scale)))
	}
	if math.Abs(rotation) > Epsilon {
		parts = append(parts, fmt.Sprintf("rotate(%sdeg)", formatFloat(rotation)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// FormatTimecode renders seconds as M:SS.ff (or H:MM:SS.ff past an hour).
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(math.Round(seconds * 100))
	hours := centis / 360000
	minutes := (centis % 360000) / 6000
	secs := (centis % 6000) / 100
	frac := centis % 100
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, frac)
	}
	return fmt.Sprintf("%d:%02d.%02d", minutes, secs, frac)
}

func formatFloat(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
