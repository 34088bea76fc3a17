package geom

import (
	"image"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{3, 4, 2, 4},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestOutputDuration(t *testing.T) {
	if got := OutputDuration(4, 10, 2); got != 3 {
		t.Errorf("OutputDuration = %v, want 3", got)
	}
	if got := OutputDuration(4, 10, 0); got != 0 {
		t.Errorf("zero speed should give 0, got %v", got)
	}
	if got := FrameCount(3, 30); got != 90 {
		t.Errorf("FrameCount = %d, want 90", got)
	}
	if got := FrameCount(0.2/0.25, 30); got != 24 {
		t.Errorf("FrameCount = %d, want 24", got)
	}
}

func TestResolveCrop(t *testing.T) {
	tests := []struct {
		name string
		in   CropRect
		want CropRect
	}{
		{"full", FullFrame(), FullFrame()},
		{"overflow x", CropRect{X: 80, Y: 0, Width: 50, Height: 100}, CropRect{X: 50, Y: 0, Width: 50, Height: 100}},
		{"tiny dims", CropRect{X: 10, Y: 10, Width: 0, Height: -5}, CropRect{X: 10, Y: 10, Width: 1, Height: 1}},
		{"oversized", CropRect{X: -5, Y: 3, Width: 150, Height: 40}, CropRect{X: 0, Y: 3, Width: 100, Height: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCrop(tt.in)
			if got != tt.want {
				t.Fatalf("ResolveCrop(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.X+got.Width > 100 || got.Y+got.Height > 100 {
				t.Fatalf("crop escapes frame: %+v", got)
			}
		})
	}
}

func TestCropPixels(t *testing.T) {
	c := CropRect{X: 25, Y: 50, Width: 50, Height: 50}
	if got, want := c.Pixels(200, 100), image.Rect(50, 50, 150, 100); got != want {
		t.Errorf("Pixels = %v, want %v", got, want)
	}
	if got := FullFrame().Pixels(1920, 1080); got != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("full frame pixels = %v", got)
	}
}

func TestClipPath(t *testing.T) {
	c := CropRect{X: 10, Y: 20, Width: 50, Height: 30}
	if got, want := c.ClipPath(), "inset(20% 40% 50% 10%)"; got != want {
		t.Errorf("ClipPath = %q, want %q", got, want)
	}
}

func TestTransformString(t *testing.T) {
	tests := []struct {
		scale, rot, px, py float64
		want               string
	}{
		{1, 0, 0, 0, "none"},
		{1.5, 0, 0, 0, "scale(1.5)"},
		{2, 5, 0.1, -0.05, "translate(10%, -5%) scale(2) rotate(5deg)"},
	}
	for _, tt := range tests {
		if got := TransformString(tt.scale, tt.rot, tt.px, tt.py); got != tt.want {
			t.Errorf("TransformString = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatTimecode(t *testing.T) {
	tests := map[float64]string{
		0:       "0:00.00",
		7.5:     "0:07.50",
		65.25:   "1:05.25",
		3725.01: "1:02:05.01",
		-3:      "0:00.00",
	}
	for in, want := range tests {
		if got := FormatTimecode(in); got != want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", in, got, want)
		}
	}
}
