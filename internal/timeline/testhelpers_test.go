package timeline

import (
	"math"
	"testing"

	"clipstudio/internal/geom"
)

// makeClip builds a clip over [start,end] at speed with a stable id.
func makeClip(id string, start, end, speed float64) Clip {
	return Clip{
		ID:       id,
		Name:     id,
		Start:    start,
		End:      end,
		Speed:    speed,
		Zoom:     1,
		PresetID: DefaultPresetID,
		Crop:     geom.FullFrame(),
		Color:    Palette[0],
	}
}

func approx(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func assertValid(t *testing.T, clips []Clip) {
	t.Helper()
	for _, c := range clips {
		if err := c.Valid(); err != nil {
			t.Errorf("invalid clip: %v", err)
		}
	}
}
