package transform

import (
	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
)

// Ease shapes an interpolation fraction x in [0,1] with the quadratic curve
// named by e. Unknown easings behave as linear.
func Ease(e timeline.Easing, x float64) float64 {
	x = geom.Clamp(x, 0, 1)
	switch e {
	case timeline.EaseIn:
		return x * x
	case timeline.EaseOut:
		return x * (2 - x)
	case timeline.EaseInOut:
		if x < 0.5 {
			return 2 * x * x
		}
		return -1 + (4-2*x)*x
	default:
		return x
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Evaluate samples a track at normalised local time p. Before the first
// keyframe and after the last the nearest value is held; between two
// keyframes the arrival keyframe's easing shapes the fraction. ok is false
// for an empty track.
func Evaluate(track timeline.Track, p float64) (value float64, ok bool) {
	kfs := track.Keyframes
	switch len(kfs) {
	case 0:
		return 0, false
	case 1:
		return kfs[0].Value, true
	}
	if p <= kfs[0].Time {
		return kfs[0].Value, true
	}
	last := kfs[len(kfs)-1]
	if p >= last.Time {
		return last.Value, true
	}
	for i := 0; i < len(kfs)-1; i++ {
		from, to := kfs[i], kfs[i+1]
		if p < from.Time || p >= to.Time {
			continue
		}
		span := to.Time - from.Time
		if span <= 0 {
			return to.Value, true
		}
		return lerp(from.Value, to.Value, Ease(to.Easing, (p-from.Time)/span)), true
	}
	return last.Value, true
}
