package export

import (
	"math"
	"time"
)

// ProgressReporter receives export status changes. Rendering progress is
// throttled; phase changes are always delivered.
type ProgressReporter interface {
	Progress(Status)
}

// ReporterFunc adapts a function to ProgressReporter.
type ReporterFunc func(Status)

// Progress implements ProgressReporter.
func (f ReporterFunc) Progress(s Status) { f(s) }

// throttle decides which rendered-frame counts are worth reporting: at most
// one per interval, and only when the whole percentage moved. The last
// frame is always reported.
type throttle struct {
	interval    time.Duration
	now         func() time.Time
	last        time.Time
	lastPercent int
}

func newThrottle(interval time.Duration, now func() time.Time) *throttle {
	return &throttle{interval: interval, now: now, lastPercent: -1}
}

func (t *throttle) due(frames, total int) bool {
	if total <= 0 {
		return false
	}
	if frames >= total {
		return true
	}
	pct := int(math.Floor(float64(frames) / float64(total) * 100))
	if pct == t.lastPercent {
		return false
	}
	ts := t.now()
	if !t.last.IsZero() && ts.Sub(t.last) < t.interval {
		return false
	}
	t.last = ts
	t.lastPercent = pct
	return true
}

func percent(frames, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(frames) / float64(total) * 100
}
