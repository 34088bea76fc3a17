package timeline

import (
	"fmt"
	"math"
	"sort"

	"clipstudio/internal/geom"
)

// Easing shapes the interpolation fraction arriving at a keyframe.
type Easing string

const (
	EaseLinear Easing = "linear"
	EaseIn     Easing = "easeIn"
	EaseOut    Easing = "easeOut"
	EaseInOut  Easing = "easeInOut"
)

// keyTimeMerge is how close two keyframe times must be to count as the same slot.
const keyTimeMerge = 1e-3

// ParseEasing normalises e, defaulting unknown values to linear.
func ParseEasing(e string) Easing {
	switch Easing(e) {
	case EaseIn, EaseOut, EaseInOut:
		return Easing(e)
	default:
		return EaseLinear
	}
}

// Property names an animatable clip attribute.
type Property string

const (
	PropZoom       Property = "zoom"
	PropRotate     Property = "rotate"
	PropPanX       Property = "panX"
	PropPanY       Property = "panY"
	PropOpacity    Property = "opacity"
	PropCropX      Property = "cropX"
	PropCropY      Property = "cropY"
	PropCropWidth  Property = "cropWidth"
	PropCropHeight Property = "cropHeight"
)

// Properties lists every animatable property in canonical order.
func Properties() []Property {
	return []Property{
		PropZoom, PropRotate, PropPanX, PropPanY, PropOpacity,
		PropCropX, PropCropY, PropCropWidth, PropCropHeight,
	}
}

// Valid reports whether p is animatable.
func (p Property) Valid() bool {
	for _, known := range Properties() {
		if p == known {
			return true
		}
	}
	return false
}

// ClampValue keeps v within the native range of the property.
func (p Property) ClampValue(v float64) float64 {
	switch p {
	case PropZoom:
		return geom.Clamp(v, MinZoom, MaxZoom)
	case PropRotate:
		return geom.Clamp(v, -360, 360)
	case PropPanX, PropPanY:
		return geom.Clamp(v, -1, 1)
	case PropOpacity:
		return geom.Clamp(v, 0, 1)
	case PropCropWidth, PropCropHeight:
		return geom.Clamp(v, 1, 100)
	case PropCropX, PropCropY:
		return geom.Clamp(v, 0, 99)
	}
	return v
}

func (p Property) rank() int {
	for i, known := range Properties() {
		if p == known {
			return i
		}
	}
	return len(Properties())
}

// Keyframe pins a property value at a normalised local time in [0,1].
type Keyframe struct {
	ID     string  `yaml:"id" json:"id"`
	Time   float64 `yaml:"time" json:"time"`
	Value  float64 `yaml:"value" json:"value"`
	Easing Easing  `yaml:"easing" json:"easing"`
}

// Track holds the keyframes of one property, sorted by time.
type Track struct {
	Property  Property   `yaml:"property" json:"property"`
	Keyframes []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Animation layers keyframe tracks on top of a clip's static transform.
type Animation struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Tracks []Track `yaml:"tracks" json:"tracks"`
}

// Track returns the track animating p, if any.
func (a *Animation) Track(p Property) (Track, bool) {
	if a == nil {
		return Track{}, false
	}
	for _, t := range a.Tracks {
		if t.Property == p {
			return t, true
		}
	}
	return Track{}, false
}

// Valid checks what the evaluator relies on: one track per known property,
// no empty tracks, and keyframes with ids and finite values sorted by time
// within [0,1].
func (a *Animation) Valid() error {
	if a == nil {
		return nil
	}
	if len(a.Tracks) == 0 {
		return fmt.Errorf("animation %s has no tracks", a.ID)
	}
	seen := make(map[Property]bool, len(a.Tracks))
	for _, t := range a.Tracks {
		if !t.Property.Valid() {
			return fmt.Errorf("unknown property %q", t.Property)
		}
		if seen[t.Property] {
			return fmt.Errorf("property %s animated twice", t.Property)
		}
		seen[t.Property] = true
		if len(t.Keyframes) == 0 {
			return fmt.Errorf("%s track has no keyframes", t.Property)
		}
		prev := math.Inf(-1)
		for _, kf := range t.Keyframes {
			switch {
			case kf.ID == "":
				return fmt.Errorf("%s keyframe has no id", t.Property)
			case !validNumber(kf.Time) || kf.Time < 0 || kf.Time > 1:
				return fmt.Errorf("%s keyframe %s: time %v outside 0-1", t.Property, kf.ID, kf.Time)
			case !validNumber(kf.Value):
				return fmt.Errorf("%s keyframe %s: value is not a number", t.Property, kf.ID)
			case kf.Time < prev:
				return fmt.Errorf("%s keyframe %s out of time order", t.Property, kf.ID)
			}
			prev = kf.Time
		}
	}
	return nil
}

// KeyframeInput describes a keyframe to add or update.
type KeyframeInput struct {
	ID       string
	Property Property
	Time     float64
	Value    float64
	Easing   Easing
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// setKeyframe returns a copy of anim with the keyframe added. A keyframe at
// (almost) the same time on the same track is replaced rather than stacked.
// The animation and the track are created on first use.
func setKeyframe(anim *Animation, in KeyframeInput) (*Animation, string, bool) {
	if !in.Property.Valid() || !validNumber(in.Time) || !validNumber(in.Value) {
		return anim, "", false
	}
	kf := Keyframe{
		ID:     in.ID,
		Time:   geom.Clamp(in.Time, 0, 1),
		Value:  in.Property.ClampValue(in.Value),
		Easing: ParseEasing(string(in.Easing)),
	}
	if kf.ID == "" {
		kf.ID = NewID()
	}

	next := cloneAnimation(anim)
	if next == nil {
		next = &Animation{ID: NewID(), Name: "Animation"}
	}

	ti := -1
	for i := range next.Tracks {
		if next.Tracks[i].Property == in.Property {
			ti = i
			break
		}
	}
	if ti < 0 {
		next.Tracks = append(next.Tracks, Track{Property: in.Property})
		sort.SliceStable(next.Tracks, func(i, j int) bool {
			return next.Tracks[i].Property.rank() < next.Tracks[j].Property.rank()
		})
		for i := range next.Tracks {
			if next.Tracks[i].Property == in.Property {
				ti = i
				break
			}
		}
	}

	track := &next.Tracks[ti]
	slot := -1
	for i := range track.Keyframes {
		if track.Keyframes[i].ID == kf.ID {
			slot = i
			break
		}
	}
	if slot < 0 {
		for i := range track.Keyframes {
			if math.Abs(track.Keyframes[i].Time-kf.Time) < keyTimeMerge {
				slot = i
				kf.ID = track.Keyframes[i].ID
				break
			}
		}
	}
	if slot >= 0 {
		if track.Keyframes[slot] == kf {
			return anim, kf.ID, false
		}
		track.Keyframes[slot] = kf
	} else {
		track.Keyframes = append(track.Keyframes, kf)
	}
	sortKeyframes(track.Keyframes)
	return next, kf.ID, true
}

// removeKeyframe drops keyframe id from the track of p. Empty tracks are
// removed, and an animation without tracks collapses to nil.
func removeKeyframe(anim *Animation, p Property, id string) (*Animation, bool) {
	if anim == nil {
		return nil, false
	}
	next := cloneAnimation(anim)
	for ti := range next.Tracks {
		if next.Tracks[ti].Property != p {
			continue
		}
		kfs := next.Tracks[ti].Keyframes
		for ki := range kfs {
			if kfs[ki].ID != id {
				continue
			}
			next.Tracks[ti].Keyframes = append(kfs[:ki:ki], kfs[ki+1:]...)
			if len(next.Tracks[ti].Keyframes) == 0 {
				next.Tracks = append(next.Tracks[:ti:ti], next.Tracks[ti+1:]...)
			}
			if len(next.Tracks) == 0 {
				return nil, true
			}
			return next, true
		}
		return anim, false
	}
	return anim, false
}

func sortKeyframes(kfs []Keyframe) {
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
}
