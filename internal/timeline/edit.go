package timeline

import (
	"fmt"
	"math"

	"clipstudio/internal/geom"
)

// Edit operations never fail loudly: invalid ids, degenerate windows and
// non-finite numbers leave the list untouched and report changed=false. The
// input slice is never modified; a changed list is always a fresh copy.

// AddClip appends a clip starting at `at` (source seconds) and lasting the
// preset's nominal duration, both clamped to the media duration.
func AddClip(clips []Clip, at, mediaDuration float64, sourceID, presetID string) ([]Clip, Clip, bool) {
	if !validNumber(at) || !validNumber(mediaDuration) || mediaDuration < MinClipLength {
		return clips, Clip{}, false
	}
	if presetID == "" {
		presetID = DefaultPresetID
	}
	preset, ok := LookupPreset(presetID)
	if !ok {
		return clips, Clip{}, false
	}

	start := geom.Clamp(at, 0, mediaDuration-MinClipLength)
	end := math.Min(start+preset.Duration, mediaDuration)
	if end-start < MinClipLength {
		end = start + MinClipLength
	}

	clip := Clip{
		ID:       NewID(),
		Name:     fmt.Sprintf("Clip %d", len(clips)+1),
		SourceID: sourceID,
		Start:    start,
		End:      end,
		Speed:    1,
		Zoom:     1,
		PresetID: preset.ID,
		Crop:     geom.FullFrame(),
		Color:    colorFor(len(clips)),
	}
	next := append(CloneClips(clips), clip)
	return next, clip, true
}

// Trim sets both ends of a clip's window. start is clamped to
// [0, mediaDuration-MinClipLength] and end to [start+MinClipLength, mediaDuration].
func Trim(clips []Clip, id string, start, end, mediaDuration float64) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 || !validNumber(start) || !validNumber(end) || !validNumber(mediaDuration) || mediaDuration < MinClipLength {
		return clips, false
	}
	ns := geom.Clamp(start, 0, mediaDuration-MinClipLength)
	ne := geom.Clamp(end, ns+MinClipLength, mediaDuration)
	return applyWindow(clips, i, ns, ne)
}

// TrimStart moves only the in-point, clamped to [0, end-MinClipLength].
func TrimStart(clips []Clip, id string, start float64) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 || !validNumber(start) {
		return clips, false
	}
	c := clips[i]
	return applyWindow(clips, i, geom.Clamp(start, 0, c.End-MinClipLength), c.End)
}

// TrimEnd moves only the out-point, clamped to [start+MinClipLength, mediaDuration].
func TrimEnd(clips []Clip, id string, end, mediaDuration float64) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 || !validNumber(end) || !validNumber(mediaDuration) {
		return clips, false
	}
	c := clips[i]
	return applyWindow(clips, i, c.Start, geom.Clamp(end, c.Start+MinClipLength, mediaDuration))
}

func applyWindow(clips []Clip, i int, start, end float64) ([]Clip, bool) {
	if start < 0 || end-start < MinClipLength-geom.Epsilon {
		return clips, false
	}
	if clips[i].Start == start && clips[i].End == end {
		return clips, false
	}
	next := CloneClips(clips)
	next[i].Start = start
	next[i].End = end
	return next, true
}

// Split replaces a clip with two halves meeting at source time `at`. Both
// halves keep every other field, including a full copy of the animation.
// It returns the id of the first half.
func Split(clips []Clip, id string, at float64) ([]Clip, string, bool) {
	i := indexOf(clips, id)
	if i < 0 || !validNumber(at) {
		return clips, "", false
	}
	c := clips[i]
	if !(c.Start+MinClipLength < at && at < c.End-MinClipLength) {
		return clips, "", false
	}

	first := cloneClip(c)
	first.ID = NewID()
	first.End = at

	second := cloneClip(c)
	second.ID = NewID()
	second.Start = at
	second.Name = c.Name + " (2)"
	second.Color = colorFor(len(clips))

	next := make([]Clip, 0, len(clips)+1)
	next = append(next, CloneClips(clips[:i])...)
	next = append(next, first, second)
	next = append(next, CloneClips(clips[i+1:])...)
	return next, first.ID, true
}

// Duplicate inserts a copy of the clip immediately after it and returns the
// copy's id.
func Duplicate(clips []Clip, id string) ([]Clip, string, bool) {
	i := indexOf(clips, id)
	if i < 0 {
		return clips, "", false
	}
	dup := cloneClip(clips[i])
	dup.ID = NewID()
	dup.Name = clips[i].Name + " copy"

	next := make([]Clip, 0, len(clips)+1)
	next = append(next, CloneClips(clips[:i+1])...)
	next = append(next, dup)
	next = append(next, CloneClips(clips[i+1:])...)
	return next, dup.ID, true
}

// Remove deletes the clip with the given id.
func Remove(clips []Clip, id string) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 {
		return clips, false
	}
	next := make([]Clip, 0, len(clips)-1)
	next = append(next, CloneClips(clips[:i])...)
	next = append(next, CloneClips(clips[i+1:])...)
	return next, true
}

// Reorder moves the clip at index from to index to.
func Reorder(clips []Clip, from, to int) ([]Clip, bool) {
	if from < 0 || from >= len(clips) || to < 0 || to >= len(clips) || from == to {
		return clips, false
	}
	next := CloneClips(clips)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]Clip{moved}, next[to:]...)...)
	return next, true
}

// SetSpeed changes the playback multiplier, clamped to [MinSpeed, MaxSpeed].
func SetSpeed(clips []Clip, id string, speed float64) ([]Clip, bool) {
	if !validNumber(speed) {
		return clips, false
	}
	return update(clips, id, func(c *Clip) {
		c.Speed = geom.Clamp(speed, MinSpeed, MaxSpeed)
	})
}

// SetZoom changes the manual zoom multiplier, clamped to [MinZoom, MaxZoom].
func SetZoom(clips []Clip, id string, zoom float64) ([]Clip, bool) {
	if !validNumber(zoom) {
		return clips, false
	}
	return update(clips, id, func(c *Clip) {
		c.Zoom = geom.Clamp(zoom, MinZoom, MaxZoom)
	})
}

// SetPreset points the clip at a catalog preset. Unknown ids are ignored.
func SetPreset(clips []Clip, id, presetID string) ([]Clip, bool) {
	if _, ok := LookupPreset(presetID); !ok {
		return clips, false
	}
	return update(clips, id, func(c *Clip) {
		c.PresetID = presetID
	})
}

// SetCrop replaces the static crop, resolved into a valid window.
func SetCrop(clips []Clip, id string, crop geom.CropRect) ([]Clip, bool) {
	if !validNumber(crop.X) || !validNumber(crop.Y) || !validNumber(crop.Width) || !validNumber(crop.Height) {
		return clips, false
	}
	return update(clips, id, func(c *Clip) {
		c.Crop = geom.ResolveCrop(crop)
	})
}

// Rename sets the display name. Blank names are ignored.
func Rename(clips []Clip, id, name string) ([]Clip, bool) {
	if name == "" {
		return clips, false
	}
	return update(clips, id, func(c *Clip) {
		c.Name = name
	})
}

// SetKeyframe adds a keyframe to a clip, or updates the one with the same id
// or time on that property's track. It returns the keyframe id.
func SetKeyframe(clips []Clip, id string, in KeyframeInput) ([]Clip, string, bool) {
	i := indexOf(clips, id)
	if i < 0 {
		return clips, "", false
	}
	anim, kfID, ok := setKeyframe(clips[i].Animation, in)
	if !ok {
		return clips, kfID, false
	}
	next := CloneClips(clips)
	next[i].Animation = anim
	return next, kfID, true
}

// RemoveKeyframe deletes a keyframe, collapsing empty tracks and animations.
func RemoveKeyframe(clips []Clip, id string, prop Property, keyframeID string) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 {
		return clips, false
	}
	anim, ok := removeKeyframe(clips[i].Animation, prop, keyframeID)
	if !ok {
		return clips, false
	}
	next := CloneClips(clips)
	next[i].Animation = anim
	return next, true
}

// ClearAnimation drops every keyframe track from a clip.
func ClearAnimation(clips []Clip, id string) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 || clips[i].Animation == nil {
		return clips, false
	}
	next := CloneClips(clips)
	next[i].Animation = nil
	return next, true
}

// RemoveBySource deletes every clip bound to sourceID. When includeUnbound
// is set, clips without an explicit source are removed too.
func RemoveBySource(clips []Clip, sourceID string, includeUnbound bool) ([]Clip, bool) {
	next := make([]Clip, 0, len(clips))
	for _, c := range clips {
		if c.SourceID == sourceID || (includeUnbound && c.SourceID == "") {
			continue
		}
		next = append(next, cloneClip(c))
	}
	if len(next) == len(clips) {
		return clips, false
	}
	return next, true
}

func update(clips []Clip, id string, fn func(*Clip)) ([]Clip, bool) {
	i := indexOf(clips, id)
	if i < 0 {
		return clips, false
	}
	candidate := cloneClip(clips[i])
	fn(&candidate)
	if ClipEqual(candidate, clips[i]) {
		return clips, false
	}
	next := CloneClips(clips)
	next[i] = candidate
	return next, true
}
