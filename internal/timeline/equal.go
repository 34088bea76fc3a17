package timeline

// CloneClips deep-copies a clip list, including animations.
func CloneClips(clips []Clip) []Clip {
	if clips == nil {
		return nil
	}
	out := make([]Clip, len(clips))
	for i, c := range clips {
		out[i] = cloneClip(c)
	}
	return out
}

func cloneClip(c Clip) Clip {
	c.Animation = cloneAnimation(c.Animation)
	return c
}

func cloneAnimation(a *Animation) *Animation {
	if a == nil {
		return nil
	}
	out := &Animation{ID: a.ID, Name: a.Name}
	if a.Tracks != nil {
		out.Tracks = make([]Track, len(a.Tracks))
		for i, t := range a.Tracks {
			out.Tracks[i] = Track{Property: t.Property}
			if t.Keyframes != nil {
				out.Tracks[i].Keyframes = append([]Keyframe(nil), t.Keyframes...)
			}
		}
	}
	return out
}

// Equal compares two clip lists field by field, descending into animations,
// tracks and keyframes. Nil and empty lists are equal.
func Equal(a, b []Clip) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ClipEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ClipEqual compares two clips structurally.
func ClipEqual(a, b Clip) bool {
	if a.ID != b.ID ||
		a.Name != b.Name ||
		a.SourceID != b.SourceID ||
		a.Start != b.Start ||
		a.End != b.End ||
		a.Speed != b.Speed ||
		a.Zoom != b.Zoom ||
		a.PresetID != b.PresetID ||
		a.Crop != b.Crop ||
		a.Color != b.Color {
		return false
	}
	return animationEqual(a.Animation, b.Animation)
}

func animationEqual(a, b *Animation) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ID != b.ID || a.Name != b.Name || len(a.Tracks) != len(b.Tracks) {
		return false
	}
	for i := range a.Tracks {
		ta, tb := a.Tracks[i], b.Tracks[i]
		if ta.Property != tb.Property || len(ta.Keyframes) != len(tb.Keyframes) {
			return false
		}
		for k := range ta.Keyframes {
			if ta.Keyframes[k] != tb.Keyframes[k] {
				return false
			}
		}
	}
	return true
}
