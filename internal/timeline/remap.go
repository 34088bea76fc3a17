package timeline

import "clipstudio/internal/geom"

// Segment is a clip's contiguous span of edited time. Segments are laid out
// back to back in list order regardless of their source windows.
type Segment struct {
	Index          int
	ClipID         string
	OutputStart    float64
	OutputDuration float64
	Start          float64
	End            float64
	Speed          float64
}

// OutputEnd is the exclusive end of the segment in edited time.
func (s Segment) OutputEnd() float64 {
	return s.OutputStart + s.OutputDuration
}

// SourceTime maps an edited time inside the segment to source seconds.
func (s Segment) SourceTime(edited float64) float64 {
	return geom.Clamp(s.Start+(edited-s.OutputStart)*s.Speed, s.Start, s.End)
}

// EditedTime maps a source time inside the window to edited seconds.
func (s Segment) EditedTime(source float64) float64 {
	if s.Speed <= 0 {
		return s.OutputStart
	}
	return s.OutputStart + (source-s.Start)/s.Speed
}

// ContainsSource reports whether source lies within [Start, End].
func (s Segment) ContainsSource(source float64) bool {
	return source >= s.Start-geom.Epsilon && source <= s.End+geom.Epsilon
}

// Segments derives the edited-time layout of clips.
func Segments(clips []Clip) []Segment {
	segs := make([]Segment, len(clips))
	cursor := 0.0
	for i, c := range clips {
		d := c.OutputDuration()
		segs[i] = Segment{
			Index:          i,
			ClipID:         c.ID,
			OutputStart:    cursor,
			OutputDuration: d,
			Start:          c.Start,
			End:            c.End,
			Speed:          c.Speed,
		}
		cursor += d
	}
	return segs
}

// TotalDuration is the summed output duration of all clips.
func TotalDuration(clips []Clip) float64 {
	total := 0.0
	for _, c := range clips {
		total += c.OutputDuration()
	}
	return total
}

// SegmentAt finds the segment covering edited time t. Times past the end
// resolve to the last segment and negative times to the first.
func SegmentAt(segs []Segment, t float64) (Segment, bool) {
	if len(segs) == 0 {
		return Segment{}, false
	}
	for _, s := range segs {
		if t < s.OutputEnd() {
			return s, true
		}
	}
	return segs[len(segs)-1], true
}

// SourceTimeFromEditedTime converts an edited position to the source time
// the media should be seeked to.
func SourceTimeFromEditedTime(clips []Clip, t float64) float64 {
	seg, ok := SegmentAt(Segments(clips), t)
	if !ok {
		return 0
	}
	return seg.SourceTime(t)
}

// EditedTimeFromSourceTime converts a media position back to edited time
// using the first segment whose window contains it. A time outside every
// window maps to 0 when it precedes the first clip and to the total
// duration otherwise.
func EditedTimeFromSourceTime(clips []Clip, source float64) float64 {
	return EditedTimeFromSourceTimeNear(clips, source, -1)
}

// EditedTimeFromSourceTimeNear is EditedTimeFromSourceTime with a preferred
// segment index, used when clips reuse overlapping footage and the caller
// already knows which segment is playing.
func EditedTimeFromSourceTimeNear(clips []Clip, source float64, hint int) float64 {
	segs := Segments(clips)
	if len(segs) == 0 {
		return 0
	}
	if hint >= 0 && hint < len(segs) && segs[hint].ContainsSource(source) {
		return clampEdited(segs[hint], source)
	}
	for _, s := range segs {
		if s.ContainsSource(source) {
			return clampEdited(s, source)
		}
	}
	if source < segs[0].Start {
		return 0
	}
	last := segs[len(segs)-1]
	return last.OutputEnd()
}

func clampEdited(s Segment, source float64) float64 {
	return geom.Clamp(s.EditedTime(source), s.OutputStart, s.OutputEnd())
}
