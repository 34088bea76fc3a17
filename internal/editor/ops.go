package editor

import (
	"math"

	"clipstudio/internal/export"
	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
)

// AddClip appends a clip cut from the current source at source time `at`
// and selects it.
func (d *Document) AddClip(at float64, presetID string) (string, bool) {
	return d.AddClipFrom("", at, presetID)
}

// AddClipFrom appends a clip cut from sourceID (empty for the current
// source) and selects it.
func (d *Document) AddClipFrom(sourceID string, at float64, presetID string) (string, bool) {
	var id string
	ok := d.mutate(func(s *State) Change {
		src, found := s.Source(sourceID)
		if !found {
			return 0
		}
		next, clip, ok := timeline.AddClip(s.Clips, at, src.Duration, src.ID, presetID)
		if !ok {
			return 0
		}
		s.Clips = next
		id = clip.ID
		return ChangeClips | selectClip(s, clip.ID)
	})
	return id, ok
}

// Trim sets a clip's source window, clamped to its media.
func (d *Document) Trim(id string, start, end float64) bool {
	return d.mutate(func(s *State) Change {
		dur, ok := mediaDuration(s, id)
		if !ok {
			return 0
		}
		next, ok := timeline.Trim(s.Clips, id, start, end, dur)
		if !ok {
			return 0
		}
		s.Clips = next
		return ChangeClips
	})
}

// TrimStart moves a clip's in-point.
func (d *Document) TrimStart(id string, start float64) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.TrimStart(clips, id, start)
	})
}

// TrimEnd moves a clip's out-point, bounded by its media duration.
func (d *Document) TrimEnd(id string, end float64) bool {
	return d.mutate(func(s *State) Change {
		dur, ok := mediaDuration(s, id)
		if !ok {
			return 0
		}
		next, ok := timeline.TrimEnd(s.Clips, id, end, dur)
		if !ok {
			return 0
		}
		s.Clips = next
		return ChangeClips
	})
}

// Split cuts a clip at source time `at` and selects the first half.
func (d *Document) Split(id string, at float64) (string, bool) {
	var first string
	ok := d.mutate(func(s *State) Change {
		next, fid, ok := timeline.Split(s.Clips, id, at)
		if !ok {
			return 0
		}
		s.Clips = next
		first = fid
		return ChangeClips | selectClip(s, fid)
	})
	return first, ok
}

// SplitAtPlayhead splits whichever clip is under the playhead.
func (d *Document) SplitAtPlayhead() (string, bool) {
	s := d.State()
	seg, ok := timeline.SegmentAt(timeline.Segments(s.Clips), s.Playhead)
	if !ok {
		return "", false
	}
	return d.Split(seg.ClipID, seg.SourceTime(s.Playhead))
}

// Duplicate copies a clip in place and selects the copy.
func (d *Document) Duplicate(id string) (string, bool) {
	var dup string
	ok := d.mutate(func(s *State) Change {
		next, nid, ok := timeline.Duplicate(s.Clips, id)
		if !ok {
			return 0
		}
		s.Clips = next
		dup = nid
		return ChangeClips | selectClip(s, nid)
	})
	return dup, ok
}

// Remove deletes a clip. A removed selection falls to the first clip.
func (d *Document) Remove(id string) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.Remove(clips, id)
	})
}

// Reorder moves the clip at index from to index to.
func (d *Document) Reorder(from, to int) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.Reorder(clips, from, to)
	})
}

// Select sets the active clip. An empty id clears the selection; unknown
// ids are ignored.
func (d *Document) Select(id string) bool {
	return d.mutate(func(s *State) Change {
		if id != "" && timeline.IndexOf(s.Clips, id) < 0 {
			return 0
		}
		return selectClip(s, id)
	})
}

// SetSpeed changes a clip's playback speed.
func (d *Document) SetSpeed(id string, speed float64) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.SetSpeed(clips, id, speed)
	})
}

// SetZoom changes a clip's manual zoom.
func (d *Document) SetZoom(id string, zoom float64) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.SetZoom(clips, id, zoom)
	})
}

// SetPreset points a clip at a catalog preset.
func (d *Document) SetPreset(id, presetID string) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.SetPreset(clips, id, presetID)
	})
}

// SetCrop replaces a clip's static crop.
func (d *Document) SetCrop(id string, crop geom.CropRect) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.SetCrop(clips, id, crop)
	})
}

// Rename sets a clip's display name.
func (d *Document) Rename(id, name string) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.Rename(clips, id, name)
	})
}

// SetKeyframe adds or updates a keyframe and returns its id.
func (d *Document) SetKeyframe(id string, in timeline.KeyframeInput) (string, bool) {
	var kfID string
	ok := d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		next, kid, ok := timeline.SetKeyframe(clips, id, in)
		kfID = kid
		return next, ok
	})
	return kfID, ok
}

// RemoveKeyframe deletes one keyframe.
func (d *Document) RemoveKeyframe(id string, prop timeline.Property, keyframeID string) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.RemoveKeyframe(clips, id, prop, keyframeID)
	})
}

// ClearAnimation drops a clip's keyframes.
func (d *Document) ClearAnimation(id string) bool {
	return d.edit(func(clips []timeline.Clip) ([]timeline.Clip, bool) {
		return timeline.ClearAnimation(clips, id)
	})
}

// AddSource registers media and makes it current when nothing else is.
// A missing id is generated.
func (d *Document) AddSource(src timeline.MediaSource) string {
	if src.ID == "" {
		src.ID = timeline.NewID()
	}
	d.mutate(func(s *State) Change {
		s.Sources = append(s.Sources, src)
		if s.CurrentSourceID == "" {
			s.CurrentSourceID = src.ID
		}
		return ChangeSources
	})
	return src.ID
}

// SetCurrentSource picks the source new clips are cut from.
func (d *Document) SetCurrentSource(id string) bool {
	return d.mutate(func(s *State) Change {
		if id == s.CurrentSourceID {
			return 0
		}
		if _, ok := s.Source(id); !ok || id == "" {
			return 0
		}
		s.CurrentSourceID = id
		return ChangeSources
	})
}

// ReleaseSource removes a media source together with every clip that plays
// from it and returns the removed source so the caller can free its file.
func (d *Document) ReleaseSource(id string) (timeline.MediaSource, bool) {
	var released timeline.MediaSource
	ok := d.mutate(func(s *State) Change {
		idx := -1
		for i, src := range s.Sources {
			if src.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0
		}
		released = s.Sources[idx]
		wasCurrent := s.CurrentSourceID == id
		s.Sources = append(s.Sources[:idx:idx], s.Sources[idx+1:]...)
		change := ChangeSources
		if next, ok := timeline.RemoveBySource(s.Clips, id, wasCurrent); ok {
			s.Clips = next
			change |= ChangeClips
		}
		if wasCurrent {
			s.CurrentSourceID = ""
			if len(s.Sources) > 0 {
				s.CurrentSourceID = s.Sources[0].ID
			}
		}
		return change
	})
	if ok {
		d.logger.Info().Str("source", released.Name).Msg("media source released")
	}
	return released, ok
}

// SetPlayhead moves the edited-time cursor, clamped to the timeline.
func (d *Document) SetPlayhead(t float64) bool {
	return d.mutate(func(s *State) Change {
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			t = 0
		}
		if len(s.Clips) > 0 {
			t = geom.Clamp(t, 0, timeline.TotalDuration(s.Clips))
		}
		if t == s.Playhead {
			return 0
		}
		s.Playhead = t
		return ChangePlayhead
	})
}

// SetPlaying records the transport state.
func (d *Document) SetPlaying(playing bool) bool {
	return d.mutate(func(s *State) Change {
		if s.Playing == playing {
			return 0
		}
		s.Playing = playing
		return ChangePlayhead
	})
}

// SetExportStatus publishes export progress.
func (d *Document) SetExportStatus(st export.Status) bool {
	return d.mutate(func(s *State) Change {
		if s.Export == st {
			return 0
		}
		s.Export = st
		return ChangeExport
	})
}

// ExportReporter mirrors export progress into the document.
func (d *Document) ExportReporter() export.ProgressReporter {
	return export.ReporterFunc(func(st export.Status) {
		d.SetExportStatus(st)
	})
}

// SetCaptureStatus publishes recorder state.
func (d *Document) SetCaptureStatus(st CaptureStatus) bool {
	return d.mutate(func(s *State) Change {
		if s.Capture == st {
			return 0
		}
		s.Capture = st
		return ChangeCapture
	})
}

func selectClip(s *State, id string) Change {
	if s.SelectedID == id {
		return 0
	}
	s.SelectedID = id
	return ChangeSelection
}

func mediaDuration(s *State, id string) (float64, bool) {
	clip, ok := timeline.Find(s.Clips, id)
	if !ok {
		return 0, false
	}
	src, ok := s.SourceFor(clip)
	if !ok {
		return 0, false
	}
	return src.Duration, true
}
