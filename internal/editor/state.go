package editor

import (
	"clipstudio/internal/export"
	"clipstudio/internal/timeline"
)

// CaptureStatus mirrors the recorder for display.
type CaptureStatus struct {
	Recording bool    `json:"recording" yaml:"recording"`
	Elapsed   float64 `json:"elapsed" yaml:"elapsed"`
	Message   string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// State is a point-in-time copy of the document.
type State struct {
	Sources         []timeline.MediaSource `json:"sources"`
	CurrentSourceID string                 `json:"currentSourceId,omitempty"`
	Clips           []timeline.Clip        `json:"clips"`
	SelectedID      string                 `json:"selectedId,omitempty"`
	Playhead        float64                `json:"playhead"`
	Playing         bool                   `json:"playing"`
	Export          export.Status          `json:"export"`
	Capture         CaptureStatus          `json:"capture"`
}

// TotalDuration is the edited length of the clip list.
func (s State) TotalDuration() float64 {
	return timeline.TotalDuration(s.Clips)
}

// Source returns the media source with id. An empty id resolves to the
// current source.
func (s State) Source(id string) (timeline.MediaSource, bool) {
	if id == "" {
		id = s.CurrentSourceID
	}
	for _, src := range s.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return timeline.MediaSource{}, false
}

// SourceFor resolves the media backing clip.
func (s State) SourceFor(clip timeline.Clip) (timeline.MediaSource, bool) {
	return s.Source(clip.SourceID)
}

// Selected returns the selected clip, if any.
func (s State) Selected() (timeline.Clip, bool) {
	return timeline.Find(s.Clips, s.SelectedID)
}

// ExportJob builds the export request for the current clip list.
func (s State) ExportJob(output string) export.Job {
	return export.Job{
		Clips:           timeline.CloneClips(s.Clips),
		Sources:         append([]timeline.MediaSource(nil), s.Sources...),
		CurrentSourceID: s.CurrentSourceID,
		Output:          output,
	}
}

func (s State) clone() State {
	out := s
	out.Sources = append([]timeline.MediaSource(nil), s.Sources...)
	out.Clips = timeline.CloneClips(s.Clips)
	return out
}

// Change is a bit set describing which parts of the state moved.
type Change uint16

const (
	ChangeClips Change = 1 << iota
	ChangeSelection
	ChangeSources
	ChangePlayhead
	ChangeExport
	ChangeCapture
	ChangeHistory
)

// Has reports whether c includes every bit of other.
func (c Change) Has(other Change) bool {
	return c&other == other
}

// Event is delivered to subscribers after each committed change.
type Event struct {
	Change Change
	State  State
}

// Listener receives document events.
type Listener func(Event)
