package editor

import "clipstudio/internal/timeline"

// HistoryLimit bounds the number of undo steps kept.
const HistoryLimit = 50

// History keeps deep snapshots of the clip list for undo and redo. Only
// structural changes are recorded: a snapshot equal to the current one is
// dropped, so selection or playback changes never create undo steps.
type History struct {
	past    [][]timeline.Clip
	present []timeline.Clip
	future  [][]timeline.Clip
	limit   int
}

// NewHistory starts a history whose baseline is clips.
func NewHistory(clips []timeline.Clip) *History {
	return &History{present: timeline.CloneClips(clips), limit: HistoryLimit}
}

// Reset drops every undo and redo step and rebases on clips.
func (h *History) Reset(clips []timeline.Clip) {
	h.past = nil
	h.future = nil
	h.present = timeline.CloneClips(clips)
}

// Record registers clips as the newest state. It reports whether a new undo
// step was created.
func (h *History) Record(clips []timeline.Clip) bool {
	if timeline.Equal(clips, h.present) {
		return false
	}
	h.past = append(h.past, h.present)
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.present = timeline.CloneClips(clips)
	h.future = nil
	return true
}

// Undo steps back one snapshot and returns the restored clip list.
func (h *History) Undo() ([]timeline.Clip, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.present)
	h.present = prev
	return timeline.CloneClips(prev), true
}

// Redo re-applies the most recently undone snapshot.
func (h *History) Redo() ([]timeline.Clip, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, h.present)
	h.present = next
	return timeline.CloneClips(next), true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the number of undo and redo steps held.
func (h *History) Depth() (undo, redo int) {
	return len(h.past), len(h.future)
}
