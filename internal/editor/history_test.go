package editor

import (
	"testing"

	"clipstudio/internal/timeline"
)

func TestHistoryDedupesEqualSnapshots(t *testing.T) {
	clips := []timeline.Clip{{ID: "a", Start: 0, End: 1, Speed: 1, Zoom: 1}}
	h := NewHistory(clips)
	if h.Record(timeline.CloneClips(clips)) {
		t.Fatal("equal snapshot recorded")
	}
	changed := timeline.CloneClips(clips)
	changed[0].End = 2
	if !h.Record(changed) {
		t.Fatal("changed snapshot not recorded")
	}
	if undo, redo := h.Depth(); undo != 1 || redo != 0 {
		t.Fatalf("depth = %d/%d", undo, redo)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(nil)
	for i := 0; i < HistoryLimit+20; i++ {
		h.Record([]timeline.Clip{{ID: "a", Start: float64(i), End: float64(i) + 1, Speed: 1, Zoom: 1}})
	}
	undo, _ := h.Depth()
	if undo != HistoryLimit {
		t.Fatalf("undo depth = %d, want %d", undo, HistoryLimit)
	}
	var last []timeline.Clip
	for h.CanUndo() {
		last, _ = h.Undo()
	}
	if last[0].Start != 19 {
		t.Errorf("oldest retained start = %v, want 19", last[0].Start)
	}
}

func TestHistoryRecordClearsRedo(t *testing.T) {
	h := NewHistory(nil)
	h.Record([]timeline.Clip{{ID: "a"}})
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo")
	}
	h.Record([]timeline.Clip{{ID: "b"}})
	if h.CanRedo() {
		t.Error("new record should clear redo")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	d := newTestDocument(t, 60)

	var states [][]timeline.Clip
	states = append(states, d.Clips())

	a := mustAdd(t, d, 0)
	states = append(states, d.Clips())
	b := mustAdd(t, d, 10)
	states = append(states, d.Clips())
	if !d.SetSpeed(b, 2) {
		t.Fatal("speed")
	}
	states = append(states, d.Clips())
	if _, ok := d.Split(a, 2); !ok {
		t.Fatal("split")
	}
	states = append(states, d.Clips())
	if _, ok := d.SetKeyframe(b, timeline.KeyframeInput{Property: timeline.PropZoom, Time: 0.5, Value: 2}); !ok {
		t.Fatal("keyframe")
	}
	states = append(states, d.Clips())
	if !d.Reorder(0, 2) {
		t.Fatal("reorder")
	}
	states = append(states, d.Clips())

	n := len(states) - 1
	for i := n - 1; i >= 0; i-- {
		if !d.Undo() {
			t.Fatalf("undo %d failed", n-i)
		}
		if !timeline.Equal(d.Clips(), states[i]) {
			t.Fatalf("after undo to step %d clips differ", i)
		}
	}
	if d.Undo() {
		t.Fatal("undo past the beginning")
	}
	for i := 1; i <= n; i++ {
		if !d.Redo() {
			t.Fatalf("redo %d failed", i)
		}
		if !timeline.Equal(d.Clips(), states[i]) {
			t.Fatalf("after redo to step %d clips differ", i)
		}
	}
	if d.Redo() {
		t.Fatal("redo past the end")
	}
}

func TestNonClipChangesDoNotCreateUndoSteps(t *testing.T) {
	d := newTestDocument(t, 60)
	id := mustAdd(t, d, 0)
	d.Select("")
	d.Select(id)
	d.SetPlayhead(1)
	d.SetPlaying(true)

	if !d.Undo() {
		t.Fatal("expected the add to be undoable")
	}
	if len(d.Clips()) != 0 {
		t.Fatal("undo should have removed the added clip")
	}
	if d.CanUndo() {
		t.Error("selection and playback created undo steps")
	}
}
