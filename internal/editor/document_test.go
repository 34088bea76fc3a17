package editor

import (
	"errors"
	"testing"

	"clipstudio/internal/export"
	"clipstudio/internal/timeline"
)

func TestAddClipSelectsAndUsesCurrentSource(t *testing.T) {
	d := newTestDocument(t, 20)
	id := mustAdd(t, d, 18)

	s := d.State()
	if s.SelectedID != id {
		t.Errorf("selected = %q, want %q", s.SelectedID, id)
	}
	clip := s.Clips[0]
	if clip.SourceID != "src" || clip.Start != 18 || clip.End != 20 {
		t.Errorf("unexpected clip %+v", clip)
	}
}

func TestAddClipWithoutSourceIsNoop(t *testing.T) {
	d := New(zeroLogger())
	if _, ok := d.AddClip(0, ""); ok {
		t.Fatal("add without media should be a no-op")
	}
}

func TestRemoveSelectedFallsToFirst(t *testing.T) {
	d := newTestDocument(t, 60)
	a := mustAdd(t, d, 0)
	mustAdd(t, d, 10)
	c := mustAdd(t, d, 20)

	if !d.Remove(c) {
		t.Fatal("remove failed")
	}
	if got := d.State().SelectedID; got != a {
		t.Errorf("selection = %q, want first clip %q", got, a)
	}

	d.Select("")
	d.Remove(a)
	if got := d.State().SelectedID; got != "" {
		t.Errorf("empty selection changed to %q", got)
	}
}

func TestSplitSelectsFirstHalf(t *testing.T) {
	d := newTestDocument(t, 60)
	id := mustAdd(t, d, 0)
	first, ok := d.Split(id, 2)
	if !ok {
		t.Fatal("split failed")
	}
	s := d.State()
	if s.SelectedID != first || s.Clips[0].ID != first {
		t.Errorf("selection %q, first %q", s.SelectedID, s.Clips[0].ID)
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	d := newTestDocument(t, 60)
	a := mustAdd(t, d, 10)
	d.SetSpeed(a, 2)
	d.SetPlayhead(1)

	if _, ok := d.SplitAtPlayhead(); !ok {
		t.Fatal("split at playhead failed")
	}
	clips := d.Clips()
	if len(clips) != 2 || clips[0].End != 12 {
		t.Fatalf("unexpected split: %+v", clips)
	}
}

func TestTrimUsesSourceDuration(t *testing.T) {
	d := newTestDocument(t, 8)
	id := mustAdd(t, d, 0)
	if !d.Trim(id, 1, 100) {
		t.Fatal("trim failed")
	}
	if got := d.Clips()[0].End; got != 8 {
		t.Errorf("end = %v, want media duration 8", got)
	}
	if d.TrimEnd(id, 50) {
		t.Error("end already at the media limit should not change")
	}
}

func TestReleaseSourceDropsItsClips(t *testing.T) {
	d := newTestDocument(t, 30)
	mustAdd(t, d, 0)
	other := d.AddSource(timeline.MediaSource{Name: "b.mp4", Duration: 10})
	keep, ok := d.AddClipFrom(other, 0, "")
	if !ok {
		t.Fatal("add from second source failed")
	}

	src, ok := d.ReleaseSource("src")
	if !ok || src.Name != "take.mp4" {
		t.Fatalf("release returned %+v, %v", src, ok)
	}
	s := d.State()
	if len(s.Clips) != 1 || s.Clips[0].ID != keep {
		t.Fatalf("unexpected clips after release: %+v", s.Clips)
	}
	if s.CurrentSourceID != other {
		t.Errorf("current source = %q, want %q", s.CurrentSourceID, other)
	}
	if _, ok := d.ReleaseSource("src"); ok {
		t.Error("second release should be a no-op")
	}
}

func TestSubscribersSeeChanges(t *testing.T) {
	d := newTestDocument(t, 30)
	var events []Event
	cancel := d.Subscribe(func(ev Event) { events = append(events, ev) })

	id := mustAdd(t, d, 0)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if !ev.Change.Has(ChangeClips|ChangeSelection|ChangeHistory) || ev.State.SelectedID != id {
		t.Errorf("unexpected event %+v", ev.Change)
	}

	d.SetZoom(id, 1)
	if len(events) != 1 {
		t.Error("no-op edit notified subscribers")
	}

	cancel()
	d.SetZoom(id, 2)
	if len(events) != 1 {
		t.Error("cancelled subscriber still notified")
	}
}

func TestBatchCommitsOneStep(t *testing.T) {
	d := newTestDocument(t, 60)
	var events int
	d.Subscribe(func(Event) { events++ })

	err := d.Batch(func() error {
		a := mustAdd(t, d, 0)
		mustAdd(t, d, 10)
		d.SetSpeed(a, 2)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if events != 1 {
		t.Errorf("batch emitted %d events, want 1", events)
	}
	if len(d.Clips()) != 2 {
		t.Fatal("batch edits missing")
	}
	if !d.Undo() || len(d.Clips()) != 0 {
		t.Error("one undo should revert the whole batch")
	}
	if d.CanUndo() {
		t.Error("batch produced more than one undo step")
	}
}

func TestBatchRollsBackOnError(t *testing.T) {
	d := newTestDocument(t, 60)
	mustAdd(t, d, 0)
	before := d.Clips()

	boom := errors.New("boom")
	err := d.Batch(func() error {
		mustAdd(t, d, 10)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !timeline.Equal(d.Clips(), before) {
		t.Error("failed batch left edits behind")
	}
	if !d.Undo() || len(d.Clips()) != 0 {
		t.Error("history should only hold the first add")
	}
}

func TestUndoDisabledDuringBatch(t *testing.T) {
	d := newTestDocument(t, 60)
	mustAdd(t, d, 0)
	d.Batch(func() error {
		if d.Undo() {
			t.Error("undo ran inside a batch")
		}
		return nil
	})
}

func TestStatusUpdates(t *testing.T) {
	d := newTestDocument(t, 60)
	st := export.Status{Phase: export.PhaseRendering, Progress: 40, Frames: 40, TotalFrames: 100}
	if !d.SetExportStatus(st) || d.SetExportStatus(st) {
		t.Error("export status should change once")
	}
	if d.State().Export != st {
		t.Error("export status not stored")
	}
	if !d.SetCaptureStatus(CaptureStatus{Recording: true, Elapsed: 2}) {
		t.Error("capture status not stored")
	}
	if d.CanUndo() {
		t.Error("status changes must not create undo steps")
	}
}

func TestPlayheadClampsToTimeline(t *testing.T) {
	d := newTestDocument(t, 60)
	mustAdd(t, d, 0)
	d.SetPlayhead(100)
	if got := d.State().Playhead; got != 5 {
		t.Errorf("playhead = %v, want 5", got)
	}
	d.SetPlayhead(-2)
	if got := d.State().Playhead; got != 0 {
		t.Errorf("playhead = %v, want 0", got)
	}
}

func TestExportJobAndReporter(t *testing.T) {
	doc := newTestDocument(t, 10)
	mustAdd(t, doc, 1)

	job := doc.State().ExportJob("out.mp4")
	if len(job.Clips) != 1 || job.CurrentSourceID != "src" || job.Output != "out.mp4" {
		t.Fatalf("job = %+v", job)
	}

	var events []Change
	cancel := doc.Subscribe(func(ev Event) { events = append(events, ev.Change) })
	defer cancel()
	doc.ExportReporter().Progress(export.Status{Phase: export.PhaseRendering, Progress: 10})
	if got := doc.State().Export; got.Phase != export.PhaseRendering || got.Progress != 10 {
		t.Errorf("export status = %+v", got)
	}
	if len(events) != 1 || !events[0].Has(ChangeExport) {
		t.Errorf("events = %v", events)
	}
	if !doc.CanUndo() {
		t.Error("add should still be undoable")
	}
}
