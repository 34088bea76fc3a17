package timeline

import (
	"testing"

	"clipstudio/internal/geom"
)

func TestAddClip(t *testing.T) {
	tests := []struct {
		name      string
		at        float64
		duration  float64
		preset    string
		wantStart float64
		wantEnd   float64
		wantOK    bool
	}{
		{"default preset", 2, 30, "", 2, 7, true},
		{"clamped to media end", 28, 30, "wide", 28, 30, true},
		{"past end pins to last window", 40, 30, "wide", 29.8, 30, true},
		{"negative time", -3, 30, "close-up", 0, 3, true},
		{"unknown preset", 1, 30, "nope", 0, 0, false},
		{"media too short", 0, 0.1, "", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, clip, ok := AddClip(nil, tt.at, tt.duration, "", tt.preset)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if len(next) != 0 {
					t.Fatalf("expected no clips, got %d", len(next))
				}
				return
			}
			approx(t, "start", clip.Start, tt.wantStart, 1e-9)
			approx(t, "end", clip.End, tt.wantEnd, 1e-9)
			if len(next) != 1 || next[0].ID != clip.ID {
				t.Fatalf("clip not appended: %+v", next)
			}
			assertValid(t, next)
		})
	}
}

func TestAddClipAssignsPaletteRoundRobin(t *testing.T) {
	var clips []Clip
	for i := 0; i < len(Palette)+1; i++ {
		clips, _, _ = AddClip(clips, 0, 30, "", "")
	}
	if clips[0].Color != Palette[0] || clips[len(Palette)].Color != Palette[0] {
		t.Errorf("palette did not wrap: %q %q", clips[0].Color, clips[len(Palette)].Color)
	}
	if clips[1].Color != Palette[1] {
		t.Errorf("second clip color = %q, want %q", clips[1].Color, Palette[1])
	}
}

func TestTrimClamps(t *testing.T) {
	base := []Clip{makeClip("a", 2, 8, 1)}

	next, ok := Trim(base, "a", -1, 50, 20)
	if !ok {
		t.Fatal("expected trim to apply")
	}
	approx(t, "start", next[0].Start, 0, 0)
	approx(t, "end", next[0].End, 20, 0)
	if base[0].Start != 2 || base[0].End != 8 {
		t.Fatal("input slice was mutated")
	}

	next, ok = TrimStart(base, "a", 7.95)
	if !ok {
		t.Fatal("expected start trim to apply")
	}
	approx(t, "start clamp", next[0].Start, 7.8, 1e-9)
	assertValid(t, next)

	next, ok = TrimEnd(base, "a", 2.05, 20)
	if !ok {
		t.Fatal("expected end trim to apply")
	}
	approx(t, "end clamp", next[0].End, 2.2, 1e-9)
	assertValid(t, next)
}

func TestTrimNoops(t *testing.T) {
	base := []Clip{makeClip("a", 2, 8, 1)}
	if _, ok := Trim(base, "missing", 0, 1, 10); ok {
		t.Error("unknown id should be a no-op")
	}
	if _, ok := Trim(base, "a", 2, 8, 10); ok {
		t.Error("unchanged window should be a no-op")
	}
	if _, ok := Trim(base, "a", 0, 0.1, 0.1); ok {
		t.Error("media shorter than minimum should be a no-op")
	}
}

func TestSplit(t *testing.T) {
	orig := makeClip("a", 0, 10, 1.5)
	orig, _, _ = setKeyframeOn(orig, KeyframeInput{Property: PropZoom, Time: 0, Value: 1})
	base := []Clip{makeClip("before", 20, 21, 1), orig, makeClip("after", 30, 31, 1)}

	next, firstID, ok := Split(base, "a", 4)
	if !ok {
		t.Fatal("expected split")
	}
	if len(next) != 4 {
		t.Fatalf("expected 4 clips, got %d", len(next))
	}
	first, second := next[1], next[2]
	if first.ID != firstID {
		t.Errorf("returned id %q is not the first half %q", firstID, first.ID)
	}
	if first.ID == orig.ID || second.ID == orig.ID || first.ID == second.ID {
		t.Error("halves must get fresh distinct ids")
	}
	approx(t, "first end", first.End, 4, 0)
	approx(t, "second start", second.Start, 4, 0)
	approx(t, "span", (first.End-first.Start)+(second.End-second.Start), orig.End-orig.Start, 1e-9)
	approx(t, "output", first.OutputDuration()+second.OutputDuration(), orig.OutputDuration(), 1e-9)
	if first.Speed != orig.Speed || second.Speed != orig.Speed {
		t.Error("speed must be preserved")
	}
	if first.Animation == nil || second.Animation == nil {
		t.Fatal("both halves should inherit the animation")
	}
	if first.Animation == second.Animation {
		t.Error("animations must be independent copies")
	}
	if next[0].ID != "before" || next[3].ID != "after" {
		t.Error("neighbours moved")
	}
}

func TestSplitRejectsEdges(t *testing.T) {
	base := []Clip{makeClip("a", 0, 10, 1)}
	for _, at := range []float64{0, 0.2, 9.8, 10, 12, -1} {
		if _, _, ok := Split(base, "a", at); ok {
			t.Errorf("split at %v should be rejected", at)
		}
	}
}

func TestDuplicateRemoveReorder(t *testing.T) {
	base := []Clip{makeClip("a", 0, 2, 1), makeClip("b", 2, 4, 1), makeClip("c", 4, 6, 1)}

	next, dupID, ok := Duplicate(base, "a")
	if !ok || len(next) != 4 {
		t.Fatalf("duplicate failed: ok=%v len=%d", ok, len(next))
	}
	if next[1].ID != dupID || next[1].Start != 0 || next[1].End != 2 {
		t.Errorf("duplicate not inserted after source: %+v", next[1])
	}

	next, ok = Remove(next, "b")
	if !ok || IndexOf(next, "b") != -1 {
		t.Fatal("remove failed")
	}
	if _, ok := Remove(next, "b"); ok {
		t.Error("second remove should be a no-op")
	}

	next, ok = Reorder(base, 0, 2)
	if !ok {
		t.Fatal("reorder failed")
	}
	got := []string{next[0].ID, next[1].ID, next[2].ID}
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	for _, bad := range [][2]int{{0, 0}, {-1, 1}, {0, 3}} {
		if _, ok := Reorder(base, bad[0], bad[1]); ok {
			t.Errorf("reorder %v should be a no-op", bad)
		}
	}
}

func TestPropertySetters(t *testing.T) {
	base := []Clip{makeClip("a", 0, 10, 1)}

	next, ok := SetSpeed(base, "a", 9)
	if !ok || next[0].Speed != MaxSpeed {
		t.Errorf("speed = %v, want %v", next[0].Speed, MaxSpeed)
	}
	next, _ = SetSpeed(base, "a", 0.01)
	if next[0].Speed != MinSpeed {
		t.Errorf("speed = %v, want %v", next[0].Speed, MinSpeed)
	}
	next, _ = SetZoom(base, "a", 0.5)
	if _, ok := SetZoom(base, "a", 0.5); ok {
		t.Error("zoom below 1 clamps to the current value and should be a no-op")
	}
	if next[0].Zoom != 1 {
		t.Errorf("zoom = %v", next[0].Zoom)
	}
	if _, ok := SetPreset(base, "a", "does-not-exist"); ok {
		t.Error("unknown preset should be ignored")
	}
	next, ok = SetPreset(base, "a", "close-up")
	if !ok || next[0].PresetID != "close-up" {
		t.Error("preset not applied")
	}
	next, ok = SetCrop(base, "a", geom.CropRect{X: 90, Y: 0, Width: 50, Height: 100})
	if !ok {
		t.Fatal("crop not applied")
	}
	if next[0].Crop.X+next[0].Crop.Width > 100 {
		t.Errorf("crop escapes frame: %+v", next[0].Crop)
	}
	assertValid(t, next)
}

func TestRemoveBySource(t *testing.T) {
	a := makeClip("a", 0, 1, 1)
	a.SourceID = "src1"
	b := makeClip("b", 0, 1, 1)
	c := makeClip("c", 0, 1, 1)
	c.SourceID = "src2"

	next, ok := RemoveBySource([]Clip{a, b, c}, "src1", true)
	if !ok || len(next) != 1 || next[0].ID != "c" {
		t.Fatalf("unexpected result: %+v", next)
	}
}

func setKeyframeOn(c Clip, in KeyframeInput) (Clip, string, bool) {
	next, id, ok := SetKeyframe([]Clip{c}, c.ID, in)
	return next[0], id, ok
}
