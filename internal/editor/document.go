// Package editor holds the single mutable studio document: the media
// sources, the ordered clip list, selection, playhead and the export and
// capture status. Every clip edit goes through the document so that it is
// recorded in the undo history and announced to subscribers.
package editor

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"clipstudio/internal/export"
	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
)

// Document is safe for concurrent use. Listeners run on the goroutine that
// made the change, after the document lock is released.
type Document struct {
	// batchMu is held for the whole of a Batch so concurrent action lists
	// commit as separate undo steps.
	batchMu   sync.Mutex
	mu        sync.Mutex
	state     State
	history   *History
	batching  bool
	pending   Change
	rollback  []timeline.Clip
	listeners map[int]Listener
	nextID    int
	logger    zerolog.Logger
}

// New returns an empty document.
func New(logger zerolog.Logger) *Document {
	return &Document{
		state:     State{Export: export.Status{Phase: export.PhaseIdle}},
		history:   NewHistory(nil),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Load replaces the whole document and clears the undo history.
func (d *Document) Load(s State) {
	d.mu.Lock()
	d.state = s.clone()
	if d.state.Export.Phase == "" {
		d.state.Export.Phase = export.PhaseIdle
	}
	if _, ok := d.state.Source(""); !ok && len(d.state.Sources) > 0 {
		d.state.CurrentSourceID = d.state.Sources[0].ID
	}
	fixSelection(&d.state)
	d.history.Reset(d.state.Clips)
	d.mu.Unlock()
	d.notify(ChangeClips | ChangeSelection | ChangeSources | ChangePlayhead | ChangeHistory)
}

// Subscribe registers fn for change events and returns its cancel func.
func (d *Document) Subscribe(fn Listener) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// State returns a deep copy of the document.
func (d *Document) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

// Clips returns a deep copy of the clip list.
func (d *Document) Clips() []timeline.Clip {
	d.mu.Lock()
	defer d.mu.Unlock()
	return timeline.CloneClips(d.state.Clips)
}

// CanUndo reports whether Undo would change anything.
func (d *Document) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.batching && d.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (d *Document) CanRedo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.batching && d.history.CanRedo()
}

// Batch runs fn with history recording suspended, then records the combined
// result as a single undo step. If fn returns an error the clip list is
// rolled back to where it was when the batch began. Batches run one at a
// time; a second caller waits for the first to commit. fn must not start
// another batch.
func (d *Document) Batch(fn func() error) error {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()

	d.mu.Lock()
	d.rollback = timeline.CloneClips(d.state.Clips)
	d.batching = true
	d.mu.Unlock()

	err := fn()

	d.mu.Lock()
	d.batching = false
	change := d.pending
	d.pending = 0
	if err != nil && !timeline.Equal(d.state.Clips, d.rollback) {
		d.state.Clips = d.rollback
		change |= ChangeClips | fixSelection(&d.state) | clampPlayhead(&d.state)
	}
	d.rollback = nil
	if change.Has(ChangeClips) && d.history.Record(d.state.Clips) {
		change |= ChangeHistory
	}
	d.mu.Unlock()
	d.notify(change)
	return err
}

// Undo restores the previous clip snapshot.
func (d *Document) Undo() bool {
	return d.restore(d.history.Undo, "undo")
}

// Redo re-applies the last undone snapshot.
func (d *Document) Redo() bool {
	return d.restore(d.history.Redo, "redo")
}

func (d *Document) restore(step func() ([]timeline.Clip, bool), name string) bool {
	d.mu.Lock()
	if d.batching {
		d.mu.Unlock()
		return false
	}
	clips, ok := step()
	if !ok {
		d.mu.Unlock()
		return false
	}
	d.state.Clips = clips
	change := ChangeClips | ChangeHistory | fixSelection(&d.state) | clampPlayhead(&d.state)
	undo, redo := d.history.Depth()
	d.mu.Unlock()

	d.logger.Debug().Int("undo", undo).Int("redo", redo).Msg(name)
	d.notify(change)
	return true
}

// mutate applies fn under the lock, records clip changes in the history and
// notifies subscribers.
func (d *Document) mutate(fn func(s *State) Change) bool {
	d.mu.Lock()
	change := fn(&d.state)
	if change == 0 {
		d.mu.Unlock()
		return false
	}
	if change.Has(ChangeClips) {
		change |= fixSelection(&d.state) | clampPlayhead(&d.state)
	}
	if d.batching {
		d.pending |= change
		d.mu.Unlock()
		return true
	}
	if change.Has(ChangeClips) && d.history.Record(d.state.Clips) {
		change |= ChangeHistory
	}
	d.mu.Unlock()
	d.notify(change)
	return true
}

// edit runs a clip list operation.
func (d *Document) edit(op func([]timeline.Clip) ([]timeline.Clip, bool)) bool {
	return d.mutate(func(s *State) Change {
		next, ok := op(s.Clips)
		if !ok {
			return 0
		}
		s.Clips = next
		return ChangeClips
	})
}

func (d *Document) notify(change Change) {
	if change == 0 {
		return
	}
	d.mu.Lock()
	if len(d.listeners) == 0 {
		d.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, len(ids))
	for i, id := range ids {
		fns[i] = d.listeners[id]
	}
	ev := Event{Change: change, State: d.state.clone()}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// fixSelection clears or moves a selection that no longer points at a clip.
func fixSelection(s *State) Change {
	if s.SelectedID == "" || timeline.IndexOf(s.Clips, s.SelectedID) >= 0 {
		return 0
	}
	s.SelectedID = ""
	if len(s.Clips) > 0 {
		s.SelectedID = s.Clips[0].ID
	}
	return ChangeSelection
}

func clampPlayhead(s *State) Change {
	if len(s.Clips) == 0 {
		return 0
	}
	p := geom.Clamp(s.Playhead, 0, timeline.TotalDuration(s.Clips))
	if p == s.Playhead {
		return 0
	}
	s.Playhead = p
	return ChangePlayhead
}
