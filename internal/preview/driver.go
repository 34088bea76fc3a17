// Package preview drives live playback of the edited timeline over the
// source media's own clock. On every time update it derives the edited
// position, jumps over cuts and composes the transform the surface should
// show, using the same composer the exporter bakes in.
package preview

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"clipstudio/internal/editor"
	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
	"clipstudio/internal/transform"
)

// Frame is what the preview surface shows at one moment.
type Frame struct {
	EditedTime float64             `json:"editedTime"`
	SourceTime float64             `json:"sourceTime"`
	ClipIndex  int                 `json:"clipIndex"`
	ClipID     string              `json:"clipId,omitempty"`
	Local      float64             `json:"local"`
	Transform  transform.Transform `json:"transform"`
	CSS        string              `json:"css"`
	ClipPath   string              `json:"clipPath"`
	Playing    bool                `json:"playing"`
	Ended      bool                `json:"ended,omitempty"`
}

// FrameAt composes the frame for edited time t without touching any media.
// An empty timeline yields an identity frame with ClipIndex -1.
func FrameAt(clips []timeline.Clip, t float64) Frame {
	segs := timeline.Segments(clips)
	seg, ok := timeline.SegmentAt(segs, t)
	if !ok {
		tr := transform.Identity()
		return Frame{ClipIndex: -1, Transform: tr, CSS: tr.CSS(), ClipPath: tr.ClipPath()}
	}
	t = geom.Clamp(t, 0, timeline.TotalDuration(clips))
	return frameIn(clips, seg, t)
}

func frameIn(clips []timeline.Clip, seg timeline.Segment, edited float64) Frame {
	local := geom.Clamp(edited-seg.OutputStart, 0, seg.OutputDuration)
	tr := transform.Compose(clips[seg.Index], local)
	return Frame{
		EditedTime: edited,
		SourceTime: seg.SourceTime(edited),
		ClipIndex:  seg.Index,
		ClipID:     seg.ClipID,
		Local:      local,
		Transform:  tr,
		CSS:        tr.CSS(),
		ClipPath:   tr.ClipPath(),
	}
}

// Driver keeps a MediaClock in step with the edited timeline. Callbacks
// run after the driver lock is released.
type Driver struct {
	clock  MediaClock
	logger zerolog.Logger

	// tick serialises time updates; a tick that arrives while another is
	// still running is dropped.
	tick sync.Mutex
	mu   sync.Mutex

	clips      []timeline.Clip
	segs       []timeline.Segment
	total      float64
	active     int
	edited     float64
	lastSource float64
	ended      bool

	listeners []func(Frame)
	dropped   atomic.Int64
}

// NewDriver returns a driver over clock with an empty timeline.
func NewDriver(clock MediaClock, logger zerolog.Logger) *Driver {
	return &Driver{clock: clock, logger: logger}
}

// OnFrame registers fn to receive every frame the driver produces.
func (d *Driver) OnFrame(fn func(Frame)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Bind follows doc's clip list and mirrors the driver's position into the
// document playhead. The returned func detaches the driver.
func (d *Driver) Bind(doc *editor.Document) func() {
	d.OnFrame(func(f Frame) {
		doc.SetPlayhead(f.EditedTime)
		doc.SetPlaying(f.Playing)
	})
	cancel := doc.Subscribe(func(ev editor.Event) {
		if ev.Change.Has(editor.ChangeClips) {
			if err := d.SetClips(ev.State.Clips); err != nil {
				d.logger.Warn().Err(err).Msg("resync preview")
			}
		}
	})
	if err := d.SetClips(doc.Clips()); err != nil {
		d.logger.Warn().Err(err).Msg("resync preview")
	}
	return cancel
}

// SetClips swaps in a new clip list, keeping the edited position where it
// still exists and re-seeking the media to match.
func (d *Driver) SetClips(clips []timeline.Clip) error {
	d.mu.Lock()
	d.clips = timeline.CloneClips(clips)
	d.segs = timeline.Segments(d.clips)
	d.total = timeline.TotalDuration(d.clips)
	if len(d.segs) == 0 {
		d.active, d.edited, d.ended = 0, 0, false
		d.mu.Unlock()
		return nil
	}
	d.edited = geom.Clamp(d.edited, 0, d.total)
	f, err := d.seekLocked(d.edited)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.emit(f)
	return nil
}

// Seek moves playback to edited time t by setting the media clock to the
// matching source time.
func (d *Driver) Seek(t float64) (Frame, error) {
	d.mu.Lock()
	if len(d.segs) == 0 {
		d.mu.Unlock()
		return FrameAt(nil, 0), nil
	}
	f, err := d.seekLocked(geom.Clamp(t, 0, d.total))
	d.mu.Unlock()
	if err != nil {
		return Frame{}, err
	}
	d.emit(f)
	return f, nil
}

func (d *Driver) seekLocked(t float64) (Frame, error) {
	seg, _ := timeline.SegmentAt(d.segs, t)
	src := seg.SourceTime(t)
	if err := d.clock.Seek(src); err != nil {
		return Frame{}, fmt.Errorf("seek media to %.3fs: %w", src, err)
	}
	d.edited = t
	d.lastSource = src
	d.ended = false
	d.activate(seg.Index)
	return d.frameLocked(), nil
}

// Play starts playback, rewinding first when the timeline already ended.
func (d *Driver) Play() error {
	d.mu.Lock()
	if len(d.segs) == 0 {
		d.mu.Unlock()
		return nil
	}
	if d.ended || d.edited >= d.total-geom.Epsilon {
		if _, err := d.seekLocked(0); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	if err := d.clock.Play(); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("play media: %w", err)
	}
	f := d.frameLocked()
	d.mu.Unlock()
	d.emit(f)
	return nil
}

// Pause stops playback where it is.
func (d *Driver) Pause() error {
	if err := d.clock.Pause(); err != nil {
		return fmt.Errorf("pause media: %w", err)
	}
	d.mu.Lock()
	f := d.frameLocked()
	d.mu.Unlock()
	d.emit(f)
	return nil
}

// OnTimeUpdate handles a time-changed event from the media. It reports
// false when the update was dropped because the previous one was still
// being processed.
func (d *Driver) OnTimeUpdate() (Frame, bool) {
	if !d.tick.TryLock() {
		d.dropped.Add(1)
		return Frame{}, false
	}
	defer d.tick.Unlock()

	d.mu.Lock()
	if len(d.segs) == 0 {
		d.mu.Unlock()
		return FrameAt(nil, 0), true
	}
	f, err := d.advanceLocked(d.clock.CurrentTime())
	d.mu.Unlock()
	if err != nil {
		d.logger.Warn().Err(err).Msg("preview boundary jump")
	}
	d.emit(f)
	return f, true
}

func (d *Driver) advanceLocked(src float64) (Frame, error) {
	seg := d.segs[d.active]

	if src >= seg.End-geom.Epsilon && !d.ended {
		if d.active+1 < len(d.segs) {
			next := d.segs[d.active+1]
			if err := d.clock.Seek(next.Start); err != nil {
				return d.frameLocked(), err
			}
			d.activate(next.Index)
			d.edited = next.OutputStart
			d.lastSource = next.Start
			return d.frameLocked(), nil
		}
		if err := d.clock.Pause(); err != nil {
			return d.frameLocked(), err
		}
		d.edited = d.total
		d.lastSource = src
		d.ended = true
		return d.frameLocked(), nil
	}

	switch delta := src - d.lastSource; {
	case !seg.ContainsSource(src):
		// The media moved outside the active window on its own: follow it
		// to the clip that shows this footage, or snap into the timeline.
		d.edited = timeline.EditedTimeFromSourceTimeNear(d.clips, src, d.active)
		s, _ := timeline.SegmentAt(d.segs, d.edited)
		d.activate(s.Index)
		d.ended = false
		if target := s.SourceTime(d.edited); math.Abs(target-src) > geom.Epsilon {
			if err := d.clock.Seek(target); err != nil {
				return d.frameLocked(), err
			}
			src = target
		}
	case delta >= 0:
		d.edited += delta / seg.Speed
	default:
		d.edited = seg.EditedTime(src)
		d.ended = false
	}
	seg = d.segs[d.active]
	d.edited = geom.Clamp(d.edited, seg.OutputStart, seg.OutputEnd())
	d.lastSource = src
	return d.frameLocked(), nil
}

// activate makes segment i the playing one and matches the media rate to
// its speed.
func (d *Driver) activate(i int) {
	d.active = i
	if rs, ok := d.clock.(RateSetter); ok {
		if err := rs.SetRate(d.segs[i].Speed); err != nil {
			d.logger.Warn().Err(err).Float64("speed", d.segs[i].Speed).Msg("set playback rate")
		}
	}
}

func (d *Driver) frameLocked() Frame {
	seg := d.segs[d.active]
	f := frameIn(d.clips, seg, d.edited)
	f.SourceTime = d.lastSource
	f.Playing = !d.clock.Paused()
	f.Ended = d.ended
	return f
}

func (d *Driver) emit(f Frame) {
	d.mu.Lock()
	listeners := append([]func(Frame){}, d.listeners...)
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(f)
	}
}

// Position returns the edited time and the total edited duration.
func (d *Driver) Position() (edited, total float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.edited, d.total
}

// Dropped counts time updates skipped because a tick was still running.
func (d *Driver) Dropped() int64 {
	return d.dropped.Load()
}
