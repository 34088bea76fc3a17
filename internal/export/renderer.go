// Package export bakes the edited timeline into a video file. It steps
// through every clip at a fixed 30 fps, seeks a detached decoder to the
// matching source time, composites the frame with the same transform the
// live preview uses and streams the result into an encoder.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"clipstudio/internal/geom"
	"clipstudio/internal/media"
	"clipstudio/internal/timeline"
	"clipstudio/internal/transform"
)

// FPS is the output frame rate.
const FPS = 30

// Job is one export request. Clips without an explicit source play from
// CurrentSourceID.
type Job struct {
	Clips           []timeline.Clip
	Sources         []timeline.MediaSource
	CurrentSourceID string
	Output          string
}

// Options size the output surface and tune the pipeline.
type Options struct {
	Width            int
	Height           int
	ProgressInterval time.Duration
	// Prefetch is how many decoded frames may wait for compositing.
	Prefetch int
}

// Result is delivered when a started export finishes.
type Result struct {
	Status Status
	Err    error
}

// Renderer runs exports one at a time.
type Renderer struct {
	opener SourceOpener
	sinks  SinkFactory
	opts   Options
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	status Status
}

// NewRenderer wires a renderer to its decoder and encoder.
func NewRenderer(opener SourceOpener, sinks SinkFactory, opts Options, logger zerolog.Logger) *Renderer {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 4
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 250 * time.Millisecond
	}
	return &Renderer{
		opener: opener,
		sinks:  sinks,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		status: Status{Phase: PhaseIdle},
	}
}

// Status returns the latest export status.
func (r *Renderer) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start reserves the renderer and runs job in the background. It fails
// fast with ErrBusy while another export is in flight.
func (r *Renderer) Start(ctx context.Context, job Job, rep ProgressReporter) (<-chan Result, error) {
	r.mu.Lock()
	if r.status.Phase.Busy() {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.status = Status{Phase: PhasePreparing, Output: job.Output}
	st := r.status
	r.mu.Unlock()
	report(rep, st)

	out := make(chan Result, 1)
	go func() {
		st, err := r.run(ctx, job, rep)
		out <- Result{Status: st, Err: err}
		close(out)
	}()
	return out, nil
}

// Render runs job to completion.
func (r *Renderer) Render(ctx context.Context, job Job, rep ProgressReporter) (Status, error) {
	done, err := r.Start(ctx, job, rep)
	if err != nil {
		return r.Status(), err
	}
	res := <-done
	return res.Status, res.Err
}

type plannedClip struct {
	clip   timeline.Clip
	frames int
	source FrameSource
}

type decodedFrame struct {
	clip  int
	local float64
	img   *image.RGBA
	src   FrameSource
}

func (r *Renderer) run(ctx context.Context, job Job, rep ProgressReporter) (Status, error) {
	started := r.now()
	if job.Output == "" {
		return r.fail(rep, &Failure{Stage: StagePrepare, Err: errors.New("no output path")})
	}
	plan, total := planFrames(job.Clips)
	if total == 0 {
		return r.fail(rep, &Failure{Stage: StagePrepare, Err: ErrNoClips})
	}

	sources, err := r.openSources(ctx, job, plan)
	if err != nil {
		return r.fail(rep, &Failure{Stage: StagePrepare, Err: err})
	}
	defer func() {
		for _, fs := range sources {
			_ = fs.Close()
		}
	}()

	width, height := r.surfaceSize(job)
	sink, err := r.sinks.Create(ctx, job.Output, width, height, FPS)
	if err != nil {
		return r.fail(rep, &Failure{Stage: StageEncode, Err: err})
	}

	r.logger.Info().
		Int("clips", len(plan)).
		Int("frames", total).
		Int("width", width).
		Int("height", height).
		Str("output", job.Output).
		Msg("export rendering")
	report(rep, r.update(func(s *Status) {
		s.Phase = PhaseRendering
		s.TotalFrames = total
	}))

	rendered, err := r.pipeline(ctx, plan, total, sink, NewCompositor(width, height), rep)
	if err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			r.logger.Warn().Err(abortErr).Msg("discard partial output")
		}
		var f *Failure
		if !errors.As(err, &f) {
			f = &Failure{Stage: StageEncode, Frame: rendered, Err: err}
		}
		return r.fail(rep, f)
	}
	if err := sink.Close(); err != nil {
		return r.fail(rep, &Failure{Stage: StageFinish, Err: err})
	}

	st := r.update(func(s *Status) {
		s.Phase = PhaseComplete
		s.Frames = rendered
		s.Progress = 100
		s.Message = ""
	})
	report(rep, st)
	r.logger.Info().
		Int("frames", rendered).
		Dur("elapsed", r.now().Sub(started)).
		Str("output", job.Output).
		Msg("export complete")
	return st, nil
}

// pipeline decodes frames on one goroutine and composites and encodes them
// on another, with at most Prefetch frames in between.
func (r *Renderer) pipeline(ctx context.Context, plan []plannedClip, total int, sink Sink, comp *Compositor, rep ProgressReporter) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan decodedFrame, r.opts.Prefetch)

	g.Go(func() error {
		defer close(frames)
		index := 0
		for ci, pc := range plan {
			for i := 0; i < pc.frames; i++ {
				local := float64(i) / FPS
				img, err := pc.source.Seek(gctx, pc.clip.SourceTimeAt(local))
				if err != nil {
					return &Failure{Stage: StageSeek, Frame: index, Err: err}
				}
				select {
				case frames <- decodedFrame{clip: ci, local: local, img: img, src: pc.source}:
				case <-gctx.Done():
					release(pc.source, img)
					return gctx.Err()
				}
				index++
			}
		}
		return nil
	})

	rendered := 0
	g.Go(func() error {
		surface := comp.NewSurface()
		th := newThrottle(r.opts.ProgressInterval, r.now)
		for f := range frames {
			tr := transform.Compose(plan[f.clip].clip, f.local)
			comp.Draw(surface, f.img, tr)
			release(f.src, f.img)
			if err := sink.WriteFrame(surface); err != nil {
				return &Failure{Stage: StageEncode, Frame: rendered, Err: err}
			}
			rendered++
			if th.due(rendered, total) {
				n := rendered
				report(rep, r.update(func(s *Status) {
					s.Frames = n
					s.Progress = percent(n, total)
				}))
			}
		}
		return nil
	})

	err := g.Wait()
	// Drain frames left behind by a failed consumer.
	for f := range frames {
		release(f.src, f.img)
	}
	if err == nil && rendered != total {
		err = fmt.Errorf("rendered %d of %d frames", rendered, total)
	}
	return rendered, err
}

func planFrames(clips []timeline.Clip) ([]plannedClip, int) {
	plan := make([]plannedClip, 0, len(clips))
	total := 0
	for _, c := range clips {
		n := geom.FrameCount(c.OutputDuration(), FPS)
		if n == 0 {
			continue
		}
		plan = append(plan, plannedClip{clip: c, frames: n})
		total += n
	}
	return plan, total
}

func (r *Renderer) openSources(ctx context.Context, job Job, plan []plannedClip) (map[string]FrameSource, error) {
	opened := make(map[string]FrameSource)
	for i := range plan {
		id := plan[i].clip.SourceID
		if id == "" {
			id = job.CurrentSourceID
		}
		fs, ok := opened[id]
		if !ok {
			src, found := findSource(job.Sources, id)
			if !found {
				closeAll(opened)
				return nil, fmt.Errorf("clip %s: %w", plan[i].clip.Name, media.ErrSourceNotFound)
			}
			var err error
			fs, err = r.opener.Open(ctx, src)
			if err != nil {
				closeAll(opened)
				return nil, &media.LoadError{Path: src.Path, Err: err}
			}
			opened[id] = fs
		}
		plan[i].source = fs
	}
	return opened, nil
}

// surfaceSize uses the configured size, else the first source's.
func (r *Renderer) surfaceSize(job Job) (int, int) {
	w, h := r.opts.Width, r.opts.Height
	if w > 0 && h > 0 {
		return even(w), even(h)
	}
	if src, ok := findSource(job.Sources, job.CurrentSourceID); ok && src.Width > 0 && src.Height > 0 {
		return even(src.Width), even(src.Height)
	}
	for _, src := range job.Sources {
		if src.Width > 0 && src.Height > 0 {
			return even(src.Width), even(src.Height)
		}
	}
	return 1920, 1080
}

// even rounds down to an even size, which yuv420p requires.
func even(v int) int {
	if v%2 == 1 {
		v--
	}
	if v < 2 {
		v = 2
	}
	return v
}

func (r *Renderer) update(fn func(*Status)) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.status)
	return r.status
}

func (r *Renderer) fail(rep ProgressReporter, f *Failure) (Status, error) {
	st := r.update(func(s *Status) {
		s.Phase = PhaseFailed
		s.Message = f.Error()
	})
	report(rep, st)
	r.logger.Error().Err(f.Err).Str("stage", string(f.Stage)).Int("frame", f.Frame).Msg("export failed")
	return st, f
}

func report(rep ProgressReporter, st Status) {
	if rep != nil {
		rep.Progress(st)
	}
}

func release(fs FrameSource, img *image.RGBA) {
	if r, ok := fs.(releaser); ok {
		r.Release(img)
	}
}

func findSource(sources []timeline.MediaSource, id string) (timeline.MediaSource, bool) {
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	return timeline.MediaSource{}, false
}

func closeAll(sources map[string]FrameSource) {
	for _, fs := range sources {
		_ = fs.Close()
	}
}
