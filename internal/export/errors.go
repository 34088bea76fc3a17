package export

import (
	"errors"
	"fmt"
)

var (
	// ErrNoClips is returned when the timeline has nothing to render.
	ErrNoClips = errors.New("timeline is empty")
	// ErrBusy is returned when an export is already running.
	ErrBusy = errors.New("export already running")
)

// Stage names the part of the pipeline that failed.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageSeek    Stage = "seek"
	StageDraw    Stage = "draw"
	StageEncode  Stage = "encode"
	StageFinish  Stage = "finalize"
)

// Failure aborts an export. Partial output has already been discarded when
// a Failure is returned.
type Failure struct {
	Stage Stage
	Frame int
	Err   error
}

func (f *Failure) Error() string {
	if f.Stage == StageSeek || f.Stage == StageDraw || f.Stage == StageEncode {
		return fmt.Sprintf("export failed at frame %d (%s): %v", f.Frame, f.Stage, f.Err)
	}
	return fmt.Sprintf("export failed (%s): %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
