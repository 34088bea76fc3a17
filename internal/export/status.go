package export

// Phase is a step of the export state machine:
// idle → preparing → rendering → complete | failed.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseRendering Phase = "rendering"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// Done reports whether the phase is terminal.
func (p Phase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Busy reports whether an export is in flight.
func (p Phase) Busy() bool {
	return p == PhasePreparing || p == PhaseRendering
}

// Status is the externally visible export state.
type Status struct {
	Phase       Phase   `json:"phase" yaml:"phase"`
	Progress    float64 `json:"progress" yaml:"progress"` // 0..100
	Frames      int     `json:"frames" yaml:"frames"`
	TotalFrames int     `json:"totalFrames" yaml:"total_frames"`
	Output      string  `json:"output,omitempty" yaml:"output,omitempty"`
	Message     string  `json:"message,omitempty" yaml:"message,omitempty"`
}
