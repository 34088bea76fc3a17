package project

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// fingerprintInput is the canonical structure hashed for change detection.
type fingerprintInput struct {
	CurrentSourceID string `json:"current_source"`
	Sources         any    `json:"sources"`
	Clips           any    `json:"clips"`
	SelectedID      string `json:"selected"`
}

// Fingerprint returns a deterministic hash of the project contents. The
// playhead is excluded so scrubbing does not mark a project dirty.
func (f File) Fingerprint() string {
	return hashJSON(fingerprintInput{
		CurrentSourceID: f.CurrentSourceID,
		Sources:         f.Sources,
		Clips:           f.Clips,
		SelectedID:      f.SelectedID,
	})
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Should never happen with known struct types.
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
