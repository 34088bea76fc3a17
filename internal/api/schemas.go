package api

import (
	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/project"
	"clipstudio/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type TimelineResponse struct {
	Sources         []timeline.MediaSource `json:"sources"`
	CurrentSourceID string                 `json:"currentSourceId,omitempty"`
	Clips           []timeline.Clip        `json:"clips"`
	SelectedID      string                 `json:"selectedId,omitempty"`
	Playhead        float64                `json:"playhead"`
	TotalDuration   float64                `json:"totalDuration"`
	CanUndo         bool                   `json:"canUndo"`
	CanRedo         bool                   `json:"canRedo"`
	Export          export.Status          `json:"export"`
	Fingerprint     string                 `json:"fingerprint"`
}

type ActionsResponse struct {
	Result      editor.ApplyResult `json:"result"`
	Timeline    TimelineResponse   `json:"timeline"`
	Export      *export.Status     `json:"export,omitempty"`
	ExportError string             `json:"exportError,omitempty"`
}

type HistoryResponse struct {
	Changed  bool             `json:"changed"`
	Timeline TimelineResponse `json:"timeline"`
}

type ExportRequest struct {
	Output string `json:"output"`
}

type PresetsResponse struct {
	Presets []timeline.ShotPreset `json:"presets"`
}

func timelineResponse(doc *editor.Document) TimelineResponse {
	st := doc.State()
	clips := st.Clips
	if clips == nil {
		clips = []timeline.Clip{}
	}
	sources := st.Sources
	if sources == nil {
		sources = []timeline.MediaSource{}
	}
	return TimelineResponse{
		Sources:         sources,
		CurrentSourceID: st.CurrentSourceID,
		Clips:           clips,
		SelectedID:      st.SelectedID,
		Playhead:        st.Playhead,
		TotalDuration:   st.TotalDuration(),
		CanUndo:         doc.CanUndo(),
		CanRedo:         doc.CanRedo(),
		Export:          st.Export,
		Fingerprint:     project.FromState(st).Fingerprint(),
	}
}
