package timeline

// ShotPreset is a named static transform template.
type ShotPreset struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Zoom     float64 `yaml:"zoom" json:"zoom"`
	Rotate   float64 `yaml:"rotate" json:"rotate"`
	PanX     float64 `yaml:"pan_x" json:"panX"`
	PanY     float64 `yaml:"pan_y" json:"panY"`
	Duration float64 `yaml:"duration" json:"duration"`
}

// DefaultPresetID is applied to clips created without an explicit preset.
const DefaultPresetID = "wide"

var presetCatalog = []ShotPreset{
	{ID: "wide", Name: "Wide", Zoom: 1, Duration: 5},
	{ID: "push-in", Name: "Push In", Zoom: 1.25, Duration: 4},
	{ID: "close-up", Name: "Close Up", Zoom: 1.6, Duration: 3},
	{ID: "extreme-close", Name: "Extreme Close", Zoom: 2.2, Duration: 2},
	{ID: "pan-left", Name: "Pan Left", Zoom: 1.3, PanX: -0.12, Duration: 4},
	{ID: "pan-right", Name: "Pan Right", Zoom: 1.3, PanX: 0.12, Duration: 4},
	{ID: "tilt-up", Name: "Tilt Up", Zoom: 1.3, PanY: -0.1, Duration: 4},
	{ID: "tilt-down", Name: "Tilt Down", Zoom: 1.3, PanY: 0.1, Duration: 4},
	{ID: "dutch-left", Name: "Dutch Left", Zoom: 1.2, Rotate: -6, Duration: 3},
	{ID: "dutch-right", Name: "Dutch Right", Zoom: 1.2, Rotate: 6, Duration: 3},
}

// Presets returns a copy of the read-only preset catalog.
func Presets() []ShotPreset {
	out := make([]ShotPreset, len(presetCatalog))
	copy(out, presetCatalog)
	return out
}

// LookupPreset finds a preset by id.
func LookupPreset(id string) (ShotPreset, bool) {
	for _, p := range presetCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return ShotPreset{}, false
}

// PresetOrIdentity resolves id, falling back to an identity transform so an
// unknown reference never breaks composition.
func PresetOrIdentity(id string) ShotPreset {
	if p, ok := LookupPreset(id); ok {
		return p
	}
	return ShotPreset{ID: id, Name: id, Zoom: 1, Duration: presetCatalog[0].Duration}
}
