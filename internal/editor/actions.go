package editor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"clipstudio/internal/geom"
	"clipstudio/internal/timeline"
)

// ActionType names one automation step.
type ActionType string

const (
	ActionAdd            ActionType = "add"
	ActionTrim           ActionType = "trim"
	ActionSplit          ActionType = "split"
	ActionSpeed          ActionType = "speed"
	ActionPreset         ActionType = "preset"
	ActionZoom           ActionType = "zoom"
	ActionCrop           ActionType = "crop"
	ActionRename         ActionType = "rename"
	ActionDuplicate      ActionType = "duplicate"
	ActionRemove         ActionType = "remove"
	ActionReorder        ActionType = "reorder"
	ActionSelect         ActionType = "select"
	ActionKeyframe       ActionType = "keyframe"
	ActionRemoveKeyframe ActionType = "remove-keyframe"
	ActionClearAnimation ActionType = "clear-animation"
	ActionExport         ActionType = "export"
)

// ClearSelection is the clip reference a select action uses to deselect.
const ClearSelection = "none"

// ErrInvalidAction is returned for actions that cannot be understood at all.
// Actions that are well formed but do not apply are skipped instead.
var ErrInvalidAction = errors.New("invalid action")

// Action is one step of an automation list.
//
// Clip references a clip by id, by 1-based position ("#2"), as "last" (the
// clip most recently created by this list, else the last in the timeline),
// or is left empty for the current selection. A select action with clip
// "none" clears the selection. Times for add and split are source seconds;
// without one the playhead is used.
type Action struct {
	Type ActionType `yaml:"type" json:"type"`
	Clip string     `yaml:"clip,omitempty" json:"clip,omitempty"`

	Source string   `yaml:"source,omitempty" json:"source,omitempty"`
	At     *float64 `yaml:"at,omitempty" json:"at,omitempty"`
	Start  *float64 `yaml:"start,omitempty" json:"start,omitempty"`
	End    *float64 `yaml:"end,omitempty" json:"end,omitempty"`

	Speed  float64        `yaml:"speed,omitempty" json:"speed,omitempty"`
	Zoom   float64        `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Preset string         `yaml:"preset,omitempty" json:"preset,omitempty"`
	Crop   *geom.CropRect `yaml:"crop,omitempty" json:"crop,omitempty"`
	Name   string         `yaml:"name,omitempty" json:"name,omitempty"`

	From int `yaml:"from,omitempty" json:"from,omitempty"`
	To   int `yaml:"to,omitempty" json:"to,omitempty"`

	Property string  `yaml:"property,omitempty" json:"property,omitempty"`
	Time     float64 `yaml:"time,omitempty" json:"time,omitempty"`
	Value    float64 `yaml:"value,omitempty" json:"value,omitempty"`
	Easing   string  `yaml:"easing,omitempty" json:"easing,omitempty"`
	Keyframe string  `yaml:"keyframe,omitempty" json:"keyframe,omitempty"`

	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Validate checks that the action carries what its type needs.
func (a Action) Validate() error {
	switch a.Type {
	case ActionAdd, ActionSplit, ActionDuplicate, ActionRemove, ActionSelect,
		ActionClearAnimation, ActionReorder, ActionCrop, ActionExport:
	case ActionTrim:
		if a.Start == nil && a.End == nil {
			return fmt.Errorf("%w: trim needs start or end", ErrInvalidAction)
		}
	case ActionSpeed:
		if a.Speed <= 0 {
			return fmt.Errorf("%w: speed must be positive", ErrInvalidAction)
		}
	case ActionZoom:
		if a.Zoom <= 0 {
			return fmt.Errorf("%w: zoom must be positive", ErrInvalidAction)
		}
	case ActionPreset:
		if a.Preset == "" {
			return fmt.Errorf("%w: preset needs an id", ErrInvalidAction)
		}
	case ActionRename:
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: rename needs a name", ErrInvalidAction)
		}
	case ActionKeyframe:
		if !timeline.Property(a.Property).Valid() {
			return fmt.Errorf("%w: unknown property %q", ErrInvalidAction, a.Property)
		}
	case ActionRemoveKeyframe:
		if !timeline.Property(a.Property).Valid() || a.Keyframe == "" {
			return fmt.Errorf("%w: remove-keyframe needs property and keyframe", ErrInvalidAction)
		}
	case "":
		return fmt.Errorf("%w: missing type", ErrInvalidAction)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}

// ActionPlan is the file form of an action list.
type ActionPlan struct {
	Actions []Action `yaml:"actions" json:"actions"`
}

// ParseActions decodes a YAML or JSON action list, either a bare sequence
// or an object with an "actions" key.
func ParseActions(data []byte) ([]Action, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse actions: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []Action
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		return list, nil
	}
	var plan ActionPlan
	if err := root.Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return plan.Actions, nil
}

// LoadActions reads an action list file.
func LoadActions(path string) ([]Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	return ParseActions(data)
}

// Outcome reports what happened to one action.
type Outcome struct {
	Index   int        `json:"index"`
	Type    ActionType `json:"type"`
	Applied bool       `json:"applied"`
	ClipID  string     `json:"clipId,omitempty"`
}

// ApplyResult summarises an applied action list.
type ApplyResult struct {
	Outcomes []Outcome `json:"outcomes"`
	Applied  int       `json:"applied"`
	// ExportOutput is set when the list asked for an export; the caller
	// starts it once the edits are committed.
	ExportRequested bool   `json:"exportRequested"`
	ExportOutput    string `json:"exportOutput,omitempty"`
}

// Apply runs an action list as one undo step. The whole list is validated
// up front; a malformed action rejects the list without touching the
// document. Well-formed actions that do not apply are skipped.
func (d *Document) Apply(actions []Action) (ApplyResult, error) {
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return ApplyResult{}, fmt.Errorf("action %d: %w", i+1, err)
		}
	}

	var res ApplyResult
	err := d.Batch(func() error {
		last := ""
		for i, a := range actions {
			out := d.applyOne(a, &last, &res)
			out.Index = i
			out.Type = a.Type
			if out.Applied {
				res.Applied++
			}
			res.Outcomes = append(res.Outcomes, out)
		}
		return nil
	})
	d.logger.Debug().Int("actions", len(actions)).Int("applied", res.Applied).Msg("action list applied")
	return res, err
}

func (d *Document) applyOne(a Action, last *string, res *ApplyResult) Outcome {
	var out Outcome
	switch a.Type {
	case ActionAdd:
		at := d.playheadSourceTime()
		if a.At != nil {
			at = *a.At
		}
		id, ok := d.AddClipFrom(a.Source, at, a.Preset)
		if ok {
			*last = id
		}
		out.ClipID, out.Applied = id, ok
		return out
	case ActionExport:
		res.ExportRequested = true
		res.ExportOutput = a.Output
		out.Applied = true
		return out
	case ActionReorder:
		out.Applied = d.Reorder(a.From, a.To)
		return out
	}

	if a.Type == ActionSelect && a.Clip == ClearSelection {
		out.Applied = d.Select("")
		return out
	}

	id := d.resolveClip(a.Clip, *last)
	out.ClipID = id
	if id == "" {
		return out
	}

	switch a.Type {
	case ActionTrim:
		switch {
		case a.Start != nil && a.End != nil:
			out.Applied = d.Trim(id, *a.Start, *a.End)
		case a.Start != nil:
			out.Applied = d.TrimStart(id, *a.Start)
		default:
			out.Applied = d.TrimEnd(id, *a.End)
		}
	case ActionSplit:
		var first string
		var ok bool
		if a.At != nil {
			first, ok = d.Split(id, *a.At)
		} else {
			first, ok = d.Split(id, d.playheadSourceTime())
		}
		if ok {
			*last = first
			out.ClipID = first
		}
		out.Applied = ok
	case ActionSpeed:
		out.Applied = d.SetSpeed(id, a.Speed)
	case ActionZoom:
		out.Applied = d.SetZoom(id, a.Zoom)
	case ActionPreset:
		out.Applied = d.SetPreset(id, a.Preset)
	case ActionCrop:
		crop := geom.FullFrame()
		if a.Crop != nil {
			crop = *a.Crop
		}
		out.Applied = d.SetCrop(id, crop)
	case ActionRename:
		out.Applied = d.Rename(id, strings.TrimSpace(a.Name))
	case ActionDuplicate:
		dup, ok := d.Duplicate(id)
		if ok {
			*last = dup
			out.ClipID = dup
		}
		out.Applied = ok
	case ActionRemove:
		out.Applied = d.Remove(id)
	case ActionSelect:
		out.Applied = d.Select(id)
	case ActionKeyframe:
		_, out.Applied = d.SetKeyframe(id, timeline.KeyframeInput{
			ID:       a.Keyframe,
			Property: timeline.Property(a.Property),
			Time:     a.Time,
			Value:    a.Value,
			Easing:   timeline.ParseEasing(a.Easing),
		})
	case ActionRemoveKeyframe:
		out.Applied = d.RemoveKeyframe(id, timeline.Property(a.Property), a.Keyframe)
	case ActionClearAnimation:
		out.Applied = d.ClearAnimation(id)
	}
	return out
}

// resolveClip turns a clip reference into an id, or "" when it matches nothing.
func (d *Document) resolveClip(ref, last string) string {
	s := d.State()
	switch {
	case ref == "":
		return s.SelectedID
	case ref == "last":
		if last != "" && timeline.IndexOf(s.Clips, last) >= 0 {
			return last
		}
		if len(s.Clips) > 0 {
			return s.Clips[len(s.Clips)-1].ID
		}
		return ""
	case strings.HasPrefix(ref, "#"):
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 || n > len(s.Clips) {
			return ""
		}
		return s.Clips[n-1].ID
	}
	if timeline.IndexOf(s.Clips, ref) < 0 {
		return ""
	}
	return ref
}

// playheadSourceTime maps the playhead to source seconds. Without clips the
// playhead already runs on the source clock.
func (d *Document) playheadSourceTime() float64 {
	s := d.State()
	if len(s.Clips) == 0 {
		return s.Playhead
	}
	return timeline.SourceTimeFromEditedTime(s.Clips, s.Playhead)
}
