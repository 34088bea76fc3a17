package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipstudio/internal/editor"
	"clipstudio/internal/timeline"
)

const actionList = `
- type: add
  at: 1
  preset: close-up
- type: speed
  clip: last
  speed: 2
- type: remove
  clip: missing
`

func TestReadActionsFromStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(actionList))

	actions, err := readActions(cmd, "-")
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 3 || actions[0].Type != editor.ActionAdd || actions[1].Speed != 2 {
		t.Fatalf("actions = %+v", actions)
	}
}

func TestApplyAndReport(t *testing.T) {
	doc := editor.New(zerolog.Nop())
	doc.AddSource(timeline.MediaSource{ID: "s1", Name: "take.mp4", Duration: 10})

	actions, err := editor.ParseActions([]byte(actionList))
	if err != nil {
		t.Fatal(err)
	}
	res, err := doc.Apply(actions)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	writeApplyResult(&buf, res)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "add") || !strings.Contains(lines[0], "applied") || !strings.Contains(lines[0], res.Outcomes[0].ClipID) {
		t.Errorf("add line = %q", lines[0])
	}
	if !strings.Contains(lines[2], "skipped") {
		t.Errorf("remove line = %q", lines[2])
	}
	if lines[3] != "2 of 3 actions applied" {
		t.Errorf("summary = %q", lines[3])
	}

	clips := doc.Clips()
	if len(clips) != 1 || clips[0].Speed != 2 || clips[0].PresetID != "close-up" {
		t.Errorf("clips = %+v", clips)
	}
}
