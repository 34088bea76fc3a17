package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// runRoot executes the command tree with args and resets the persistent
// flag globals afterwards.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		projectDir, outputJSON, verbose = "", false, false
	})
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"init", "config", "tools", "doctor", "presets", "media", "status", "edit", "preview", "export", "record", "serve"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if sub, _, err := cmd.Find([]string{"timeline"}); err != nil || sub.Name() != "status" {
		t.Error("timeline alias does not resolve to status")
	}
}

func TestPresetsJSON(t *testing.T) {
	out, err := runRoot(t, "presets", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var presets []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &presets); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(presets) != 10 || presets[0].ID != "wide" {
		t.Errorf("presets = %+v", presets)
	}
}

func TestInitThenStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "studio")

	out, err := runRoot(t, "init", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Initialized project at "+dir) {
		t.Errorf("init output = %q", out)
	}

	out, err = runRoot(t, "status", "--project", dir, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var st statusOutput
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if st.Project != dir || len(st.Clips) != 0 || st.TotalFrames != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestEditDryRunOnEmptyProject(t *testing.T) {
	dir := t.TempDir()
	if _, err := runRoot(t, "init", dir); err != nil {
		t.Fatal(err)
	}

	actions := filepath.Join(t.TempDir(), "actions.yaml")
	writeFile(t, actions, "- type: split\n- type: remove\n")

	out, err := runRoot(t, "edit", actions, "--project", dir, "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "0 of 2 actions applied") {
		t.Errorf("edit output = %q", out)
	}
}

func TestExportEmptyProjectFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := runRoot(t, "init", dir); err != nil {
		t.Fatal(err)
	}
	_, err := runRoot(t, "export", "--project", dir)
	if err == nil || !strings.Contains(err.Error(), "nothing to export") {
		t.Fatalf("err = %v, want nothing to export", err)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	if _, err := runRoot(t, "init", dir); err != nil {
		t.Fatal(err)
	}
	out, err := runRoot(t, "config", "validate", "--project", dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Configuration OK" {
		t.Errorf("output = %q", out)
	}

	writeFile(t, filepath.Join(dir, "studio.yaml"), "encoding:\n  crf: 90\n")
	out, err = runRoot(t, "config", "validate", "--project", dir)
	if err == nil || !strings.Contains(out, "ERROR") {
		t.Errorf("invalid crf: err = %v, output = %q", err, out)
	}
}
