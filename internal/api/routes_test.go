package api

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/timeline"
)

type gatedSource struct {
	gate chan struct{}
}

func (g *gatedSource) Seek(ctx context.Context, _ float64) (*image.RGBA, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (g *gatedSource) Close() error { return nil }

type gatedOpener struct{ src *gatedSource }

func (o gatedOpener) Open(context.Context, timeline.MediaSource) (export.FrameSource, error) {
	return o.src, nil
}

type countingSink struct {
	mu     sync.Mutex
	frames int
}

func (s *countingSink) WriteFrame(*image.RGBA) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}
func (s *countingSink) Close() error { return nil }
func (s *countingSink) Abort() error { return nil }

type sinkFactory struct{ sink *countingSink }

func (f sinkFactory) Create(context.Context, string, int, int, int) (export.Sink, error) {
	return f.sink, nil
}

type testAPI struct {
	cfg   ServerConfig
	gate  chan struct{}
	saves int
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	doc := editor.New(zerolog.Nop())
	doc.AddSource(timeline.MediaSource{ID: "src", Name: "take.mp4", Path: "take.mp4", Duration: 30, Width: 8, Height: 8})

	gate := make(chan struct{})
	ta := &testAPI{gate: gate}
	renderer := export.NewRenderer(gatedOpener{&gatedSource{gate: gate}}, sinkFactory{&countingSink{}}, export.Options{Width: 8, Height: 8}, zerolog.Nop())
	ta.cfg = ServerConfig{
		Document:   doc,
		Renderer:   renderer,
		ExportPath: func(name string) string { return "/exports/" + name },
		Save: func(editor.State) error {
			ta.saves++
			return nil
		},
		Logger:    zerolog.Nop(),
		StartTime: time.Now(),
		Version:   "test",
	}
	return ta
}

func (ta *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	NewRouter(ta.cfg).ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealthAndPresets(t *testing.T) {
	ta := newTestAPI(t)

	rr := ta.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || decodeJSONBody(t, rr)["status"] != "ok" {
		t.Fatalf("health = %d %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	rr = ta.do(t, http.MethodGet, "/presets", "")
	var presets PresetsResponse
	if err := json.NewDecoder(rr.Body).Decode(&presets); err != nil {
		t.Fatal(err)
	}
	if len(presets.Presets) != len(timeline.Presets()) || presets.Presets[0].ID != timeline.DefaultPresetID {
		t.Errorf("presets = %+v", presets.Presets)
	}
}

func TestEmptyTimeline(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/timeline", "")
	body := decodeJSONBody(t, rr)
	clips, ok := body["clips"].([]any)
	if !ok || len(clips) != 0 {
		t.Fatalf("clips = %v", body["clips"])
	}
	if rr.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
}

func TestActionsThenUndoRedo(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodPost, "/actions", "- type: add\n  at: 2\n  preset: close-up\n- type: speed\n  clip: last\n  speed: 1.5\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("actions = %d %s", rr.Code, rr.Body)
	}
	var resp ActionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.Applied != 2 || len(resp.Timeline.Clips) != 1 || resp.Timeline.TotalDuration != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.Timeline.CanUndo || ta.saves != 1 {
		t.Errorf("canUndo=%v saves=%d", resp.Timeline.CanUndo, ta.saves)
	}

	rr = ta.do(t, http.MethodPost, "/undo", "")
	var hist HistoryResponse
	if err := json.NewDecoder(rr.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if !hist.Changed || len(hist.Timeline.Clips) != 0 || !hist.Timeline.CanRedo {
		t.Fatalf("undo = %+v", hist)
	}

	rr = ta.do(t, http.MethodPost, "/redo", "")
	hist = HistoryResponse{}
	if err := json.NewDecoder(rr.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if !hist.Changed || len(hist.Timeline.Clips) != 1 {
		t.Fatalf("redo = %+v", hist)
	}

	rr = ta.do(t, http.MethodPost, "/redo", "")
	if body := decodeJSONBody(t, rr); body["changed"] != false {
		t.Errorf("redo with empty future changed = %v", body["changed"])
	}
}

func TestConcurrentActionsAreSeparateSteps(t *testing.T) {
	ta := newTestAPI(t)
	var inFlight, overlaps, saves atomic.Int32
	ta.cfg.Save = func(editor.State) error {
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		saves.Add(1)
		return nil
	}
	router := NewRouter(ta.cfg)

	const lists = 8
	var wg sync.WaitGroup
	for i := 0; i < lists; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := `[{"type":"add","at":` + strconv.Itoa(i*3) + `}]`
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader(body)))
			if rr.Code != http.StatusOK {
				t.Errorf("list %d: status %d %s", i, rr.Code, rr.Body)
			}
		}(i)
	}
	wg.Wait()

	if n := len(ta.cfg.Document.Clips()); n != lists {
		t.Fatalf("got %d clips, want %d", n, lists)
	}
	if overlaps.Load() != 0 {
		t.Errorf("%d saves overlapped", overlaps.Load())
	}
	if saves.Load() != lists {
		t.Errorf("saves = %d, want %d", saves.Load(), lists)
	}
	for i := lists; i > 0; i-- {
		if !ta.cfg.Document.Undo() {
			t.Fatalf("undo refused with %d clips left", i)
		}
		if n := len(ta.cfg.Document.Clips()); n != i-1 {
			t.Fatalf("undo left %d clips, want %d", n, i-1)
		}
	}
}

func TestActionsRejectsMalformedList(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodPost, "/actions", `[{"type":"trim","clip":"#1"}]`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ta.saves != 0 {
		t.Error("rejected list saved the project")
	}

	rr = ta.do(t, http.MethodPost, "/actions", "not: [valid")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestPreview(t *testing.T) {
	ta := newTestAPI(t)
	ta.do(t, http.MethodPost, "/actions", `[{"type":"add","at":0,"preset":"dutch-right"}]`)

	rr := ta.do(t, http.MethodGet, "/preview?t=1", "")
	body := decodeJSONBody(t, rr)
	if body["clipIndex"] != float64(0) || !strings.Contains(body["css"].(string), "rotate(6deg)") {
		t.Errorf("preview = %v", body)
	}

	if rr := ta.do(t, http.MethodGet, "/preview?t=abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad t status = %d", rr.Code)
	}
}

func TestExportRejectsUnknownFields(t *testing.T) {
	ta := newTestAPI(t)
	ta.do(t, http.MethodPost, "/actions", `[{"type":"add","at":0}]`)

	tests := map[string]string{
		"unknown field": `{"output":"a.mp4","outptu":"b.mp4"}`,
		"trailing data": `{"output":"a.mp4"} {}`,
		"not an object": `[1,2]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rr := ta.do(t, http.MethodPost, "/export", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
		})
	}
	if ta.cfg.Renderer.Status().Phase != export.PhaseIdle {
		t.Error("rejected request started an export")
	}
}

func TestExportEmptyTimeline(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodPost, "/export", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}

func TestExportRejectsSecondRun(t *testing.T) {
	ta := newTestAPI(t)
	ta.do(t, http.MethodPost, "/actions", `[{"type":"add","at":0,"preset":"close-up"}]`)

	rr := ta.do(t, http.MethodPost, "/export", `{"output":"cut.mp4"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("first export = %d %s", rr.Code, rr.Body)
	}
	if body := decodeJSONBody(t, rr); body["output"] != "/exports/cut.mp4" {
		t.Errorf("output = %v", body["output"])
	}

	rr = ta.do(t, http.MethodPost, "/export", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("second export = %d, want 409", rr.Code)
	}

	close(ta.gate)
	deadline := time.Now().Add(5 * time.Second)
	for {
		// The document hears about completion last.
		st := ta.cfg.Document.State().Export
		if st.Phase.Done() {
			if st.Phase != export.PhaseComplete || st.TotalFrames != 90 {
				t.Fatalf("final status = %+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("export did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rr = ta.do(t, http.MethodGet, "/export", "")
	if body := decodeJSONBody(t, rr); body["phase"] != string(export.PhaseComplete) {
		t.Errorf("GET /export = %v", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
}
