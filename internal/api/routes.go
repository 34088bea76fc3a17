package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"clipstudio/internal/editor"
	"clipstudio/internal/export"
	"clipstudio/internal/preview"
	"clipstudio/internal/timeline"
)

const maxActionsBody = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()
	save := newPersister(cfg)

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/presets", presetsHandler())
	r.Get("/timeline", timelineHandler(cfg))
	r.Get("/preview", previewHandler(cfg))
	r.Post("/actions", actionsHandler(cfg, save))
	r.Post("/undo", historyHandler(cfg, save, (*editor.Document).Undo))
	r.Post("/redo", historyHandler(cfg, save, (*editor.Document).Redo))
	r.Get("/export", exportStatusHandler(cfg))
	r.Post("/export", startExportHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func presetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, PresetsResponse{Presets: timeline.Presets()})
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := timelineResponse(cfg.Document)
		w.Header().Set("ETag", strconv.Quote(resp.Fingerprint))
		WriteJSON(w, http.StatusOK, resp)
	}
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := cfg.Document.State().Playhead
		if raw := r.URL.Query().Get("t"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "t must be a number of seconds", "BAD_REQUEST")
				return
			}
			t = v
		}
		WriteJSON(w, http.StatusOK, preview.FrameAt(cfg.Document.Clips(), t))
	}
}

func actionsHandler(cfg ServerConfig, save func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxActionsBody))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		actions, err := editor.ParseActions(body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		res, err := cfg.Document.Apply(actions)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, editor.ErrInvalidAction) {
				status = http.StatusBadRequest
			}
			WriteError(w, status, err.Error(), "INVALID_ACTION")
			return
		}
		if res.Applied > 0 {
			save()
		}

		resp := ActionsResponse{Result: res}
		if res.ExportRequested {
			st, err := startExport(cfg, res.ExportOutput)
			if err != nil {
				resp.ExportError = err.Error()
			} else {
				resp.Export = &st
			}
		}
		resp.Timeline = timelineResponse(cfg.Document)
		WriteJSON(w, http.StatusOK, resp)
	}
}

func historyHandler(cfg ServerConfig, save func(), step func(*editor.Document) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed := step(cfg.Document)
		if changed {
			save()
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Changed: changed, Timeline: timelineResponse(cfg.Document)})
	}
}

func exportStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Renderer.Status())
	}
}

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		st, err := startExport(cfg, req.Output)
		switch {
		case errors.Is(err, export.ErrBusy):
			WriteError(w, http.StatusConflict, err.Error(), "EXPORT_BUSY")
		case errors.Is(err, export.ErrNoClips):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_TIMELINE")
		case err != nil:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		default:
			WriteJSON(w, http.StatusAccepted, st)
		}
	}
}

// startExport launches a background export of the current timeline. The
// export outlives the request that started it.
func startExport(cfg ServerConfig, name string) (export.Status, error) {
	st := cfg.Document.State()
	if len(st.Clips) == 0 {
		return export.Status{}, export.ErrNoClips
	}
	output := name
	if cfg.ExportPath != nil {
		output = cfg.ExportPath(name)
	}
	done, err := cfg.Renderer.Start(context.Background(), st.ExportJob(output), cfg.Document.ExportReporter())
	if err != nil {
		return cfg.Renderer.Status(), err
	}
	go func() {
		res := <-done
		if res.Err != nil {
			cfg.Logger.Warn().Err(res.Err).Str("output", output).Msg("background export failed")
		}
	}()
	return cfg.Renderer.Status(), nil
}

// newPersister returns a func that saves the current document. Saves run
// one at a time and each writes the state as of when it got the lock, so
// the file never ends up older than the last committed edit.
func newPersister(cfg ServerConfig) func() {
	if cfg.Save == nil {
		return func() {}
	}
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if err := cfg.Save(cfg.Document.State()); err != nil {
			cfg.Logger.Error().Err(err).Msg("save project")
		}
	}
}
