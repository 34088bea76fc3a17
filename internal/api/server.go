// Package api exposes the studio document over HTTP so an automation
// caller can read the timeline, apply action lists, undo and redo, and run
// exports.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"clipstudio/internal/editor"
	"clipstudio/internal/export"
)

// Server wraps the HTTP listener.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// ServerConfig wires the API to the document and the exporter.
type ServerConfig struct {
	Addr     string
	Document *editor.Document
	Renderer *export.Renderer
	// ExportPath resolves a requested output name to a file path.
	ExportPath func(name string) string
	// Save persists the document after each committed edit; nil skips it.
	Save      func(editor.State) error
	Logger    zerolog.Logger
	StartTime time.Time
	Version   string
}

// NewServer builds the server and its router.
func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
