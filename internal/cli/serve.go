package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/api"
	"clipstudio/internal/logx"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the automation API for the project",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from studio.yaml server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	bins, err := ws.binaries()
	if err != nil {
		return err
	}
	doc, err := ws.loadDocument()
	if err != nil {
		return err
	}

	addr := ws.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := api.NewServer(api.ServerConfig{
		Addr:       addr,
		Document:   doc,
		Renderer:   ws.renderer(cmd.Context(), bins),
		ExportPath: ws.paths.ExportFile,
		Save:       ws.save,
		Logger:     logx.WithComponent(ws.logger, "api"),
		StartTime:  time.Now(),
		Version:    Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	if !outputJSON {
		cmd.Printf("serving %s on http://%s (Ctrl+C to stop)\n", ws.paths.Root, srv.Addr())
	}

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-errCh
}
