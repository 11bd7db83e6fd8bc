/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/DocWing/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the DocWing HTTP API.

Endpoints:
  POST /api/answer   answer a question (JSON, or SSE with "stream": true)
  GET  /api/graph    page similarity graph (?seed=&maxSeeds=&topK=&threshold=&maxNodes=)
  GET  /api/pages    cached page catalog
  GET  /api/health   liveness and catalog size

Examples:
  docwing serve
  docwing serve --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "API server port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	port := a.Config.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	if a.Config.Cache.Watch {
		if err := a.Catalog.Watch(ctx); err != nil {
			slog.Warn("page cache watch disabled", "path", a.Catalog.Path(), "error", err)
		}
	}

	srv := server.New(server.Options{
		Port:           port,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Graph:          a.Config.Graph,
		Version:        version,
		Answerer:       a.Engine,
		Graphs:         a.Graphs,
		Catalog:        a.Catalog,
		Telemetry:      a.Telemetry,
	})

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)

	fmt.Fprintf(cmd.OutOrStdout(), "DocWing API listening on http://localhost:%d (%d pages cached)\n", port, a.Catalog.Len())

	select {
	case err = <-errChan:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("api server shutdown", "error", shutdownErr)
	}
	wg.Wait()
	return err
}
