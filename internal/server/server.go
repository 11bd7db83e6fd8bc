// Package server exposes the answer engine and graph builder over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/telemetry"
)

// Answerer produces blocking and streaming answers.
type Answerer interface {
	Answer(ctx context.Context, req knowledge.AnswerRequest) (*knowledge.AnswerResponse, error)
	Stream(ctx context.Context, req knowledge.AnswerRequest) (*knowledge.StreamResult, error)
}

// GraphBuilder builds page graphs.
type GraphBuilder interface {
	Build(ctx context.Context, opts knowledge.GraphOptions) (*knowledge.Graph, error)
}

// Catalog lists the cached pages.
type Catalog interface {
	Pages() []knowledge.PageEntry
	Len() int
}

// Options wires a Server.
type Options struct {
	Port           int
	AllowedOrigins []string
	Graph          config.GraphConfig
	Version        string

	Answerer  Answerer
	Graphs    GraphBuilder
	Catalog   Catalog
	Telemetry telemetry.Client
}

// Server is the DocWing HTTP API.
type Server struct {
	answerer  Answerer
	graphs    GraphBuilder
	catalog   Catalog
	telemetry telemetry.Client
	graphCfg  config.GraphConfig
	version   string
	origins   map[string]struct{}
	server    *http.Server
}

// New creates a server. It does not start listening.
func New(opts Options) *Server {
	s := &Server{
		answerer:  opts.Answerer,
		graphs:    opts.Graphs,
		catalog:   opts.Catalog,
		telemetry: opts.Telemetry,
		graphCfg:  opts.Graph,
		version:   opts.Version,
		origins:   make(map[string]struct{}, len(opts.AllowedOrigins)),
	}
	if s.telemetry == nil {
		s.telemetry = telemetry.NewNoopClient()
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[o] = struct{}{}
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
