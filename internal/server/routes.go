package server

import (
	"net/http"

	"github.com/josephgoksu/DocWing/internal/logger"
)

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/answer", s.handleAnswer)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/pages", s.handlePages)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return s.corsMiddleware(logger.Recover(mux))
}
