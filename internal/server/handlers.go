package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/telemetry"
)

const maxRequestBody = 1 << 20

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := knowledge.AnswerRequest{
		Question:    body.Question,
		ChatHistory: body.ChatHistory,
		Provider:    llm.Provider(strings.ToLower(strings.TrimSpace(body.Provider))),
		RequestID:   uuid.NewString(),
	}

	if body.Stream || strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamAnswer(w, r, req)
		return
	}

	start := time.Now()
	resp, err := s.answerer.Answer(r.Context(), req)
	if err != nil {
		s.writeKnowledgeError(w, req.RequestID, err)
		return
	}
	telemetry.AnswerServed(s.telemetry, "api", false, len(resp.References), resp.RetrievalTrace, time.Since(start))
	writeAPIJSON(w, AnswerResponse{RequestID: req.RequestID, AnswerResponse: resp})
}

// streamAnswer writes a metadata event, then one delta event per increment,
// then done. Errors before the first byte use a normal JSON error response.
func (s *Server) streamAnswer(w http.ResponseWriter, r *http.Request, req knowledge.AnswerRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	start := time.Now()
	result, err := s.answerer.Stream(r.Context(), req)
	if err != nil {
		s.writeKnowledgeError(w, req.RequestID, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, flusher: flusher}
	meta := StreamMetadata{
		RequestID:      result.RequestID,
		References:     result.References,
		RetrievalTrace: result.RetrievalTrace,
	}
	sse.event(eventMetadata, meta)

	for delta := range result.Stream.Deltas() {
		sse.event(eventDelta, StreamDelta{Content: delta})
	}

	if err := result.Stream.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Debug("answer stream cancelled by client", "request_id", result.RequestID)
			return
		}
		slog.Warn("answer stream failed", "request_id", result.RequestID, "error", err)
		sse.event(eventError, ErrorResponse{Error: err.Error()})
		return
	}

	// done repeats the metadata for clients that only read the final event.
	sse.event(eventDone, meta)
	telemetry.AnswerServed(s.telemetry, "api", true, len(result.References), result.RetrievalTrace, time.Since(start))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var threshold *float64
	if raw := q.Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "threshold must be a number")
			return
		}
		threshold = &v
	}

	ints := make(map[string]int, 3)
	for _, name := range []string{"maxSeeds", "topK", "maxNodes"} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
			return
		}
		ints[name] = v
	}

	seed := strings.TrimSpace(q.Get("seed"))
	opts := s.graphCfg.Options(seed, ints["maxSeeds"], ints["topK"], ints["maxNodes"], threshold)

	start := time.Now()
	g, err := s.graphs.Build(r.Context(), opts)
	if err != nil {
		s.writeKnowledgeError(w, "", err)
		return
	}
	telemetry.GraphBuilt(s.telemetry, "api", seed != "", g, time.Since(start))
	writeAPIJSON(w, g)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages := s.catalog.Pages()
	out := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageSummary{
			PageID:     p.PageID,
			Title:      p.PageTitle,
			SpaceKey:   p.SpaceKey,
			ChunkCount: p.ChunkCount,
		})
	}
	writeAPIJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]any{
		"status":  "ok",
		"version": s.version,
		"pages":   s.catalog.Len(),
	})
}

// writeKnowledgeError maps core errors onto HTTP statuses.
func (s *Server) writeKnowledgeError(w http.ResponseWriter, requestID string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", requestID, "error", err)
	}
	writeAPIError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, knowledge.ErrEmptyQuestion),
		errors.Is(err, knowledge.ErrInvalidHistory),
		errors.Is(err, llm.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, knowledge.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) event(name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Warn("encode sse event", "event", name, "error", err)
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, payload)
	s.flusher.Flush()
}
