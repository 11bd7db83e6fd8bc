package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/pagecache"
)

type stubSearcher struct {
	results []knowledge.SearchResult
	err     error
}

func (s *stubSearcher) Search(context.Context, string, int) ([]knowledge.SearchResult, error) {
	return s.results, s.err
}

type stubModel struct {
	reply     string
	deltas    []string
	streamErr error
	err       error
}

func (m *stubModel) Complete(context.Context, []*schema.Message, llm.CompletionOptions) (string, error) {
	return m.reply, m.err
}

func (m *stubModel) CompleteStream(context.Context, []*schema.Message, llm.CompletionOptions) (*schema.StreamReader[*schema.Message], error) {
	if m.err != nil {
		return nil, m.err
	}
	sr, sw := schema.Pipe[*schema.Message](len(m.deltas) + 1)
	for _, d := range m.deltas {
		sw.Send(schema.AssistantMessage(d, nil), nil)
	}
	if m.streamErr != nil {
		sw.Send(nil, m.streamErr)
	}
	sw.Close()
	return sr, nil
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Track(event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) Close() error { return nil }

func hit(id, page, title string, score float64) knowledge.SearchResult {
	return knowledge.SearchResult{
		Chunk: knowledge.Chunk{ID: id, PageID: page, Title: title, Content: "content of " + id},
		Score: score,
	}
}

const cacheJSON = `{
  "p1": {"pageId": "p1", "pageTitle": "Deploy Guide", "spaceKey": "OPS", "chunkCount": 3, "chunkIds": ["c1","c2","c3"]},
  "p2": {"pageId": "p2", "pageTitle": "Rollback", "chunkCount": 1, "chunkIds": ["c4"]}
}`

func newTestServer(t *testing.T, searcher *stubSearcher, model *stubModel, tel *recordingTelemetry) *Server {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cache.json", []byte(cacheJSON), 0644))
	catalog := pagecache.New(fs, "/cache.json")

	engine := knowledge.NewEngine(knowledge.EngineConfig{
		Policy:          knowledge.NewRetrievalPolicy(searcher, knowledge.DefaultRetrievalOptions()),
		Model:           model,
		DefaultProvider: llm.ProviderOpenAI,
	})

	return New(Options{
		Port:           0,
		AllowedOrigins: []string{"http://localhost:5173"},
		Graph:          config.DefaultGraphConfig(),
		Version:        "test",
		Answerer:       engine,
		Graphs:         knowledge.NewGraphBuilder(catalog, searcher),
		Catalog:        catalog,
		Telemetry:      tel,
	})
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnswer_JSON(t *testing.T) {
	tel := &recordingTelemetry{}
	srv := newTestServer(t,
		&stubSearcher{results: []knowledge.SearchResult{hit("c1", "p1", "Deploy Guide", 0.9)}},
		&stubModel{reply: "Run make deploy [1]."}, tel)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/answer", `{"question":"how do I deploy?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RequestID  string                   `json:"requestId"`
		Answer     string                   `json:"answer"`
		References []knowledge.Reference    `json:"references"`
		Trace      knowledge.RetrievalTrace `json:"retrievalTrace"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "Run make deploy [1].", resp.Answer)
	require.Len(t, resp.References, 1)
	assert.Equal(t, "Deploy Guide", resp.References[0].Title)
	assert.Len(t, resp.Trace.Results, 1)
	assert.Equal(t, []string{"answer_served"}, tel.events)
}

func TestHandleAnswer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		searchErr  error
		wantStatus int
	}{
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "empty question", body: `{"question":"   "}`, wantStatus: http.StatusBadRequest},
		{name: "bad history role", body: `{"question":"q","chatHistory":[{"role":"system","content":"x"}]}`, wantStatus: http.StatusBadRequest},
		{name: "unknown provider", body: `{"question":"q","provider":"mistral"}`, wantStatus: http.StatusBadRequest},
		{name: "search failure", body: `{"question":"q"}`, searchErr: errors.New("index down"), wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &stubSearcher{err: tc.searchErr}, &stubModel{reply: "x"}, &recordingTelemetry{})
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/answer", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var e ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

func TestHandleAnswer_Stream(t *testing.T) {
	tel := &recordingTelemetry{}
	srv := newTestServer(t,
		&stubSearcher{results: []knowledge.SearchResult{hit("c1", "p1", "Deploy Guide", 0.9)}},
		&stubModel{deltas: []string{"Run ", "make deploy."}}, tel)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/answer", `{"question":"how?","stream":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, eventMetadata, events[0].name)
	assert.Equal(t, eventDelta, events[1].name)
	assert.Equal(t, eventDelta, events[2].name)
	assert.Equal(t, eventDone, events[3].name)

	var meta StreamMetadata
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &meta))
	require.Len(t, meta.References, 1)
	assert.NotEmpty(t, meta.RequestID)

	var text strings.Builder
	for _, e := range events[1:3] {
		var d StreamDelta
		require.NoError(t, json.Unmarshal([]byte(e.data), &d))
		text.WriteString(d.Content)
	}
	assert.Equal(t, "Run make deploy.", text.String())

	var done StreamMetadata
	require.NoError(t, json.Unmarshal([]byte(events[3].data), &done))
	assert.Equal(t, meta.RequestID, done.RequestID)
	assert.Equal(t, meta.References, done.References)
	require.NotNil(t, done.RetrievalTrace)
	assert.Len(t, done.RetrievalTrace.Results, 1)
	assert.Equal(t, []string{"answer_served"}, tel.events)
}

func TestHandleAnswer_StreamViaAcceptHeader(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubModel{deltas: []string{"general answer"}}, &recordingTelemetry{})

	req := httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(`{"question":"anything"}`))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	events := readEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	var meta StreamMetadata
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &meta))
	assert.NotNil(t, meta.References)
	assert.Empty(t, meta.References)
}

func TestHandleAnswer_StreamProviderFailure(t *testing.T) {
	tel := &recordingTelemetry{}
	srv := newTestServer(t,
		&stubSearcher{results: []knowledge.SearchResult{hit("c1", "p1", "Deploy Guide", 0.9)}},
		&stubModel{deltas: []string{"partial"}, streamErr: errors.New("provider reset")}, tel)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/answer", `{"question":"q","stream":true}`)
	events := readEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, eventError, last.name)
	assert.Contains(t, last.data, "provider reset")
	assert.Empty(t, tel.events)
}

func TestHandleGraph(t *testing.T) {
	searcher := &stubSearcher{results: []knowledge.SearchResult{
		hit("c1", "p1", "Deploy Guide", 0.99),
		hit("c4", "p2", "Rollback", 0.8),
	}}
	tel := &recordingTelemetry{}
	srv := newTestServer(t, searcher, &stubModel{}, tel)

	t.Run("browse", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/graph", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var g knowledge.Graph
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Len(t, g.Nodes, 2)
		assert.Empty(t, g.Edges)
	})

	t.Run("seeded", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/graph?seed=p1&maxSeeds=1&threshold=0.5", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var g knowledge.Graph
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		require.Len(t, g.Edges, 1)
		assert.Equal(t, "p1", g.Edges[0].Source)
		assert.Equal(t, "p2", g.Edges[0].Target)
	})

	t.Run("unknown seed", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/graph?seed=nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad number", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/graph?seed=p1&topK=many", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Equal(t, []string{"graph_built", "graph_built"}, tel.events)
}

func TestHandlePagesAndHealth(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubModel{}, &recordingTelemetry{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/pages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pages []PageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "p1", pages[0].PageID)
	assert.Equal(t, "Deploy Guide", pages[0].Title)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 2, health["pages"])
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubModel{}, &recordingTelemetry{})

	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed preflight", origin: "http://localhost:5173", method: http.MethodOptions, wantStatus: http.StatusNoContent, wantAllow: "http://localhost:5173"},
		{name: "blocked preflight", origin: "http://evil.example", method: http.MethodOptions, wantStatus: http.StatusForbidden},
		{name: "allowed get", origin: "http://localhost:5173", method: http.MethodGet, wantStatus: http.StatusOK, wantAllow: "http://localhost:5173"},
		{name: "foreign get has no allow header", origin: "http://evil.example", method: http.MethodGet, wantStatus: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/health", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(knowledge.ErrEmptyQuestion))
	assert.Equal(t, http.StatusNotFound, statusForError(knowledge.ErrPageNotFound))
	assert.Equal(t, http.StatusBadRequest, statusForError(llm.ErrUnsupportedProvider))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("boom")))
}
