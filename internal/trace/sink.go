// Package trace forwards prepared prompts and retrieval traces to a
// structured log without blocking the request path.
package trace

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// DefaultBuffer is the number of records queued before new ones are dropped.
const DefaultBuffer = 256

// Kind of trace record.
const (
	KindPrompt    = "prompt"
	KindRetrieval = "retrieval"
)

// Record is one trace entry.
type Record struct {
	Kind      string
	Label     string
	RequestID string
	Messages  []*schema.Message
	Retrieval *knowledge.RetrievalTrace
}

// Sink writes records on a background goroutine. Enqueue never blocks:
// when the buffer is full the record is dropped and counted.
type Sink struct {
	logger  *slog.Logger
	records chan Record
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSink starts a sink writing to logger (slog.Default when nil).
func NewSink(logger *slog.Logger, buffer int) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Sink{
		logger:  logger.With("component", "trace"),
		records: make(chan Record, buffer),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// TracePrompt queues a prepared prompt.
func (s *Sink) TracePrompt(_ context.Context, label, requestID string, messages []*schema.Message) {
	s.enqueue(Record{Kind: KindPrompt, Label: label, RequestID: requestID, Messages: messages})
}

// TraceRetrieval queues a retrieval trace.
func (s *Sink) TraceRetrieval(_ context.Context, requestID string, trace *knowledge.RetrievalTrace) {
	if trace == nil {
		return
	}
	s.enqueue(Record{Kind: KindRetrieval, RequestID: requestID, Retrieval: trace})
}

// Dropped returns the number of records dropped because the buffer was full.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close flushes queued records and stops the writer.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.records)
		s.wg.Wait()
	})
}

func (s *Sink) enqueue(r Record) {
	defer func() {
		// Enqueue after Close.
		if recover() != nil {
			s.dropped.Add(1)
		}
	}()
	select {
	case s.records <- r:
	default:
		s.dropped.Add(1)
	}
}

func (s *Sink) run() {
	defer s.wg.Done()
	for r := range s.records {
		s.write(r)
	}
}

func (s *Sink) write(r Record) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Warn("trace write failed", "kind", r.Kind, "panic", p)
		}
	}()

	switch r.Kind {
	case KindPrompt:
		msgs := make([]map[string]string, 0, len(r.Messages))
		for _, m := range r.Messages {
			msgs = append(msgs, map[string]string{"role": string(m.Role), "content": m.Content})
		}
		s.logger.Info("prompt prepared",
			"label", r.Label,
			"request_id", r.RequestID,
			"messages", msgs)
	case KindRetrieval:
		s.logger.Info("retrieval trace",
			"request_id", r.RequestID,
			"threshold", r.Retrieval.Threshold,
			"fallback_applied", r.Retrieval.FallbackApplied,
			"results", r.Retrieval.Results)
	}
}

var _ knowledge.Tracer = (*Sink)(nil)
