package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/prompts"
)

// requestState names the phases of one answer request for debug logs.
type requestState string

const (
	statePreparing    requestState = "PREPARING"
	stateRetrieving   requestState = "RETRIEVING"
	stateEmptyContext requestState = "EMPTY_CONTEXT"
	stateContextBuilt requestState = "CONTEXT_BUILT"
	stateCompleting   requestState = "COMPLETING"
	stateDone         requestState = "DONE"
	stateFailed       requestState = "FAILED"
)

// Trace labels for prepared prompts.
const (
	TraceLabelAnswer = "answer"
	TraceLabelStream = "answer_stream"
)

// AnswerRequest is one question to answer.
type AnswerRequest struct {
	Question    string
	ChatHistory []ChatMessage
	// Provider overrides the configured default provider when set.
	Provider llm.Provider
	// RequestID correlates trace records. Generated when empty.
	RequestID string
}

// StreamResult carries the answer metadata and the live delta stream.
// References and RetrievalTrace are final when the result is returned.
type StreamResult struct {
	RequestID      string
	References     []Reference
	RetrievalTrace *RetrievalTrace
	Stream         *Stream
}

// EngineConfig wires an Engine.
type EngineConfig struct {
	Policy          *RetrievalPolicy
	Model           LanguageModel
	DefaultProvider llm.Provider
	Prompts         prompts.Set
	Tracer          Tracer
	// TraceRetrieval forwards retrieval traces to the Tracer as well.
	TraceRetrieval bool
}

// Engine answers questions from retrieved documentation.
type Engine struct {
	policy          *RetrievalPolicy
	model           LanguageModel
	defaultProvider llm.Provider
	prompts         prompts.Set
	tracer          Tracer
	traceRetrieval  bool
}

// NewEngine creates an answer engine. Empty prompts fall back to the defaults.
func NewEngine(cfg EngineConfig) *Engine {
	ps := cfg.Prompts
	defaults := prompts.Defaults()
	if ps.System == "" {
		ps.System = defaults.System
	}
	if ps.NoContext == "" {
		ps.NoContext = defaults.NoContext
	}
	if ps.FallbackCaveat == "" {
		ps.FallbackCaveat = defaults.FallbackCaveat
	}
	if ps.InsufficientInformation == "" {
		ps.InsufficientInformation = defaults.InsufficientInformation
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = nopTracer{}
	}

	return &Engine{
		policy:          cfg.Policy,
		model:           cfg.Model,
		defaultProvider: cfg.DefaultProvider,
		prompts:         ps,
		tracer:          tracer,
		traceRetrieval:  cfg.TraceRetrieval,
	}
}

// InsufficientInformation returns the reply used when a completion is empty.
func (e *Engine) InsufficientInformation() string {
	return e.prompts.InsufficientInformation
}

// prepared is the output of the shared preparation phase.
type prepared struct {
	requestID  string
	messages   []*schema.Message
	references []Reference
	trace      *RetrievalTrace
	opts       llm.CompletionOptions
}

// Answer runs retrieval and a blocking completion.
func (e *Engine) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	p, err := e.prepare(ctx, req, TraceLabelAnswer)
	if err != nil {
		return nil, err
	}

	e.transition(p.requestID, stateCompleting)
	text, err := e.model.Complete(ctx, p.messages, p.opts)
	if err != nil {
		e.transition(p.requestID, stateFailed, "error", err)
		return nil, fmt.Errorf("completion: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		slog.Debug("empty completion, substituting insufficient-information answer", "request_id", p.requestID)
		text = e.prompts.InsufficientInformation
	}
	e.transition(p.requestID, stateDone)

	return &AnswerResponse{
		Answer:         text,
		References:     p.references,
		RetrievalTrace: p.trace,
	}, nil
}

// Stream runs retrieval, then starts a streaming completion.
// Retrieval and reference numbering finish before the stream is returned.
func (e *Engine) Stream(ctx context.Context, req AnswerRequest) (*StreamResult, error) {
	p, err := e.prepare(ctx, req, TraceLabelStream)
	if err != nil {
		return nil, err
	}

	e.transition(p.requestID, stateCompleting)
	reader, err := e.model.CompleteStream(ctx, p.messages, p.opts)
	if err != nil {
		e.transition(p.requestID, stateFailed, "error", err)
		return nil, fmt.Errorf("completion stream: %w", err)
	}

	requestID := p.requestID
	stream := newStream(ctx, reader, func(err error) {
		if err != nil {
			e.transition(requestID, stateFailed, "error", err)
			return
		}
		e.transition(requestID, stateDone)
	})

	return &StreamResult{
		RequestID:      requestID,
		References:     p.references,
		RetrievalTrace: p.trace,
		Stream:         stream,
	}, nil
}

func (e *Engine) prepare(ctx context.Context, req AnswerRequest, label string) (*prepared, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	e.transition(requestID, statePreparing)

	if strings.TrimSpace(req.Question) == "" {
		e.transition(requestID, stateFailed, "error", ErrEmptyQuestion)
		return nil, ErrEmptyQuestion
	}
	if err := ValidateHistory(req.ChatHistory); err != nil {
		e.transition(requestID, stateFailed, "error", err)
		return nil, err
	}
	provider, err := llm.ResolveProvider(req.Provider, e.defaultProvider)
	if err != nil {
		e.transition(requestID, stateFailed, "error", err)
		return nil, err
	}

	e.transition(requestID, stateRetrieving)
	retrieval, err := e.policy.Retrieve(ctx, req.Question)
	if err != nil {
		e.transition(requestID, stateFailed, "error", err)
		return nil, err
	}
	if e.traceRetrieval {
		e.traceRetrievalSafe(ctx, requestID, retrieval.Trace)
	}

	system := e.prompts.System
	var contextText string
	references := []Reference{}

	if len(retrieval.Included) == 0 {
		e.transition(requestID, stateEmptyContext)
		contextText = prompts.NoContextSection
		system += "\n\n" + e.prompts.NoContext
	} else {
		e.transition(requestID, stateContextBuilt, "references", len(retrieval.Included))
		contextText, references = AssembleContext(retrieval.Included)
		if retrieval.FallbackApplied() {
			system += "\n\n" + e.prompts.FallbackCaveat
		}
	}

	messages := buildMessages(system, req.ChatHistory, contextText, req.Question)
	e.tracePromptSafe(ctx, label, requestID, messages)

	return &prepared{
		requestID:  requestID,
		messages:   messages,
		references: references,
		trace:      retrieval.Trace,
		opts: llm.CompletionOptions{
			Temperature: AnswerTemperature,
			Provider:    provider,
		},
	}, nil
}

func buildMessages(system string, history []ChatMessage, contextText, question string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(system))
	for _, turn := range history {
		if turn.Role == string(schema.Assistant) {
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		} else {
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}
	messages = append(messages, schema.UserMessage(fmt.Sprintf(prompts.QuestionTemplate, contextText, strings.TrimSpace(question))))
	return messages
}

// tracePromptSafe and traceRetrievalSafe contain tracer panics; tracing never
// fails a request.
func (e *Engine) tracePromptSafe(ctx context.Context, label, requestID string, messages []*schema.Message) {
	defer recoverTrace("prompt", requestID)
	e.tracer.TracePrompt(ctx, label, requestID, messages)
}

func (e *Engine) traceRetrievalSafe(ctx context.Context, requestID string, trace *RetrievalTrace) {
	defer recoverTrace("retrieval", requestID)
	e.tracer.TraceRetrieval(ctx, requestID, trace)
}

func recoverTrace(kind, requestID string) {
	if p := recover(); p != nil {
		slog.Warn("trace sink panicked", "kind", kind, "request_id", requestID, "panic", p)
	}
}

func (e *Engine) transition(requestID string, state requestState, args ...any) {
	slog.Debug("answer request", append([]any{"request_id", requestID, "state", string(state)}, args...)...)
}
