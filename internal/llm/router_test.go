package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	provider    Provider
	reply       string
	err         error
	temperature *float32
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.temperature = model.GetCommonOptions(nil, opts...).Temperature
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{
		schema.AssistantMessage(f.reply[:2], nil),
		schema.AssistantMessage(f.reply[2:], nil),
	}), nil
}

func newTestRouter(t *testing.T, defaultProvider Provider) (*Router, map[Provider]int) {
	t.Helper()
	created := make(map[Provider]int)
	factory := func(_ context.Context, cfg Config) (model.BaseChatModel, error) {
		created[cfg.Provider]++
		return &fakeChatModel{provider: cfg.Provider, reply: "from " + string(cfg.Provider)}, nil
	}
	configs := map[Provider]Config{
		ProviderOpenAI: {APIKey: "k"},
		ProviderOllama: {},
	}
	return NewRouter(defaultProvider, configs, factory), created
}

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		name       string
		override   Provider
		configured Provider
		want       Provider
		wantErr    bool
	}{
		{name: "override wins", override: "ollama", configured: "openai", want: ProviderOllama},
		{name: "configured default", configured: "gemini", want: ProviderGemini},
		{name: "process default", want: DefaultProvider},
		{name: "unknown override", override: "bogus", configured: "openai", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProvider(tt.override, tt.configured)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_Complete(t *testing.T) {
	router, created := newTestRouter(t, ProviderOpenAI)
	ctx := context.Background()

	text, err := router.Complete(ctx, nil, CompletionOptions{Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "from openai", text)

	text, err = router.Complete(ctx, nil, CompletionOptions{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "from ollama", text)

	_, err = router.Complete(ctx, nil, CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, created[ProviderOpenAI], "chat model is cached per provider")

	cm := router.models[ProviderOpenAI].(*fakeChatModel)
	require.NotNil(t, cm.temperature)
}

func TestRouter_UnconfiguredProvider(t *testing.T) {
	router, _ := newTestRouter(t, ProviderOpenAI)
	_, err := router.Complete(context.Background(), nil, CompletionOptions{Provider: ProviderGemini})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRouter_GenerateError(t *testing.T) {
	boom := errors.New("boom")
	router := NewRouter(ProviderOpenAI, map[Provider]Config{ProviderOpenAI: {}},
		func(context.Context, Config) (model.BaseChatModel, error) {
			return &fakeChatModel{err: boom}, nil
		})
	_, err := router.Complete(context.Background(), nil, CompletionOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestRouter_CompleteStream(t *testing.T) {
	router, _ := newTestRouter(t, ProviderOllama)
	stream, err := router.CompleteStream(context.Background(), nil, CompletionOptions{})
	require.NoError(t, err)
	defer stream.Close()

	var got string
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got += msg.Content
	}
	assert.Equal(t, "from ollama", got)
}
