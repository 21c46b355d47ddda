package embedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAI embedding models
var openAIModels = []string{
	"text-embedding-3-small",
	"text-embedding-3-large",
	"text-embedding-ada-002",
}

type embeddingClient interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// OpenAIEmbedder embeds text with OpenAI models. langchaingo binds the
// embedding model at construction, so one client is held per model.
type OpenAIEmbedder struct {
	clients map[string]embeddingClient
	logger  *zap.Logger
}

// NewOpenAIEmbedder creates a client for each supported model
func NewOpenAIEmbedder(apiKey, baseURL string, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clients := make(map[string]embeddingClient, len(openAIModels))
	for _, model := range openAIModels {
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithEmbeddingModel(model),
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}

		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai embedding client: %w", err)
		}
		clients[model] = client
	}

	return newOpenAIEmbedder(clients, logger), nil
}

func newOpenAIEmbedder(clients map[string]embeddingClient, logger *zap.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIEmbedder{clients: clients, logger: logger}
}

// Embed returns the embedding of text under model
func (e *OpenAIEmbedder) Embed(ctx context.Context, text, model string) ([]float64, error) {
	client, ok := e.clients[model]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding model: %s", model)
	}

	vectors, err := client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}

	out := make([]float64, len(vectors[0]))
	for i, v := range vectors[0] {
		out[i] = float64(v)
	}

	e.logger.Debug("embedding created", zap.String("model", model), zap.Int("dimension", len(out)))
	return out, nil
}

// Models returns the supported models
func (e *OpenAIEmbedder) Models() []string {
	models := make([]string, 0, len(e.clients))
	for m := range e.clients {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
