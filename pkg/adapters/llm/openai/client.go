package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/ports"
)

// Provider is the provider name this client serves
const Provider = "openai"

// Client implements ports.LLMChat over a langchaingo model
type Client struct {
	model  llms.Model
	logger *zap.Logger
}

// NewClient creates a new OpenAI chat client. baseURL may point at any
// OpenAI-compatible endpoint.
func NewClient(apiKey, baseURL string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	opts := []openai.Option{openai.WithToken(apiKey)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewFromModel(model, logger), nil
}

// NewFromModel wraps an existing langchaingo model
func NewFromModel(model llms.Model, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{model: model, logger: logger}
}

// Generate runs the exchange through the model
func (c *Client) Generate(ctx context.Context, req ports.ChatRequest) (*ports.ChatResponse, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role, err := chatRole(m.Role)
		if err != nil {
			return nil, err
		}
		messages = append(messages, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	choice := resp.Choices[0]
	out := &ports.ChatResponse{
		Text:         choice.Content,
		Provider:     Provider,
		Model:        req.Model,
		InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
		OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
	}

	c.logger.Debug("openai completion",
		zap.String("model", req.Model),
		zap.Int("input_tokens", out.InputTokens),
		zap.Int("output_tokens", out.OutputTokens))

	return out, nil
}

func chatRole(role string) (llms.ChatMessageType, error) {
	switch role {
	case ports.RoleSystem:
		return llms.ChatMessageTypeSystem, nil
	case ports.RoleUser:
		return llms.ChatMessageTypeHuman, nil
	case ports.RoleAssistant:
		return llms.ChatMessageTypeAI, nil
	default:
		return "", fmt.Errorf("unsupported message role: %s", role)
	}
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
