package nodes

import (
	"context"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// Default models per provider, used when config omits "model".
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-sonnet-20241022",
}

// AIModel sends its text input to an LLM and emits the completion.
type AIModel struct {
	base
	cfg aiModelConfig
	llm ports.LLMChat
}

type aiModelConfig struct {
	Provider     string  `mapstructure:"provider" validate:"required"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int     `mapstructure:"max_tokens" validate:"min=1,max=32768"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	Critical     bool    `mapstructure:"critical"`
}

// NewAIModelFactory returns the ai_model factory bound to llm.
func NewAIModelFactory(llm ports.LLMChat) domain.Factory {
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := aiModelConfig{
			Provider:    "openai",
			Temperature: 0.7,
			MaxTokens:   1024,
		}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}
		if cfg.Model == "" {
			cfg.Model = defaultModels[cfg.Provider]
		}
		if cfg.Model == "" {
			return nil, domain.NewError(domain.KindInvalidConfig, id, "model is required for provider %q", cfg.Provider)
		}

		return &AIModel{
			base: base{
				id:       id,
				kind:     domain.KindAIModel,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:   []string{"text"},
					Required: []string{"text"},
					Outputs:  []string{"text", "metadata"},
				},
			},
			cfg: cfg,
			llm: llm,
		}, nil
	}
}

// Execute builds the [system?, user] exchange and calls the LLM.
func (n *AIModel) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	prompt, err := requireText(n.id, in, "text")
	if err != nil {
		return nil, err
	}

	messages := make([]ports.Message, 0, 2)
	if n.cfg.SystemPrompt != "" {
		messages = append(messages, ports.Message{Role: ports.RoleSystem, Content: n.cfg.SystemPrompt})
	}
	messages = append(messages, ports.Message{Role: ports.RoleUser, Content: prompt})

	resp, err := n.llm.Generate(ctx, ports.ChatRequest{
		Provider:    n.cfg.Provider,
		Model:       n.cfg.Model,
		Messages:    messages,
		Temperature: n.cfg.Temperature,
		MaxTokens:   n.cfg.MaxTokens,
	})
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}

	return domain.Values{
		"text": resp.Text,
		"metadata": map[string]interface{}{
			"provider":      n.cfg.Provider,
			"model":         n.cfg.Model,
			"input_tokens":  resp.InputTokens,
			"output_tokens": resp.OutputTokens,
		},
	}, nil
}
