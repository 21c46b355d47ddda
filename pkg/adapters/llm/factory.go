package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/adapters/llm/anthropic"
	"github.com/aescanero/autogent/pkg/adapters/llm/openai"
	"github.com/aescanero/autogent/pkg/ports"
)

// ErrNoProviders is returned by NewClient when no provider has credentials
var ErrNoProviders = errors.New("no LLM provider configured")

// Config holds LLM client configuration
type Config struct {
	DefaultProvider string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	Logger          *zap.Logger
	Metrics         ports.MetricsCollector
}

// NewClient creates a router over every provider that has an API key
func NewClient(cfg *Config) (*Router, error) {
	router := NewRouter(cfg.DefaultProvider, cfg.Metrics, cfg.Logger)

	if cfg.AnthropicAPIKey != "" {
		c, err := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.Logger)
		if err != nil {
			return nil, err
		}
		router.Register(anthropic.Provider, c)
	}
	if cfg.OpenAIAPIKey != "" {
		c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Logger)
		if err != nil {
			return nil, err
		}
		router.Register(openai.Provider, c)
	}

	if len(router.Providers()) == 0 {
		return nil, ErrNoProviders
	}
	return router, nil
}

// Router dispatches chat requests to a client per provider and records
// call metrics
type Router struct {
	providers       map[string]ports.LLMChat
	defaultProvider string
	metrics         ports.MetricsCollector
	logger          *zap.Logger
}

// NewRouter creates an empty router
func NewRouter(defaultProvider string, metrics ports.MetricsCollector, logger *zap.Logger) *Router {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		providers:       make(map[string]ports.LLMChat),
		defaultProvider: defaultProvider,
		metrics:         metrics,
		logger:          logger,
	}
}

// Register adds a provider client. Not safe to call once requests are
// being served.
func (r *Router) Register(provider string, client ports.LLMChat) {
	r.providers[provider] = client
}

// Providers returns the registered provider names
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate routes req to its provider, or the default provider when unset
func (r *Router) Generate(ctx context.Context, req ports.ChatRequest) (*ports.ChatResponse, error) {
	provider := req.Provider
	if provider == "" {
		provider = r.defaultProvider
	}

	client, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	req.Provider = provider

	start := time.Now()
	resp, err := client.Generate(ctx, req)
	duration := time.Since(start)

	if err != nil {
		r.metrics.RecordLLMCall(provider, req.Model, duration, 0, 0, err)
		r.logger.Warn("llm call failed",
			zap.String("provider", provider),
			zap.String("model", req.Model),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	r.metrics.RecordLLMCall(provider, req.Model, duration, resp.InputTokens, resp.OutputTokens, nil)
	return resp, nil
}
