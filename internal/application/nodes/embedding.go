package nodes

import (
	"context"
	"fmt"
	"sort"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// ModelCatalog is implemented by embedders that know which model tags they
// serve. Factories use it to reject unknown models at load time.
type ModelCatalog interface {
	Models() []string
}

// Embedding turns text into a vector.
type Embedding struct {
	base
	model    string
	embedder ports.Embedder
}

type embeddingConfig struct {
	Model    string `mapstructure:"model" validate:"required"`
	Critical bool   `mapstructure:"critical"`
}

// NewEmbeddingFactory returns the embedding factory bound to embedder.
func NewEmbeddingFactory(embedder ports.Embedder) domain.Factory {
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := embeddingConfig{Model: "text-embedding-3-small"}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}

		if catalog, ok := embedder.(ModelCatalog); ok {
			models := catalog.Models()
			if !contains(models, cfg.Model) {
				sorted := append([]string(nil), models...)
				sort.Strings(sorted)
				return nil, domain.NewError(domain.KindInvalidConfig, id,
					"unknown embedding model %q (known: %v)", cfg.Model, sorted)
			}
		}

		return &Embedding{
			base: base{
				id:       id,
				kind:     domain.KindEmbedding,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:   []string{"text"},
					Required: []string{"text"},
					Outputs:  []string{"embedding", "text", "metadata"},
				},
			},
			model:    cfg.Model,
			embedder: embedder,
		}, nil
	}
}

// Execute embeds the text input.
func (n *Embedding) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	text, err := requireText(n.id, in, "text")
	if err != nil {
		return nil, err
	}

	vec, err := n.embedder.Embed(ctx, text, n.model)
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}
	if len(vec) == 0 {
		return nil, adapterFailure(n.id, fmt.Errorf("embedder returned an empty vector for model %s", n.model))
	}

	return domain.Values{
		"embedding": vec,
		"text":      text,
		"metadata": map[string]interface{}{
			"model":     n.model,
			"dimension": len(vec),
		},
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
