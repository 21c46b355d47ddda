package nodes

import (
	"context"
	"sort"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// VectorSearch queries a knowledge base with an embedding.
type VectorSearch struct {
	base
	cfg      vectorSearchConfig
	searcher ports.VectorSearcher
}

type vectorSearchConfig struct {
	TopK            int                    `mapstructure:"top_k" validate:"min=1,max=10000"`
	KnowledgeBaseID string                 `mapstructure:"knowledge_base_id"`
	Filter          map[string]interface{} `mapstructure:"filter"`
	Critical        bool                   `mapstructure:"critical"`
}

// NewVectorSearchFactory returns the vector_search factory bound to searcher.
func NewVectorSearchFactory(searcher ports.VectorSearcher) domain.Factory {
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := vectorSearchConfig{TopK: 5}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}

		return &VectorSearch{
			base: base{
				id:       id,
				kind:     domain.KindVectorSearch,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:   []string{"embedding"},
					Required: []string{"embedding"},
					Outputs:  []string{"search_results"},
				},
			},
			cfg:      cfg,
			searcher: searcher,
		}, nil
	}
}

// Execute runs the query. Results are re-sorted and truncated so the port
// contract holds even for adapters that return more than asked.
func (n *VectorSearch) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	raw, ok := in["embedding"]
	if !ok || raw == nil {
		return nil, &domain.Error{Kind: domain.KindMissingInput, NodeID: n.id, Port: "embedding", Message: "input not bound"}
	}
	vec, ok := toFloats(raw)
	if !ok || len(vec) == 0 {
		return nil, &domain.Error{Kind: domain.KindMissingInput, NodeID: n.id, Port: "embedding", Message: "input is not a vector"}
	}

	results, err := n.searcher.Query(ctx, ports.VectorQuery{
		Vector:          vec,
		TopK:            n.cfg.TopK,
		KnowledgeBaseID: n.cfg.KnowledgeBaseID,
		Filter:          n.cfg.Filter,
	})
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > n.cfg.TopK {
		results = results[:n.cfg.TopK]
	}
	if results == nil {
		results = []ports.SearchResult{}
	}

	return domain.Values{"search_results": results}, nil
}
