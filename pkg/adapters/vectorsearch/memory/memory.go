package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/autogent/pkg/adapters/vectorsearch"
	"github.com/aescanero/autogent/pkg/ports"
)

// Index implements ports.VectorSearcher over in-process knowledge bases
type Index struct {
	mu    sync.RWMutex
	bases map[string]map[string]vectorsearch.Document
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{bases: make(map[string]map[string]vectorsearch.Document)}
}

// Upsert adds or replaces documents in a knowledge base
func (i *Index) Upsert(_ context.Context, knowledgeBase string, docs ...vectorsearch.Document) error {
	if knowledgeBase == "" {
		knowledgeBase = vectorsearch.DefaultKnowledgeBase
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	base, ok := i.bases[knowledgeBase]
	if !ok {
		base = make(map[string]vectorsearch.Document)
		i.bases[knowledgeBase] = base
	}
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document id is required")
		}
		base[d.ID] = d
	}
	return nil
}

// Query ranks the knowledge base against q
func (i *Index) Query(ctx context.Context, q ports.VectorQuery) ([]ports.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	base := i.bases[vectorsearch.KnowledgeBase(q)]
	docs := make([]vectorsearch.Document, 0, len(base))
	for _, d := range base {
		docs = append(docs, d)
	}
	i.mu.RUnlock()

	return vectorsearch.Rank(q.Vector, docs, q.TopK, q.Filter), nil
}
