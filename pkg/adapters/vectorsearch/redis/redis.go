package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/adapters/vectorsearch"
	"github.com/aescanero/autogent/pkg/ports"
)

const keyPrefix = "autogent:kb:"

// Index implements ports.VectorSearcher with one Redis hash per knowledge
// base, mapping document id to its JSON encoding. Ranking happens client
// side, which suits knowledge bases of modest size.
type Index struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewIndex creates a new Redis-backed index
func NewIndex(client redis.UniversalClient, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{client: client, logger: logger}
}

// Upsert adds or replaces documents in a knowledge base
func (i *Index) Upsert(ctx context.Context, knowledgeBase string, docs ...vectorsearch.Document) error {
	if knowledgeBase == "" {
		knowledgeBase = vectorsearch.DefaultKnowledgeBase
	}

	values := make([]interface{}, 0, 2*len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document id is required")
		}
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		values = append(values, d.ID, data)
	}
	if len(values) == 0 {
		return nil
	}

	if err := i.client.HSet(ctx, baseKey(knowledgeBase), values...).Err(); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

// Query loads the knowledge base and ranks it against q
func (i *Index) Query(ctx context.Context, q ports.VectorQuery) ([]ports.SearchResult, error) {
	key := baseKey(vectorsearch.KnowledgeBase(q))

	raw, err := i.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	docs := make([]vectorsearch.Document, 0, len(raw))
	for id, data := range raw {
		var d vectorsearch.Document
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			i.logger.Warn("skipping malformed document",
				zap.String("key", key),
				zap.String("document_id", id),
				zap.Error(err))
			continue
		}
		docs = append(docs, d)
	}

	return vectorsearch.Rank(q.Vector, docs, q.TopK, q.Filter), nil
}

func baseKey(knowledgeBase string) string {
	return keyPrefix + knowledgeBase
}
