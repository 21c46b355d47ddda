package neo4j

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/adapters/vectorsearch"
	"github.com/aescanero/autogent/pkg/ports"
)

// Label and property names of indexed documents.
const (
	documentLabel     = "Document"
	embeddingProperty = "embedding"
	knowledgeBaseProp = "knowledge_base_id"
)

// Filters are applied after the index lookup, so the lookup is widened by
// this factor when a filter is present.
const filterOverfetch = 4

var indexName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds Neo4j connection settings
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Index    string
}

// Index implements ports.VectorSearcher on a Neo4j vector index
type Index struct {
	driver   neo4j.DriverWithContext
	database string
	index    string
	logger   *zap.Logger
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Index, error) {
	if !indexName.MatchString(cfg.Index) {
		return nil, fmt.Errorf("invalid vector index name: %q", cfg.Index)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{driver: driver, database: cfg.Database, index: cfg.Index, logger: logger}, nil
}

// EnsureIndex creates the vector index for the given dimension if absent
func (i *Index) EnsureIndex(ctx context.Context, dimension int) error {
	cypher := fmt.Sprintf(
		"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (d:%s) ON (d.%s) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: $dimension, `vector.similarity_function`: 'cosine'}}",
		i.index, documentLabel, embeddingProperty)

	return i.write(ctx, cypher, map[string]any{"dimension": dimension})
}

// Upsert merges documents into a knowledge base
func (i *Index) Upsert(ctx context.Context, knowledgeBase string, docs ...vectorsearch.Document) error {
	if knowledgeBase == "" {
		knowledgeBase = vectorsearch.DefaultKnowledgeBase
	}

	rows := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document id is required")
		}
		payload := d.Payload
		if payload == nil {
			payload = map[string]interface{}{}
		}
		rows = append(rows, map[string]any{"id": d.ID, "vector": d.Vector, "payload": payload})
	}

	cypher := fmt.Sprintf(
		"UNWIND $rows AS row MERGE (d:%s {id: row.id}) "+
			"SET d += row.payload, d.%s = row.vector, d.%s = $kb",
		documentLabel, embeddingProperty, knowledgeBaseProp)

	return i.write(ctx, cypher, map[string]any{"rows": rows, "kb": knowledgeBase})
}

// Query looks up the nearest documents through the vector index
func (i *Index) Query(ctx context.Context, q ports.VectorQuery) ([]ports.SearchResult, error) {
	limit := q.TopK
	if len(q.Filter) > 0 {
		limit *= filterOverfetch
	}

	cypher := fmt.Sprintf(
		"CALL db.index.vector.queryNodes($index, $limit, $vector) YIELD node, score "+
			"WHERE node.%s = $kb "+
			"RETURN node.id AS id, score, properties(node) AS payload ORDER BY score DESC",
		knowledgeBaseProp)
	params := map[string]any{
		"index":  i.index,
		"limit":  limit,
		"vector": q.Vector,
		"kb":     vectorsearch.KnowledgeBase(q),
	}

	session := i.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: i.database})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return toResults(records, q), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}

	return out.([]ports.SearchResult), nil
}

// Close closes the driver
func (i *Index) Close(ctx context.Context) error {
	return i.driver.Close(ctx)
}

func (i *Index) write(ctx context.Context, cypher string, params map[string]any) error {
	session := i.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: i.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to write to neo4j: %w", err)
	}
	return nil
}

func toResults(records []*neo4j.Record, q ports.VectorQuery) []ports.SearchResult {
	results := make([]ports.SearchResult, 0, len(records))
	for _, record := range records {
		id, _ := record.Get("id")
		score, _ := record.Get("score")
		props, _ := record.Get("payload")

		payload, _ := props.(map[string]any)
		delete(payload, embeddingProperty)
		delete(payload, "id")
		if !vectorsearch.MatchesFilter(payload, q.Filter) {
			continue
		}

		s, _ := score.(float64)
		results = append(results, ports.SearchResult{ID: fmt.Sprint(id), Score: s, Payload: payload})
		if q.TopK > 0 && len(results) == q.TopK {
			break
		}
	}
	return results
}
