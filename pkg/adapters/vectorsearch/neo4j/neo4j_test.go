package neo4j

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"

	"github.com/aescanero/autogent/pkg/ports"
)

func record(id string, score float64, payload map[string]any) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"id", "score", "payload"},
		Values: []any{id, score, payload},
	}
}

func TestToResults_FiltersAndTruncates(t *testing.T) {
	records := []*neo4j.Record{
		record("a", 0.9, map[string]any{"id": "a", "lang": "en", "embedding": []any{1.0}}),
		record("b", 0.8, map[string]any{"id": "b", "lang": "fr"}),
		record("c", 0.7, map[string]any{"id": "c", "lang": "en"}),
		record("d", 0.6, map[string]any{"id": "d", "lang": "en"}),
	}

	got := toResults(records, ports.VectorQuery{TopK: 2, Filter: map[string]interface{}{"lang": "en"}})
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, map[string]any{"lang": "en"}, got[0].Payload)
}

func TestConnect_RejectsBadIndexName(t *testing.T) {
	_, err := Connect(context.Background(), Config{URI: "neo4j://localhost:7687", Index: "x; DROP"}, nil)
	assert.ErrorContains(t, err, "invalid vector index name")
}
