// Package vectorsearch holds the ranking shared by the vector search
// adapters in its subpackages:
//   - memory: brute force over an in-process index
//   - redis: one hash per knowledge base, ranked client side
//   - neo4j: the database's vector index
package vectorsearch

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/aescanero/autogent/pkg/ports"
)

// DefaultKnowledgeBase is used when a query names none.
const DefaultKnowledgeBase = "default"

// Document is an indexed vector with its payload.
type Document struct {
	ID      string                 `json:"id"`
	Vector  []float64              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// KnowledgeBase returns q's knowledge base or the default.
func KnowledgeBase(q ports.VectorQuery) string {
	if q.KnowledgeBaseID == "" {
		return DefaultKnowledgeBase
	}
	return q.KnowledgeBaseID
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is a zero vector. The lengths must match.
func CosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MatchesFilter reports whether every filter key is present in payload
// with an equal value.
func MatchesFilter(payload, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	// JSON round trips turn integers into float64.
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Rank scores docs against query and returns the top k that pass filter,
// sorted by descending score with ties broken by id. Documents of another
// dimension are ignored.
func Rank(query []float64, docs []Document, k int, filter map[string]interface{}) []ports.SearchResult {
	results := make([]ports.SearchResult, 0, len(docs))
	for _, d := range docs {
		if len(d.Vector) != len(query) || !MatchesFilter(d.Payload, filter) {
			continue
		}
		results = append(results, ports.SearchResult{
			ID:      d.ID,
			Score:   CosineSimilarity(query, d.Vector),
			Payload: d.Payload,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
