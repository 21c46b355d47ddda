package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultDimensions mirrors the output size of the hosted models so the
// hash embedder can stand in for them.
var DefaultDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"hash-256":               256,
}

// HashEmbedder maps text to a signed feature-hashing vector, normalized to
// unit length. Equal text and model always give the same vector.
type HashEmbedder struct {
	dims map[string]int
}

// NewHashEmbedder creates an embedder for the given model dimensions. A nil
// map uses DefaultDimensions.
func NewHashEmbedder(dims map[string]int) *HashEmbedder {
	if dims == nil {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed hashes each token of text into a bucket of the model's vector
func (h *HashEmbedder) Embed(ctx context.Context, text, model string) ([]float64, error) {
	dim, ok := h.dims[model]
	if !ok || dim <= 0 {
		return nil, fmt.Errorf("unsupported embedding model: %s", model)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, dim)
	for _, token := range tokenize(text) {
		sum := xxhash.Sum64String(model + "\x00" + token)
		idx := sum % uint64(dim)
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

// Models returns the supported models
func (h *HashEmbedder) Models() []string {
	models := make([]string, 0, len(h.dims))
	for m := range h.dims {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
