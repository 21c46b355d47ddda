package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(nil)

	a, err := e.Embed(context.Background(), "The quick brown fox", "hash-256")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the QUICK, brown fox!", "hash-256")
	require.NoError(t, err)

	assert.Len(t, a, 256)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestHashEmbedder_FixedDimensionPerModel(t *testing.T) {
	e := NewHashEmbedder(nil)

	short, err := e.Embed(context.Background(), "a", "text-embedding-3-small")
	require.NoError(t, err)
	long, err := e.Embed(context.Background(), "a much longer piece of text", "text-embedding-3-small")
	require.NoError(t, err)
	assert.Len(t, short, 1536)
	assert.Len(t, long, 1536)

	empty, err := e.Embed(context.Background(), "", "hash-256")
	require.NoError(t, err)
	assert.Len(t, empty, 256)

	_, err = e.Embed(context.Background(), "x", "unknown")
	assert.Error(t, err)
	assert.Contains(t, e.Models(), "text-embedding-3-large")
}

type fakeEmbeddingClient struct {
	out [][]float32
	err error
}

func (f fakeEmbeddingClient) CreateEmbedding(context.Context, []string) ([][]float32, error) {
	return f.out, f.err
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	e := newOpenAIEmbedder(map[string]embeddingClient{
		"text-embedding-3-small": fakeEmbeddingClient{out: [][]float32{{0.5, -0.25}}},
		"broken":                 fakeEmbeddingClient{err: errors.New("quota")},
	}, nil)

	vec, err := e.Embed(context.Background(), "hi", "text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.25}, vec)

	_, err = e.Embed(context.Background(), "hi", "broken")
	assert.ErrorContains(t, err, "quota")

	_, err = e.Embed(context.Background(), "hi", "missing")
	assert.Error(t, err)

	assert.Equal(t, []string{"broken", "text-embedding-3-small"}, e.Models())
}
