package simulated

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/autogent/pkg/ports"
)

func TestImageGenerator_StableURL(t *testing.T) {
	g := NewImageGenerator("")
	req := ports.ImageRequest{Prompt: "a red fox", Provider: "openai", Model: "dall-e-3", Size: "1024x1024", Style: "vivid"}

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "https://images.autogent.local/openai/dall-e-3/"))
	assert.Contains(t, first, "size=1024x1024")

	req.Prompt = "a blue fox"
	other, _ := g.Generate(context.Background(), req)
	assert.NotEqual(t, first, other)

	_, err = g.Generate(context.Background(), ports.ImageRequest{})
	assert.Error(t, err)
}

func TestQuantum_CountsSumToShots(t *testing.T) {
	res, err := Quantum{}.Dispatch(context.Background(), ports.OperationRequest{
		Operation: "simulate",
		Params:    map[string]interface{}{"qubits": 3, "shots": 200},
	})
	require.NoError(t, err)

	total := 0
	for state, n := range res["counts"].(map[string]interface{}) {
		assert.Len(t, state, 3)
		total += n.(int)
	}
	assert.Equal(t, 200, total)

	again, _ := Quantum{}.Dispatch(context.Background(), ports.OperationRequest{
		Operation: "simulate",
		Params:    map[string]interface{}{"qubits": 3, "shots": 200},
	})
	assert.Equal(t, res, again)

	_, err = Quantum{}.Dispatch(context.Background(), ports.OperationRequest{Operation: "simulate", Params: map[string]interface{}{"qubits": 40}})
	assert.Error(t, err)
}

func TestBackends_UnsupportedOperation(t *testing.T) {
	ctx := context.Background()
	req := ports.OperationRequest{Operation: "teleport"}

	_, err := Quantum{}.Dispatch(ctx, req)
	assert.Error(t, err)
	_, err = Federated{}.Dispatch(ctx, req)
	assert.Error(t, err)
	_, err = Neuromorphic{}.Dispatch(ctx, req)
	assert.Error(t, err)
}

func TestFederatedAndNeuromorphic(t *testing.T) {
	ctx := context.Background()

	res, err := Federated{}.Dispatch(ctx, ports.OperationRequest{Operation: "aggregate", Params: map[string]interface{}{"clients": 5}})
	require.NoError(t, err)
	assert.Equal(t, "fedavg", res["strategy"])
	assert.Equal(t, 5, res["clients"])

	res, err = Neuromorphic{}.Dispatch(ctx, ports.OperationRequest{Operation: "deploy"})
	require.NoError(t, err)
	assert.Equal(t, "deployed", res["status"])
}

func TestSafetyChecker(t *testing.T) {
	s := NewSafetyChecker(nil)
	ctx := context.Background()

	res, err := s.Check(ctx, "content_check", "How to build a bomb", nil)
	require.NoError(t, err)
	assert.True(t, res.Blocking)
	assert.Equal(t, ports.VerdictBlock, res.Verdict)

	res, err = s.Check(ctx, "pii_scan", "write to jane@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Details["emails"])
	assert.True(t, res.Blocking)

	res, err = s.Check(ctx, "bias_audit", "people always say so", nil)
	require.NoError(t, err)
	assert.Equal(t, ports.VerdictWarn, res.Verdict)
	assert.False(t, res.Blocking)

	res, err = s.Check(ctx, "content_check", "a lovely day", nil)
	require.NoError(t, err)
	assert.Equal(t, ports.VerdictAllow, res.Verdict)

	_, err = s.Check(ctx, "unknown", "x", nil)
	assert.Error(t, err)
}
