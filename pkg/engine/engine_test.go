package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

func parse(t *testing.T, doc string) *domain.Description {
	t.Helper()
	desc, err := domain.ParseDescription([]byte(doc))
	require.NoError(t, err)
	return desc
}

const yamlWorkflow = `
nodes:
  A:
    kind: text_input
    config:
      default_text: hello
  B:
    kind: Text Processing
    config:
      operation: summarize
      max_length: 1
  C:
    kind: output
    config:
      format: text
edges:
  - from: [A, text]
    to: [B, text]
  - from: [B, text]
    to: [C, text]
`

func TestEngine_RunYAMLWithAlias(t *testing.T) {
	eng := New(ports.Bundle{})

	report, err := eng.Run(context.Background(), parse(t, yamlWorkflow), nil, domain.Options{})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, "text_processing", report.Nodes["B"].Kind)
	assert.Equal(t, domain.Values{"output": "hello", "format": "text"}, report.FinalOutput)
}

func TestEngine_CycleRejected(t *testing.T) {
	eng := New(ports.Bundle{})
	desc := parse(t, `{
	  "nodes": {"A": {"kind": "text_processing"}, "B": {"kind": "text_processing"}},
	  "edges": [
	    {"from": ["A", "text"], "to": ["B", "text"]},
	    {"from": ["B", "text"], "to": ["A", "text"]}
	  ]
	}`)

	_, err := eng.Load(desc)
	assert.True(t, errors.Is(err, domain.ErrGraphHasCycle))

	report, err := eng.Run(context.Background(), desc, nil, domain.Options{})
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, domain.ErrGraphHasCycle))
}

func TestEngine_DuplicateEdgeTarget(t *testing.T) {
	eng := New(ports.Bundle{})
	desc := parse(t, `{
	  "nodes": {
	    "A": {"kind": "text_input"},
	    "B": {"kind": "text_input"},
	    "C": {"kind": "output"}
	  },
	  "edges": [
	    {"from": ["A", "text"], "to": ["C", "text"]},
	    {"from": ["B", "text"], "to": ["C", "text"]}
	  ]
	}`)

	_, err := eng.Load(desc)
	require.Error(t, err)
	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindDuplicateEdgeTarget, e.Kind)
	assert.Equal(t, "C", e.NodeID)
	assert.Equal(t, "text", e.Port)
}

func TestEngine_MissingAdapterMeansUnknownKind(t *testing.T) {
	eng := New(ports.Bundle{})
	assert.NotContains(t, eng.Kinds(), "ai_model")

	_, err := eng.Load(parse(t, `{"nodes": {"M": {"kind": "ai_model"}}, "edges": []}`))
	assert.True(t, errors.Is(err, domain.ErrUnknownKind))
}

type upper struct{ id string }

func (u upper) ID() string { return u.id }

func (u upper) Kind() string { return "upper" }

func (u upper) Ports() domain.Ports {
	return domain.Ports{Inputs: []string{"text"}, Required: []string{"text"}, Outputs: []string{"text"}}
}

func (u upper) Execute(_ context.Context, in domain.Values) (domain.Values, error) {
	return domain.Values{"text": strings.ToUpper(in["text"].(string))}, nil
}

func TestEngine_RegisterKind(t *testing.T) {
	eng := New(ports.Bundle{})
	assert.False(t, eng.RegisterKind("upper", func(id string, _ map[string]interface{}) (domain.Node, error) {
		return upper{id: id}, nil
	}))
	eng.Alias("Shout", "upper")

	report, err := eng.Run(context.Background(), parse(t, `{
	  "nodes": {
	    "in": {"kind": "text_input"},
	    "up": {"kind": "shout"},
	    "out": {"kind": "output"}
	  },
	  "edges": [
	    {"from": ["in", "text"], "to": ["up", "text"]},
	    {"from": ["up", "text"], "to": ["out", "text"]}
	  ]
	}`), domain.Values{"text": "quiet"}, domain.Options{})
	require.NoError(t, err)
	assert.Equal(t, "QUIET", report.FinalOutput["output"])
}

func TestEngine_SequenceIncreases(t *testing.T) {
	eng := New(ports.Bundle{})
	g, err := eng.Load(parse(t, yamlWorkflow))
	require.NoError(t, err)

	first, err := eng.Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)
	second, err := eng.Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	assert.Less(t, first.Sequence, second.Sequence)
	assert.NotEqual(t, first.RunID, second.RunID)
}
