package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/autogent/internal/application/registry"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

type fakeLLM struct {
	last ports.ChatRequest
	err  error
}

func (f *fakeLLM) Generate(_ context.Context, req ports.ChatRequest) (*ports.ChatResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ChatResponse{Text: "echo: " + req.Messages[len(req.Messages)-1].Content, InputTokens: 3, OutputTokens: 4}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text, model string) ([]float64, error) {
	return []float64{float64(len(text)), 1, 0}, nil
}

func (fakeEmbedder) Models() []string { return []string{"tiny"} }

type fakeSearcher struct {
	results []ports.SearchResult
	last    ports.VectorQuery
}

func (f *fakeSearcher) Query(_ context.Context, q ports.VectorQuery) ([]ports.SearchResult, error) {
	f.last = q
	return f.results, nil
}

type fakeChecker struct {
	result *ports.SafetyResult
}

func (f fakeChecker) Check(context.Context, string, string, map[string]interface{}) (*ports.SafetyResult, error) {
	return f.result, nil
}

type fakeBackend struct {
	last ports.OperationRequest
}

func (f *fakeBackend) Dispatch(_ context.Context, req ports.OperationRequest) (map[string]interface{}, error) {
	f.last = req
	return map[string]interface{}{"status": "done"}, nil
}

func execute(t *testing.T, n domain.Node, in domain.Values) domain.Values {
	t.Helper()
	out, err := n.Execute(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestTextInput(t *testing.T) {
	n, err := NewTextInput("a", map[string]interface{}{"default_text": "hello"})
	require.NoError(t, err)

	assert.Equal(t, domain.Values{"text": "hello", "kind_tag": "text"}, execute(t, n, domain.Values{}))
	assert.Equal(t, "override", execute(t, n, domain.Values{"text": "override"})["text"])

	empty, err := NewTextInput("b", nil)
	require.NoError(t, err)
	assert.Equal(t, "", execute(t, empty, nil)["text"])
}

func TestTextProcessing_Operations(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]interface{}
		input  string
		port   string
		want   interface{}
	}{
		{"summarize", map[string]interface{}{"operation": "summarize", "max_length": 2}, "alpha beta gamma", "text", "alpha beta"},
		{"summarize short", map[string]interface{}{"operation": "summarize", "max_length": 5}, "hello", "text", "hello"},
		{"summarize keeps whitespace", map[string]interface{}{"operation": "summarize", "max_length": 2}, "alpha\n\nbeta   gamma", "text", "alpha\n\nbeta"},
		{"summarize leading space", map[string]interface{}{"operation": "summarize", "max_length": 1}, "  one two", "text", "  one"},
		{"split", map[string]interface{}{"operation": "split", "delimiter": ","}, "a, b,,c ", "chunks", []string{"a", "b", "c"}},
		{"passthrough", map[string]interface{}{}, "same", "text", "same"},
		{
			"keywords",
			map[string]interface{}{"operation": "extract_keywords"},
			"The Graph engine schedules graph nodes with their edges",
			"keywords",
			[]string{"graph", "engine", "schedules", "nodes", "edges"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewTextProcessing("p", tt.config)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.port}, n.Ports().Outputs)

			out := execute(t, n, domain.Values{"text": tt.input})
			assert.Equal(t, tt.want, out[tt.port])
		})
	}
}

func TestTextProcessing_KeywordCap(t *testing.T) {
	text := "alpha bravo charlie delta foxtrot golf hotel india juliet kilo lima mike"
	assert.Len(t, extractKeywords(text), maxKeywords)
}

func TestTextProcessing_InvalidConfig(t *testing.T) {
	_, err := NewTextProcessing("p", map[string]interface{}{"operation": "translate"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "operation")

	_, err = NewTextProcessing("p", map[string]interface{}{"operation": "summarize", "max_length": 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestAIModel(t *testing.T) {
	llm := &fakeLLM{}
	n, err := NewAIModelFactory(llm)("m", map[string]interface{}{
		"provider":      "anthropic",
		"system_prompt": "be brief",
		"temperature":   "0.2",
	})
	require.NoError(t, err)

	out := execute(t, n, domain.Values{"text": "hi"})
	assert.Equal(t, "echo: hi", out["text"])
	assert.Equal(t, "claude-3-5-sonnet-20241022", out["metadata"].(map[string]interface{})["model"])

	require.Len(t, llm.last.Messages, 2)
	assert.Equal(t, ports.RoleSystem, llm.last.Messages[0].Role)
	assert.InDelta(t, 0.2, llm.last.Temperature, 1e-9)
	assert.Equal(t, 1024, llm.last.MaxTokens)
}

func TestAIModel_Errors(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	factory := NewAIModelFactory(llm)

	_, err := factory("m", map[string]interface{}{"temperature": 3})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	_, err = factory("m", map[string]interface{}{"max_tokens": 40000})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	n, err := factory("m", nil)
	require.NoError(t, err)

	_, err = n.Execute(context.Background(), domain.Values{"text": "  "})
	assert.True(t, errors.Is(err, domain.ErrMissingInput))

	_, err = n.Execute(context.Background(), domain.Values{"text": "hi"})
	assert.True(t, errors.Is(err, domain.ErrAdapterFailure))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEmbedding(t *testing.T) {
	factory := NewEmbeddingFactory(fakeEmbedder{})

	_, err := factory("e", map[string]interface{}{"model": "huge"})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	n, err := factory("e", map[string]interface{}{"model": "tiny"})
	require.NoError(t, err)

	a := execute(t, n, domain.Values{"text": "short"})
	b := execute(t, n, domain.Values{"text": "a much longer text"})
	assert.Len(t, b["embedding"], len(a["embedding"].([]float64)))
	assert.Equal(t, "short", a["text"])
	assert.Equal(t, 3, a["metadata"].(map[string]interface{})["dimension"])
}

func TestVectorSearch_SortsAndTruncates(t *testing.T) {
	s := &fakeSearcher{results: []ports.SearchResult{
		{ID: "low", Score: 0.1},
		{ID: "high", Score: 0.9},
		{ID: "mid", Score: 0.5},
	}}
	n, err := NewVectorSearchFactory(s)("v", map[string]interface{}{"top_k": 2, "knowledge_base_id": "kb"})
	require.NoError(t, err)

	out := execute(t, n, domain.Values{"embedding": []interface{}{1.0, 2, int64(3)}})
	results := out["search_results"].([]ports.SearchResult)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.Equal(t, "mid", results[1].ID)
	assert.Equal(t, []float64{1, 2, 3}, s.last.Vector)
	assert.Equal(t, "kb", s.last.KnowledgeBaseID)

	_, err = NewVectorSearchFactory(s)("v", map[string]interface{}{"top_k": 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestOperation_DispatchAndValidation(t *testing.T) {
	b := &fakeBackend{}
	n, err := NewQuantumFactory(b)("q", map[string]interface{}{
		"operation": "run_circuit",
		"params":    map[string]interface{}{"qubits": 4},
	})
	require.NoError(t, err)

	out := execute(t, n, domain.Values{"text": "bell"})
	assert.Equal(t, map[string]interface{}{"status": "done"}, out["result"])
	assert.Equal(t, "run_circuit", b.last.Operation)
	assert.Equal(t, "bell", b.last.Inputs["text"])

	b.last.Params["qubits"] = 99
	again := execute(t, n, domain.Values{"text": "bell"})
	assert.NotNil(t, again["result"])
	assert.Equal(t, 4, b.last.Params["qubits"])

	_, err = NewFederatedFactory(b)("f", map[string]interface{}{"operation": "run_circuit"})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestSafety_BlockOnViolation(t *testing.T) {
	blocking := fakeChecker{result: &ports.SafetyResult{Verdict: ports.VerdictBlock, Blocking: true}}

	n, err := NewSafetyFactory(blocking)("s", map[string]interface{}{"block_on_violation": true})
	require.NoError(t, err)
	_, err = n.Execute(context.Background(), domain.Values{"text": "bad"})
	assert.True(t, errors.Is(err, domain.ErrSafetyViolation))

	lenient, err := NewSafetyFactory(blocking)("s", nil)
	require.NoError(t, err)
	out := execute(t, lenient, domain.Values{"text": "bad"})
	assert.Equal(t, ports.VerdictBlock, out["verdict"])
	assert.Equal(t, "bad", out["text"])
}

func TestOutput_Formats(t *testing.T) {
	text, err := NewOutput("o", map[string]interface{}{"format": "text"})
	require.NoError(t, err)
	assert.Equal(t, domain.Values{"output": "hello", "format": "text"}, execute(t, text, domain.Values{"text": "hello"}))
	assert.Equal(t, "a: 1\nb: x", execute(t, text, domain.Values{"b": "x", "a": 1})["output"])

	js, err := NewOutput("o", map[string]interface{}{"format": "json"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, execute(t, js, domain.Values{"a": 1})["output"].(string))

	structured, err := NewOutput("o", map[string]interface{}{"format": "structured", "primary": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1}, execute(t, structured, domain.Values{"a": 1})["output"])
	assert.True(t, structured.(domain.PrimarySink).Primary())

	_, err = NewOutput("o", map[string]interface{}{"format": "xml"})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestRegister_OnlyAvailableKinds(t *testing.T) {
	reg := registry.New()
	tags := Register(reg, ports.Bundle{LLM: &fakeLLM{}})

	assert.ElementsMatch(t, []string{"text_input", "text_processing", "output", "ai_model"}, tags)

	_, err := reg.Create("vector_search", "v", nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownKind))

	tag, ok := reg.Resolve("AI Model")
	require.True(t, ok)
	assert.Equal(t, domain.KindAIModel, tag)

	_, ok = reg.Resolve("Vector Search")
	assert.False(t, ok)
}

func TestCriticalFlag(t *testing.T) {
	n, err := NewTextProcessing("p", map[string]interface{}{"critical": true})
	require.NoError(t, err)
	assert.True(t, n.(domain.CriticalNode).Critical())
}
