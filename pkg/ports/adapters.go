// Package ports declares the narrow interfaces the orchestrator consumes:
// external capability adapters, the event bus, report storage and metrics.
package ports

import "context"

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the input to LLMChat.Generate.
type ChatRequest struct {
	Provider    string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the output of LLMChat.Generate.
type ChatResponse struct {
	Text         string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
}

// LLMChat generates a completion for a message exchange. Retries are the
// implementation's concern.
type LLMChat interface {
	Generate(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Embedder maps text to a vector whose length is fixed per model.
type Embedder interface {
	Embed(ctx context.Context, text, model string) ([]float64, error)
}

// ImageRequest is the input to ImageGenerator.Generate.
type ImageRequest struct {
	Prompt   string
	Provider string
	Model    string
	Size     string
	Style    string
}

// ImageGenerator produces an image and returns where it can be fetched.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

// VectorQuery is the input to VectorSearcher.Query.
type VectorQuery struct {
	Vector          []float64
	TopK            int
	KnowledgeBaseID string
	Filter          map[string]interface{}
}

// SearchResult is one vector search hit.
type SearchResult struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// VectorSearcher returns at most TopK hits sorted by descending score.
type VectorSearcher interface {
	Query(ctx context.Context, q VectorQuery) ([]SearchResult, error)
}

// OperationRequest is an operation-keyed call used by the quantum, federated
// and neuromorphic backends.
type OperationRequest struct {
	Operation string
	Params    map[string]interface{}
	Inputs    map[string]interface{}
}

// QuantumBackend runs quantum jobs.
type QuantumBackend interface {
	Dispatch(ctx context.Context, req OperationRequest) (map[string]interface{}, error)
}

// FederatedBackend runs federated learning rounds and aggregation.
type FederatedBackend interface {
	Dispatch(ctx context.Context, req OperationRequest) (map[string]interface{}, error)
}

// NeuromorphicBackend deploys and simulates spiking networks.
type NeuromorphicBackend interface {
	Dispatch(ctx context.Context, req OperationRequest) (map[string]interface{}, error)
}

// Safety verdicts.
const (
	VerdictAllow = "allow"
	VerdictWarn  = "warn"
	VerdictBlock = "block"
)

// SafetyResult is returned by SafetyChecker.Check. Blocking is true when
// the verdict forbids the content.
type SafetyResult struct {
	Verdict  string
	Blocking bool
	Details  map[string]interface{}
}

// SafetyChecker evaluates text against a safety protocol.
type SafetyChecker interface {
	Check(ctx context.Context, operation, text string, params map[string]interface{}) (*SafetyResult, error)
}

// Bundle is the set of adapters an engine is constructed with. A nil
// adapter makes its node kind unavailable.
type Bundle struct {
	LLM          LLMChat
	Embedder     Embedder
	Images       ImageGenerator
	Vectors      VectorSearcher
	Quantum      QuantumBackend
	Federated    FederatedBackend
	Neuromorphic NeuromorphicBackend
	Safety       SafetyChecker
}
