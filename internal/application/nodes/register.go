package nodes

import (
	"github.com/aescanero/autogent/internal/application/registry"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// Labels used by the visual editor, mapped to kind tags.
var editorLabels = map[string]string{
	"Text Input":         domain.KindTextInput,
	"Input":              domain.KindTextInput,
	"AI Model":           domain.KindAIModel,
	"LLM":                domain.KindAIModel,
	"Chat":               domain.KindAIModel,
	"Text Processing":    domain.KindTextProcessing,
	"Text Processor":     domain.KindTextProcessing,
	"Embedding":          domain.KindEmbedding,
	"Embeddings":         domain.KindEmbedding,
	"Vector Search":      domain.KindVectorSearch,
	"Knowledge Base":     domain.KindVectorSearch,
	"Image Generation":   domain.KindImageGen,
	"Image Generator":    domain.KindImageGen,
	"Quantum":            domain.KindQuantum,
	"Quantum Computing":  domain.KindQuantum,
	"Federated":          domain.KindFederated,
	"Federated Learning": domain.KindFederated,
	"Neuromorphic":       domain.KindNeuromorphic,
	"Safety":             domain.KindSafety,
	"Safety Check":       domain.KindSafety,
	"Output":             domain.KindOutput,
	"Result":             domain.KindOutput,
}

// Register installs the built-in kinds on reg. Kinds backed by an adapter
// are only registered when bundle carries that adapter. It returns the
// registered tags in registration order.
func Register(reg *registry.Registry, bundle ports.Bundle) []string {
	var tags []string
	add := func(tag string, f domain.Factory) {
		reg.Register(tag, f)
		tags = append(tags, tag)
	}

	add(domain.KindTextInput, NewTextInput)
	add(domain.KindTextProcessing, NewTextProcessing)
	add(domain.KindOutput, NewOutput)

	if bundle.LLM != nil {
		add(domain.KindAIModel, NewAIModelFactory(bundle.LLM))
	}
	if bundle.Embedder != nil {
		add(domain.KindEmbedding, NewEmbeddingFactory(bundle.Embedder))
	}
	if bundle.Vectors != nil {
		add(domain.KindVectorSearch, NewVectorSearchFactory(bundle.Vectors))
	}
	if bundle.Images != nil {
		add(domain.KindImageGen, NewImageGenerationFactory(bundle.Images))
	}
	if bundle.Quantum != nil {
		add(domain.KindQuantum, NewQuantumFactory(bundle.Quantum))
	}
	if bundle.Federated != nil {
		add(domain.KindFederated, NewFederatedFactory(bundle.Federated))
	}
	if bundle.Neuromorphic != nil {
		add(domain.KindNeuromorphic, NewNeuromorphicFactory(bundle.Neuromorphic))
	}
	if bundle.Safety != nil {
		add(domain.KindSafety, NewSafetyFactory(bundle.Safety))
	}

	for label, tag := range editorLabels {
		reg.Alias(label, tag)
	}

	return tags
}
