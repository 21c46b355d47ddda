package nodes

import (
	"context"
	"fmt"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// dispatcher is the method set shared by the quantum, federated and
// neuromorphic backends.
type dispatcher interface {
	Dispatch(ctx context.Context, req ports.OperationRequest) (map[string]interface{}, error)
}

// Supported operations per dispatch kind. The first entry is the default.
var operations = map[string][]string{
	domain.KindQuantum:      {"simulate", "run_circuit", "optimize"},
	domain.KindFederated:    {"train_round", "aggregate", "evaluate"},
	domain.KindNeuromorphic: {"simulate", "deploy"},
}

// Operation forwards an operation-keyed request to a backend and treats the
// result as opaque.
type Operation struct {
	base
	operation string
	params    map[string]interface{}
	backend   dispatcher
}

type operationConfig struct {
	Operation string                 `mapstructure:"operation"`
	Params    map[string]interface{} `mapstructure:"params"`
	Critical  bool                   `mapstructure:"critical"`
}

func newOperationFactory(kind string, backend dispatcher) domain.Factory {
	allowed := operations[kind]
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := operationConfig{Operation: allowed[0]}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}
		if !contains(allowed, cfg.Operation) {
			return nil, domain.NewError(domain.KindInvalidConfig, id,
				"operation %q not supported by %s (allowed: %v)", cfg.Operation, kind, allowed)
		}
		if cfg.Params == nil {
			cfg.Params = map[string]interface{}{}
		}

		return &Operation{
			base: base{
				id:       id,
				kind:     kind,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:  []string{"text", "data"},
					Outputs: []string{"result", "metadata"},
				},
			},
			operation: cfg.Operation,
			params:    cfg.Params,
			backend:   backend,
		}, nil
	}
}

// NewQuantumFactory returns the quantum factory.
func NewQuantumFactory(b ports.QuantumBackend) domain.Factory {
	return newOperationFactory(domain.KindQuantum, b)
}

// NewFederatedFactory returns the federated factory.
func NewFederatedFactory(b ports.FederatedBackend) domain.Factory {
	return newOperationFactory(domain.KindFederated, b)
}

// NewNeuromorphicFactory returns the neuromorphic factory.
func NewNeuromorphicFactory(b ports.NeuromorphicBackend) domain.Factory {
	return newOperationFactory(domain.KindNeuromorphic, b)
}

// Execute dispatches the configured operation.
func (n *Operation) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	result, err := n.backend.Dispatch(ctx, ports.OperationRequest{
		Operation: n.operation,
		Params:    domain.Values(n.params).Clone(),
		Inputs:    in.Clone(),
	})
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}
	if result == nil {
		return nil, adapterFailure(n.id, fmt.Errorf("%s backend returned no result for %s", n.kind, n.operation))
	}

	return domain.Values{
		"result": result,
		"metadata": map[string]interface{}{
			"kind":      n.kind,
			"operation": n.operation,
		},
	}, nil
}
