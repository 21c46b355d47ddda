// Package engine is the library entry point of the workflow orchestrator.
//
// An Engine is constructed with a bundle of external adapters. Kinds whose
// adapter is absent from the bundle are not registered, so descriptions
// using them fail to load with UnknownKind.
//
//	eng := engine.New(ports.Bundle{LLM: llm}, engine.WithLogger(logger))
//	desc, _ := domain.ParseDescription(doc)
//	report, err := eng.Run(ctx, desc, domain.Values{"text": "hello"}, domain.Options{})
package engine

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/executor"
	"github.com/aescanero/autogent/internal/application/loader"
	"github.com/aescanero/autogent/internal/application/nodes"
	"github.com/aescanero/autogent/internal/application/registry"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// Engine loads and executes workflows. It is safe for concurrent use;
// each run owns its own output store.
type Engine struct {
	registry *registry.Registry
	loader   *loader.Loader
	executor *executor.Executor
	logger   *zap.Logger
	sequence atomic.Uint64
}

type settings struct {
	logger   *zap.Logger
	metrics  ports.MetricsCollector
	eventBus ports.EventBus
}

// Option configures an Engine.
type Option func(*settings)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m ports.MetricsCollector) Option {
	return func(s *settings) { s.metrics = m }
}

// WithEventBus publishes run and node lifecycle events on b.
func WithEventBus(b ports.EventBus) Option {
	return func(s *settings) { s.eventBus = b }
}

// New creates an engine with the built-in kinds available for bundle.
func New(bundle ports.Bundle, opts ...Option) *Engine {
	s := settings{logger: zap.NewNop(), metrics: ports.NopMetrics{}}
	for _, opt := range opts {
		opt(&s)
	}

	reg := registry.New()
	kinds := nodes.Register(reg, bundle)
	s.logger.Debug("node kinds registered", zap.Strings("kinds", kinds))

	return &Engine{
		registry: reg,
		loader:   loader.New(reg, s.logger),
		executor: executor.New(s.logger, s.metrics, s.eventBus),
		logger:   s.logger,
	}
}

// RegisterKind adds or replaces a node kind. It reports whether an
// existing kind was replaced.
func (e *Engine) RegisterKind(tag string, factory domain.Factory) bool {
	replaced := e.registry.Register(tag, factory)
	if replaced {
		e.logger.Info("node kind replaced", zap.String("kind", tag))
	}
	return replaced
}

// Alias maps an editor label to a kind tag.
func (e *Engine) Alias(label, tag string) {
	e.registry.Alias(label, tag)
}

// Kinds returns the registered kind tags.
func (e *Engine) Kinds() []string {
	return e.registry.Kinds()
}

// Aliases returns the label alias table.
func (e *Engine) Aliases() map[string]string {
	return e.registry.Aliases()
}

// Load validates desc and builds its graph.
func (e *Engine) Load(desc *domain.Description) (*domain.Graph, error) {
	return e.loader.Load(desc)
}

// Execute runs a loaded graph. Node failures are reported in the returned
// report; an error means the graph could not be scheduled.
func (e *Engine) Execute(ctx context.Context, g *domain.Graph, inputs domain.Values, opts domain.Options) (*domain.RunReport, error) {
	seq := e.sequence.Add(1)
	report, err := e.executor.Execute(ctx, g, inputs, opts)
	if err != nil {
		return nil, err
	}
	report.Sequence = seq
	return report, nil
}

// Run loads desc and executes it.
func (e *Engine) Run(ctx context.Context, desc *domain.Description, inputs domain.Values, opts domain.Options) (*domain.RunReport, error) {
	g, err := e.Load(desc)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, g, inputs, opts)
}
