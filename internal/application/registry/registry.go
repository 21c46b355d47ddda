// Package registry maps node kind tags to the factories that build them.
//
// The registry is the single source of truth for node kinds. External
// editor labels ("AI Model", "Vector Search", ...) are resolved through an
// explicit alias table rather than inside the executor.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/aescanero/autogent/pkg/domain"
)

// Registry holds kind factories and label aliases.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]domain.Factory
	aliases   map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]domain.Factory),
		aliases:   make(map[string]string),
	}
}

// Register adds a factory for tag. Registering a tag twice replaces the
// previous factory; the return value reports whether one was replaced.
func (r *Registry) Register(tag string, factory domain.Factory) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.factories[tag]
	r.factories[tag] = factory
	return replaced
}

// Alias maps an external label to a registered tag. Labels are matched
// case-insensitively with surrounding whitespace ignored.
func (r *Registry) Alias(label, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.aliases[normalizeLabel(label)] = tag
}

// Resolve returns the tag for a kind or label. Registered tags win over
// aliases.
func (r *Registry) Resolve(kindOrLabel string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.factories[kindOrLabel]; ok {
		return kindOrLabel, true
	}
	tag, ok := r.aliases[normalizeLabel(kindOrLabel)]
	if !ok {
		return "", false
	}
	_, registered := r.factories[tag]
	return tag, registered
}

// Create builds a node. It fails with UnknownKind when the tag cannot be
// resolved and with InvalidConfig when the factory rejects the config.
func (r *Registry) Create(tag, id string, config map[string]interface{}) (domain.Node, error) {
	resolved, ok := r.Resolve(tag)
	if !ok {
		return nil, &domain.Error{
			Kind:    domain.KindUnknownKind,
			NodeID:  id,
			Message: "node kind not registered: " + tag,
		}
	}

	r.mu.RLock()
	factory := r.factories[resolved]
	r.mu.RUnlock()

	if config == nil {
		config = map[string]interface{}{}
	}

	node, err := factory(id, config)
	if err != nil {
		if e, ok := domain.AsError(err); ok {
			if e.NodeID != "" {
				return nil, e
			}
			// Factories may return shared sentinels; annotate a copy.
			annotated := *e
			annotated.NodeID = id
			return nil, &annotated
		}
		return nil, &domain.Error{Kind: domain.KindInvalidConfig, NodeID: id, Err: err}
	}
	return node, nil
}

// Kinds returns registered tags in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
