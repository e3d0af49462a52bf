// Package registry maps graph entities back to the models registered for
// them. Node models are identified by their label set (order-insensitive),
// relationship models by their literal type string.
package registry

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
)

// ModelKind distinguishes node models from relationship models.
type ModelKind int

const (
	ModelNode ModelKind = iota
	ModelRelationship
)

func (k ModelKind) String() string {
	if k == ModelRelationship {
		return "relationship"
	}
	return "node"
}

// FieldShape describes one field of a model as the codec needs to see it.
type FieldShape struct {
	Name         string
	IsCollection bool
	IsNested     bool
}

// FieldOption is declarative per-field metadata attached at model-definition
// time. The registry stores it untouched; the DDL layer consumes it when
// generating indexes and constraints.
type FieldOption struct {
	Field   string
	Indexed bool
	Unique  bool
	Default any
}

// Model is the caller-supplied model definition.
type Model struct {
	Name    string
	Kind    ModelKind
	Labels  []string // node models
	Type    string   // relationship models
	Fields  []FieldShape
	Options []FieldOption
}

// RegisteredModel is a Model the registry accepted, annotated with its
// identity hash. It lives for the process lifetime.
type RegisteredModel struct {
	Model
	Hash uint64
}

// DuplicateModelError reports a registration whose identity hash collides
// with an already registered model of a different name.
type DuplicateModelError struct {
	Existing string
	Incoming string
	Hash     uint64
}

func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("model %q collides with already registered model %q (hash %#x)", e.Incoming, e.Existing, e.Hash)
}

// Registry holds all registered models. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[uint64]*RegisteredModel
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{models: make(map[uint64]*RegisteredModel)}
}

// HashLabels computes the identity hash for a node label set. The labels are
// sorted first so label order never affects identity.
func HashLabels(labels []string) uint64 {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)
	h := fnv.New64a()
	h.Write([]byte(strings.Join(sorted, "|")))
	return h.Sum64()
}

// HashType computes the identity hash for a relationship type string.
func HashType(relType string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(relType))
	return h.Sum64()
}

func hashFor(m Model) uint64 {
	if m.Kind == ModelRelationship {
		return HashType(m.Type)
	}
	return HashLabels(m.Labels)
}

// Register adds a model. Registering the same model name under the same hash
// again is a no-op; a different model under an existing hash is rejected
// with a DuplicateModelError naming both models.
func (r *Registry) Register(m Model) (*RegisteredModel, error) {
	hash := hashFor(m)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.models[hash]; ok {
		if existing.Name == m.Name {
			return existing, nil
		}
		return nil, &DuplicateModelError{Existing: existing.Name, Incoming: m.Name, Hash: hash}
	}

	reg := &RegisteredModel{Model: m, Hash: hash}
	r.models[hash] = reg
	return reg, nil
}

// Resolve looks up the model registered under hash.
func (r *Registry) Resolve(hash uint64) (*RegisteredModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[hash]
	return m, ok
}

// ResolveLabels looks up the node model registered for a label set.
func (r *Registry) ResolveLabels(labels []string) (*RegisteredModel, bool) {
	return r.Resolve(HashLabels(labels))
}

// ResolveType looks up the relationship model registered for a type string.
func (r *Registry) ResolveType(relType string) (*RegisteredModel, bool) {
	return r.Resolve(HashType(relType))
}

// Models returns all registered models, for diagnostics and DDL generation.
func (r *Registry) Models() []*RegisteredModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RegisteredModel, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
