// Package resolver turns raw driver values into typed domain entities. Each
// top-level call carries its own Cache so a node or relationship appearing in
// several rows of one result set inflates exactly once and every occurrence
// shares the same *Entity.
package resolver

import (
	"errors"
	"fmt"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/codec"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/graph"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/registry"
)

// Entity is a resolved node or relationship. Start and End are weak
// references to the resolved endpoints of a relationship; they are lookup
// results only and stay nil when the backend omitted endpoint detail.
type Entity struct {
	Model     *registry.RegisteredModel
	ElementID string
	ID        int64
	Fields    map[string]any

	Start *Entity
	End   *Entity
}

// Path is a resolved path: the contained nodes and relationships in path
// order, each entry shared with the cache.
type Path struct {
	Nodes         []*Entity
	Relationships []*Entity
}

// ModelResolveError reports a value that could not be resolved to a
// registered model, or whose inflation failed.
type ModelResolveError struct {
	Labels []string
	Type   string
	Err    error
}

func (e *ModelResolveError) Error() string {
	switch {
	case e.Type != "":
		return fmt.Sprintf("cannot resolve relationship type %q: %v", e.Type, e.reason())
	case len(e.Labels) > 0:
		return fmt.Sprintf("cannot resolve node labels %v: %v", e.Labels, e.reason())
	default:
		return fmt.Sprintf("cannot resolve entity: %v", e.reason())
	}
}

func (e *ModelResolveError) reason() any {
	if e.Err != nil {
		return e.Err
	}
	return "no model registered"
}

func (e *ModelResolveError) Unwrap() error { return e.Err }

// Cache holds the entities resolved during one top-level call, keyed by
// element identifier. It is never shared across calls.
type Cache struct {
	nodes         map[string]*Entity
	relationships map[string]*Entity
}

// NewCache creates an empty call-scoped cache.
func NewCache() *Cache {
	return &Cache{
		nodes:         make(map[string]*Entity),
		relationships: make(map[string]*Entity),
	}
}

// Node returns the cached node entity for an element identifier.
func (c *Cache) Node(elementID string) (*Entity, bool) {
	e, ok := c.nodes[elementID]
	return e, ok
}

// Relationship returns the cached relationship entity for an element
// identifier.
func (c *Cache) Relationship(elementID string) (*Entity, bool) {
	e, ok := c.relationships[elementID]
	return e, ok
}

// Inflater is the codec surface the resolver consumes. *codec.Codec
// implements it.
type Inflater interface {
	Inflate(raw map[string]any, shapes []registry.FieldShape) (map[string]any, error)
}

// Resolver converts graph values into entities using the model registry and
// the backend codec. It performs no I/O.
type Resolver struct {
	registry *registry.Registry
	codec    Inflater
}

// New creates a resolver.
func New(reg *registry.Registry, cd Inflater) *Resolver {
	return &Resolver{registry: reg, codec: cd}
}

// Resolve walks a raw value recursively. Containers are rebuilt with their
// elements resolved, graph entities become *Entity (or *Path), and plain
// primitives pass through unchanged.
func (r *Resolver) Resolve(v graph.Value, cache *Cache) (any, error) {
	switch v.Kind {
	case graph.KindPrimitive:
		return v.Primitive, nil
	case graph.KindList:
		out := make([]any, len(v.List))
		for i, el := range v.List {
			rv, err := r.Resolve(el, cache)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case graph.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, el := range v.Map {
			rv, err := r.Resolve(el, cache)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case graph.KindNode:
		return r.resolveNode(v.Node, cache)
	case graph.KindRelationship:
		return r.resolveRelationship(v.Relationship, cache)
	case graph.KindPath:
		return r.resolvePath(v.Path, cache)
	default:
		return nil, &ModelResolveError{Err: fmt.Errorf("unknown value kind %d", v.Kind)}
	}
}

func (r *Resolver) resolveNode(n *graph.Node, cache *Cache) (*Entity, error) {
	if hit, ok := cache.nodes[n.ElementID]; ok {
		return hit, nil
	}

	model, ok := r.registry.ResolveLabels(n.Labels)
	if !ok {
		return nil, &ModelResolveError{Labels: n.Labels}
	}

	fields, err := r.codec.Inflate(n.Props, model.Fields)
	if err != nil {
		return nil, normalizeErr(err, &ModelResolveError{Labels: n.Labels, Err: err})
	}

	entity := &Entity{
		Model:     model,
		ElementID: n.ElementID,
		ID:        n.ID,
		Fields:    fields,
	}
	cache.nodes[n.ElementID] = entity
	return entity, nil
}

func (r *Resolver) resolveRelationship(rel *graph.Relationship, cache *Cache) (*Entity, error) {
	if hit, ok := cache.relationships[rel.ElementID]; ok {
		return hit, nil
	}

	model, ok := r.registry.ResolveType(rel.Type)
	if !ok {
		return nil, &ModelResolveError{Type: rel.Type}
	}

	fields, err := r.codec.Inflate(rel.Props, model.Fields)
	if err != nil {
		return nil, normalizeErr(err, &ModelResolveError{Type: rel.Type, Err: err})
	}

	entity := &Entity{
		Model:     model,
		ElementID: rel.ElementID,
		ID:        rel.ID,
		Fields:    fields,
	}
	cache.relationships[rel.ElementID] = entity

	// Endpoint detail is attached when available. A backend that did not
	// explicitly match the endpoints omits it; that is not an error.
	if rel.Start != nil {
		if start, err := r.resolveNode(rel.Start, cache); err == nil {
			entity.Start = start
		} else {
			return nil, err
		}
	} else if start, ok := cache.nodes[rel.StartElementID]; ok {
		entity.Start = start
	}
	if rel.End != nil {
		if end, err := r.resolveNode(rel.End, cache); err == nil {
			entity.End = end
		} else {
			return nil, err
		}
	} else if end, ok := cache.nodes[rel.EndElementID]; ok {
		entity.End = end
	}

	return entity, nil
}

func (r *Resolver) resolvePath(p *graph.Path, cache *Cache) (*Path, error) {
	resolved := &Path{
		Nodes:         make([]*Entity, len(p.Nodes)),
		Relationships: make([]*Entity, len(p.Relationships)),
	}
	for i, n := range p.Nodes {
		entity, err := r.resolveNode(n, cache)
		if err != nil {
			return nil, normalizeErr(err, &ModelResolveError{Labels: n.Labels, Err: err})
		}
		resolved.Nodes[i] = entity
	}
	for i, rel := range p.Relationships {
		entity, err := r.resolveRelationship(rel, cache)
		if err != nil {
			return nil, normalizeErr(err, &ModelResolveError{Type: rel.Type, Err: err})
		}
		resolved.Relationships[i] = entity
	}
	return resolved, nil
}

// normalizeErr returns err unchanged when it already belongs to the domain
// error taxonomy, otherwise the supplied ModelResolveError wrapper.
func normalizeErr(err error, wrapped *ModelResolveError) error {
	var (
		resolveErr *ModelResolveError
		inflateErr *codec.InflationError
		storeErr   *codec.StorabilityError
	)
	if errors.As(err, &resolveErr) || errors.As(err, &inflateErr) || errors.As(err, &storeErr) {
		return err
	}
	return wrapped
}
