package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// FromRaw converts a raw driver value into the tagged union. Anything that is
// not a graph entity or a container is passed through as a primitive; the
// codec decides later whether it is storable.
func FromRaw(v any) Value {
	switch tv := v.(type) {
	case dbtype.Node:
		return NodeValue(fromDBNode(tv))
	case dbtype.Relationship:
		return RelationshipValue(fromDBRelationship(tv))
	case dbtype.Path:
		return PathValue(fromDBPath(tv))
	case []any:
		list := make([]Value, len(tv))
		for i, el := range tv {
			list[i] = FromRaw(el)
		}
		return Value{Kind: KindList, List: list}
	case map[string]any:
		m := make(map[string]Value, len(tv))
		for k, el := range tv {
			m[k] = FromRaw(el)
		}
		return Value{Kind: KindMap, Map: m}
	default:
		return Primitive(v)
	}
}

func fromDBNode(n dbtype.Node) *Node {
	return &Node{
		ElementID: n.ElementId,
		ID:        n.Id,
		Labels:    n.Labels,
		Props:     n.Props,
	}
}

func fromDBRelationship(r dbtype.Relationship) *Relationship {
	return &Relationship{
		ElementID:      r.ElementId,
		ID:             r.Id,
		Type:           r.Type,
		Props:          r.Props,
		StartElementID: r.StartElementId,
		EndElementID:   r.EndElementId,
	}
}

func fromDBPath(p dbtype.Path) *Path {
	path := &Path{
		Nodes:         make([]*Node, len(p.Nodes)),
		Relationships: make([]*Relationship, len(p.Relationships)),
	}
	for i, n := range p.Nodes {
		path.Nodes[i] = fromDBNode(n)
	}
	for i, r := range p.Relationships {
		rel := fromDBRelationship(r)
		// A path carries full endpoint detail, so attach it.
		for _, n := range path.Nodes {
			if n.ElementID == rel.StartElementID {
				rel.Start = n
			}
			if n.ElementID == rel.EndElementID {
				rel.End = n
			}
		}
		path.Relationships[i] = rel
	}
	return path
}
