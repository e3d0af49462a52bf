// Package graph defines the value model the resolver operates on. Raw driver
// values are converted into a closed tagged union at the adapter boundary so
// downstream code can switch exhaustively on Kind instead of type-asserting
// its way through driver internals.
package graph

// Kind discriminates the variants of Value.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNode
	KindRelationship
	KindPath
	KindList
	KindMap
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindNode:
		return "node"
	case KindRelationship:
		return "relationship"
	case KindPath:
		return "path"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a single driver-returned value. Exactly one of the variant fields
// is populated, selected by Kind.
type Value struct {
	Kind Kind

	Primitive    any
	Node         *Node
	Relationship *Relationship
	Path         *Path
	List         []Value
	Map          map[string]Value
}

// Node is a raw graph node as returned by the driver.
type Node struct {
	ElementID string
	ID        int64
	Labels    []string
	Props     map[string]any
}

// Relationship is a raw graph relationship. Start and End carry full node
// detail only when the query explicitly returned the endpoints (paths do);
// the element identifiers are always present.
type Relationship struct {
	ElementID      string
	ID             int64
	Type           string
	Props          map[string]any
	StartElementID string
	EndElementID   string
	Start          *Node
	End            *Node
}

// Path is an ordered alternating sequence of nodes and relationships.
type Path struct {
	Nodes         []*Node
	Relationships []*Relationship
}

// Primitive wraps v as a primitive Value.
func Primitive(v any) Value {
	return Value{Kind: KindPrimitive, Primitive: v}
}

// NodeValue wraps n as a node Value.
func NodeValue(n *Node) Value {
	return Value{Kind: KindNode, Node: n}
}

// RelationshipValue wraps r as a relationship Value.
func RelationshipValue(r *Relationship) Value {
	return Value{Kind: KindRelationship, Relationship: r}
}

// PathValue wraps p as a path Value.
func PathValue(p *Path) Value {
	return Value{Kind: KindPath, Path: p}
}
