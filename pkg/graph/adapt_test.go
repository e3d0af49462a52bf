package graph

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRawNode(t *testing.T) {
	t.Parallel()

	v := FromRaw(dbtype.Node{
		Id:        1,
		ElementId: "4:abc:1",
		Labels:    []string{"Person"},
		Props:     map[string]any{"name": "Alice"},
	})

	require.Equal(t, KindNode, v.Kind)
	assert.Equal(t, "4:abc:1", v.Node.ElementID)
	assert.Equal(t, int64(1), v.Node.ID)
	assert.Equal(t, []string{"Person"}, v.Node.Labels)
	assert.Equal(t, "Alice", v.Node.Props["name"])
}

func TestFromRawRelationship(t *testing.T) {
	t.Parallel()

	v := FromRaw(dbtype.Relationship{
		Id:             7,
		ElementId:      "5:abc:7",
		StartElementId: "4:abc:1",
		EndElementId:   "4:abc:2",
		Type:           "KNOWS",
		Props:          map[string]any{"since": int64(2020)},
	})

	require.Equal(t, KindRelationship, v.Kind)
	assert.Equal(t, "KNOWS", v.Relationship.Type)
	assert.Equal(t, "4:abc:1", v.Relationship.StartElementID)
	assert.Equal(t, "4:abc:2", v.Relationship.EndElementID)
	// Endpoint detail is not part of a bare relationship value.
	assert.Nil(t, v.Relationship.Start)
	assert.Nil(t, v.Relationship.End)
}

func TestFromRawPathAttachesEndpoints(t *testing.T) {
	t.Parallel()

	alice := dbtype.Node{Id: 1, ElementId: "4:abc:1", Labels: []string{"Person"}}
	bob := dbtype.Node{Id: 2, ElementId: "4:abc:2", Labels: []string{"Person"}}
	v := FromRaw(dbtype.Path{
		Nodes: []dbtype.Node{alice, bob},
		Relationships: []dbtype.Relationship{{
			Id:             7,
			ElementId:      "5:abc:7",
			StartElementId: "4:abc:1",
			EndElementId:   "4:abc:2",
			Type:           "KNOWS",
		}},
	})

	require.Equal(t, KindPath, v.Kind)
	require.Len(t, v.Path.Nodes, 2)
	require.Len(t, v.Path.Relationships, 1)
	assert.Same(t, v.Path.Nodes[0], v.Path.Relationships[0].Start)
	assert.Same(t, v.Path.Nodes[1], v.Path.Relationships[0].End)
}

func TestFromRawContainers(t *testing.T) {
	t.Parallel()

	v := FromRaw([]any{
		int64(1),
		map[string]any{"n": dbtype.Node{ElementId: "4:abc:1"}},
	})

	require.Equal(t, KindList, v.Kind)
	require.Len(t, v.List, 2)
	assert.Equal(t, KindPrimitive, v.List[0].Kind)
	require.Equal(t, KindMap, v.List[1].Kind)
	assert.Equal(t, KindNode, v.List[1].Map["n"].Kind)
}

func TestFromRawPrimitiveFallback(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{nil, "x", int64(3), 1.5, true, []byte{0x1}} {
		v := FromRaw(raw)
		assert.Equal(t, KindPrimitive, v.Kind)
		assert.Equal(t, raw, v.Primitive)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "node", KindNode.String())
	assert.Equal(t, "path", KindPath.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
