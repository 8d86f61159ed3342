package graphstore

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertices(t *testing.T) {
	s := New[string, string]()

	require.NoError(t, s.AddVertex("a", "a", graph.VertexProperties{}))
	assert.ErrorIs(t, s.AddVertex("a", "a", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	v, _, err := s.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	_, _, err = s.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	count, err := s.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	list, err := s.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list)
}

func TestUpdateVertex(t *testing.T) {
	s := New[string, string]()
	require.NoError(t, s.AddVertex("a", "a", graph.VertexProperties{Attributes: map[string]string{}}))

	s.UpdateVertex("a", func(p *graph.VertexProperties) {
		p.Attributes["xlabel"] = "1s"
	})
	_, props, err := s.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "1s", props.Attributes["xlabel"])

	// unknown vertices are ignored
	s.UpdateVertex("missing", func(p *graph.VertexProperties) {
		t.Fatal("must not be called")
	})
}

func TestEdges(t *testing.T) {
	s := New[string, string]()
	require.NoError(t, s.AddVertex("a", "a", graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("b", "b", graph.VertexProperties{}))

	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	edge, err := s.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", edge.Target)

	_, err = s.Edge("b", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	edges, err := s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	updated := graph.Edge[string]{Source: "a", Target: "b", Properties: graph.EdgeProperties{Weight: 3}}
	require.NoError(t, s.UpdateEdge("a", "b", updated))
	edge, err = s.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 3, edge.Properties.Weight)

	assert.ErrorIs(t, s.UpdateEdge("b", "a", updated), graph.ErrEdgeNotFound)
}

func TestRemoveVertex(t *testing.T) {
	s := New[string, string]()
	require.NoError(t, s.AddVertex("a", "a", graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("b", "b", graph.VertexProperties{}))
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	assert.ErrorIs(t, s.RemoveVertex("a"), graph.ErrVertexHasEdges)

	require.NoError(t, s.RemoveEdge("a", "b"))
	require.NoError(t, s.RemoveVertex("a"))

	_, _, err := s.Vertex("a")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestCreatesCycle(t *testing.T) {
	s := New[string, string]()
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddVertex(v, v, graph.VertexProperties{}))
	}
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, s.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))

	cycle, err := s.(*MemoryStore[string, string]).CreatesCycle("c", "a")
	require.NoError(t, err)
	assert.True(t, cycle, "edge c -> a would close the chain")

	cycle, err = s.(*MemoryStore[string, string]).CreatesCycle("a", "c")
	require.NoError(t, err)
	assert.False(t, cycle)

	cycle, err = s.(*MemoryStore[string, string]).CreatesCycle("a", "a")
	require.NoError(t, err)
	assert.True(t, cycle)

	_, err = s.(*MemoryStore[string, string]).CreatesCycle("a", "missing")
	assert.Error(t, err)
}
