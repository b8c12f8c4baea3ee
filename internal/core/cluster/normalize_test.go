package cluster_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/trackcluster/internal/core/cluster"
)

func TestNormalize_Chain(t *testing.T) {
	raw := cluster.NewAdjacency()
	raw.AddEdge("a", "b")
	raw.AddEdge("b", "a")
	raw.AddEdge("b", "c")
	raw.AddEdge("c", "b")
	raw.AddEdge("c", "d")
	raw.AddEdge("d", "c")
	raw.AddNode("e")

	got := cluster.Normalize(raw)

	assert.ElementsMatch(t, []string{"b", "c", "d"}, got.Neighbours("a"))
	assert.ElementsMatch(t, []string{"a", "c", "d"}, got.Neighbours("b"))
	assert.ElementsMatch(t, []string{"a", "b", "d"}, got.Neighbours("c"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got.Neighbours("d"))
	assert.Empty(t, got.Neighbours("e"))
	assert.True(t, got.Has("e"))
	assert.Equal(t, raw.Keys, got.Keys)
}

func TestNormalize_AsymmetricInput(t *testing.T) {
	// A sees B and C, D sees B and C, but nobody sees A or D directly.
	raw := cluster.NewAdjacency()
	raw.AddEdge("a", "b")
	raw.AddEdge("a", "c")
	raw.AddNode("b")
	raw.AddNode("c")
	raw.AddEdge("d", "b")
	raw.AddEdge("d", "c")

	got := cluster.Normalize(raw)

	for _, id := range raw.Keys {
		members := append([]string{id}, got.Neighbours(id)...)
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, members, "component of %s", id)
	}
}

func TestNormalize_NoDuplicatesNoSelf(t *testing.T) {
	raw := cluster.NewAdjacency()
	raw.AddEdge("a", "b")
	raw.AddEdge("a", "b")
	raw.AddEdge("a", "a")
	raw.AddEdge("b", "a")

	got := cluster.Normalize(raw)

	assert.Equal(t, []string{"b"}, got.Neighbours("a"))
	assert.Equal(t, []string{"a"}, got.Neighbours("b"))
}

func TestNormalize_LongChain(t *testing.T) {
	const n = 2000
	raw := cluster.NewAdjacency()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("s%04d", i)
		raw.AddNode(id)
		if i > 0 {
			prev := fmt.Sprintf("s%04d", i-1)
			raw.AddEdge(id, prev)
			raw.AddEdge(prev, id)
		}
	}

	got := cluster.Normalize(raw)

	require.Equal(t, n, got.Len())
	assert.Len(t, got.Neighbours("s0000"), n-1)
	assert.Len(t, got.Neighbours("s1999"), n-1)
	assert.NotContains(t, got.Neighbours("s1000"), "s1000")
}
