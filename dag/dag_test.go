package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/topo"
)

func TestGraphChain(t *testing.T) {
	g := New()
	require.NoError(t, g.SetAttribute(encoding.Attribute{Key: "rankdir", Value: "LR"}))

	a, err := g.AddLabeledNode(encoding.Attribute{Key: "label", Value: `"a"`})
	require.NoError(t, err)
	b, err := g.AddLabeledNode(encoding.Attribute{Key: "label", Value: `"b"`})
	require.NoError(t, err)

	require.NoError(t, g.Connect(a.ID(), b.ID(), encoding.Attribute{Key: "style", Value: "bold"}))
	assert.Error(t, g.Connect(a.ID(), 99))

	assert.Equal(t, `"a"`, g.Attribute(a.ID(), "label"))
	assert.Empty(t, g.Attribute(a.ID(), "color"))
	assert.Empty(t, g.Attribute(99, "label"))

	sorted, err := topo.Sort(g)
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, a.ID(), sorted[0].ID())

	dot, err := g.ExportToDot("chain")
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph chain {")
	assert.Contains(t, dot, "rankdir=LR")
	assert.Contains(t, dot, `label="a"`)
	assert.Contains(t, dot, "style=bold")
}
