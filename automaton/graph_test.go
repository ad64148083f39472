package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		description string
		graph       Graph
		hasError    bool
	}{
		{
			description: "valid linear graph",
			graph: Graph{
				Nodes: []Node{{Pretty: "open"}, {Pretty: "read"}, {Pretty: "close"}},
				Edges: []Edge{{Src: 0, Dst: 1, MatchID: 0}, {Src: 1, Dst: 2, MatchID: 1}},
			},
		},
		{
			description: "out-of-range dst",
			graph: Graph{
				Nodes: []Node{{Pretty: "open"}},
				Edges: []Edge{{Src: 0, Dst: 5, MatchID: 0}},
			},
			hasError: true,
		},
		{
			description: "non-epsilon edge with epsilon sentinel",
			graph: Graph{
				Nodes: []Node{{}, {}},
				Edges: []Edge{{Src: 0, Dst: 1, Epsilon: false, MatchID: NoMatch}},
			},
			hasError: true,
		},
		{
			description: "epsilon edge is always valid regardless of match id",
			graph: Graph{
				Nodes: []Node{{}, {}},
				Edges: []Edge{{Src: 0, Dst: 1, Epsilon: true, MatchID: NoMatch}},
			},
		},
	}
	for _, tc := range tests {
		err := tc.graph.Validate()
		if tc.hasError {
			assert.Error(t, err, tc.description)
		} else {
			assert.NoError(t, err, tc.description)
		}
	}
}

func TestDefaultStartSet(t *testing.T) {
	tests := []struct {
		description string
		graph       Graph
		expect      []int
	}{
		{
			description: "single node with no edges has zero non-epsilon in-degree",
			graph:       Graph{Nodes: []Node{{Pretty: "open"}}},
			expect:      []int{0},
		},
		{
			description: "linear chain: only the first node has zero non-epsilon in-degree",
			graph: Graph{
				Nodes: []Node{{}, {}, {}},
				Edges: []Edge{{Src: 0, Dst: 1, MatchID: 0}, {Src: 1, Dst: 2, MatchID: 1}},
			},
			expect: []int{0},
		},
		{
			description: "branch via epsilon: both branch targets qualify since their in-edges are epsilon",
			graph: Graph{
				Nodes: []Node{{}, {}, {}},
				Edges: []Edge{
					{Src: 0, Dst: 1, Epsilon: true, MatchID: NoMatch},
					{Src: 0, Dst: 2, Epsilon: true, MatchID: NoMatch},
				},
			},
			expect: []int{0, 1, 2},
		},
		{
			description: "empty graph",
			graph:       Graph{},
			expect:      nil,
		},
	}
	for _, tc := range tests {
		got := DefaultStartSet(&tc.graph)
		assert.Equal(t, tc.expect, got, tc.description)
	}
}

func TestGraph_AddNodeAddEdge(t *testing.T) {
	var g Graph
	i0 := g.AddNode(Node{Pretty: "open"})
	i1 := g.AddNode(Node{Pretty: "read"})
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	g.AddEdge(Edge{Src: i0, Dst: i1, MatchID: 0})
	require.Len(t, g.Edges, 1)
	require.NoError(t, g.Validate())
}
