package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calltrace/callguard/automaton"
)

func TestEngine_LinearAccept(t *testing.T) {
	var g automaton.Graph
	g.FunctionName = "open_read_close"
	g.AddNode(automaton.Node{Pretty: "open", DummyID: 0})
	g.AddNode(automaton.Node{Pretty: "read", DummyID: 1})
	g.AddNode(automaton.Node{Pretty: "close", DummyID: 2})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 1, MatchID: 0})
	g.AddEdge(automaton.Edge{Src: 1, Dst: 2, MatchID: 1})
	g.StartSet = automaton.DefaultStartSet(&g)

	obs := NewInProcessAdapter()
	e := New(obs)
	require.NoError(t, e.Install(1, g, DummyMode))

	e.Observe(1, 0)
	e.Observe(1, 1)
	assert.Empty(t, obs.Violations, "process should remain alive through the accepted sequence")

	// close (node 2) has no outgoing edge, so observing its own id (2)
	// empties the frontier.
	e.Observe(1, 2)
	require.Len(t, obs.Violations, 1)
	assert.Equal(t, Violation{PID: 1, ObservedID: 2}, obs.Violations[0])
}

func TestEngine_BranchWithEpsilon(t *testing.T) {
	var g automaton.Graph
	g.FunctionName = "open_then_read_or_write"
	g.AddNode(automaton.Node{Pretty: "open", DummyID: 0})
	g.AddNode(automaton.Node{Pretty: "read", DummyID: 1})
	g.AddNode(automaton.Node{Pretty: "write", DummyID: 2})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 1, Epsilon: true, MatchID: automaton.NoMatch})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 2, Epsilon: true, MatchID: automaton.NoMatch})
	g.StartSet = automaton.DefaultStartSet(&g)
	require.Equal(t, []int{0, 1, 2}, g.StartSet, "1 and 2 have only epsilon in-edges, so all three have zero non-epsilon in-degree")

	obs := NewInProcessAdapter()
	e := New(obs)
	require.NoError(t, e.Install(2, g, DummyMode))

	// node 0 has no outgoing non-epsilon edge, so observing its own id (0)
	// leaves the frontier empty on 1 and 2, and node 0 contributes nothing.
	e.Observe(2, 0)
	assert.Len(t, obs.Violations, 1)
}

func TestEngine_UnknownMarker(t *testing.T) {
	var g automaton.Graph
	g.FunctionName = "single"
	g.AddNode(automaton.Node{Pretty: "open", DummyID: 0})
	g.StartSet = automaton.DefaultStartSet(&g)

	obs := NewInProcessAdapter()
	e := New(obs)
	require.NoError(t, e.Install(3, g, DummyMode))

	e.Observe(3, 99)
	require.Len(t, obs.Violations, 1)
	assert.EqualValues(t, 99, obs.Violations[0].ObservedID)
}

func TestEngine_NoPolicy_NoOp(t *testing.T) {
	obs := NewInProcessAdapter()
	e := New(obs)
	e.Observe(404, 0)
	assert.Empty(t, obs.Violations)
}

func TestEngine_ReplacePolicy(t *testing.T) {
	buildLinear := func(acceptFirst int) automaton.Graph {
		var g automaton.Graph
		g.AddNode(automaton.Node{Pretty: "a", DummyID: 0})
		g.AddNode(automaton.Node{Pretty: "b", DummyID: 1})
		g.AddEdge(automaton.Edge{Src: 0, Dst: 1, MatchID: acceptFirst})
		g.StartSet = automaton.DefaultStartSet(&g)
		return g
	}
	policyA := buildLinear(0)
	policyB := buildLinear(1)

	obs := NewInProcessAdapter()
	e := New(obs)
	require.NoError(t, e.Install(5, policyA, DummyMode))
	require.NoError(t, e.Install(5, policyB, DummyMode))

	// accepted only by A: policy B's only outgoing edge matches on 1, not 0.
	e.Observe(5, 0)
	assert.Len(t, obs.Violations, 1)
}

func TestEngine_DummyCollision(t *testing.T) {
	var g automaton.Graph
	g.AddNode(automaton.Node{Pretty: "site1", DummyID: 5, UniqueID: 5})
	g.AddNode(automaton.Node{Pretty: "site2", DummyID: 5, UniqueID: 205})
	g.AddNode(automaton.Node{Pretty: "next", DummyID: 6, UniqueID: 206})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 2, MatchID: 5})
	g.AddEdge(automaton.Edge{Src: 1, Dst: 2, MatchID: 5})
	g.StartSet = []int{0, 1}

	t.Run("dummy mode accepts either site", func(t *testing.T) {
		obs := NewInProcessAdapter()
		e := New(obs)
		require.NoError(t, e.Install(7, g, DummyMode))
		e.Observe(7, 5)
		assert.Empty(t, obs.Violations)
	})

	t.Run("unique mode distinguishes the sites", func(t *testing.T) {
		gUnique := g
		gUnique.Edges = []automaton.Edge{
			{Src: 0, Dst: 2, MatchID: 5},
			{Src: 1, Dst: 2, MatchID: 205},
		}
		obs := NewInProcessAdapter()
		e := New(obs)
		require.NoError(t, e.Install(8, gUnique, UniqueMode))

		// site1's unique id (5) only fires the edge out of node 0.
		e.Observe(8, 5)
		assert.Empty(t, obs.Violations)
	})
}

func TestEngine_Install_Rejects_EmptyGraph(t *testing.T) {
	e := New()
	err := e.Install(1, automaton.Graph{}, DummyMode)
	require.Error(t, err)
	var invalid *ErrInvalidPolicy
	require.ErrorAs(t, err, &invalid)
}

func TestEngine_Install_Rejects_OutOfRangeEdge(t *testing.T) {
	var g automaton.Graph
	g.AddNode(automaton.Node{Pretty: "a"})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 9, MatchID: 0})
	e := New()
	err := e.Install(1, g, DummyMode)
	require.Error(t, err)
}
