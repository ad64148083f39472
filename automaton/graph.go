package automaton

import "fmt"

// Graph is the per-function NFA: an ordered node list, an append-only edge
// list, and the derived start set (§4.3).
type Graph struct {
	FunctionName string
	Nodes        []Node
	Edges        []Edge
	StartSet     []int
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(n Node) int {
	g.Nodes = append(g.Nodes, n)
	return len(g.Nodes) - 1
}

// AddEdge appends an edge. It does not validate src/dst — call Validate
// once construction is complete.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// Validate checks the universal invariant from spec §8: every edge's Src
// and Dst are valid node indices, no non-epsilon edge carries the NoMatch
// sentinel, and every StartSet entry is a valid node index. It does not
// check that a MatchID equals some node's assigned identifier.
func (g *Graph) Validate() error {
	n := len(g.Nodes)
	for i, e := range g.Edges {
		if e.Src < 0 || e.Src >= n {
			return fmt.Errorf("automaton: edge %d has out-of-range src %d (node count %d)", i, e.Src, n)
		}
		if e.Dst < 0 || e.Dst >= n {
			return fmt.Errorf("automaton: edge %d has out-of-range dst %d (node count %d)", i, e.Dst, n)
		}
		if !e.Epsilon && e.MatchID == NoMatch {
			return fmt.Errorf("automaton: edge %d is non-epsilon but carries the epsilon sentinel match id", i)
		}
	}
	for _, s := range g.StartSet {
		if s < 0 || s >= n {
			return fmt.Errorf("automaton: start set contains out-of-range node %d (node count %d)", s, n)
		}
	}
	return nil
}

// NonEpsilonInDegree returns, for every node, the count of non-epsilon
// in-edges. Used by the default start-set heuristic (§4.3 step 4) and by
// the engine's initial-frontier computation (§4.7), which must agree.
func (g *Graph) NonEpsilonInDegree() []int {
	deg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		if !e.Epsilon {
			deg[e.Dst]++
		}
	}
	return deg
}

// DefaultStartSet implements spec §4.3 step 4: nodes with zero non-epsilon
// in-degree, falling back to node 0 if that set is empty. It is exposed so
// callers needing a custom heuristic (spec §9's Open Question) can still
// reuse the same fallback rule.
func DefaultStartSet(g *Graph) []int {
	if len(g.Nodes) == 0 {
		return nil
	}
	deg := g.NonEpsilonInDegree()
	var start []int
	for i, d := range deg {
		if d == 0 {
			start = append(start, i)
		}
	}
	if len(start) == 0 {
		start = []int{0}
	}
	return start
}
