// Package engine implements C7 and C8: the privileged per-process policy
// table, its Install/Observe/Uninstall operations, and the interception
// adapter boundary markers are surfaced through.
package engine

import (
	"sync"

	"github.com/calltrace/callguard/automaton"
)

// ProcessPolicy is one installed policy: an immutable graph plus the one
// piece of state Observe mutates, its Frontier. scratch is a pre-sized
// Frontier of the same width reused by Observe so the hot path never
// allocates (§4.7).
type ProcessPolicy struct {
	mu       sync.Mutex
	graph    automaton.Graph
	frontier automaton.Frontier
	scratch  automaton.Frontier
	idMode   IDMode
}

// newProcessPolicy builds a ProcessPolicy from edges already validated by
// the caller, seeding its frontier from g's start set.
func newProcessPolicy(g automaton.Graph, mode IDMode) *ProcessPolicy {
	p := &ProcessPolicy{
		graph:    g,
		frontier: automaton.NewFrontier(len(g.Nodes)),
		scratch:  automaton.NewFrontier(len(g.Nodes)),
		idMode:   mode,
	}
	automaton.Seed(&p.graph, &p.frontier, g.StartSet)
	return p
}

// observe advances p's frontier by one observation and reports whether it
// is now empty (a violation). It holds p.mu for the duration of step +
// ε-closure + the empty check, per §5.
func (p *ProcessPolicy) observe(observed int32) (empty bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	automaton.Step(&p.graph, &p.frontier, observed, &p.scratch)
	p.frontier, p.scratch = p.scratch, p.frontier
	return p.frontier.Empty()
}
