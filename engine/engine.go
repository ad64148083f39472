package engine

import (
	"log"
	"sync"

	"github.com/calltrace/callguard/automaton"
)

// Engine is C7's state: an explicit, non-singleton handle over the
// pid → ProcessPolicy table (§9 design note: "encapsulate as a single
// engine object... rather than a process-wide singleton"). Its zero value
// is not usable; construct one with New.
type Engine struct {
	mu        sync.RWMutex
	policies  map[uint32]*ProcessPolicy
	observers []Observer
}

// New creates an empty Engine. Observers (typically a single
// InProcessAdapter, or a SignalKiller in production) are notified of every
// violation Observe detects.
func New(observers ...Observer) *Engine {
	return &Engine{policies: make(map[uint32]*ProcessPolicy), observers: observers}
}

// Install validates edges and num_nodes, then atomically replaces any
// prior policy for pid (§4.7). mode selects which of each edge's MatchID
// fields was already baked in by the caller (a Loader); Install itself
// does not look at id_mode beyond recording it.
func (e *Engine) Install(pid uint32, g automaton.Graph, mode IDMode) error {
	if len(g.Nodes) == 0 {
		return &ErrInvalidPolicy{Reason: "num_nodes must be > 0"}
	}
	if len(g.Edges) > maxEdges {
		return &ErrInvalidPolicy{Reason: "num_edges exceeds the sanity cap"}
	}
	if err := g.Validate(); err != nil {
		return &ErrInvalidPolicy{Reason: err.Error()}
	}
	if len(g.StartSet) == 0 {
		g.StartSet = automaton.DefaultStartSet(&g)
	}

	p := newProcessPolicy(g, mode)
	e.mu.Lock()
	e.policies[pid] = p
	e.mu.Unlock()
	return nil
}

// Uninstall drops pid's policy, if any.
func (e *Engine) Uninstall(pid uint32) {
	e.mu.Lock()
	delete(e.policies, pid)
	e.mu.Unlock()
}

// Observe feeds one marker observation to pid's installed policy (§4.7). A
// pid with no installed policy is unsandboxed: Observe is a silent no-op
// (§7's "spurious observation"). A policy driven to an empty frontier is a
// violation: every registered Observer is notified and the policy stays
// installed, so further observations keep violating until Uninstall.
func (e *Engine) Observe(pid uint32, observedID int32) {
	e.mu.RLock()
	p, ok := e.policies[pid]
	e.mu.RUnlock()
	if !ok {
		return
	}

	if empty := p.observe(observedID); empty {
		log.Printf("engine: policy violation: pid=%d observed=%d", pid, observedID)
		for _, obs := range e.observers {
			obs.OnViolation(pid, observedID)
		}
	}
}
