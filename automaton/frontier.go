package automaton

// Frontier is a fixed-width bitset over one function's nodes: the NFA's
// active-state set. Its width never changes after NewFrontier; Step and
// EpsilonClosure only ever set bits within that width, so a ProcessPolicy
// can pre-size a Frontier once at Install and reuse it (and a scratch
// Frontier of the same width) for the lifetime of the process without any
// further allocation.
type Frontier struct {
	bits []uint64
	n    int
}

// NewFrontier allocates a Frontier sized to hold n nodes.
func NewFrontier(n int) Frontier {
	return Frontier{bits: make([]uint64, (n+63)/64), n: n}
}

// Len reports the number of nodes this Frontier was sized for.
func (f *Frontier) Len() int { return f.n }

// Set activates node i.
func (f *Frontier) Set(i int) {
	f.bits[i/64] |= 1 << uint(i%64)
}

// IsSet reports whether node i is active.
func (f *Frontier) IsSet(i int) bool {
	return f.bits[i/64]&(1<<uint(i%64)) != 0
}

// Clear deactivates every node, without reallocating.
func (f *Frontier) Clear() {
	for i := range f.bits {
		f.bits[i] = 0
	}
}

// Empty reports whether every node is inactive — the terminal violation
// state from which no further transition is possible (spec §3).
func (f *Frontier) Empty() bool {
	for _, w := range f.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// CopyFrom replaces f's bits with other's, in place. other must have the
// same width as f.
func (f *Frontier) CopyFrom(other *Frontier) {
	copy(f.bits, other.bits)
}

// Indices returns the sorted list of active node indices. Intended for
// tests and debugging, never for the engine's hot path.
func (f *Frontier) Indices() []int {
	var out []int
	for i := 0; i < f.n; i++ {
		if f.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}

// EpsilonClosure repeatedly follows epsilon edges out of every active node
// until a fixed point. It terminates because the frontier only ever grows
// and is bounded by the node count (spec §4.1).
func EpsilonClosure(g *Graph, f *Frontier) {
	for {
		changed := false
		for _, e := range g.Edges {
			if e.Epsilon && f.IsSet(e.Src) && !f.IsSet(e.Dst) {
				f.Set(e.Dst)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// Step advances cur by one observation into next: next gains every e.Dst
// for each non-epsilon edge e with e.Src active in cur and e.MatchID ==
// observed, then next is epsilon-closed. next must already be sized like
// cur (and is cleared as the first step) — callers keep a pre-sized
// scratch Frontier around so Step never allocates.
func Step(g *Graph, cur *Frontier, observed int32, next *Frontier) {
	next.Clear()
	for _, e := range g.Edges {
		if e.Epsilon {
			continue
		}
		if cur.IsSet(e.Src) && int32(e.MatchID) == observed {
			next.Set(e.Dst)
		}
	}
	EpsilonClosure(g, next)
}

// Seed activates exactly the given indices and then epsilon-closes the
// result. Used to build a Graph's initial frontier from its StartSet.
func Seed(g *Graph, f *Frontier, indices []int) {
	f.Clear()
	for _, i := range indices {
		f.Set(i)
	}
	EpsilonClosure(g, f)
}
