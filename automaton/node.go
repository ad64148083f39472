// Package automaton implements the call-site NFA: nodes, labeled edges and
// the frontier operations (step, epsilon-closure) the enforcement engine
// runs at observation time. It has no knowledge of Go, SSA, or policy
// artifacts — those live in the policy and engine packages.
package automaton

// Unassigned marks a Node identifier field that has not yet been assigned
// by the identifier assigner. It is only ever observed transiently during
// extraction; a Graph handed to the engine never contains it.
const Unassigned = -1

// Node represents one library-call site.
type Node struct {
	// Pretty is the callee name, informational only — never consulted by
	// the engine, only by artifacts and visualisations.
	Pretty string
	// DummyID is the site's identifier modulo the configured modulus.
	DummyID int
	// UniqueID is the site's strictly increasing per-function identifier.
	UniqueID int
}
