package policy

import "github.com/calltrace/callguard/automaton"

// Option configures an Extractor, following the same functional-options
// shape as the teacher's analyzer.Option.
type Option func(*Extractor)

// StartSetFunc computes a Graph's start set. The default implements
// spec.md §4.3 step 4 (automaton.DefaultStartSet); spec.md §9 leaves this
// a deliberate Open Question, so it is a policy rather than a hard rule.
type StartSetFunc func(*automaton.Graph) []int

// WithModulus sets the dummy-id modulus M (default 200, per §6).
func WithModulus(m int) Option {
	return func(e *Extractor) {
		if m > 0 {
			e.modulus = m
		}
	}
}

// WithMode selects which identifier (dummy or unique) edges match on and
// the instrumenter emits.
func WithMode(mode Mode) Option {
	return func(e *Extractor) { e.mode = mode }
}

// WithIntrinsicPrefixes overrides the default toolchain-intrinsic exclude
// list used by the library-call filter (§4.3).
func WithIntrinsicPrefixes(prefixes ...string) Option {
	return func(e *Extractor) { e.intrinsicPrefixes = prefixes }
}

// WithStartSetFunc overrides the start-set heuristic.
func WithStartSetFunc(f StartSetFunc) Option {
	return func(e *Extractor) { e.startSetFunc = f }
}

// WithSynthetic includes compiler-synthesized functions (wrappers, thunks)
// in ExtractPackage. They are skipped by default.
func WithSynthetic() Option {
	return func(e *Extractor) { e.includeSynthetic = true }
}

// WithPrettyResolver attaches a PrettyResolver for exact source-text
// Pretty labels. Without one, Node.Pretty falls back to the SSA-derived
// callee name.
func WithPrettyResolver(r *PrettyResolver) Option {
	return func(e *Extractor) { e.pretty = r }
}
