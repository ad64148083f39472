package policy

import (
	"sort"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/calltrace/callguard/automaton"
)

// Extractor implements C3: it walks one function's basic blocks and call
// sites and produces an automaton.Graph, per spec.md §4.3.
type Extractor struct {
	modulus           int
	mode              Mode
	intrinsicPrefixes []string
	startSetFunc      StartSetFunc
	includeSynthetic  bool
	pretty            *PrettyResolver
}

// NewExtractor creates an Extractor with spec.md's defaults: modulus 200,
// dummy-id mode, the default intrinsic prefixes and start-set heuristic.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		modulus:           200,
		mode:              Dummy,
		intrinsicPrefixes: DefaultIntrinsicPrefixes,
		startSetFunc:      automaton.DefaultStartSet,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Extract builds the Graph and the debugging call-site trail for one
// function. Zero-site and single-site functions are legal (§4.3).
func (e *Extractor) Extract(fn *ssa.Function) (automaton.Graph, []CallSite, error) {
	g := automaton.Graph{FunctionName: fn.RelString(nil)}
	var sites []CallSite
	assigner := NewAssigner(e.modulus)

	// blockNodes[b.Index] holds, in program order, the node indices for
	// the library-call sites found in block b.
	blockNodes := make(map[int][]int, len(fn.Blocks))

	for _, b := range fn.Blocks {
		var nodes []int
		for _, instr := range b.Instrs {
			common, ok := callCommon(instr)
			if !ok || !isLibraryCall(common, e.intrinsicPrefixes) {
				continue
			}
			uniqueID := assigner.NextUnique()
			dummyID, resetCount := assigner.NextDummy()
			fallback := prettyCallee(common)
			pretty := fallback
			if e.pretty != nil {
				pretty = e.pretty.Resolve(fn.Prog.Fset.Position(common.Pos()), fallback)
			}
			idx := g.AddNode(automaton.Node{Pretty: pretty, DummyID: dummyID, UniqueID: uniqueID})
			nodes = append(nodes, idx)
			sites = append(sites, CallSite{
				Pretty:     pretty,
				UniqueID:   uniqueID,
				DummyID:    dummyID,
				ResetCount: resetCount,
				Pos:        fn.Prog.Fset.Position(common.Pos()),
			})

			// step 2: intra-block edge from the previous site in this
			// block to this one, matching on the PREVIOUS (source) site's
			// own id — see matchID's doc for why this direction matters.
			if len(nodes) >= 2 {
				prev := nodes[len(nodes)-2]
				g.AddEdge(automaton.Edge{Src: prev, Dst: idx, MatchID: e.matchID(g.Nodes[prev])})
			}
		}
		if len(nodes) > 0 {
			blockNodes[b.Index] = nodes
		}
	}

	// step 3: inter-block epsilon edges, skipping call-free blocks
	// transitively.
	for _, b := range fn.Blocks {
		nodes := blockNodes[b.Index]
		if len(nodes) == 0 {
			continue
		}
		last := nodes[len(nodes)-1]
		for _, succ := range b.Succs {
			visited := map[int]bool{b.Index: true}
			for _, target := range firstCallNodes(succ, blockNodes, visited) {
				g.AddEdge(automaton.Edge{Src: last, Dst: target, Epsilon: true, MatchID: automaton.NoMatch})
			}
		}
	}

	g.StartSet = e.startSetFunc(&g)
	if err := g.Validate(); err != nil {
		return automaton.Graph{}, nil, err
	}
	return g, sites, nil
}

// matchID returns n's own identifier under the extractor's active mode —
// the value the outgoing edge from n must match, per §4.3 step 2: the
// marker for a site is emitted before that site executes, so the
// transition OUT of a node fires on that node's OWN id being observed
// while it is active. Matching on the destination's id instead would
// silently accept sequences the emitted-before-call instrumentation can
// never actually produce.
func (e *Extractor) matchID(n automaton.Node) int {
	if e.mode == Unique {
		return n.UniqueID
	}
	return n.DummyID
}

// firstCallNodes walks b and its successors (skipping already-visited
// blocks to stay terminating on cyclic CFGs) and returns the first
// call-bearing node of the nearest call-bearing block(s) reachable from b,
// without materialising no-op intermediate nodes for call-free blocks.
func firstCallNodes(b *ssa.BasicBlock, blockNodes map[int][]int, visited map[int]bool) []int {
	if visited[b.Index] {
		return nil
	}
	visited[b.Index] = true
	if nodes := blockNodes[b.Index]; len(nodes) > 0 {
		return []int{nodes[0]}
	}
	var out []int
	for _, succ := range b.Succs {
		out = append(out, firstCallNodes(succ, blockNodes, visited)...)
	}
	return out
}

// ExtractPackage extracts every function belonging to pkg, including
// methods on named types and anonymous (closure) functions, excluding
// compiler-synthesized wrappers unless WithSynthetic is set.
//
// pkg.Members alone only reaches package-level funcs/vars/consts/types —
// it omits methods entirely, since those hang off the receiver type's
// method set rather than the package scope. ssautil.AllFunctions(prog)
// is the whole-program enumeration that actually reaches them, so it is
// used here and then filtered down to fn.Pkg == pkg.
func (e *Extractor) ExtractPackage(prog *ssa.Program, pkg *ssa.Package) ([]automaton.Graph, [][]CallSite, error) {
	all := ssautil.AllFunctions(prog)
	var fns []*ssa.Function
	for fn := range all {
		if fn.Pkg != pkg {
			continue
		}
		if fn.Synthetic != "" && !e.includeSynthetic {
			continue
		}
		fns = append(fns, fn)
	}
	// ssautil.AllFunctions iterates a map; sort for deterministic artifact
	// ordering across runs.
	sort.Slice(fns, func(i, j int) bool {
		return fns[i].RelString(nil) < fns[j].RelString(nil)
	})

	var graphs []automaton.Graph
	var sites [][]CallSite
	for _, fn := range fns {
		g, cs, err := e.Extract(fn)
		if err != nil {
			return nil, nil, err
		}
		graphs = append(graphs, g)
		sites = append(sites, cs)
	}
	return graphs, sites, nil
}
