package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/calltrace/callguard/automaton"
)

// unassigned is the artifact-level "not applicable" sentinel (§6): used for
// both match fields on an epsilon edge.
const unassigned = -1

// epsilonLabel is the distinguished edge label reserved for epsilon edges.
// A non-epsilon edge's label is always a callee name and so can never
// collide with it.
const epsilonLabel = "ϵ"

// EdgeArtifact is one artifact-level edge (§6): src, dst, a label (a callee
// name, or epsilonLabel for an epsilon edge), and both match fields, only
// one of which is meaningful depending on IDMode.
type EdgeArtifact struct {
	Src         int    `yaml:"src"`
	Dst         int    `yaml:"dst"`
	Label       string `yaml:"label"`
	MatchDummy  int    `yaml:"matchDummy"`
	MatchUnique int    `yaml:"matchUnique"`
}

// CallSiteArtifact is one calls_in_order entry: purely a debugging trail,
// never consulted when reconstructing the Graph.
type CallSiteArtifact struct {
	Name       string `yaml:"name"`
	UniqueID   int    `yaml:"uniqueId"`
	DummyID    int    `yaml:"dummyId"`
	ResetCount int    `yaml:"resetCount"`
	Location   string `yaml:"location"`
}

// FunctionArtifact is the self-describing encoding of one function's
// automaton.Graph, per spec.md §4.4/§6.
type FunctionArtifact struct {
	FunctionName  string             `yaml:"functionName"`
	Mod           int                `yaml:"mod"`
	IDMode        string             `yaml:"idMode"`
	NodeLabels    []string           `yaml:"nodeLabels"`
	NodeDummyIDs  []int              `yaml:"nodeDummyIDs"`
	NodeUniqueIDs []int              `yaml:"nodeUniqueIDs"`
	Edges         []EdgeArtifact     `yaml:"edges"`
	CallsInOrder  []CallSiteArtifact `yaml:"callsInOrder,omitempty"`
	Checksum      uint64             `yaml:"checksum"`
}

// Artifact is the top-level policy artifact: a list of function encodings.
// Each FunctionArtifact is independently self-describing (its own mod and
// idMode), so a consumer can reconstruct any one function's Graph without
// reference to the others. ModulePath records the Go module the analyzed
// package belongs to (resolved via ModulePath), empty when unresolvable.
type Artifact struct {
	ModulePath string             `yaml:"modulePath,omitempty"`
	Functions  []FunctionArtifact `yaml:"functions"`
}

// BuildFunctionArtifact converts an extracted Graph (plus its debugging
// call-site trail) into a FunctionArtifact ready to serialize, computing
// and embedding its checksum.
func BuildFunctionArtifact(g automaton.Graph, mode Mode, modulus int, sites []CallSite) (FunctionArtifact, error) {
	fa := FunctionArtifact{
		FunctionName:  g.FunctionName,
		Mod:           modulus,
		IDMode:        mode.String(),
		NodeLabels:    make([]string, len(g.Nodes)),
		NodeDummyIDs:  make([]int, len(g.Nodes)),
		NodeUniqueIDs: make([]int, len(g.Nodes)),
		Edges:         make([]EdgeArtifact, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		fa.NodeLabels[i] = n.Pretty
		fa.NodeDummyIDs[i] = n.DummyID
		fa.NodeUniqueIDs[i] = n.UniqueID
	}
	for i, e := range g.Edges {
		ea := EdgeArtifact{Src: e.Src, Dst: e.Dst}
		if e.Epsilon {
			ea.Label = epsilonLabel
			ea.MatchDummy = unassigned
			ea.MatchUnique = unassigned
		} else {
			ea.Label = g.Nodes[e.Src].Pretty
			ea.MatchDummy = g.Nodes[e.Src].DummyID
			ea.MatchUnique = g.Nodes[e.Src].UniqueID
		}
		fa.Edges[i] = ea
	}
	for _, s := range sites {
		fa.CallsInOrder = append(fa.CallsInOrder, CallSiteArtifact{
			Name:       s.Pretty,
			UniqueID:   s.UniqueID,
			DummyID:    s.DummyID,
			ResetCount: s.ResetCount,
			Location:   s.Pos.String(),
		})
	}
	sum, err := checksum(&fa)
	if err != nil {
		return FunctionArtifact{}, err
	}
	fa.Checksum = sum
	return fa, nil
}

// ToGraph reconstructs an automaton.Graph under fa's own recorded idMode,
// verifying its checksum and the epsilon-label/match-field invariant from
// spec.md §6 along the way.
func (fa *FunctionArtifact) ToGraph() (automaton.Graph, Mode, error) {
	mode, err := ParseMode(fa.IDMode)
	if err != nil {
		return automaton.Graph{}, 0, err
	}
	return fa.ToGraphAs(mode)
}

// ToGraphAs is ToGraph but with the caller selecting which recorded
// identifier (dummy or unique) becomes each edge's MatchID, independent of
// fa's own idMode tag: spec.md §4.2 records both on every node so either
// mode can be enforced from the same artifact.
func (fa *FunctionArtifact) ToGraphAs(mode Mode) (automaton.Graph, Mode, error) {
	if len(fa.NodeDummyIDs) != len(fa.NodeLabels) || len(fa.NodeUniqueIDs) != len(fa.NodeLabels) {
		return automaton.Graph{}, 0, &ErrMalformedArtifact{Reason: fmt.Sprintf("%q: node array length mismatch", fa.FunctionName)}
	}
	want, err := checksum(fa)
	if err != nil {
		return automaton.Graph{}, 0, err
	}
	if want != fa.Checksum {
		return automaton.Graph{}, 0, &ErrMalformedArtifact{Reason: fmt.Sprintf("checksum mismatch for %q: want %d, got %d", fa.FunctionName, want, fa.Checksum)}
	}

	g := automaton.Graph{FunctionName: fa.FunctionName}
	for i, label := range fa.NodeLabels {
		g.AddNode(automaton.Node{Pretty: label, DummyID: fa.NodeDummyIDs[i], UniqueID: fa.NodeUniqueIDs[i]})
	}
	for _, ea := range fa.Edges {
		isEpsilon := ea.Label == epsilonLabel
		if isEpsilon != (ea.MatchDummy == unassigned && ea.MatchUnique == unassigned) {
			return automaton.Graph{}, 0, &ErrMalformedArtifact{Reason: fmt.Sprintf("%q: edge %d violates the epsilon-label/match-field invariant", fa.FunctionName, len(g.Edges))}
		}
		e := automaton.Edge{Src: ea.Src, Dst: ea.Dst, Epsilon: isEpsilon, MatchID: automaton.NoMatch}
		if !isEpsilon {
			if mode == Unique {
				e.MatchID = ea.MatchUnique
			} else {
				e.MatchID = ea.MatchDummy
			}
		}
		g.AddEdge(e)
	}
	g.StartSet = automaton.DefaultStartSet(&g)
	if err := g.Validate(); err != nil {
		return automaton.Graph{}, 0, &ErrMalformedArtifact{Reason: fmt.Sprintf("%q: %v", fa.FunctionName, err)}
	}
	return g, mode, nil
}

// Marshal renders a the artifact as YAML.
func (a *Artifact) Marshal() ([]byte, error) {
	return yaml.Marshal(a)
}

// Unmarshal parses a YAML artifact. It does not verify per-function
// checksums; call FunctionArtifact.ToGraph for that.
func Unmarshal(data []byte) (Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Artifact{}, &ErrMalformedArtifact{Reason: err.Error()}
	}
	return a, nil
}
