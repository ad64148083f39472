package engine

import (
	"fmt"
	"os"

	"github.com/calltrace/callguard/automaton"
	"github.com/calltrace/callguard/policy"
)

// Loader implements C6: it reads an artifact from disk, selects one
// function by index, and builds the wire-format Blob Install consumes.
// Start-set computation is deliberately NOT repeated here — FunctionArtifact
// already recomputes it via automaton.DefaultStartSet on load, and Install
// itself recomputes it again if ever handed a zero StartSet; §4.6 calls out
// that the loader must not become a second source of truth for it.
type Loader struct{}

// NewLoader creates a Loader. Stateless: kept as a type for symmetry with
// Engine and to leave room for artifact caching later.
func NewLoader() *Loader { return &Loader{} }

// LoadGraph reads the artifact at path, selects functionIndex, and returns
// its reconstructed Graph matched under mode (independent of the artifact's
// own recorded idMode — §4.2's "either mode can be enforced from the same
// artifact").
func (l *Loader) LoadGraph(path string, functionIndex int, mode IDMode) (automaton.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return automaton.Graph{}, err
	}
	a, err := policy.Unmarshal(data)
	if err != nil {
		return automaton.Graph{}, err
	}
	if functionIndex < 0 || functionIndex >= len(a.Functions) {
		return automaton.Graph{}, &policy.ErrMalformedArtifact{
			Reason: fmt.Sprintf("function index %d out of range (artifact has %d functions)", functionIndex, len(a.Functions)),
		}
	}
	policyMode := policy.Dummy
	if mode == UniqueMode {
		policyMode = policy.Unique
	}
	g, _, err := a.Functions[functionIndex].ToGraphAs(policyMode)
	if err != nil {
		return automaton.Graph{}, err
	}
	return g, nil
}

// Load is LoadGraph followed by BuildBlob, for callers that need the
// install Blob for pid rather than an in-process Graph; Blob.Encode turns
// it into the wire-format bytes.
func (l *Loader) Load(path string, functionIndex int, pid uint32, mode IDMode) (Blob, error) {
	g, err := l.LoadGraph(path, functionIndex, mode)
	if err != nil {
		return Blob{}, err
	}
	return BuildBlob(pid, g, mode), nil
}
