package policy

import (
	"go/token"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// CallSite is one entry of the artifact's calls_in_order debugging trail
// (§4.4). It is never consulted by the engine — purely informational.
type CallSite struct {
	Pretty     string
	UniqueID   int
	DummyID    int
	ResetCount int
	Pos        token.Position
}

// DefaultIntrinsicPrefixes are excluded from the library-call filter by default:
// compiler- and runtime-reserved names that are never "a library" in the
// sense spec.md §4.3 means (a declared-only external the program chooses
// to call). Tunable via WithIntrinsicPrefixes.
var DefaultIntrinsicPrefixes = []string{"runtime.", "reflect."}

// callCommon extracts the CallCommon from any instruction that can make a
// call (direct call, go statement, deferred call) — spec.md §4.3 talks
// about "call sites" in general, not just *ssa.Call.
func callCommon(instr ssa.Instruction) (*ssa.CallCommon, bool) {
	if ci, ok := instr.(ssa.CallInstruction); ok {
		return ci.Common(), true
	}
	return nil, false
}

// isLibraryCall reports whether common's static callee is a library call:
// an external declaration (no body) whose name does not start with one of
// the intrinsic prefixes. Calls through an interface method (invoke mode)
// or through a function value/closure cannot be statically resolved and
// are conservatively NOT treated as library calls — see DESIGN.md's note
// on this being the documented resolution of the "indirect dispatch" gap
// rather than a silent omission.
func isLibraryCall(common *ssa.CallCommon, prefixes []string) bool {
	if common.IsInvoke() {
		return false
	}
	switch callee := common.Value.(type) {
	case *ssa.Function:
		if callee.Blocks != nil {
			return false // has a body: not an external declaration
		}
		name := calleeName(callee)
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
		return true
	case *ssa.Builtin:
		name := callee.Name()
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
		return true
	default:
		// *ssa.Parameter, *ssa.MakeClosure-derived value, *ssa.Phi, etc:
		// the callee is only known at run time.
		return false
	}
}

func calleeName(fn *ssa.Function) string {
	if fn.Pkg != nil {
		return fn.Pkg.Pkg.Path() + "." + fn.Name()
	}
	return fn.RelString(nil)
}

// prettyCallee returns a human-readable callee name for common, used as
// the Node.Pretty / CallSite.Pretty fallback whenever no PrettyResolver is
// configured or it cannot locate the source text.
func prettyCallee(common *ssa.CallCommon) string {
	switch callee := common.Value.(type) {
	case *ssa.Function:
		return calleeName(callee)
	case *ssa.Builtin:
		return callee.Name()
	default:
		return "?"
	}
}
