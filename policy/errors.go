package policy

import "fmt"

// ErrMalformedArtifact reports a parse-time failure in a policy artifact
// (spec §7's "parse error" kind). It is always a build/load-time failure,
// never returned by anything on the engine's hot path.
type ErrMalformedArtifact struct {
	Reason string
}

func (e *ErrMalformedArtifact) Error() string {
	return fmt.Sprintf("policy: malformed artifact: %s", e.Reason)
}
