//go:build !unix

package engine

import "log"

// SignalKiller on non-unix hosts cannot deliver a lethal signal; it logs
// instead. The interception mechanism itself is out of scope (spec.md §2)
// on every host, so this is not a regression, just a narrower reference
// implementation of the same Observer contract.
type SignalKiller struct{}

func NewSignalKiller() *SignalKiller { return &SignalKiller{} }

func (SignalKiller) OnViolation(pid uint32, observedID int32) {
	log.Printf("engine: policy violation on unsupported platform: pid=%d observed=%d", pid, observedID)
}
