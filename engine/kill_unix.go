//go:build unix

package engine

import (
	"log"
	"syscall"
)

// SignalKiller is the production Observer: it delivers a lethal signal to
// the offending pid (§4.7's "deliver a lethal signal to the process").
// SIGKILL is used unconditionally; a violation is non-recoverable from the
// program's standpoint by design (spec.md §7).
type SignalKiller struct{}

// NewSignalKiller creates a SignalKiller.
func NewSignalKiller() *SignalKiller { return &SignalKiller{} }

func (SignalKiller) OnViolation(pid uint32, observedID int32) {
	if err := syscall.Kill(int(pid), syscall.SIGKILL); err != nil {
		log.Printf("engine: failed to kill pid=%d after observed=%d: %v", pid, observedID, err)
	}
}
