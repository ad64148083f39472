// Command callguard-load implements the loader CLI from spec.md §6: it
// reads a policy artifact, selects one function by index, and installs it
// into the enforcement engine for a target pid. Because the privileged
// interception mechanism itself is out of scope (spec.md §2), this binary
// stands in for it end-to-end by relaying "pid observed_id" pairs read
// from stdin to Engine.Observe, rather than an actual syscall/eBPF probe.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/calltrace/callguard/engine"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -p <pid> -j <artifact-path> [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	pid := flag.Int("p", 0, "target process id (required)")
	artifactPath := flag.String("j", "", "policy artifact path (required)")
	functionIndex := flag.Int("f", 0, "index of the function within the artifact to install")
	unique := flag.Bool("unique", false, "select unique-id mode (default is dummy-id mode)")
	flag.Parse()

	if *pid <= 0 || *artifactPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	mode := engine.DummyMode
	if *unique {
		mode = engine.UniqueMode
	}

	loader := engine.NewLoader()
	g, err := loader.LoadGraph(*artifactPath, *functionIndex, mode)
	if err != nil {
		log.Fatalf("callguard-load: loading %s: %v", *artifactPath, err)
	}

	eng := engine.New(engine.NewSignalKiller())
	if err := eng.Install(uint32(*pid), g, mode); err != nil {
		log.Fatalf("callguard-load: installing policy for pid %d: %v", *pid, err)
	}
	log.Printf("callguard-load: installed %q (%d nodes, %d edges) for pid %d", g.FunctionName, len(g.Nodes), len(g.Edges), *pid)

	relayObservations(eng, uint32(*pid))
}

// relayObservations reads "marker_id" lines from stdin (or "pid marker_id"
// to address a different installed pid) and feeds them to Observe until
// EOF, standing in for the real interception adapter.
func relayObservations(eng *engine.Engine, defaultPID uint32) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		targetPID := defaultPID
		markerField := fields[0]
		if len(fields) >= 2 {
			p, err := strconv.ParseUint(fields[0], 10, 32)
			if err != nil {
				log.Printf("callguard-load: malformed pid %q", fields[0])
				continue
			}
			targetPID = uint32(p)
			markerField = fields[1]
		}
		marker, err := strconv.ParseInt(markerField, 10, 32)
		if err != nil {
			log.Printf("callguard-load: malformed marker %q", markerField)
			continue
		}
		eng.Observe(targetPID, int32(marker))
	}
	if err := scanner.Err(); err != nil {
		log.Printf("callguard-load: reading stdin: %v", err)
	}
}
