package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/calltrace/callguard/automaton"
)

// WriteDOT renders g as a Graphviz DOT file at dir/<sanitized function
// name>.dot. It is purely a debugging aid (§6's "output directory for
// per-function visualisations"); nothing downstream reads it back.
func WriteDOT(dir string, g automaton.Graph) (string, error) {
	gv := gographviz.NewGraph()
	name := gographviz.Escape(sanitizeGraphName(g.FunctionName))
	if err := gv.SetName(name); err != nil {
		return "", err
	}
	if err := gv.SetDir(true); err != nil {
		return "", err
	}

	startSet := make(map[int]bool, len(g.StartSet))
	for _, s := range g.StartSet {
		startSet[s] = true
	}

	for i, n := range g.Nodes {
		attrs := map[string]string{
			"label": gographviz.Escape(fmt.Sprintf("%s\\ndummy=%d unique=%d", n.Pretty, n.DummyID, n.UniqueID)),
			"shape": "box",
		}
		if startSet[i] {
			attrs["peripheries"] = "2"
		}
		if err := gv.AddNode(name, nodeID(i), attrs); err != nil {
			return "", err
		}
	}
	for _, e := range g.Edges {
		label := "ϵ"
		if !e.Epsilon {
			label = fmt.Sprintf("id=%d", e.MatchID)
		}
		attrs := map[string]string{"label": gographviz.Escape(label)}
		if e.Epsilon {
			attrs["style"] = "dashed"
		}
		if err := gv.AddEdge(nodeID(e.Src), nodeID(e.Dst), true, attrs); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitizeFileName(g.FunctionName)+".dot")
	if err := os.WriteFile(path, []byte(gv.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func nodeID(i int) string {
	return gographviz.Escape(fmt.Sprintf("n%d", i))
}

func sanitizeGraphName(name string) string {
	r := strings.NewReplacer(".", "_", "/", "_", "-", "_", "(", "", ")", "")
	return r.Replace(name)
}

func sanitizeFileName(name string) string {
	r := strings.NewReplacer("/", "_", "*", "_", "(", "", ")", "", " ", "_")
	return r.Replace(name)
}
