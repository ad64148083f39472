package policy

import (
	"bytes"
	"go/token"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// PrettyResolver renders a call site's exact source text as its Pretty
// label, instead of the coarser SSA-derived callee name. It reuses the
// teacher's tree-sitter parser setup (one *sitter.Parser bound to the Go
// grammar, source re-parsed per file) purely to re-find the original
// `f(...)` text at a token.Position — a best-effort decoration, never
// load-bearing: any failure falls back to the caller-supplied name.
type PrettyResolver struct {
	parser *sitter.Parser
	cache  map[string]*sourceFile
}

type sourceFile struct {
	src  []byte
	root *sitter.Node
}

// NewPrettyResolver creates a resolver. A single instance should be reused
// across an entire extraction pass so each source file is parsed once.
func NewPrettyResolver() *PrettyResolver {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &PrettyResolver{parser: p, cache: map[string]*sourceFile{}}
}

// Resolve returns the source text of the call expression enclosing pos, or
// fallback if the file cannot be read/parsed or no call expression is
// found there.
func (r *PrettyResolver) Resolve(pos token.Position, fallback string) string {
	if pos.Filename == "" || pos.Line == 0 {
		return fallback
	}
	sf, err := r.load(pos.Filename)
	if err != nil {
		return fallback
	}
	offset := byteOffset(sf.src, pos.Line, pos.Column)
	if offset < 0 {
		return fallback
	}
	node := smallestCallExpr(sf.root, offset)
	if node == nil {
		return fallback
	}
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return fallback
	}
	text := strings.TrimSpace(string(sf.src[fn.StartByte():fn.EndByte()]))
	if text == "" {
		return fallback
	}
	return text
}

func (r *PrettyResolver) load(filename string) (*sourceFile, error) {
	if sf, ok := r.cache[filename]; ok {
		return sf, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	tree := r.parser.Parse(nil, data)
	if tree == nil {
		return nil, errParse
	}
	sf := &sourceFile{src: data, root: tree.RootNode()}
	r.cache[filename] = sf
	return sf, nil
}

var errParse = &ErrMalformedArtifact{Reason: "tree-sitter failed to parse source"}

// byteOffset converts a 1-based go/token (line, column) pair into a byte
// offset into src. column is assumed to count bytes, which holds for the
// ASCII identifiers and punctuation call expressions are made of; it is
// never used for anything beyond locating a node to re-print.
func byteOffset(src []byte, line, column int) int {
	curLine := 1
	i := 0
	for curLine < line {
		idx := bytes.IndexByte(src[i:], '\n')
		if idx < 0 {
			return -1
		}
		i += idx + 1
		curLine++
	}
	offset := i + column - 1
	if offset < 0 || offset > len(src) {
		return -1
	}
	return offset
}

func smallestCallExpr(root *sitter.Node, offset int) *sitter.Node {
	var best *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		start, end := int(n.StartByte()), int(n.EndByte())
		if offset < start || offset > end {
			return
		}
		if n.Type() == "call_expression" {
			best = n
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return best
}
