package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calltrace/callguard/automaton"
	"github.com/calltrace/callguard/policy"
)

func writeTestArtifact(t *testing.T) string {
	t.Helper()
	var g automaton.Graph
	g.FunctionName = "sample.Do"
	g.AddNode(automaton.Node{Pretty: "os.Open", DummyID: 0, UniqueID: 1})
	g.AddNode(automaton.Node{Pretty: "os.Close", DummyID: 1, UniqueID: 2})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 1, MatchID: 0})
	g.StartSet = automaton.DefaultStartSet(&g)

	fa, err := policy.BuildFunctionArtifact(g, policy.Dummy, 200, nil)
	require.NoError(t, err)
	a := policy.Artifact{Functions: []policy.FunctionArtifact{fa}}
	raw, err := a.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoader_LoadGraph(t *testing.T) {
	path := writeTestArtifact(t)
	l := NewLoader()

	g, err := l.LoadGraph(path, 0, DummyMode)
	require.NoError(t, err)
	assert.Equal(t, "sample.Do", g.FunctionName)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, int32(0), int32(g.Edges[0].MatchID))
}

func TestLoader_LoadGraph_UniqueMode(t *testing.T) {
	path := writeTestArtifact(t)
	l := NewLoader()

	g, err := l.LoadGraph(path, 0, UniqueMode)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Edges[0].MatchID)
}

func TestLoader_LoadGraph_IndexOutOfRange(t *testing.T) {
	path := writeTestArtifact(t)
	l := NewLoader()
	_, err := l.LoadGraph(path, 5, DummyMode)
	require.Error(t, err)
}

func TestLoader_Load_EncodesBlob(t *testing.T) {
	path := writeTestArtifact(t)
	l := NewLoader()

	blob, err := l.Load(path, 0, 42, DummyMode)
	require.NoError(t, err)
	assert.EqualValues(t, 42, blob.PID)
	assert.EqualValues(t, 2, blob.NumNodes)
	require.Len(t, blob.Edges, 1)

	raw, err := blob.Encode()
	require.NoError(t, err)
	decoded, err := DecodeBlob(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, blob.PID, decoded.PID)
	assert.Equal(t, blob.Edges, decoded.Edges)
}
