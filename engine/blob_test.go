package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calltrace/callguard/automaton"
)

func TestBlob_EncodeDecode_RoundTrip(t *testing.T) {
	var g automaton.Graph
	g.AddNode(automaton.Node{Pretty: "a"})
	g.AddNode(automaton.Node{Pretty: "b"})
	g.AddNode(automaton.Node{Pretty: "c"})
	g.AddEdge(automaton.Edge{Src: 0, Dst: 1, MatchID: 3})
	g.AddEdge(automaton.Edge{Src: 1, Dst: 2, Epsilon: true, MatchID: automaton.NoMatch})

	b := BuildBlob(123, g, UniqueMode)
	raw, err := b.Encode()
	require.NoError(t, err)

	decoded, err := DecodeBlob(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, b, *decoded)
	assert.True(t, decoded.Edges[1].IsEpsilon)
}

func TestBlob_Decode_TruncatedInput(t *testing.T) {
	_, err := DecodeBlob(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}
