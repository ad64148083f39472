package engine

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/calltrace/callguard/automaton"
)

// BlobEdge is one edge entry of the wire-format install blob (§6):
// {src:u32, dst:u32, match_id:i32, is_epsilon:u8}.
type BlobEdge struct {
	Src, Dst  uint32
	MatchID   int32
	IsEpsilon bool
}

// blobHeader is the install blob's fixed header (§6):
// {pid:u32, num_nodes:u32, num_edges:u32, id_mode:u32}.
type blobHeader struct {
	PID      uint32
	NumNodes uint32
	NumEdges uint32
	IDMode   IDMode
}

// Blob is C6's output: everything C7's Install needs, already
// edge-for-edge decoded from a policy artifact by a Loader.
type Blob struct {
	PID      uint32
	NumNodes uint32
	IDMode   IDMode
	Edges    []BlobEdge
}

// BuildBlob converts one function's Graph plus a target pid into a Blob, in
// the id_mode g's edges were already matched under — the caller (a Loader)
// is responsible for having selected that mode when it built g's MatchID
// values from the artifact.
func BuildBlob(pid uint32, g automaton.Graph, mode IDMode) Blob {
	edges := make([]BlobEdge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = BlobEdge{
			Src:       uint32(e.Src),
			Dst:       uint32(e.Dst),
			IsEpsilon: e.Epsilon,
		}
		if !e.Epsilon {
			edges[i].MatchID = int32(e.MatchID)
		}
	}
	return Blob{PID: pid, NumNodes: uint32(len(g.Nodes)), IDMode: mode, Edges: edges}
}

// Encode serializes b per §6's exact little-endian wire layout.
func (b *Blob) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	header := blobHeader{PID: b.PID, NumNodes: b.NumNodes, NumEdges: uint32(len(b.Edges)), IDMode: b.IDMode}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	for _, e := range b.Edges {
		if err := binary.Write(buf, binary.LittleEndian, e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeBlob parses an install blob produced by Encode.
func DecodeBlob(r io.Reader) (*Blob, error) {
	var header blobHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	edges := make([]BlobEdge, header.NumEdges)
	for i := range edges {
		if err := binary.Read(r, binary.LittleEndian, &edges[i]); err != nil {
			return nil, err
		}
	}
	return &Blob{PID: header.PID, NumNodes: header.NumNodes, IDMode: header.IDMode, Edges: edges}, nil
}
