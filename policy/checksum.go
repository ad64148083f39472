package policy

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

// checksumKey mirrors inspector/graph/hash.go's fixed 32-byte key: the
// checksum guards against accidental corruption or hand-editing of an
// artifact, not against a deliberate adversary, so a well-known key is fine.
var checksumKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// checksum hashes a FunctionArtifact's node and edge arrays, in field
// order, so that two artifacts with the same content always produce the
// same checksum regardless of in-memory representation. It does not cover
// FunctionName or the calls_in_order debugging trail: neither affects
// engine behavior, and the trail in particular is meant to be safe to
// regenerate without invalidating the checksum.
func checksum(fa *FunctionArtifact) (uint64, error) {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	for i, label := range fa.NodeLabels {
		h.Write([]byte(label))
		writeInt(fa.NodeDummyIDs[i])
		writeInt(fa.NodeUniqueIDs[i])
	}
	for _, e := range fa.Edges {
		h.Write([]byte(e.Label))
		writeInt(e.Src)
		writeInt(e.Dst)
		writeInt(e.MatchDummy)
		writeInt(e.MatchUnique)
	}
	return h.Sum64(), nil
}
