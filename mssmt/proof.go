package mssmt

import (
	"encoding/binary"

	"github.com/msmt-labs/mssmt/lib/crypto"
)

// Sibling is the wire-level representation of one node encountered along an
// authenticated path: its digest and sum, plus the absolute bit depth at which it
// was encountered. The depth travels with the sibling rather than being inferred
// from its position in the list, because the tree is compacted (B1) - ancestors on
// a proof path are not guaranteed to sit at consecutive depths, so a verifier that
// only knew the proof's length could examine the wrong key bit whenever a deep
// divergence collapsed away the levels above it
type Sibling struct {
	Digest []byte
	Sum    uint64
	Depth  int
}

func siblingOf(n Node, depth int) Sibling {
	return Sibling{Digest: n.Digest(), Sum: n.Sum(), Depth: depth}
}

// MerkleProof() walks from the root to key's leaf (or to the empty slot key would
// occupy), collecting at every branch the child not taken. The result is ordered
// leaf-ward first: index 0 is adjacent to the leaf, the last element adjacent to
// the root. The proof for the empty tree, or for a tree holding only key itself
// with no other entry, is the empty slice
func MerkleProof(t *Tree, key Key) []Sibling {
	var rootWardFirst []Sibling
	node := t.root
	for {
		branch, ok := node.(*BranchNode)
		if !ok {
			break
		}
		if bitAt(key, branch.Depth) == 0 {
			rootWardFirst = append(rootWardFirst, siblingOf(branch.Right, branch.Depth))
			node = branch.Left
		} else {
			rootWardFirst = append(rootWardFirst, siblingOf(branch.Left, branch.Depth))
			node = branch.Right
		}
	}
	// reverse into leaf-ward-first order
	proof := make([]Sibling, len(rootWardFirst))
	for i, s := range rootWardFirst {
		proof[len(rootWardFirst)-1-i] = s
	}
	return proof
}

// VerifyProof() recomputes a candidate root from (key, value, sum, proof) and
// reports whether it equals the claimed root. A mismatch in root, value, sum, or
// any sibling's digest or sum causes this to return false. The key is not part of
// the leaf digest, so key and sibling depths only take effect through the key bits
// at those depths: a different key that agrees with the real one at every
// sibling's depth (or any key, for an empty proof) still verifies
func VerifyProof(root []byte, key Key, value []byte, sum uint64, proof []Sibling) bool {
	digest := leafDigest(value, sum)
	runningSum := sum
	for i := 0; i < len(proof); i++ {
		sibling := proof[i]
		var sumBytes [8]byte
		if bitAt(key, sibling.Depth) == 0 {
			runningSum = runningSum + sibling.Sum
			binary.LittleEndian.PutUint64(sumBytes[:], runningSum)
			h := crypto.Hasher()
			h.Write(digest)
			h.Write(sibling.Digest)
			h.Write(sumBytes[:])
			digest = h.Sum(nil)
		} else {
			runningSum = sibling.Sum + runningSum
			binary.LittleEndian.PutUint64(sumBytes[:], runningSum)
			h := crypto.Hasher()
			h.Write(sibling.Digest)
			h.Write(digest)
			h.Write(sumBytes[:])
			digest = h.Sum(nil)
		}
	}
	if len(digest) != len(root) {
		return false
	}
	for i := range digest {
		if digest[i] != root[i] {
			return false
		}
	}
	return true
}
