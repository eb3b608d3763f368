package mssmt

import (
	"encoding/binary"

	"github.com/msmt-labs/mssmt/lib/crypto"
)

// KeySize is the fixed width in bytes of every key in the tree; the tree's fixed
// depth in bits is KeyBitLength below
const KeySize = 32

// KeyBitLength is the tree depth in bits: 256 for a SHA-256 keyed tree
const KeyBitLength = KeySize * 8

// Key is a fixed-width 256-bit path into the tree
type Key [KeySize]byte

// leafDigest() computes H(value || LE64(sum)) - the key is deliberately excluded
// from the leaf digest so two independent implementations agree on the digest of
// a (value, sum) pair regardless of where it happens to live in the tree
func leafDigest(value []byte, sum uint64) []byte {
	var sumBytes [8]byte
	binary.LittleEndian.PutUint64(sumBytes[:], sum)
	h := crypto.Hasher()
	h.Write(value)
	h.Write(sumBytes[:])
	return h.Sum(nil)
}

// branchDigest() computes H(leftDigest || rightDigest || LE64(leftSum+rightSum))
func branchDigest(leftDigest, rightDigest []byte, leftSum, rightSum uint64) []byte {
	var sumBytes [8]byte
	binary.LittleEndian.PutUint64(sumBytes[:], leftSum+rightSum)
	h := crypto.Hasher()
	h.Write(leftDigest)
	h.Write(rightDigest)
	h.Write(sumBytes[:])
	return h.Sum(nil)
}

// emptyDigest is the digest of the empty subtree: 32 zero bytes
var emptyDigest = make([]byte, crypto.HashSize)

// bitAt() returns the bit at position d (0 = most significant bit of byte 0) of key,
// matching the MSB-first-within-byte ordering used for tree descent and proof verification
func bitAt(key Key, d int) uint8 {
	byteIdx := d / 8
	bitIdx := 7 - uint(d%8)
	return (key[byteIdx] >> bitIdx) & 1
}
