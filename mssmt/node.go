package mssmt

import "github.com/msmt-labs/mssmt/lib"

// Node is the common interface implemented by every variant that can occupy a
// position in the tree: a Leaf, a Branch, or the Empty sentinel. Leaf and branch
// digests are computed once, when the node is constructed, and stored on it; nodes
// are never mutated afterwards, so a stored digest can never go stale
type Node interface {
	// Digest() returns this node's 32-byte merkle digest
	Digest() []byte
	// Sum() returns the total of every leaf sum reachable beneath this node
	Sum() uint64
	// IsEmpty() reports whether this node is the Empty sentinel
	IsEmpty() bool
}

// EmptyNode is the sentinel occupying every position in the tree that has no
// leaf beneath it. Its digest is 32 zero bytes and its sum is zero
type EmptyNode struct{}

var theEmptyNode = EmptyNode{}

func (EmptyNode) Digest() []byte { return emptyDigest }
func (EmptyNode) Sum() uint64    { return 0 }
func (EmptyNode) IsEmpty() bool  { return true }

// LeafNode holds a single key's (value, sum) pair. Per the digest formula the key
// itself is not mixed into the digest - only the value and sum are
type LeafNode struct {
	Key   Key
	Value []byte
	sum   uint64

	digest []byte // computed once at construction, a leaf's own fields never change
}

// NewLeafNode() constructs a LeafNode and computes its digest immediately
func NewLeafNode(key Key, value []byte, sum uint64) *LeafNode {
	return &LeafNode{
		Key:    key,
		Value:  value,
		sum:    sum,
		digest: leafDigest(value, sum),
	}
}

func (l *LeafNode) Digest() []byte { return l.digest }
func (l *LeafNode) Sum() uint64    { return l.sum }
func (l *LeafNode) IsEmpty() bool  { return false }

// Equal() reports whether two leaves carry the same value and sum (key is compared separately)
func (l *LeafNode) Equal(other *LeafNode) bool {
	if other == nil {
		return false
	}
	return l.sum == other.sum && string(l.Value) == string(other.Value)
}

// BranchNode is an interior node with exactly two non-empty-or-collapsed children.
// A branch with one empty child is never constructed directly - see collapse() in tree.go
//
// Depth is the absolute bit index (0 = root-most) this branch dispatches on. Because
// the tree is compacted - only paths leading to live leaves are materialised, per B1 -
// a branch's depth is not implied by how many ancestors it has; it is the depth at
// which its two subtrees were found to diverge, and must be carried explicitly so that
// Get/Delete/MerkleProof examine the correct key bit even when levels above it were
// skipped entirely rather than materialised and collapsed
type BranchNode struct {
	Left, Right Node
	Depth       int

	digest []byte
	sum    uint64
}

// NewBranchNode() constructs a BranchNode at the given depth and computes its digest
// and sum from its children. Fails with ErrSumOverflow if the children's sums would
// wrap around the 64-bit space
func NewBranchNode(left, right Node, depth int) (*BranchNode, lib.ErrorI) {
	leftSum, rightSum := left.Sum(), right.Sum()
	sum := leftSum + rightSum
	if sum < leftSum {
		return nil, lib.ErrSumOverflow()
	}
	return &BranchNode{
		Left:   left,
		Right:  right,
		Depth:  depth,
		sum:    sum,
		digest: branchDigest(left.Digest(), right.Digest(), leftSum, rightSum),
	}, nil
}

func (b *BranchNode) Digest() []byte { return b.digest }
func (b *BranchNode) Sum() uint64    { return b.sum }
func (b *BranchNode) IsEmpty() bool  { return false }
