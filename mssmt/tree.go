package mssmt

import "github.com/msmt-labs/mssmt/lib"

// Tree is an immutable sparse merkle-sum trie. Every mutating operation returns
// a new Tree that shares every untouched subtree with its input - nothing in
// this package ever mutates a Node already reachable from a published root
type Tree struct {
	root Node
}

// New() returns the empty tree
func New() *Tree {
	return &Tree{root: theEmptyNode}
}

// RootHash() returns the 32-byte digest of the tree's root, or the all-zero
// digest for the empty tree
func RootHash(t *Tree) []byte {
	return t.root.Digest()
}

// TotalSum() returns the sum of every live leaf's sum field, or 0 for the empty tree
func TotalSum(t *Tree) uint64 {
	return t.root.Sum()
}

// Insert() inserts (or, if key is already present, updates) the (value, sum) pair
// at key and returns the resulting tree. Fails with ErrKeyCollision only in the
// astronomically unlikely event that two distinct keys agree on every one of the
// 256 bits of their path
func Insert(t *Tree, key Key, value []byte, sum uint64) (*Tree, lib.ErrorI) {
	newRoot, err := insert(t.root, key, value, sum, 0)
	if err != nil {
		return nil, err
	}
	return &Tree{root: newRoot}, nil
}

// insert() dispatches on node's concrete variant. depth is the first key bit not yet
// compared against node's subtree: a leaf splits from it there, and an existing
// BranchNode first checks bits [depth, Depth) against its shared prefix before
// dispatching on its own stored Depth
func insert(node Node, key Key, value []byte, sum uint64, depth int) (Node, lib.ErrorI) {
	switch n := node.(type) {
	case EmptyNode:
		return NewLeafNode(key, value, sum), nil
	case *LeafNode:
		if n.Key == key {
			// update path: re-insertion of the same key
			replacement := NewLeafNode(key, value, sum)
			if n.Equal(replacement) {
				return n, nil // already exactly this (value, sum); nothing changed
			}
			return replacement, nil
		}
		return divergeLeaves(n, NewLeafNode(key, value, sum), depth)
	case *BranchNode:
		// leaves beneath n share key bits [depth, n.Depth); a key leaving that prefix splits above n
		rep := Node(n)
		for b, ok := rep.(*BranchNode); ok; b, ok = rep.(*BranchNode) {
			rep = b.Left
		}
		for d := depth; d < n.Depth; d++ {
			if bi := bitAt(key, d); bi != bitAt(rep.(*LeafNode).Key, d) {
				if bi == 0 {
					return NewBranchNode(NewLeafNode(key, value, sum), n, d)
				}
				return NewBranchNode(n, NewLeafNode(key, value, sum), d)
			}
		}
		if bitAt(key, n.Depth) == 0 {
			newLeft, err := insert(n.Left, key, value, sum, n.Depth+1)
			if err != nil {
				return nil, err
			}
			return NewBranchNode(newLeft, n.Right, n.Depth)
		}
		newRight, err := insert(n.Right, key, value, sum, n.Depth+1)
		if err != nil {
			return nil, err
		}
		return NewBranchNode(n.Left, newRight, n.Depth)
	default:
		return nil, lib.ErrInvalidArgument()
	}
}

// divergeLeaves() descends bit by bit past the current depth until the two leaves'
// keys actually diverge, building the single branch that sits at that divergence
// depth. This is the divergence-depth descent the spec requires in place of the
// shallower split that would otherwise violate P1 for keys sharing leading bits
func divergeLeaves(existing, incoming *LeafNode, depth int) (Node, lib.ErrorI) {
	for d := depth; d < KeyBitLength; d++ {
		be, bi := bitAt(existing.Key, d), bitAt(incoming.Key, d)
		if be != bi {
			if bi == 0 {
				return NewBranchNode(incoming, existing, d)
			}
			return NewBranchNode(existing, incoming, d)
		}
	}
	// every one of the 256 bits matched: a genuine key collision
	return nil, lib.ErrKeyCollision()
}

// Get() returns the (value, sum) stored at key, or ErrKeyNotFound if key is absent -
// a normal, recoverable outcome rather than a programming error
func Get(t *Tree, key Key) ([]byte, uint64, lib.ErrorI) {
	node := t.root
	for {
		switch n := node.(type) {
		case EmptyNode:
			return nil, 0, lib.ErrKeyNotFound()
		case *LeafNode:
			if n.Key == key {
				return n.Value, n.sum, nil
			}
			return nil, 0, lib.ErrKeyNotFound()
		case *BranchNode:
			if bitAt(key, n.Depth) == 0 {
				node = n.Left
			} else {
				node = n.Right
			}
		default:
			return nil, 0, lib.ErrInvalidArgument()
		}
	}
}

// Delete() removes key from the tree, returning the resulting tree with ancestor
// branches collapsed per invariant B1. If key is absent the input tree is returned
// unchanged alongside ErrKeyNotFound
func Delete(t *Tree, key Key) (*Tree, lib.ErrorI) {
	newRoot, found, err := deleteNode(t.root, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return t, lib.ErrKeyNotFound()
	}
	return &Tree{root: newRoot}, nil
}

func deleteNode(node Node, key Key) (Node, bool, lib.ErrorI) {
	switch n := node.(type) {
	case EmptyNode:
		return node, false, nil
	case *LeafNode:
		if n.Key == key {
			return theEmptyNode, true, nil
		}
		return node, false, nil
	case *BranchNode:
		if bitAt(key, n.Depth) == 0 {
			newLeft, found, err := deleteNode(n.Left, key)
			if err != nil || !found {
				return node, found, err
			}
			collapsed, cErr := collapse(newLeft, n.Right, n.Depth)
			if cErr != nil {
				return nil, true, cErr
			}
			return collapsed, true, nil
		}
		newRight, found, err := deleteNode(n.Right, key)
		if err != nil || !found {
			return node, found, err
		}
		collapsed, cErr := collapse(n.Left, newRight, n.Depth)
		if cErr != nil {
			return nil, true, cErr
		}
		return collapsed, true, nil
	default:
		return node, false, lib.ErrInvalidArgument()
	}
}

// collapse() enforces invariant B1: a branch with one empty child is replaced by
// its non-empty child; a branch with two empty children collapses to Empty itself
func collapse(left, right Node, depth int) (Node, lib.ErrorI) {
	switch {
	case left.IsEmpty() && right.IsEmpty():
		return theEmptyNode, nil
	case left.IsEmpty():
		return right, nil
	case right.IsEmpty():
		return left, nil
	default:
		return NewBranchNode(left, right, depth)
	}
}

// LeafCount() returns the number of live leaves reachable from the tree's root,
// used by the metrics layer to report mssmt_tree_size
func LeafCount(t *Tree) int {
	return countLeaves(t.root)
}

func countLeaves(n Node) int {
	switch v := n.(type) {
	case *LeafNode:
		return 1
	case *BranchNode:
		return countLeaves(v.Left) + countLeaves(v.Right)
	default:
		return 0
	}
}
