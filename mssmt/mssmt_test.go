package mssmt

import (
	"math"
	"testing"

	"github.com/msmt-labs/mssmt/lib"
	"github.com/stretchr/testify/require"
)

func keyFromLastByte(b byte) Key {
	var k Key
	k[31] = b
	return k
}

func keyWithHighBit() Key {
	var k Key
	k[0] = 0x80
	return k
}

func TestScenarioSingletonRootStability(t *testing.T) {
	tr := New()
	k := keyFromLastByte(1)
	tr, err := Insert(tr, k, []byte("a"), 5)
	require.Nil(t, err)
	require.Equal(t, leafDigest([]byte("a"), 5), RootHash(tr))
	require.Equal(t, uint64(5), TotalSum(tr))
	require.Empty(t, MerkleProof(tr, k))
	require.True(t, VerifyProof(RootHash(tr), k, []byte("a"), 5, MerkleProof(tr, k)))
}

func TestScenarioTwoLeafBranch(t *testing.T) {
	tr := New()
	k1, k2 := Key{}, keyWithHighBit()
	tr, err := Insert(tr, k1, []byte("x"), 3)
	require.Nil(t, err)
	tr, err = Insert(tr, k2, []byte("y"), 7)
	require.Nil(t, err)
	require.Equal(t, uint64(10), TotalSum(tr))
	expected := branchDigest(leafDigest([]byte("x"), 3), leafDigest([]byte("y"), 7), 3, 7)
	require.Equal(t, expected, RootHash(tr))
}

func TestScenarioDeepDivergence(t *testing.T) {
	tr := New()
	k1 := Key{}
	k2 := Key{}
	k2[31] = 0x01
	var err error
	tr, err = Insert(tr, k1, []byte("a"), 1)
	require.Nil(t, err)
	tr, err = Insert(tr, k2, []byte("b"), 2)
	require.Nil(t, err)

	proof1 := MerkleProof(tr, k1)
	require.True(t, VerifyProof(RootHash(tr), k1, []byte("a"), 1, proof1))

	proof2 := MerkleProof(tr, k2)
	require.True(t, VerifyProof(RootHash(tr), k2, []byte("b"), 2, proof2))
}

func TestScenarioInsertionOrderIndependence(t *testing.T) {
	type entry struct {
		key   Key
		value string
		sum   uint64
	}
	entries := []entry{
		{keyFromLastByte(1), "a", 1},
		{keyFromLastByte(2), "b", 2},
		{keyFromLastByte(3), "c", 3},
	}
	orders := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	var roots [][]byte
	for _, order := range orders {
		tr := New()
		for _, idx := range order {
			e := entries[idx]
			var err error
			tr, err = Insert(tr, e.key, []byte(e.value), e.sum)
			require.Nil(t, err)
		}
		roots = append(roots, RootHash(tr))
	}
	for i := 1; i < len(roots); i++ {
		require.Equal(t, roots[0], roots[i])
	}
}

func TestScenarioDeleteCollapsesBranches(t *testing.T) {
	k1, k2 := keyFromLastByte(1), keyFromLastByte(2)
	tr := New()
	tr, err := Insert(tr, k1, []byte("a"), 1)
	require.Nil(t, err)
	tr, err = Insert(tr, k2, []byte("b"), 2)
	require.Nil(t, err)

	tr, err = Delete(tr, k2)
	require.Nil(t, err)

	solo := New()
	solo, err = Insert(solo, k1, []byte("a"), 1)
	require.Nil(t, err)

	require.Equal(t, RootHash(solo), RootHash(tr))
	require.Equal(t, TotalSum(solo), TotalSum(tr))
}

func TestScenarioProofTamperingRejected(t *testing.T) {
	k1, k2, k3 := keyFromLastByte(1), keyFromLastByte(2), keyFromLastByte(3)
	tr := New()
	tr, _ = Insert(tr, k1, []byte("a"), 1)
	tr, _ = Insert(tr, k2, []byte("b"), 2)
	tr, _ = Insert(tr, k3, []byte("c"), 3)

	proof := MerkleProof(tr, k2)
	require.True(t, VerifyProof(RootHash(tr), k2, []byte("b"), 2, proof))

	tampered := make([]Sibling, len(proof))
	copy(tampered, proof)
	tampered[0].Digest = append([]byte{}, tampered[0].Digest...)
	tampered[0].Digest[0] ^= 0xFF
	require.False(t, VerifyProof(RootHash(tr), k2, []byte("b"), 2, tampered))

	require.False(t, VerifyProof(RootHash(tr), k2, []byte("b"), 3, proof))
}

func TestInsertGetLaw(t *testing.T) {
	tr := New()
	k := keyFromLastByte(42)
	tr, err := Insert(tr, k, []byte("value"), 99)
	require.Nil(t, err)
	v, s, err := Get(tr, k)
	require.Nil(t, err)
	require.Equal(t, []byte("value"), v)
	require.Equal(t, uint64(99), s)
}

func TestUpdateLaw(t *testing.T) {
	tr := New()
	k := keyFromLastByte(7)
	tr, err := Insert(tr, k, []byte("v1"), 1)
	require.Nil(t, err)
	tr, err = Insert(tr, k, []byte("v2"), 2)
	require.Nil(t, err)
	v, s, err := Get(tr, k)
	require.Nil(t, err)
	require.Equal(t, []byte("v2"), v)
	require.Equal(t, uint64(2), s)

	fresh := New()
	fresh, err = Insert(fresh, k, []byte("v2"), 2)
	require.Nil(t, err)
	require.Equal(t, RootHash(fresh), RootHash(tr))
}

func TestInsertDeleteIdentityLaw(t *testing.T) {
	tr := New()
	k1, k2 := keyFromLastByte(1), keyFromLastByte(2)
	tr, err := Insert(tr, k1, []byte("a"), 10)
	require.Nil(t, err)
	beforeRoot, beforeSum := RootHash(tr), TotalSum(tr)

	withK2, err := Insert(tr, k2, []byte("b"), 20)
	require.Nil(t, err)
	afterDelete, err := Delete(withK2, k2)
	require.Nil(t, err)

	require.Equal(t, beforeRoot, RootHash(afterDelete))
	require.Equal(t, beforeSum, TotalSum(afterDelete))
}

func TestSumHomomorphismLaw(t *testing.T) {
	tr := New()
	total := uint64(0)
	for i := byte(1); i <= 20; i++ {
		var err error
		tr, err = Insert(tr, keyFromLastByte(i), []byte{i}, uint64(i))
		require.Nil(t, err)
		total += uint64(i)
	}
	require.Equal(t, total, TotalSum(tr))
}

func TestProofCompletenessLaw(t *testing.T) {
	tr := New()
	keys := []Key{keyFromLastByte(1), keyFromLastByte(2), keyFromLastByte(3), keyWithHighBit()}
	values := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	sums := []uint64{1, 2, 3, 4}
	for i := range keys {
		var err error
		tr, err = Insert(tr, keys[i], values[i], sums[i])
		require.Nil(t, err)
	}
	for i := range keys {
		v, s, err := Get(tr, keys[i])
		require.Nil(t, err)
		require.True(t, VerifyProof(RootHash(tr), keys[i], v, s, MerkleProof(tr, keys[i])))
	}
}

func TestProofSoundnessLaw(t *testing.T) {
	tr := New()
	k := keyFromLastByte(9)
	tr, err := Insert(tr, k, []byte("v"), 3)
	require.Nil(t, err)
	proof := MerkleProof(tr, k)
	require.True(t, VerifyProof(RootHash(tr), k, []byte("v"), 3, proof))
	v, s, err := Get(tr, k)
	require.Nil(t, err)
	require.Equal(t, []byte("v"), v)
	require.Equal(t, uint64(3), s)
}

func TestEmptyTreeConventions(t *testing.T) {
	tr := New()
	require.Equal(t, emptyDigest, RootHash(tr))
	require.Equal(t, uint64(0), TotalSum(tr))
	require.Empty(t, MerkleProof(tr, keyFromLastByte(1)))
}

func TestGetNotFound(t *testing.T) {
	tr := New()
	tr, err := Insert(tr, keyFromLastByte(1), []byte("a"), 1)
	require.Nil(t, err)
	_, _, err = Get(tr, keyFromLastByte(2))
	require.NotNil(t, err)
	require.Equal(t, lib.CodeKeyNotFound, err.Code())
}

func TestDeleteAbsentIsNotFound(t *testing.T) {
	tr := New()
	tr, err := Insert(tr, keyFromLastByte(1), []byte("a"), 1)
	require.Nil(t, err)
	beforeRoot := RootHash(tr)
	got, err := Delete(tr, keyFromLastByte(9))
	require.NotNil(t, err)
	require.Equal(t, lib.CodeKeyNotFound, err.Code())
	require.Equal(t, beforeRoot, RootHash(got))
}

func TestLeafCount(t *testing.T) {
	tr := New()
	require.Equal(t, 0, LeafCount(tr))
	var err error
	for i := byte(1); i <= 5; i++ {
		tr, err = Insert(tr, keyFromLastByte(i), []byte{i}, uint64(i))
		require.Nil(t, err)
	}
	require.Equal(t, 5, LeafCount(tr))
	tr, err = Delete(tr, keyFromLastByte(3))
	require.Nil(t, err)
	require.Equal(t, 4, LeafCount(tr))
}

func TestReinsertingSameValueIsNoOp(t *testing.T) {
	tr := New()
	k := keyFromLastByte(4)
	tr, err := Insert(tr, k, []byte("same"), 9)
	require.Nil(t, err)
	beforeRoot := RootHash(tr)
	tr, err = Insert(tr, k, []byte("same"), 9)
	require.Nil(t, err)
	require.Equal(t, beforeRoot, RootHash(tr))
}

func TestBranchSumOverflowRejected(t *testing.T) {
	left := NewLeafNode(keyFromLastByte(1), []byte("a"), math.MaxUint64)
	right := NewLeafNode(keyWithHighBit(), []byte("b"), 1)
	_, err := NewBranchNode(left, right, 0)
	require.NotNil(t, err)
	require.Equal(t, lib.CodeSumOverflow, err.Code())
}
