package mssmt

import (
	"encoding/binary"
	"testing"

	"github.com/msmt-labs/mssmt/lib/crypto"
	"github.com/stretchr/testify/require"
)

func TestLeafDigestPreimage(t *testing.T) {
	value := []byte("a")
	sum := uint64(5)
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], sum)
	h := crypto.Hasher()
	h.Write(value)
	h.Write(le[:])
	expected := h.Sum(nil)
	require.Equal(t, expected, leafDigest(value, sum))
}

func TestBranchDigestPreimage(t *testing.T) {
	left := leafDigest([]byte("x"), 3)
	right := leafDigest([]byte("y"), 7)
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], 10)
	h := crypto.Hasher()
	h.Write(left)
	h.Write(right)
	h.Write(le[:])
	expected := h.Sum(nil)
	require.Equal(t, expected, branchDigest(left, right, 3, 7))
}

func TestEmptyDigestIsAllZero(t *testing.T) {
	require.Equal(t, make([]byte, crypto.HashSize), emptyDigest)
	require.Len(t, emptyDigest, 32)
}

func TestBitAtIsMSBFirst(t *testing.T) {
	var k Key
	k[0] = 0x80 // 1000 0000
	require.Equal(t, uint8(1), bitAt(k, 0))
	require.Equal(t, uint8(0), bitAt(k, 1))

	k = Key{}
	k[31] = 0x01 // last byte, last bit
	require.Equal(t, uint8(1), bitAt(k, 255))
	require.Equal(t, uint8(0), bitAt(k, 254))
}
