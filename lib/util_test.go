package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesToStringRoundTrip(t *testing.T) {
	b := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	s := BytesToString(b)
	got, err := StringToBytes(s)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestBytesToTruncatedString(t *testing.T) {
	b := make([]byte, 32)
	got := BytesToTruncatedString(b)
	require.Len(t, got, 20) // 10 bytes hex-encoded
}

func TestHexBytesJSON(t *testing.T) {
	hb := HexBytes{0x01, 0x02, 0x03}
	bz, err := hb.MarshalJSON()
	require.NoError(t, err)
	var got HexBytes
	require.NoError(t, got.UnmarshalJSON(bz))
	require.Equal(t, hb, got)
}

func TestJoinLenPrefixRoundTrip(t *testing.T) {
	a, b := []byte("leaves"), []byte("k")
	joined := JoinLenPrefix(a, b)
	segments := DecodeLengthPrefixed(joined)
	require.Equal(t, [][]byte{a, b}, segments)
}

func TestCatchPanic(t *testing.T) {
	l := NewNullLogger()
	func() {
		defer CatchPanic(l)
		panic("boom")
	}()
	// reaching here proves the panic was recovered
}
