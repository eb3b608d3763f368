package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

const (
	HashSize = sha256.Size
)

/*
	Hash is a function that takes an input message and returns a fixed-size string of bytes that is unique to the input
    to produce a short, fixed-length representation of the data, which can be used for various applications like data
    integrity checks
*/

// Hasher() returns the global hashing algorithm used
func Hasher() hash.Hash { return sha256.New() }

// Hash() executes the global hashing algorithm on input bytes
func Hash(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// ShortHash() executes the global hashing algorithm on input bytes
// and truncates the output to 20 bytes
func ShortHash(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:20]
}

// ShortHashString() returns the hex byte version of a short hash
func ShortHashString(msg []byte) string { return hex.EncodeToString(ShortHash(msg)) }

// HashString() returns the hex byte version of a hash
func HashString(msg []byte) string { return hex.EncodeToString(Hash(msg)) }
