package hash_test

import (
	"crypto/sha256"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func TestHash_MatchesStdlib(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("hello"), make([]byte, 64)} {
		assert.Equal(t, sha256.Sum256(in), hash.Hash(in))
	}
}

func TestCustomSHA256Hasher_Reusable(t *testing.T) {
	h := hash.CustomSHA256Hasher()
	a := h([]byte("a"))
	b := h([]byte("b"))
	assert.Equal(t, hash.Hash([]byte("a")), a)
	assert.Equal(t, hash.Hash([]byte("b")), b)
}
