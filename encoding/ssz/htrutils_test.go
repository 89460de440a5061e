package ssz_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

// naiveRoot hashes a full power-of-two layer without any zero-hash shortcuts.
func naiveRoot(chunks [][32]byte, length int) [32]byte {
	width := 1
	for width < length {
		width *= 2
	}
	layer := make([][32]byte, width)
	copy(layer, chunks)
	for len(layer) > 1 {
		next := make([][32]byte, len(layer)/2)
		for i := range next {
			next[i] = hash.Hash(append(layer[2*i][:], layer[2*i+1][:]...))
		}
		layer = next
	}
	return layer[0]
}

func TestDepth(t *testing.T) {
	cases := map[uint64]uint8{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 1 << 40: 40}
	for in, want := range cases {
		assert.Equal(t, want, ssz.Depth(in))
	}
}

func TestMerkleizeVector_MatchesNaive(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		chunks := make([][32]byte, n)
		for i := range chunks {
			chunks[i][0] = byte(i + 1)
		}
		for _, length := range []int{n, 16} {
			if length < n {
				continue
			}
			assert.Equal(t, naiveRoot(chunks, length), ssz.MerkleizeVector(chunks, uint64(length)))
		}
	}
}

func TestMerkleizeVector_DoesNotMutateInput(t *testing.T) {
	chunks := [][32]byte{{1}, {2}, {3}}
	ssz.MerkleizeVector(chunks, 4)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, [32]byte{3}, chunks[2])
}

func TestMerkleizeVector_Empty(t *testing.T) {
	assert.Equal(t, trie.ZeroHashes[5], ssz.MerkleizeVector(nil, 32))
}

func TestUint64Root(t *testing.T) {
	expected := [32]byte{210, 2, 150, 73}
	assert.Equal(t, expected, ssz.Uint64Root(1234567890))
}

func TestUint64ListRoot_Empty(t *testing.T) {
	// A list limited to 2^40 uint64s spans 2^38 chunks.
	want := ssz.MixInLength(trie.ZeroHashes[38], 0)
	assert.Equal(t, want, ssz.Uint64ListRoot(nil, 1<<40))
}

func TestPackUint64s(t *testing.T) {
	chunks := ssz.PackUint64s([]uint64{1, 2, 3, 4, 5})
	assert.Equal(t, 2, len(chunks))
	assert.Equal(t, byte(2), chunks[0][8])
	assert.Equal(t, byte(5), chunks[1][0])
}

func TestRootsVectorRoot_MatchesNaive(t *testing.T) {
	roots := [][]byte{{1}, {2}, {3}, {4}}
	chunks := [][32]byte{{1}, {2}, {3}, {4}}
	assert.Equal(t, naiveRoot(chunks, 4), ssz.RootsVectorRoot(roots))
	assert.Equal(t, ssz.MixInLength(naiveRoot(chunks, 8), 4), ssz.RootsListRoot(roots, 8))
}

type fixedRoot [32]byte

func (f fixedRoot) HashTreeRoot() ([32]byte, error) {
	return f, nil
}

type brokenRoot struct{}

func (brokenRoot) HashTreeRoot() ([32]byte, error) {
	return [32]byte{}, errors.New("broken")
}

func TestMerkleizeListSSZ(t *testing.T) {
	got, err := ssz.MerkleizeListSSZ([]fixedRoot{{1}, {2}, {3}}, 8)
	require.NoError(t, err)
	assert.Equal(t, ssz.RootsListRoot([][]byte{{1}, {2}, {3}}, 8), got)

	empty, err := ssz.MerkleizeListSSZ([]fixedRoot{}, 1024)
	require.NoError(t, err)
	assert.Equal(t, ssz.MixInLength(trie.ZeroHashes[10], 0), empty)

	_, err = ssz.MerkleizeListSSZ([]brokenRoot{{}}, 4)
	require.ErrorContains(t, "broken", err)
}
