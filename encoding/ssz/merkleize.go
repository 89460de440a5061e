package ssz

import (
	"encoding/binary"
	"math/bits"

	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/gohashtree"
)

// Depth is the height of the smallest binary tree with at least v leaves.
func Depth(v uint64) uint8 {
	if v <= 1 {
		return 0
	}
	return uint8(bits.Len64(v - 1))
}

// MerkleizeVector hashes a list of 32-byte chunks as a tree with room for
// length leaves. Missing leaves are zero chunks. The input slice is not modified.
func MerkleizeVector(elements [][32]byte, length uint64) [32]byte {
	depth := Depth(length)
	if len(elements) == 0 {
		return trie.ZeroHashes[depth]
	}
	layer := make([][32]byte, len(elements), len(elements)+1)
	copy(layer, elements)
	for i := uint8(0); i < depth; i++ {
		if len(layer)%2 == 1 {
			layer = append(layer, trie.ZeroHashes[i])
		}
		next := make([][32]byte, len(layer)/2)
		if err := gohashtree.Hash(next, layer); err != nil {
			// Only returned on mismatched lengths, which the padding above rules out.
			panic(err)
		}
		layer = next
	}
	return layer[0]
}

// MixInLength mixes a list length into its content root.
func MixInLength(root [32]byte, length uint64) [32]byte {
	chunks := make([][32]byte, 2)
	chunks[0] = root
	binary.LittleEndian.PutUint64(chunks[1][:], length)
	out := make([][32]byte, 1)
	if err := gohashtree.Hash(out, chunks); err != nil {
		panic(err)
	}
	return out[0]
}

// Hashable is an SSZ container with its own tree hash.
type Hashable interface {
	HashTreeRoot() ([32]byte, error)
}

// MerkleizeListSSZ is the root of a list of containers with the given limit.
func MerkleizeListSSZ[T Hashable](elements []T, limit uint64) ([32]byte, error) {
	roots := make([][32]byte, len(elements))
	for i, el := range elements {
		r, err := el.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		roots[i] = r
	}
	return MixInLength(MerkleizeVector(roots, limit), uint64(len(elements))), nil
}
