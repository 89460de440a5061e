// Package trie builds the sparse Merkle tree of the deposit contract and checks deposit
// branches against its root.
package trie

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// DepositTree is a fixed depth Merkle tree over deposit data roots. Leaves past the last
// deposit are zero and only stored implicitly, through ZeroHashes.
type DepositTree struct {
	// layers[0] holds the leaves, layers[depth] the root when there is at least one leaf.
	layers [][][32]byte
	count  uint64
}

// NewDepositTree hashes leaves into a tree of the given depth.
func NewDepositTree(leaves [][]byte, depth uint64) (*DepositTree, error) {
	if depth >= 64 {
		return nil, errors.Errorf("deposit tree depth %d is above 63", depth)
	}
	if uint64(len(leaves)) > uint64(1)<<depth {
		return nil, errors.Errorf("deposit tree of depth %d cannot hold %d leaves", depth, len(leaves))
	}
	layer := make([][32]byte, len(leaves))
	for i, leaf := range leaves {
		layer[i] = bytesutil.ToBytes32(leaf)
	}
	layers := make([][][32]byte, 0, depth+1)
	layers = append(layers, layer)
	for h := uint64(0); h < depth; h++ {
		parent := make([][32]byte, (len(layer)+1)/2)
		for i := range parent {
			right := ZeroHashes[h]
			if 2*i+1 < len(layer) {
				right = layer[2*i+1]
			}
			parent[i] = hashPair(layer[2*i][:], right[:])
		}
		layers = append(layers, parent)
		layer = parent
	}
	return &DepositTree{layers: layers, count: uint64(len(leaves))}, nil
}

// Count is the number of deposits in the tree.
func (t *DepositTree) Count() uint64 {
	return t.count
}

// Root is the deposit contract root: the tree root with the little endian deposit count
// mixed in.
func (t *DepositTree) Root() [32]byte {
	depth := len(t.layers) - 1
	root := ZeroHashes[depth]
	if top := t.layers[depth]; len(top) > 0 {
		root = top[0]
	}
	return hashPair(root[:], countLeaf(t.count))
}

// Proof returns the branch of deposit index, the count leaf included, so that it verifies
// against Root with VerifyProof at the tree's depth.
func (t *DepositTree) Proof(index uint64) ([][]byte, error) {
	if index >= t.count {
		return nil, errors.Errorf("deposit %d is out of range, the tree holds %d", index, t.count)
	}
	depth := len(t.layers) - 1
	proof := make([][]byte, depth+1)
	for h := 0; h < depth; h++ {
		sibling := ZeroHashes[h]
		if i := (index >> uint(h)) ^ 1; i < uint64(len(t.layers[h])) {
			sibling = t.layers[h][i]
		}
		proof[h] = sibling[:]
	}
	proof[depth] = countLeaf(t.count)
	return proof, nil
}

// VerifyProof reports whether proof is the branch of leaf at index under root in a tree of
// the given depth. The proof carries one node per level plus the count leaf.
func VerifyProof(root, leaf []byte, index uint64, proof [][]byte, depth uint64) bool {
	if depth >= 64 || uint64(len(proof)) != depth+1 {
		return false
	}
	node := bytesutil.ToBytes32(leaf)
	for h, sibling := range proof {
		if (index>>uint(h))&1 == 1 {
			node = hashPair(sibling, node[:])
		} else {
			node = hashPair(node[:], sibling)
		}
	}
	return bytes.Equal(root, node[:])
}

func hashPair(left, right []byte) [32]byte {
	return hash.Hash(append(append(make([]byte, 0, 64), left...), right...))
}

func countLeaf(count uint64) []byte {
	leaf := make([]byte, 32)
	binary.LittleEndian.PutUint64(leaf, count)
	return leaf
}
