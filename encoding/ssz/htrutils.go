// Package ssz holds the merkleization routines used for the beacon state's large fields.
// Small containers hash themselves through fastssz.
package ssz

import (
	"encoding/binary"

	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// Uint64Root computes the HashTreeRoot Merkleization of
// a simple uint64 value according to the Ethereum
// Simple Serialize specification.
func Uint64Root(val uint64) [32]byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	return bytesutil.ToBytes32(buf)
}

// PackBytes right-pads the input into 32-byte chunks.
func PackBytes(input []byte) [][32]byte {
	chunks := make([][32]byte, (len(input)+31)/32)
	for i := range chunks {
		copy(chunks[i][:], input[32*i:])
	}
	return chunks
}

// PackUint64s packs little-endian uint64s four to a chunk.
func PackUint64s(vals []uint64) [][32]byte {
	chunks := make([][32]byte, (len(vals)+3)/4)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(chunks[i/4][(i%4)*8:], v)
	}
	return chunks
}

// Uint64VectorRoot is the root of a fixed length uint64 vector.
func Uint64VectorRoot(vals []uint64) [32]byte {
	return MerkleizeVector(PackUint64s(vals), uint64(len(vals)+3)/4)
}

// Uint64ListRoot is the root of a uint64 list bounded by limit elements.
func Uint64ListRoot(vals []uint64, limit uint64) [32]byte {
	body := MerkleizeVector(PackUint64s(vals), (limit*8+31)/32)
	return MixInLength(body, uint64(len(vals)))
}

// ByteListRoot is the root of a byte list bounded by limit elements.
func ByteListRoot(vals []byte, limit uint64) [32]byte {
	body := MerkleizeVector(PackBytes(vals), (limit+31)/32)
	return MixInLength(body, uint64(len(vals)))
}

func toChunks(roots [][]byte) [][32]byte {
	chunks := make([][32]byte, len(roots))
	for i, r := range roots {
		chunks[i] = bytesutil.ToBytes32(r)
	}
	return chunks
}

// RootsVectorRoot is the root of a fixed length vector of 32-byte roots.
func RootsVectorRoot(roots [][]byte) [32]byte {
	return MerkleizeVector(toChunks(roots), uint64(len(roots)))
}

// RootsListRoot is the root of a list of 32-byte roots bounded by limit.
func RootsListRoot(roots [][]byte, limit uint64) [32]byte {
	return MixInLength(MerkleizeVector(toChunks(roots), limit), uint64(len(roots)))
}
