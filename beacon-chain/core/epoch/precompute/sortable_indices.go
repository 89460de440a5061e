package precompute

import (
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// sortableIndices implements the Sort interface to sort validator indices waiting for activation
// by activation eligibility epoch and by index number.
type sortableIndices struct {
	indices []primitives.ValidatorIndex
	epochs  []primitives.Epoch
}

// Len is the number of elements in the collection.
func (s sortableIndices) Len() int { return len(s.indices) }

// Swap swaps the elements with indexes i and j.
func (s sortableIndices) Swap(i, j int) {
	s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
	s.epochs[i], s.epochs[j] = s.epochs[j], s.epochs[i]
}

// Less reports whether the element with index i must sort before the element with index j.
func (s sortableIndices) Less(i, j int) bool {
	if s.epochs[i] == s.epochs[j] {
		return s.indices[i] < s.indices[j]
	}
	return s.epochs[i] < s.epochs[j]
}
