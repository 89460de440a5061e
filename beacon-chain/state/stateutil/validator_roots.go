package stateutil

import (
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ValidatorLeaves holds the hash tree root of every validator in a registry, so that the
// registry root can be recomputed after only touching the validators that changed.
// A ValidatorLeaves value is shared between state copies and must be copied before
// being updated when it has more than one reference.
type ValidatorLeaves struct {
	roots [][32]byte
}

// NewValidatorLeaves hashes every validator of the registry.
func NewValidatorLeaves(vals []*ethpb.Validator) (*ValidatorLeaves, error) {
	roots := make([][32]byte, len(vals))
	for i, v := range vals {
		if v == nil {
			return nil, errors.Errorf("nil validator at index %d", i)
		}
		r, err := v.HashTreeRoot()
		if err != nil {
			return nil, errors.Wrapf(err, "could not hash validator %d", i)
		}
		roots[i] = r
	}
	return &ValidatorLeaves{roots: roots}, nil
}

// Copy returns an independent set of leaves.
func (l *ValidatorLeaves) Copy() *ValidatorLeaves {
	roots := make([][32]byte, len(l.roots), len(l.roots)+1)
	copy(roots, l.roots)
	return &ValidatorLeaves{roots: roots}
}

// Len is the number of hashed validators.
func (l *ValidatorLeaves) Len() int {
	return len(l.roots)
}

// Update rehashes the validators at the given indices. Indices beyond the current
// length extend the leaves, which must then be contiguous.
func (l *ValidatorLeaves) Update(vals []*ethpb.Validator, indices []uint64) error {
	if len(vals) > len(l.roots) {
		grown := make([][32]byte, len(vals))
		copy(grown, l.roots)
		l.roots = grown
	}
	for _, idx := range indices {
		if idx >= uint64(len(vals)) {
			return errors.Errorf("validator index %d out of range", idx)
		}
		r, err := vals[idx].HashTreeRoot()
		if err != nil {
			return errors.Wrapf(err, "could not hash validator %d", idx)
		}
		l.roots[idx] = r
	}
	return nil
}

// Root is the validator registry root.
func (l *ValidatorLeaves) Root() [32]byte {
	return ssz.MixInLength(ssz.MerkleizeVector(l.roots, fieldparams.ValidatorRegistryLimit), uint64(len(l.roots)))
}

// ValidatorRegistryRoot computes the registry root from scratch.
func ValidatorRegistryRoot(vals []*ethpb.Validator) ([32]byte, error) {
	leaves, err := NewValidatorLeaves(vals)
	if err != nil {
		return [32]byte{}, err
	}
	return leaves.Root(), nil
}
