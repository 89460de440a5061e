// Package stateutil computes the hash tree roots of beacon state fields.
package stateutil

import (
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ArraysRoot is the root of a fixed length vector of 32-byte roots. Missing
// entries hash as zero roots.
func ArraysRoot(input [][32]byte, length uint64) ([32]byte, error) {
	if uint64(len(input)) > length {
		return [32]byte{}, errors.Errorf("vector has %d elements, want at most %d", len(input), length)
	}
	return ssz.MerkleizeVector(input, length), nil
}

// HistoricalRootsRoot is the root of the historical roots list.
func HistoricalRootsRoot(roots [][32]byte) ([32]byte, error) {
	if uint64(len(roots)) > fieldparams.HistoricalRootsLength {
		return [32]byte{}, errors.New("historical roots exceed limit")
	}
	return ssz.MixInLength(ssz.MerkleizeVector(roots, fieldparams.HistoricalRootsLength), uint64(len(roots))), nil
}

// Eth1DataVotesRoot is the root of the eth1 votes list of the current voting period.
func Eth1DataVotesRoot(votes []*ethpb.Eth1Data) ([32]byte, error) {
	if len(votes) > fieldparams.Eth1DataVotesLength {
		return [32]byte{}, errors.New("eth1 data votes exceed limit")
	}
	root, err := ssz.MerkleizeListSSZ(votes, fieldparams.Eth1DataVotesLength)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not compute eth1data votes merkleization")
	}
	return root, nil
}

// EpochAttestationsRoot is the root of a phase0 pending attestation list.
func EpochAttestationsRoot(atts []*ethpb.PendingAttestation) ([32]byte, error) {
	if len(atts) > fieldparams.CurrentEpochAttestationsLength {
		return [32]byte{}, errors.New("pending attestations exceed limit")
	}
	root, err := ssz.MerkleizeListSSZ(atts, fieldparams.CurrentEpochAttestationsLength)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not compute epoch attestations merkleization")
	}
	return root, nil
}

// ParticipationBitsRoot is the root of an altair participation flag list.
func ParticipationBitsRoot(bits []byte) ([32]byte, error) {
	if uint64(len(bits)) > fieldparams.ValidatorRegistryLimit {
		return [32]byte{}, errors.New("participation bits exceed limit")
	}
	return ssz.ByteListRoot(bits, fieldparams.ValidatorRegistryLimit), nil
}

// Uint64ListRootWithRegistryLimit is the root of a uint64 list bounded by the registry limit,
// as used by balances and inactivity scores.
func Uint64ListRootWithRegistryLimit(vals []uint64) ([32]byte, error) {
	if uint64(len(vals)) > fieldparams.ValidatorRegistryLimit {
		return [32]byte{}, errors.New("list exceeds validator registry limit")
	}
	return ssz.Uint64ListRoot(vals, fieldparams.ValidatorRegistryLimit), nil
}

// SlashingsRoot is the root of the slashings vector.
func SlashingsRoot(slashings []uint64) ([32]byte, error) {
	if len(slashings) != fieldparams.SlashingsLength {
		return [32]byte{}, errors.Errorf("slashings vector has %d elements, want %d", len(slashings), fieldparams.SlashingsLength)
	}
	return ssz.Uint64VectorRoot(slashings), nil
}

// SyncCommitteeRoot is the root of a sync committee.
func SyncCommitteeRoot(committee *ethpb.SyncCommittee) ([32]byte, error) {
	if committee == nil {
		return [32]byte{}, errors.New("nil sync committee")
	}
	return committee.HashTreeRoot()
}
