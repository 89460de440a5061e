package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

var errAttestationsFull = errors.New("pending attestations list is full")

// RotateAttestations sets the previous epoch attestations to the current epoch attestations and
// then clears the current epoch attestations.
func (b *BeaconState) RotateAttestations() error {
	if b.version != version.Phase0 {
		return errNotSupported("RotateAttestations", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.rotateRef(types.PreviousEpochAttestations, types.CurrentEpochAttestations)
	b.previousEpochAttestations = b.currentEpochAttestations
	b.currentEpochAttestations = []*ethpb.PendingAttestation{}
	b.markFieldAsDirty(types.PreviousEpochAttestations)
	b.markFieldAsDirty(types.CurrentEpochAttestations)
	return nil
}

// AppendCurrentEpochAttestations for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendCurrentEpochAttestations(val *ethpb.PendingAttestation) error {
	if b.version != version.Phase0 {
		return errNotSupported("AppendCurrentEpochAttestations", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.currentEpochAttestations)) >= fieldparams.CurrentEpochAttestationsLength {
		return errAttestationsFull
	}
	b.detach(types.CurrentEpochAttestations, func() {
		b.currentEpochAttestations = copyAttestationRefs(b.currentEpochAttestations)
	})
	b.currentEpochAttestations = append(b.currentEpochAttestations, val)
	b.markFieldAsDirty(types.CurrentEpochAttestations)
	return nil
}

// AppendPreviousEpochAttestations for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendPreviousEpochAttestations(val *ethpb.PendingAttestation) error {
	if b.version != version.Phase0 {
		return errNotSupported("AppendPreviousEpochAttestations", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.previousEpochAttestations)) >= fieldparams.PreviousEpochAttestationsLength {
		return errAttestationsFull
	}
	b.detach(types.PreviousEpochAttestations, func() {
		b.previousEpochAttestations = copyAttestationRefs(b.previousEpochAttestations)
	})
	b.previousEpochAttestations = append(b.previousEpochAttestations, val)
	b.markFieldAsDirty(types.PreviousEpochAttestations)
	return nil
}

func copyAttestationRefs(atts []*ethpb.PendingAttestation) []*ethpb.PendingAttestation {
	res := make([]*ethpb.PendingAttestation, len(atts), len(atts)+1)
	copy(res, atts)
	return res
}
