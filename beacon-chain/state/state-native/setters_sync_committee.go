package state_native

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

// SetCurrentSyncCommittee for the beacon state.
func (b *BeaconState) SetCurrentSyncCommittee(val *ethpb.SyncCommittee) error {
	if b.version == version.Phase0 {
		return errNotSupported("SetCurrentSyncCommittee", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.currentSyncCommittee = val.Copy()
	b.markFieldAsDirty(types.CurrentSyncCommittee)
	return nil
}

// SetNextSyncCommittee for the beacon state.
func (b *BeaconState) SetNextSyncCommittee(val *ethpb.SyncCommittee) error {
	if b.version == version.Phase0 {
		return errNotSupported("SetNextSyncCommittee", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextSyncCommittee = val.Copy()
	b.markFieldAsDirty(types.NextSyncCommittee)
	return nil
}
