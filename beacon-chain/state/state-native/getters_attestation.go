package state_native

import (
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

// PreviousEpochAttestations corresponding to blocks on the beacon chain.
func (b *BeaconState) PreviousEpochAttestations() ([]*ethpb.PendingAttestation, error) {
	if b.version != version.Phase0 {
		return nil, errNotSupported("PreviousEpochAttestations", b.version)
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyPendingAttestations(b.previousEpochAttestations), nil
}

// CurrentEpochAttestations corresponding to blocks on the beacon chain.
func (b *BeaconState) CurrentEpochAttestations() ([]*ethpb.PendingAttestation, error) {
	if b.version != version.Phase0 {
		return nil, errNotSupported("CurrentEpochAttestations", b.version)
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyPendingAttestations(b.currentEpochAttestations), nil
}

func copyPendingAttestations(atts []*ethpb.PendingAttestation) []*ethpb.PendingAttestation {
	if atts == nil {
		return nil
	}
	res := make([]*ethpb.PendingAttestation, len(atts))
	for i := range res {
		res[i] = atts[i].Copy()
	}
	return res
}
