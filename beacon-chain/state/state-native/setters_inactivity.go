package state_native

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

// AppendInactivityScore for the beacon state.
func (b *BeaconState) AppendInactivityScore(s uint64) error {
	if b.version == version.Phase0 {
		return errNotSupported("AppendInactivityScore", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.InactivityScores, func() {
		scores := make([]uint64, len(b.inactivityScores), len(b.inactivityScores)+1)
		copy(scores, b.inactivityScores)
		b.inactivityScores = scores
	})
	b.inactivityScores = append(b.inactivityScores, s)
	b.markFieldAsDirty(types.InactivityScores)
	return nil
}

// SetInactivityScores for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetInactivityScores(val []uint64) error {
	if b.version == version.Phase0 {
		return errNotSupported("SetInactivityScores", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.InactivityScores)
	b.inactivityScores = val
	b.markFieldAsDirty(types.InactivityScores)
	return nil
}
