package state_native

import (
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// JustificationBits marking which epochs have been justified in the beacon chain.
func (b *BeaconState) JustificationBits() bitfield.Bitvector4 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return bytesutil.SafeCopyBytes(b.justificationBits)
}

// PreviousJustifiedCheckpoint denoting an epoch and block root.
func (b *BeaconState) PreviousJustifiedCheckpoint() *ethpb.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.previousJustifiedCheckpoint.Copy()
}

// CurrentJustifiedCheckpoint denoting an epoch and block root.
func (b *BeaconState) CurrentJustifiedCheckpoint() *ethpb.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.currentJustifiedCheckpoint.Copy()
}

// FinalizedCheckpoint denoting an epoch and block root.
func (b *BeaconState) FinalizedCheckpoint() *ethpb.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.finalizedCheckpoint.Copy()
}

// FinalizedCheckpointEpoch returns the epoch value of the finalized checkpoint.
func (b *BeaconState) FinalizedCheckpointEpoch() primitives.Epoch {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.finalizedCheckpoint == nil {
		return 0
	}
	return b.finalizedCheckpoint.Epoch
}
