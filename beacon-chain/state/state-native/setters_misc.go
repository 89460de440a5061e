package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetGenesisTime for the beacon state.
func (b *BeaconState) SetGenesisTime(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisTime = val
	b.markFieldAsDirty(types.GenesisTime)
	return nil
}

// SetGenesisValidatorsRoot for the beacon state.
func (b *BeaconState) SetGenesisValidatorsRoot(val []byte) error {
	if len(val) != fieldparams.RootLength {
		return errors.New("incorrect validators root length")
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisValidatorsRoot = bytesutil.ToBytes32(val)
	b.markFieldAsDirty(types.GenesisValidatorsRoot)
	return nil
}

// SetSlot for the beacon state.
func (b *BeaconState) SetSlot(val primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.slot = val
	b.markFieldAsDirty(types.Slot)
	return nil
}

// SetFork version for the beacon chain.
func (b *BeaconState) SetFork(val *ethpb.Fork) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.fork = val.Copy()
	b.markFieldAsDirty(types.Fork)
	return nil
}

// SetLatestBlockHeader in the beacon state.
func (b *BeaconState) SetLatestBlockHeader(val *ethpb.BeaconBlockHeader) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestBlockHeader = val.Copy()
	b.markFieldAsDirty(types.LatestBlockHeader)
	return nil
}

// SetHistoricalRoots for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetHistoricalRoots(val [][]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	roots := make([][32]byte, len(val))
	for i, r := range val {
		roots[i] = bytesutil.ToBytes32(r)
	}
	b.replaceRef(types.HistoricalRoots)
	b.historicalRoots = roots
	b.markFieldAsDirty(types.HistoricalRoots)
	return nil
}

// AppendHistoricalRoots for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendHistoricalRoots(root [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.HistoricalRoots, func() {
		roots := make([][32]byte, len(b.historicalRoots), len(b.historicalRoots)+1)
		copy(roots, b.historicalRoots)
		b.historicalRoots = roots
	})
	b.historicalRoots = append(b.historicalRoots, root)
	b.markFieldAsDirty(types.HistoricalRoots)
	return nil
}

// SetSlashings for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetSlashings(val []uint64) error {
	if len(val) != fieldparams.SlashingsLength {
		return errors.Errorf("slashings has %d entries, want %d", len(val), fieldparams.SlashingsLength)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.Slashings)
	b.slashings = make([]uint64, len(val))
	copy(b.slashings, val)
	b.markFieldAsDirty(types.Slashings)
	return nil
}

// UpdateSlashingsAtIndex for the beacon state. Updates the slashings
// at a specific index to a new value.
func (b *BeaconState) UpdateSlashingsAtIndex(idx, val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.slashings)) {
		return errors.Wrapf(state.ErrOutOfBounds, "slashings index %d", idx)
	}
	b.detach(types.Slashings, func() {
		s := make([]uint64, len(b.slashings))
		copy(s, b.slashings)
		b.slashings = s
	})
	b.slashings[idx] = val
	b.markFieldAsDirty(types.Slashings)
	return nil
}
