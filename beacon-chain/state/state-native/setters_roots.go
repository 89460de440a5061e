package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// SetBlockRoots for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBlockRoots(val [][]byte) error {
	roots, err := rootsVector(val, fieldparams.BlockRootsLength, "block roots")
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.BlockRoots)
	b.blockRoots = roots
	b.markFieldAsDirty(types.BlockRoots)
	return nil
}

// UpdateBlockRootAtIndex for the beacon state. Updates the block root
// at a specific index to a new value.
func (b *BeaconState) UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.blockRoots)) {
		return errors.Wrapf(state.ErrOutOfBounds, "block roots index %d", idx)
	}
	b.detach(types.BlockRoots, func() {
		b.blockRoots = copyRoots(b.blockRoots)
	})
	b.blockRoots[idx] = blockRoot
	b.markFieldAsDirty(types.BlockRoots)
	return nil
}

// SetStateRoots for the beacon state. Updates the state roots
// to a new value by overwriting the previous value.
func (b *BeaconState) SetStateRoots(val [][]byte) error {
	roots, err := rootsVector(val, fieldparams.StateRootsLength, "state roots")
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.StateRoots)
	b.stateRoots = roots
	b.markFieldAsDirty(types.StateRoots)
	return nil
}

// UpdateStateRootAtIndex for the beacon state. Updates the state root
// at a specific index to a new value.
func (b *BeaconState) UpdateStateRootAtIndex(idx uint64, stateRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.stateRoots)) {
		return errors.Wrapf(state.ErrOutOfBounds, "state roots index %d", idx)
	}
	b.detach(types.StateRoots, func() {
		b.stateRoots = copyRoots(b.stateRoots)
	})
	b.stateRoots[idx] = stateRoot
	b.markFieldAsDirty(types.StateRoots)
	return nil
}

// SetRandaoMixes for the beacon state. Updates the entire
// randao mixes to a new value by overwriting the previous one.
func (b *BeaconState) SetRandaoMixes(val [][]byte) error {
	mixes, err := rootsVector(val, fieldparams.RandaoMixesLength, "randao mixes")
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.RandaoMixes)
	b.randaoMixes = mixes
	b.markFieldAsDirty(types.RandaoMixes)
	return nil
}

// UpdateRandaoMixesAtIndex for the beacon state. Updates the randao mixes
// at a specific index to a new value.
func (b *BeaconState) UpdateRandaoMixesAtIndex(idx uint64, val []byte) error {
	if len(val) != fieldparams.RootLength {
		return errors.Errorf("randao mix has %d bytes, want %d", len(val), fieldparams.RootLength)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.randaoMixes)) {
		return errors.Wrapf(state.ErrOutOfBounds, "randao mixes index %d", idx)
	}
	b.detach(types.RandaoMixes, func() {
		b.randaoMixes = copyRoots(b.randaoMixes)
	})
	b.randaoMixes[idx] = bytesutil.ToBytes32(val)
	b.markFieldAsDirty(types.RandaoMixes)
	return nil
}

func copyRoots(roots [][32]byte) [][32]byte {
	res := make([][32]byte, len(roots))
	copy(res, roots)
	return res
}
