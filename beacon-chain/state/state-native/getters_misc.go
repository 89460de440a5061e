package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

func errNotSupported(funcName string, ver int) error {
	return errors.Errorf("%s is not supported for %s", funcName, version.String(ver))
}

// GenesisTime of the beacon state as a uint64.
func (b *BeaconState) GenesisTime() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.genesisTime
}

// GenesisValidatorsRoot of the beacon state.
func (b *BeaconState) GenesisValidatorsRoot() []byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return bytesutil.SafeCopyBytes(b.genesisValidatorsRoot[:])
}

// Slot of the current beacon chain state.
func (b *BeaconState) Slot() primitives.Slot {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.slot
}

// Fork version of the beacon chain.
func (b *BeaconState) Fork() *ethpb.Fork {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.fork.Copy()
}

// HistoricalRoots based on epochs stored in the beacon state.
func (b *BeaconState) HistoricalRoots() [][]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.historicalRoots == nil {
		return nil
	}
	return rootsToSlice(b.historicalRoots)
}

// Slashings of validators on the beacon chain.
func (b *BeaconState) Slashings() []uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	res := make([]uint64, len(b.slashings))
	copy(res, b.slashings)
	return res
}

// LatestBlockHeader stored within the beacon state.
func (b *BeaconState) LatestBlockHeader() *ethpb.BeaconBlockHeader {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.latestBlockHeader.Copy()
}

// BlockRoots kept track of in the beacon state.
func (b *BeaconState) BlockRoots() [][]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootsToSlice(b.blockRoots)
}

// BlockRootAtIndex retrieves a specific block root based on an
// input index value.
func (b *BeaconState) BlockRootAtIndex(idx uint64) ([]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootAtIndex(b.blockRoots, idx)
}

// StateRoots kept track of in the beacon state.
func (b *BeaconState) StateRoots() [][]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootsToSlice(b.stateRoots)
}

// StateRootAtIndex retrieves a specific state root based on an
// input index value.
func (b *BeaconState) StateRootAtIndex(idx uint64) ([]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootAtIndex(b.stateRoots, idx)
}

// RandaoMixes of block proposers on the beacon chain.
func (b *BeaconState) RandaoMixes() [][]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootsToSlice(b.randaoMixes)
}

// RandaoMixAtIndex retrieves a specific block root based on an
// input index value.
func (b *BeaconState) RandaoMixAtIndex(idx uint64) ([]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return rootAtIndex(b.randaoMixes, idx)
}

// RandaoMixesLength returns the length of the randao mixes slice.
func (b *BeaconState) RandaoMixesLength() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.randaoMixes)
}

func rootsToSlice(roots [][32]byte) [][]byte {
	res := make([][]byte, len(roots))
	for i := range roots {
		tmp := roots[i]
		res[i] = tmp[:]
	}
	return res
}

func rootAtIndex(roots [][32]byte, idx uint64) ([]byte, error) {
	if idx >= uint64(len(roots)) {
		return nil, errors.Errorf("index %d out of range", idx)
	}
	r := roots[idx]
	return r[:], nil
}
