package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
)

// BlockRootAtSlot returns the block root stored in the BeaconState for a recent slot.
// It returns an error if the requested block root is not within the slot range.
//
// Spec pseudocode definition:
//
//	def get_block_root_at_slot(state: BeaconState, slot: Slot) -> Root:
//	  """
//	  Return the block root at a recent ``slot``.
//	  """
//	  assert slot < state.slot <= slot + SLOTS_PER_HISTORICAL_ROOT
//	  return state.block_roots[slot % SLOTS_PER_HISTORICAL_ROOT]
func BlockRootAtSlot(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState, slot primitives.Slot) ([]byte, error) {
	upper, err := slot.SafeAdd(uint64(cfg.SlotsPerHistoricalRoot))
	if err != nil {
		return []byte{}, errors.Wrap(err, "slot overflows uint64")
	}
	if slot >= st.Slot() || st.Slot() > upper {
		return []byte{}, errors.Errorf("slot %d out of bounds", slot)
	}
	return st.BlockRootAtIndex(uint64(slot % cfg.SlotsPerHistoricalRoot))
}

// BlockRoot returns the block root stored in the BeaconState for epoch start slot.
//
// Spec pseudocode definition:
//
//	def get_block_root(state: BeaconState, epoch: Epoch) -> Root:
//	  """
//	  Return the block root at the start of a recent ``epoch``.
//	  """
//	  return get_block_root_at_slot(state, compute_start_slot_at_epoch(epoch))
func BlockRoot(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState, epoch primitives.Epoch) ([]byte, error) {
	s, err := slots.EpochStart(cfg, epoch)
	if err != nil {
		return nil, err
	}
	return BlockRootAtSlot(cfg, st, s)
}
