// Package time derives the current, previous and next epoch of a beacon state.
package time

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
)

// CurrentEpoch returns the current epoch number calculated from
// the slot number stored in beacon state.
//
// Spec pseudocode definition:
//
//	def get_current_epoch(state: BeaconState) -> Epoch:
//	  """
//	  Return the current epoch.
//	  """
//	  return compute_epoch_at_slot(state.slot)
func CurrentEpoch(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState) primitives.Epoch {
	return slots.ToEpoch(cfg, st.Slot())
}

// PrevEpoch returns the previous epoch number calculated from
// the slot number stored in beacon state. It also checks for
// underflow condition.
//
// Spec pseudocode definition:
//
//	def get_previous_epoch(state: BeaconState) -> Epoch:
//	  """
//	  Return the previous epoch (unless the current epoch is ``GENESIS_EPOCH``).
//	  """
//	  current_epoch = get_current_epoch(state)
//	  return GENESIS_EPOCH if current_epoch == GENESIS_EPOCH else Epoch(current_epoch - 1)
func PrevEpoch(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState) primitives.Epoch {
	currentEpoch := CurrentEpoch(cfg, st)
	if currentEpoch == 0 {
		return 0
	}
	return currentEpoch - 1
}

// NextEpoch returns the next epoch number calculated from
// the slot number stored in beacon state.
func NextEpoch(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState) primitives.Epoch {
	return slots.ToEpoch(cfg, st.Slot()) + 1
}

// CanUpgradeToAltair returns true if the input `slot` can upgrade to Altair.
// Spec code:
// If state.slot % SLOTS_PER_EPOCH == 0 and compute_epoch_at_slot(state.slot) == ALTAIR_FORK_EPOCH
func CanUpgradeToAltair(cfg *params.BeaconChainConfig, slot primitives.Slot) bool {
	epochStart := slots.IsEpochStart(cfg, slot)
	altairEpoch := slots.ToEpoch(cfg, slot) == cfg.AltairForkEpoch
	return epochStart && altairEpoch
}

// CanProcessEpoch checks the eligibility to process epoch.
// The epoch can be processed at the end of the last slot of every epoch.
//
// Spec pseudocode definition:
//
//	If (state.slot + 1) % SLOTS_PER_EPOCH == 0:
func CanProcessEpoch(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState) bool {
	return slots.IsEpochEnd(cfg, st.Slot())
}
