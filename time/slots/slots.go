// Package slots converts between slots, epochs and sync committee periods for a given chain config.
package slots

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// ToEpoch returns the epoch number of the input slot.
//
// Spec pseudocode definition:
//
//	def compute_epoch_at_slot(slot: Slot) -> Epoch:
//	  """
//	  Return the epoch number at ``slot``.
//	  """
//	  return Epoch(slot // SLOTS_PER_EPOCH)
func ToEpoch(cfg *params.BeaconChainConfig, slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(slot.Div(uint64(cfg.SlotsPerEpoch)))
}

// EpochStart returns the first slot number of the current epoch.
//
// Spec pseudocode definition:
//
//	def compute_start_slot_at_epoch(epoch: Epoch) -> Slot:
//	  """
//	  Return the start slot of ``epoch``.
//	  """
//	  return Slot(epoch * SLOTS_PER_EPOCH)
func EpochStart(cfg *params.BeaconChainConfig, epoch primitives.Epoch) (primitives.Slot, error) {
	slot, err := primitives.Slot(cfg.SlotsPerEpoch).SafeMul(uint64(epoch))
	if err != nil {
		return slot, errors.Errorf("start slot calculation overflows: %v", err)
	}
	return slot, nil
}

// EpochEnd returns the last slot number of the given epoch.
func EpochEnd(cfg *params.BeaconChainConfig, epoch primitives.Epoch) (primitives.Slot, error) {
	next, err := epoch.SafeAdd(1)
	if err != nil {
		return 0, err
	}
	start, err := EpochStart(cfg, next)
	if err != nil {
		return 0, err
	}
	return start - 1, nil
}

// IsEpochStart returns true if the given slot number is an epoch starting slot
// number.
func IsEpochStart(cfg *params.BeaconChainConfig, slot primitives.Slot) bool {
	return slot%cfg.SlotsPerEpoch == 0
}

// IsEpochEnd returns true if the given slot number is an epoch ending slot
// number.
func IsEpochEnd(cfg *params.BeaconChainConfig, slot primitives.Slot) bool {
	return IsEpochStart(cfg, slot+1)
}

// SinceEpochStarts returns number of slots since the start of the epoch.
func SinceEpochStarts(cfg *params.BeaconChainConfig, slot primitives.Slot) primitives.Slot {
	return slot % cfg.SlotsPerEpoch
}

// SyncCommitteePeriod returns the sync committee period of input epoch `e`.
//
// Spec code:
//
//	def compute_sync_committee_period(epoch: Epoch) -> uint64:
//	  return epoch // EPOCHS_PER_SYNC_COMMITTEE_PERIOD
func SyncCommitteePeriod(cfg *params.BeaconChainConfig, e primitives.Epoch) uint64 {
	return uint64(e / cfg.EpochsPerSyncCommitteePeriod)
}

// SyncCommitteePeriodStartEpoch returns the start epoch of a sync committee period.
func SyncCommitteePeriodStartEpoch(cfg *params.BeaconChainConfig, e primitives.Epoch) (primitives.Epoch, error) {
	return primitives.Epoch(SyncCommitteePeriod(cfg, e)).SafeMul(uint64(cfg.EpochsPerSyncCommitteePeriod))
}
