package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// Justification bit patterns checked for finalization, newest epoch in bit 0.
const (
	finalizeOldPrevThreeBits = 0x0E // bits 1, 2 and 3
	finalizeOldPrevTwoBits   = 0x06 // bits 1 and 2
	finalizeOldCurThreeBits  = 0x07 // bits 0, 1 and 2
	finalizeOldCurTwoBits    = 0x03 // bits 0 and 1
)

// ProcessJustificationAndFinalizationPreCompute processes justification and finalization during
// epoch processing. This is where a beacon node can justify and finalize a new epoch.
// The attesting balances come from the pre computed epoch process.
//
// Spec pseudocode definition:
//
//	def process_justification_and_finalization(state: BeaconState) -> None:
//	  # Initial FFG checkpoint values have a `0x00` stub for `root`.
//	  # Skip FFG updates in the first two epochs to avoid corner cases that might result in modifying this stub.
//	  if get_current_epoch(state) <= GENESIS_EPOCH + 1:
//	      return
//	  previous_indices = get_unslashed_participating_indices(state, TIMELY_TARGET_FLAG_INDEX, get_previous_epoch(state))
//	  current_indices = get_unslashed_participating_indices(state, TIMELY_TARGET_FLAG_INDEX, get_current_epoch(state))
//	  total_active_balance = get_total_active_balance(state)
//	  previous_target_balance = get_total_balance(state, previous_indices)
//	  current_target_balance = get_total_balance(state, current_indices)
//	  weigh_justification_and_finalization(state, total_active_balance, previous_target_balance, current_target_balance)
func ProcessJustificationAndFinalizationPreCompute(st *cache.CachedBeaconState, pBal *Balance) error {
	if pBal == nil {
		return ErrNilEpochProcess
	}
	cfg := st.Config()
	canProcessSlot, err := cfg.GenesisEpoch.SafeAdd(1)
	if err != nil {
		return err
	}
	if time.CurrentEpoch(cfg, st) <= canProcessSlot {
		return nil
	}
	return weighJustificationAndFinalization(cfg, st, pBal.ActiveCurrentEpoch, pBal.PrevEpochTargetAttested, pBal.CurrentEpochTargetAttested)
}

// weighJustificationAndFinalization processes justification and finalization during
// epoch processing. This is where a beacon node can justify and finalize a new epoch.
//
// Spec pseudocode definition:
//
//	def weigh_justification_and_finalization(state: BeaconState,
//	                                      total_active_balance: Gwei,
//	                                      previous_epoch_target_balance: Gwei,
//	                                      current_epoch_target_balance: Gwei) -> None:
//	  previous_epoch = get_previous_epoch(state)
//	  current_epoch = get_current_epoch(state)
//	  old_previous_justified_checkpoint = state.previous_justified_checkpoint
//	  old_current_justified_checkpoint = state.current_justified_checkpoint
//
//	  # Process justifications
//	  state.previous_justified_checkpoint = state.current_justified_checkpoint
//	  state.justification_bits[1:] = state.justification_bits[:JUSTIFICATION_BITS_LENGTH - 1]
//	  state.justification_bits[0] = 0b0
//	  if previous_epoch_target_balance * 3 >= total_active_balance * 2:
//	      state.current_justified_checkpoint = Checkpoint(epoch=previous_epoch,
//	                                                      root=get_block_root(state, previous_epoch))
//	      state.justification_bits[1] = 0b1
//	  if current_epoch_target_balance * 3 >= total_active_balance * 2:
//	      state.current_justified_checkpoint = Checkpoint(epoch=current_epoch,
//	                                                      root=get_block_root(state, current_epoch))
//	      state.justification_bits[0] = 0b1
//
//	  # Process finalizations
//	  bits = state.justification_bits
//	  # The 2nd/3rd/4th most recent epochs are justified, the 2nd using the 4th as source
//	  if all(bits[1:4]) and old_previous_justified_checkpoint.epoch + 3 == current_epoch:
//	      state.finalized_checkpoint = old_previous_justified_checkpoint
//	  # The 2nd/3rd most recent epochs are justified, the 2nd using the 3rd as source
//	  if all(bits[1:3]) and old_previous_justified_checkpoint.epoch + 2 == current_epoch:
//	      state.finalized_checkpoint = old_previous_justified_checkpoint
//	  # The 1st/2nd/3rd most recent epochs are justified, the 1st using the 3rd as source
//	  if all(bits[0:3]) and old_current_justified_checkpoint.epoch + 2 == current_epoch:
//	      state.finalized_checkpoint = old_current_justified_checkpoint
//	  # The 1st/2nd most recent epochs are justified, the 1st using the 2nd as source
//	  if all(bits[0:2]) and old_current_justified_checkpoint.epoch + 1 == current_epoch:
//	      state.finalized_checkpoint = old_current_justified_checkpoint
func weighJustificationAndFinalization(
	cfg *params.BeaconChainConfig,
	st *cache.CachedBeaconState,
	totalActiveBalance, prevEpochTargetBalance, currEpochTargetBalance uint64,
) error {
	prevEpoch := time.PrevEpoch(cfg, st)
	currentEpoch := time.CurrentEpoch(cfg, st)
	oldPrevJustifiedCheckpoint := st.PreviousJustifiedCheckpoint()
	oldCurrJustifiedCheckpoint := st.CurrentJustifiedCheckpoint()
	if oldPrevJustifiedCheckpoint == nil || oldCurrJustifiedCheckpoint == nil {
		return errors.New("nil justified checkpoint")
	}

	// Process justifications
	if err := st.SetPreviousJustifiedCheckpoint(oldCurrJustifiedCheckpoint.Copy()); err != nil {
		return err
	}
	bits := st.JustificationBits()
	if len(bits) != 1 {
		return errors.Errorf("unexpected justification bits length %d", len(bits))
	}
	newBits := bitfield.Bitvector4{(bits[0] << 1) & 0x0F}

	// Note: the spec refers to the bit index position starting at 1 instead of starting at 0.
	// We will use that paradigm here for consistency with the godoc spec definition.

	// If 2/3 or more of total balance attested in the previous epoch.
	if 3*prevEpochTargetBalance >= 2*totalActiveBalance {
		blockRoot, err := helpers.BlockRoot(cfg, st, prevEpoch)
		if err != nil {
			return errors.Wrapf(err, "could not get block root for previous epoch %d", prevEpoch)
		}
		if err := st.SetCurrentJustifiedCheckpoint(&ethpb.Checkpoint{Epoch: prevEpoch, Root: blockRoot}); err != nil {
			return err
		}
		newBits.SetBitAt(1, true)
	}

	// If 2/3 or more of the total balance attested in the current epoch.
	if 3*currEpochTargetBalance >= 2*totalActiveBalance {
		blockRoot, err := helpers.BlockRoot(cfg, st, currentEpoch)
		if err != nil {
			return errors.Wrapf(err, "could not get block root for current epoch %d", currentEpoch)
		}
		if err := st.SetCurrentJustifiedCheckpoint(&ethpb.Checkpoint{Epoch: currentEpoch, Root: blockRoot}); err != nil {
			return err
		}
		newBits.SetBitAt(0, true)
	}

	if err := st.SetJustificationBits(newBits); err != nil {
		return err
	}

	// Process finalization according to Ethereum Beacon Chain specification.
	// Later rules win when several match.
	justification := newBits[0]
	var finalized *ethpb.Checkpoint
	if justification&finalizeOldPrevThreeBits == finalizeOldPrevThreeBits && oldPrevJustifiedCheckpoint.Epoch+3 == currentEpoch {
		finalized = oldPrevJustifiedCheckpoint
	}
	if justification&finalizeOldPrevTwoBits == finalizeOldPrevTwoBits && oldPrevJustifiedCheckpoint.Epoch+2 == currentEpoch {
		finalized = oldPrevJustifiedCheckpoint
	}
	if justification&finalizeOldCurThreeBits == finalizeOldCurThreeBits && oldCurrJustifiedCheckpoint.Epoch+2 == currentEpoch {
		finalized = oldCurrJustifiedCheckpoint
	}
	if justification&finalizeOldCurTwoBits == finalizeOldCurTwoBits && oldCurrJustifiedCheckpoint.Epoch+1 == currentEpoch {
		finalized = oldCurrJustifiedCheckpoint
	}
	if finalized == nil {
		return nil
	}
	return st.SetFinalizedCheckpoint(finalized.Copy())
}

