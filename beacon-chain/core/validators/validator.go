// Package validators contains libraries to change the status of validators in the registry:
// initiating exits through the cached exit queue and slashing.
package validators

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

// InitiateValidatorExit takes in validator index and updates
// validator with correct voluntary exit parameters. It is a no-op for a validator
// whose exit was already initiated.
//
// Spec pseudocode definition:
//
//	def initiate_validator_exit(state: BeaconState, index: ValidatorIndex) -> None:
//	  """
//	  Initiate the exit of the validator with index ``index``.
//	  """
//	  # Return if validator already initiated exit
//	  validator = state.validators[index]
//	  if validator.exit_epoch != FAR_FUTURE_EPOCH:
//	      return
//
//	  # Compute exit queue epoch
//	  exit_epochs = [v.exit_epoch for v in state.validators if v.exit_epoch != FAR_FUTURE_EPOCH]
//	  exit_queue_epoch = max(exit_epochs + [compute_activation_exit_epoch(get_current_epoch(state))])
//	  exit_queue_churn = len([v for v in state.validators if v.exit_epoch == exit_queue_epoch])
//	  if exit_queue_churn >= get_validator_churn_limit(state):
//	      exit_queue_epoch += Epoch(1)
//
//	  # Set validator exit epoch and withdrawable epoch
//	  validator.exit_epoch = exit_queue_epoch
//	  validator.withdrawable_epoch = Epoch(validator.exit_epoch + MIN_VALIDATOR_WITHDRAWABILITY_DELAY)
func InitiateValidatorExit(_ context.Context, st *cache.CachedBeaconState, idx primitives.ValidatorIndex) error {
	validator, err := st.ValidatorAtIndex(idx)
	if err != nil {
		return err
	}
	cfg := st.Config()
	if validator.ExitEpoch != cfg.FarFutureEpoch {
		return nil
	}
	exitQueueEpoch := st.EpochCtx().ClaimExitEpoch()
	withdrawableEpoch, err := exitQueueEpoch.SafeAdd(uint64(cfg.MinValidatorWithdrawabilityDelay))
	if err != nil {
		return errors.Wrap(err, "withdrawable epoch overflows")
	}
	validator.ExitEpoch = exitQueueEpoch
	validator.WithdrawableEpoch = withdrawableEpoch
	return st.UpdateValidatorAtIndex(idx, validator)
}

// SlashValidator slashes the malicious validator's balance and awards
// the whistleblower's balance. The proposer of the current slot is the whistleblower.
//
// Spec pseudocode definition:
//
//	def slash_validator(state: BeaconState,
//	                  slashed_index: ValidatorIndex,
//	                  whistleblower_index: ValidatorIndex=None) -> None:
//	  """
//	  Slash the validator with index ``slashed_index``.
//	  """
//	  epoch = get_current_epoch(state)
//	  initiate_validator_exit(state, slashed_index)
//	  validator = state.validators[slashed_index]
//	  validator.slashed = True
//	  validator.withdrawable_epoch = max(validator.withdrawable_epoch, Epoch(epoch + EPOCHS_PER_SLASHINGS_VECTOR))
//	  state.slashings[epoch % EPOCHS_PER_SLASHINGS_VECTOR] += validator.effective_balance
//	  decrease_balance(state, slashed_index, validator.effective_balance // MIN_SLASHING_PENALTY_QUOTIENT)
//
//	  # Apply proposer and whistleblower rewards
//	  proposer_index = get_beacon_proposer_index(state)
//	  if whistleblower_index is None:
//	      whistleblower_index = proposer_index
//	  whistleblower_reward = Gwei(validator.effective_balance // WHISTLEBLOWER_REWARD_QUOTIENT)
//	  proposer_reward = Gwei(whistleblower_reward // PROPOSER_REWARD_QUOTIENT)
//	  increase_balance(state, proposer_index, proposer_reward)
//	  increase_balance(state, whistleblower_index, Gwei(whistleblower_reward - proposer_reward))
func SlashValidator(ctx context.Context, st *cache.CachedBeaconState, slashedIdx primitives.ValidatorIndex) error {
	if err := InitiateValidatorExit(ctx, st, slashedIdx); err != nil {
		return errors.Wrapf(err, "could not initiate validator %d exit", slashedIdx)
	}
	cfg := st.Config()
	currentEpoch := time.CurrentEpoch(cfg, st)
	validator, err := st.ValidatorAtIndex(slashedIdx)
	if err != nil {
		return err
	}
	validator.Slashed = true
	maxWithdrawableEpoch := primitives.MaxEpoch(validator.WithdrawableEpoch, currentEpoch+cfg.EpochsPerSlashingsVector)
	validator.WithdrawableEpoch = maxWithdrawableEpoch
	if err := st.UpdateValidatorAtIndex(slashedIdx, validator); err != nil {
		return err
	}

	// The slashing amount is represented by epochs per slashing vector. The validator's effective balance is then applied to that amount.
	slashings := st.Slashings()
	currentSlashing := slashings[currentEpoch%cfg.EpochsPerSlashingsVector]
	if err := st.UpdateSlashingsAtIndex(
		uint64(currentEpoch%cfg.EpochsPerSlashingsVector),
		currentSlashing+validator.EffectiveBalance,
	); err != nil {
		return err
	}
	penaltyQuotient, proposerReward := slashingParams(cfg, st.Version(), validator.EffectiveBalance)
	if err := helpers.DecreaseBalance(st, slashedIdx, validator.EffectiveBalance/penaltyQuotient); err != nil {
		return err
	}

	proposerIdx, err := st.EpochCtx().BeaconProposer(st.Slot())
	if err != nil {
		return errors.Wrap(err, "could not get proposer idx")
	}
	// In phase 0, the proposer is the whistleblower.
	whistleBlowerIdx := proposerIdx
	whistleblowerReward := validator.EffectiveBalance / cfg.WhistleBlowerRewardQuotient
	if err := helpers.IncreaseBalance(st, proposerIdx, proposerReward); err != nil {
		return err
	}
	return helpers.IncreaseBalance(st, whistleBlowerIdx, whistleblowerReward-proposerReward)
}

// slashingParams returns the minimum slashing penalty quotient and the proposer part of the
// whistleblower reward of the state version.
func slashingParams(cfg *params.BeaconChainConfig, ver int, effectiveBalance uint64) (uint64, uint64) {
	whistleblowerReward := effectiveBalance / cfg.WhistleBlowerRewardQuotient
	if ver >= version.Altair {
		return cfg.MinSlashingPenaltyQuotientAltair, whistleblowerReward * cfg.ProposerWeight / cfg.WeightDenominator
	}
	return cfg.MinSlashingPenaltyQuotient, whistleblowerReward / cfg.ProposerRewardQuotient
}
