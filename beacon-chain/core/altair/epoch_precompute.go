package altair

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
	"go.opencensus.io/trace"
)

// ProcessInactivityUpdates of beacon chain. This updates inactivity scores of beacon chain and
// updates the precompute validator struct for later processing. The inactivity scores work as following:
// For fully inactive validators and perfect active validators, the effect is the same as before Altair.
// For a validator is inactive and the chain fails to finalize, the inactivity score increases by a fixed number, the total loss after N epochs is proportional to N**2/2.
// For imperfectly active validators. The inactivity score's behavior is specified by this function:
//
//	If a validator fails to submit an attestation with the correct target, their inactivity score goes up by 4.
//	If they successfully submit an attestation with the correct source and target, their inactivity score drops by 1
//	If the chain has recently finalized, each validator's score drops by 16.
//
// Spec pseudocode definition:
//
//	def process_inactivity_updates(state: BeaconState) -> None:
//	  # Skip the genesis epoch as score updates are based on the previous epoch participation
//	  if get_current_epoch(state) == GENESIS_EPOCH:
//	      return
//
//	  for index in get_eligible_validator_indices(state):
//	      # Increase the inactivity score of inactive validators
//	      if index in get_unslashed_participating_indices(state, TIMELY_TARGET_FLAG_INDEX, get_previous_epoch(state)):
//	          state.inactivity_scores[index] -= min(1, state.inactivity_scores[index])
//	      else:
//	          state.inactivity_scores[index] += INACTIVITY_SCORE_BIAS
//	      # Decrease the inactivity score of all eligible validators during a leak-free epoch
//	      if not is_in_inactivity_leak(state):
//	          state.inactivity_scores[index] -= min(INACTIVITY_SCORE_RECOVERY_RATE, state.inactivity_scores[index])
func ProcessInactivityUpdates(ctx context.Context, st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	_, span := trace.StartSpan(ctx, "altair.ProcessInactivityUpdates")
	defer span.End()

	if ep == nil {
		return precompute.ErrNilEpochProcess
	}
	cfg := st.Config()
	if ep.CurrentEpoch == cfg.GenesisEpoch {
		return nil
	}
	inactivityScores, err := st.InactivityScores()
	if err != nil {
		return err
	}
	if len(inactivityScores) != len(ep.Validators) {
		return errors.Errorf("inactivity scores length %d does not match validator count %d", len(inactivityScores), len(ep.Validators))
	}

	bias := cfg.InactivityScoreBias
	recoveryRate := cfg.InactivityScoreRecoveryRate
	leak := helpers.IsInInactivityLeak(cfg, ep.PrevEpoch, st.FinalizedCheckpointEpoch())
	for i, v := range ep.Validators {
		if !v.IsEligible {
			continue
		}
		if v.IsPrevEpochTargetAttester && !v.IsSlashed {
			// Decrease inactivity score when validator gets target correct.
			v.InactivityScore -= mathutil.Min(1, v.InactivityScore)
		} else {
			v.InactivityScore, err = mathutil.Add64(v.InactivityScore, bias)
			if err != nil {
				return errors.Wrapf(err, "inactivity score of validator %d", i)
			}
		}
		if !leak {
			v.InactivityScore -= mathutil.Min(recoveryRate, v.InactivityScore)
		}
		inactivityScores[i] = v.InactivityScore
	}
	return st.SetInactivityScores(inactivityScores)
}

// ProcessRewardsAndPenaltiesPrecompute processes the rewards and penalties of individual validator.
// This is an optimized version by passing in precomputed validator attesting records and and total epoch balances.
//
// Spec pseudocode definition:
//
//	def process_rewards_and_penalties(state: BeaconState) -> None:
//	  # No rewards are applied at the end of `GENESIS_EPOCH` because rewards are for work done in the previous epoch
//	  if get_current_epoch(state) == GENESIS_EPOCH:
//	      return
//
//	  flag_deltas = [get_flag_index_deltas(state, flag_index) for flag_index in range(len(PARTICIPATION_FLAG_WEIGHTS))]
//	  deltas = flag_deltas + [get_inactivity_penalty_deltas(state)]
//	  for (rewards, penalties) in deltas:
//	      for index in range(len(state.validators)):
//	          increase_balance(state, ValidatorIndex(index), rewards[index])
//	          decrease_balance(state, ValidatorIndex(index), penalties[index])
func ProcessRewardsAndPenaltiesPrecompute(st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	if ep == nil || ep.Balance == nil {
		return precompute.ErrNilEpochProcess
	}
	cfg := st.Config()
	if ep.CurrentEpoch == cfg.GenesisEpoch {
		return nil
	}
	numOfVals := st.NumValidators()
	// Guard against an out-of-bounds using validator balance precompute.
	if len(ep.Validators) != numOfVals || len(ep.Validators) != st.BalancesLength() {
		return errors.New("validator registries not the same length as state's validator registries")
	}

	attsRewards, attsPenalties, err := AttestationsDelta(cfg, ep, st.FinalizedCheckpointEpoch())
	if err != nil {
		return errors.Wrap(err, "could not get attestation delta")
	}

	balances := st.Balances()
	for i := 0; i < numOfVals; i++ {
		// Compute the post balance of the validator after accounting for the
		// attester and proposer rewards and penalties.
		balances[i], err = helpers.IncreaseBalanceWithVal(balances[i], attsRewards[i])
		if err != nil {
			return err
		}
		balances[i] = helpers.DecreaseBalanceWithVal(balances[i], attsPenalties[i])
	}
	return st.SetBalances(balances)
}

// AttestationsDelta computes and returns the rewards and penalties differences for individual validators based on the
// participation flags of the previous epoch and the inactivity scores.
func AttestationsDelta(cfg *params.BeaconChainConfig, ep *precompute.EpochProcess, finalizedEpoch primitives.Epoch) (rewards, penalties []uint64, err error) {
	if ep == nil || ep.Balance == nil {
		return nil, nil, precompute.ErrNilEpochProcess
	}
	numOfVals := len(ep.Validators)
	rewards = make([]uint64, numOfVals)
	penalties = make([]uint64, numOfVals)

	increment := cfg.EffectiveBalanceIncrement
	activeIncrement := ep.Balance.ActiveCurrentEpoch / increment
	if activeIncrement == 0 {
		return nil, nil, errors.New("active balance is below one increment")
	}
	leak := helpers.IsInInactivityLeak(cfg, ep.PrevEpoch, finalizedEpoch)
	inactivityDenominator := new(uint256.Int).Mul(uint256.NewInt(cfg.InactivityScoreBias), uint256.NewInt(cfg.InactivityPenaltyQuotientAltair))
	if inactivityDenominator.IsZero() {
		return nil, nil, errors.New("inactivity penalty denominator is 0")
	}

	for i, v := range ep.Validators {
		rewards[i], penalties[i] = attestationDelta(cfg, ep.Balance, v, ep.BaseRewardPerIncrement, activeIncrement, leak, inactivityDenominator)
	}
	return rewards, penalties, nil
}

func attestationDelta(
	cfg *params.BeaconChainConfig,
	bal *precompute.Balance,
	val *precompute.Validator,
	baseRewardPerIncrement, activeIncrement uint64,
	inactivityLeak bool,
	inactivityDenominator *uint256.Int,
) (reward, penalty uint64) {
	if !val.IsEligible {
		return 0, 0
	}

	increment := cfg.EffectiveBalanceIncrement
	effectiveBalance := val.CurrentEpochEffectiveBalance
	baseReward := (effectiveBalance / increment) * baseRewardPerIncrement
	weightDenominator := cfg.WeightDenominator
	rewardDenominator := activeIncrement * weightDenominator

	flag := func(participated bool, weight, attestedBalance uint64, headFlag bool) {
		if participated && !val.IsSlashed {
			if !inactivityLeak {
				n := baseReward * weight * (attestedBalance / increment)
				reward += n / rewardDenominator
			}
			return
		}
		if !headFlag {
			penalty += baseReward * weight / weightDenominator
		}
	}
	flag(val.IsPrevEpochAttester, cfg.TimelySourceWeight, bal.PrevEpochAttested, false)
	flag(val.IsPrevEpochTargetAttester, cfg.TimelyTargetWeight, bal.PrevEpochTargetAttested, false)
	flag(val.IsPrevEpochHeadAttester, cfg.TimelyHeadWeight, bal.PrevEpochHeadAttested, true)

	// Process finality delay penalty
	// Apply an additional penalty to validators that did not vote on the correct target or slashed
	if !val.IsPrevEpochTargetAttester || val.IsSlashed {
		n := new(uint256.Int).Mul(uint256.NewInt(effectiveBalance), uint256.NewInt(val.InactivityScore))
		n.Div(n, inactivityDenominator)
		penalty += n.Uint64()
	}
	return reward, penalty
}
