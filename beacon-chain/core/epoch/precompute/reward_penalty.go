package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
)

// AttestationsDelta computes and returns the rewards and penalties differences for individual validators based on the
// voting records of the previous epoch. finalizedEpoch is the finalized checkpoint epoch after justification and
// finalization ran.
func AttestationsDelta(cfg *params.BeaconChainConfig, ep *EpochProcess, finalizedEpoch primitives.Epoch) ([]uint64, []uint64, error) {
	if ep == nil || ep.Balance == nil {
		return nil, nil, ErrNilEpochProcess
	}
	numOfVals := len(ep.Validators)
	rewards := make([]uint64, numOfVals)
	penalties := make([]uint64, numOfVals)

	sqrtActive := mathutil.IntegerSquareRoot(ep.Balance.ActiveCurrentEpoch)
	if sqrtActive == 0 {
		return nil, nil, errors.New("active balance square root is 0")
	}
	leak := helpers.IsInInactivityLeak(cfg, ep.PrevEpoch, finalizedEpoch)
	finalityDelay := uint64(helpers.FinalityDelay(ep.PrevEpoch, finalizedEpoch))
	for i, v := range ep.Validators {
		rewards[i], penalties[i] = attestationDelta(cfg, ep.Balance, v, sqrtActive, leak, finalityDelay)
	}
	return rewards, penalties, nil
}

func attestationDelta(
	cfg *params.BeaconChainConfig,
	pBal *Balance,
	v *Validator,
	sqrtActive uint64,
	leak bool,
	finalityDelay uint64,
) (uint64, uint64) {
	if !v.IsEligible {
		return 0, 0
	}

	increment := cfg.EffectiveBalanceIncrement
	vb := v.CurrentEpochEffectiveBalance
	br := baseReward(cfg, vb, sqrtActive)
	r, p := uint64(0), uint64(0)
	currentEpochBalance := pBal.ActiveCurrentEpoch / increment

	component := func(attested bool, attestingBalance uint64) {
		if !attested || v.IsSlashed {
			p += br
			return
		}
		if leak {
			// Since full base reward will be canceled out by inactivity penalty deltas,
			// optimal participation receives full base reward compensation here.
			r += br
			return
		}
		r += br * (attestingBalance / increment) / currentEpochBalance
	}
	component(v.IsPrevEpochAttester, pBal.PrevEpochAttested)
	component(v.IsPrevEpochTargetAttester, pBal.PrevEpochTargetAttested)
	component(v.IsPrevEpochHeadAttester, pBal.PrevEpochHeadAttested)

	// Process inclusion delay reward, shared with the proposer of the earliest inclusion.
	proposerReward := br / cfg.ProposerRewardQuotient
	if v.IsPrevEpochAttester && !v.IsSlashed && v.InclusionDelay > 0 {
		maxAttesterReward := br - proposerReward
		r += maxAttesterReward / uint64(v.InclusionDelay)
	}

	if leak {
		// If validator is performing optimally, this cancels all rewards for a neutral balance.
		p += cfg.BaseRewardsPerEpoch*br - proposerReward
		// Apply an additional penalty to validators that did not vote on the correct target or has been slashed.
		// Equivalent to the following condition from the spec:
		// `index not in get_unslashed_attesting_indices(state, matching_target_attestations)`
		if !v.IsPrevEpochTargetAttester || v.IsSlashed {
			p += vb * finalityDelay / cfg.InactivityPenaltyQuotient
		}
	}
	return r, p
}

// ProposersDelta computes and returns the rewards and penalties differences for individual validators based on the
// proposer inclusion records.
func ProposersDelta(cfg *params.BeaconChainConfig, ep *EpochProcess) ([]uint64, error) {
	if ep == nil || ep.Balance == nil {
		return nil, ErrNilEpochProcess
	}
	numOfVals := len(ep.Validators)
	rewards := make([]uint64, numOfVals)

	sqrtActive := mathutil.IntegerSquareRoot(ep.Balance.ActiveCurrentEpoch)
	// Balance square root cannot be 0, this prevents division by 0.
	if sqrtActive == 0 {
		sqrtActive = 1
	}
	for _, v := range ep.Validators {
		// Only apply inclusion rewards to proposer only if the attested hasn't been slashed.
		if v.IsPrevEpochAttester && !v.IsSlashed && v.InclusionDelay > 0 {
			if uint64(v.ProposerIndex) >= uint64(numOfVals) {
				return nil, errors.Errorf("proposer index %d is not in the registry", v.ProposerIndex)
			}
			br := baseReward(cfg, v.CurrentEpochEffectiveBalance, sqrtActive)
			rewards[v.ProposerIndex] += br / cfg.ProposerRewardQuotient
		}
	}
	return rewards, nil
}

// baseReward of a validator with effective balance vb.
//
// Spec pseudocode definition:
//
//	def get_base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//	    total_balance = get_total_active_balance(state)
//	    effective_balance = state.validators[index].effective_balance
//	    return Gwei(effective_balance * BASE_REWARD_FACTOR // integer_squareroot(total_balance) // BASE_REWARDS_PER_EPOCH)
func baseReward(cfg *params.BeaconChainConfig, vb, sqrtActive uint64) uint64 {
	return vb * cfg.BaseRewardFactor / sqrtActive / cfg.BaseRewardsPerEpoch
}
