package altair

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// BaseReward takes state and validator index and calculate
// individual validator's base reward. The effective balance and the reward per increment
// come from the epoch context of the state.
//
// Spec pseudocode definition:
//
//	def get_base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//	  """
//	  Return the base reward for the validator defined by ``index`` with respect to the current ``state``.
//
//	  Note: An optimally performing validator can earn one base reward per epoch over a long time horizon.
//	  This takes into account both per-epoch (e.g. attestation) and intermittent duties (e.g. block proposal
//	  and sync committees).
//	  """
//	  increments = state.validators[index].effective_balance // EFFECTIVE_BALANCE_INCREMENT
//	  return Gwei(increments * get_base_reward_per_increment(state))
func BaseReward(st *cache.CachedBeaconState, index primitives.ValidatorIndex) (uint64, error) {
	epochCtx := st.EpochCtx()
	effectiveBalance, err := epochCtx.EffectiveBalance(index)
	if err != nil {
		return 0, err
	}
	return baseRewardFromIncrement(st.Config(), effectiveBalance, epochCtx.BaseRewardPerIncrement()), nil
}

// BaseRewardWithTotalBalance calculates the base reward with the provided total balance.
func BaseRewardWithTotalBalance(cfg *params.BeaconChainConfig, effectiveBalance, totalBalance uint64) (uint64, error) {
	brpi, err := helpers.BaseRewardPerIncrement(cfg, totalBalance)
	if err != nil {
		return 0, err
	}
	return baseRewardFromIncrement(cfg, effectiveBalance, brpi), nil
}

func baseRewardFromIncrement(cfg *params.BeaconChainConfig, effectiveBalance, baseRewardPerIncrement uint64) uint64 {
	return effectiveBalance / cfg.EffectiveBalanceIncrement * baseRewardPerIncrement
}
