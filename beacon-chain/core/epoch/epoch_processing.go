// Package epoch contains epoch processing libraries according to spec, able to
// process new balance for validators, justify and finalize new
// check points, and shuffle validators to different slots and
// shards.
package epoch

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "epoch")

// ProcessJustificationAndFinalization justifies and finalizes checkpoints using the attesting
// balances of the epoch process.
func ProcessJustificationAndFinalization(st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	if ep == nil {
		return precompute.ErrNilEpochProcess
	}
	return precompute.ProcessJustificationAndFinalizationPreCompute(st, ep.Balance)
}

// ProcessRewardsAndPenalties processes the rewards and penalties of individual validator of a
// phase0 state. It is a no-op in the genesis epoch.
//
// Spec pseudocode definition:
//
//	def process_rewards_and_penalties(state: BeaconState) -> None:
//	  # No rewards are applied at the end of `GENESIS_EPOCH` because rewards are for work done in the previous epoch
//	  if get_current_epoch(state) == GENESIS_EPOCH:
//	      return
//
//	  rewards, penalties = get_attestation_deltas(state)
//	  for index in range(len(state.validators)):
//	      increase_balance(state, ValidatorIndex(index), rewards[index])
//	      decrease_balance(state, ValidatorIndex(index), penalties[index])
func ProcessRewardsAndPenalties(st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	if ep == nil {
		return precompute.ErrNilEpochProcess
	}
	cfg := st.Config()
	if ep.CurrentEpoch == cfg.GenesisEpoch {
		return nil
	}
	numOfVals := st.NumValidators()
	// Guard against an out-of-bounds using validator balance precompute.
	if len(ep.Validators) != numOfVals || len(ep.Validators) != st.BalancesLength() {
		return errors.New("precomputed registries not the same length as state registries")
	}

	attsRewards, attsPenalties, err := precompute.AttestationsDelta(cfg, ep, st.FinalizedCheckpointEpoch())
	if err != nil {
		return errors.Wrap(err, "could not get attestation delta")
	}
	proposerRewards, err := precompute.ProposersDelta(cfg, ep)
	if err != nil {
		return errors.Wrap(err, "could not get proposer delta")
	}
	balances := st.Balances()
	for i := range balances {
		balances[i], err = helpers.IncreaseBalanceWithVal(balances[i], attsRewards[i]+proposerRewards[i])
		if err != nil {
			return err
		}
		balances[i] = helpers.DecreaseBalanceWithVal(balances[i], attsPenalties[i])
	}
	return st.SetBalances(balances)
}

// ProcessRegistryUpdates rotates validators in and out of active pool.
// the amount to rotate is determined churn limit.
//
// Spec pseudocode definition:
//
//	def process_registry_updates(state: BeaconState) -> None:
//	  # Process activation eligibility and ejections
//	  for index, validator in enumerate(state.validators):
//	      if is_eligible_for_activation_queue(validator):
//	          validator.activation_eligibility_epoch = get_current_epoch(state) + 1
//
//	      if is_active_validator(validator, get_current_epoch(state)) and validator.effective_balance <= EJECTION_BALANCE:
//	          initiate_validator_exit(state, ValidatorIndex(index))
//
//	  # Queue validators eligible for activation and not yet dequeued for activation
//	  activation_queue = sorted([
//	      index for index, validator in enumerate(state.validators)
//	      if is_eligible_for_activation(state, validator)
//	      # Order by the sequence of activation_eligibility_epoch setting and then index
//	  ], key=lambda index: (state.validators[index].activation_eligibility_epoch, index))
//	  # Dequeued validators for activation up to churn limit
//	  for index in activation_queue[:get_validator_churn_limit(state)]:
//	      validator = state.validators[index]
//	      validator.activation_epoch = compute_activation_exit_epoch(get_current_epoch(state))
func ProcessRegistryUpdates(ctx context.Context, st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	ctx, span := trace.StartSpan(ctx, "epoch.ProcessRegistryUpdates")
	defer span.End()

	if ep == nil {
		return precompute.ErrNilEpochProcess
	}
	cfg := st.Config()
	for _, idx := range ep.IndicesEligibleForActivationQueue {
		val, err := st.ValidatorAtIndex(idx)
		if err != nil {
			return err
		}
		val.ActivationEligibilityEpoch = ep.CurrentEpoch + 1
		if err := st.UpdateValidatorAtIndex(idx, val); err != nil {
			return err
		}
	}
	for _, idx := range ep.IndicesToEject {
		if err := validators.InitiateValidatorExit(ctx, st, idx); err != nil {
			return errors.Wrapf(err, "could not initiate exit for validator %d", idx)
		}
	}

	// The eligibility list is pre-sorted and only needs the finality filter.
	finalizedEpoch := st.FinalizedCheckpointEpoch()
	churnLimit := st.EpochCtx().ChurnLimit()
	activationEpoch := helpers.ActivationExitEpoch(cfg, ep.CurrentEpoch)
	var activated uint64
	for _, idx := range ep.IndicesEligibleForActivation {
		if activated >= churnLimit {
			break
		}
		val, err := st.ValidatorAtIndex(idx)
		if err != nil {
			return err
		}
		// Eligibility epochs are sorted, so nothing after this validator is finalized either.
		if val.ActivationEligibilityEpoch > finalizedEpoch {
			break
		}
		val.ActivationEpoch = activationEpoch
		if err := st.UpdateValidatorAtIndex(idx, val); err != nil {
			return err
		}
		activated++
	}
	if len(ep.IndicesToEject) > 0 || activated > 0 {
		log.WithFields(logrus.Fields{
			"epoch":     ep.CurrentEpoch,
			"ejected":   len(ep.IndicesToEject),
			"activated": activated,
		}).Debug("Updated validator registry")
	}
	return nil
}

// ProcessSlashings processes the slashed validators during epoch processing,
//
// Spec pseudocode definition:
//
//	def process_slashings(state: BeaconState) -> None:
//	  epoch = get_current_epoch(state)
//	  total_balance = get_total_active_balance(state)
//	  adjusted_total_slashing_balance = min(sum(state.slashings) * PROPORTIONAL_SLASHING_MULTIPLIER, total_balance)
//	  for index, validator in enumerate(state.validators):
//	      if validator.slashed and epoch + EPOCHS_PER_SLASHINGS_VECTOR // 2 == validator.withdrawable_epoch:
//	          increment = EFFECTIVE_BALANCE_INCREMENT  # Factored out from penalty numerator to avoid uint64 overflow
//	          penalty_numerator = validator.effective_balance // increment * adjusted_total_slashing_balance
//	          penalty = penalty_numerator // total_balance * increment
//	          decrease_balance(state, ValidatorIndex(index), penalty)
func ProcessSlashings(st *cache.CachedBeaconState, ep *precompute.EpochProcess) error {
	if ep == nil || ep.Balance == nil {
		return precompute.ErrNilEpochProcess
	}
	// Exit early if there's no meaningful slashing to process.
	if len(ep.IndicesToSlash) == 0 {
		return nil
	}
	cfg := st.Config()
	multiplier := cfg.ProportionalSlashingMultiplier
	if st.Version() >= version.Altair {
		multiplier = cfg.ProportionalSlashingMultiplierAltair
	}

	// Compute the sum of state slashings
	totalSlashing := new(uint256.Int)
	for _, slashing := range st.Slashings() {
		totalSlashing.Add(totalSlashing, uint256.NewInt(slashing))
	}
	totalBalance := uint256.NewInt(ep.Balance.ActiveCurrentEpoch)
	adjusted := new(uint256.Int).Mul(totalSlashing, uint256.NewInt(multiplier))
	if adjusted.Gt(totalBalance) {
		adjusted.Set(totalBalance)
	}

	increment := uint256.NewInt(cfg.EffectiveBalanceIncrement)
	for _, idx := range ep.IndicesToSlash {
		if uint64(idx) >= uint64(len(ep.Validators)) {
			return errors.Errorf("slashed validator %d is not in the registry", idx)
		}
		effectiveBalance := uint256.NewInt(ep.Validators[idx].CurrentEpochEffectiveBalance)
		penalty := new(uint256.Int).Div(effectiveBalance, increment)
		penalty.Mul(penalty, adjusted)
		penalty.Div(penalty, totalBalance)
		penalty.Mul(penalty, increment)
		if err := helpers.DecreaseBalance(st, idx, penalty.Uint64()); err != nil {
			return err
		}
	}
	return nil
}

// ProcessEth1DataReset processes updates to ETH1 data votes during epoch processing.
//
// Spec pseudocode definition:
//
//	def process_eth1_data_reset(state: BeaconState) -> None:
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  # Reset eth1 data votes
//	  if next_epoch % EPOCHS_PER_ETH1_VOTING_PERIOD == 0:
//	      state.eth1_data_votes = []
func ProcessEth1DataReset(st *cache.CachedBeaconState) error {
	cfg := st.Config()
	nextEpoch := time.NextEpoch(cfg, st)
	if nextEpoch%cfg.EpochsPerEth1VotingPeriod == 0 {
		return st.SetEth1DataVotes([]*ethpb.Eth1Data{})
	}
	return nil
}

// ProcessEffectiveBalanceUpdates processes effective balance updates during epoch processing.
// The effective balance table of the epoch context is kept in sync.
//
// Spec pseudocode definition:
//
//	def process_effective_balance_updates(state: BeaconState) -> None:
//	  # Update effective balances with hysteresis
//	  for index, validator in enumerate(state.validators):
//	      balance = state.balances[index]
//	      HYSTERESIS_INCREMENT = uint64(EFFECTIVE_BALANCE_INCREMENT // HYSTERESIS_QUOTIENT)
//	      DOWNWARD_THRESHOLD = HYSTERESIS_INCREMENT * HYSTERESIS_DOWNWARD_MULTIPLIER
//	      UPWARD_THRESHOLD = HYSTERESIS_INCREMENT * HYSTERESIS_UPWARD_MULTIPLIER
//	      if (
//	          balance + DOWNWARD_THRESHOLD < validator.effective_balance
//	          or validator.effective_balance + UPWARD_THRESHOLD < balance
//	      ):
//	          validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
func ProcessEffectiveBalanceUpdates(st *cache.CachedBeaconState) error {
	cfg := st.Config()
	effBalanceInc := cfg.EffectiveBalanceIncrement
	maxEffBalance := cfg.MaxEffectiveBalance
	hysteresisInc := effBalanceInc / cfg.HysteresisQuotient
	downwardThreshold := hysteresisInc * cfg.HysteresisDownwardMultiplier
	upwardThreshold := hysteresisInc * cfg.HysteresisUpwardMultiplier

	bals := st.Balances()
	if len(bals) != st.NumValidators() {
		return errors.Errorf("balances length %d does not match validator count %d", len(bals), st.NumValidators())
	}
	type update struct {
		idx     primitives.ValidatorIndex
		balance uint64
	}
	var updates []update

	// Update effective balances with hysteresis.
	validatorFunc := func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error) {
		if val == nil {
			return false, nil, errors.Errorf("validator %d is nil in state", idx)
		}
		balance := bals[idx]
		if balance+downwardThreshold < val.EffectiveBalance || val.EffectiveBalance+upwardThreshold < balance {
			effectiveBal := maxEffBalance
			if effectiveBal > balance-balance%effBalanceInc {
				effectiveBal = balance - balance%effBalanceInc
			}
			if effectiveBal != val.EffectiveBalance {
				newVal := val.Copy()
				newVal.EffectiveBalance = effectiveBal
				updates = append(updates, update{idx: primitives.ValidatorIndex(idx), balance: effectiveBal})
				return true, newVal, nil
			}
		}
		return false, val, nil
	}
	if err := st.ApplyToEveryValidator(validatorFunc); err != nil {
		return err
	}
	for _, u := range updates {
		st.EpochCtx().SetEffectiveBalance(u.idx, u.balance)
	}
	return nil
}

// ProcessSlashingsReset processes the total slashing balances updates during epoch processing.
//
// Spec pseudocode definition:
//
//	def process_slashings_reset(state: BeaconState) -> None:
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  # Reset slashings
//	  state.slashings[next_epoch % EPOCHS_PER_SLASHINGS_VECTOR] = Gwei(0)
func ProcessSlashingsReset(st *cache.CachedBeaconState) error {
	cfg := st.Config()
	nextEpoch := time.NextEpoch(cfg, st)
	return st.UpdateSlashingsAtIndex(uint64(nextEpoch%cfg.EpochsPerSlashingsVector), 0)
}

// ProcessRandaoMixesReset processes the final updates to RANDAO mix during epoch processing.
//
// Spec pseudocode definition:
//
//	def process_randao_mixes_reset(state: BeaconState) -> None:
//	  current_epoch = get_current_epoch(state)
//	  next_epoch = Epoch(current_epoch + 1)
//	  # Set randao mix
//	  state.randao_mixes[next_epoch % EPOCHS_PER_HISTORICAL_VECTOR] = get_randao_mix(state, current_epoch)
func ProcessRandaoMixesReset(st *cache.CachedBeaconState) error {
	cfg := st.Config()
	currentEpoch := time.CurrentEpoch(cfg, st)
	nextEpoch := currentEpoch + 1
	mix, err := helpers.RandaoMix(cfg, st, currentEpoch)
	if err != nil {
		return err
	}
	return st.UpdateRandaoMixesAtIndex(uint64(nextEpoch%cfg.EpochsPerHistoricalVector), mix)
}

// ProcessHistoricalRootsUpdate processes the updates to historical root accumulator during epoch processing.
//
// Spec pseudocode definition:
//
//	def process_historical_roots_update(state: BeaconState) -> None:
//	  # Set historical root accumulator
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  if next_epoch % (SLOTS_PER_HISTORICAL_ROOT // SLOTS_PER_EPOCH) == 0:
//	      historical_batch = HistoricalBatch(block_roots=state.block_roots, state_roots=state.state_roots)
//	      state.historical_roots.append(hash_tree_root(historical_batch))
func ProcessHistoricalRootsUpdate(st *cache.CachedBeaconState) error {
	cfg := st.Config()
	nextEpoch := time.NextEpoch(cfg, st)
	epochsPerHistoricalRoot := uint64(cfg.SlotsPerHistoricalRoot / cfg.SlotsPerEpoch)
	if uint64(nextEpoch)%epochsPerHistoricalRoot != 0 {
		return nil
	}
	batch := &ethpb.HistoricalBatch{
		BlockRoots: st.BlockRoots(),
		StateRoots: st.StateRoots(),
	}
	batchRoot, err := batch.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash historical batch")
	}
	return st.AppendHistoricalRoots(batchRoot)
}

// ProcessParticipationRecordUpdates rotates current/previous epoch attestations during epoch processing.
//
// Spec pseudocode definition:
//
//	def process_participation_record_updates(state: BeaconState) -> None:
//	  # Rotate current/previous epoch attestations
//	  state.previous_epoch_attestations = state.current_epoch_attestations
//	  state.current_epoch_attestations = []
func ProcessParticipationRecordUpdates(st *cache.CachedBeaconState) error {
	return st.RotateAttestations()
}

// ProcessFinalUpdates runs the resets shared by every fork after registry and slashing processing:
// eth1 votes, effective balances, slashings, randao mixes and historical roots.
func ProcessFinalUpdates(st *cache.CachedBeaconState) error {
	if err := ProcessEth1DataReset(st); err != nil {
		return errors.Wrap(err, "could not reset eth1 data votes")
	}
	if err := ProcessEffectiveBalanceUpdates(st); err != nil {
		return errors.Wrap(err, "could not process effective balance updates")
	}
	if err := ProcessSlashingsReset(st); err != nil {
		return errors.Wrap(err, "could not reset slashings")
	}
	if err := ProcessRandaoMixesReset(st); err != nil {
		return errors.Wrap(err, "could not reset randao mixes")
	}
	if err := ProcessHistoricalRootsUpdate(st); err != nil {
		return errors.Wrap(err, "could not update historical roots")
	}
	return nil
}

// ProcessEpoch describes the per epoch operations that are performed on the phase0 beacon state.
// The epoch context is rotated separately, once the state crossed into the next epoch.
//
// Spec pseudocode definition:
//
//	def process_epoch(state: BeaconState) -> None:
//	  process_justification_and_finalization(state)
//	  process_rewards_and_penalties(state)
//	  process_registry_updates(state)
//	  process_slashings(state)
//	  process_eth1_data_reset(state)
//	  process_effective_balance_updates(state)
//	  process_slashings_reset(state)
//	  process_randao_mixes_reset(state)
//	  process_historical_roots_update(state)
//	  process_participation_record_updates(state)
func ProcessEpoch(ctx context.Context, st *cache.CachedBeaconState) (*precompute.EpochProcess, error) {
	ctx, span := trace.StartSpan(ctx, "epoch.ProcessEpoch")
	defer span.End()

	if st == nil || st.IsNil() {
		return nil, errors.New("nil state")
	}
	if st.Version() != version.Phase0 {
		return nil, errors.Errorf("phase0 epoch processing on a %s state", version.String(st.Version()))
	}
	ep, err := precompute.New(ctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "could not gather epoch process")
	}
	if err := ProcessJustificationAndFinalization(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process justification")
	}
	if err := ProcessRewardsAndPenalties(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process rewards and penalties")
	}
	if err := ProcessRegistryUpdates(ctx, st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process registry updates")
	}
	if err := ProcessSlashings(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process slashings")
	}
	if err := ProcessFinalUpdates(st); err != nil {
		return nil, err
	}
	if err := ProcessParticipationRecordUpdates(st); err != nil {
		return nil, errors.Wrap(err, "could not rotate attestations")
	}
	return ep, nil
}
