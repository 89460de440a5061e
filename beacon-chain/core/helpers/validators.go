package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

var (
	// ErrProposerSamplingExhausted is returned when balance-weighted sampling runs past
	// MaxProposerSamplingIterations without accepting a candidate.
	ErrProposerSamplingExhausted = errors.New("balance-weighted sampling exhausted its iteration cap")
	errEmptyActiveIndices        = errors.New("empty active indices list")
)

const maxRandomByte = uint64(1<<8 - 1)

// EffectiveBalanceLookup returns the effective balance in Gwei of the validator at idx.
type EffectiveBalanceLookup func(idx primitives.ValidatorIndex) (uint64, error)

// StateEffectiveBalances reads effective balances straight from the validator registry.
func StateEffectiveBalances(st state.ReadOnlyValidators) EffectiveBalanceLookup {
	return func(idx primitives.ValidatorIndex) (uint64, error) {
		v, err := st.ValidatorAtIndexReadOnly(idx)
		if err != nil {
			return 0, err
		}
		return v.EffectiveBalance(), nil
	}
}

// IsActiveValidator returns the boolean value on whether the validator
// is active or not.
//
// Spec pseudocode definition:
//
//	def is_active_validator(validator: Validator, epoch: Epoch) -> bool:
//	  """
//	  Check if ``validator`` is active.
//	  """
//	  return validator.activation_epoch <= epoch < validator.exit_epoch
func IsActiveValidator(validator *ethpb.Validator, epoch primitives.Epoch) bool {
	return checkValidatorActiveStatus(validator.ActivationEpoch, validator.ExitEpoch, epoch)
}

// IsActiveValidatorUsingTrie checks if a read only validator is active.
func IsActiveValidatorUsingTrie(validator state.ReadOnlyValidator, epoch primitives.Epoch) bool {
	return checkValidatorActiveStatus(validator.ActivationEpoch(), validator.ExitEpoch(), epoch)
}

func checkValidatorActiveStatus(activationEpoch, exitEpoch, epoch primitives.Epoch) bool {
	return activationEpoch <= epoch && epoch < exitEpoch
}

// IsSlashableValidator returns the boolean value on whether the validator
// is slashable or not.
//
// Spec pseudocode definition:
//
//	def is_slashable_validator(validator: Validator, epoch: Epoch) -> bool:
//	"""
//	Check if ``validator`` is slashable.
//	"""
//	return (not validator.slashed) and (validator.activation_epoch <= epoch < validator.withdrawable_epoch)
func IsSlashableValidator(activationEpoch, withdrawableEpoch primitives.Epoch, slashed bool, epoch primitives.Epoch) bool {
	return checkValidatorSlashable(activationEpoch, withdrawableEpoch, slashed, epoch)
}

// IsSlashableValidatorUsingTrie checks if a read only validator is slashable.
func IsSlashableValidatorUsingTrie(val state.ReadOnlyValidator, epoch primitives.Epoch) bool {
	return checkValidatorSlashable(val.ActivationEpoch(), val.WithdrawableEpoch(), val.Slashed(), epoch)
}

func checkValidatorSlashable(activationEpoch, withdrawableEpoch primitives.Epoch, slashed bool, epoch primitives.Epoch) bool {
	active := activationEpoch <= epoch
	beforeWithdrawable := epoch < withdrawableEpoch
	return beforeWithdrawable && active && !slashed
}

// ActiveValidatorIndices filters out active validators based on validator status
// and returns their indices in a list.
//
// WARNING: This method allocates a new copy of the validator index set and walks the
// whole registry. The epoch context keeps the result for the previous, current and
// next epoch; prefer reading it from there.
//
// Spec pseudocode definition:
//
//	def get_active_validator_indices(state: BeaconState, epoch: Epoch) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the sequence of active validator indices at ``epoch``.
//	  """
//	  return [ValidatorIndex(i) for i, v in enumerate(state.validators) if is_active_validator(v, epoch)]
func ActiveValidatorIndices(st state.ReadOnlyValidators, epoch primitives.Epoch) ([]primitives.ValidatorIndex, error) {
	indices := make([]primitives.ValidatorIndex, 0, st.NumValidators())
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if IsActiveValidatorUsingTrie(val, epoch) {
			indices = append(indices, primitives.ValidatorIndex(idx))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return indices, nil
}

// ActiveValidatorCount returns the number of active validators in the state
// at the given epoch.
func ActiveValidatorCount(st state.ReadOnlyValidators, epoch primitives.Epoch) (uint64, error) {
	count := uint64(0)
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if IsActiveValidatorUsingTrie(val, epoch) {
			count++
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return count, nil
}

// ActivationExitEpoch takes in epoch number and returns when
// the validator is eligible for activation and exit.
//
// Spec pseudocode definition:
//
//	def compute_activation_exit_epoch(epoch: Epoch) -> Epoch:
//	  """
//	  Return the epoch during which validator activations and exits initiated in ``epoch`` take effect.
//	  """
//	  return Epoch(epoch + 1 + MAX_SEED_LOOKAHEAD)
func ActivationExitEpoch(cfg *params.BeaconChainConfig, epoch primitives.Epoch) primitives.Epoch {
	return epoch + 1 + cfg.MaxSeedLookahead
}

// ValidatorChurnLimit returns the number of validators that are allowed to
// enter and exit validator pool for an epoch.
//
// Spec pseudocode definition:
//
//	def get_validator_churn_limit(state: BeaconState) -> uint64:
//	  """
//	  Return the validator churn limit for the current epoch.
//	  """
//	  active_validator_indices = get_active_validator_indices(state, get_current_epoch(state))
//	  return max(MIN_PER_EPOCH_CHURN_LIMIT, uint64(len(active_validator_indices)) // CHURN_LIMIT_QUOTIENT)
func ValidatorChurnLimit(cfg *params.BeaconChainConfig, activeValidatorCount uint64) uint64 {
	churnLimit := activeValidatorCount / cfg.ChurnLimitQuotient
	if churnLimit < cfg.MinPerEpochChurnLimit {
		churnLimit = cfg.MinPerEpochChurnLimit
	}
	return churnLimit
}

// BeaconProposerIndexAtSlot returns proposer index at the given slot computed from the
// state alone, without an epoch context.
//
// Spec pseudocode definition:
//
//	def get_beacon_proposer_index(state: BeaconState) -> ValidatorIndex:
//	  """
//	  Return the beacon proposer index at the current slot.
//	  """
//	  epoch = get_current_epoch(state)
//	  seed = hash(get_seed(state, epoch, DOMAIN_BEACON_PROPOSER) + uint_to_bytes(state.slot))
//	  indices = get_active_validator_indices(state, epoch)
//	  return compute_proposer_index(state, indices, seed)
func BeaconProposerIndexAtSlot(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState, slot primitives.Slot) (primitives.ValidatorIndex, error) {
	e := primitives.Epoch(slot.Div(uint64(cfg.SlotsPerEpoch)))
	if e != time.CurrentEpoch(cfg, st) {
		return 0, errors.Errorf("slot %d is not in the state's current epoch %d", slot, time.CurrentEpoch(cfg, st))
	}
	seed, err := Seed(cfg, st, e, cfg.DomainBeaconProposer)
	if err != nil {
		return 0, errors.Wrap(err, "could not generate seed")
	}
	indices, err := ActiveValidatorIndices(st, e)
	if err != nil {
		return 0, errors.Wrap(err, "could not get active indices")
	}
	return ComputeProposerIndex(cfg, indices, StateEffectiveBalances(st), ProposerSeed(seed, slot))
}

// ProposerSeed mixes the slot into an epoch proposer seed.
func ProposerSeed(epochSeed [32]byte, slot primitives.Slot) [32]byte {
	seedWithSlot := append(epochSeed[:], bytesutil.Bytes8(uint64(slot))...)
	return hash.Hash(seedWithSlot)
}

// ComputeProposerIndex returns the index sampled by effective balance, which is used to calculate proposer.
// The loop is bounded by MaxProposerSamplingIterations and returns ErrProposerSamplingExhausted past it.
//
// Spec pseudocode definition:
//
//	def compute_proposer_index(state: BeaconState, indices: Sequence[ValidatorIndex], seed: Bytes32) -> ValidatorIndex:
//	  """
//	  Return from ``indices`` a random index sampled by effective balance.
//	  """
//	  assert len(indices) > 0
//	  MAX_RANDOM_BYTE = 2**8 - 1
//	  i = uint64(0)
//	  total = uint64(len(indices))
//	  while True:
//	      candidate_index = indices[compute_shuffled_index(i % total, total, seed)]
//	      random_byte = hash(seed + uint_to_bytes(uint64(i // 32)))[i % 32]
//	      effective_balance = state.validators[candidate_index].effective_balance
//	      if effective_balance * MAX_RANDOM_BYTE >= MAX_EFFECTIVE_BALANCE * random_byte:
//	          return candidate_index
//	      i += 1
func ComputeProposerIndex(
	cfg *params.BeaconChainConfig,
	activeIndices []primitives.ValidatorIndex,
	effectiveBalance EffectiveBalanceLookup,
	seed [32]byte,
) (primitives.ValidatorIndex, error) {
	length := uint64(len(activeIndices))
	if length == 0 {
		return 0, errEmptyActiveIndices
	}
	hashFunc := hash.CustomSHA256Hasher()
	beBytes := make([]byte, 0, 40)

	for i := uint64(0); i < cfg.MaxProposerSamplingIterations; i++ {
		candidateIndex, err := ShuffledIndex(primitives.ValidatorIndex(i%length), length, seed, cfg.ShuffleRoundCount)
		if err != nil {
			return 0, err
		}
		candidateIndex = activeIndices[candidateIndex]
		b := append(append(beBytes[:0], seed[:]...), bytesutil.Bytes8(i/32)...)
		randomByte := hashFunc(b)[i%32]
		effectiveBal, err := effectiveBalance(candidateIndex)
		if err != nil {
			return 0, err
		}
		if effectiveBal*maxRandomByte >= cfg.MaxEffectiveBalance*uint64(randomByte) {
			return candidateIndex, nil
		}
	}
	return 0, ErrProposerSamplingExhausted
}

// IsEligibleForActivationQueue checks if the validator is eligible to
// be placed into the activation queue.
//
// Spec pseudocode definition:
//
//	def is_eligible_for_activation_queue(validator: Validator) -> bool:
//	  """
//	  Check if ``validator`` is eligible to be placed into the activation queue.
//	  """
//	  return (
//	      validator.activation_eligibility_epoch == FAR_FUTURE_EPOCH
//	      and validator.effective_balance == MAX_EFFECTIVE_BALANCE
//	  )
func IsEligibleForActivationQueue(cfg *params.BeaconChainConfig, activationEligibilityEpoch primitives.Epoch, effectiveBalance uint64) bool {
	return activationEligibilityEpoch == cfg.FarFutureEpoch &&
		effectiveBalance == cfg.MaxEffectiveBalance
}

// IsEligibleForActivation checks if the validator is eligible for activation.
//
// Spec pseudocode definition:
//
//	def is_eligible_for_activation(state: BeaconState, validator: Validator) -> bool:
//	  """
//	  Check if ``validator`` is eligible for activation.
//	  """
//	  return (
//	      # Placement in queue is finalized
//	      validator.activation_eligibility_epoch <= state.finalized_checkpoint.epoch
//	      # Has not yet been activated
//	      and validator.activation_epoch == FAR_FUTURE_EPOCH
//	  )
func IsEligibleForActivation(cfg *params.BeaconChainConfig, val state.ReadOnlyValidator, finalizedEpoch primitives.Epoch) bool {
	return val.ActivationEligibilityEpoch() <= finalizedEpoch &&
		val.ActivationEpoch() == cfg.FarFutureEpoch
}
