package altair

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// ProcessAttestationsNoVerifySignature applies processing operations to a block's inner attestation
// records. The signatures of the attestations are not verified.
func ProcessAttestationsNoVerifySignature(ctx context.Context, st *cache.CachedBeaconState, atts []*ethpb.Attestation) error {
	ctx, span := trace.StartSpan(ctx, "altair.ProcessAttestationsNoVerifySignature")
	defer span.End()

	for idx, att := range atts {
		if err := ProcessAttestationNoVerifySignature(ctx, st, att); err != nil {
			return errors.Wrapf(err, "could not verify attestation at index %d in block", idx)
		}
	}
	return nil
}

// ProcessAttestationNoVerifySignature processes the attestation without verifying the attestation signature. This
// method is used to validate attestations whose signatures have already been verified or will be verified later.
//
// Spec pseudocode definition:
//
//	def process_attestation(state: BeaconState, attestation: Attestation) -> None:
//	  data = attestation.data
//	  assert data.target.epoch in (get_previous_epoch(state), get_current_epoch(state))
//	  assert data.target.epoch == compute_epoch_at_slot(data.slot)
//	  assert data.slot + MIN_ATTESTATION_INCLUSION_DELAY <= state.slot <= data.slot + SLOTS_PER_EPOCH
//	  assert data.index < get_committee_count_per_slot(state, data.target.epoch)
//
//	  committee = get_beacon_committee(state, data.slot, data.index)
//	  assert len(attestation.aggregation_bits) == len(committee)
//
//	  # Participation flag indices
//	  participation_flag_indices = get_attestation_participation_flag_indices(state, data, state.slot - data.slot)
//
//	  # Verify signature
//	  assert is_valid_indexed_attestation(state, get_indexed_attestation(state, attestation))
//
//	  # Update epoch participation flags
//	  if data.target.epoch == get_current_epoch(state):
//	      epoch_participation = state.current_epoch_participation
//	  else:
//	      epoch_participation = state.previous_epoch_participation
//
//	  proposer_reward_numerator = 0
//	  for index in get_attesting_indices(state, data, attestation.aggregation_bits):
//	      for flag_index, weight in enumerate(PARTICIPATION_FLAG_WEIGHTS):
//	          if flag_index in participation_flag_indices and not has_flag(epoch_participation[index], flag_index):
//	              epoch_participation[index] = add_flag(epoch_participation[index], flag_index)
//	              proposer_reward_numerator += get_base_reward(state, index) * weight
//
//	  # Reward proposer
//	  proposer_reward_denominator = (WEIGHT_DENOMINATOR - PROPOSER_WEIGHT) * WEIGHT_DENOMINATOR // PROPOSER_WEIGHT
//	  proposer_reward = Gwei(proposer_reward_numerator // proposer_reward_denominator)
//	  increase_balance(state, get_beacon_proposer_index(state), proposer_reward)
func ProcessAttestationNoVerifySignature(ctx context.Context, st *cache.CachedBeaconState, att *ethpb.Attestation) error {
	ctx, span := trace.StartSpan(ctx, "altair.ProcessAttestationNoVerifySignature")
	defer span.End()

	if err := blocks.VerifyAttestationNoVerifySignature(ctx, st, att); err != nil {
		return err
	}
	cfg := st.Config()
	delay, err := st.Slot().SafeSub(uint64(att.Data.Slot))
	if err != nil {
		return errors.Wrapf(err, "att slot %d can't be greater than state slot %d", att.Data.Slot, st.Slot())
	}
	participatedFlags, err := AttestationParticipationFlagIndices(st, att.Data, delay)
	if err != nil {
		return err
	}
	indices, err := st.EpochCtx().AttestingIndices(att.Data, att.AggregationBits)
	if err != nil {
		return err
	}

	var proposerRewardNumerator uint64
	mutate := func(participation []byte) ([]byte, error) {
		proposerRewardNumerator, err = EpochParticipation(st, indices, participation, participatedFlags)
		return participation, err
	}
	if att.Data.Target.Epoch == time.CurrentEpoch(cfg, st) {
		err = st.ModifyCurrentParticipationBits(mutate)
	} else {
		err = st.ModifyPreviousParticipationBits(mutate)
	}
	if err != nil {
		return err
	}
	return RewardProposer(st, proposerRewardNumerator)
}

// EpochParticipation sets the participation flags of every attesting index and returns the
// proposer reward numerator, the sum of the weighted base rewards of the newly set flags.
func EpochParticipation(st *cache.CachedBeaconState, indices []uint64, epochParticipation []byte, participatedFlags map[uint8]bool) (uint64, error) {
	cfg := st.Config()
	sourceFlagIndex := cfg.TimelySourceFlagIndex
	targetFlagIndex := cfg.TimelyTargetFlagIndex
	headFlagIndex := cfg.TimelyHeadFlagIndex
	proposerRewardNumerator := uint64(0)
	for _, index := range indices {
		if index >= uint64(len(epochParticipation)) {
			return 0, errors.Errorf("index %d exceeds participation length %d", index, len(epochParticipation))
		}
		br, err := BaseReward(st, primitives.ValidatorIndex(index))
		if err != nil {
			return 0, err
		}
		if participatedFlags[sourceFlagIndex] && !HasValidatorFlag(epochParticipation[index], sourceFlagIndex) {
			epochParticipation[index] = AddValidatorFlag(epochParticipation[index], sourceFlagIndex)
			proposerRewardNumerator += br * cfg.TimelySourceWeight
		}
		if participatedFlags[targetFlagIndex] && !HasValidatorFlag(epochParticipation[index], targetFlagIndex) {
			epochParticipation[index] = AddValidatorFlag(epochParticipation[index], targetFlagIndex)
			proposerRewardNumerator += br * cfg.TimelyTargetWeight
		}
		if participatedFlags[headFlagIndex] && !HasValidatorFlag(epochParticipation[index], headFlagIndex) {
			epochParticipation[index] = AddValidatorFlag(epochParticipation[index], headFlagIndex)
			proposerRewardNumerator += br * cfg.TimelyHeadWeight
		}
	}
	return proposerRewardNumerator, nil
}

// RewardProposer rewards proposer by increasing proposer's balance with input reward numerator and calculated reward denominator.
//
// Spec pseudocode definition:
//
//	proposer_reward_denominator = (WEIGHT_DENOMINATOR - PROPOSER_WEIGHT) * WEIGHT_DENOMINATOR // PROPOSER_WEIGHT
//	proposer_reward = Gwei(proposer_reward_numerator // proposer_reward_denominator)
//	increase_balance(state, get_beacon_proposer_index(state), proposer_reward)
func RewardProposer(st *cache.CachedBeaconState, proposerRewardNumerator uint64) error {
	cfg := st.Config()
	d := (cfg.WeightDenominator - cfg.ProposerWeight) * cfg.WeightDenominator / cfg.ProposerWeight
	proposerReward := proposerRewardNumerator / d
	i, err := st.EpochCtx().BeaconProposer(st.Slot())
	if err != nil {
		return err
	}
	return helpers.IncreaseBalance(st, i, proposerReward)
}

// AttestationParticipationFlagIndices retrieves a map of attestation scoring based on Altair's participation flag indices.
// This is used to facilitate process attestation during state transition and during upgrade to altair state.
//
// Spec pseudocode definition:
//
//	def get_attestation_participation_flag_indices(state: BeaconState,
//	                                             data: AttestationData,
//	                                             inclusion_delay: uint64) -> Sequence[int]:
//	  """
//	  Return the flag indices that are satisfied by an attestation.
//	  """
//	  if data.target.epoch == get_current_epoch(state):
//	      justified_checkpoint = state.current_justified_checkpoint
//	  else:
//	      justified_checkpoint = state.previous_justified_checkpoint
//
//	  # Matching roots
//	  is_matching_source = data.source == justified_checkpoint
//	  is_matching_target = is_matching_source and data.target.root == get_block_root(state, data.target.epoch)
//	  is_matching_head = is_matching_target and data.beacon_block_root == get_block_root_at_slot(state, data.slot)
//	  assert is_matching_source
//
//	  participation_flag_indices = []
//	  if is_matching_source and inclusion_delay <= integer_squareroot(SLOTS_PER_EPOCH):
//	      participation_flag_indices.append(TIMELY_SOURCE_FLAG_INDEX)
//	  if is_matching_target and inclusion_delay <= SLOTS_PER_EPOCH:
//	      participation_flag_indices.append(TIMELY_TARGET_FLAG_INDEX)
//	  if is_matching_head and inclusion_delay == MIN_ATTESTATION_INCLUSION_DELAY:
//	      participation_flag_indices.append(TIMELY_HEAD_FLAG_INDEX)
//
//	  return participation_flag_indices
func AttestationParticipationFlagIndices(st *cache.CachedBeaconState, data *ethpb.AttestationData, delay primitives.Slot) (map[uint8]bool, error) {
	if data == nil || data.Source == nil || data.Target == nil {
		return nil, errors.New("nil attestation data")
	}
	cfg := st.Config()
	currEpoch := time.CurrentEpoch(cfg, st)
	var justifiedCheckpt *ethpb.Checkpoint
	if data.Target.Epoch == currEpoch {
		justifiedCheckpt = st.CurrentJustifiedCheckpoint()
	} else {
		justifiedCheckpt = st.PreviousJustifiedCheckpoint()
	}

	matchedSrc, matchedTgt, matchedHead, err := MatchingStatus(cfg, st, data, justifiedCheckpt)
	if err != nil {
		return nil, err
	}
	if !matchedSrc {
		return nil, errors.New("source epoch does not match")
	}

	participatedFlags := make(map[uint8]bool)
	sourceFlagIndex := cfg.TimelySourceFlagIndex
	targetFlagIndex := cfg.TimelyTargetFlagIndex
	headFlagIndex := cfg.TimelyHeadFlagIndex
	slotsPerEpoch := cfg.SlotsPerEpoch
	sqtRootSlots := primitives.Slot(mathutil.IntegerSquareRoot(uint64(slotsPerEpoch)))
	if matchedSrc && delay <= sqtRootSlots {
		participatedFlags[sourceFlagIndex] = true
	}
	matchedSrcTgt := matchedSrc && matchedTgt
	if matchedSrcTgt && delay <= slotsPerEpoch {
		participatedFlags[targetFlagIndex] = true
	}
	matchedSrcTgtHead := matchedHead && matchedSrcTgt
	if matchedSrcTgtHead && delay == cfg.MinAttestationInclusionDelay {
		participatedFlags[headFlagIndex] = true
	}
	return participatedFlags, nil
}

// MatchingStatus returns the matching statues for attestation data's source target and head.
//
// Spec pseudocode definition:
//
//	is_matching_source = data.source == justified_checkpoint
//	is_matching_target = is_matching_source and data.target.root == get_block_root(state, data.target.epoch)
//	is_matching_head = is_matching_target and data.beacon_block_root == get_block_root_at_slot(state, data.slot)
func MatchingStatus(cfg *params.BeaconChainConfig, st *cache.CachedBeaconState, data *ethpb.AttestationData, cp *ethpb.Checkpoint) (matchedSrc, matchedTgt, matchedHead bool, err error) {
	matchedSrc = cp.Epoch == data.Source.Epoch && bytes.Equal(cp.Root, data.Source.Root)

	r, err := helpers.BlockRoot(cfg, st, data.Target.Epoch)
	if err != nil {
		return false, false, false, err
	}
	matchedTgt = bytes.Equal(r, data.Target.Root)

	r, err = helpers.BlockRootAtSlot(cfg, st, data.Slot)
	if err != nil {
		return false, false, false, err
	}
	matchedHead = bytes.Equal(r, data.BeaconBlockRoot)
	return
}

// HasValidatorFlag returns true if the flag at position has set.
func HasValidatorFlag(flag, flagPosition uint8) bool {
	return ((flag >> flagPosition) & 1) == 1
}

// AddValidatorFlag adds new validator flag to existing one.
func AddValidatorFlag(flag, flagPosition uint8) uint8 {
	return flag | (1 << flagPosition)
}
