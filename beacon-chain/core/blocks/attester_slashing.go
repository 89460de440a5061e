package blocks

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	v "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/container/slice"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ProcessAttesterSlashings is one of the operations performed
// on each processed beacon block to slash attesters based on
// Casper FFG slashing conditions if any slashable events occurred.
//
// Spec pseudocode definition:
//
//	def process_attester_slashing(state: BeaconState, attester_slashing: AttesterSlashing) -> None:
//	 attestation_1 = attester_slashing.attestation_1
//	 attestation_2 = attester_slashing.attestation_2
//	 assert is_slashable_attestation_data(attestation_1.data, attestation_2.data)
//	 assert is_valid_indexed_attestation(state, attestation_1)
//	 assert is_valid_indexed_attestation(state, attestation_2)
//
//	 slashed_any = False
//	 indices = set(attestation_1.attesting_indices).intersection(attestation_2.attesting_indices)
//	 for index in sorted(indices):
//	     if is_slashable_validator(state.validators[index], get_current_epoch(state)):
//	         slash_validator(state, index)
//	         slashed_any = True
//	 assert slashed_any
//
// The aggregate signatures of both attestations are collected by AttesterSlashingSignatureSets.
func ProcessAttesterSlashings(
	ctx context.Context,
	st *cache.CachedBeaconState,
	slashings []*ethpb.AttesterSlashing,
) error {
	for idx, slashing := range slashings {
		if err := ProcessAttesterSlashing(ctx, st, slashing); err != nil {
			return errors.Wrapf(err, "could not process attester slashing at index %d in block", idx)
		}
	}
	return nil
}

// ProcessAttesterSlashing processes individual attester slashing.
func ProcessAttesterSlashing(
	ctx context.Context,
	st *cache.CachedBeaconState,
	slashing *ethpb.AttesterSlashing,
) error {
	if err := VerifyAttesterSlashing(st, slashing); err != nil {
		return errors.Wrap(err, "could not verify attester slashing")
	}
	currentEpoch := time.CurrentEpoch(st.Config(), st)
	slashableIndices := SlashableAttesterIndices(slashing)
	slashedAny := false
	for _, validatorIndex := range slashableIndices {
		val, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(validatorIndex))
		if err != nil {
			return err
		}
		if helpers.IsSlashableValidatorUsingTrie(val, currentEpoch) {
			if err := v.SlashValidator(ctx, st, primitives.ValidatorIndex(validatorIndex)); err != nil {
				return errors.Wrapf(err, "could not slash validator index %d", validatorIndex)
			}
			slashedAny = true
		}
	}
	if !slashedAny {
		return errors.New("unable to slash any validator despite confirmed attester slashing")
	}
	return nil
}

// VerifyAttesterSlashing validates the attestation data in both attestations in the slashing object.
func VerifyAttesterSlashing(st *cache.CachedBeaconState, slashing *ethpb.AttesterSlashing) error {
	if slashing == nil {
		return errors.New("nil slashing")
	}
	if slashing.Attestation_1 == nil || slashing.Attestation_2 == nil {
		return errors.New("nil attestation")
	}
	if slashing.Attestation_1.Data == nil || slashing.Attestation_2.Data == nil {
		return errors.New("nil attestation data")
	}
	att1 := slashing.Attestation_1
	att2 := slashing.Attestation_2
	data1 := att1.Data
	data2 := att2.Data
	if !IsSlashableAttestationData(data1, data2) {
		return errors.New("attestations are not slashable")
	}
	if err := VerifyIndexedAttestationIndices(st, att1); err != nil {
		return errors.Wrap(err, "could not validate indexed attestation 1")
	}
	if err := VerifyIndexedAttestationIndices(st, att2); err != nil {
		return errors.Wrap(err, "could not validate indexed attestation 2")
	}
	return nil
}

// IsSlashableAttestationData verifies a slashing against the Casper Proof of Stake FFG rules.
//
// Spec pseudocode definition:
//
//	def is_slashable_attestation_data(data_1: AttestationData, data_2: AttestationData) -> bool:
//	 """
//	 Check if ``data_1`` and ``data_2`` are slashable according to Casper FFG rules.
//	 """
//	 return (
//	     # Double vote
//	     (data_1 != data_2 and data_1.target.epoch == data_2.target.epoch) or
//	     # Surround vote
//	     (data_1.source.epoch < data_2.source.epoch and data_2.target.epoch < data_1.target.epoch)
//	 )
func IsSlashableAttestationData(data1, data2 *ethpb.AttestationData) bool {
	if data1 == nil || data2 == nil || data1.Target == nil || data2.Target == nil || data1.Source == nil || data2.Source == nil {
		return false
	}
	r1, err := data1.HashTreeRoot()
	if err != nil {
		return false
	}
	r2, err := data2.HashTreeRoot()
	if err != nil {
		return false
	}
	isDoubleVote := r1 != r2 && data1.Target.Epoch == data2.Target.Epoch
	att1Source := data1.Source.Epoch
	att2Source := data2.Source.Epoch
	att1Target := data1.Target.Epoch
	att2Target := data2.Target.Epoch
	isSurroundVote := att1Source < att2Source && att2Target < att1Target
	return isDoubleVote || isSurroundVote
}

// SlashableAttesterIndices returns the intersection of the attesting indices of a slashing's
// two attestations, in ascending order.
func SlashableAttesterIndices(slashing *ethpb.AttesterSlashing) []uint64 {
	if slashing == nil || slashing.Attestation_1 == nil || slashing.Attestation_2 == nil {
		return nil
	}
	indices := slice.IntersectionUint64(slashing.Attestation_1.AttestingIndices, slashing.Attestation_2.AttestingIndices)
	sort.Slice(indices, func(i, j int) bool {
		return indices[i] < indices[j]
	})
	return indices
}

// VerifyIndexedAttestationIndices checks the structural half of is_valid_indexed_attestation:
// the attesting indices are non empty, sorted, unique, bounded by the committee size and
// present in the registry.
//
// Spec pseudocode definition:
//
//	def is_valid_indexed_attestation(state: BeaconState, indexed_attestation: IndexedAttestation) -> bool:
//	 """
//	 Check if ``indexed_attestation`` is not empty, has sorted and unique indices and has a valid aggregate signature.
//	 """
//	 # Verify indices are sorted and unique
//	 indices = indexed_attestation.attesting_indices
//	 if len(indices) == 0 or not indices == sorted(set(indices)):
//	     return False
//	 # Verify aggregate signature
//	 pubkeys = [state.validators[i].pubkey for i in indices]
//	 domain = get_domain(state, DOMAIN_BEACON_ATTESTER, indexed_attestation.data.target.epoch)
//	 signing_root = compute_signing_root(indexed_attestation.data, domain)
//	 return bls.FastAggregateVerify(pubkeys, signing_root, indexed_attestation.signature)
func VerifyIndexedAttestationIndices(st *cache.CachedBeaconState, indexedAtt *ethpb.IndexedAttestation) error {
	if indexedAtt == nil || indexedAtt.Data == nil || indexedAtt.Data.Target == nil {
		return errors.New("nil or missing indexed attestation data")
	}
	indices := indexedAtt.AttestingIndices
	if len(indices) == 0 {
		return errors.New("expected non-empty attesting indices")
	}
	if uint64(len(indices)) > st.Config().MaxValidatorsPerCommittee {
		return errors.Errorf("validator indices count exceeds MAX_VALIDATORS_PER_COMMITTEE, %d > %d", len(indices), st.Config().MaxValidatorsPerCommittee)
	}
	if !slice.IsSortedUniqueUint64(indices) {
		return errors.New("attesting indices is not uniquely sorted")
	}
	if last := indices[len(indices)-1]; last >= uint64(st.NumValidators()) {
		return errors.Errorf("attesting index %d is not in the registry", last)
	}
	return nil
}
