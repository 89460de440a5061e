package blocks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
	"go.opencensus.io/trace"
)

// ProcessAttestationsNoVerifySignature applies processing operations to a block's inner attestation
// records. The attestation signatures are collected by AttestationSignatureSets and verified with
// the rest of the block.
func ProcessAttestationsNoVerifySignature(
	ctx context.Context,
	st *cache.CachedBeaconState,
	atts []*ethpb.Attestation,
) error {
	for idx, att := range atts {
		if err := ProcessAttestationNoVerifySignature(ctx, st, att); err != nil {
			return errors.Wrapf(err, "could not verify attestation at index %d in block", idx)
		}
	}
	return nil
}

// ProcessAttestationNoVerifySignature processes the attestation of a phase0 state without verifying
// the attestation signature.
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
//	  pending_attestation = PendingAttestation(
//	      data=data,
//	      aggregation_bits=attestation.aggregation_bits,
//	      inclusion_delay=state.slot - data.slot,
//	      proposer_index=get_beacon_proposer_index(state),
//	  )
//
//	  if data.target.epoch == get_current_epoch(state):
//	      assert data.source == state.current_justified_checkpoint
//	      state.current_epoch_attestations.append(pending_attestation)
//	  else:
//	      assert data.source == state.previous_justified_checkpoint
//	      state.previous_epoch_attestations.append(pending_attestation)
//
//	  # Verify signature
//	  assert is_valid_indexed_attestation(state, get_indexed_attestation(state, attestation))
func ProcessAttestationNoVerifySignature(
	ctx context.Context,
	st *cache.CachedBeaconState,
	att *ethpb.Attestation,
) error {
	ctx, span := trace.StartSpan(ctx, "core.ProcessAttestationNoVerifySignature")
	defer span.End()

	if st.Version() != version.Phase0 {
		return errors.Errorf("pending attestations are not supported by %s states", version.String(st.Version()))
	}
	if err := VerifyAttestationNoVerifySignature(ctx, st, att); err != nil {
		return err
	}

	proposerIndex, err := st.EpochCtx().BeaconProposer(st.Slot())
	if err != nil {
		return err
	}
	pendingAtt := &ethpb.PendingAttestation{
		Data:            att.Data,
		AggregationBits: att.AggregationBits,
		InclusionDelay:  st.Slot() - att.Data.Slot,
		ProposerIndex:   proposerIndex,
	}
	if att.Data.Target.Epoch == time.CurrentEpoch(st.Config(), st) {
		return st.AppendCurrentEpochAttestations(pendingAtt)
	}
	return st.AppendPreviousEpochAttestations(pendingAtt)
}

// VerifyAttestationNoVerifySignature verifies the attestation without verifying the attestation signature. This is
// used before processing attestation with the beacon state, by phase0 and altair alike.
func VerifyAttestationNoVerifySignature(
	ctx context.Context,
	st *cache.CachedBeaconState,
	att *ethpb.Attestation,
) error {
	_, span := trace.StartSpan(ctx, "core.VerifyAttestationNoVerifySignature")
	defer span.End()

	if err := ValidateNilAttestation(att); err != nil {
		return err
	}
	cfg := st.Config()
	currEpoch := time.CurrentEpoch(cfg, st)
	prevEpoch := time.PrevEpoch(cfg, st)
	data := att.Data
	if data.Target.Epoch != prevEpoch && data.Target.Epoch != currEpoch {
		return fmt.Errorf(
			"expected target epoch (%d) to be the previous epoch (%d) or the current epoch (%d)",
			data.Target.Epoch,
			prevEpoch,
			currEpoch,
		)
	}
	if data.Target.Epoch == currEpoch {
		if !data.Source.Equal(st.CurrentJustifiedCheckpoint()) {
			return errors.New("source check point not equal to current justified checkpoint")
		}
	} else {
		if !data.Source.Equal(st.PreviousJustifiedCheckpoint()) {
			return errors.New("source check point not equal to previous justified checkpoint")
		}
	}
	if slots.ToEpoch(cfg, data.Slot) != data.Target.Epoch {
		return fmt.Errorf("slot %d does not match target epoch %d", data.Slot, data.Target.Epoch)
	}

	s := data.Slot
	minInclusionCheck := s+cfg.MinAttestationInclusionDelay <= st.Slot()
	epochInclusionCheck := st.Slot() <= s+cfg.SlotsPerEpoch
	if !minInclusionCheck {
		return fmt.Errorf(
			"attestation slot %d + inclusion delay %d > state slot %d",
			s,
			cfg.MinAttestationInclusionDelay,
			st.Slot(),
		)
	}
	if !epochInclusionCheck {
		return fmt.Errorf(
			"state slot %d > attestation slot %d + SLOTS_PER_EPOCH %d",
			st.Slot(),
			s,
			cfg.SlotsPerEpoch,
		)
	}
	c, err := st.EpochCtx().CommitteeCountPerSlot(data.Target.Epoch)
	if err != nil {
		return err
	}
	if uint64(data.CommitteeIndex) >= c {
		return fmt.Errorf("committee index %d >= committee count %d", data.CommitteeIndex, c)
	}
	// Resolving the attesting indices checks the bitfield length against the committee.
	if _, err := st.EpochCtx().AttestingIndices(data, att.AggregationBits); err != nil {
		return errors.Wrap(err, "could not verify attestation bitfields")
	}
	return nil
}

// ValidateNilAttestation checks if any composite field of input attestation is nil.
// Access to these nil fields will result in run time panic,
// it is recommended to run these checks as first line of defense.
func ValidateNilAttestation(attestation *ethpb.Attestation) error {
	if attestation == nil {
		return errors.New("attestation can't be nil")
	}
	if attestation.Data == nil {
		return errors.New("attestation's data can't be nil")
	}
	if attestation.Data.Source == nil {
		return errors.New("attestation's source can't be nil")
	}
	if attestation.Data.Target == nil {
		return errors.New("attestation's target can't be nil")
	}
	if attestation.AggregationBits == nil {
		return errors.New("attestation's bitfield can't be nil")
	}
	return nil
}
