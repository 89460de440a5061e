package altair

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// UpgradeToAltair updates input state to return the version Altair state. The cached state
// keeps its epoch context, which picks up the sync committees of the upgraded state.
//
// Spec code:
// def upgrade_to_altair(pre: phase0.BeaconState) -> BeaconState:
//
//	epoch = phase0.get_current_epoch(pre)
//	post = BeaconState(
//	    # Versioning
//	    genesis_time=pre.genesis_time,
//	    genesis_validators_root=pre.genesis_validators_root,
//	    slot=pre.slot,
//	    fork=Fork(
//	        previous_version=pre.fork.current_version,
//	        current_version=ALTAIR_FORK_VERSION,
//	        epoch=epoch,
//	    ),
//	    # History
//	    latest_block_header=pre.latest_block_header,
//	    block_roots=pre.block_roots,
//	    state_roots=pre.state_roots,
//	    historical_roots=pre.historical_roots,
//	    # Eth1
//	    eth1_data=pre.eth1_data,
//	    eth1_data_votes=pre.eth1_data_votes,
//	    eth1_deposit_index=pre.eth1_deposit_index,
//	    # Registry
//	    validators=pre.validators,
//	    balances=pre.balances,
//	    # Randomness
//	    randao_mixes=pre.randao_mixes,
//	    # Slashings
//	    slashings=pre.slashings,
//	    # Participation
//	    previous_epoch_participation=[ParticipationFlags(0b0000_0000) for _ in range(len(pre.validators))],
//	    current_epoch_participation=[ParticipationFlags(0b0000_0000) for _ in range(len(pre.validators))],
//	    # Finality
//	    justification_bits=pre.justification_bits,
//	    previous_justified_checkpoint=pre.previous_justified_checkpoint,
//	    current_justified_checkpoint=pre.current_justified_checkpoint,
//	    finalized_checkpoint=pre.finalized_checkpoint,
//	    # Inactivity
//	    inactivity_scores=[uint64(0) for _ in range(len(pre.validators))],
//	)
//	# Fill in previous epoch participation from the pre state's pending attestations
//	translate_participation(post, pre.previous_epoch_attestations)
//
//	# Fill in sync committees
//	# Note: A duplicate committee is assigned for the current and next committee at the fork boundary
//	post.current_sync_committee = get_next_sync_committee(post)
//	post.next_sync_committee = get_next_sync_committee(post)
//	return post
func UpgradeToAltair(ctx context.Context, st *cache.CachedBeaconState) error {
	ctx, span := trace.StartSpan(ctx, "altair.UpgradeToAltair")
	defer span.End()

	if st == nil || st.IsNil() {
		return errors.New("nil state")
	}
	if st.Version() != version.Phase0 {
		return errors.Errorf("can not upgrade a %s state to altair", version.String(st.Version()))
	}
	cfg := st.Config()
	epoch := time.CurrentEpoch(cfg, st)
	numValidators := st.NumValidators()

	s := &ethpb.BeaconStateAltair{
		GenesisTime:           st.GenesisTime(),
		GenesisValidatorsRoot: st.GenesisValidatorsRoot(),
		Slot:                  st.Slot(),
		Fork: &ethpb.Fork{
			PreviousVersion: st.Fork().CurrentVersion,
			CurrentVersion:  cfg.AltairForkVersion,
			Epoch:           epoch,
		},
		LatestBlockHeader:           st.LatestBlockHeader(),
		BlockRoots:                  st.BlockRoots(),
		StateRoots:                  st.StateRoots(),
		HistoricalRoots:             st.HistoricalRoots(),
		Eth1Data:                    st.Eth1Data(),
		Eth1DataVotes:               st.Eth1DataVotes(),
		Eth1DepositIndex:            st.Eth1DepositIndex(),
		Validators:                  st.Validators(),
		Balances:                    st.Balances(),
		RandaoMixes:                 st.RandaoMixes(),
		Slashings:                   st.Slashings(),
		PreviousEpochParticipation:  make([]byte, numValidators),
		CurrentEpochParticipation:   make([]byte, numValidators),
		JustificationBits:           st.JustificationBits(),
		PreviousJustifiedCheckpoint: st.PreviousJustifiedCheckpoint(),
		CurrentJustifiedCheckpoint:  st.CurrentJustifiedCheckpoint(),
		FinalizedCheckpoint:         st.FinalizedCheckpoint(),
		InactivityScores:            make([]uint64, numValidators),
	}
	newState, err := state_native.InitializeFromProtoUnsafeAltair(s)
	if err != nil {
		return err
	}
	prevEpochAtts, err := st.PreviousEpochAttestations()
	if err != nil {
		return err
	}

	// The upgraded state stays in the epoch of the context, so it can share it until the swap.
	post, err := cache.NewCachedBeaconState(newState, st.EpochCtx())
	if err != nil {
		return err
	}
	if err := TranslateParticipation(ctx, post, prevEpochAtts); err != nil {
		return errors.Wrap(err, "could not translate participation")
	}
	committee, _, err := NextSyncCommittee(ctx, post)
	if err != nil {
		return errors.Wrap(err, "could not compute sync committee")
	}
	if err := post.SetCurrentSyncCommittee(committee); err != nil {
		return err
	}
	if err := post.SetNextSyncCommittee(committee.Copy()); err != nil {
		return err
	}
	if err := st.ReplaceState(newState); err != nil {
		return err
	}
	if err := st.EpochCtx().LoadSyncCommittees(st); err != nil {
		return errors.Wrap(err, "could not load sync committees")
	}
	log.WithFields(logrus.Fields{
		"slot":  st.Slot(),
		"epoch": epoch,
	}).Debug("Upgraded state to altair")
	return nil
}

// TranslateParticipation translates pending attestations into participation bits, then inserts the bits into beacon state.
// This is helper function to convert phase 0 beacon state(pending_attestations) to Altair beacon state(participation_bits).
//
// Spec code:
// def translate_participation(state: BeaconState, pending_attestations: Sequence[phase0.PendingAttestation]) -> None:
//
//	for attestation in pending_attestations:
//	    data = attestation.data
//	    inclusion_delay = attestation.inclusion_delay
//	    # Translate attestation inclusion info to flag indices
//	    participation_flag_indices = get_attestation_participation_flag_indices(state, data, inclusion_delay)
//
//	    # Apply flags to all attesting validators
//	    epoch_participation = state.previous_epoch_participation
//	    for index in get_attesting_indices(state, data, attestation.aggregation_bits):
//	        for flag_index in participation_flag_indices:
//	            epoch_participation[index] = add_flag(epoch_participation[index], flag_index)
func TranslateParticipation(ctx context.Context, st *cache.CachedBeaconState, atts []*ethpb.PendingAttestation) error {
	_, span := trace.StartSpan(ctx, "altair.TranslateParticipation")
	defer span.End()

	cfg := st.Config()
	flagIndices := []uint8{cfg.TimelySourceFlagIndex, cfg.TimelyTargetFlagIndex, cfg.TimelyHeadFlagIndex}
	type translated struct {
		indices []uint64
		flags   map[uint8]bool
	}
	// Flags and committees are resolved before the participation list is locked for writing.
	records := make([]translated, 0, len(atts))
	for _, att := range atts {
		if att == nil || att.Data == nil {
			return errors.New("nil pending attestation")
		}
		participatedFlags, err := AttestationParticipationFlagIndices(st, att.Data, att.InclusionDelay)
		if err != nil {
			return err
		}
		indices, err := st.EpochCtx().AttestingIndices(att.Data, att.AggregationBits)
		if err != nil {
			return err
		}
		records = append(records, translated{indices: indices, flags: participatedFlags})
	}

	return st.ModifyPreviousParticipationBits(func(epochParticipation []byte) ([]byte, error) {
		for _, r := range records {
			for _, index := range r.indices {
				if index >= uint64(len(epochParticipation)) {
					return nil, errors.Errorf("index %d exceeds participation length %d", index, len(epochParticipation))
				}
				for _, f := range flagIndices {
					if r.flags[f] {
						epochParticipation[index] = AddValidatorFlag(epochParticipation[index], f)
					}
				}
			}
		}
		return epochParticipation, nil
	})
}
