package altair

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// NextSyncCommittee returns the next sync committee for a given state.
//
// Spec code:
// def get_next_sync_committee(state: BeaconState) -> SyncCommittee:
//
//	"""
//	Return the next sync committee, with possible pubkey duplicates.
//	"""
//	indices = get_next_sync_committee_indices(state)
//	pubkeys = [state.validators[index].pubkey for index in indices]
//	aggregate_pubkey = eth_aggregate_pubkeys(pubkeys)
//	return SyncCommittee(pubkeys=pubkeys, aggregate_pubkey=aggregate_pubkey)
func NextSyncCommittee(ctx context.Context, st *cache.CachedBeaconState) (*ethpb.SyncCommittee, []primitives.ValidatorIndex, error) {
	ctx, span := trace.StartSpan(ctx, "altair.NextSyncCommittee")
	defer span.End()

	indices, err := NextSyncCommitteeIndices(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	pubkeys := make([][]byte, len(indices))
	for i, index := range indices {
		p := st.PubkeyAtIndex(index)
		pubkeys[i] = p[:]
	}
	aggregated, err := bls.AggregatePublicKeys(pubkeys)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not aggregate sync committee pubkeys")
	}
	return &ethpb.SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: aggregated.Marshal(),
	}, indices, nil
}

// NextSyncCommitteeIndices returns the next upcoming sync committee indices, sampled from the
// validators active in the next epoch. The active set comes from the next shuffling of the
// epoch context, the effective balances from its balance table.
//
// Spec code:
// def get_next_sync_committee_indices(state: BeaconState) -> Sequence[ValidatorIndex]:
//
//	"""
//	Return the sync committee indices, with possible duplicates, for the next sync committee.
//	"""
//	epoch = Epoch(get_current_epoch(state) + 1)
//
//	MAX_RANDOM_BYTE = 2**8 - 1
//	active_validator_indices = get_active_validator_indices(state, epoch)
//	active_validator_count = uint64(len(active_validator_indices))
//	seed = get_seed(state, epoch, DOMAIN_SYNC_COMMITTEE)
//	i = 0
//	sync_committee_indices: List[ValidatorIndex] = []
//	while len(sync_committee_indices) < SYNC_COMMITTEE_SIZE:
//	    shuffled_index = compute_shuffled_index(uint64(i % active_validator_count), active_validator_count, seed)
//	    candidate_index = active_validator_indices[shuffled_index]
//	    random_byte = hash(seed + uint_to_bytes(uint64(i // 32)))[i % 32]
//	    effective_balance = state.validators[candidate_index].effective_balance
//	    if effective_balance * MAX_RANDOM_BYTE >= MAX_EFFECTIVE_BALANCE * random_byte:
//	        sync_committee_indices.append(candidate_index)
//	    i += 1
//	return sync_committee_indices
func NextSyncCommitteeIndices(ctx context.Context, st *cache.CachedBeaconState) ([]primitives.ValidatorIndex, error) {
	_, span := trace.StartSpan(ctx, "altair.NextSyncCommitteeIndices")
	defer span.End()

	cfg := st.Config()
	epochCtx := st.EpochCtx()
	epoch := time.NextEpoch(cfg, st)
	shuffling, err := epochCtx.ShufflingAtEpoch(epoch)
	if err != nil {
		return nil, err
	}
	seed, err := helpers.Seed(cfg, st, epoch, cfg.DomainSyncCommittee)
	if err != nil {
		return nil, err
	}
	return helpers.ComputeSyncCommitteeIndices(cfg, shuffling.ActiveIndices, epochCtx.EffectiveBalance, seed)
}

// ProcessSyncCommitteeUpdates processes sync client committee updates for the beacon state.
// The epoch context follows the rotation so the block processing of the next period reads the
// new committee.
//
// Spec code:
// def process_sync_committee_updates(state: BeaconState) -> None:
//
//	next_epoch = get_current_epoch(state) + Epoch(1)
//	if next_epoch % EPOCHS_PER_SYNC_COMMITTEE_PERIOD == 0:
//	    state.current_sync_committee = state.next_sync_committee
//	    state.next_sync_committee = get_next_sync_committee(state)
func ProcessSyncCommitteeUpdates(ctx context.Context, st *cache.CachedBeaconState) error {
	ctx, span := trace.StartSpan(ctx, "altair.ProcessSyncCommitteeUpdates")
	defer span.End()

	cfg := st.Config()
	nextEpoch := time.NextEpoch(cfg, st)
	if nextEpoch%cfg.EpochsPerSyncCommitteePeriod != 0 {
		return nil
	}
	nextSyncCommittee, err := st.NextSyncCommittee()
	if err != nil {
		return err
	}
	if err := st.SetCurrentSyncCommittee(nextSyncCommittee); err != nil {
		return err
	}
	committee, indices, err := NextSyncCommittee(ctx, st)
	if err != nil {
		return err
	}
	if err := st.SetNextSyncCommittee(committee); err != nil {
		return err
	}
	st.EpochCtx().RotateSyncCommittees(indices)
	log.WithField("epoch", nextEpoch).Debug("Rotated sync committees")
	return nil
}

// ProcessParticipationFlagUpdates processes participation flag updates by rotating current to previous.
//
// Spec code:
// def process_participation_flag_updates(state: BeaconState) -> None:
//
//	state.previous_epoch_participation = state.current_epoch_participation
//	state.current_epoch_participation = [ParticipationFlags(0b0000_0000) for _ in range(len(state.validators))]
func ProcessParticipationFlagUpdates(st *cache.CachedBeaconState) error {
	return st.RotateParticipationBits()
}
