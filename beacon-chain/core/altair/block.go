package altair

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// ProcessSyncAggregate applies the sync committee rewards and penalties of a block's sync
// aggregate. The aggregate signature is not verified here, it is collected by
// blocks.SyncAggregateSignatureSet and verified with the rest of the block's signatures.
//
// Spec code:
// def process_sync_aggregate(state: BeaconState, sync_aggregate: SyncAggregate) -> None:
//
//	# Verify sync committee aggregate signature signing over the previous slot block root
//	committee_pubkeys = state.current_sync_committee.pubkeys
//	participant_pubkeys = [pubkey for pubkey, bit in zip(committee_pubkeys, sync_aggregate.sync_committee_bits) if bit]
//	previous_slot = max(state.slot, Slot(1)) - Slot(1)
//	domain = get_domain(state, DOMAIN_SYNC_COMMITTEE, compute_epoch_at_slot(previous_slot))
//	signing_root = compute_signing_root(get_block_root_at_slot(state, previous_slot), domain)
//	assert eth2_fast_aggregate_verify(participant_pubkeys, signing_root, sync_aggregate.sync_committee_signature)
//
//	# Compute participant and proposer rewards
//	total_active_increments = get_total_active_balance(state) // EFFECTIVE_BALANCE_INCREMENT
//	total_base_rewards = Gwei(get_base_reward_per_increment(state) * total_active_increments)
//	max_participant_rewards = Gwei(total_base_rewards * SYNC_REWARD_WEIGHT // WEIGHT_DENOMINATOR // SLOTS_PER_EPOCH)
//	participant_reward = Gwei(max_participant_rewards // SYNC_COMMITTEE_SIZE)
//	proposer_reward = Gwei(participant_reward * PROPOSER_WEIGHT // (WEIGHT_DENOMINATOR - PROPOSER_WEIGHT))
//
//	# Apply participant and proposer rewards
//	all_pubkeys = [v.pubkey for v in state.validators]
//	committee_indices = [ValidatorIndex(all_pubkeys.index(pubkey)) for pubkey in state.current_sync_committee.pubkeys]
//	for participant_index, participation_bit in zip(committee_indices, sync_aggregate.sync_committee_bits):
//	    if participation_bit:
//	        increase_balance(state, participant_index, participant_reward)
//	        increase_balance(state, get_beacon_proposer_index(state), proposer_reward)
//	    else:
//	        decrease_balance(state, participant_index, participant_reward)
func ProcessSyncAggregate(ctx context.Context, st *cache.CachedBeaconState, sync *ethpb.SyncAggregate) error {
	_, span := trace.StartSpan(ctx, "altair.ProcessSyncAggregate")
	defer span.End()

	if sync == nil {
		return errors.New("nil sync aggregate")
	}
	cfg := st.Config()
	epochCtx := st.EpochCtx()
	committee, err := epochCtx.SyncCommitteeAtEpoch(time.CurrentEpoch(cfg, st))
	if err != nil {
		return err
	}
	if sync.SyncCommitteeBits.Len() != uint64(len(committee.ValidatorIndices)) {
		return errors.Errorf("sync committee bits length %d does not match committee size %d", sync.SyncCommitteeBits.Len(), len(committee.ValidatorIndices))
	}
	proposerIndex, err := epochCtx.BeaconProposer(st.Slot())
	if err != nil {
		return err
	}

	participantReward := epochCtx.SyncParticipantReward()
	proposerReward := epochCtx.SyncProposerReward()
	balances := st.Balances()
	earnedProposerReward := uint64(0)
	for i, vIdx := range committee.ValidatorIndices {
		if uint64(vIdx) >= uint64(len(balances)) {
			return errors.Errorf("sync committee member %d is not in the registry", vIdx)
		}
		if sync.SyncCommitteeBits.BitAt(uint64(i)) {
			balances[vIdx], err = helpers.IncreaseBalanceWithVal(balances[vIdx], participantReward)
			if err != nil {
				return err
			}
			earnedProposerReward += proposerReward
		} else {
			balances[vIdx] = helpers.DecreaseBalanceWithVal(balances[vIdx], participantReward)
		}
	}
	if uint64(proposerIndex) >= uint64(len(balances)) {
		return errors.Errorf("proposer index %d is not in the registry", proposerIndex)
	}
	balances[proposerIndex], err = helpers.IncreaseBalanceWithVal(balances[proposerIndex], earnedProposerReward)
	if err != nil {
		return err
	}
	return st.SetBalances(balances)
}
