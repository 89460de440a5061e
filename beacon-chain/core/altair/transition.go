// Package altair implements the altair fork of the state transition: participation flag
// based attestations and rewards, inactivity scores, sync committees and the upgrade of a
// phase0 state.
package altair

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	e "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "altair")

// ProcessEpoch describes the per epoch operations that are performed on the beacon state.
// It's optimized by pre computing validator attested info and epoch total/attested balances upfront.
//
// Spec code:
// def process_epoch(state: BeaconState) -> None:
//
//	process_justification_and_finalization(state)  # [Modified in Altair]
//	process_inactivity_updates(state)  # [New in Altair]
//	process_rewards_and_penalties(state)  # [Modified in Altair]
//	process_registry_updates(state)
//	process_slashings(state)  # [Modified in Altair]
//	process_eth1_data_reset(state)
//	process_effective_balance_updates(state)
//	process_slashings_reset(state)
//	process_randao_mixes_reset(state)
//	process_historical_roots_update(state)
//	process_participation_flag_updates(state)  # [New in Altair]
//	process_sync_committee_updates(state)  # [New in Altair]
func ProcessEpoch(ctx context.Context, st *cache.CachedBeaconState) (*precompute.EpochProcess, error) {
	ctx, span := trace.StartSpan(ctx, "altair.ProcessEpoch")
	defer span.End()

	if st == nil || st.IsNil() {
		return nil, errors.New("nil state")
	}
	if st.Version() != version.Altair {
		return nil, errors.Errorf("altair epoch processing on a %s state", version.String(st.Version()))
	}
	ep, err := precompute.New(ctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "could not gather epoch process")
	}

	// New in Altair.
	if err := e.ProcessJustificationAndFinalization(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process justification")
	}
	// New in Altair.
	if err := ProcessInactivityUpdates(ctx, st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process inactivity updates")
	}
	// New in Altair.
	if err := ProcessRewardsAndPenaltiesPrecompute(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process rewards and penalties")
	}
	if err := e.ProcessRegistryUpdates(ctx, st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process registry updates")
	}
	// Modified in Altair.
	if err := e.ProcessSlashings(st, ep); err != nil {
		return nil, errors.Wrap(err, "could not process slashings")
	}
	if err := e.ProcessFinalUpdates(st); err != nil {
		return nil, err
	}
	// New in Altair.
	if err := ProcessParticipationFlagUpdates(st); err != nil {
		return nil, errors.Wrap(err, "could not process participation flag updates")
	}
	// New in Altair.
	if err := ProcessSyncCommitteeUpdates(ctx, st); err != nil {
		return nil, errors.Wrap(err, "could not process sync committee updates")
	}
	return ep, nil
}
