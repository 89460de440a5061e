package blocks

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// ProcessEth1DataInBlock is an operation performed on each
// beacon block to ensure the ETH1 data votes are processed
// into the beacon state.
//
// Official spec definition:
//
//	def process_eth1_data(state: BeaconState, body: BeaconBlockBody) -> None:
//	 state.eth1_data_votes.append(body.eth1_data)
//	 if state.eth1_data_votes.count(body.eth1_data) * 2 > EPOCHS_PER_ETH1_VOTING_PERIOD * SLOTS_PER_EPOCH:
//	     state.eth1_data = body.eth1_data
func ProcessEth1DataInBlock(ctx context.Context, st *cache.CachedBeaconState, data *ethpb.Eth1Data) error {
	_, span := trace.StartSpan(ctx, "core.ProcessEth1DataInBlock")
	defer span.End()

	if st == nil || st.IsNil() {
		return errors.New("nil state")
	}
	if data == nil {
		return errors.New("nil eth1 data in block")
	}
	if err := st.AppendEth1DataVotes(data); err != nil {
		return err
	}
	hasSupport, err := Eth1DataHasEnoughSupport(st, data)
	if err != nil {
		return err
	}
	if hasSupport {
		return st.SetEth1Data(data)
	}
	return nil
}

// AreEth1DataEqual checks equality between two eth1 data objects.
func AreEth1DataEqual(a, b *ethpb.Eth1Data) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.DepositCount == b.DepositCount &&
		bytes.Equal(a.BlockHash, b.BlockHash) &&
		bytes.Equal(a.DepositRoot, b.DepositRoot)
}

// Eth1DataHasEnoughSupport returns true when the given eth1data has more than 50% votes in the
// eth1 voting period. A vote is cast by including eth1data in a block and part of state processing
// appends eth1data to the state in the Eth1DataVotes list. Iterating through this list checks the
// votes to see if they match the eth1data.
func Eth1DataHasEnoughSupport(st *cache.CachedBeaconState, data *ethpb.Eth1Data) (bool, error) {
	voteCount := uint64(0)
	for _, vote := range st.Eth1DataVotes() {
		if AreEth1DataEqual(vote, data) {
			voteCount++
		}
	}
	cfg := st.Config()
	// If 50+% majority converged on the same eth1data, then it has enough support to update the
	// state.
	support := uint64(cfg.EpochsPerEth1VotingPeriod.Mul(uint64(cfg.SlotsPerEpoch)))
	return voteCount*2 > support, nil
}
