package state_native

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetEth1Data for the beacon state.
func (b *BeaconState) SetEth1Data(val *ethpb.Eth1Data) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.eth1Data = val.Copy()
	b.markFieldAsDirty(types.Eth1Data)
	return nil
}

// SetEth1DataVotes for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetEth1DataVotes(val []*ethpb.Eth1Data) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	votes := make([]*ethpb.Eth1Data, len(val))
	for i, v := range val {
		votes[i] = v.Copy()
	}
	b.replaceRef(types.Eth1DataVotes)
	b.eth1DataVotes = votes
	b.markFieldAsDirty(types.Eth1DataVotes)
	return nil
}

// AppendEth1DataVotes for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendEth1DataVotes(val *ethpb.Eth1Data) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.Eth1DataVotes, func() {
		votes := make([]*ethpb.Eth1Data, len(b.eth1DataVotes), len(b.eth1DataVotes)+1)
		copy(votes, b.eth1DataVotes)
		b.eth1DataVotes = votes
	})
	b.eth1DataVotes = append(b.eth1DataVotes, val.Copy())
	b.markFieldAsDirty(types.Eth1DataVotes)
	return nil
}

// SetEth1DepositIndex for the beacon state.
func (b *BeaconState) SetEth1DepositIndex(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.eth1DepositIndex = val
	b.markFieldAsDirty(types.Eth1DepositIndex)
	return nil
}
