package state_native

import (
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// Eth1Data corresponding to the proof-of-work chain information stored in the beacon state.
func (b *BeaconState) Eth1Data() *ethpb.Eth1Data {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.eth1Data.Copy()
}

// Eth1DataVotes corresponds to votes from Ethereum on the canonical proof-of-work chain
// data retrieved from eth1.
func (b *BeaconState) Eth1DataVotes() []*ethpb.Eth1Data {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.eth1DataVotes == nil {
		return nil
	}
	res := make([]*ethpb.Eth1Data, len(b.eth1DataVotes))
	for i := range res {
		res[i] = b.eth1DataVotes[i].Copy()
	}
	return res
}

// Eth1DepositIndex corresponds to the index of the deposit made to the
// validator deposit contract at the time of this state's eth1 data.
func (b *BeaconState) Eth1DepositIndex() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.eth1DepositIndex
}
