package blocks_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func eth1Vote(count uint64, hash byte) *ethpb.Eth1Data {
	return &ethpb.Eth1Data{
		DepositRoot:  bytesutil.PadTo([]byte{hash}, 32),
		DepositCount: count,
		BlockHash:    bytesutil.PadTo([]byte{hash}, 32),
	}
}

func TestProcessEth1Data_SetsCorrectly(t *testing.T) {
	cfg := util.TestConfig()
	cfg.EpochsPerEth1VotingPeriod = 1
	st := registryState(t, cfg, 8)
	period := uint64(cfg.SlotsPerEpoch)
	vote := eth1Vote(12, 'v')

	for i := uint64(0); i < period/2; i++ {
		require.NoError(t, blocks.ProcessEth1DataInBlock(context.Background(), st, vote))
		assert.Equal(t, false, blocks.AreEth1DataEqual(vote, st.Eth1Data()), "vote %d", i)
	}
	// A strict majority of the voting period adopts the vote.
	require.NoError(t, blocks.ProcessEth1DataInBlock(context.Background(), st, vote))
	assert.Equal(t, true, blocks.AreEth1DataEqual(vote, st.Eth1Data()))
	assert.Equal(t, int(period/2+1), len(st.Eth1DataVotes()))
}

func TestProcessEth1Data_SplitVotesDoNotConverge(t *testing.T) {
	cfg := util.TestConfig()
	cfg.EpochsPerEth1VotingPeriod = 1
	st := registryState(t, cfg, 8)
	original := st.Eth1Data()
	for i := uint64(0); i < uint64(cfg.SlotsPerEpoch); i++ {
		require.NoError(t, blocks.ProcessEth1DataInBlock(context.Background(), st, eth1Vote(12, byte(i%2))))
	}
	assert.Equal(t, true, blocks.AreEth1DataEqual(original, st.Eth1Data()))
}

func TestProcessEth1Data_Nil(t *testing.T) {
	st := registryState(t, util.TestConfig(), 8)
	assert.ErrorContains(t, "nil eth1 data in block", blocks.ProcessEth1DataInBlock(context.Background(), st, nil))
}

func TestAreEth1DataEqual(t *testing.T) {
	tests := []struct {
		name string
		a    *ethpb.Eth1Data
		b    *ethpb.Eth1Data
		want bool
	}{
		{name: "both nil", want: true},
		{name: "one nil", a: eth1Vote(1, 'a'), want: false},
		{name: "equal", a: eth1Vote(1, 'a'), b: eth1Vote(1, 'a'), want: true},
		{name: "different count", a: eth1Vote(1, 'a'), b: eth1Vote(2, 'a'), want: false},
		{name: "different roots", a: eth1Vote(1, 'a'), b: eth1Vote(1, 'b'), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blocks.AreEth1DataEqual(tt.a, tt.b))
		})
	}
}
