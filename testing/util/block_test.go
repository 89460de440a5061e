package util

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestGenerateFullBlock_PassesStateTransition(t *testing.T) {
	beaconState, privs := DeterministicGenesisState(t, TestConfig(), 64)
	blk, err := GenerateFullBlock(beaconState, privs, DefaultBlockGenConfig(), 1)
	require.NoError(t, err)
	require.Equal(t, version.Phase0, blk.Version())
	assert.Equal(t, 1, len(blk.Block().Body().Attestations()))

	_, err = transition.ExecuteStateTransition(context.Background(), beaconState, blk, transition.DefaultOptions())
	require.NoError(t, err)
}

func TestGenerateFullBlock_Altair(t *testing.T) {
	beaconState, privs := DeterministicGenesisStateAltair(t, 64)
	require.Equal(t, version.Altair, beaconState.Version())
	blk, err := GenerateFullBlock(beaconState, privs, DefaultBlockGenConfig(), 1)
	require.NoError(t, err)
	require.Equal(t, version.Altair, blk.Version())
	sync, err := blk.Block().Body().SyncAggregate()
	require.NoError(t, err)
	assert.Equal(t, uint64(512), sync.SyncCommitteeBits.Count())

	_, err = transition.ExecuteStateTransition(context.Background(), beaconState, blk, transition.DefaultOptions())
	require.NoError(t, err)
}

func TestGenerateFullBlock_ValidOperations(t *testing.T) {
	cfg := TestConfig()
	cfg.ShardCommitteePeriod = 0
	beaconState, privs := DeterministicGenesisState(t, cfg, 64)
	conf := &BlockGenConfig{
		NumProposerSlashings: 1,
		NumAttesterSlashings: 1,
		NumAttestations:      1,
		NumVoluntaryExits:    1,
	}
	blk, err := GenerateFullBlock(beaconState, privs, conf, 2)
	require.NoError(t, err)
	body := blk.Block().Body()
	assert.Equal(t, 1, len(body.ProposerSlashings()))
	assert.Equal(t, 1, len(body.AttesterSlashings()))
	assert.Equal(t, 1, len(body.VoluntaryExits()))

	post, err := transition.ExecuteStateTransition(context.Background(), beaconState, blk, transition.DefaultOptions())
	require.NoError(t, err)
	slashed, exited := 0, 0
	for _, val := range post.Validators() {
		if val.Slashed {
			slashed++
		} else if val.ExitEpoch != cfg.FarFutureEpoch {
			exited++
		}
	}
	assert.Equal(t, 2, slashed)
	assert.Equal(t, 1, exited)
}

func TestBlockSignature_MatchesBlockSignatureSet(t *testing.T) {
	beaconState, privs := DeterministicGenesisState(t, TestConfig(), 64)
	blk, err := GenerateFullBlock(beaconState, privs, nil, 1)
	require.NoError(t, err)

	pre := beaconState.Clone()
	require.NoError(t, transition.ProcessSlots(context.Background(), pre, 1))
	set, err := blocks.BlockSignatureSet(pre, blk)
	require.NoError(t, err)
	ok, err := set.Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)
}

func TestRandaoReveal_MatchesRandaoSignatureSet(t *testing.T) {
	beaconState, privs := DeterministicGenesisState(t, TestConfig(), 64)
	reveal, err := RandaoReveal(beaconState, 0, privs)
	require.NoError(t, err)

	set, err := blocks.RandaoSignatureSet(context.Background(), beaconState, reveal)
	require.NoError(t, err)
	ok, err := set.Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)
}
