package transition_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

// With every committee attesting in the next block the chain justifies every epoch from
// epoch 1 on and finalizes the epoch before the last justified one.
func TestStateTransition_FullAttestationsFinalize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping four epochs of blocks in short mode")
	}
	st, privs := util.DeterministicGenesisState(t, util.TestConfig(), 64)
	cfg := st.Config()
	conf := &util.BlockGenConfig{NumAttestations: cfg.MaxCommitteesPerSlot}

	for slot := primitives.Slot(1); slot <= 4*cfg.SlotsPerEpoch; slot++ {
		blk, err := util.GenerateFullBlock(st, privs, conf, slot)
		require.NoError(t, err)
		st, err = transition.ExecuteStateTransition(context.Background(), st, blk, transition.DefaultOptions())
		require.NoError(t, err, "slot %d", slot)
	}

	assert.Equal(t, primitives.Epoch(4), st.EpochCtx().Epoch())
	assert.Equal(t, primitives.Epoch(3), st.CurrentJustifiedCheckpoint().Epoch)
	assert.Equal(t, primitives.Epoch(2), st.PreviousJustifiedCheckpoint().Epoch)
	assert.Equal(t, primitives.Epoch(2), st.FinalizedCheckpoint().Epoch)
	// Nobody missed a duty, so nobody lost balance.
	for i, bal := range st.Balances() {
		assert.Equal(t, true, bal >= cfg.MaxEffectiveBalance, "validator %d", i)
	}
}

func TestStateTransition_AltairFinalize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping four epochs of blocks in short mode")
	}
	st, privs := util.DeterministicGenesisStateAltair(t, 64)
	cfg := st.Config()
	conf := &util.BlockGenConfig{NumAttestations: cfg.MaxCommitteesPerSlot}

	for slot := primitives.Slot(1); slot <= 4*cfg.SlotsPerEpoch; slot++ {
		blk, err := util.GenerateFullBlock(st, privs, conf, slot)
		require.NoError(t, err)
		st, err = transition.ExecuteStateTransition(context.Background(), st, blk, transition.DefaultOptions())
		require.NoError(t, err, "slot %d", slot)
	}

	assert.Equal(t, primitives.Epoch(3), st.CurrentJustifiedCheckpoint().Epoch)
	assert.Equal(t, primitives.Epoch(2), st.FinalizedCheckpoint().Epoch)
	scores, err := st.InactivityScores()
	require.NoError(t, err)
	for i, score := range scores {
		assert.Equal(t, uint64(0), score, "validator %d", i)
	}
}
