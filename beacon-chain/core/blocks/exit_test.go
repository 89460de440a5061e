package blocks_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func signedExit(idx primitives.ValidatorIndex, epoch primitives.Epoch) *ethpb.SignedVoluntaryExit {
	return &ethpb.SignedVoluntaryExit{
		Exit:      &ethpb.VoluntaryExit{ValidatorIndex: idx, Epoch: epoch},
		Signature: make([]byte, 96),
	}
}

func TestProcessVoluntaryExits_NotActiveLongEnoughToExit(t *testing.T) {
	st := registryState(t, util.TestConfig(), 64)
	err := blocks.ProcessVoluntaryExits(context.Background(), st, []*ethpb.SignedVoluntaryExit{signedExit(0, 0)})
	assert.ErrorContains(t, blocks.ValidatorCannotExitYetMsg, err)
}

func TestProcessVoluntaryExits_AppliesCorrectStatus(t *testing.T) {
	cfg := util.TestConfig()
	cfg.ShardCommitteePeriod = 0
	st := registryState(t, cfg, 64)

	require.NoError(t, blocks.ProcessVoluntaryExits(context.Background(), st, []*ethpb.SignedVoluntaryExit{signedExit(0, 0)}))
	val, err := st.ValidatorAtIndexReadOnly(0)
	require.NoError(t, err)
	// compute_activation_exit_epoch(0) = 1 + MAX_SEED_LOOKAHEAD.
	wantExit := 1 + cfg.MaxSeedLookahead
	assert.Equal(t, wantExit, val.ExitEpoch())
	assert.Equal(t, wantExit+cfg.MinValidatorWithdrawabilityDelay, val.WithdrawableEpoch())

	err = blocks.ProcessVoluntaryExits(context.Background(), st, []*ethpb.SignedVoluntaryExit{signedExit(0, 0)})
	assert.ErrorContains(t, blocks.ValidatorAlreadyExitedMsg, err)
}

func TestProcessVoluntaryExits_ChurnLimit(t *testing.T) {
	cfg := util.TestConfig()
	cfg.ShardCommitteePeriod = 0
	st := registryState(t, cfg, 64)
	// With a small registry the churn limit is MIN_PER_EPOCH_CHURN_LIMIT.
	limit := cfg.MinPerEpochChurnLimit
	exits := make([]*ethpb.SignedVoluntaryExit, limit+1)
	for i := range exits {
		exits[i] = signedExit(primitives.ValidatorIndex(i), 0)
	}
	require.NoError(t, blocks.ProcessVoluntaryExits(context.Background(), st, exits))

	wantExit := 1 + cfg.MaxSeedLookahead
	for i := uint64(0); i < limit; i++ {
		val, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(i))
		require.NoError(t, err)
		assert.Equal(t, wantExit, val.ExitEpoch())
	}
	last, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(limit))
	require.NoError(t, err)
	assert.Equal(t, wantExit+1, last.ExitEpoch())
}

func TestVerifyExitConditions(t *testing.T) {
	cfg := util.TestConfig()
	cfg.ShardCommitteePeriod = 0
	tests := []struct {
		name    string
		val     *ethpb.Validator
		exit    *ethpb.VoluntaryExit
		wantErr string
	}{
		{
			name:    "not yet active",
			val:     &ethpb.Validator{ActivationEpoch: 5, ExitEpoch: cfg.FarFutureEpoch},
			exit:    &ethpb.VoluntaryExit{},
			wantErr: "non-active validator cannot exit",
		},
		{
			name:    "exit epoch in the future",
			val:     &ethpb.Validator{ExitEpoch: cfg.FarFutureEpoch},
			exit:    &ethpb.VoluntaryExit{Epoch: 3},
			wantErr: "expected current epoch >= exit epoch",
		},
		{
			name: "valid",
			val:  &ethpb.Validator{ExitEpoch: cfg.FarFutureEpoch},
			exit: &ethpb.VoluntaryExit{Epoch: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := util.NewBeaconState(func(s *ethpb.BeaconState) error {
				s.Validators = []*ethpb.Validator{tt.val}
				s.Balances = []uint64{cfg.MaxEffectiveBalance}
				return nil
			})
			require.NoError(t, err)
			val, err := st.ValidatorAtIndexReadOnly(0)
			require.NoError(t, err)
			err = blocks.VerifyExitConditions(cfg, val, tt.exit, 2)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, tt.wantErr, err)
			}
		})
	}
}
