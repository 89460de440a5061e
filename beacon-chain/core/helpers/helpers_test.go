package helpers

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func newTestState(t *testing.T, slot primitives.Slot, validators []*ethpb.Validator) state.BeaconState {
	balances := make([]uint64, len(validators))
	for i, v := range validators {
		balances[i] = v.EffectiveBalance
	}
	st, err := state_native.InitializeFromProtoPhase0(&ethpb.BeaconState{
		Slot:       slot,
		Validators: validators,
		Balances:   balances,
	})
	require.NoError(t, err)
	return st
}

func activeValidators(cfg *params.BeaconChainConfig, n int) []*ethpb.Validator {
	vals := make([]*ethpb.Validator, n)
	for i := range vals {
		vals[i] = &ethpb.Validator{
			PublicKey:                  make([]byte, 48),
			WithdrawalCredentials:      make([]byte, 32),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		}
	}
	return vals
}
