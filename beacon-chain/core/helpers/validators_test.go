package helpers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestIsActiveValidator_OK(t *testing.T) {
	tests := []struct {
		a primitives.Epoch
		b bool
	}{
		{a: 0, b: false},
		{a: 10, b: true},
		{a: 100, b: false},
		{a: 1000, b: false},
		{a: 64, b: true},
	}
	for _, test := range tests {
		validator := &ethpb.Validator{ActivationEpoch: 10, ExitEpoch: 100}
		assert.Equal(t, test.b, IsActiveValidator(validator, test.a), "IsActiveValidator(%d)", test.a)
	}
}

func TestIsActiveValidatorUsingTrie_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	vals := activeValidators(cfg, 1)
	vals[0].ActivationEpoch = 10
	vals[0].ExitEpoch = 100
	st := newTestState(t, 0, vals)
	v, err := st.ValidatorAtIndexReadOnly(0)
	require.NoError(t, err)
	assert.Equal(t, false, IsActiveValidatorUsingTrie(v, 9))
	assert.Equal(t, true, IsActiveValidatorUsingTrie(v, 10))
	assert.Equal(t, false, IsActiveValidatorUsingTrie(v, 100))
}

func TestIsSlashableValidator_OK(t *testing.T) {
	tests := []struct {
		name      string
		validator *ethpb.Validator
		epoch     primitives.Epoch
		slashable bool
	}{
		{
			name:      "Unset withdrawable, slashable",
			validator: &ethpb.Validator{WithdrawableEpoch: primitives.FarFutureEpoch},
			epoch:     0,
			slashable: true,
		},
		{
			name:      "before withdrawable, slashable",
			validator: &ethpb.Validator{WithdrawableEpoch: 5},
			epoch:     3,
			slashable: true,
		},
		{
			name:      "inactive, not slashable",
			validator: &ethpb.Validator{ActivationEpoch: 5, WithdrawableEpoch: primitives.FarFutureEpoch},
			epoch:     2,
			slashable: false,
		},
		{
			name:      "after withdrawable, not slashable",
			validator: &ethpb.Validator{WithdrawableEpoch: 3},
			epoch:     3,
			slashable: false,
		},
		{
			name:      "slashed and withdrawable, not slashable",
			validator: &ethpb.Validator{Slashed: true, ExitEpoch: 1, WithdrawableEpoch: 1},
			epoch:     2,
			slashable: false,
		},
		{
			name:      "slashed, not slashable",
			validator: &ethpb.Validator{Slashed: true, ExitEpoch: primitives.FarFutureEpoch, WithdrawableEpoch: primitives.FarFutureEpoch},
			epoch:     2,
			slashable: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := test.validator
			got := IsSlashableValidator(v.ActivationEpoch, v.WithdrawableEpoch, v.Slashed, test.epoch)
			assert.Equal(t, test.slashable, got)

			v.PublicKey = make([]byte, 48)
			v.WithdrawalCredentials = make([]byte, 32)
			st := newTestState(t, 0, []*ethpb.Validator{v})
			ro, err := st.ValidatorAtIndexReadOnly(0)
			require.NoError(t, err)
			assert.Equal(t, test.slashable, IsSlashableValidatorUsingTrie(ro, test.epoch))
		})
	}
}

func TestActiveValidatorIndices(t *testing.T) {
	cfg := params.MainnetConfig()
	vals := activeValidators(cfg, 6)
	vals[1].ActivationEpoch = 5
	vals[3].ExitEpoch = 2
	vals[5].ActivationEpoch = cfg.FarFutureEpoch
	st := newTestState(t, 0, vals)

	got, err := ActiveValidatorIndices(st, 0)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{0, 2, 3, 4}, got)

	got, err = ActiveValidatorIndices(st, 5)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{0, 1, 2, 4}, got)

	count, err := ActiveValidatorCount(st, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestDelayedActivationExitEpoch_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	epoch := primitives.Epoch(9999)
	wanted := epoch + 1 + cfg.MaxSeedLookahead
	assert.Equal(t, wanted, ActivationExitEpoch(cfg, epoch))
}

func TestChurnLimit_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		validatorCount uint64
		wantedChurn    uint64
	}{
		{validatorCount: 1000, wantedChurn: 4},
		{validatorCount: 100000, wantedChurn: 4},
		{validatorCount: 1000000, wantedChurn: 15 /* validatorCount/churnLimitQuotient */},
		{validatorCount: 2000000, wantedChurn: 30 /* validatorCount/churnLimitQuotient */},
	}
	for _, test := range tests {
		assert.Equal(t, test.wantedChurn, ValidatorChurnLimit(cfg, test.validatorCount))
	}
}

func evenIndices(n int) []primitives.ValidatorIndex {
	out := make([]primitives.ValidatorIndex, n)
	for i := range out {
		out[i] = primitives.ValidatorIndex(2 * i)
	}
	return out
}

// Balances cycle through 8, 16, 24 and 32 ETH.
func steppedBalances(idx primitives.ValidatorIndex) (uint64, error) {
	return (uint64(idx)%4 + 1) * 8e9, nil
}

func TestComputeProposerIndex_Vector(t *testing.T) {
	cfg := params.MainnetConfig()
	seed := hash.Hash([]byte("beacon"))
	got, err := ComputeProposerIndex(cfg, evenIndices(20), steppedBalances, seed)
	require.NoError(t, err)
	assert.Equal(t, primitives.ValidatorIndex(2), got)
}

func TestComputeProposerIndex_SamplingCap(t *testing.T) {
	cfg := params.MainnetConfig()
	seed := hash.Hash([]byte("beacon"))
	// The first candidate for this seed is rejected, the second accepted.
	cfg.MaxProposerSamplingIterations = 1
	_, err := ComputeProposerIndex(cfg, evenIndices(20), steppedBalances, seed)
	require.ErrorIs(t, err, ErrProposerSamplingExhausted)

	cfg.MaxProposerSamplingIterations = 2
	got, err := ComputeProposerIndex(cfg, evenIndices(20), steppedBalances, seed)
	require.NoError(t, err)
	assert.Equal(t, primitives.ValidatorIndex(2), got)
}

func TestComputeProposerIndex_MaxBalanceAcceptsFirstCandidate(t *testing.T) {
	cfg := params.MainnetConfig()
	cfg.MaxProposerSamplingIterations = 1
	indices := evenIndices(50)
	seed := hash.Hash([]byte("first"))
	maxBalance := func(primitives.ValidatorIndex) (uint64, error) { return cfg.MaxEffectiveBalance, nil }
	got, err := ComputeProposerIndex(cfg, indices, maxBalance, seed)
	require.NoError(t, err)
	first, err := ShuffledIndex(0, uint64(len(indices)), seed, cfg.ShuffleRoundCount)
	require.NoError(t, err)
	assert.Equal(t, indices[first], got)
}

func TestComputeProposerIndex_Errors(t *testing.T) {
	cfg := params.MainnetConfig()
	_, err := ComputeProposerIndex(cfg, nil, steppedBalances, [32]byte{})
	require.ErrorIs(t, err, errEmptyActiveIndices)

	lookupErr := errors.New("no balance")
	failing := func(primitives.ValidatorIndex) (uint64, error) { return 0, lookupErr }
	_, err = ComputeProposerIndex(cfg, evenIndices(4), failing, [32]byte{})
	require.ErrorIs(t, err, lookupErr)
}

func TestBeaconProposerIndexAtSlot(t *testing.T) {
	cfg := params.MainnetConfig()
	st := newTestState(t, 40, activeValidators(cfg, 64))

	idx, err := BeaconProposerIndexAtSlot(cfg, st, 40)
	require.NoError(t, err)
	seed, err := Seed(cfg, st, 1, cfg.DomainBeaconProposer)
	require.NoError(t, err)
	indices, err := ActiveValidatorIndices(st, 1)
	require.NoError(t, err)
	want, err := ComputeProposerIndex(cfg, indices, StateEffectiveBalances(st), ProposerSeed(seed, 40))
	require.NoError(t, err)
	assert.Equal(t, want, idx)

	_, err = BeaconProposerIndexAtSlot(cfg, st, 64)
	require.ErrorContains(t, "not in the state's current epoch", err)
}

func TestIsEligibleForActivationQueue(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		name        string
		eligibility primitives.Epoch
		balance     uint64
		want        bool
	}{
		{name: "Eligible", eligibility: cfg.FarFutureEpoch, balance: cfg.MaxEffectiveBalance, want: true},
		{name: "Incorrect activation eligibility epoch", eligibility: 1, balance: cfg.MaxEffectiveBalance, want: false},
		{name: "Not enough balance", eligibility: cfg.FarFutureEpoch, balance: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEligibleForActivationQueue(cfg, tt.eligibility, tt.balance))
		})
	}
}

func TestIsEligibleForActivation(t *testing.T) {
	cfg := params.MainnetConfig()
	vals := activeValidators(cfg, 3)
	vals[0].ActivationEligibilityEpoch = 1
	vals[0].ActivationEpoch = cfg.FarFutureEpoch
	vals[1].ActivationEligibilityEpoch = 1
	vals[1].ActivationEpoch = 3
	vals[2].ActivationEligibilityEpoch = 5
	vals[2].ActivationEpoch = cfg.FarFutureEpoch
	st := newTestState(t, 0, vals)

	want := []bool{true, false, false}
	for i, w := range want {
		v, err := st.ValidatorAtIndexReadOnly(primitives.ValidatorIndex(i))
		require.NoError(t, err)
		assert.Equal(t, w, IsEligibleForActivation(cfg, v, 2), "validator %d", i)
	}
}
