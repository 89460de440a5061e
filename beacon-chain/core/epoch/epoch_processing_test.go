package epoch_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/prysmaticlabs/go-bitfield"
)

const numValidators = 64

func slotOpt(slot primitives.Slot) func(*ethpb.BeaconState) error {
	return func(s *ethpb.BeaconState) error {
		s.Slot = slot
		return nil
	}
}

func newCachedState(t *testing.T, opts ...func(*ethpb.BeaconState) error) *cache.CachedBeaconState {
	opts = append([]func(*ethpb.BeaconState) error{util.RegistryOpt(numValidators)}, opts...)
	st, err := util.NewBeaconState(opts...)
	require.NoError(t, err)
	cst, err := util.NewCachedBeaconState(st)
	require.NoError(t, err)
	return cst
}

func lastSlotOf(e primitives.Epoch) primitives.Slot {
	spe := params.MainnetConfig().SlotsPerEpoch
	return primitives.Slot(e+1)*spe - 1
}

func TestProcessJustificationAndFinalization_NoBlockRootsInGenesisEpochs(t *testing.T) {
	st := newCachedState(t, slotOpt(lastSlotOf(1)))
	ep := &precompute.EpochProcess{Balance: &precompute.Balance{
		ActiveCurrentEpoch:         100,
		PrevEpochTargetAttested:    100,
		CurrentEpochTargetAttested: 100,
	}}
	require.NoError(t, epoch.ProcessJustificationAndFinalization(st, ep))
	assert.Equal(t, primitives.Epoch(0), st.CurrentJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, bitfield.Bitvector4{0x00}, st.JustificationBits())
}

func TestProcessJustificationAndFinalization_ConsecutiveEpochs(t *testing.T) {
	prevRoot := bytesutil.PadTo([]byte{'A'}, 32)
	curRoot := bytesutil.PadTo([]byte{'B'}, 32)
	st := newCachedState(t,
		util.FillRootsNaturalOpt,
		slotOpt(2*params.MainnetConfig().SlotsPerEpoch+1),
		func(s *ethpb.BeaconState) error {
			s.PreviousJustifiedCheckpoint = &ethpb.Checkpoint{Epoch: 0, Root: prevRoot}
			s.CurrentJustifiedCheckpoint = &ethpb.Checkpoint{Epoch: 0, Root: curRoot}
			s.JustificationBits = bitfield.Bitvector4{0x03}
			return nil
		},
	)
	ep := &precompute.EpochProcess{Balance: &precompute.Balance{
		ActiveCurrentEpoch:         100,
		PrevEpochTargetAttested:    100,
		CurrentEpochTargetAttested: 100,
	}}
	require.NoError(t, epoch.ProcessJustificationAndFinalization(st, ep))

	wantRoot, err := helpers.BlockRoot(st.Config(), st, 2)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(2), st.CurrentJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, wantRoot, st.CurrentJustifiedCheckpoint().Root)
	assert.DeepEqual(t, curRoot, st.PreviousJustifiedCheckpoint().Root)
	assert.DeepEqual(t, bitfield.Bitvector4{0x07}, st.JustificationBits())
	// The 1st/2nd/3rd rule wins over the 2nd/3rd rule.
	assert.Equal(t, primitives.Epoch(0), st.FinalizedCheckpoint().Epoch)
	assert.DeepEqual(t, curRoot, st.FinalizedCheckpoint().Root)
}

func TestProcessJustificationAndFinalization_FinalizesFromFourthEpoch(t *testing.T) {
	prevRoot := bytesutil.PadTo([]byte{'A'}, 32)
	st := newCachedState(t,
		util.FillRootsNaturalOpt,
		slotOpt(3*params.MainnetConfig().SlotsPerEpoch+1),
		func(s *ethpb.BeaconState) error {
			s.PreviousJustifiedCheckpoint = &ethpb.Checkpoint{Epoch: 0, Root: prevRoot}
			s.CurrentJustifiedCheckpoint = &ethpb.Checkpoint{Epoch: 1, Root: bytesutil.PadTo([]byte{'B'}, 32)}
			s.JustificationBits = bitfield.Bitvector4{0x07}
			return nil
		},
	)
	ep := &precompute.EpochProcess{Balance: &precompute.Balance{
		ActiveCurrentEpoch:         300,
		PrevEpochTargetAttested:    200,
		CurrentEpochTargetAttested: 100,
	}}
	require.NoError(t, epoch.ProcessJustificationAndFinalization(st, ep))

	assert.Equal(t, primitives.Epoch(2), st.CurrentJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, bitfield.Bitvector4{0x0E}, st.JustificationBits())
	assert.Equal(t, primitives.Epoch(0), st.FinalizedCheckpoint().Epoch)
	assert.DeepEqual(t, prevRoot, st.FinalizedCheckpoint().Root)
}

func TestProcessJustificationAndFinalization_NotEnoughBalance(t *testing.T) {
	st := newCachedState(t, util.FillRootsNaturalOpt, slotOpt(lastSlotOf(4)))
	ep := &precompute.EpochProcess{Balance: &precompute.Balance{
		ActiveCurrentEpoch:         300,
		PrevEpochTargetAttested:    199,
		CurrentEpochTargetAttested: 199,
	}}
	require.NoError(t, epoch.ProcessJustificationAndFinalization(st, ep))
	assert.Equal(t, primitives.Epoch(0), st.CurrentJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, bitfield.Bitvector4{0x00}, st.JustificationBits())
}

func TestProcessRewardsAndPenalties_GenesisEpoch(t *testing.T) {
	st := newCachedState(t)
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	want := st.Balances()
	require.NoError(t, epoch.ProcessRewardsAndPenalties(st, ep))
	assert.DeepEqual(t, want, st.Balances())
}

func TestProcessRewardsAndPenalties_NoAttestationsPenalizes(t *testing.T) {
	st := newCachedState(t, util.FillRootsNaturalOpt, slotOpt(lastSlotOf(2)))
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, epoch.ProcessRewardsAndPenalties(st, ep))

	cfg := st.Config()
	for i, b := range st.Balances() {
		assert.Equal(t, true, b < cfg.MaxEffectiveBalance, "validator %d was not penalized", i)
	}
}

func TestProcessRegistryUpdates_EligibleToActivate(t *testing.T) {
	cfg := params.MainnetConfig()
	current := primitives.Epoch(5)
	st := newCachedState(t, slotOpt(lastSlotOf(current)), func(s *ethpb.BeaconState) error {
		s.FinalizedCheckpoint = &ethpb.Checkpoint{Epoch: 2, Root: make([]byte, 32)}
		for i := 0; i < 10; i++ {
			eligibility := primitives.Epoch(1)
			if i == 0 {
				eligibility = 2
			}
			s.Validators = append(s.Validators, &ethpb.Validator{
				PublicKey:                  bytesutil.PadTo([]byte{0xff, byte(i)}, 48),
				WithdrawalCredentials:      make([]byte, 32),
				EffectiveBalance:           cfg.MaxEffectiveBalance,
				ActivationEligibilityEpoch: eligibility,
				ActivationEpoch:            cfg.FarFutureEpoch,
				ExitEpoch:                  cfg.FarFutureEpoch,
				WithdrawableEpoch:          cfg.FarFutureEpoch,
			})
			s.Balances = append(s.Balances, cfg.MaxEffectiveBalance)
		}
		return nil
	})
	require.Equal(t, uint64(4), st.EpochCtx().ChurnLimit())
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, epoch.ProcessRegistryUpdates(context.Background(), st, ep))

	activationEpoch := helpers.ActivationExitEpoch(cfg, current)
	for i := 0; i < 10; i++ {
		idx := primitives.ValidatorIndex(numValidators + i)
		v, err := st.ValidatorAtIndex(idx)
		require.NoError(t, err)
		if i >= 1 && i <= 4 {
			assert.Equal(t, activationEpoch, v.ActivationEpoch, "validator %d should be activated", idx)
		} else {
			assert.Equal(t, cfg.FarFutureEpoch, v.ActivationEpoch, "validator %d should wait", idx)
		}
	}
}

func TestProcessRegistryUpdates_NotFinalizedYet(t *testing.T) {
	cfg := params.MainnetConfig()
	st := newCachedState(t, slotOpt(lastSlotOf(5)), func(s *ethpb.BeaconState) error {
		s.FinalizedCheckpoint = &ethpb.Checkpoint{Epoch: 2, Root: make([]byte, 32)}
		s.Validators = append(s.Validators, &ethpb.Validator{
			PublicKey:                  bytesutil.PadTo([]byte{0xff}, 48),
			WithdrawalCredentials:      make([]byte, 32),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 3,
			ActivationEpoch:            cfg.FarFutureEpoch,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		})
		s.Balances = append(s.Balances, cfg.MaxEffectiveBalance)
		return nil
	})
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, epoch.ProcessRegistryUpdates(context.Background(), st, ep))
	v, err := st.ValidatorAtIndex(numValidators)
	require.NoError(t, err)
	assert.Equal(t, cfg.FarFutureEpoch, v.ActivationEpoch)
}

func TestProcessRegistryUpdates_ActivationQueueAndEjection(t *testing.T) {
	cfg := params.MainnetConfig()
	current := primitives.Epoch(5)
	st := newCachedState(t, slotOpt(lastSlotOf(current)), func(s *ethpb.BeaconState) error {
		s.Validators[3].EffectiveBalance = cfg.EjectionBalance
		s.Validators = append(s.Validators, &ethpb.Validator{
			PublicKey:                  bytesutil.PadTo([]byte{0xff}, 48),
			WithdrawalCredentials:      make([]byte, 32),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: cfg.FarFutureEpoch,
			ActivationEpoch:            cfg.FarFutureEpoch,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		})
		s.Balances = append(s.Balances, cfg.MaxEffectiveBalance)
		return nil
	})
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	require.DeepEqual(t, []primitives.ValidatorIndex{numValidators}, ep.IndicesEligibleForActivationQueue)
	require.DeepEqual(t, []primitives.ValidatorIndex{3}, ep.IndicesToEject)
	require.NoError(t, epoch.ProcessRegistryUpdates(context.Background(), st, ep))

	queued, err := st.ValidatorAtIndex(numValidators)
	require.NoError(t, err)
	assert.Equal(t, current+1, queued.ActivationEligibilityEpoch)
	assert.Equal(t, cfg.FarFutureEpoch, queued.ActivationEpoch)

	ejected, err := st.ValidatorAtIndex(3)
	require.NoError(t, err)
	exitEpoch := helpers.ActivationExitEpoch(cfg, current)
	assert.Equal(t, exitEpoch, ejected.ExitEpoch)
	assert.Equal(t, exitEpoch+cfg.MinValidatorWithdrawabilityDelay, ejected.WithdrawableEpoch)
}

func TestProcessSlashings_NotSlashed(t *testing.T) {
	st := newCachedState(t, slotOpt(lastSlotOf(1)))
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	want := st.Balances()
	require.NoError(t, epoch.ProcessSlashings(st, ep))
	assert.DeepEqual(t, want, st.Balances())
}

func TestProcessSlashings_SlashedLess(t *testing.T) {
	cfg := params.MainnetConfig()
	current := primitives.Epoch(1)
	tests := []struct {
		name      string
		slashings uint64
		want      uint64
	}{
		{
			// 32 * 32e9 / 2048e9 rounds down to no penalty.
			name:      "small slashings",
			slashings: cfg.MaxEffectiveBalance,
			want:      cfg.MaxEffectiveBalance,
		},
		{
			name:      "half of the stake",
			slashings: 1024 * 1e9,
			want:      cfg.MaxEffectiveBalance - 16*1e9,
		},
		{
			// Capped at the total balance.
			name:      "more than the stake",
			slashings: 4096 * 1e9,
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newCachedState(t, slotOpt(lastSlotOf(current)), func(s *ethpb.BeaconState) error {
				s.Validators[0].Slashed = true
				s.Validators[0].WithdrawableEpoch = current + cfg.EpochsPerSlashingsVector/2
				s.Slashings[0] = tt.slashings
				return nil
			})
			ep, err := precompute.New(context.Background(), st)
			require.NoError(t, err)
			require.DeepEqual(t, []primitives.ValidatorIndex{0}, ep.IndicesToSlash)
			require.NoError(t, epoch.ProcessSlashings(st, ep))
			b, err := st.BalanceAtIndex(0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestProcessEth1DataReset(t *testing.T) {
	cfg := params.MainnetConfig()
	votes := func(s *ethpb.BeaconState) error {
		s.Eth1DataVotes = []*ethpb.Eth1Data{{DepositRoot: make([]byte, 32), BlockHash: make([]byte, 32)}}
		return nil
	}

	st := newCachedState(t, slotOpt(lastSlotOf(cfg.EpochsPerEth1VotingPeriod-2)), votes)
	require.NoError(t, epoch.ProcessEth1DataReset(st))
	assert.Equal(t, 1, len(st.Eth1DataVotes()))

	st = newCachedState(t, slotOpt(lastSlotOf(cfg.EpochsPerEth1VotingPeriod-1)), votes)
	require.NoError(t, epoch.ProcessEth1DataReset(st))
	assert.Equal(t, 0, len(st.Eth1DataVotes()))
}

func TestProcessEffectiveBalanceUpdates_Hysteresis(t *testing.T) {
	cfg := params.MainnetConfig()
	st := newCachedState(t, func(s *ethpb.BeaconState) error {
		// Within the downward threshold.
		s.Balances[0] = cfg.MaxEffectiveBalance - 200_000_000
		// Past the downward threshold.
		s.Balances[1] = cfg.MaxEffectiveBalance - 300_000_000
		// Past the upward threshold.
		s.Validators[2].EffectiveBalance = cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement
		s.Balances[2] = cfg.MaxEffectiveBalance + 300_000_000
		// Within the upward threshold.
		s.Validators[3].EffectiveBalance = cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement
		s.Balances[3] = cfg.MaxEffectiveBalance + 200_000_000
		return nil
	})
	require.NoError(t, epoch.ProcessEffectiveBalanceUpdates(st))

	want := []uint64{
		cfg.MaxEffectiveBalance,
		cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement,
		cfg.MaxEffectiveBalance,
		cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement,
	}
	for i, w := range want {
		v, err := st.ValidatorAtIndex(primitives.ValidatorIndex(i))
		require.NoError(t, err)
		assert.Equal(t, w, v.EffectiveBalance, "validator %d", i)
		cached, err := st.EpochCtx().EffectiveBalance(primitives.ValidatorIndex(i))
		require.NoError(t, err)
		assert.Equal(t, w, cached, "cached balance of validator %d", i)
	}
}

func TestProcessSlashingsReset(t *testing.T) {
	st := newCachedState(t, slotOpt(lastSlotOf(5)), func(s *ethpb.BeaconState) error {
		s.Slashings[5] = 7
		s.Slashings[6] = 9
		return nil
	})
	require.NoError(t, epoch.ProcessSlashingsReset(st))
	s := st.Slashings()
	assert.Equal(t, uint64(7), s[5])
	assert.Equal(t, uint64(0), s[6])
}

func TestProcessRandaoMixesReset(t *testing.T) {
	mix := bytesutil.PadTo([]byte("mix of epoch five"), 32)
	st := newCachedState(t, slotOpt(lastSlotOf(5)), func(s *ethpb.BeaconState) error {
		s.RandaoMixes[5] = mix
		return nil
	})
	require.NoError(t, epoch.ProcessRandaoMixesReset(st))
	got, err := st.RandaoMixAtIndex(6)
	require.NoError(t, err)
	assert.DeepEqual(t, mix, got)
}

func TestProcessHistoricalRootsUpdate(t *testing.T) {
	cfg := params.MainnetConfig()
	epochsPerRoot := primitives.Epoch(cfg.SlotsPerHistoricalRoot / cfg.SlotsPerEpoch)

	st := newCachedState(t, slotOpt(lastSlotOf(epochsPerRoot-2)))
	require.NoError(t, epoch.ProcessHistoricalRootsUpdate(st))
	assert.Equal(t, 0, len(st.HistoricalRoots()))

	st = newCachedState(t, util.FillRootsNaturalOpt, slotOpt(lastSlotOf(epochsPerRoot-1)))
	require.NoError(t, epoch.ProcessHistoricalRootsUpdate(st))
	require.Equal(t, 1, len(st.HistoricalRoots()))
	batch := &ethpb.HistoricalBatch{BlockRoots: st.BlockRoots(), StateRoots: st.StateRoots()}
	want, err := batch.HashTreeRoot()
	require.NoError(t, err)
	assert.DeepEqual(t, want[:], st.HistoricalRoots()[0])
}

func TestProcessParticipationRecordUpdates(t *testing.T) {
	att := &ethpb.PendingAttestation{
		AggregationBits: bitfield.NewBitlist(2),
		Data: &ethpb.AttestationData{
			BeaconBlockRoot: make([]byte, 32),
			Source:          &ethpb.Checkpoint{Root: make([]byte, 32)},
			Target:          &ethpb.Checkpoint{Root: make([]byte, 32)},
		},
		InclusionDelay: 1,
	}
	st := newCachedState(t, func(s *ethpb.BeaconState) error {
		s.CurrentEpochAttestations = []*ethpb.PendingAttestation{att}
		return nil
	})
	require.NoError(t, epoch.ProcessParticipationRecordUpdates(st))
	prev, err := st.PreviousEpochAttestations()
	require.NoError(t, err)
	cur, err := st.CurrentEpochAttestations()
	require.NoError(t, err)
	assert.Equal(t, 1, len(prev))
	assert.Equal(t, 0, len(cur))
}

func TestProcessEpoch_CanProcess(t *testing.T) {
	st := newCachedState(t, util.FillRootsNaturalOpt, slotOpt(lastSlotOf(3)))
	ep, err := epoch.ProcessEpoch(context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, primitives.Epoch(3), ep.CurrentEpoch)
	assert.Equal(t, numValidators, len(ep.Validators))
	// Nobody attested, so nothing was justified.
	assert.Equal(t, primitives.Epoch(0), st.CurrentJustifiedCheckpoint().Epoch)
}

func TestProcessEpoch_RejectsAltairState(t *testing.T) {
	st, err := util.NewBeaconStateAltair(util.RegistryOptAltair(numValidators))
	require.NoError(t, err)
	cst, err := util.NewCachedBeaconState(st)
	require.NoError(t, err)
	_, err = epoch.ProcessEpoch(context.Background(), cst)
	require.ErrorContains(t, "phase0 epoch processing", err)
}
