package precompute_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/prysmaticlabs/go-bitfield"
)

const numValidators = 64

func lastSlotOf(e primitives.Epoch) primitives.Slot {
	return primitives.Slot(e+1)*params.MainnetConfig().SlotsPerEpoch - 1
}

func phase0State(t *testing.T, slot primitives.Slot, opts ...func(*ethpb.BeaconState) error) *cache.CachedBeaconState {
	opts = append([]func(*ethpb.BeaconState) error{
		util.RegistryOpt(numValidators),
		util.FillRootsNaturalOpt,
		func(s *ethpb.BeaconState) error {
			s.Slot = slot
			return nil
		},
	}, opts...)
	st, err := util.NewBeaconState(opts...)
	require.NoError(t, err)
	cst, err := util.NewCachedBeaconState(st)
	require.NoError(t, err)
	return cst
}

// pendingAttestation builds a fully aggregated pending attestation of the first committee of slot.
func pendingAttestation(t *testing.T, st *cache.CachedBeaconState, slot primitives.Slot, delay primitives.Slot, proposer primitives.ValidatorIndex) (*ethpb.PendingAttestation, []primitives.ValidatorIndex) {
	cfg := st.Config()
	committee, err := st.EpochCtx().BeaconCommittee(slot, 0)
	require.NoError(t, err)
	bits := bitfield.NewBitlist(uint64(len(committee)))
	for i := range committee {
		bits.SetBitAt(uint64(i), true)
	}
	target := primitives.Epoch(slot / cfg.SlotsPerEpoch)
	targetRoot, err := helpers.BlockRoot(cfg, st, target)
	require.NoError(t, err)
	headRoot, err := helpers.BlockRootAtSlot(cfg, st, slot)
	require.NoError(t, err)
	return &ethpb.PendingAttestation{
		AggregationBits: bits,
		Data: &ethpb.AttestationData{
			Slot:            slot,
			BeaconBlockRoot: headRoot,
			Source:          &ethpb.Checkpoint{Root: make([]byte, 32)},
			Target:          &ethpb.Checkpoint{Epoch: target, Root: targetRoot},
		},
		InclusionDelay: delay,
		ProposerIndex:  proposer,
	}, committee
}

func TestNew_Phase0Statuses(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, lastSlotOf(2))
	prevSlot := cfg.SlotsPerEpoch + 3
	late, committee := pendingAttestation(t, st, prevSlot, 3, 7)
	early, _ := pendingAttestation(t, st, prevSlot, 1, 5)
	require.NoError(t, st.AppendPreviousEpochAttestations(late))
	require.NoError(t, st.AppendPreviousEpochAttestations(early))

	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(1), ep.PrevEpoch)
	assert.Equal(t, primitives.Epoch(2), ep.CurrentEpoch)
	require.Equal(t, numValidators, len(ep.Validators))

	attesters := make(map[primitives.ValidatorIndex]bool)
	for _, idx := range committee {
		attesters[idx] = true
		v := ep.Validators[idx]
		assert.Equal(t, true, v.IsPrevEpochAttester)
		assert.Equal(t, true, v.IsPrevEpochTargetAttester)
		assert.Equal(t, true, v.IsPrevEpochHeadAttester)
		assert.Equal(t, primitives.Slot(1), v.InclusionDelay)
		assert.Equal(t, primitives.ValidatorIndex(5), v.ProposerIndex)
	}
	for i, v := range ep.Validators {
		assert.Equal(t, true, v.IsActiveCurrentEpoch)
		assert.Equal(t, true, v.IsEligible)
		if !attesters[primitives.ValidatorIndex(i)] {
			assert.Equal(t, false, v.IsPrevEpochAttester, "validator %d", i)
		}
	}

	attested := uint64(len(committee)) * cfg.MaxEffectiveBalance
	assert.Equal(t, uint64(numValidators)*cfg.MaxEffectiveBalance, ep.Balance.ActiveCurrentEpoch)
	assert.Equal(t, attested, ep.Balance.PrevEpochAttested)
	assert.Equal(t, attested, ep.Balance.PrevEpochTargetAttested)
	assert.Equal(t, attested, ep.Balance.PrevEpochHeadAttested)
	// Floored to one increment.
	assert.Equal(t, cfg.EffectiveBalanceIncrement, ep.Balance.CurrentEpochTargetAttested)
}

func TestNew_WrongTargetRootIsNotTargetAttester(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, lastSlotOf(2))
	att, committee := pendingAttestation(t, st, cfg.SlotsPerEpoch, 1, 0)
	att.Data.Target.Root = make([]byte, 32)
	att.Data.Target.Root[0] = 0xff
	require.NoError(t, st.AppendPreviousEpochAttestations(att))

	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	for _, idx := range committee {
		v := ep.Validators[idx]
		assert.Equal(t, true, v.IsPrevEpochAttester)
		assert.Equal(t, false, v.IsPrevEpochTargetAttester)
		assert.Equal(t, false, v.IsPrevEpochHeadAttester)
	}
}

func TestNew_SlashedValidatorNotCounted(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, lastSlotOf(2), func(s *ethpb.BeaconState) error {
		s.Validators[0].Slashed = true
		s.Validators[0].WithdrawableEpoch = 2 + cfg.EpochsPerSlashingsVector/2
		return nil
	})
	ep, err := precompute.New(context.Background(), st)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{0}, ep.IndicesToSlash)
	assert.Equal(t, true, ep.Validators[0].IsSlashed)
}

func TestNew_AltairParticipationFlags(t *testing.T) {
	cfg := params.MainnetConfig()
	st, err := util.NewBeaconStateAltair(util.RegistryOptAltair(numValidators), func(s *ethpb.BeaconStateAltair) error {
		s.Slot = lastSlotOf(2)
		s.PreviousEpochParticipation[0] = 1<<cfg.TimelySourceFlagIndex | 1<<cfg.TimelyTargetFlagIndex
		s.PreviousEpochParticipation[1] = 1 << cfg.TimelyHeadFlagIndex
		s.CurrentEpochParticipation[2] = 1 << cfg.TimelyTargetFlagIndex
		s.InactivityScores[3] = 12
		return nil
	})
	require.NoError(t, err)
	cst, err := util.NewCachedBeaconState(st)
	require.NoError(t, err)

	ep, err := precompute.New(context.Background(), cst)
	require.NoError(t, err)
	assert.Equal(t, true, ep.Validators[0].IsPrevEpochAttester)
	assert.Equal(t, true, ep.Validators[0].IsPrevEpochTargetAttester)
	assert.Equal(t, false, ep.Validators[0].IsPrevEpochHeadAttester)
	assert.Equal(t, false, ep.Validators[1].IsPrevEpochAttester)
	assert.Equal(t, true, ep.Validators[1].IsPrevEpochHeadAttester)
	assert.Equal(t, true, ep.Validators[2].IsCurrentEpochTargetAttester)
	assert.Equal(t, uint64(12), ep.Validators[3].InactivityScore)
	assert.Equal(t, cfg.MaxEffectiveBalance, ep.Balance.PrevEpochTargetAttested)
	assert.Equal(t, cfg.MaxEffectiveBalance, ep.Balance.CurrentEpochTargetAttested)
}

func TestEnsureBalancesLowerBound(t *testing.T) {
	cfg := params.MainnetConfig()
	b := precompute.EnsureBalancesLowerBound(cfg.EffectiveBalanceIncrement, &precompute.Balance{PrevEpochAttested: 5 * cfg.EffectiveBalanceIncrement})
	assert.Equal(t, cfg.EffectiveBalanceIncrement, b.ActiveCurrentEpoch)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, b.ActivePrevEpoch)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, b.CurrentEpochTargetAttested)
	assert.Equal(t, 5*cfg.EffectiveBalanceIncrement, b.PrevEpochAttested)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, b.PrevEpochTargetAttested)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, b.PrevEpochHeadAttested)
}
