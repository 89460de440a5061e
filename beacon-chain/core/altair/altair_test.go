package altair_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/altair"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/prysmaticlabs/go-bitfield"
)

func totalBalance(st *cache.CachedBeaconState) uint64 {
	total := uint64(0)
	for _, b := range st.Balances() {
		total += b
	}
	return total
}

// altairAtSlotOne returns an altair genesis state of 64 validators advanced to slot 1.
func altairAtSlotOne(t *testing.T) (*cache.CachedBeaconState, []bls.SecretKey) {
	st, privs := util.DeterministicGenesisStateAltair(t, 64)
	require.NoError(t, transition.ProcessSlots(context.Background(), st, 1))
	return st, privs
}

func TestValidatorFlags(t *testing.T) {
	flag := altair.AddValidatorFlag(0, 1)
	assert.Equal(t, uint8(2), flag)
	assert.Equal(t, true, altair.HasValidatorFlag(flag, 1))
	assert.Equal(t, false, altair.HasValidatorFlag(flag, 0))
	flag = altair.AddValidatorFlag(flag, 1)
	assert.Equal(t, uint8(2), flag)
	flag = altair.AddValidatorFlag(flag, 0)
	assert.Equal(t, uint8(3), flag)
}

func TestBaseReward_MatchesTotalBalance(t *testing.T) {
	st, _ := util.DeterministicGenesisStateAltair(t, 64)
	val, err := st.ValidatorAtIndexReadOnly(0)
	require.NoError(t, err)
	want, err := altair.BaseRewardWithTotalBalance(st.Config(), val.EffectiveBalance(), st.EpochCtx().TotalActiveBalance())
	require.NoError(t, err)
	got, err := altair.BaseReward(st, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NotEqual(t, uint64(0), got)

	_, err = altair.BaseRewardWithTotalBalance(st.Config(), val.EffectiveBalance(), 0)
	assert.ErrorContains(t, "active balance can't be 0", err)
}

func TestProcessSyncAggregate_FullParticipation(t *testing.T) {
	st, privs := altairAtSlotOne(t)
	sync, err := util.GenerateSyncAggregate(st, privs)
	require.NoError(t, err)
	require.Equal(t, uint64(512), sync.SyncCommitteeBits.Count())

	before := totalBalance(st)
	require.NoError(t, altair.ProcessSyncAggregate(context.Background(), st, sync))

	epochCtx := st.EpochCtx()
	want := before + 512*epochCtx.SyncParticipantReward() + 512*epochCtx.SyncProposerReward()
	assert.Equal(t, want, totalBalance(st))
}

func TestProcessSyncAggregate_NoParticipation(t *testing.T) {
	st, _ := altairAtSlotOne(t)
	before := totalBalance(st)
	require.NoError(t, altair.ProcessSyncAggregate(context.Background(), st, util.EmptySyncAggregate()))
	assert.Equal(t, before-512*st.EpochCtx().SyncParticipantReward(), totalBalance(st))
}

func TestProcessSyncAggregate_Invalid(t *testing.T) {
	st, _ := altairAtSlotOne(t)
	assert.ErrorContains(t, "nil sync aggregate", altair.ProcessSyncAggregate(context.Background(), st, nil))

	sync := util.EmptySyncAggregate()
	sync.SyncCommitteeBits = bitfield.Bitvector512(bitfield.NewBitvector64())
	err := altair.ProcessSyncAggregate(context.Background(), st, sync)
	assert.ErrorContains(t, "does not match committee size", err)
}

func TestUpgradeToAltair(t *testing.T) {
	cfg := util.TestConfig()
	st, _ := util.DeterministicGenesisState(t, cfg, 64)
	pre := st.Clone()
	require.NoError(t, altair.UpgradeToAltair(context.Background(), st))

	assert.Equal(t, version.Altair, st.Version())
	assert.Equal(t, version.Phase0, pre.Version())
	assert.DeepEqual(t, cfg.GenesisForkVersion, st.Fork().PreviousVersion)
	assert.DeepEqual(t, cfg.AltairForkVersion, st.Fork().CurrentVersion)
	assert.DeepEqual(t, pre.Balances(), st.Balances())
	assert.DeepEqual(t, pre.GenesisValidatorsRoot(), st.GenesisValidatorsRoot())

	scores, err := st.InactivityScores()
	require.NoError(t, err)
	assert.DeepEqual(t, make([]uint64, 64), scores)
	participation, err := st.CurrentEpochParticipation()
	require.NoError(t, err)
	assert.DeepEqual(t, make([]byte, 64), participation)

	current, err := st.CurrentSyncCommittee()
	require.NoError(t, err)
	next, err := st.NextSyncCommittee()
	require.NoError(t, err)
	assert.Equal(t, 512, len(current.Pubkeys))
	assert.DeepEqual(t, current, next)

	committee, err := st.EpochCtx().SyncCommitteeAtEpoch(0)
	require.NoError(t, err)
	require.Equal(t, 512, len(committee.ValidatorIndices))
	for i, idx := range committee.ValidatorIndices {
		pub := st.PubkeyAtIndex(idx)
		assert.DeepEqual(t, pub[:], current.Pubkeys[i])
	}

	err = altair.UpgradeToAltair(context.Background(), st)
	assert.ErrorContains(t, "can not upgrade", err)
}

func TestProcessInactivityUpdates(t *testing.T) {
	st, _ := util.DeterministicGenesisStateAltair(t, 4)
	ep := &precompute.EpochProcess{
		// Finality is far enough behind to be in an inactivity leak.
		PrevEpoch:    10,
		CurrentEpoch: 11,
		Validators: []*precompute.Validator{
			{IsEligible: true, IsPrevEpochTargetAttester: true, InactivityScore: 3},
			{IsEligible: true},
			{IsEligible: true, IsPrevEpochTargetAttester: true, IsSlashed: true},
			{InactivityScore: 9},
		},
	}
	require.NoError(t, altair.ProcessInactivityUpdates(context.Background(), st, ep))
	scores, err := st.InactivityScores()
	require.NoError(t, err)
	bias := st.Config().InactivityScoreBias
	assert.DeepEqual(t, []uint64{2, bias, bias, 0}, scores)
}

func TestProcessInactivityUpdates_Recovery(t *testing.T) {
	st, _ := util.DeterministicGenesisStateAltair(t, 2)
	ep := &precompute.EpochProcess{
		PrevEpoch:    1,
		CurrentEpoch: 2,
		Validators: []*precompute.Validator{
			{IsEligible: true, IsPrevEpochTargetAttester: true, InactivityScore: 40},
			{IsEligible: true, InactivityScore: 40},
		},
	}
	require.NoError(t, altair.ProcessInactivityUpdates(context.Background(), st, ep))
	scores, err := st.InactivityScores()
	require.NoError(t, err)
	cfg := st.Config()
	assert.DeepEqual(t, []uint64{40 - 1 - cfg.InactivityScoreRecoveryRate, 40 + cfg.InactivityScoreBias - cfg.InactivityScoreRecoveryRate}, scores)
}

func TestProcessInactivityUpdates_GenesisAndNil(t *testing.T) {
	st, _ := util.DeterministicGenesisStateAltair(t, 2)
	require.ErrorIs(t, altair.ProcessInactivityUpdates(context.Background(), st, nil), precompute.ErrNilEpochProcess)

	ep := &precompute.EpochProcess{Validators: []*precompute.Validator{{IsEligible: true}, {IsEligible: true}}}
	require.NoError(t, altair.ProcessInactivityUpdates(context.Background(), st, ep))
	scores, err := st.InactivityScores()
	require.NoError(t, err)
	assert.DeepEqual(t, []uint64{0, 0}, scores)
}

func TestAttestationsDelta(t *testing.T) {
	cfg := util.TestConfigAltair()
	eb := cfg.MaxEffectiveBalance
	ep := &precompute.EpochProcess{
		PrevEpoch:              1,
		CurrentEpoch:           2,
		BaseRewardPerIncrement: 1000,
		Balance: &precompute.Balance{
			ActiveCurrentEpoch:      2 * eb,
			PrevEpochAttested:       eb,
			PrevEpochTargetAttested: eb,
			PrevEpochHeadAttested:   eb,
		},
		Validators: []*precompute.Validator{
			{
				IsEligible:                   true,
				IsPrevEpochAttester:          true,
				IsPrevEpochTargetAttester:    true,
				IsPrevEpochHeadAttester:      true,
				CurrentEpochEffectiveBalance: eb,
			},
			{IsEligible: true, CurrentEpochEffectiveBalance: eb},
			{CurrentEpochEffectiveBalance: eb},
		},
	}
	rewards, penalties, err := altair.AttestationsDelta(cfg, ep, 0)
	require.NoError(t, err)

	baseReward := eb / cfg.EffectiveBalanceIncrement * ep.BaseRewardPerIncrement
	// Half of the active stake attested, so each flag pays half its weight.
	weights := cfg.TimelySourceWeight + cfg.TimelyTargetWeight + cfg.TimelyHeadWeight
	assert.Equal(t, baseReward*weights/(2*cfg.WeightDenominator), rewards[0])
	assert.Equal(t, uint64(0), penalties[0])

	// Missing head votes are not penalized.
	assert.Equal(t, uint64(0), rewards[1])
	wantPenalty := baseReward*cfg.TimelySourceWeight/cfg.WeightDenominator + baseReward*cfg.TimelyTargetWeight/cfg.WeightDenominator
	assert.Equal(t, wantPenalty, penalties[1])

	assert.Equal(t, uint64(0), rewards[2])
	assert.Equal(t, uint64(0), penalties[2])

	_, _, err = altair.AttestationsDelta(cfg, nil, 0)
	require.ErrorIs(t, err, precompute.ErrNilEpochProcess)
}
