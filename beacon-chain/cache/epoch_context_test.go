package cache_test

import (
	"sync"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
)

func testPubkey(i int) []byte {
	return bytesutil.PadTo([]byte{byte(i), byte(i >> 8), 0xaa}, fieldparams.BLSPubkeyLength)
}

func testRegistry(cfg *params.BeaconChainConfig, n int) ([]*ethpb.Validator, []uint64) {
	vals := make([]*ethpb.Validator, n)
	bals := make([]uint64, n)
	for i := range vals {
		vals[i] = &ethpb.Validator{
			PublicKey:                  testPubkey(i),
			WithdrawalCredentials:      make([]byte, 32),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		}
		bals[i] = cfg.MaxEffectiveBalance
	}
	return vals, bals
}

func phase0State(t *testing.T, cfg *params.BeaconChainConfig, n int, slot primitives.Slot) state.BeaconState {
	vals, bals := testRegistry(cfg, n)
	mixes := make([][]byte, fieldparams.RandaoMixesLength)
	for i := range mixes {
		mixes[i] = bytesutil.PadTo([]byte{byte(i), byte(i >> 8)}, 32)
	}
	st, err := state_native.InitializeFromProtoPhase0(&ethpb.BeaconState{
		Slot:        slot,
		Validators:  vals,
		Balances:    bals,
		RandaoMixes: mixes,
	})
	require.NoError(t, err)
	return st
}

func altairState(t *testing.T, cfg *params.BeaconChainConfig, n int) state.BeaconState {
	vals, bals := testRegistry(cfg, n)
	pubkeys := make([][]byte, cfg.SyncCommitteeSize)
	next := make([][]byte, cfg.SyncCommitteeSize)
	for i := range pubkeys {
		pubkeys[i] = testPubkey(i % n)
		next[i] = testPubkey((i + 1) % n)
	}
	st, err := state_native.InitializeFromProtoAltair(&ethpb.BeaconStateAltair{
		Validators:                 vals,
		Balances:                   bals,
		PreviousEpochParticipation: make([]byte, n),
		CurrentEpochParticipation:  make([]byte, n),
		InactivityScores:           make([]uint64, n),
		CurrentSyncCommittee:       &ethpb.SyncCommittee{Pubkeys: pubkeys, AggregatePubkey: make([]byte, 48)},
		NextSyncCommittee:          &ethpb.SyncCommittee{Pubkeys: next, AggregatePubkey: make([]byte, 48)},
	})
	require.NoError(t, err)
	return st
}

func TestEpochContext_CommitteesMatchComputeCommittee(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 256, 40)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	for _, epoch := range []primitives.Epoch{0, 1, 2} {
		active, err := helpers.ActiveValidatorIndices(st, epoch)
		require.NoError(t, err)
		seed, err := helpers.Seed(cfg, st, epoch, cfg.DomainBeaconAttester)
		require.NoError(t, err)
		perSlot, err := ctx.CommitteeCountPerSlot(epoch)
		require.NoError(t, err)
		assert.Equal(t, helpers.SlotCommitteeCount(cfg, uint64(len(active))), perSlot)

		start := primitives.Slot(uint64(epoch) * uint64(cfg.SlotsPerEpoch))
		for s := primitives.Slot(0); s < cfg.SlotsPerEpoch; s++ {
			want, err := helpers.ComputeCommittee(active, seed, uint64(s)*perSlot, perSlot*uint64(cfg.SlotsPerEpoch), cfg.ShuffleRoundCount)
			require.NoError(t, err)
			got, err := ctx.BeaconCommittee(start+s, 0)
			require.NoError(t, err)
			require.DeepEqual(t, want, got)
		}
	}
}

func TestEpochContext_ProposersMatchState(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 128, 33)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	for slot := primitives.Slot(32); slot < 64; slot++ {
		want, err := helpers.BeaconProposerIndexAtSlot(cfg, st, slot)
		require.NoError(t, err)
		got, err := ctx.BeaconProposer(slot)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, int(cfg.SlotsPerEpoch), len(ctx.Proposers()))
}

func TestEpochContext_OutOfWindow(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 64, 70)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	require.Equal(t, primitives.Epoch(2), ctx.Epoch())

	_, err = ctx.ShufflingAtEpoch(0)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)
	_, err = ctx.ShufflingAtEpoch(4)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)
	for _, e := range []primitives.Epoch{1, 2, 3} {
		s, err := ctx.ShufflingAtEpoch(e)
		require.NoError(t, err)
		assert.Equal(t, e, s.Epoch)
	}

	_, err = ctx.BeaconProposer(96)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)
	_, err = ctx.BeaconProposer(63)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)
	_, err = ctx.BeaconCommittee(160, 0)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)
	_, err = ctx.BeaconCommittee(70, 1)
	require.ErrorIs(t, err, cache.ErrCommitteeIndexOutOfRange)
}

func TestEpochContext_GenesisSharesPreviousShuffling(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 64, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	prev, err := ctx.ShufflingAtEpoch(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.Epoch(0), prev.Epoch)
	assert.Equal(t, 64, len(prev.ActiveIndices))
}

func TestEpochContext_NoActiveValidators(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 0, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	_, err = ctx.BeaconProposer(0)
	require.ErrorContains(t, "no active validators", err)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, ctx.TotalActiveBalance())
}

func TestEpochContext_CopyIsolatesEffectiveBalances(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 16, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	cp := ctx.Copy()
	cp.SetEffectiveBalance(3, 1e9)
	ctx.SetEffectiveBalance(4, 2e9)

	b, err := ctx.EffectiveBalance(3)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, b)
	b, err = cp.EffectiveBalance(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1e9), b)
	b, err = cp.EffectiveBalance(4)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, b)

	cp.SetEffectiveBalance(16, 5e9)
	b, err = cp.EffectiveBalance(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(5e9), b)
	_, err = ctx.EffectiveBalance(16)
	require.ErrorContains(t, "not in the effective balance table", err)
}

func TestEpochContext_CopySharesPubkeys(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 8, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	cp := ctx.Copy()

	pk := bytesutil.ToBytes48(testPubkey(100))
	require.NoError(t, cp.AddPubkey(8, pk))
	idx, ok := ctx.ValidatorIndex(pk)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(8), idx)
	assert.Equal(t, true, ctx.PubkeyCache() == cp.PubkeyCache())
}

func TestEpochContext_DivergentCopiesKeepOwnPubkeys(t *testing.T) {
	cfg := params.MainnetConfig()
	ctx, err := cache.NewEpochContext(cfg, phase0State(t, cfg, 8, 0))
	require.NoError(t, err)
	privA, err := bls.RandKey()
	require.NoError(t, err)
	privB, err := bls.RandKey()
	require.NoError(t, err)
	pkA := bytesutil.ToBytes48(privA.PublicKey().Marshal())
	pkB := bytesutil.ToBytes48(privB.PublicKey().Marshal())

	a := ctx.Copy()
	b := ctx.Copy()
	require.NoError(t, a.AddPubkey(8, pkA))
	require.NoError(t, b.AddPubkey(8, pkB))

	idx, ok := a.ValidatorIndex(pkA)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(8), idx)
	idx, ok = b.ValidatorIndex(pkB)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(8), idx)
	_, ok = b.ValidatorIndex(pkA)
	assert.Equal(t, false, ok)
	_, ok = a.ValidatorIndex(pkB)
	assert.Equal(t, false, ok)

	pub, err := a.Pubkey(8)
	require.NoError(t, err)
	assert.DeepEqual(t, pkA[:], pub.Marshal())
	pub, err = b.Pubkey(8)
	require.NoError(t, err)
	assert.DeepEqual(t, pkB[:], pub.Marshal())

	// Copies of a diverged context inherit its entries, later additions stay local.
	c := b.Copy()
	pubs, err := c.Pubkeys([]uint64{8})
	require.NoError(t, err)
	assert.DeepEqual(t, pkB[:], pubs[0].Marshal())
	require.NoError(t, c.AddPubkey(8, bytesutil.ToBytes48(testPubkey(300))))
	pub, err = b.Pubkey(8)
	require.NoError(t, err)
	assert.DeepEqual(t, pkB[:], pub.Marshal())
}

func TestEpochContext_SharedCacheWithDivergentState(t *testing.T) {
	cfg := params.MainnetConfig()
	first, err := cache.NewEpochContext(cfg, phase0State(t, cfg, 8, 0))
	require.NoError(t, err)

	st := phase0State(t, cfg, 8, 0)
	val, err := st.ValidatorAtIndex(5)
	require.NoError(t, err)
	val.PublicKey = testPubkey(500)
	require.NoError(t, st.UpdateValidatorAtIndex(5, val))

	second, err := cache.NewEpochContext(cfg, st, cache.WithPubkeyCache(first.PubkeyCache()))
	require.NoError(t, err)
	idx, ok := second.ValidatorIndex(bytesutil.ToBytes48(testPubkey(500)))
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(5), idx)
	_, ok = second.ValidatorIndex(bytesutil.ToBytes48(testPubkey(5)))
	assert.Equal(t, false, ok)
	idx, ok = first.ValidatorIndex(bytesutil.ToBytes48(testPubkey(5)))
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(5), idx)
	assert.Equal(t, 8, first.PubkeyCache().Len())
}

func TestEpochContext_ConcurrentCopies(t *testing.T) {
	cfg := params.MainnetConfig()
	ctx, err := cache.NewEpochContext(cfg, phase0State(t, cfg, 16, 0))
	require.NoError(t, err)

	const workers = 8
	got := make([]uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := ctx.Copy()
			cp.SetEffectiveBalance(3, uint64(i+1))
			got[i], _ = cp.EffectiveBalance(3)
		}(i)
	}
	wg.Wait()

	for i, b := range got {
		assert.Equal(t, uint64(i+1), b)
	}
	b, err := ctx.EffectiveBalance(3)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, b)
	ctx.SetEffectiveBalance(3, 1)
	b, err = ctx.EffectiveBalance(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)
}

func TestEpochContext_ClaimExitEpoch(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 64, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	require.Equal(t, cfg.MinPerEpochChurnLimit, ctx.ChurnLimit())

	first := helpers.ActivationExitEpoch(cfg, 0)
	e, churn := ctx.ExitQueue()
	assert.Equal(t, first, e)
	assert.Equal(t, uint64(0), churn)

	for i := uint64(0); i < ctx.ChurnLimit(); i++ {
		assert.Equal(t, first, ctx.ClaimExitEpoch())
	}
	assert.Equal(t, first+1, ctx.ClaimExitEpoch())
	e, churn = ctx.ExitQueue()
	assert.Equal(t, first+1, e)
	assert.Equal(t, uint64(1), churn)
}

func TestEpochContext_ExitQueueFromRegistry(t *testing.T) {
	cfg := params.MainnetConfig()
	vals, bals := testRegistry(cfg, 8)
	vals[2].ExitEpoch = 9
	vals[5].ExitEpoch = 9
	vals[6].ExitEpoch = 7
	st, err := state_native.InitializeFromProtoPhase0(&ethpb.BeaconState{Validators: vals, Balances: bals})
	require.NoError(t, err)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)
	e, churn := ctx.ExitQueue()
	assert.Equal(t, primitives.Epoch(9), e)
	assert.Equal(t, uint64(2), churn)
}

func TestEpochContext_AfterProcessEpoch(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 64, 31)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	err = ctx.AfterProcessEpoch(st)
	require.ErrorIs(t, err, cache.ErrEpochContextDesync)

	current, err := ctx.ShufflingAtEpoch(0)
	require.NoError(t, err)
	next, err := ctx.ShufflingAtEpoch(1)
	require.NoError(t, err)

	// Validator 0 exits at epoch 2; it must drop out of the new next shuffling.
	v, err := st.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.ExitEpoch = 2
	v.EffectiveBalance = 31e9
	require.NoError(t, st.UpdateValidatorAtIndex(0, v))
	require.NoError(t, st.SetSlot(32))
	require.NoError(t, ctx.AfterProcessEpoch(st))

	assert.Equal(t, primitives.Epoch(1), ctx.Epoch())
	prev, err := ctx.ShufflingAtEpoch(0)
	require.NoError(t, err)
	assert.Equal(t, true, prev == current)
	cur, err := ctx.ShufflingAtEpoch(1)
	require.NoError(t, err)
	assert.Equal(t, true, cur == next)
	rotated, err := ctx.ShufflingAtEpoch(2)
	require.NoError(t, err)
	assert.Equal(t, 63, len(rotated.ActiveIndices))
	assert.Equal(t, primitives.ValidatorIndex(1), rotated.ActiveIndices[0])

	b, err := ctx.EffectiveBalance(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(31e9), b)
	e, _ := ctx.ExitQueue()
	assert.Equal(t, helpers.ActivationExitEpoch(cfg, 1), e)

	for slot := primitives.Slot(32); slot < 64; slot++ {
		want, err := helpers.BeaconProposerIndexAtSlot(cfg, st, slot)
		require.NoError(t, err)
		got, err := ctx.BeaconProposer(slot)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEpochContext_ShufflingCacheShared(t *testing.T) {
	cfg := params.MainnetConfig()
	sc, err := cache.NewShufflingCache()
	require.NoError(t, err)
	st := phase0State(t, cfg, 64, 40)

	a, err := cache.NewEpochContext(cfg, st, cache.WithShufflingCache(sc))
	require.NoError(t, err)
	require.Equal(t, 3, sc.Len())
	b, err := cache.NewEpochContext(cfg, st.Copy(), cache.WithShufflingCache(sc), cache.WithPubkeyCache(a.PubkeyCache()))
	require.NoError(t, err)
	require.Equal(t, 3, sc.Len())

	sa, err := a.ShufflingAtEpoch(1)
	require.NoError(t, err)
	sb, err := b.ShufflingAtEpoch(1)
	require.NoError(t, err)
	assert.Equal(t, true, sa == sb)
}

func TestEpochContext_IndexedAttestation(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 256, 0)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	committee, err := ctx.BeaconCommittee(3, 0)
	require.NoError(t, err)
	require.Equal(t, 8, len(committee))
	bits := bitfield.NewBitlist(uint64(len(committee)))
	bits.SetBitAt(0, true)
	bits.SetBitAt(5, true)
	bits.SetBitAt(7, true)
	att := &ethpb.Attestation{
		AggregationBits: bits,
		Data:            &ethpb.AttestationData{Slot: 3, CommitteeIndex: 0},
		Signature:       make([]byte, 96),
	}
	indexed, err := ctx.IndexedAttestation(att)
	require.NoError(t, err)
	require.Equal(t, 3, len(indexed.AttestingIndices))
	for i := 1; i < len(indexed.AttestingIndices); i++ {
		assert.Equal(t, true, indexed.AttestingIndices[i-1] < indexed.AttestingIndices[i])
	}
	members := map[uint64]bool{
		uint64(committee[0]): true,
		uint64(committee[5]): true,
		uint64(committee[7]): true,
	}
	for _, idx := range indexed.AttestingIndices {
		assert.Equal(t, true, members[idx])
	}

	att.AggregationBits = bitfield.NewBitlist(uint64(len(committee) + 1))
	_, err = ctx.IndexedAttestation(att)
	require.ErrorContains(t, "bitfield length 9 is not equal to committee length 8", err)
}

func TestEpochContext_SyncCommittees(t *testing.T) {
	cfg := params.MainnetConfig()
	st := altairState(t, cfg, 64)
	ctx, err := cache.NewEpochContext(cfg, st)
	require.NoError(t, err)

	cur, err := ctx.SyncCommitteeAtEpoch(0)
	require.NoError(t, err)
	require.Equal(t, int(cfg.SyncCommitteeSize), len(cur.ValidatorIndices))
	assert.Equal(t, primitives.ValidatorIndex(3), cur.ValidatorIndices[3])
	assert.DeepEqual(t, []uint64{3, 67, 131, 195, 259, 323, 387, 451}, cur.Positions(3))

	next, err := ctx.SyncCommitteeAtEpoch(cfg.EpochsPerSyncCommitteePeriod)
	require.NoError(t, err)
	assert.Equal(t, primitives.ValidatorIndex(4), next.ValidatorIndices[3])

	_, err = ctx.SyncCommitteeAtEpoch(2 * cfg.EpochsPerSyncCommitteePeriod)
	require.ErrorIs(t, err, cache.ErrEpochOutOfRange)

	assert.NotEqual(t, uint64(0), ctx.SyncParticipantReward())
	assert.Equal(t, ctx.SyncParticipantReward()*cfg.ProposerWeight/(cfg.WeightDenominator-cfg.ProposerWeight), ctx.SyncProposerReward())

	indices := make([]primitives.ValidatorIndex, cfg.SyncCommitteeSize)
	ctx.RotateSyncCommittees(indices)
	cur, err = ctx.SyncCommitteeAtEpoch(0)
	require.NoError(t, err)
	assert.Equal(t, true, cur == next)
}

func TestEpochContext_SyncCommitteeUnknownPubkey(t *testing.T) {
	cfg := params.MainnetConfig()
	st := altairState(t, cfg, 64)
	committee, err := st.CurrentSyncCommittee()
	require.NoError(t, err)
	committee.Pubkeys[7] = testPubkey(1000)
	require.NoError(t, st.SetCurrentSyncCommittee(committee))

	_, err = cache.NewEpochContext(cfg, st)
	require.ErrorIs(t, err, cache.ErrUnknownPubkey)
}

func TestEpochContext_Phase0HasNoSyncCommittee(t *testing.T) {
	cfg := params.MainnetConfig()
	ctx, err := cache.NewEpochContext(cfg, phase0State(t, cfg, 8, 0))
	require.NoError(t, err)
	_, err = ctx.SyncCommitteeAtEpoch(0)
	require.ErrorContains(t, "not available before altair", err)
	assert.Equal(t, uint64(0), ctx.SyncParticipantReward())
}
