package cache_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestPubkeyCache_Add(t *testing.T) {
	c := cache.NewPubkeyCache()
	a := bytesutil.ToBytes48(testPubkey(1))
	b := bytesutil.ToBytes48(testPubkey(2))

	require.NoError(t, c.Add(0, a))
	require.NoError(t, c.Add(0, a))
	err := c.Add(0, b)
	require.ErrorIs(t, err, cache.ErrPubkeyConflict)
	require.ErrorContains(t, "already cached with a different public key", err)
	require.ErrorIs(t, c.Add(2, b), cache.ErrPubkeyConflict)
	require.NoError(t, c.Add(1, b))
	assert.Equal(t, 2, c.Len())
	// A key seen at another index still takes the slot but keeps its first index.
	require.ErrorIs(t, c.Add(2, a), cache.ErrPubkeyConflict)
	assert.Equal(t, 3, c.Len())
	idx, ok := c.ValidatorIndex(a)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(0), idx)

	idx, ok = c.ValidatorIndex(b)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(1), idx)
	_, ok = c.ValidatorIndex(bytesutil.ToBytes48(testPubkey(3)))
	assert.Equal(t, false, ok)
}

func TestPubkeyCache_Sync(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 10, 0)
	c := cache.NewPubkeyCache()
	conflicts, err := c.Sync(st)
	require.NoError(t, err)
	assert.Equal(t, 0, len(conflicts))
	conflicts, err = c.Sync(st)
	require.NoError(t, err)
	assert.Equal(t, 0, len(conflicts))
	assert.Equal(t, 10, c.Len())
	idx, ok := c.ValidatorIndex(st.PubkeyAtIndex(7))
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(7), idx)
}

func TestPubkeyCache_DecodesLazily(t *testing.T) {
	priv, err := bls.RandKey()
	require.NoError(t, err)
	c := cache.NewPubkeyCache()
	require.NoError(t, c.Add(0, bytesutil.ToBytes48(priv.PublicKey().Marshal())))
	require.NoError(t, c.Add(1, bytesutil.ToBytes48(testPubkey(9))))

	pub, err := c.Pubkey(0)
	require.NoError(t, err)
	assert.DeepEqual(t, priv.PublicKey().Marshal(), pub.Marshal())
	again, err := c.Pubkey(0)
	require.NoError(t, err)
	assert.Equal(t, true, pub == again)

	_, err = c.Pubkey(1)
	require.ErrorContains(t, "could not decode public key of validator 1", err)
	_, err = c.Pubkey(2)
	require.ErrorContains(t, "not in the pubkey cache", err)
}

func TestComputeEpochShuffling_Partition(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 1000, 0)
	active, err := helpers.ActiveValidatorIndices(st, 0)
	require.NoError(t, err)
	s, err := cache.ComputeEpochShuffling(cfg, st, active, 0)
	require.NoError(t, err)

	require.Equal(t, uint64(1), s.CommitteesPerSlot)
	require.Equal(t, int(cfg.SlotsPerEpoch), len(s.Committees))
	seen := make(map[primitives.ValidatorIndex]bool, len(active))
	minSize, maxSize := len(active), 0
	for _, slotCommittees := range s.Committees {
		for _, committee := range slotCommittees {
			if len(committee) < minSize {
				minSize = len(committee)
			}
			if len(committee) > maxSize {
				maxSize = len(committee)
			}
			for _, idx := range committee {
				require.Equal(t, false, seen[idx], "validator %d assigned twice", idx)
				seen[idx] = true
			}
		}
	}
	assert.Equal(t, len(active), len(seen))
	assert.Equal(t, true, maxSize-minSize <= 1)
	// The input list is not permuted in place.
	assert.Equal(t, primitives.ValidatorIndex(0), active[0])
	assert.Equal(t, primitives.ValidatorIndex(999), active[999])
}

func TestShufflingCache_Get(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 64, 0)
	active, err := helpers.ActiveValidatorIndices(st, 0)
	require.NoError(t, err)
	sc, err := cache.NewShufflingCache()
	require.NoError(t, err)

	a, err := sc.Get(cfg, st, active, 0)
	require.NoError(t, err)
	b, err := sc.Get(cfg, st, active, 0)
	require.NoError(t, err)
	assert.Equal(t, true, a == b)
	assert.Equal(t, 1, sc.Len())

	c, err := sc.Get(cfg, st, active[1:], 0)
	require.NoError(t, err)
	assert.Equal(t, false, a == c)
	assert.Equal(t, 63, len(c.ActiveIndices))
	assert.Equal(t, 2, sc.Len())
}

func TestCachedBeaconState_EpochMarker(t *testing.T) {
	cfg := params.MainnetConfig()
	st := phase0State(t, cfg, 16, 5)
	cs, err := cache.CachedStateFromState(cfg, st)
	require.NoError(t, err)
	require.NoError(t, cs.CheckEpochMarker())
	assert.Equal(t, true, cs.Config() == cfg)

	require.NoError(t, cs.SetSlot(32))
	require.ErrorIs(t, cs.CheckEpochMarker(), cache.ErrEpochContextDesync)

	_, err = cache.NewCachedBeaconState(phase0State(t, cfg, 16, 64), cs.EpochCtx())
	require.ErrorIs(t, err, cache.ErrEpochContextDesync)
}

func TestCachedBeaconState_CloneIsolation(t *testing.T) {
	cfg := params.MainnetConfig()
	cs, err := cache.CachedStateFromState(cfg, phase0State(t, cfg, 16, 5))
	require.NoError(t, err)

	cp := cs.Clone()
	require.NoError(t, cp.SetSlot(6))
	require.NoError(t, cp.UpdateBalancesAtIndex(2, 1))
	cp.EpochCtx().SetEffectiveBalance(2, 0)
	cp.EpochCtx().ClaimExitEpoch()

	assert.Equal(t, primitives.Slot(5), cs.Slot())
	bal, err := cs.BalanceAtIndex(2)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, bal)
	eb, err := cs.EpochCtx().EffectiveBalance(2)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, eb)
	_, churn := cs.EpochCtx().ExitQueue()
	assert.Equal(t, uint64(0), churn)
	_, churn = cp.EpochCtx().ExitQueue()
	assert.Equal(t, uint64(1), churn)
}

func TestCachedBeaconState_ReplaceState(t *testing.T) {
	cfg := params.MainnetConfig()
	cs, err := cache.CachedStateFromState(cfg, phase0State(t, cfg, 16, 5))
	require.NoError(t, err)
	require.ErrorIs(t, cs.ReplaceState(phase0State(t, cfg, 16, 40)), cache.ErrEpochContextDesync)
	assert.Equal(t, primitives.Slot(5), cs.Slot())
	require.NoError(t, cs.ReplaceState(phase0State(t, cfg, 16, 7)))
	assert.Equal(t, primitives.Slot(7), cs.Slot())
}

func TestSkipSlotCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := params.MainnetConfig()
	c, err := cache.NewSkipSlotCache()
	require.NoError(t, err)
	cs, err := cache.CachedStateFromState(cfg, phase0State(t, cfg, 16, 5))
	require.NoError(t, err)
	key := cache.SkipSlotCacheKey([32]byte{'a'}, 5)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, true, got == nil)

	require.NoError(t, c.MarkInProgress(key))
	require.ErrorIs(t, c.MarkInProgress(key), cache.ErrAlreadyInProgress)
	c.Put(ctx, key, cs)
	c.MarkNotInProgress(key)

	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, primitives.Slot(5), got.Slot())
	require.NoError(t, got.SetSlot(6))
	again, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, primitives.Slot(5), again.Slot())

	c.Disable()
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, true, got == nil)
	c.Enable()
	c.Clear()
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, true, got == nil)
}

func TestSkipSlotCache_CanceledWhileInProgress(t *testing.T) {
	c, err := cache.NewSkipSlotCache()
	require.NoError(t, err)
	key := cache.SkipSlotCacheKey([32]byte{'b'}, 9)
	require.NoError(t, c.MarkInProgress(key))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, key)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSkipSlotCacheKey(t *testing.T) {
	root := [32]byte{1, 2, 3}
	root[30] = 0xff
	key := cache.SkipSlotCacheKey(root, 0x0102)
	assert.DeepEqual(t, root[:24], key[:24])
	assert.DeepEqual(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, key[24:])
	assert.NotEqual(t, key, cache.SkipSlotCacheKey(root, 0x0103))
}
