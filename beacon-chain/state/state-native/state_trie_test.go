package state_native

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func testValidators(n int) ([]*ethpb.Validator, []uint64) {
	vals := make([]*ethpb.Validator, n)
	bals := make([]uint64, n)
	for i := 0; i < n; i++ {
		vals[i] = &ethpb.Validator{
			PublicKey:                  bytesutil.PadTo([]byte{byte(i), byte(i >> 8)}, fieldparams.BLSPubkeyLength),
			WithdrawalCredentials:      make([]byte, fieldparams.RootLength),
			EffectiveBalance:           32e9,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  primitives.Epoch(1 << 62),
			WithdrawableEpoch:          primitives.Epoch(1 << 62),
		}
		bals[i] = 32e9
	}
	return vals, bals
}

func testPhase0State(t testing.TB, n int) state.BeaconState {
	vals, bals := testValidators(n)
	st, err := InitializeFromProtoPhase0(&ethpb.BeaconState{
		GenesisValidatorsRoot: make([]byte, 32),
		Fork: &ethpb.Fork{
			PreviousVersion: []byte{0, 0, 0, 0},
			CurrentVersion:  []byte{0, 0, 0, 0},
		},
		LatestBlockHeader: &ethpb.BeaconBlockHeader{
			ParentRoot: make([]byte, 32),
			StateRoot:  make([]byte, 32),
			BodyRoot:   make([]byte, 32),
		},
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, 32),
			BlockHash:   make([]byte, 32),
		},
		Validators:                  vals,
		Balances:                    bals,
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{Root: make([]byte, 32)},
		CurrentJustifiedCheckpoint:  &ethpb.Checkpoint{Root: make([]byte, 32)},
		FinalizedCheckpoint:         &ethpb.Checkpoint{Root: make([]byte, 32)},
	})
	require.NoError(t, err)
	return st
}

func testAltairState(t testing.TB, n int) state.BeaconState {
	vals, bals := testValidators(n)
	pubkeys := make([][]byte, fieldparams.SyncCommitteeLength)
	for i := range pubkeys {
		pubkeys[i] = make([]byte, fieldparams.BLSPubkeyLength)
	}
	committee := &ethpb.SyncCommittee{Pubkeys: pubkeys, AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength)}
	st, err := InitializeFromProtoAltair(&ethpb.BeaconStateAltair{
		GenesisValidatorsRoot: make([]byte, 32),
		Fork: &ethpb.Fork{
			PreviousVersion: []byte{0, 0, 0, 0},
			CurrentVersion:  []byte{1, 0, 0, 0},
		},
		LatestBlockHeader: &ethpb.BeaconBlockHeader{
			ParentRoot: make([]byte, 32),
			StateRoot:  make([]byte, 32),
			BodyRoot:   make([]byte, 32),
		},
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, 32),
			BlockHash:   make([]byte, 32),
		},
		Validators:                  vals,
		Balances:                    bals,
		PreviousEpochParticipation:  make([]byte, n),
		CurrentEpochParticipation:   make([]byte, n),
		InactivityScores:            make([]uint64, n),
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{Root: make([]byte, 32)},
		CurrentJustifiedCheckpoint:  &ethpb.Checkpoint{Root: make([]byte, 32)},
		FinalizedCheckpoint:         &ethpb.Checkpoint{Root: make([]byte, 32)},
		CurrentSyncCommittee:        committee,
		NextSyncCommittee:           committee.Copy(),
	})
	require.NoError(t, err)
	return st
}

// freshRoot rebuilds a state from its proto form and hashes it from scratch.
func freshRoot(t *testing.T, st state.BeaconState) [32]byte {
	var rebuilt state.BeaconState
	var err error
	switch pb := st.ToProto().(type) {
	case *ethpb.BeaconState:
		rebuilt, err = InitializeFromProtoUnsafePhase0(pb)
	case *ethpb.BeaconStateAltair:
		rebuilt, err = InitializeFromProtoUnsafeAltair(pb)
	default:
		t.Fatalf("unexpected proto type %T", pb)
	}
	require.NoError(t, err)
	root, err := rebuilt.HashTreeRoot(context.Background())
	require.NoError(t, err)
	return root
}

func TestInitializeFromProto_Errors(t *testing.T) {
	_, err := InitializeFromProtoPhase0(nil)
	require.ErrorContains(t, "received nil state", err)

	vals, _ := testValidators(2)
	_, err = InitializeFromProtoPhase0(&ethpb.BeaconState{Validators: vals, Balances: []uint64{1}})
	require.ErrorContains(t, "1 balances for 2 validators", err)

	_, err = InitializeFromProtoAltair(&ethpb.BeaconStateAltair{BlockRoots: make([][]byte, fieldparams.BlockRootsLength+1)})
	require.ErrorContains(t, "block roots has", err)
}

func TestInitializeFromProto_DoesNotAliasInput(t *testing.T) {
	vals, bals := testValidators(4)
	pb := &ethpb.BeaconState{Validators: vals, Balances: bals}
	st, err := InitializeFromProtoPhase0(pb)
	require.NoError(t, err)

	pb.Balances[0] = 1
	pb.Validators[1].Slashed = true
	b, err := st.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(32e9), b)
	v, err := st.ValidatorAtIndexReadOnly(1)
	require.NoError(t, err)
	assert.Equal(t, false, v.Slashed())
}

func TestBeaconState_Version(t *testing.T) {
	assert.Equal(t, version.Phase0, testPhase0State(t, 2).Version())
	assert.Equal(t, version.Altair, testAltairState(t, 2).Version())
}

func TestBeaconState_HashTreeRoot_MatchesRebuild(t *testing.T) {
	ctx := context.Background()
	for _, st := range []state.BeaconState{testPhase0State(t, 16), testAltairState(t, 16)} {
		t.Run(version.String(st.Version()), func(t *testing.T) {
			first, err := st.HashTreeRoot(ctx)
			require.NoError(t, err)
			assert.Equal(t, freshRoot(t, st), first)

			require.NoError(t, st.SetSlot(9))
			require.NoError(t, st.UpdateBalancesAtIndex(3, 31e9))
			require.NoError(t, st.UpdateBlockRootAtIndex(2, [32]byte{'a'}))
			require.NoError(t, st.UpdateRandaoMixesAtIndex(5, bytesutil.PadTo([]byte{'r'}, 32)))
			v, err := st.ValidatorAtIndex(7)
			require.NoError(t, err)
			v.EffectiveBalance = 31e9
			require.NoError(t, st.UpdateValidatorAtIndex(7, v))
			require.NoError(t, st.AppendHistoricalRoots([32]byte{'h'}))

			second, err := st.HashTreeRoot(ctx)
			require.NoError(t, err)
			assert.NotEqual(t, first, second)
			assert.Equal(t, freshRoot(t, st), second)
		})
	}
}

func TestBeaconState_HashTreeRoot_AppendValidator(t *testing.T) {
	ctx := context.Background()
	st := testPhase0State(t, 8)
	_, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)

	vals, _ := testValidators(9)
	require.NoError(t, st.AppendValidator(vals[8]))
	require.NoError(t, st.AppendBalance(1e9))
	root, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, freshRoot(t, st), root)
	assert.Equal(t, 9, st.NumValidators())
}

func TestBeaconState_Copy_IsolatesWrites(t *testing.T) {
	ctx := context.Background()
	st := testPhase0State(t, 8)
	origRoot, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)

	cp := st.Copy()
	require.NoError(t, cp.UpdateBalancesAtIndex(0, 1))
	require.NoError(t, cp.UpdateSlashingsAtIndex(0, 5))
	require.NoError(t, cp.UpdateStateRootAtIndex(1, [32]byte{'s'}))
	v, err := cp.ValidatorAtIndex(2)
	require.NoError(t, err)
	v.Slashed = true
	require.NoError(t, cp.UpdateValidatorAtIndex(2, v))
	require.NoError(t, cp.AppendEth1DataVotes(&ethpb.Eth1Data{DepositRoot: make([]byte, 32), BlockHash: make([]byte, 32)}))

	bal, err := st.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(32e9), bal)
	assert.Equal(t, uint64(0), st.Slashings()[0])
	r, err := st.StateRootAtIndex(1)
	require.NoError(t, err)
	assert.DeepEqual(t, make([]byte, 32), r)
	orig, err := st.ValidatorAtIndexReadOnly(2)
	require.NoError(t, err)
	assert.Equal(t, false, orig.Slashed())
	assert.Equal(t, 0, len(st.Eth1DataVotes()))

	rootAfter, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, origRoot, rootAfter)

	cpRoot, err := cp.HashTreeRoot(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, origRoot, cpRoot)
	assert.Equal(t, freshRoot(t, cp), cpRoot)
}

func TestBeaconState_Copy_SharesUntilWrite(t *testing.T) {
	st := testPhase0State(t, 4)
	cp := st.Copy()
	assert.Equal(t, uint64(2), cp.FieldReferencesCount()[types.Balances.String()])

	require.NoError(t, cp.UpdateBalancesAtIndex(0, 1))
	assert.Equal(t, uint64(1), cp.FieldReferencesCount()[types.Balances.String()])
	assert.Equal(t, uint64(1), st.FieldReferencesCount()[types.Balances.String()])
}

func TestBeaconState_RotateAttestations(t *testing.T) {
	st := testPhase0State(t, 4)
	att := &ethpb.PendingAttestation{
		AggregationBits: []byte{0b11},
		Data: &ethpb.AttestationData{
			BeaconBlockRoot: make([]byte, 32),
			Source:          &ethpb.Checkpoint{Root: make([]byte, 32)},
			Target:          &ethpb.Checkpoint{Root: make([]byte, 32)},
		},
	}
	require.NoError(t, st.AppendCurrentEpochAttestations(att))
	cp := st.Copy()

	require.NoError(t, st.RotateAttestations())
	prev, err := st.PreviousEpochAttestations()
	require.NoError(t, err)
	cur, err := st.CurrentEpochAttestations()
	require.NoError(t, err)
	assert.Equal(t, 1, len(prev))
	assert.Equal(t, 0, len(cur))

	// Appending to the rotated list must not leak into the copy's current list.
	require.NoError(t, st.AppendPreviousEpochAttestations(att))
	require.NoError(t, cp.AppendCurrentEpochAttestations(att))
	cpCur, err := cp.CurrentEpochAttestations()
	require.NoError(t, err)
	assert.Equal(t, 2, len(cpCur))
	prev, err = st.PreviousEpochAttestations()
	require.NoError(t, err)
	assert.Equal(t, 2, len(prev))

	root, err := st.HashTreeRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, freshRoot(t, st), root)
}

func TestBeaconState_VersionGatedAccessors(t *testing.T) {
	p0 := testPhase0State(t, 2)
	_, err := p0.CurrentEpochParticipation()
	require.ErrorContains(t, "CurrentEpochParticipation is not supported for phase0", err)
	_, err = p0.CurrentSyncCommittee()
	require.ErrorContains(t, "not supported for phase0", err)
	require.ErrorContains(t, "not supported for phase0", p0.RotateParticipationBits())

	alt := testAltairState(t, 2)
	_, err = alt.PreviousEpochAttestations()
	require.ErrorContains(t, "PreviousEpochAttestations is not supported for altair", err)
	require.ErrorContains(t, "not supported for altair", alt.RotateAttestations())
}

func TestBeaconState_Participation(t *testing.T) {
	ctx := context.Background()
	st := testAltairState(t, 4)
	require.NoError(t, st.ModifyCurrentParticipationBits(func(val []byte) ([]byte, error) {
		val[1] = 0b111
		return val, nil
	}))
	cp := st.Copy()
	require.NoError(t, st.RotateParticipationBits())

	prev, err := st.PreviousEpochParticipation()
	require.NoError(t, err)
	cur, err := st.CurrentEpochParticipation()
	require.NoError(t, err)
	assert.DeepEqual(t, []byte{0, 0b111, 0, 0}, prev)
	assert.DeepEqual(t, []byte{0, 0, 0, 0}, cur)

	cpCur, err := cp.CurrentEpochParticipation()
	require.NoError(t, err)
	assert.DeepEqual(t, []byte{0, 0b111, 0, 0}, cpCur)

	root, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, freshRoot(t, st), root)
}

func TestBeaconState_OutOfBounds(t *testing.T) {
	st := testPhase0State(t, 2)
	_, err := st.BalanceAtIndex(2)
	require.ErrorIs(t, err, state.ErrOutOfBounds)
	_, err = st.ValidatorAtIndex(5)
	require.ErrorContains(t, "index 5 out of range", err)
	require.ErrorIs(t, st.UpdateBlockRootAtIndex(fieldparams.BlockRootsLength, [32]byte{}), state.ErrOutOfBounds)
	assert.Equal(t, [fieldparams.BLSPubkeyLength]byte{}, st.PubkeyAtIndex(9))
}

func TestBeaconState_ApplyToEveryValidator(t *testing.T) {
	ctx := context.Background()
	st := testPhase0State(t, 6)
	_, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)
	cp := st.Copy()

	require.NoError(t, st.ApplyToEveryValidator(func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error) {
		if idx%2 == 0 {
			return false, nil, nil
		}
		nv := val.Copy()
		nv.EffectiveBalance = 1e9
		return true, nv, nil
	}))
	v, err := st.ValidatorAtIndexReadOnly(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1e9), v.EffectiveBalance())
	v, err = cp.ValidatorAtIndexReadOnly(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(32e9), v.EffectiveBalance())

	root, err := st.HashTreeRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, freshRoot(t, st), root)

	count := 0
	require.NoError(t, st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if val.EffectiveBalance() == 1e9 {
			count++
		}
		return nil
	}))
	assert.Equal(t, 3, count)
}
