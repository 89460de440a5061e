package util

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestNewBeaconState(t *testing.T) {
	st, err := NewBeaconState()
	require.NoError(t, err)
	assert.Equal(t, version.Phase0, st.Version())
	assert.Equal(t, 0, st.NumValidators())
	_, err = st.HashTreeRoot(context.Background())
	require.NoError(t, err)
}

func TestNewBeaconStateAltair(t *testing.T) {
	st, err := NewBeaconStateAltair()
	require.NoError(t, err)
	assert.Equal(t, version.Altair, st.Version())
	_, err = st.HashTreeRoot(context.Background())
	require.NoError(t, err)
}

func TestNewBeaconState_RegistryOpt(t *testing.T) {
	st, err := NewBeaconState(RegistryOpt(16))
	require.NoError(t, err)
	require.Equal(t, 16, st.NumValidators())
	require.Equal(t, 16, st.BalancesLength())

	cached, err := NewCachedBeaconState(st)
	require.NoError(t, err)
	assert.Equal(t, 16*params.MainnetConfig().MaxEffectiveBalance, cached.EpochCtx().TotalActiveBalance())
}

func TestNewBeaconStateAltair_RegistryOpt(t *testing.T) {
	st, err := NewBeaconStateAltair(RegistryOptAltair(8))
	require.NoError(t, err)
	participation, err := st.CurrentEpochParticipation()
	require.NoError(t, err)
	assert.Equal(t, 8, len(participation))
	committee, err := st.CurrentSyncCommittee()
	require.NoError(t, err)
	assert.DeepEqual(t, committee.Pubkeys[0], committee.Pubkeys[8])
}

func TestFillRootsNaturalOpt(t *testing.T) {
	st, err := NewBeaconState(FillRootsNaturalOpt)
	require.NoError(t, err)
	root, err := st.BlockRootAtIndex(16)
	require.NoError(t, err)
	assert.Equal(t, byte(16), root[31])
	assert.Equal(t, byte(0), root[30])
}
