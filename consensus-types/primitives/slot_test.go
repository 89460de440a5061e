package primitives_test

import (
	"math"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestSlot_Arithmetic(t *testing.T) {
	s := primitives.Slot(64)
	require.Equal(t, primitives.Slot(96), s.Add(32))
	require.Equal(t, primitives.Slot(32), s.Sub(32))
	require.Equal(t, primitives.Slot(2), s.Div(32))
	require.Equal(t, primitives.Slot(8), primitives.Slot(72).Mod(32))
	require.Equal(t, primitives.Slot(128), s.Mul(2))
}

func TestSlot_SafeOverflow(t *testing.T) {
	_, err := primitives.Slot(math.MaxUint64).SafeAdd(1)
	require.ErrorContains(t, "addition overflows", err)
	_, err = primitives.Slot(1).SafeSub(2)
	require.ErrorContains(t, "subtraction underflows", err)
	_, err = primitives.Slot(1).SafeDiv(0)
	require.ErrorContains(t, "integer divide by zero", err)
}

func TestEpoch_PanicsOnUnderflow(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()
	primitives.Epoch(0).Sub(1)
}
