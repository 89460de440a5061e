package slice_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/container/slice"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestIntersectionUint64(t *testing.T) {
	testCases := []struct {
		setA []uint64
		setB []uint64
		out  []uint64
	}{
		{[]uint64{2, 3, 5}, []uint64{3}, []uint64{3}},
		{[]uint64{2, 3, 5}, []uint64{3, 5}, []uint64{3, 5}},
		{[]uint64{2, 3, 5}, []uint64{5, 3, 2}, []uint64{2, 3, 5}},
		{[]uint64{2, 3, 5}, []uint64{2, 3, 5}, []uint64{2, 3, 5}},
		{[]uint64{2, 3, 5}, []uint64{}, []uint64{}},
		{[]uint64{}, []uint64{2, 3, 5}, []uint64{}},
		{[]uint64{1}, []uint64{1, 1}, []uint64{1}},
	}
	for _, tt := range testCases {
		result := slice.IntersectionUint64(tt.setA, tt.setB)
		require.DeepEqual(t, tt.out, result)
	}
}

func TestIsSortedUniqueUint64(t *testing.T) {
	require.Equal(t, true, slice.IsSortedUniqueUint64(nil))
	require.Equal(t, true, slice.IsSortedUniqueUint64([]uint64{1, 2, 9}))
	require.Equal(t, false, slice.IsSortedUniqueUint64([]uint64{1, 1, 9}))
	require.Equal(t, false, slice.IsSortedUniqueUint64([]uint64{3, 2}))
}

func TestIsInUint64(t *testing.T) {
	require.Equal(t, true, slice.IsInUint64(4, []uint64{1, 4}))
	require.Equal(t, false, slice.IsInUint64(5, []uint64{1, 4}))
}
