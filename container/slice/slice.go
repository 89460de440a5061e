// Package slice implements set operations over index lists.
package slice

import "sort"

// IntersectionUint64 of two uint64 slices with time
// complexity of approximately O(n) leveraging a map to
// check for element existence off by a constant factor
// of underlying map efficiency. The result is sorted in ascending order.
func IntersectionUint64(a []uint64, b []uint64) []uint64 {
	set := make([]uint64, 0)
	m := make(map[uint64]bool, len(a))

	for i := 0; i < len(a); i++ {
		m[a[i]] = true
	}
	for i := 0; i < len(b); i++ {
		if found := m[b[i]]; found {
			set = append(set, b[i])
			// Only the first occurrence counts.
			m[b[i]] = false
		}
	}
	sort.Slice(set, func(i, j int) bool {
		return set[i] < set[j]
	})
	return set
}

// IsSortedUniqueUint64 returns true if every element of a is strictly greater than the one before it.
func IsSortedUniqueUint64(a []uint64) bool {
	for i := 1; i < len(a); i++ {
		if a[i-1] >= a[i] {
			return false
		}
	}
	return true
}

// IsInUint64 returns true if a is in b and False otherwise.
func IsInUint64(a uint64, b []uint64) bool {
	for _, v := range b {
		if a == v {
			return true
		}
	}
	return false
}
