package primitives

import "fmt"

// ValidatorIndex in eth2.
type ValidatorIndex uint64

// CommitteeIndex of a beacon committee within a slot.
type CommitteeIndex uint64

// Gwei is the denomination of all balances.
type Gwei uint64

// Div divides validator index by x.
func (v ValidatorIndex) Div(x uint64) ValidatorIndex {
	if x == 0 {
		panic("divbyzero")
	}
	return ValidatorIndex(uint64(v) / x)
}

// Add increases validator index by x.
func (v ValidatorIndex) Add(x uint64) ValidatorIndex {
	return ValidatorIndex(uint64(v) + x)
}

// Mod returns result of `validator index % x`.
func (v ValidatorIndex) Mod(x uint64) ValidatorIndex {
	if x == 0 {
		panic("divbyzero")
	}
	return ValidatorIndex(uint64(v) % x)
}

func (v ValidatorIndex) String() string {
	return fmt.Sprintf("%d", uint64(v))
}
