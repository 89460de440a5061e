package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetValidators for the beacon state. Updates the entire
// to a new value by overwriting the previous one.
func (b *BeaconState) SetValidators(val []*ethpb.Validator) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.Validators)
	b.validators = val
	b.markFieldAsDirty(types.Validators)
	b.rebuildTrie[types.Validators] = true
	delete(b.dirtyIndices, types.Validators)
	return nil
}

// ApplyToEveryValidator applies the provided callback function to each validator in the
// validator registry. The callback must not mutate val in place; validators it reports as
// changed are replaced with the returned value.
func (b *BeaconState) ApplyToEveryValidator(f func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error)) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.Validators, func() {
		b.validators = b.validatorsReferences()
	})

	var changedVals []uint64
	for i, val := range b.validators {
		changed, newVal, err := f(i, val)
		if err != nil {
			return err
		}
		if changed {
			changedVals = append(changedVals, uint64(i))
			b.validators[i] = newVal
		}
	}
	if len(changedVals) == 0 {
		return nil
	}
	b.markFieldAsDirty(types.Validators)
	b.addDirtyIndices(types.Validators, changedVals)
	return nil
}

// UpdateValidatorAtIndex for the beacon state. Updates the validator
// at a specific index to a new value.
func (b *BeaconState) UpdateValidatorAtIndex(idx primitives.ValidatorIndex, val *ethpb.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.validators)) <= uint64(idx) {
		e := NewValidatorIndexOutOfRangeError(idx)
		return &e
	}
	b.detach(types.Validators, func() {
		b.validators = b.validatorsReferences()
	})
	b.validators[idx] = val
	b.markFieldAsDirty(types.Validators)
	b.addDirtyIndices(types.Validators, []uint64{uint64(idx)})
	return nil
}

// AppendValidator for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendValidator(val *ethpb.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.Validators, func() {
		b.validators = b.validatorsReferences()
	})
	// Append validator to validators slice.
	b.validators = append(b.validators, val)
	valIdx := uint64(len(b.validators) - 1)
	b.markFieldAsDirty(types.Validators)
	b.addDirtyIndices(types.Validators, []uint64{valIdx})
	return nil
}

// SetBalances for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBalances(val []uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replaceRef(types.Balances)
	b.balances = val
	b.markFieldAsDirty(types.Balances)
	return nil
}

// UpdateBalancesAtIndex for the beacon state. This method updates the balance
// at a specific index to a new value.
func (b *BeaconState) UpdateBalancesAtIndex(idx primitives.ValidatorIndex, val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.balances)) <= uint64(idx) {
		return errors.Wrapf(state.ErrOutOfBounds, "balance index %d, %d balances", idx, len(b.balances))
	}
	b.detach(types.Balances, func() {
		bals := make([]uint64, len(b.balances))
		copy(bals, b.balances)
		b.balances = bals
	})
	b.balances[idx] = val
	b.markFieldAsDirty(types.Balances)
	return nil
}

// AppendBalance for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendBalance(bal uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.Balances, func() {
		bals := make([]uint64, len(b.balances), len(b.balances)+1)
		copy(bals, b.balances)
		b.balances = bals
	})
	b.balances = append(b.balances, bal)
	b.markFieldAsDirty(types.Balances)
	return nil
}

// validatorsReferences returns a fresh registry slice pointing at the same validators.
// Validators are replaced rather than mutated, so sharing the pointers is safe.
func (b *BeaconState) validatorsReferences() []*ethpb.Validator {
	res := make([]*ethpb.Validator, len(b.validators), len(b.validators)+1)
	copy(res, b.validators)
	return res
}
