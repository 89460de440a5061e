package state_native

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
)

// RotateParticipationBits sets the previous epoch participation to the current epoch
// participation and resets the current epoch participation to zero for every validator.
func (b *BeaconState) RotateParticipationBits() error {
	if b.version == version.Phase0 {
		return errNotSupported("RotateParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.rotateRef(types.PreviousEpochParticipationBits, types.CurrentEpochParticipationBits)
	b.previousEpochParticipation = b.currentEpochParticipation
	b.currentEpochParticipation = make([]byte, len(b.validators))
	b.markFieldAsDirty(types.PreviousEpochParticipationBits)
	b.markFieldAsDirty(types.CurrentEpochParticipationBits)
	return nil
}

// AppendCurrentParticipationBits for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendCurrentParticipationBits(val byte) error {
	if b.version == version.Phase0 {
		return errNotSupported("AppendCurrentParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.CurrentEpochParticipationBits, func() {
		b.currentEpochParticipation = copyParticipation(b.currentEpochParticipation)
	})
	b.currentEpochParticipation = append(b.currentEpochParticipation, val)
	b.markFieldAsDirty(types.CurrentEpochParticipationBits)
	return nil
}

// AppendPreviousParticipationBits for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendPreviousParticipationBits(val byte) error {
	if b.version == version.Phase0 {
		return errNotSupported("AppendPreviousParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.PreviousEpochParticipationBits, func() {
		b.previousEpochParticipation = copyParticipation(b.previousEpochParticipation)
	})
	b.previousEpochParticipation = append(b.previousEpochParticipation, val)
	b.markFieldAsDirty(types.PreviousEpochParticipationBits)
	return nil
}

// ModifyPreviousParticipationBits modifies the previous participation bitfield via
// the provided mutator function.
func (b *BeaconState) ModifyPreviousParticipationBits(mutator func(val []byte) ([]byte, error)) error {
	if b.version == version.Phase0 {
		return errNotSupported("ModifyPreviousParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.PreviousEpochParticipationBits, func() {
		b.previousEpochParticipation = copyParticipation(b.previousEpochParticipation)
	})
	participation, err := mutator(b.previousEpochParticipation)
	if err != nil {
		return err
	}
	b.previousEpochParticipation = participation
	b.markFieldAsDirty(types.PreviousEpochParticipationBits)
	return nil
}

// ModifyCurrentParticipationBits modifies the current participation bitfield via
// the provided mutator function.
func (b *BeaconState) ModifyCurrentParticipationBits(mutator func(val []byte) ([]byte, error)) error {
	if b.version == version.Phase0 {
		return errNotSupported("ModifyCurrentParticipationBits", b.version)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.detach(types.CurrentEpochParticipationBits, func() {
		b.currentEpochParticipation = copyParticipation(b.currentEpochParticipation)
	})
	participation, err := mutator(b.currentEpochParticipation)
	if err != nil {
		return err
	}
	b.currentEpochParticipation = participation
	b.markFieldAsDirty(types.CurrentEpochParticipationBits)
	return nil
}

func copyParticipation(p []byte) []byte {
	res := make([]byte, len(p), len(p)+1)
	copy(res, p)
	return res
}
