package state

import "github.com/pkg/errors"

var (
	// ErrNilValidatorsInState returns when accessing validators in the state while the state has a
	// nil slice for the validators field.
	ErrNilValidatorsInState = errors.New("state has nil validator slice")
	// ErrNilInnerState returns when the inner state is nil and no copy or hash tree root can be performed.
	ErrNilInnerState = errors.New("nil inner state")
	// ErrOutOfBounds is returned when an index is beyond the length of a state list or vector.
	ErrOutOfBounds = errors.New("index out of bounds")
)
