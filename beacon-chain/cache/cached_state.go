package cache

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
)

// CachedBeaconState pairs a beacon state with the epoch context derived from it. The engine
// only ever transitions cached states, so every function reads its config from the state it
// is transforming.
type CachedBeaconState struct {
	state.BeaconState
	epochCtx *EpochContext
}

// NewCachedBeaconState pairs st with an existing context. The context must have been built or
// rotated for the epoch st is in.
func NewCachedBeaconState(st state.BeaconState, epochCtx *EpochContext) (*CachedBeaconState, error) {
	if st == nil || st.IsNil() {
		return nil, errors.New("nil beacon state")
	}
	if epochCtx == nil {
		return nil, errors.New("nil epoch context")
	}
	s := &CachedBeaconState{BeaconState: st, epochCtx: epochCtx}
	if err := s.CheckEpochMarker(); err != nil {
		return nil, err
	}
	return s, nil
}

// CachedStateFromState builds a fresh epoch context for st.
func CachedStateFromState(cfg *params.BeaconChainConfig, st state.BeaconState, opts ...Option) (*CachedBeaconState, error) {
	epochCtx, err := NewEpochContext(cfg, st, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create epoch context")
	}
	return NewCachedBeaconState(st, epochCtx)
}

// EpochCtx returns the epoch context of the state.
func (s *CachedBeaconState) EpochCtx() *EpochContext {
	return s.epochCtx
}

// Config returns the chain config the state is transitioned under.
func (s *CachedBeaconState) Config() *params.BeaconChainConfig {
	return s.epochCtx.cfg
}

// Clone copies the state and its context. Writes to the clone never reach s.
func (s *CachedBeaconState) Clone() *CachedBeaconState {
	return &CachedBeaconState{
		BeaconState: s.BeaconState.Copy(),
		epochCtx:    s.epochCtx.Copy(),
	}
}

// ReplaceState swaps in st, which must be in the same epoch as the current state. It is used
// when a fork upgrade produces a new state version.
func (s *CachedBeaconState) ReplaceState(st state.BeaconState) error {
	if st == nil || st.IsNil() {
		return errors.New("nil beacon state")
	}
	prev := s.BeaconState
	s.BeaconState = st
	if err := s.CheckEpochMarker(); err != nil {
		s.BeaconState = prev
		return err
	}
	return nil
}

// CheckEpochMarker returns ErrEpochContextDesync when the context was derived for a different
// epoch than the one the state is in.
func (s *CachedBeaconState) CheckEpochMarker() error {
	e := slots.ToEpoch(s.epochCtx.cfg, s.Slot())
	if e != s.epochCtx.epoch {
		return errors.Wrapf(ErrEpochContextDesync, "state epoch %d, context epoch %d", e, s.epochCtx.epoch)
	}
	return nil
}
