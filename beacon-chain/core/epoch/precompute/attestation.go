package precompute

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// ProcessAttestations process the pending attestations of a phase0 state and update individual
// validator's pre computes. Attesting balances are summed afterwards by UpdateBalance.
func ProcessAttestations(ctx context.Context, st *cache.CachedBeaconState, ep *EpochProcess) error {
	_, span := trace.StartSpan(ctx, "precomputeEpoch.ProcessAttestations")
	defer span.End()

	if ep == nil {
		return ErrNilEpochProcess
	}
	roots := newRootCache(st.Config(), st)

	prevAtts, err := st.PreviousEpochAttestations()
	if err != nil {
		return err
	}
	for _, a := range prevAtts {
		record, err := attestedEpoch(roots, a, ep.PrevEpoch)
		if err != nil {
			return errors.Wrap(err, "could not check validator attested previous epoch")
		}
		indices, err := st.EpochCtx().AttestingIndices(a.Data, a.AggregationBits)
		if err != nil {
			return err
		}
		for _, i := range indices {
			if i >= uint64(len(ep.Validators)) {
				return errors.Errorf("attester %d is not in the registry", i)
			}
			v := ep.Validators[i]
			v.IsPrevEpochAttester = true
			v.IsPrevEpochTargetAttester = v.IsPrevEpochTargetAttester || record.target
			v.IsPrevEpochHeadAttester = v.IsPrevEpochHeadAttester || record.head
			// Keep the attestation with the smallest inclusion delay.
			if v.InclusionDelay == 0 || a.InclusionDelay < v.InclusionDelay {
				v.InclusionDelay = a.InclusionDelay
				v.ProposerIndex = a.ProposerIndex
			}
		}
	}

	curAtts, err := st.CurrentEpochAttestations()
	if err != nil {
		return err
	}
	for _, a := range curAtts {
		record, err := attestedEpoch(roots, a, ep.CurrentEpoch)
		if err != nil {
			return errors.Wrap(err, "could not check validator attested current epoch")
		}
		indices, err := st.EpochCtx().AttestingIndices(a.Data, a.AggregationBits)
		if err != nil {
			return err
		}
		for _, i := range indices {
			if i >= uint64(len(ep.Validators)) {
				return errors.Errorf("attester %d is not in the registry", i)
			}
			v := ep.Validators[i]
			v.IsCurrentEpochAttester = true
			v.IsCurrentEpochTargetAttester = v.IsCurrentEpochTargetAttester || record.target
			v.IsCurrentEpochHeadAttester = v.IsCurrentEpochHeadAttester || record.head
		}
	}
	return nil
}

type attestationRecord struct {
	target bool
	head   bool
}

// attestedEpoch checks the target and head votes of a pending attestation of epoch e. A head vote
// only counts together with a matching target.
func attestedEpoch(roots *rootCache, a *ethpb.PendingAttestation, e primitives.Epoch) (attestationRecord, error) {
	if a == nil || a.Data == nil || a.Data.Target == nil {
		return attestationRecord{}, errors.New("nil pending attestation")
	}
	if a.InclusionDelay == 0 {
		return attestationRecord{}, errors.New("attestation with inclusion delay of 0")
	}
	if a.Data.Target.Epoch != e {
		return attestationRecord{}, errors.Errorf("attestation target epoch %d is not epoch %d", a.Data.Target.Epoch, e)
	}
	var record attestationRecord
	targetRoot, err := roots.blockRoot(e)
	if err != nil {
		return record, errors.Wrap(err, "could not get target root")
	}
	record.target = bytes.Equal(a.Data.Target.Root, targetRoot)
	if !record.target {
		return record, nil
	}
	headRoot, err := roots.blockRootAtSlot(a.Data.Slot)
	if err != nil {
		return record, errors.Wrap(err, "could not get head root")
	}
	record.head = bytes.Equal(a.Data.BeaconBlockRoot, headRoot)
	return record, nil
}

// rootCache memoizes block root lookups; most attestations of an epoch share a target and a
// handful of heads.
type rootCache struct {
	cfg        *params.BeaconChainConfig
	st         state.ReadOnlyBeaconState
	epochRoots map[primitives.Epoch][]byte
	slotRoots  map[primitives.Slot][]byte
}

func newRootCache(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState) *rootCache {
	return &rootCache{
		cfg:        cfg,
		st:         st,
		epochRoots: make(map[primitives.Epoch][]byte),
		slotRoots:  make(map[primitives.Slot][]byte),
	}
}

func (c *rootCache) blockRoot(e primitives.Epoch) ([]byte, error) {
	if r, ok := c.epochRoots[e]; ok {
		return r, nil
	}
	r, err := helpers.BlockRoot(c.cfg, c.st, e)
	if err != nil {
		return nil, err
	}
	c.epochRoots[e] = r
	return r, nil
}

func (c *rootCache) blockRootAtSlot(s primitives.Slot) ([]byte, error) {
	if r, ok := c.slotRoots[s]; ok {
		return r, nil
	}
	r, err := helpers.BlockRootAtSlot(c.cfg, c.st, s)
	if err != nil {
		return nil, err
	}
	c.slotRoots[s] = r
	return r, nil
}
