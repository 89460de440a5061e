// Package precompute provides gathering of nicely-structured
// data important to feed into epoch processing, such as attesting
// records and balances, for faster computation.
package precompute

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"go.opencensus.io/trace"
)

// ErrNilEpochProcess is returned when an epoch processing step runs without the data gathered by New.
var ErrNilEpochProcess = errors.New("nil epoch process")

// Validator stores the pre computation of an individual validator.
type Validator struct {
	// IsSlashed is true if the validator has been slashed.
	IsSlashed bool
	// IsEligible is true if the validator receives rewards and penalties for the previous epoch.
	IsEligible bool
	// IsActiveCurrentEpoch is true if the validator was active current epoch.
	IsActiveCurrentEpoch bool
	// IsActivePrevEpoch is true if the validator was active prev epoch.
	IsActivePrevEpoch bool
	// IsCurrentEpochAttester is true if the validator attested current epoch.
	IsCurrentEpochAttester bool
	// IsCurrentEpochTargetAttester is true if the validator attested current epoch target.
	IsCurrentEpochTargetAttester bool
	// IsCurrentEpochHeadAttester is true if the validator attested current epoch head.
	IsCurrentEpochHeadAttester bool
	// IsPrevEpochAttester is true if the validator attested previous epoch. In altair it is the
	// timely source flag.
	IsPrevEpochAttester bool
	// IsPrevEpochTargetAttester is true if the validator attested previous epoch target.
	IsPrevEpochTargetAttester bool
	// IsPrevEpochHeadAttester is true if the validator attested to the previous epoch head.
	IsPrevEpochHeadAttester bool

	// CurrentEpochEffectiveBalance is how much effective balance this validator has current epoch.
	CurrentEpochEffectiveBalance uint64
	// InclusionDelay is the distance between the slot of the earliest previous epoch attestation
	// of the validator and the slot it was included at. Zero when no attestation was included.
	InclusionDelay primitives.Slot
	// ProposerIndex is the index of the proposer that included the earliest attestation.
	ProposerIndex primitives.ValidatorIndex
	// InactivityScore of the validator. [Altair]
	InactivityScore uint64
}

// Balance stores the pre computation of the total participated balances for a given epoch.
// Every total is floored to one effective balance increment.
type Balance struct {
	// ActiveCurrentEpoch is the total effective balance of all active validators during current epoch.
	ActiveCurrentEpoch uint64
	// ActivePrevEpoch is the total effective balance of all active validators during prev epoch.
	ActivePrevEpoch uint64
	// CurrentEpochTargetAttested is the total effective balance of unslashed validators that
	// attested current epoch target.
	CurrentEpochTargetAttested uint64
	// PrevEpochAttested is the total effective balance of unslashed validators that attested prev epoch.
	PrevEpochAttested uint64
	// PrevEpochTargetAttested is the total effective balance of unslashed validators that
	// attested prev epoch target.
	PrevEpochTargetAttested uint64
	// PrevEpochHeadAttested is the total effective balance of unslashed validators that
	// attested prev epoch head.
	PrevEpochHeadAttested uint64
}

// EpochProcess is the scratch data shared by every step of one epoch transition. It is
// gathered with a single pass over the registry before any step mutates the state.
type EpochProcess struct {
	PrevEpoch    primitives.Epoch
	CurrentEpoch primitives.Epoch

	Validators []*Validator
	Balance    *Balance

	// BaseRewardPerIncrement is derived from Balance.ActiveCurrentEpoch.
	BaseRewardPerIncrement uint64

	// IndicesToSlash are slashed validators whose withdrawable epoch is half a slashings
	// vector away from the current epoch.
	IndicesToSlash []primitives.ValidatorIndex
	// IndicesEligibleForActivationQueue have the maximum effective balance and no
	// activation eligibility epoch yet.
	IndicesEligibleForActivationQueue []primitives.ValidatorIndex
	// IndicesEligibleForActivation are not activated yet and became eligible at or before the
	// current epoch, sorted by eligibility epoch and then index. Finality is checked later.
	IndicesEligibleForActivation []primitives.ValidatorIndex
	// IndicesToEject are active, not exiting and at or below the ejection balance.
	IndicesToEject []primitives.ValidatorIndex
}

// New gathers the epoch process of st. It must run at the last slot of an epoch, before any
// epoch processing step.
func New(ctx context.Context, st *cache.CachedBeaconState) (*EpochProcess, error) {
	_, span := trace.StartSpan(ctx, "precomputeEpoch.New")
	defer span.End()

	if st == nil || st.IsNil() {
		return nil, errors.New("nil beacon state")
	}
	if err := st.CheckEpochMarker(); err != nil {
		return nil, err
	}
	cfg := st.Config()
	prevEpoch := time.PrevEpoch(cfg, st)
	currentEpoch := time.CurrentEpoch(cfg, st)
	slashingsEpoch := currentEpoch + cfg.EpochsPerSlashingsVector/2

	var inactivityScores []uint64
	if st.Version() >= version.Altair {
		scores, err := st.InactivityScores()
		if err != nil {
			return nil, err
		}
		// This shouldn't happen with a correct beacon state,
		// but rather be safe to defend against index out of bound panics.
		if len(scores) != st.NumValidators() {
			return nil, errors.Errorf("inactivity scores length %d does not match validator count %d", len(scores), st.NumValidators())
		}
		inactivityScores = scores
	}

	ep := &EpochProcess{
		PrevEpoch:    prevEpoch,
		CurrentEpoch: currentEpoch,
		Validators:   make([]*Validator, st.NumValidators()),
		Balance:      &Balance{},
	}
	queue := sortableIndices{}
	err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		index := primitives.ValidatorIndex(idx)
		pVal := &Validator{
			IsSlashed:                    val.Slashed(),
			CurrentEpochEffectiveBalance: val.EffectiveBalance(),
		}
		if inactivityScores != nil {
			pVal.InactivityScore = inactivityScores[idx]
		}
		if val.Slashed() && slashingsEpoch == val.WithdrawableEpoch() {
			ep.IndicesToSlash = append(ep.IndicesToSlash, index)
		}
		if helpers.IsActiveValidatorUsingTrie(val, prevEpoch) {
			pVal.IsActivePrevEpoch = true
			ep.Balance.ActivePrevEpoch += val.EffectiveBalance()
		}
		pVal.IsEligible = pVal.IsActivePrevEpoch || (val.Slashed() && prevEpoch+1 < val.WithdrawableEpoch())
		if helpers.IsActiveValidatorUsingTrie(val, currentEpoch) {
			pVal.IsActiveCurrentEpoch = true
			ep.Balance.ActiveCurrentEpoch += val.EffectiveBalance()
		}

		// The three registry lists are mutually exclusive.
		switch {
		case helpers.IsEligibleForActivationQueue(cfg, val.ActivationEligibilityEpoch(), val.EffectiveBalance()):
			ep.IndicesEligibleForActivationQueue = append(ep.IndicesEligibleForActivationQueue, index)
		case val.ActivationEpoch() == cfg.FarFutureEpoch && val.ActivationEligibilityEpoch() <= currentEpoch:
			queue.indices = append(queue.indices, index)
			queue.epochs = append(queue.epochs, val.ActivationEligibilityEpoch())
		case pVal.IsActiveCurrentEpoch && val.ExitEpoch() == cfg.FarFutureEpoch && val.EffectiveBalance() <= cfg.EjectionBalance:
			ep.IndicesToEject = append(ep.IndicesToEject, index)
		}

		ep.Validators[idx] = pVal
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize epoch validators")
	}
	sort.Sort(queue)
	ep.IndicesEligibleForActivation = queue.indices

	if st.Version() == version.Phase0 {
		if err := ProcessAttestations(ctx, st, ep); err != nil {
			return nil, err
		}
	} else {
		if err := ProcessEpochParticipation(ctx, st, ep); err != nil {
			return nil, err
		}
	}
	ep.Balance = UpdateBalance(cfg.EffectiveBalanceIncrement, ep.Validators, ep.Balance)

	ep.BaseRewardPerIncrement, err = helpers.BaseRewardPerIncrement(cfg, ep.Balance.ActiveCurrentEpoch)
	if err != nil {
		return nil, err
	}
	return ep, nil
}

// UpdateBalance sums the attesting balances of the unslashed attesters in vp into bBal and
// floors every total to one effective balance increment.
func UpdateBalance(increment uint64, vp []*Validator, bBal *Balance) *Balance {
	for _, v := range vp {
		if v.IsSlashed {
			continue
		}
		if v.IsCurrentEpochTargetAttester {
			bBal.CurrentEpochTargetAttested += v.CurrentEpochEffectiveBalance
		}
		if v.IsPrevEpochAttester {
			bBal.PrevEpochAttested += v.CurrentEpochEffectiveBalance
		}
		if v.IsPrevEpochTargetAttester {
			bBal.PrevEpochTargetAttested += v.CurrentEpochEffectiveBalance
		}
		if v.IsPrevEpochHeadAttester {
			bBal.PrevEpochHeadAttested += v.CurrentEpochEffectiveBalance
		}
	}
	return EnsureBalancesLowerBound(increment, bBal)
}

// EnsureBalancesLowerBound ensures all the balances such as active current epoch, active previous epoch and more
// have EffectiveBalanceIncrement(1 eth) as a lower bound.
func EnsureBalancesLowerBound(increment uint64, bBal *Balance) *Balance {
	bBal.ActiveCurrentEpoch = mathutil.Max(increment, bBal.ActiveCurrentEpoch)
	bBal.ActivePrevEpoch = mathutil.Max(increment, bBal.ActivePrevEpoch)
	bBal.CurrentEpochTargetAttested = mathutil.Max(increment, bBal.CurrentEpochTargetAttested)
	bBal.PrevEpochAttested = mathutil.Max(increment, bBal.PrevEpochAttested)
	bBal.PrevEpochTargetAttested = mathutil.Max(increment, bBal.PrevEpochTargetAttested)
	bBal.PrevEpochHeadAttested = mathutil.Max(increment, bBal.PrevEpochHeadAttested)
	return bBal
}
