package precompute

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"go.opencensus.io/trace"
)

// ProcessEpochParticipation reads the participation flags of an altair state into the
// individual validator's pre computes. Previous epoch flags only count for validators active in
// the previous epoch and current epoch flags only for validators active in the current epoch.
func ProcessEpochParticipation(ctx context.Context, st *cache.CachedBeaconState, ep *EpochProcess) error {
	_, span := trace.StartSpan(ctx, "precomputeEpoch.ProcessEpochParticipation")
	defer span.End()

	if ep == nil {
		return ErrNilEpochProcess
	}
	cfg := st.Config()
	sourceFlag := byte(1) << cfg.TimelySourceFlagIndex
	targetFlag := byte(1) << cfg.TimelyTargetFlagIndex
	headFlag := byte(1) << cfg.TimelyHeadFlagIndex

	cp, err := st.CurrentEpochParticipation()
	if err != nil {
		return err
	}
	pp, err := st.PreviousEpochParticipation()
	if err != nil {
		return err
	}
	if len(cp) != len(ep.Validators) || len(pp) != len(ep.Validators) {
		return errors.Errorf("participation lengths %d and %d do not match validator count %d", len(pp), len(cp), len(ep.Validators))
	}
	for i, v := range ep.Validators {
		if v.IsActiveCurrentEpoch {
			b := cp[i]
			v.IsCurrentEpochAttester = b&sourceFlag != 0
			v.IsCurrentEpochTargetAttester = b&targetFlag != 0
			v.IsCurrentEpochHeadAttester = b&headFlag != 0
		}
		if v.IsActivePrevEpoch {
			b := pp[i]
			v.IsPrevEpochAttester = b&sourceFlag != 0
			v.IsPrevEpochTargetAttester = b&targetFlag != 0
			v.IsPrevEpochHeadAttester = b&headFlag != 0
		}
	}
	return nil
}
