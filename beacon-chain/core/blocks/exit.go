package blocks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	v "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ValidatorAlreadyExitedMsg defines a message saying that a validator has already exited.
var ValidatorAlreadyExitedMsg = "has already submitted an exit, which will take place at epoch"

// ValidatorCannotExitYetMsg defines a message saying that a validator cannot exit
// because it has not been active long enough.
var ValidatorCannotExitYetMsg = "validator has not been active long enough to exit"

// ProcessVoluntaryExits is one of the operations performed
// on each processed beacon block to determine which validators
// should exit the state's validator registry.
//
// Spec pseudocode definition:
//
//	def process_voluntary_exit(state: BeaconState, signed_voluntary_exit: SignedVoluntaryExit) -> None:
//	  voluntary_exit = signed_voluntary_exit.message
//	  validator = state.validators[voluntary_exit.validator_index]
//	  # Verify the validator is active
//	  assert is_active_validator(validator, get_current_epoch(state))
//	  # Verify exit has not been initiated
//	  assert validator.exit_epoch == FAR_FUTURE_EPOCH
//	  # Exits must specify an epoch when they become valid; they are not valid before then
//	  assert get_current_epoch(state) >= voluntary_exit.epoch
//	  # Verify the validator has been active long enough
//	  assert get_current_epoch(state) >= validator.activation_epoch + SHARD_COMMITTEE_PERIOD
//	  # Verify signature
//	  domain = get_domain(state, DOMAIN_VOLUNTARY_EXIT, voluntary_exit.epoch)
//	  signing_root = compute_signing_root(voluntary_exit, domain)
//	  assert bls.Verify(validator.pubkey, signing_root, signed_voluntary_exit.signature)
//	  # Initiate exit
//	  initiate_validator_exit(state, voluntary_exit.validator_index)
//
// The exit signatures are collected by VoluntaryExitSignatureSets.
func ProcessVoluntaryExits(
	ctx context.Context,
	st *cache.CachedBeaconState,
	exits []*ethpb.SignedVoluntaryExit,
) error {
	for idx, exit := range exits {
		if exit == nil || exit.Exit == nil {
			return errors.New("nil voluntary exit in block body")
		}
		val, err := st.ValidatorAtIndexReadOnly(exit.Exit.ValidatorIndex)
		if err != nil {
			return err
		}
		if err := VerifyExitConditions(st.Config(), val, exit.Exit, time.CurrentEpoch(st.Config(), st)); err != nil {
			return errors.Wrapf(err, "could not verify voluntary exit at index %d in block", idx)
		}
		if err := v.InitiateValidatorExit(ctx, st, exit.Exit.ValidatorIndex); err != nil {
			return err
		}
	}
	return nil
}

// VerifyExitConditions implements the spec defined validation for voluntary exits (excluding signatures).
func VerifyExitConditions(
	cfg *params.BeaconChainConfig,
	validator state.ReadOnlyValidator,
	exit *ethpb.VoluntaryExit,
	currentEpoch primitives.Epoch,
) error {
	if !helpers.IsActiveValidatorUsingTrie(validator, currentEpoch) {
		return errors.New("non-active validator cannot exit")
	}
	// Verify the validator has not yet submitted an exit.
	if validator.ExitEpoch() != cfg.FarFutureEpoch {
		return fmt.Errorf("validator with index %d %s: %v", exit.ValidatorIndex, ValidatorAlreadyExitedMsg, validator.ExitEpoch())
	}
	// Exits must specify an epoch when they become valid; they are not valid before then.
	if currentEpoch < exit.Epoch {
		return fmt.Errorf("expected current epoch >= exit epoch, received %d < %d", currentEpoch, exit.Epoch)
	}
	// Verify the validator has been active long enough.
	if currentEpoch < validator.ActivationEpoch()+cfg.ShardCommitteePeriod {
		return fmt.Errorf(
			"%s: %d of %d epochs. Validator will be eligible for exit at epoch %d",
			ValidatorCannotExitYetMsg,
			currentEpoch-validator.ActivationEpoch(),
			cfg.ShardCommitteePeriod,
			validator.ActivationEpoch()+cfg.ShardCommitteePeriod,
		)
	}
	return nil
}
