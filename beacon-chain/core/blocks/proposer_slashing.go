package blocks

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	v "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ProcessProposerSlashings is one of the operations performed
// on each processed beacon block to slash proposers based on
// slashing conditions if any slashable events occurred.
//
// Spec pseudocode definition:
//
//	def process_proposer_slashing(state: BeaconState, proposer_slashing: ProposerSlashing) -> None:
//	 header_1 = proposer_slashing.signed_header_1.message
//	 header_2 = proposer_slashing.signed_header_2.message
//
//	 # Verify header slots match
//	 assert header_1.slot == header_2.slot
//	 # Verify header proposer indices match
//	 assert header_1.proposer_index == header_2.proposer_index
//	 # Verify the headers are different
//	 assert header_1 != header_2
//	 # Verify the proposer is slashable
//	 proposer = state.validators[header_1.proposer_index]
//	 assert is_slashable_validator(proposer, get_current_epoch(state))
//	 # Verify signatures
//	 for signed_header in (proposer_slashing.signed_header_1, proposer_slashing.signed_header_2):
//	     domain = get_domain(state, DOMAIN_BEACON_PROPOSER, compute_epoch_at_slot(signed_header.message.slot))
//	     signing_root = compute_signing_root(signed_header.message, domain)
//	     assert bls.Verify(proposer.pubkey, signing_root, signed_header.signature)
//
//	 slash_validator(state, header_1.proposer_index)
//
// The header signatures are collected by ProposerSlashingSignatureSets.
func ProcessProposerSlashings(
	ctx context.Context,
	st *cache.CachedBeaconState,
	slashings []*ethpb.ProposerSlashing,
) error {
	for idx, slashing := range slashings {
		if err := ProcessProposerSlashing(ctx, st, slashing); err != nil {
			return errors.Wrapf(err, "could not process proposer slashing at index %d in block", idx)
		}
	}
	return nil
}

// ProcessProposerSlashing processes individual proposer slashing.
func ProcessProposerSlashing(
	ctx context.Context,
	st *cache.CachedBeaconState,
	slashing *ethpb.ProposerSlashing,
) error {
	if slashing == nil {
		return errors.New("nil proposer slashings in block body")
	}
	if err := VerifyProposerSlashing(st, slashing); err != nil {
		return errors.Wrap(err, "could not verify proposer slashing")
	}
	if err := v.SlashValidator(ctx, st, slashing.Header_1.Header.ProposerIndex); err != nil {
		return errors.Wrapf(err, "could not slash proposer index %d", slashing.Header_1.Header.ProposerIndex)
	}
	return nil
}

// VerifyProposerSlashing verifies that the data provided from slashing is valid.
func VerifyProposerSlashing(
	st *cache.CachedBeaconState,
	slashing *ethpb.ProposerSlashing,
) error {
	if slashing.Header_1 == nil || slashing.Header_1.Header == nil || slashing.Header_2 == nil || slashing.Header_2.Header == nil {
		return errors.New("nil header cannot be verified")
	}
	h1, h2 := slashing.Header_1.Header, slashing.Header_2.Header
	if h1.Slot != h2.Slot {
		return fmt.Errorf("mismatched header slots, received %d == %d", h1.Slot, h2.Slot)
	}
	pIdx := h1.ProposerIndex
	if pIdx != h2.ProposerIndex {
		return fmt.Errorf("mismatched indices, received %d == %d", h1.ProposerIndex, h2.ProposerIndex)
	}
	if headersEqual(h1, h2) {
		return errors.New("expected slashing headers to differ")
	}
	proposer, err := st.ValidatorAtIndexReadOnly(pIdx)
	if err != nil {
		return err
	}
	if !helpers.IsSlashableValidatorUsingTrie(proposer, time.CurrentEpoch(st.Config(), st)) {
		return fmt.Errorf("validator with key %#x is not slashable", proposer.PublicKey())
	}
	return nil
}

func headersEqual(a, b *ethpb.BeaconBlockHeader) bool {
	return a.Slot == b.Slot &&
		a.ProposerIndex == b.ProposerIndex &&
		bytes.Equal(a.ParentRoot, b.ParentRoot) &&
		bytes.Equal(a.StateRoot, b.StateRoot) &&
		bytes.Equal(a.BodyRoot, b.BodyRoot)
}
