// Package blocks contains block processing libraries. These libraries
// process and verify block specific messages such as the block header,
// RANDAO, eth1 votes, validator deposits, exits and slashing proofs.
package blocks

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// NewGenesisBlock returns the canonical, genesis block for the beacon chain protocol.
func NewGenesisBlock(stateRoot []byte) *ethpb.SignedBeaconBlock {
	zeroHash := make([]byte, fieldparams.RootLength)
	return &ethpb.SignedBeaconBlock{
		Block: &ethpb.BeaconBlock{
			ParentRoot: zeroHash,
			StateRoot:  bytes.Clone(stateRoot),
			Body: &ethpb.BeaconBlockBody{
				RandaoReveal: make([]byte, fieldparams.BLSSignatureLength),
				Eth1Data: &ethpb.Eth1Data{
					DepositRoot: make([]byte, fieldparams.RootLength),
					BlockHash:   make([]byte, fieldparams.RootLength),
				},
				Graffiti: make([]byte, fieldparams.RootLength),
			},
		},
		Signature: make([]byte, fieldparams.BLSSignatureLength),
	}
}

// ProcessBlockHeader validates a block by its header.
//
// Spec pseudocode definition:
//
//	def process_block_header(state: BeaconState, block: BeaconBlock) -> None:
//	  # Verify that the slots match
//	  assert block.slot == state.slot
//	  # Verify that the block is newer than latest block header
//	  assert block.slot > state.latest_block_header.slot
//	  # Verify that proposer index is the correct index
//	  assert block.proposer_index == get_beacon_proposer_index(state)
//	  # Verify that the parent matches
//	  assert block.parent_root == hash_tree_root(state.latest_block_header)
//	  # Cache current block as the new latest block
//	  state.latest_block_header = BeaconBlockHeader(
//	      slot=block.slot,
//	      proposer_index=block.proposer_index,
//	      parent_root=block.parent_root,
//	      state_root=Bytes32(),  # Overwritten in the next process_slot call
//	      body_root=hash_tree_root(block.body),
//	  )
//
//	  # Verify proposer is not slashed
//	  proposer = state.validators[block.proposer_index]
//	  assert not proposer.slashed
func ProcessBlockHeader(
	ctx context.Context,
	st *cache.CachedBeaconState,
	block interfaces.ReadOnlySignedBeaconBlock,
) error {
	if err := VerifyNilBeaconBlock(block); err != nil {
		return err
	}
	blk := block.Block()
	bodyRoot, err := blk.Body().HashTreeRoot()
	if err != nil {
		return err
	}
	parentRoot := blk.ParentRoot()
	if err := ProcessBlockHeaderNoVerify(ctx, st, blk.Slot(), blk.ProposerIndex(), parentRoot[:], bodyRoot[:]); err != nil {
		return err
	}

	// Verify proposer signature.
	sig := block.Signature()
	return VerifyBlockSignature(st, blk.ProposerIndex(), sig[:], blk.HashTreeRoot)
}

// ProcessBlockHeaderNoVerify validates a block by its header but skips proposer
// signature verification.
//
// WARNING: This method does not verify proposer signature. This is used for proposer to compute state root
// using a unsigned block.
func ProcessBlockHeaderNoVerify(
	ctx context.Context,
	st *cache.CachedBeaconState,
	slot primitives.Slot, proposerIndex primitives.ValidatorIndex,
	parentRoot, bodyRoot []byte,
) error {
	_, span := trace.StartSpan(ctx, "core.ProcessBlockHeaderNoVerify")
	defer span.End()

	if st.Slot() != slot {
		return fmt.Errorf("state slot: %d is different than block slot: %d", st.Slot(), slot)
	}
	idx, err := st.EpochCtx().BeaconProposer(slot)
	if err != nil {
		return err
	}
	if proposerIndex != idx {
		return fmt.Errorf("proposer index: %d is different than calculated: %d", proposerIndex, idx)
	}
	parentHeader := st.LatestBlockHeader()
	if parentHeader.Slot >= slot {
		return fmt.Errorf("block.Slot %d must be greater than state.LatestBlockHeader.Slot %d", slot, parentHeader.Slot)
	}
	parentHeaderRoot, err := parentHeader.HashTreeRoot()
	if err != nil {
		return err
	}
	if !bytes.Equal(parentRoot, parentHeaderRoot[:]) {
		return fmt.Errorf(
			"parent root %#x does not match the latest block header signing root in state %#x",
			parentRoot, parentHeaderRoot[:])
	}

	proposer, err := st.ValidatorAtIndexReadOnly(idx)
	if err != nil {
		return err
	}
	if proposer.Slashed() {
		return fmt.Errorf("proposer at index %d was previously slashed", idx)
	}

	return st.SetLatestBlockHeader(&ethpb.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: proposerIndex,
		ParentRoot:    bytes.Clone(parentRoot),
		StateRoot:     make([]byte, fieldparams.RootLength),
		BodyRoot:      bytes.Clone(bodyRoot),
	})
}

// VerifyBlockSignature verifies the proposer signature of a beacon block.
func VerifyBlockSignature(
	st *cache.CachedBeaconState,
	proposerIndex primitives.ValidatorIndex,
	sig []byte,
	rootFunc func() ([32]byte, error),
) error {
	set, err := blockSignatureSet(st, proposerIndex, sig, rootFunc)
	if err != nil {
		return err
	}
	ok, err := set.Verify()
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(signing.ErrSigFailedToVerify, "could not verify block signature")
	}
	return nil
}

// VerifyNilBeaconBlock checks if any composite field of input signed beacon block is nil.
// Access to these nil fields will result in run time panic,
// it is recommended to run these checks as first line of defense.
func VerifyNilBeaconBlock(b interfaces.ReadOnlySignedBeaconBlock) error {
	if b == nil || b.IsNil() {
		return errors.New("signed beacon block can't be nil")
	}
	if b.Block().IsNil() {
		return errors.New("beacon block can't be nil")
	}
	if b.Block().Body().IsNil() {
		return errors.New("beacon block body can't be nil")
	}
	return nil
}
