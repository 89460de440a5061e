package transition

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/altair"
	b "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/monitoring/tracing"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"go.opencensus.io/trace"
)

// ExecuteStateTransitionNoVerifyAnySig defines the procedure for a state transition function.
// This does not validate any BLS signatures of attestations, block proposer signature, randao signature,
// it is used for performing a state transition as quickly as possible. This function also returns a signature
// set of all signatures not verified, so that they can be stored and verified later.
//
// WARNING: This method does not validate any signatures (i.e. calling `state_transition()` with `validate_result=False`).
// This method also modifies the passed in state.
//
// Spec pseudocode definition:
//
//	def state_transition(state: BeaconState, signed_block: SignedBeaconBlock, validate_result: bool=True) -> None:
//	  block = signed_block.message
//	  # Process slots (including those with no blocks) since block
//	  process_slots(state, block.slot)
//	  # Verify signature
//	  if validate_result:
//	      assert verify_block_signature(state, signed_block)
//	  # Process block
//	  process_block(state, block)
//	  # Verify state root
//	  if validate_result:
//	      assert block.state_root == hash_tree_root(state)
func ExecuteStateTransitionNoVerifyAnySig(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
) (*bls.SignatureBatch, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if st == nil || st.IsNil() {
		return nil, errors.New("nil state")
	}
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, err
	}

	ctx, span := trace.StartSpan(ctx, "core.state.ExecuteStateTransitionNoVerifyAnySig")
	defer span.End()

	if err := ProcessSlots(ctx, st, signed.Block().Slot()); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process slots")
	}

	blockSet, err := b.BlockSignatureSet(st, signed)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not retrieve block signature set")
	}
	set, err := ProcessBlockNoVerifyAnySig(ctx, st, signed)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block")
	}
	if err := verifyStateRoot(ctx, st, signed.Block()); err != nil {
		return nil, err
	}
	return bls.NewBatch().Add(blockSet).Join(set), nil
}

// CalculateStateRoot defines the procedure for a state transition function.
// This does not validate any BLS signatures in a block, it is used for calculating the
// state root of the state for the block proposer to use.
// This does not modify state.
//
// WARNING: This method does not validate any BLS signatures (i.e. calling `state_transition()` with `validate_result=False`).
// This is used for proposer to compute state root before proposing a new block, and this does not modify state.
//
// Spec pseudocode definition:
//
//	def state_transition(state: BeaconState, signed_block: SignedBeaconBlock, validate_result: bool=True) -> None:
//	  block = signed_block.message
//	  # Process slots (including those with no blocks) since block
//	  process_slots(state, block.slot)
//	  # Verify signature
//	  if validate_result:
//	      assert verify_block_signature(state, signed_block)
//	  # Process block
//	  process_block(state, block)
//	  # Verify state root
//	  if validate_result:
//	      assert block.state_root == hash_tree_root(state)
func CalculateStateRoot(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.CalculateStateRoot")
	defer span.End()
	if ctx.Err() != nil {
		tracing.AnnotateError(span, ctx.Err())
		return [32]byte{}, ctx.Err()
	}
	if st == nil || st.IsNil() {
		return [32]byte{}, errors.New("nil state")
	}
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return [32]byte{}, err
	}

	// Copy state to avoid mutating the state reference.
	post := st.Clone()

	// Execute per slots transition.
	if err := ProcessSlotsIfPossible(ctx, post, signed.Block().Slot()); err != nil {
		return [32]byte{}, errors.Wrap(err, "could not process slots")
	}

	// Execute per block transition.
	if _, err := processBlock(ctx, post, signed, false); err != nil {
		return [32]byte{}, errors.Wrap(err, "could not process block")
	}

	return post.HashTreeRoot(ctx)
}

// ProcessBlockNoVerifyAnySig creates a new, modified beacon state by applying block operation
// transformations as defined in the Ethereum Serenity specification. It does not validate
// any block signature except for deposit's proof of possession. The RANDAO reveal and every
// operation signature are returned as a batch for the caller to verify. The proposer signature
// is left out, see BlockSignatureSets.
//
// Spec pseudocode definition:
//
//	def process_block(state: BeaconState, block: BeaconBlock) -> None:
//	  process_block_header(state, block)
//	  process_randao(state, block.body)
//	  process_eth1_data(state, block.body)
//	  process_operations(state, block.body)
//	  process_sync_aggregate(state, block.body.sync_aggregate)  # [New in Altair]
func ProcessBlockNoVerifyAnySig(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
) (*bls.SignatureBatch, error) {
	return processBlock(ctx, st, signed, true)
}

// processBlock applies signed to st. Signature sets are only built, and their keys and
// encodings only checked, when collectSignatures is set. Otherwise the batch is empty.
func processBlock(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
	collectSignatures bool,
) (*bls.SignatureBatch, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessBlockNoVerifyAnySig")
	defer span.End()
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, err
	}
	if st.Version() != signed.Block().Version() {
		return nil, fmt.Errorf("state and block are different version. %d != %d", st.Version(), signed.Block().Version())
	}

	blk := signed.Block()
	body := blk.Body()
	bodyRoot, err := body.HashTreeRoot()
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	parentRoot := blk.ParentRoot()
	if err := b.ProcessBlockHeaderNoVerify(ctx, st, blk.Slot(), blk.ProposerIndex(), parentRoot[:], bodyRoot[:]); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block header")
	}

	set := bls.NewBatch()
	reveal := body.RandaoReveal()
	if collectSignatures {
		randaoSet, err := b.RandaoSignatureSet(ctx, st, reveal[:])
		if err != nil {
			tracing.AnnotateError(span, err)
			return nil, errors.Wrap(err, "could not retrieve randao signature set")
		}
		set.Add(randaoSet)
	}
	if err := b.ProcessRandaoNoVerify(st, reveal[:]); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process randao")
	}
	if err := b.ProcessEth1DataInBlock(ctx, st, body.Eth1Data()); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process eth1 data")
	}

	if err := ProcessOperations(ctx, st, body); err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block operations")
	}
	if !collectSignatures {
		return set, nil
	}
	// Pubkeys are append only and committees are fixed for the epoch, so the operation
	// sets are unaffected by the operations just applied.
	opSet, err := operationSignatureSets(ctx, st, body)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return set.Join(opSet), nil
}

// ProcessOperations processes the operations in the beacon block and updates beacon state
// with the operations in block. Operation signatures are not verified.
//
// Spec pseudocode definition:
//
//	def process_operations(state: BeaconState, body: BeaconBlockBody) -> None:
//	  # Verify that outstanding deposits are processed up to the maximum number of deposits
//	  assert len(body.deposits) == min(MAX_DEPOSITS, state.eth1_data.deposit_count - state.eth1_deposit_index)
//
//	  def for_ops(operations: Sequence[Any], fn: Callable[[BeaconState, Any], None]) -> None:
//	      for operation in operations:
//	          fn(state, operation)
//
//	  for_ops(body.proposer_slashings, process_proposer_slashing)
//	  for_ops(body.attester_slashings, process_attester_slashing)
//	  for_ops(body.attestations, process_attestation)
//	  for_ops(body.deposits, process_deposit)
//	  for_ops(body.voluntary_exits, process_voluntary_exit)
func ProcessOperations(
	ctx context.Context,
	st *cache.CachedBeaconState,
	body interfaces.ReadOnlyBeaconBlockBody,
) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessOperations")
	defer span.End()

	if err := b.VerifyOperationLengths(st.Config(), st, body); err != nil {
		return errors.Wrap(err, "could not verify operation lengths")
	}
	if err := b.ProcessProposerSlashings(ctx, st, body.ProposerSlashings()); err != nil {
		return errors.Wrap(err, "could not process block proposer slashings")
	}
	if err := b.ProcessAttesterSlashings(ctx, st, body.AttesterSlashings()); err != nil {
		return errors.Wrap(err, "could not process block attester slashings")
	}
	switch st.Version() {
	case version.Phase0:
		if err := b.ProcessAttestationsNoVerifySignature(ctx, st, body.Attestations()); err != nil {
			return errors.Wrap(err, "could not process block attestations")
		}
	case version.Altair:
		if err := altair.ProcessAttestationsNoVerifySignature(ctx, st, body.Attestations()); err != nil {
			return errors.Wrap(err, "could not process altair attestation")
		}
	default:
		return errors.Errorf("unsupported block version %s", version.String(st.Version()))
	}
	if err := b.ProcessDeposits(ctx, st, body.Deposits()); err != nil {
		return errors.Wrap(err, "could not process block validator deposits")
	}
	if err := b.ProcessVoluntaryExits(ctx, st, body.VoluntaryExits()); err != nil {
		return errors.Wrap(err, "could not process validator exits")
	}
	if st.Version() >= version.Altair {
		sa, err := body.SyncAggregate()
		if err != nil {
			return err
		}
		if err := altair.ProcessSyncAggregate(ctx, st, sa); err != nil {
			return errors.Wrap(err, "process_sync_aggregate failed")
		}
	}
	return nil
}

// BlockSignatureSets collects every signature of signed against st, which must already be at
// the block's slot and not yet have the block applied: the proposer signature, the RANDAO
// reveal and the operation signatures. Deposits are excluded since their proof of possession
// is checked while they are applied.
func BlockSignatureSets(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
) (*bls.SignatureBatch, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.BlockSignatureSets")
	defer span.End()
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, err
	}
	if st.Slot() != signed.Block().Slot() {
		return nil, fmt.Errorf("state slot: %d is different than block slot: %d", st.Slot(), signed.Block().Slot())
	}
	blockSet, err := b.BlockSignatureSet(st, signed)
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve block signature set")
	}
	reveal := signed.Block().Body().RandaoReveal()
	randaoSet, err := b.RandaoSignatureSet(ctx, st, reveal[:])
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve randao signature set")
	}
	opSet, err := operationSignatureSets(ctx, st, signed.Block().Body())
	if err != nil {
		return nil, err
	}
	return bls.NewBatch().Add(blockSet, randaoSet).Join(opSet), nil
}

// operationSignatureSets builds the sets of the body's operations in block processing order.
func operationSignatureSets(
	ctx context.Context,
	st *cache.CachedBeaconState,
	body interfaces.ReadOnlyBeaconBlockBody,
) (*bls.SignatureBatch, error) {
	set := bls.NewBatch()
	proposerSlashingSets, err := b.ProposerSlashingSignatureSets(st, body.ProposerSlashings())
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve proposer slashing signature sets")
	}
	attesterSlashingSets, err := b.AttesterSlashingSignatureSets(st, body.AttesterSlashings())
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve attester slashing signature sets")
	}
	attestationSets, err := b.AttestationSignatureSets(ctx, st, body.Attestations())
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve attestation signature sets")
	}
	exitSets, err := b.VoluntaryExitSignatureSets(st, body.VoluntaryExits())
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve voluntary exit signature sets")
	}
	set.Add(proposerSlashingSets...).Add(attesterSlashingSets...).Add(attestationSets...).Add(exitSets...)
	if st.Version() >= version.Altair {
		sa, err := body.SyncAggregate()
		if err != nil {
			return nil, err
		}
		syncSet, err := b.SyncAggregateSignatureSet(st, sa)
		if err != nil {
			return nil, errors.Wrap(err, "could not retrieve sync aggregate signature set")
		}
		set.Add(syncSet)
	}
	return set, nil
}
