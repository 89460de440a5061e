// Package transition implements the whole state transition
// function which consists of per slot, per-epoch transitions.
// It also bootstraps the genesis beacon state for slot 0.
package transition

import (
	"bytes"
	"context"
	"fmt"
	gotime "time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/altair"
	b "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	e "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/monitoring/tracing"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var (
	epochProcessingTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "epoch_processing_milliseconds",
		Help:    "Time to run the epoch transition of a state, by fork.",
		Buckets: []float64{1, 5, 10, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"version"})
	processedSlots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "state_transition_processed_slots_total",
		Help: "The number of slots advanced by ProcessSlots.",
	})
	failedTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "state_transition_failures_total",
		Help: "The number of block transitions that returned an error.",
	})
)

// ExecuteStateTransition defines the procedure for a state transition function.
// The input state is never modified: the transition runs on a clone which is returned.
//
// Note: This method differs from the spec pseudocode as it uses a batch signature verification.
// See: ExecuteStateTransitionNoVerifyAnySig
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
func ExecuteStateTransition(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
	opts Options,
) (*cache.CachedBeaconState, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if st == nil || st.IsNil() {
		return nil, errors.New("nil state")
	}
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, err
	}

	ctx, span := trace.StartSpan(ctx, "core.state.ExecuteStateTransition")
	defer span.End()

	post, err := executeStateTransition(ctx, st, signed, opts)
	if err != nil {
		failedTransitions.Inc()
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return post, nil
}

func executeStateTransition(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
	opts Options,
) (*cache.CachedBeaconState, error) {
	blk := signed.Block()
	post := st.Clone()
	if err := ProcessSlots(ctx, post, blk.Slot()); err != nil {
		return nil, errors.Wrap(err, "could not process slots")
	}

	set := bls.NewBatch()
	if opts.VerifyProposerSignature {
		blockSet, err := b.BlockSignatureSet(post, signed)
		if err != nil {
			return nil, errors.Wrap(err, "could not retrieve block signature set")
		}
		set.Add(blockSet)
	}
	bodySet, err := processBlock(ctx, post, signed, opts.VerifySignatures)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block")
	}
	set.Join(bodySet)
	if err := verifyBatch(ctx, set, opts.SignatureWorkers); err != nil {
		return nil, err
	}

	if opts.VerifyStateRoot {
		if err := verifyStateRoot(ctx, post, blk); err != nil {
			return nil, err
		}
	}
	return post, nil
}

func verifyBatch(ctx context.Context, set *bls.SignatureBatch, workers int) error {
	if set.Len() == 0 {
		return nil
	}
	valid, err := set.VerifyParallel(ctx, workers)
	if err != nil {
		return errors.Wrap(err, "could not batch verify signature")
	}
	if !valid {
		if _, err := set.VerifyVerbosely(); err != nil {
			log.WithError(err).Debug("Block carries invalid signatures")
		}
		return errors.Wrap(signing.ErrSigFailedToVerify, "signature in block failed to verify")
	}
	return nil
}

func verifyStateRoot(ctx context.Context, st *cache.CachedBeaconState, blk interfaces.ReadOnlyBeaconBlock) error {
	postStateRoot, err := st.HashTreeRoot(ctx)
	if err != nil {
		return errors.Wrap(err, "could not compute post state root")
	}
	stateRoot := blk.StateRoot()
	if !bytes.Equal(postStateRoot[:], stateRoot[:]) {
		return fmt.Errorf("could not validate state root, wanted: %#x, received: %#x",
			postStateRoot[:], stateRoot[:])
	}
	return nil
}

// ProcessSlot happens every slot and focuses on the slot counter and block roots record updates.
// It happens regardless if there's an incoming block or not.
//
// Spec pseudocode definition:
//
//	def process_slot(state: BeaconState) -> None:
//	  # Cache state root
//	  previous_state_root = hash_tree_root(state)
//	  state.state_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_state_root
//	  # Cache latest block header state root
//	  if state.latest_block_header.state_root == Bytes32():
//	      state.latest_block_header.state_root = previous_state_root
//	  # Cache block root
//	  previous_block_root = hash_tree_root(state.latest_block_header)
//	  state.block_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_block_root
func ProcessSlot(ctx context.Context, st *cache.CachedBeaconState) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlot")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slot", int64(st.Slot()))) // lint:ignore uintcast -- This is OK for tracing.

	cfg := st.Config()
	prevStateRoot, err := st.HashTreeRoot(ctx)
	if err != nil {
		tracing.AnnotateError(span, err)
		return errors.Wrap(err, "could not compute state root")
	}
	historicalIdx := uint64(st.Slot() % cfg.SlotsPerHistoricalRoot)
	if err := st.UpdateStateRootAtIndex(historicalIdx, prevStateRoot); err != nil {
		return err
	}

	zeroHash := cfg.ZeroHash
	// Cache latest block header state root.
	header := st.LatestBlockHeader()
	if header.StateRoot == nil || bytes.Equal(header.StateRoot, zeroHash[:]) {
		header.StateRoot = prevStateRoot[:]
		if err := st.SetLatestBlockHeader(header); err != nil {
			return err
		}
	}
	prevBlockRoot, err := st.LatestBlockHeader().HashTreeRoot()
	if err != nil {
		tracing.AnnotateError(span, err)
		return errors.Wrap(err, "could not determine prev block root")
	}
	// Cache the block root.
	return st.UpdateBlockRootAtIndex(historicalIdx, prevBlockRoot)
}

// ProcessSlotsIfPossible executes ProcessSlots on the input state when target slot is above the state's slot.
// A target equal to the state's slot leaves the state unchanged, an earlier one is an error.
func ProcessSlotsIfPossible(ctx context.Context, st *cache.CachedBeaconState, targetSlot primitives.Slot) error {
	switch {
	case targetSlot > st.Slot():
		return ProcessSlots(ctx, st, targetSlot)
	case targetSlot < st.Slot():
		return fmt.Errorf("expected state.slot %d <= slot %d", st.Slot(), targetSlot)
	}
	return nil
}

// ProcessSlots process through skip slots and apply epoch transition when it's needed.
// The state is advanced in place. The epoch context is rotated every time the state enters a
// new epoch, and a phase0 state is upgraded to altair at the first slot of ALTAIR_FORK_EPOCH.
//
// Spec pseudocode definition:
//
//	def process_slots(state: BeaconState, slot: Slot) -> None:
//	  assert state.slot < slot
//	  while state.slot < slot:
//	      process_slot(state)
//	      # Process epoch on the start slot of the next epoch
//	      if (state.slot + 1) % SLOTS_PER_EPOCH == 0:
//	          process_epoch(state)
//	      state.slot = Slot(state.slot + 1)
func ProcessSlots(ctx context.Context, st *cache.CachedBeaconState, slot primitives.Slot) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlots")
	defer span.End()
	if st == nil || st.IsNil() {
		return errors.New("nil state")
	}
	span.AddAttributes(trace.Int64Attribute("slots", int64(slot)-int64(st.Slot()))) // lint:ignore uintcast -- This is OK for tracing.

	// The block must have a higher slot than parent state.
	if st.Slot() >= slot {
		err := fmt.Errorf("expected state.slot %d < slot %d", st.Slot(), slot)
		tracing.AnnotateError(span, err)
		return err
	}

	cfg := st.Config()
	for st.Slot() < slot {
		if ctx.Err() != nil {
			tracing.AnnotateError(span, ctx.Err())
			return ctx.Err()
		}
		if err := ProcessSlot(ctx, st); err != nil {
			tracing.AnnotateError(span, err)
			return errors.Wrap(err, "could not process slot")
		}
		epochEnd := time.CanProcessEpoch(cfg, st)
		if epochEnd {
			if _, err := ProcessEpoch(ctx, st); err != nil {
				tracing.AnnotateError(span, err)
				return err
			}
		}
		if err := st.SetSlot(st.Slot() + 1); err != nil {
			tracing.AnnotateError(span, err)
			return errors.Wrap(err, "failed to increment state slot")
		}
		processedSlots.Inc()
		if epochEnd {
			if err := st.EpochCtx().AfterProcessEpoch(st); err != nil {
				tracing.AnnotateError(span, err)
				return errors.Wrap(err, "could not rotate epoch context")
			}
		}

		if time.CanUpgradeToAltair(cfg, st.Slot()) && st.Version() == version.Phase0 {
			if err := altair.UpgradeToAltair(ctx, st); err != nil {
				tracing.AnnotateError(span, err)
				return errors.Wrap(err, "could not upgrade state to altair")
			}
		}
	}
	return nil
}

// ProcessSlotsUsingCache advances st to slot through the skip slot cache. When another caller
// already advanced the same state, a clone of its result is returned instead of processing the
// slots again. The returned state may therefore differ from st; st itself is not modified.
func ProcessSlotsUsingCache(
	ctx context.Context,
	skipSlots *cache.SkipSlotCache,
	st *cache.CachedBeaconState,
	slot primitives.Slot,
) (*cache.CachedBeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlotsUsingCache")
	defer span.End()
	if st == nil || st.IsNil() {
		return nil, errors.New("nil state")
	}
	if st.Slot() >= slot {
		return nil, fmt.Errorf("expected state.slot %d < slot %d", st.Slot(), slot)
	}

	root, err := st.HashTreeRoot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute state root")
	}
	key := cache.SkipSlotCacheKey(root, slot)

	// Restart from cached value, if one exists.
	cached, err := skipSlots.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	if err := skipSlots.MarkInProgress(key); errors.Is(err, cache.ErrAlreadyInProgress) {
		cached, err = skipSlots.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	} else if err != nil {
		return nil, err
	}
	defer skipSlots.MarkNotInProgress(key)

	post := st.Clone()
	if err := ProcessSlots(ctx, post, slot); err != nil {
		return nil, err
	}
	skipSlots.Put(ctx, key, post)
	return post, nil
}

// ProcessEpoch runs the epoch transition of the state's fork and records how long it took.
// The state must be at the last slot of its epoch. The epoch context is not rotated here,
// see ProcessSlots.
func ProcessEpoch(ctx context.Context, st *cache.CachedBeaconState) (*precompute.EpochProcess, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessEpoch")
	defer span.End()

	start := gotime.Now()
	var ep *precompute.EpochProcess
	var err error
	switch st.Version() {
	case version.Phase0:
		ep, err = e.ProcessEpoch(ctx, st)
	case version.Altair:
		ep, err = altair.ProcessEpoch(ctx, st)
	default:
		err = errors.Errorf("unsupported state version %s", version.String(st.Version()))
	}
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process epoch")
	}
	elapsed := gotime.Since(start)
	epochProcessingTime.WithLabelValues(version.String(st.Version())).Observe(float64(elapsed.Milliseconds()))
	log.WithFields(logrus.Fields{
		"epoch":    time.CurrentEpoch(st.Config(), st),
		"version":  version.String(st.Version()),
		"duration": elapsed,
	}).Debug("Processed epoch")
	return ep, nil
}

// StateTransition advances st to the slot of signed and applies it, or, when signed is nil,
// only advances st through empty slots up to slot, which must not precede st's slot. The
// input state is never modified.
func StateTransition(
	ctx context.Context,
	st *cache.CachedBeaconState,
	signed interfaces.ReadOnlySignedBeaconBlock,
	slot primitives.Slot,
	opts Options,
) (*cache.CachedBeaconState, error) {
	if signed != nil {
		return ExecuteStateTransition(ctx, st, signed, opts)
	}
	post := st.Clone()
	if err := ProcessSlotsIfPossible(ctx, post, slot); err != nil {
		return nil, err
	}
	return post, nil
}
