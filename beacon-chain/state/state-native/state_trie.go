package state_native

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"go.opencensus.io/trace"
)

var phase0Fields = []types.FieldIndex{
	types.GenesisTime,
	types.GenesisValidatorsRoot,
	types.Slot,
	types.Fork,
	types.LatestBlockHeader,
	types.BlockRoots,
	types.StateRoots,
	types.HistoricalRoots,
	types.Eth1Data,
	types.Eth1DataVotes,
	types.Eth1DepositIndex,
	types.Validators,
	types.Balances,
	types.RandaoMixes,
	types.Slashings,
	types.PreviousEpochAttestations,
	types.CurrentEpochAttestations,
	types.JustificationBits,
	types.PreviousJustifiedCheckpoint,
	types.CurrentJustifiedCheckpoint,
	types.FinalizedCheckpoint,
}

var altairFields = []types.FieldIndex{
	types.GenesisTime,
	types.GenesisValidatorsRoot,
	types.Slot,
	types.Fork,
	types.LatestBlockHeader,
	types.BlockRoots,
	types.StateRoots,
	types.HistoricalRoots,
	types.Eth1Data,
	types.Eth1DataVotes,
	types.Eth1DepositIndex,
	types.Validators,
	types.Balances,
	types.RandaoMixes,
	types.Slashings,
	types.PreviousEpochParticipationBits,
	types.CurrentEpochParticipationBits,
	types.JustificationBits,
	types.PreviousJustifiedCheckpoint,
	types.CurrentJustifiedCheckpoint,
	types.FinalizedCheckpoint,
	types.InactivityScores,
	types.CurrentSyncCommittee,
	types.NextSyncCommittee,
}

// Fields whose slices are shared between copies until one of them writes.
var phase0SharedFields = []types.FieldIndex{
	types.BlockRoots,
	types.StateRoots,
	types.HistoricalRoots,
	types.Eth1DataVotes,
	types.Validators,
	types.Balances,
	types.RandaoMixes,
	types.Slashings,
	types.PreviousEpochAttestations,
	types.CurrentEpochAttestations,
}

var altairSharedFields = []types.FieldIndex{
	types.BlockRoots,
	types.StateRoots,
	types.HistoricalRoots,
	types.Eth1DataVotes,
	types.Validators,
	types.Balances,
	types.RandaoMixes,
	types.Slashings,
	types.PreviousEpochParticipationBits,
	types.CurrentEpochParticipationBits,
	types.InactivityScores,
}

func fieldsOf(v int) []types.FieldIndex {
	if v == version.Altair {
		return altairFields
	}
	return phase0Fields
}

func sharedFieldsOf(v int) []types.FieldIndex {
	if v == version.Altair {
		return altairSharedFields
	}
	return phase0SharedFields
}

// InitializeFromProtoPhase0 the beacon state from a protobuf representation.
func InitializeFromProtoPhase0(st *ethpb.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("received nil state")
	}
	return InitializeFromProtoUnsafePhase0(st.Copy())
}

// InitializeFromProtoAltair the beacon state from a protobuf representation.
func InitializeFromProtoAltair(st *ethpb.BeaconStateAltair) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("received nil state")
	}
	return InitializeFromProtoUnsafeAltair(st.Copy())
}

// InitializeFromProtoUnsafePhase0 directly uses the beacon state protobuf fields
// and sets them as fields of the BeaconState type.
func InitializeFromProtoUnsafePhase0(st *ethpb.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("received nil state")
	}
	b, err := newBeaconState(version.Phase0, commonFields{
		genesisTime:                 st.GenesisTime,
		genesisValidatorsRoot:       st.GenesisValidatorsRoot,
		slot:                        st.Slot,
		fork:                        st.Fork,
		latestBlockHeader:           st.LatestBlockHeader,
		blockRoots:                  st.BlockRoots,
		stateRoots:                  st.StateRoots,
		historicalRoots:             st.HistoricalRoots,
		eth1Data:                    st.Eth1Data,
		eth1DataVotes:               st.Eth1DataVotes,
		eth1DepositIndex:            st.Eth1DepositIndex,
		validators:                  st.Validators,
		balances:                    st.Balances,
		randaoMixes:                 st.RandaoMixes,
		slashings:                   st.Slashings,
		justificationBits:           st.JustificationBits,
		previousJustifiedCheckpoint: st.PreviousJustifiedCheckpoint,
		currentJustifiedCheckpoint:  st.CurrentJustifiedCheckpoint,
		finalizedCheckpoint:         st.FinalizedCheckpoint,
	})
	if err != nil {
		return nil, err
	}
	b.previousEpochAttestations = st.PreviousEpochAttestations
	b.currentEpochAttestations = st.CurrentEpochAttestations
	return b, nil
}

// InitializeFromProtoUnsafeAltair directly uses the beacon state protobuf fields
// and sets them as fields of the BeaconState type.
func InitializeFromProtoUnsafeAltair(st *ethpb.BeaconStateAltair) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("received nil state")
	}
	b, err := newBeaconState(version.Altair, commonFields{
		genesisTime:                 st.GenesisTime,
		genesisValidatorsRoot:       st.GenesisValidatorsRoot,
		slot:                        st.Slot,
		fork:                        st.Fork,
		latestBlockHeader:           st.LatestBlockHeader,
		blockRoots:                  st.BlockRoots,
		stateRoots:                  st.StateRoots,
		historicalRoots:             st.HistoricalRoots,
		eth1Data:                    st.Eth1Data,
		eth1DataVotes:               st.Eth1DataVotes,
		eth1DepositIndex:            st.Eth1DepositIndex,
		validators:                  st.Validators,
		balances:                    st.Balances,
		randaoMixes:                 st.RandaoMixes,
		slashings:                   st.Slashings,
		justificationBits:           st.JustificationBits,
		previousJustifiedCheckpoint: st.PreviousJustifiedCheckpoint,
		currentJustifiedCheckpoint:  st.CurrentJustifiedCheckpoint,
		finalizedCheckpoint:         st.FinalizedCheckpoint,
	})
	if err != nil {
		return nil, err
	}
	b.previousEpochParticipation = st.PreviousEpochParticipation
	b.currentEpochParticipation = st.CurrentEpochParticipation
	b.inactivityScores = st.InactivityScores
	b.currentSyncCommittee = st.CurrentSyncCommittee
	b.nextSyncCommittee = st.NextSyncCommittee
	return b, nil
}

type commonFields struct {
	genesisTime                 uint64
	genesisValidatorsRoot       []byte
	slot                        primitives.Slot
	fork                        *ethpb.Fork
	latestBlockHeader           *ethpb.BeaconBlockHeader
	blockRoots                  [][]byte
	stateRoots                  [][]byte
	historicalRoots             [][]byte
	eth1Data                    *ethpb.Eth1Data
	eth1DataVotes               []*ethpb.Eth1Data
	eth1DepositIndex            uint64
	validators                  []*ethpb.Validator
	balances                    []uint64
	randaoMixes                 [][]byte
	slashings                   []uint64
	justificationBits           []byte
	previousJustifiedCheckpoint *ethpb.Checkpoint
	currentJustifiedCheckpoint  *ethpb.Checkpoint
	finalizedCheckpoint         *ethpb.Checkpoint
}

func rootsVector(in [][]byte, length int, name string) ([][32]byte, error) {
	if len(in) > length {
		return nil, errors.Errorf("%s has %d entries, want at most %d", name, len(in), length)
	}
	out := make([][32]byte, length)
	for i, r := range in {
		out[i] = bytesutil.ToBytes32(r)
	}
	return out, nil
}

func newBeaconState(v int, f commonFields) (*BeaconState, error) {
	if len(f.balances) != len(f.validators) {
		return nil, errors.Errorf("state has %d balances for %d validators", len(f.balances), len(f.validators))
	}
	bRoots, err := rootsVector(f.blockRoots, fieldparams.BlockRootsLength, "block roots")
	if err != nil {
		return nil, err
	}
	sRoots, err := rootsVector(f.stateRoots, fieldparams.StateRootsLength, "state roots")
	if err != nil {
		return nil, err
	}
	mixes, err := rootsVector(f.randaoMixes, fieldparams.RandaoMixesLength, "randao mixes")
	if err != nil {
		return nil, err
	}
	hRoots := make([][32]byte, len(f.historicalRoots))
	for i, r := range f.historicalRoots {
		hRoots[i] = bytesutil.ToBytes32(r)
	}
	slashings := f.slashings
	if len(slashings) < fieldparams.SlashingsLength {
		slashings = make([]uint64, fieldparams.SlashingsLength)
		copy(slashings, f.slashings)
	}
	justificationBits := f.justificationBits
	if len(justificationBits) == 0 {
		justificationBits = []byte{0}
	}

	fields := fieldsOf(v)
	b := &BeaconState{
		version:                     v,
		genesisTime:                 f.genesisTime,
		genesisValidatorsRoot:       bytesutil.ToBytes32(f.genesisValidatorsRoot),
		slot:                        f.slot,
		fork:                        f.fork,
		latestBlockHeader:           f.latestBlockHeader,
		blockRoots:                  bRoots,
		stateRoots:                  sRoots,
		historicalRoots:             hRoots,
		eth1Data:                    f.eth1Data,
		eth1DataVotes:               f.eth1DataVotes,
		eth1DepositIndex:            f.eth1DepositIndex,
		validators:                  f.validators,
		balances:                    f.balances,
		randaoMixes:                 mixes,
		slashings:                   slashings,
		justificationBits:           justificationBits,
		previousJustifiedCheckpoint: f.previousJustifiedCheckpoint,
		currentJustifiedCheckpoint:  f.currentJustifiedCheckpoint,
		finalizedCheckpoint:         f.finalizedCheckpoint,

		dirtyFields:           make(map[types.FieldIndex]bool, len(fields)),
		dirtyIndices:          make(map[types.FieldIndex][]uint64, len(fields)),
		rebuildTrie:           make(map[types.FieldIndex]bool, len(fields)),
		sharedFieldReferences: make(map[types.FieldIndex]*stateutil.Reference, len(sharedFieldsOf(v))),
	}
	for _, fi := range fields {
		b.dirtyFields[fi] = true
		b.rebuildTrie[fi] = true
	}
	// Initialize field reference tracking for shared data.
	for _, fi := range sharedFieldsOf(v) {
		b.sharedFieldReferences[fi] = stateutil.NewRef(1)
	}

	state.Count.Inc()
	// Finalizer runs when dst is being destroyed in garbage collection.
	runtime.SetFinalizer(b, finalizerCleanup)
	return b, nil
}

// Copy returns a deep copy of the beacon state. Large fields are shared with the
// source and copied by whichever state writes to them first.
func (b *BeaconState) Copy() state.BeaconState {
	b.lock.RLock()
	defer b.lock.RUnlock()

	dst := &BeaconState{
		version: b.version,

		// Primitive types, safe to copy.
		genesisTime:           b.genesisTime,
		genesisValidatorsRoot: b.genesisValidatorsRoot,
		slot:                  b.slot,
		eth1DepositIndex:      b.eth1DepositIndex,

		// Large arrays, infrequently changed, constant size.
		blockRoots:                b.blockRoots,
		stateRoots:                b.stateRoots,
		randaoMixes:               b.randaoMixes,
		slashings:                 b.slashings,
		previousEpochAttestations: b.previousEpochAttestations,
		currentEpochAttestations:  b.currentEpochAttestations,
		eth1DataVotes:             b.eth1DataVotes,

		// Large arrays, increases over time.
		validators:                 b.validators,
		balances:                   b.balances,
		historicalRoots:            b.historicalRoots,
		previousEpochParticipation: b.previousEpochParticipation,
		currentEpochParticipation:  b.currentEpochParticipation,
		inactivityScores:           b.inactivityScores,

		// Everything else is replaced rather than mutated in place, so the pointers can be shared.
		justificationBits:           bytesutil.SafeCopyBytes(b.justificationBits),
		fork:                        b.fork,
		latestBlockHeader:           b.latestBlockHeader,
		eth1Data:                    b.eth1Data,
		previousJustifiedCheckpoint: b.previousJustifiedCheckpoint,
		currentJustifiedCheckpoint:  b.currentJustifiedCheckpoint,
		finalizedCheckpoint:         b.finalizedCheckpoint,
		currentSyncCommittee:        b.currentSyncCommittee,
		nextSyncCommittee:           b.nextSyncCommittee,

		dirtyFields:           make(map[types.FieldIndex]bool, len(b.dirtyFields)),
		dirtyIndices:          make(map[types.FieldIndex][]uint64, len(b.dirtyIndices)),
		rebuildTrie:           make(map[types.FieldIndex]bool, len(b.rebuildTrie)),
		sharedFieldReferences: make(map[types.FieldIndex]*stateutil.Reference, len(b.sharedFieldReferences)),

		validatorLeaves: b.validatorLeaves,
		leavesRef:       b.leavesRef,
	}

	for field, ref := range b.sharedFieldReferences {
		ref.AddRef()
		dst.sharedFieldReferences[field] = ref
	}
	if b.leavesRef != nil {
		b.leavesRef.AddRef()
	}

	for i := range b.dirtyFields {
		dst.dirtyFields[i] = true
	}
	for i := range b.dirtyIndices {
		indices := make([]uint64, len(b.dirtyIndices[i]))
		copy(indices, b.dirtyIndices[i])
		dst.dirtyIndices[i] = indices
	}
	for i := range b.rebuildTrie {
		dst.rebuildTrie[i] = true
	}
	if b.fieldRoots != nil {
		dst.fieldRoots = make([][32]byte, len(b.fieldRoots))
		copy(dst.fieldRoots, b.fieldRoots)
	}

	state.Count.Inc()
	// Finalizer runs when dst is being destroyed in garbage collection.
	runtime.SetFinalizer(dst, finalizerCleanup)
	return dst
}

// HashTreeRoot of the beacon state retrieves the Merkle root of the trie
// representation of the beacon state based on the Ethereum Simple Serialize specification.
// Only the fields written since the previous call are rehashed.
func (b *BeaconState) HashTreeRoot(ctx context.Context) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "beaconState.HashTreeRoot")
	defer span.End()

	b.lock.Lock()
	defer b.lock.Unlock()
	if err := b.initializeFieldRoots(); err != nil {
		return [32]byte{}, err
	}
	if err := b.recomputeDirtyFields(ctx); err != nil {
		return [32]byte{}, err
	}
	return ssz.MerkleizeVector(b.fieldRoots, uint64(len(b.fieldRoots))), nil
}

// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) initializeFieldRoots() error {
	if b.fieldRoots != nil {
		return nil
	}
	fields := fieldsOf(b.version)
	b.fieldRoots = make([][32]byte, len(fields))
	for _, f := range fields {
		b.dirtyFields[f] = true
	}
	return nil
}

// Recomputes the roots of the dirty fields in the state.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) recomputeDirtyFields(ctx context.Context) error {
	for field := range b.dirtyFields {
		root, err := b.rootSelector(ctx, field)
		if err != nil {
			return err
		}
		idx := field.RealPosition()
		if idx < 0 || idx >= len(b.fieldRoots) {
			return errors.Errorf("field %s is not part of a %s state", field, version.String(b.version))
		}
		b.fieldRoots[idx] = root
		delete(b.dirtyFields, field)
	}
	return nil
}

func (b *BeaconState) rootSelector(ctx context.Context, field types.FieldIndex) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "beaconState.rootSelector")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("field", field.String()))

	switch field {
	case types.GenesisTime:
		return ssz.Uint64Root(b.genesisTime), nil
	case types.GenesisValidatorsRoot:
		return b.genesisValidatorsRoot, nil
	case types.Slot:
		return ssz.Uint64Root(uint64(b.slot)), nil
	case types.Fork:
		if b.fork == nil {
			return [32]byte{}, errors.New("nil fork")
		}
		return b.fork.HashTreeRoot()
	case types.LatestBlockHeader:
		if b.latestBlockHeader == nil {
			return [32]byte{}, errors.New("nil latest block header")
		}
		return b.latestBlockHeader.HashTreeRoot()
	case types.BlockRoots:
		return stateutil.ArraysRoot(b.blockRoots, fieldparams.BlockRootsLength)
	case types.StateRoots:
		return stateutil.ArraysRoot(b.stateRoots, fieldparams.StateRootsLength)
	case types.HistoricalRoots:
		return stateutil.HistoricalRootsRoot(b.historicalRoots)
	case types.Eth1Data:
		if b.eth1Data == nil {
			return [32]byte{}, errors.New("nil eth1 data")
		}
		return b.eth1Data.HashTreeRoot()
	case types.Eth1DataVotes:
		return stateutil.Eth1DataVotesRoot(b.eth1DataVotes)
	case types.Eth1DepositIndex:
		return ssz.Uint64Root(b.eth1DepositIndex), nil
	case types.Validators:
		return b.validatorsRoot()
	case types.Balances:
		return stateutil.Uint64ListRootWithRegistryLimit(b.balances)
	case types.RandaoMixes:
		return stateutil.ArraysRoot(b.randaoMixes, fieldparams.RandaoMixesLength)
	case types.Slashings:
		return stateutil.SlashingsRoot(b.slashings)
	case types.PreviousEpochAttestations:
		return stateutil.EpochAttestationsRoot(b.previousEpochAttestations)
	case types.CurrentEpochAttestations:
		return stateutil.EpochAttestationsRoot(b.currentEpochAttestations)
	case types.PreviousEpochParticipationBits:
		return stateutil.ParticipationBitsRoot(b.previousEpochParticipation)
	case types.CurrentEpochParticipationBits:
		return stateutil.ParticipationBitsRoot(b.currentEpochParticipation)
	case types.JustificationBits:
		return bytesutil.ToBytes32(b.justificationBits), nil
	case types.PreviousJustifiedCheckpoint:
		return checkpointRoot(b.previousJustifiedCheckpoint)
	case types.CurrentJustifiedCheckpoint:
		return checkpointRoot(b.currentJustifiedCheckpoint)
	case types.FinalizedCheckpoint:
		return checkpointRoot(b.finalizedCheckpoint)
	case types.InactivityScores:
		return stateutil.Uint64ListRootWithRegistryLimit(b.inactivityScores)
	case types.CurrentSyncCommittee:
		return stateutil.SyncCommitteeRoot(b.currentSyncCommittee)
	case types.NextSyncCommittee:
		return stateutil.SyncCommitteeRoot(b.nextSyncCommittee)
	}
	return [32]byte{}, errors.Errorf("invalid field index provided %d", field)
}

func checkpointRoot(cp *ethpb.Checkpoint) ([32]byte, error) {
	if cp == nil {
		return [32]byte{}, errors.New("nil checkpoint")
	}
	return cp.HashTreeRoot()
}

// validatorsRoot rehashes only the validators touched since the last root, unless the
// whole registry was replaced.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) validatorsRoot() ([32]byte, error) {
	defer func() {
		delete(b.rebuildTrie, types.Validators)
		delete(b.dirtyIndices, types.Validators)
	}()
	if b.rebuildTrie[types.Validators] || b.validatorLeaves == nil {
		leaves, err := stateutil.NewValidatorLeaves(b.validators)
		if err != nil {
			return [32]byte{}, err
		}
		if b.leavesRef != nil {
			b.leavesRef.MinusRef()
		}
		b.validatorLeaves = leaves
		b.leavesRef = stateutil.NewRef(1)
		return leaves.Root(), nil
	}
	if b.leavesRef.Refs() > 1 {
		b.validatorLeaves = b.validatorLeaves.Copy()
		b.leavesRef.MinusRef()
		b.leavesRef = stateutil.NewRef(1)
	}
	if err := b.validatorLeaves.Update(b.validators, b.dirtyIndices[types.Validators]); err != nil {
		return [32]byte{}, err
	}
	return b.validatorLeaves.Root(), nil
}

// FieldReferencesCount returns the reference count held by each field.
func (b *BeaconState) FieldReferencesCount() map[string]uint64 {
	refMap := make(map[string]uint64)
	b.lock.RLock()
	defer b.lock.RUnlock()
	for i, f := range b.sharedFieldReferences {
		refMap[i.String()] = uint64(f.Refs())
	}
	if b.leavesRef != nil {
		refMap[types.Validators.String()+"_leaves"] = uint64(b.leavesRef.Refs())
	}
	return refMap
}

// IsNil checks if the state is nil.
func (b *BeaconState) IsNil() bool {
	return b == nil
}

func finalizerCleanup(b *BeaconState) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for field, v := range b.sharedFieldReferences {
		v.MinusRef()
		delete(b.sharedFieldReferences, field)
	}
	if b.leavesRef != nil {
		b.leavesRef.MinusRef()
	}
	state.Count.Sub(1)
}

// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) markFieldAsDirty(field types.FieldIndex) {
	b.dirtyFields[field] = true
}

// addDirtyIndices adds the relevant dirty field indices, so that they
// can be recomputed.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) addDirtyIndices(index types.FieldIndex, indices []uint64) {
	if b.rebuildTrie[index] {
		return
	}
	b.dirtyIndices[index] = append(b.dirtyIndices[index], indices...)
}

// detach gives the state its own copy of a shared field before a write. copyFn performs the
// copy and is only invoked when another state holds a reference.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) detach(field types.FieldIndex, copyFn func()) {
	ref, ok := b.sharedFieldReferences[field]
	if !ok {
		return
	}
	if ref.Refs() > 1 {
		copyFn()
		ref.MinusRef()
		b.sharedFieldReferences[field] = stateutil.NewRef(1)
	}
}

// replaceRef drops the state's reference on a field whose value is replaced wholesale.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) replaceRef(field types.FieldIndex) {
	if ref, ok := b.sharedFieldReferences[field]; ok {
		ref.MinusRef()
	}
	b.sharedFieldReferences[field] = stateutil.NewRef(1)
}

// rotateRef moves the reference of the current-epoch field onto the previous-epoch field,
// matching a rotation of the underlying slices, and gives current a fresh reference.
//
// WARNING: Caller must acquire the mutex before using.
func (b *BeaconState) rotateRef(previous, current types.FieldIndex) {
	if ref, ok := b.sharedFieldReferences[previous]; ok {
		ref.MinusRef()
	}
	b.sharedFieldReferences[previous] = b.sharedFieldReferences[current]
	b.sharedFieldReferences[current] = stateutil.NewRef(1)
}
