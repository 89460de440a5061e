// Package state_native holds the beacon state used by the state transition. Large fields are
// shared between copies and copied on first write, and the hash tree root is cached per field.
package state_native

import (
	"sync"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// BeaconState defines a struct containing utilities for the Ethereum Beacon Chain state, defining
// getters and setters for its respective values and helpful functions such as HashTreeRoot().
type BeaconState struct {
	version                     int
	genesisTime                 uint64
	genesisValidatorsRoot       [32]byte
	slot                        primitives.Slot
	fork                        *ethpb.Fork
	latestBlockHeader           *ethpb.BeaconBlockHeader
	blockRoots                  [][32]byte
	stateRoots                  [][32]byte
	historicalRoots             [][32]byte
	eth1Data                    *ethpb.Eth1Data
	eth1DataVotes               []*ethpb.Eth1Data
	eth1DepositIndex            uint64
	validators                  []*ethpb.Validator
	balances                    []uint64
	randaoMixes                 [][32]byte
	slashings                   []uint64
	previousEpochAttestations   []*ethpb.PendingAttestation
	currentEpochAttestations    []*ethpb.PendingAttestation
	previousEpochParticipation  []byte
	currentEpochParticipation   []byte
	justificationBits           bitfield.Bitvector4
	previousJustifiedCheckpoint *ethpb.Checkpoint
	currentJustifiedCheckpoint  *ethpb.Checkpoint
	finalizedCheckpoint         *ethpb.Checkpoint
	inactivityScores            []uint64
	currentSyncCommittee        *ethpb.SyncCommittee
	nextSyncCommittee           *ethpb.SyncCommittee

	lock                  sync.RWMutex
	dirtyFields           map[types.FieldIndex]bool
	dirtyIndices          map[types.FieldIndex][]uint64
	rebuildTrie           map[types.FieldIndex]bool
	sharedFieldReferences map[types.FieldIndex]*stateutil.Reference
	fieldRoots            [][32]byte
	validatorLeaves       *stateutil.ValidatorLeaves
	leavesRef             *stateutil.Reference
}

// Version of the beacon state.
func (b *BeaconState) Version() int {
	return b.version
}
